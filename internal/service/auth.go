package service

import (
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/curator-cms/curator/internal/domain"
	internal_errors "github.com/curator-cms/curator/internal/errors"
)

type AuthService interface {
	Login(creds domain.Credentials) (string, error)
	CreateUser(creds domain.Credentials, admin bool) (domain.UserId, error)
}

type AuthStorage interface {
	SaveUser(user domain.User) (domain.UserId, error)
	User(email string) (domain.User, error)
}

type Jwt interface {
	NewToken(user domain.User) (string, error)
}

type Auth struct {
	storage AuthStorage
	jwt     Jwt
}

func NewAuth(storage AuthStorage, jwt Jwt) *Auth {
	return &Auth{storage: storage, jwt: jwt}
}

func (a *Auth) Login(creds domain.Credentials) (string, error) {
	email := strings.ToLower(strings.TrimSpace(creds.Email))

	user, err := a.storage.User(email)
	if err != nil {
		if internal_errors.IsNotFound(err) {
			// Same answer for unknown user and bad password.
			return "", &internal_errors.ErrorWithStatusCode{Message: "Invalid credentials", StatusCode: 401}
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PassHash), []byte(creds.Password)); err != nil {
		return "", &internal_errors.ErrorWithStatusCode{Message: "Invalid credentials", StatusCode: 401}
	}

	return a.jwt.NewToken(user)
}

func (a *Auth) CreateUser(creds domain.Credentials, admin bool) (domain.UserId, error) {
	if len(creds.Password) < 8 {
		return -1, &internal_errors.ValidationError{Message: "password must be at least 8 characters"}
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return -1, err
	}

	return a.storage.SaveUser(domain.User{
		Email:    strings.ToLower(strings.TrimSpace(creds.Email)),
		PassHash: string(passHash),
		Admin:    admin,
	})
}
