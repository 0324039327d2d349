package pg

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/curator-cms/curator/internal/domain"
	internal_errors "github.com/curator-cms/curator/internal/errors"
)

func (s *Storage) SaveUser(user domain.User) (domain.UserId, error) {
	var id domain.UserId
	err := s.db.QueryRow(`
	INSERT INTO users(email, pass_hash, admin)
	VALUES($1, $2, $3)
	RETURNING id`,
		user.Email, user.PassHash, user.Admin).Scan(&id)
	if err != nil {
		return -1, err
	}
	return id, nil
}

func (s *Storage) User(email string) (domain.User, error) {
	var user domain.User
	err := s.db.QueryRow(`
	SELECT id, email, pass_hash, admin, created
	FROM users
	WHERE email = $1`, email).Scan(&user.Id, &user.Email, &user.PassHash, &user.Admin, &user.Created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, fmt.Errorf("user %s: %w", email, internal_errors.NotFound)
		}
		return domain.User{}, err
	}
	return user, nil
}
