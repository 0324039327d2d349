package domain

import "time"

type UserId = int64

type User struct {
	Id       UserId    `json:"id"`
	Email    string    `json:"email"`
	PassHash string    `json:"-"`
	Admin    bool      `json:"admin"`
	Created  time.Time `json:"created"`
}

type Credentials struct {
	Email    string
	Password string
}
