package auth

import "errors"

var (
	ErrNotFound           = errors.New("auth: user not found")
	ErrEmailTaken         = errors.New("auth: email already exists")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrInvalidInput       = errors.New("auth: invalid input")
	ErrInvalidToken       = errors.New("auth: invalid token")
)
