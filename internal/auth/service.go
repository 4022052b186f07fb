package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Service implements signup, login and profile lookup against a UserStore.
type Service struct {
	store  UserStore
	tokens *TokenManager
}

// NewService constructs the account service.
func NewService(store UserStore, tokens *TokenManager) (*Service, error) {
	if store == nil {
		return nil, errors.New("user store is required")
	}
	if tokens == nil {
		return nil, errors.New("token manager is required")
	}
	return &Service{store: store, tokens: tokens}, nil
}

// Session is the result of a successful signup or login.
type Session struct {
	Token string
	User  *User
}

// Signup registers a new account and signs it in.
func (s *Service) Signup(ctx context.Context, email, password, name string) (Session, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if !validEmail(email) {
		return Session{}, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if len(password) < 6 {
		return Session{}, fmt.Errorf("%w: password must be at least 6 characters", ErrInvalidInput)
	}
	if name == "" {
		return Session{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return Session{}, err
	}
	user := &User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return Session{}, err
	}
	token, _, err := s.tokens.Generate(user.ID)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: user}, nil
}

// Login authenticates credentials and issues a token. Unknown email and bad
// password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	token, _, err := s.tokens.Generate(user.ID)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: user}, nil
}

// Me returns the profile of the given user.
func (s *Service) Me(ctx context.Context, userID string) (*User, error) {
	return s.store.FindUser(ctx, userID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	return !strings.ContainsAny(email, " \t")
}
