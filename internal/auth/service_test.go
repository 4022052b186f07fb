package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	tokens, err := NewTokenManager("wakil", "test-secret")
	require.NoError(t, err)
	svc, err := NewService(NewMemStore(), tokens)
	require.NoError(t, err)
	return svc
}

func TestSignupAndLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	session, err := svc.Signup(ctx, "Alice@Example.com", "s3curepw", "Alice")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "alice@example.com", session.User.Email)
	assert.Equal(t, int64(0), session.User.Credits)

	login, err := svc.Login(ctx, "alice@example.com", "s3curepw")
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, login.User.ID)

	me, err := svc.Me(ctx, session.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", me.Name)
}

func TestSignupValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "not-an-email", "s3curepw", "Alice")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Signup(ctx, "alice@example.com", "short", "Alice")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Signup(ctx, "alice@example.com", "s3curepw", "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "alice@example.com", "s3curepw", "Alice")
	require.NoError(t, err)

	_, err = svc.Signup(ctx, "ALICE@example.com", "otherpw1", "Mallory")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "alice@example.com", "s3curepw", "Alice")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice@example.com", "wrongpw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "s3curepw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
