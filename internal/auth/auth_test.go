package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pubquiz-service/internal/auth"
	"pubquiz-service/internal/infra/memory"
)

func TestRegisterLoginVerifyRoundtrip(t *testing.T) {
	ctx := context.Background()
	service := auth.NewService(memory.NewStore(), "test-secret", time.Hour)

	user, err := service.Register(ctx, "Quizmaster", "host@example.com", "hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "hunter2", user.PasswordHash)

	token, err := service.Login(ctx, "host@example.com", "hunter2")
	require.NoError(t, err)

	identity, err := service.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.UserID)
	assert.Equal(t, "host@example.com", identity.Email)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	service := auth.NewService(memory.NewStore(), "test-secret", time.Hour)
	_, err := service.Register(ctx, "Quizmaster", "host@example.com", "hunter2")
	require.NoError(t, err)

	_, err = service.Login(ctx, "host@example.com", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = service.Login(ctx, "nobody@example.com", "hunter2")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	service := auth.NewService(memory.NewStore(), "test-secret", time.Hour)
	_, err := service.Register(ctx, "Quizmaster", "host@example.com", "hunter2")
	require.NoError(t, err)

	_, err = service.Register(ctx, "Copycat", "host@example.com", "other")
	assert.ErrorIs(t, err, auth.ErrEmailTaken)
}

func TestVerifyFailsClosed(t *testing.T) {
	ctx := context.Background()
	service := auth.NewService(memory.NewStore(), "test-secret", time.Hour)
	_, err := service.Register(ctx, "Quizmaster", "host@example.com", "hunter2")
	require.NoError(t, err)

	_, err = service.Verify("")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
	_, err = service.Verify("not.a.token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	// Token signed with a different secret.
	other := auth.NewService(memory.NewStore(), "other-secret", time.Hour)
	_, err = other.Register(ctx, "Quizmaster", "host@example.com", "hunter2")
	require.NoError(t, err)
	foreign, err := other.Login(ctx, "host@example.com", "hunter2")
	require.NoError(t, err)
	_, err = service.Verify(foreign)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	ctx := context.Background()
	service := auth.NewService(memory.NewStore(), "test-secret", -time.Minute)
	_, err := service.Register(ctx, "Quizmaster", "host@example.com", "hunter2")
	require.NoError(t, err)

	token, err := service.Login(ctx, "host@example.com", "hunter2")
	require.NoError(t, err)
	_, err = service.Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
