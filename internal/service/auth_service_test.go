package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/review-feed/internal/config"
	apperrors "github.com/spec-kit/review-feed/pkg/util"
)

func newAuthService(_ *testing.T) (*AuthService, *fakeUserRepo, *fakeResetRepo) {
	users := newFakeUserRepo(newTestClock())
	resets := newFakeResetRepo()
	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret",
			AccessTokenTTLMinutes:   15,
			PasswordResetTTLMinutes: 30,
			BcryptCost:              bcrypt.MinCost,
		},
	}
	return NewAuthService(cfg, AuthDependencies{
		UserRepo:          users,
		PasswordResetRepo: resets,
	}), users, resets
}

func TestRegister(t *testing.T) {
	svc, _, _ := newAuthService(t)

	user, token, exp, err := svc.Register(context.Background(), "alice", "sup3rsecret", "sup3rsecret")
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.NotEmpty(t, token)
	require.False(t, exp.IsZero())

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)
	require.Equal(t, "alice", claims.Username)
}

func TestRegisterRejections(t *testing.T) {
	svc, _, _ := newAuthService(t)

	_, _, _, err := svc.Register(context.Background(), "alice", "sup3rsecret", "different")
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	// The username column is varchar(30); overlong names never reach
	// the insert.
	_, _, _, err = svc.Register(context.Background(), strings.Repeat("a", 40), "sup3rsecret", "sup3rsecret")
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	_, _, _, err = svc.Register(context.Background(), "", "sup3rsecret", "sup3rsecret")
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	_, _, _, err = svc.Register(context.Background(), "alice", "short", "short")
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	_, _, _, err = svc.Register(context.Background(), "alice", "sup3rsecret", "sup3rsecret")
	require.NoError(t, err)
	_, _, _, err = svc.Register(context.Background(), "alice", "0thersecret", "0thersecret")
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestLogin(t *testing.T) {
	svc, _, _ := newAuthService(t)
	registered, _, _, err := svc.Register(context.Background(), "alice", "sup3rsecret", "sup3rsecret")
	require.NoError(t, err)

	user, token, _, err := svc.Login(context.Background(), "alice", "sup3rsecret")
	require.NoError(t, err)
	require.Equal(t, registered.ID, user.ID)
	require.NotEmpty(t, token)

	_, _, _, err = svc.Login(context.Background(), "alice", "wrongpass")
	require.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
	_, _, _, err = svc.Login(context.Background(), "nobody", "sup3rsecret")
	require.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}

func TestChangePassword(t *testing.T) {
	svc, _, _ := newAuthService(t)
	user, _, _, err := svc.Register(context.Background(), "alice", "sup3rsecret", "sup3rsecret")
	require.NoError(t, err)

	require.True(t, apperrors.IsCode(
		svc.ChangePassword(context.Background(), user.ID, "wrongpass", "n3wpassword"), "UNAUTHORIZED"))
	require.True(t, apperrors.IsCode(
		svc.ChangePassword(context.Background(), user.ID, "sup3rsecret", "short"), "VALIDATION_FAILED"))

	require.NoError(t, svc.ChangePassword(context.Background(), user.ID, "sup3rsecret", "n3wpassword"))

	_, _, _, err = svc.Login(context.Background(), "alice", "n3wpassword")
	require.NoError(t, err)
	_, _, _, err = svc.Login(context.Background(), "alice", "sup3rsecret")
	require.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}

func TestPasswordReset(t *testing.T) {
	svc, _, _ := newAuthService(t)
	_, _, _, err := svc.Register(context.Background(), "alice", "sup3rsecret", "sup3rsecret")
	require.NoError(t, err)

	token, err := svc.RequestPasswordReset(context.Background(), "alice")
	require.NoError(t, err)
	require.NotEmpty(t, token.Token)

	require.NoError(t, svc.ConfirmPasswordReset(context.Background(), token.Token, "n3wpassword"))
	_, _, _, err = svc.Login(context.Background(), "alice", "n3wpassword")
	require.NoError(t, err)

	// A token is single-use.
	err = svc.ConfirmPasswordReset(context.Background(), token.Token, "an0therpass")
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestPasswordResetExpiredToken(t *testing.T) {
	svc, _, resets := newAuthService(t)
	_, _, _, err := svc.Register(context.Background(), "alice", "sup3rsecret", "sup3rsecret")
	require.NoError(t, err)

	token, err := svc.RequestPasswordReset(context.Background(), "alice")
	require.NoError(t, err)
	resets.expire(token.ID)

	err = svc.ConfirmPasswordReset(context.Background(), token.Token, "n3wpassword")
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestPasswordResetUnknownUser(t *testing.T) {
	svc, _, _ := newAuthService(t)

	_, err := svc.RequestPasswordReset(context.Background(), "nobody")
	require.True(t, apperrors.IsCode(err, "NOT_FOUND"))
	err = svc.ConfirmPasswordReset(context.Background(), "bogus-token", "n3wpassword")
	require.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}
