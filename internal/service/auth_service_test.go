package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/clumsypasta/abans-form/internal/models"
	"github.com/clumsypasta/abans-form/pkg/config"
	appErrors "github.com/clumsypasta/abans-form/pkg/errors"
)

func adminConfig(t *testing.T) config.AdminConfig {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	return config.AdminConfig{
		Enabled:      true,
		Email:        "reviewer@abans.example",
		PasswordHash: string(hash),
		JWTSecret:    "test-secret",
		TokenExpiry:  time.Hour,
	}
}

func TestLoginIssuesValidToken(t *testing.T) {
	svc := NewAuthService(nil, nil, adminConfig(t))

	resp, err := svc.Login(models.LoginRequest{Email: "reviewer@abans.example", Password: "s3cret-pass"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	assert.WithinDuration(t, time.Now().Add(time.Hour), resp.ExpiresAt, time.Minute)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "reviewer@abans.example", claims.Email)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := NewAuthService(nil, nil, adminConfig(t))
	_, err := svc.Login(models.LoginRequest{Email: "reviewer@abans.example", Password: "nope"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestLoginWrongEmail(t *testing.T) {
	svc := NewAuthService(nil, nil, adminConfig(t))
	_, err := svc.Login(models.LoginRequest{Email: "other@abans.example", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestLoginDisabled(t *testing.T) {
	cfg := adminConfig(t)
	cfg.Enabled = false
	svc := NewAuthService(nil, nil, cfg)
	_, err := svc.Login(models.LoginRequest{Email: "reviewer@abans.example", Password: "s3cret-pass"})
	assert.Equal(t, appErrors.ErrNotConfigured.Code, appErrors.FromError(err).Code)
}

func TestLoginInvalidPayload(t *testing.T) {
	svc := NewAuthService(nil, nil, adminConfig(t))
	_, err := svc.Login(models.LoginRequest{Email: "not-an-email", Password: ""})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	svc := NewAuthService(nil, nil, adminConfig(t))
	resp, err := svc.Login(models.LoginRequest{Email: "reviewer@abans.example", Password: "s3cret-pass"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.AccessToken + "x")
	assert.Error(t, err)

	other := adminConfig(t)
	other.JWTSecret = "different-secret"
	otherSvc := NewAuthService(nil, nil, other)
	_, err = otherSvc.ValidateToken(resp.AccessToken)
	assert.Error(t, err)
}
