package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Oludefiyinfoluwa06/smarti-website/internal/models"
	"github.com/Oludefiyinfoluwa06/smarti-website/pkg/config"
)

func newAuthServiceUnderTest(t *testing.T) *AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewAuthService(
		config.AdminConfig{Email: "admin@smarti.ng", PasswordHash: string(hash)},
		config.JWTConfig{Secret: "test-secret", Expiration: time.Hour},
		nil, nil,
	)
}

func TestAuthServiceLoginIssuesToken(t *testing.T) {
	svc := newAuthServiceUnderTest(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "Admin@Smarti.ng", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "admin@smarti.ng", resp.Email)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin@smarti.ng", claims.Email)
	assert.Equal(t, "admin", claims.Role)
}

func TestAuthServiceLoginRejectsWrongPassword(t *testing.T) {
	svc := newAuthServiceUnderTest(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@smarti.ng", Password: "nope"})
	require.Error(t, err)
}

func TestAuthServiceLoginRejectsUnknownEmail(t *testing.T) {
	svc := newAuthServiceUnderTest(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "other@smarti.ng", Password: "s3cret-pass"})
	require.Error(t, err)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc := newAuthServiceUnderTest(t)

	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
}
