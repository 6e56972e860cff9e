package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTValidator_ValidateToken(t *testing.T) {
	validator, err := NewJWTValidator(JWTConfig{SecretKey: "secret", Issuer: "flowbuilder", Audience: []string{"editor"}})
	require.NoError(t, err)

	sign := func(t *testing.T, secret, issuer string, audience []string, ttl time.Duration) string {
		t.Helper()
		gen, err := NewJWTGenerator(secret, issuer, audience, ttl)
		require.NoError(t, err)
		token, err := gen.GenerateToken("user-1", "a@b.c", []string{"editor"})
		require.NoError(t, err)
		return token
	}

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "valid", token: sign(t, "secret", "flowbuilder", []string{"editor"}, time.Hour)},
		{name: "bearer prefix", token: "Bearer " + sign(t, "secret", "flowbuilder", []string{"editor"}, time.Hour)},
		{name: "missing", token: "  ", wantErr: ErrMissingToken},
		{name: "expired", token: sign(t, "secret", "flowbuilder", []string{"editor"}, -time.Minute), wantErr: ErrExpiredToken},
		{name: "wrong secret", token: sign(t, "other", "flowbuilder", []string{"editor"}, time.Hour), wantErr: ErrInvalidSignature},
		{name: "wrong issuer", token: sign(t, "secret", "someone", []string{"editor"}, time.Hour), wantErr: ErrInvalidClaims},
		{name: "wrong audience", token: sign(t, "secret", "flowbuilder", []string{"admin"}, time.Hour), wantErr: ErrInvalidClaims},
		{name: "garbage", token: "not.a.token", wantErr: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := validator.ValidateToken(tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "user-1", claims.UserID)
			assert.Equal(t, []string{"editor"}, claims.Roles)
		})
	}
}

func TestJWTValidator_RejectsOtherAlgorithms(t *testing.T) {
	validator, err := NewJWTValidator(JWTConfig{SecretKey: "secret"})
	require.NoError(t, err)

	for _, method := range []jwt.SigningMethod{jwt.SigningMethodHS384, jwt.SigningMethodHS512} {
		t.Run(method.Alg(), func(t *testing.T) {
			token, err := jwt.NewWithClaims(method, &Claims{UserID: "u"}).SignedString([]byte("secret"))
			require.NoError(t, err)

			_, err = validator.ValidateToken(token)
			assert.ErrorIs(t, err, ErrInvalidSignature)
			assert.NotErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestJWTValidator_RequiresSubject(t *testing.T) {
	validator, err := NewJWTValidator(JWTConfig{SecretKey: "secret"})
	require.NoError(t, err)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = validator.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestNewJWTValidator_RequiresSecret(t *testing.T) {
	_, err := NewJWTValidator(JWTConfig{})
	assert.Error(t, err)
	_, err = NewJWTGenerator("", "", nil, time.Hour)
	assert.Error(t, err)
}

func TestUserContext(t *testing.T) {
	_, err := GetUserFromContext(context.Background())
	assert.Error(t, err)

	ctx := SetUserInContext(context.Background(), &UserContext{UserID: "u"})
	user, err := GetUserFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u", user.UserID)
}
