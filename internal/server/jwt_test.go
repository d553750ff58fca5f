package server

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonathan/cover-letter-generator/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret-key-for-jwt-signing-minimum-32-bytes"

func setupTestJWTService(_ *testing.T, expirationHours int) *JWTService {
	return NewJWTService(&config.JWTConfig{Secret: testJWTSecret, ExpirationHours: expirationHours})
}

func TestJWTService_GenerateToken(t *testing.T) {
	service := setupTestJWTService(t, 24)
	clientID := uuid.New()

	token, err := service.GenerateToken(clientID, "laptop")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	assert.Len(t, parts, 3, "JWT should have 3 parts separated by dots")

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, clientID, claims.ClientID)
	assert.Equal(t, "laptop", claims.Name)
	assert.Equal(t, TokenIssuer, claims.Issuer)
	assert.Equal(t, clientID.String(), claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestJWTService_GenerateToken_UniqueTokens(t *testing.T) {
	service := setupTestJWTService(t, 24)
	clientID := uuid.New()

	token1, err := service.GenerateToken(clientID, "")
	require.NoError(t, err)
	token2, err := service.GenerateToken(clientID, "")
	require.NoError(t, err)

	assert.NotEqual(t, token1, token2, "jti makes every token distinct")
}

func TestJWTService_Expiration(t *testing.T) {
	service := setupTestJWTService(t, 2)
	issued := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return issued }

	token, err := service.GenerateToken(uuid.New(), "")
	require.NoError(t, err)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, issued.Add(2*time.Hour), claims.ExpiresAt.Time.UTC())

	service.now = func() time.Time { return issued.Add(3 * time.Hour) }
	claims, err = service.ValidateToken(token)
	require.Error(t, err)
	assert.Nil(t, claims)
	assert.Contains(t, err.Error(), "expired")
}

func TestJWTService_ValidateToken_InvalidSignature(t *testing.T) {
	signer := setupTestJWTService(t, 24)
	checker := NewJWTService(&config.JWTConfig{Secret: "a-different-secret", ExpirationHours: 24})

	token, err := signer.GenerateToken(uuid.New(), "")
	require.NoError(t, err)

	claims, err := checker.ValidateToken(token)
	require.Error(t, err)
	assert.Nil(t, claims)
	assert.Contains(t, err.Error(), "signature")
}

func TestJWTService_ValidateToken_Rejects(t *testing.T) {
	service := setupTestJWTService(t, 24)
	now := time.Now()

	sign := func(claims jwt.Claims, method jwt.SigningMethod, key any) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"one part", "invalid"},
		{"two parts", "invalid.token"},
		{"four parts", "invalid.token.format.extra"},
		{"bad base64", "invalid.base64.signature"},
		{"wrong issuer", sign(&Claims{
			ClientID: uuid.New(),
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "someone-else",
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		}, jwt.SigningMethodHS256, []byte(testJWTSecret))},
		{"no client id", sign(&Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    TokenIssuer,
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		}, jwt.SigningMethodHS256, []byte(testJWTSecret))},
		{"alg none", sign(&Claims{
			ClientID:         uuid.New(),
			RegisteredClaims: jwt.RegisteredClaims{Issuer: TokenIssuer},
		}, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := service.ValidateToken(tt.token)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}

func TestJWTService_AsTokenValidator(t *testing.T) {
	service := setupTestJWTService(t, 24)
	clientID := uuid.New()
	token, err := service.GenerateToken(clientID, "")
	require.NoError(t, err)

	got, err := service.AsTokenValidator().ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, clientID, got.GetClientID())

	_, err = service.AsTokenValidator().ValidateToken("junk")
	assert.Error(t, err)
}
