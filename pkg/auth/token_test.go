package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laundryhub/laundry-backend/pkg/config"
	"github.com/laundryhub/laundry-backend/pkg/enums"
)

func testJWTConfig(minutes int) config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "laundry-api",
		ExpirationMinutes: minutes,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig(30)
	now := time.Now().UTC()
	partnerID := uuid.New()

	token, err := MintAccessToken(cfg, now, AccessTokenPayload{UserID: partnerID, Role: enums.ActorRolePartner})
	require.NoError(t, err)

	principal, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, partnerID, principal.UserID)
	assert.Equal(t, enums.ActorRolePartner, principal.Role)
	assert.NotEmpty(t, principal.TokenID)
	assert.WithinDuration(t, now.Add(30*time.Minute), principal.ExpiresAt, time.Second)
}

func TestMintAccessTokenKeepsExplicitJTI(t *testing.T) {
	cfg := testJWTConfig(5)
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.ActorRoleAdmin, JTI: "fixed"})
	require.NoError(t, err)

	principal, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, "fixed", principal.TokenID)
}

func TestParseAccessTokenInvalidSignature(t *testing.T) {
	cfg := testJWTConfig(10)
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.ActorRoleCustomer})
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, token+"x")
	assert.Error(t, err)
}

func TestParseAccessTokenWrongIssuer(t *testing.T) {
	cfg := testJWTConfig(10)
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.ActorRoleCustomer})
	require.NoError(t, err)

	other := cfg
	other.Issuer = "someone-else"
	_, err = ParseAccessToken(other, token)
	assert.Error(t, err)
}

func TestParseAccessTokenExpired(t *testing.T) {
	cfg := testJWTConfig(15)
	token, err := MintAccessToken(cfg, time.Now().Add(-time.Hour), AccessTokenPayload{UserID: uuid.New(), Role: enums.ActorRolePartner})
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestMintAccessTokenRejectsBadInput(t *testing.T) {
	cfg := testJWTConfig(5)
	now := time.Now()

	_, err := MintAccessToken(cfg, now, AccessTokenPayload{UserID: uuid.New(), Role: ""})
	assert.Error(t, err, "empty role")

	_, err = MintAccessToken(cfg, now, AccessTokenPayload{UserID: uuid.New(), Role: enums.ActorRoleSystem})
	assert.Error(t, err, "system actors never hold tokens")

	_, err = MintAccessToken(cfg, now, AccessTokenPayload{Role: enums.ActorRoleAdmin})
	assert.Error(t, err, "missing user id")

	_, err = MintAccessToken(config.JWTConfig{Issuer: "x", ExpirationMinutes: 5}, now, AccessTokenPayload{UserID: uuid.New(), Role: enums.ActorRoleAdmin})
	assert.Error(t, err, "missing secret")
}

func TestParseAccessTokenRejectsForgedClaims(t *testing.T) {
	cfg := testJWTConfig(10)
	sign := func(claims jwt.Claims, method jwt.SigningMethod, key any) string {
		t.Helper()
		raw, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return raw
	}
	valid := func() accessClaims {
		return accessClaims{
			Role: enums.ActorRoleAdmin,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    cfg.Issuer,
				Subject:   uuid.NewString(),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			},
		}
	}

	systemRole := valid()
	systemRole.Role = enums.ActorRoleSystem
	badSubject := valid()
	badSubject.Subject = "not-a-uuid"
	noExpiry := valid()
	noExpiry.ExpiresAt = nil

	cases := map[string]string{
		"system role": sign(systemRole, jwt.SigningMethodHS256, []byte(cfg.Secret)),
		"bad subject": sign(badSubject, jwt.SigningMethodHS256, []byte(cfg.Secret)),
		"no expiry":   sign(noExpiry, jwt.SigningMethodHS256, []byte(cfg.Secret)),
		"hs512":       sign(valid(), jwt.SigningMethodHS512, []byte(cfg.Secret)),
	}
	for name, raw := range cases {
		_, err := ParseAccessToken(cfg, raw)
		assert.Error(t, err, name)
	}
}

func TestParseAccessTokenToleratesSmallClockSkew(t *testing.T) {
	cfg := testJWTConfig(1)
	token, err := MintAccessToken(cfg, time.Now().Add(-time.Minute-10*time.Second), AccessTokenPayload{UserID: uuid.New(), Role: enums.ActorRoleCustomer})
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, token)
	assert.NoError(t, err)
}
