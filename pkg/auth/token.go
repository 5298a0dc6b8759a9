// Package auth mints and verifies the HS256 access tokens carried by the
// customer app, the partner app and the admin console.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/laundryhub/laundry-backend/pkg/config"
	"github.com/laundryhub/laundry-backend/pkg/enums"
)

const clockSkew = 30 * time.Second

var signingMethod = jwt.SigningMethodHS256

// AccessTokenPayload is what the login flow knows about the caller. JTI is
// generated when empty.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.ActorRole
	JTI    string
}

// Principal is the verified content of an access token.
type Principal struct {
	UserID    uuid.UUID
	Role      enums.ActorRole
	TokenID   string
	ExpiresAt time.Time
}

// accessClaims keeps the user id in "sub" and adds the role.
type accessClaims struct {
	Role enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}

func tokenRole(role enums.ActorRole) error {
	// system is reserved for server-side jobs and never signs in
	if !role.IsValid() || role == enums.ActorRoleSystem {
		return fmt.Errorf("invalid actor role %q", role)
	}
	return nil
}

func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	switch {
	case cfg.Secret == "":
		return "", errors.New("jwt secret is required")
	case cfg.Issuer == "":
		return "", errors.New("jwt issuer is required")
	case cfg.ExpirationMinutes <= 0:
		return "", errors.New("jwt expiration minutes must be positive")
	case payload.UserID == uuid.Nil:
		return "", errors.New("user id is required")
	}
	if err := tokenRole(payload.Role); err != nil {
		return "", err
	}

	jti := payload.JTI
	if jti == "" {
		jti = uuid.NewString()
	}
	claims := accessClaims{
		Role: payload.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    cfg.Issuer,
			Subject:   payload.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.AccessTokenTTL())),
		},
	}
	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies signature, issuer and expiry and returns the
// caller the token was minted for.
func ParseAccessToken(cfg config.JWTConfig, raw string) (*Principal, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}

	var claims accessClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return []byte(cfg.Secret), nil },
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
	)
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return nil, fmt.Errorf("invalid token subject %q", claims.Subject)
	}
	if err := tokenRole(claims.Role); err != nil {
		return nil, err
	}
	return &Principal{
		UserID:    userID,
		Role:      claims.Role,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
