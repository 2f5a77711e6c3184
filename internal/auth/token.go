package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/garnizeh/jobly/pkg/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrRevoked is returned by Verify for a token that was logged out.
var ErrRevoked = errors.New("token revoked")

// Claims is the signed token payload.
type Claims struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 tokens.
type Tokens struct {
	secret  []byte
	ttl     time.Duration
	revoked Revocations
	now     func() time.Time
}

// NewTokens creates a Tokens. A nil Revocations disables revocation checks.
func NewTokens(secret string, ttl time.Duration, rv Revocations) *Tokens {
	if rv == nil {
		rv = NopRevocations{}
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, revoked: rv, now: time.Now}
}

// Issue signs a token for u.
func (t *Tokens) Issue(u *models.User) (string, error) {
	if u == nil {
		return "", fmt.Errorf("user is nil")
	}

	now := t.now()
	claims := Claims{
		Username: u.Username,
		IsAdmin:  u.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm, expiry and revocation, and returns the
// identity carried by the token.
func (t *Tokens) Verify(ctx context.Context, raw string) (*Identity, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid || claims.Username == "" {
		return nil, fmt.Errorf("invalid token")
	}

	if claims.ID != "" {
		revoked, err := t.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return nil, ErrRevoked
		}
	}

	id := &Identity{Username: claims.Username, IsAdmin: claims.IsAdmin, TokenID: claims.ID}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}

// Revoke invalidates the token behind id until it would have expired anyway.
func (t *Tokens) Revoke(ctx context.Context, id *Identity) error {
	if id == nil || id.TokenID == "" {
		return nil
	}
	ttl := time.Until(id.ExpiresAt)
	if id.ExpiresAt.IsZero() {
		ttl = t.ttl
	}
	if ttl <= 0 {
		return nil
	}
	return t.revoked.Revoke(ctx, id.TokenID, ttl)
}
