package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type hubClaims struct {
	Hub string `json:"hub"`
	jwt.RegisteredClaims
}

// tokenIssuer signs and verifies the short-lived access tokens handed out
// by /negotiate and presented on the websocket client endpoint.
type tokenIssuer struct {
	secret   []byte
	ttl      time.Duration
	audience string
	now      func() time.Time
}

func newTokenIssuer(secret string, ttl time.Duration, audience string) *tokenIssuer {
	return &tokenIssuer{
		secret:   []byte(secret),
		ttl:      ttl,
		audience: audience,
		now:      time.Now,
	}
}

// issue returns a signed token for hub and its expiry. JWT dates have
// second precision, so the expiry is truncated to match the exp claim.
func (t *tokenIssuer) issue(hub string) (string, time.Time, error) {
	now := t.now()
	expires := now.Add(t.ttl).Truncate(time.Second)
	claims := hubClaims{
		Hub: hub,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Audience:  jwt.ClaimStrings{t.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expires, nil
}

// verify checks signature, audience and expiry and returns the hub the
// token grants access to.
func (t *tokenIssuer) verify(token string) (string, error) {
	var claims hubClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(t.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return "", fmt.Errorf("verify access token: %w", err)
	}
	if claims.Hub == "" {
		return "", errors.New("verify access token: no hub claim")
	}
	return claims.Hub, nil
}
