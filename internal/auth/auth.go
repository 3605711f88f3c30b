// Package auth issues and validates the bearer tokens used by API clients
// that cannot reach the server over the tailnet.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/claude/splitlog/internal/workout"
	"github.com/golang-jwt/jwt/v5"
)

const issuer = "splitlog"

// Tokens signs HS256 JWTs whose subject is the numeric user ID.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens creates a token service. A zero ttl issues tokens without expiry.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Claims carried by a splitlog token.
type Claims struct {
	Login string `json:"login,omitempty"`
	jwt.RegisteredClaims
}

// Issue returns a signed token for the user.
func (t *Tokens) Issue(userID int, login string) (string, error) {
	if len(t.secret) == 0 {
		return "", errors.New("jwt secret not configured")
	}
	now := t.now()
	claims := Claims{
		Login: login,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			Subject:  strconv.Itoa(userID),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if t.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(t.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Validate checks the signature and expiry and returns the user ID.
// Every failure is reported as workout.ErrUnauthorized.
func (t *Tokens) Validate(tokenString string) (int, error) {
	if len(t.secret) == 0 {
		return 0, workout.ErrUnauthorized
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(t.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !token.Valid {
		return 0, workout.ErrUnauthorized
	}

	userID, err := strconv.Atoi(claims.Subject)
	if err != nil || userID <= 0 {
		return 0, workout.ErrUnauthorized
	}
	return userID, nil
}
