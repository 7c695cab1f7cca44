package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/apperr"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/user"
	"github.com/golang-jwt/jwt/v5"
)

const issuer = "minishop"

// Claims is the body of an access token: sub is the user id.
type Claims struct {
	Role user.Role `json:"role"`
	jwt.RegisteredClaims
}

// Principal is the caller a valid token identifies.
type Principal struct {
	UserID string
	Role   user.Role
}

// Tokens signs and verifies HS256 access tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *Tokens) Issue(u *user.User) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	claims := Claims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse verifies the signature and expiry of raw. Every failure is an UnauthorizedError.
func (t *Tokens) Parse(raw string) (Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(tok *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, &apperr.UnauthorizedError{Reason: "Token has expired."}
		}
		return Principal{}, &apperr.UnauthorizedError{Reason: "Unauthenticated."}
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return Principal{}, &apperr.UnauthorizedError{Reason: "Unauthenticated."}
	}
	return Principal{UserID: claims.Subject, Role: claims.Role}, nil
}
