// Package auth issues and verifies session tokens and decides which lecture
// actions an identity may perform.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lecturehub/apiserver/internal/apperr"
	"github.com/lecturehub/apiserver/types"
)

// Identity is the caller extracted from a verified session token.
type Identity struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// IsAdmin reports whether the identity holds the admin role.
func (i Identity) IsAdmin() bool {
	return strings.EqualFold(i.Role, types.RoleAdmin)
}

// Authenticated reports whether the identity came from a verified token.
func (i Identity) Authenticated() bool {
	return i.ID > 0
}

// Claims are the JWT claims carried by a session token.
type Claims struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer constructs an issuer. A zero ttl issues tokens without expiry.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue returns a signed token asserting the user's id, username and role.
func (t *TokenIssuer) Issue(user types.User) (string, error) {
	now := t.now()
	claims := Claims{
		ID:       user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if t.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(t.ttl))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify checks the token signature and returns the embedded identity.
// Claims are not checked against the current user record.
func (t *TokenIssuer) Verify(tokenString string) (Identity, error) {
	claims := Claims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return Identity{}, apperr.Wrap(apperr.ErrUnauthenticated, "Invalid token", err)
	}
	if !token.Valid {
		return Identity{}, apperr.New(apperr.ErrUnauthenticated, "Invalid token")
	}
	if claims.ID < 1 {
		return Identity{}, apperr.New(apperr.ErrUnauthenticated, "Invalid token")
	}
	return Identity{
		ID:       claims.ID,
		Username: claims.Username,
		Role:     claims.Role,
	}, nil
}
