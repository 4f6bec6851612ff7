// Package identity resolves the user every GraphQL operation acts for.
package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingIdentity = errors.New("user identity is required (set token or user_id)")
	ErrInvalidToken    = errors.New("invalid bearer token")
)

type Identity struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
}

// Resolve prefers the bearer token's subject. The signature is not checked
// here: the token is opaque to the client and the server verifies it.
func Resolve(token, userID string, now time.Time) (Identity, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	userID = strings.TrimSpace(userID)
	if token == "" {
		if userID == "" {
			return Identity{}, ErrMissingIdentity
		}
		return Identity{UserID: userID}, nil
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	subject, err := claims.GetSubject()
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if subject == "" {
		subject, _ = claims["user_id"].(string)
	}
	if subject == "" {
		return Identity{}, fmt.Errorf("%w: no subject claim", ErrInvalidToken)
	}
	if userID != "" && userID != subject {
		return Identity{}, fmt.Errorf("%w: token subject %q does not match user_id %q", ErrInvalidToken, subject, userID)
	}
	id := Identity{UserID: subject, Token: token}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if exp != nil {
		id.ExpiresAt = exp.Time
		if !now.Before(exp.Time) {
			return Identity{}, fmt.Errorf("%w: token expired at %s", ErrInvalidToken, exp.Time.Format(time.RFC3339))
		}
	}
	return id, nil
}
