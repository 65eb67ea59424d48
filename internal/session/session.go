// Package session holds the authenticated identity for each role. A buyer
// session and a courier session can be live on the same device; both live in
// one TokenStore keyed by role.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"feira/internal/models"

	"github.com/dgrijalva/jwt-go"
)

// ErrNoSession is returned by a TokenStore when the role has no stored token.
var ErrNoSession = errors.New("no session stored")

// Session is the bearer credential for one role.
type Session struct {
	Role      models.Role `json:"role"`
	Token     string      `json:"token"`
	UserID    string      `json:"userId,omitempty"`
	ExpiresAt time.Time   `json:"expiresAt,omitempty"`
}

// NewSession builds a Session from a bearer token. When the token is a JWT
// its user_id/sub and exp claims are read without verifying the signature;
// the backend remains the authority on validity.
func NewSession(role models.Role, token string) (Session, error) {
	if token == "" {
		return Session{}, fmt.Errorf("empty token for role %s", role)
	}
	s := Session{Role: role, Token: token}

	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		// Opaque tokens are accepted as is.
		return s, nil
	}
	if uid, ok := claims["user_id"].(string); ok {
		s.UserID = uid
	} else if sub, ok := claims["sub"].(string); ok {
		s.UserID = sub
	}
	if exp, ok := claims["exp"].(float64); ok {
		s.ExpiresAt = time.Unix(int64(exp), 0)
	}
	return s, nil
}

// Expired reports whether the token's exp claim has passed.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// TokenStore persists sessions keyed by role.
type TokenStore interface {
	Load(ctx context.Context, role models.Role) (Session, error)
	Save(ctx context.Context, s Session) error
	Delete(ctx context.Context, role models.Role) error
}
