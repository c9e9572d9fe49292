// Package session holds the operator session: the auth flag, the upstream bearer
// token and the cached admin profile. All reads and writes go through Manager.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wellness-admin/internal/models"
)

// ErrNotFound is returned by a Store when the session does not exist or expired.
var ErrNotFound = errors.New("session not found")

// Session is the server-side state behind the session cookie.
type Session struct {
	ID            string              `json:"id"`
	Authenticated bool                `json:"authenticated"`
	Token         string              `json:"-"`
	Admin         models.AdminProfile `json:"admin"`
	CreatedAt     time.Time           `json:"createdAt"`
	ExpiresAt     time.Time           `json:"expiresAt"`
}

// IsAuthenticated reads only the auth flag.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.Authenticated
}

// Store persists sessions.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

const contextKey = "adminSession"

// Set attaches the loaded session to the request.
func Set(c *gin.Context, s *Session) {
	c.Set(contextKey, s)
}

// FromContext returns the session loaded for the request, or nil.
func FromContext(c *gin.Context) *Session {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil
	}
	s, _ := v.(*Session)
	return s
}
