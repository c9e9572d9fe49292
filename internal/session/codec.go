package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/noah-isme/wellness-admin/internal/models"
)

// record is the at-rest form of a Session.
type record struct {
	ID            string              `json:"id"`
	Authenticated bool                `json:"authenticated"`
	SealedToken   string              `json:"token,omitempty"`
	Admin         models.AdminProfile `json:"admin"`
	CreatedAt     time.Time           `json:"createdAt"`
	ExpiresAt     time.Time           `json:"expiresAt"`
}

type codec struct {
	sealer *Sealer
}

func (c codec) encode(s *Session) ([]byte, error) {
	sealed, err := c.sealer.Seal(s.Token)
	if err != nil {
		return nil, err
	}
	return json.Marshal(record{
		ID:            s.ID,
		Authenticated: s.Authenticated,
		SealedToken:   sealed,
		Admin:         s.Admin,
		CreatedAt:     s.CreatedAt,
		ExpiresAt:     s.ExpiresAt,
	})
}

func (c codec) decode(raw []byte) (*Session, error) {
	var r record
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	token, err := c.sealer.Open(r.SealedToken)
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:            r.ID,
		Authenticated: r.Authenticated,
		Token:         token,
		Admin:         r.Admin,
		CreatedAt:     r.CreatedAt,
		ExpiresAt:     r.ExpiresAt,
	}, nil
}
