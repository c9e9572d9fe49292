package models

import "time"

// Expert is a wellness practitioner offering sessions on the platform.
type Expert struct {
	ID             string     `json:"_id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Specialization string     `json:"specialization,omitempty"`
	Status         string     `json:"status,omitempty"`
	Verified       bool       `json:"isVerified"`
	Rating         float64    `json:"rating,omitempty"`
	HourlyRate     float64    `json:"hourlyRate,omitempty"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
	Extra          Extra      `json:"-"`
}

func (e Expert) RecordID() string { return e.ID }

func (e *Expert) UnmarshalJSON(b []byte) error {
	type alias Expert
	return decodeRecord(b, (*alias)(e), &e.Extra)
}

func (e Expert) MarshalJSON() ([]byte, error) {
	type alias Expert
	return encodeRecord(alias(e), e.Extra)
}
