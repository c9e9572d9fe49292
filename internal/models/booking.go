package models

import "time"

// Booking is a scheduled session between a user and an expert.
type Booking struct {
	ID            string     `json:"_id"`
	UserID        string     `json:"userId,omitempty"`
	ExpertID      string     `json:"expertId,omitempty"`
	Service       string     `json:"service,omitempty"`
	Status        string     `json:"status,omitempty"`
	PaymentStatus string     `json:"paymentStatus,omitempty"`
	Amount        float64    `json:"amount,omitempty"`
	ScheduledAt   *time.Time `json:"scheduledAt,omitempty"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
	Extra         Extra      `json:"-"`
}

func (b Booking) RecordID() string { return b.ID }

func (b *Booking) UnmarshalJSON(raw []byte) error {
	type alias Booking
	return decodeRecord(raw, (*alias)(b), &b.Extra)
}

func (b Booking) MarshalJSON() ([]byte, error) {
	type alias Booking
	return encodeRecord(alias(b), b.Extra)
}
