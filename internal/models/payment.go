package models

import "time"

// Payment is a charge captured for a booking or subscription.
type Payment struct {
	ID            string     `json:"_id"`
	BookingID     string     `json:"bookingId,omitempty"`
	UserID        string     `json:"userId,omitempty"`
	Amount        float64    `json:"amount"`
	Currency      string     `json:"currency,omitempty"`
	Method        string     `json:"method,omitempty"`
	Status        string     `json:"status,omitempty"`
	TransactionID string     `json:"transactionId,omitempty"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
	Extra         Extra      `json:"-"`
}

func (p Payment) RecordID() string { return p.ID }

func (p *Payment) UnmarshalJSON(b []byte) error {
	type alias Payment
	return decodeRecord(b, (*alias)(p), &p.Extra)
}

func (p Payment) MarshalJSON() ([]byte, error) {
	type alias Payment
	return encodeRecord(alias(p), p.Extra)
}
