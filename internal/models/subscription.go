package models

import "time"

// SubscriptionPlan is a recurring plan users can subscribe to.
type SubscriptionPlan struct {
	ID           string     `json:"_id"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	Price        float64    `json:"price"`
	BillingCycle string     `json:"billingCycle,omitempty"`
	Features     []string   `json:"features,omitempty"`
	Status       string     `json:"status,omitempty"`
	Subscribers  int        `json:"subscribers,omitempty"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
	Extra        Extra      `json:"-"`
}

func (s SubscriptionPlan) RecordID() string { return s.ID }

func (s *SubscriptionPlan) UnmarshalJSON(b []byte) error {
	type alias SubscriptionPlan
	return decodeRecord(b, (*alias)(s), &s.Extra)
}

func (s SubscriptionPlan) MarshalJSON() ([]byte, error) {
	type alias SubscriptionPlan
	return encodeRecord(alias(s), s.Extra)
}
