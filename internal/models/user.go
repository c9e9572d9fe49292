package models

import "time"

// User is a platform customer account.
type User struct {
	ID        string     `json:"_id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone,omitempty"`
	Role      string     `json:"role,omitempty"`
	Status    string     `json:"status,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	Extra     Extra      `json:"-"`
}

func (u User) RecordID() string { return u.ID }

func (u *User) UnmarshalJSON(b []byte) error {
	type alias User
	return decodeRecord(b, (*alias)(u), &u.Extra)
}

func (u User) MarshalJSON() ([]byte, error) {
	type alias User
	return encodeRecord(alias(u), u.Extra)
}

// Pagination mirrors the pagination block returned by list endpoints.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}
