package models

import "time"

// ContentItem is an article, video or program published to users.
type ContentItem struct {
	ID          string     `json:"_id"`
	Title       string     `json:"title"`
	Type        string     `json:"type,omitempty"`
	Category    string     `json:"category,omitempty"`
	Status      string     `json:"status,omitempty"`
	Author      string     `json:"author,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	Extra       Extra      `json:"-"`
}

func (c ContentItem) RecordID() string { return c.ID }

func (c *ContentItem) UnmarshalJSON(b []byte) error {
	type alias ContentItem
	return decodeRecord(b, (*alias)(c), &c.Extra)
}

func (c ContentItem) MarshalJSON() ([]byte, error) {
	type alias ContentItem
	return encodeRecord(alias(c), c.Extra)
}
