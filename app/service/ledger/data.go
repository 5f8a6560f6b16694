package ledger

import "time"

// Entry is one confirmed paid-media delivery.
type Entry struct {
	UserID       int64     `json:"user_id"`
	ChatID       int64     `json:"chat_id"`
	MediaRef     string    `json:"media_ref"`
	Stars        int       `json:"stars"`
	ContentLabel string    `json:"content_label,omitempty"`
	Payload      string    `json:"payload,omitempty"`
	DeliveredAt  time.Time `json:"delivered_at"`
}
