// internal/model/message.go
package model

import "time"

// Message statuses. pending rows are the worker's work queue; a campaign
// terminates once none remain.
const (
	MessagePending = "pending"
	MessageSent    = "sent"
	MessageError   = "error"
)

// Message is one per-recipient send record. Exactly one row per
// (campaign, contact) pair, created at enqueue time and mutated once per
// send attempt. Retained indefinitely for history.
type Message struct {
	ID         int        `db:"id" json:"id"`
	CampaignID int        `db:"campaign_id" json:"campaign_id"`
	ContactID  int        `db:"contact_id" json:"contact_id"`
	Status     string     `db:"status" json:"status"`
	LastError  string     `db:"last_error" json:"last_error,omitempty"`
	Attempts   int        `db:"attempts" json:"attempts"`
	SentAt     *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}
