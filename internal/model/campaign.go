// internal/model/campaign.go
package model

import "time"

// Campaign statuses. A campaign is created with its recipient set frozen,
// moves to sending when a worker picks it up, and is completed once every
// message row has left pending. failed means the transport could not even
// connect before the first send.
const (
	CampaignCreated   = "created"
	CampaignSending   = "sending"
	CampaignCompleted = "completed"
	CampaignFailed    = "failed"
)

// Campaign formats.
const (
	FormatText = "text"
	FormatHTML = "html"
)

type Campaign struct {
	ID                 int       `db:"id" json:"id"`
	Name               string    `db:"name" json:"name"`
	ListID             int       `db:"list_id" json:"list_id"`
	Subject            string    `db:"subject" json:"subject"`
	Body               string    `db:"body" json:"body"`
	Format             string    `db:"format" json:"format"`
	Attachments        []string  `json:"attachments,omitempty"`
	IncludeUnsubscribe bool      `db:"include_unsubscribe" json:"include_unsubscribe"`
	SenderCopy         bool      `db:"sender_copy" json:"sender_copy"`
	Status             string    `db:"status" json:"status"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}
