// internal/model/list.go
package model

import "time"

// List is a named group of contacts (many-to-many).
type List struct {
	ID          int       `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`

	// Number of member contacts, filled on reads.
	ContactCount int `json:"contact_count"`
}
