// internal/model/contact.go
package model

import "time"

// Contact is one address-book entry. The numeric ID is the database key;
// UID is the stable public identifier (survives export/import round trips
// and is what unsubscribe links are keyed on). Email is indexed but not
// unique: two contacts may share a mailbox.
type Contact struct {
	ID             int        `db:"id" json:"id"`
	UID            string     `db:"uid" json:"uid"`
	FirstName      string     `db:"first_name" json:"first_name"`
	LastName       string     `db:"last_name" json:"last_name"`
	Email          string     `db:"email" json:"email"`
	Phone          string     `db:"phone" json:"phone,omitempty"`
	Organization   string     `db:"organization" json:"organization,omitempty"`
	Street         string     `db:"street" json:"street,omitempty"`
	Street2        string     `db:"street2" json:"street2,omitempty"`
	City           string     `db:"city" json:"city,omitempty"`
	PostalCode     string     `db:"postal_code" json:"postal_code,omitempty"`
	Region         string     `db:"region" json:"region,omitempty"`
	Country        string     `db:"country" json:"country,omitempty"`
	Source         string     `db:"source" json:"source,omitempty"`
	Notes          string     `db:"notes" json:"notes,omitempty"`
	Unsubscribed   bool       `db:"is_unsubscribed" json:"is_unsubscribed"`
	UnsubscribedAt *time.Time `db:"unsubscribed_at" json:"unsubscribed_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`

	// Names of the lists this contact belongs to. Populated by the
	// repository on reads, persisted through the contact_list table.
	Lists []string `json:"lists"`
}

// FullName renders "First Last" with either part optional.
func (c *Contact) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}
