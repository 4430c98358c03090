// internal/model/user.go
package model

import "time"

// User is an admin account. Only admins reach the management API;
// the unsubscribe confirmation endpoint is the one public surface.
type User struct {
	ID           int       `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
