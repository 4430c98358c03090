// internal/db/db.go
package db

import (
	"database/sql"

	_ "github.com/lib/pq"
)

// Open connects to Postgres and verifies the connection. The handle is
// returned to the caller rather than stored in a package global so every
// component receives its dependencies explicitly.
func Open(databaseURL string) (*sql.DB, error) {
	conn, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}
