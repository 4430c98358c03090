// internal/repository/user_repository.go
package repository

import (
	"database/sql"

	"github.com/davencourt/mailliste-backend/internal/model"
)

type UserRepositoryInterface interface {
	GetByUsername(username string) (*model.User, error)
	Create(u *model.User) error
}

type UserRepository struct {
	DB *sql.DB
}

func (r *UserRepository) GetByUsername(username string) (*model.User, error) {
	var u model.User
	err := r.DB.QueryRow(
		`SELECT id, username, password_hash, created_at FROM users WHERE username=$1`,
		username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Create(u *model.User) error {
	return r.DB.QueryRow(
		`INSERT INTO users (username, password_hash) VALUES ($1,$2)
         ON CONFLICT (username) DO UPDATE SET password_hash=EXCLUDED.password_hash
         RETURNING id, created_at`,
		u.Username, u.PasswordHash).Scan(&u.ID, &u.CreatedAt)
}

var _ UserRepositoryInterface = (*UserRepository)(nil)
