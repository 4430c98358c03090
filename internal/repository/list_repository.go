// internal/repository/list_repository.go
package repository

import (
	"database/sql"

	"github.com/davencourt/mailliste-backend/internal/model"
)

type ListRepositoryInterface interface {
	GetByID(id int) (*model.List, error)
	GetByName(name string) (*model.List, error)
	GetOrCreateByName(name string) (*model.List, error)
	ListAll() ([]model.List, error)
	Create(l *model.List) error
	Update(l *model.List) error
	Delete(id int) error
	InUseByCampaign(id int) (bool, error)
}

type ListRepository struct {
	DB *sql.DB
}

func (r *ListRepository) GetByID(id int) (*model.List, error) {
	var l model.List
	err := r.DB.QueryRow(
		`SELECT l.id, l.name, l.description, l.created_at,
                (SELECT COUNT(*) FROM contact_list cl WHERE cl.list_id = l.id)
         FROM lists l WHERE l.id = $1`, id).
		Scan(&l.ID, &l.Name, &l.Description, &l.CreatedAt, &l.ContactCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *ListRepository) GetByName(name string) (*model.List, error) {
	var l model.List
	err := r.DB.QueryRow(
		`SELECT id, name, description, created_at FROM lists WHERE name = $1`, name).
		Scan(&l.ID, &l.Name, &l.Description, &l.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetOrCreateByName is what imports use: list names mentioned by an import
// file come into existence on first sight.
func (r *ListRepository) GetOrCreateByName(name string) (*model.List, error) {
	l, err := r.GetByName(name)
	if err != nil || l != nil {
		return l, err
	}
	l = &model.List{Name: name}
	if err := r.Create(l); err != nil {
		return nil, err
	}
	return l, nil
}

func (r *ListRepository) ListAll() ([]model.List, error) {
	rows, err := r.DB.Query(
		`SELECT l.id, l.name, l.description, l.created_at,
                (SELECT COUNT(*) FROM contact_list cl WHERE cl.list_id = l.id)
         FROM lists l ORDER BY l.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lists := []model.List{}
	for rows.Next() {
		var l model.List
		if err := rows.Scan(&l.ID, &l.Name, &l.Description, &l.CreatedAt, &l.ContactCount); err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	return lists, rows.Err()
}

func (r *ListRepository) Create(l *model.List) error {
	return r.DB.QueryRow(
		`INSERT INTO lists (name, description) VALUES ($1, $2)
         RETURNING id, created_at`,
		l.Name, l.Description).Scan(&l.ID, &l.CreatedAt)
}

func (r *ListRepository) Update(l *model.List) error {
	_, err := r.DB.Exec(
		`UPDATE lists SET name=$1, description=$2 WHERE id=$3`,
		l.Name, l.Description, l.ID)
	return err
}

func (r *ListRepository) Delete(id int) error {
	_, err := r.DB.Exec(`DELETE FROM lists WHERE id=$1`, id)
	return err
}

// InUseByCampaign reports whether any campaign targets the list. Such
// lists cannot be deleted because campaign rows reference them.
func (r *ListRepository) InUseByCampaign(id int) (bool, error) {
	var n int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM campaigns WHERE list_id=$1`, id).Scan(&n)
	return n > 0, err
}

var _ ListRepositoryInterface = (*ListRepository)(nil)
