// internal/repository/contact_repository.go
package repository

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/davencourt/mailliste-backend/internal/model"
)

// ContactRepositoryInterface defines the contact-store methods the service
// layer depends on.
type ContactRepositoryInterface interface {
	GetByID(id int) (*model.Contact, error)
	GetByUID(uid string) (*model.Contact, error)
	FindByEmailName(email, lastName, firstName string) ([]*model.Contact, error)
	List(listID int, search string) ([]model.Contact, error)
	ListByListID(listID int) ([]model.Contact, error)
	Create(c *model.Contact) error
	Update(c *model.Contact) error
	Delete(id int) error
	HasMessages(id int) (bool, error)
	SetListMembership(contactID int, listIDs []int) error
	AddToList(contactIDs []int, listID int) error
	RemoveFromList(contactIDs []int, listID int) error
	SetUnsubscribed(id int, unsubscribed bool, at *time.Time) error
}

// ContactRepository is the Postgres implementation.
type ContactRepository struct {
	DB *sql.DB
}

const contactColumns = `id, uid, first_name, last_name, email, phone, organization,
        street, street2, city, postal_code, region, country,
        source, notes, is_unsubscribed, unsubscribed_at, created_at, updated_at`

func scanContact(row interface{ Scan(...any) error }) (*model.Contact, error) {
	var c model.Contact
	err := row.Scan(
		&c.ID, &c.UID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Organization,
		&c.Street, &c.Street2, &c.City, &c.PostalCode, &c.Region, &c.Country,
		&c.Source, &c.Notes, &c.Unsubscribed, &c.UnsubscribedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ContactRepository) GetByID(id int) (*model.Contact, error) {
	row := r.DB.QueryRow(`SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id)
	c, err := scanContact(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadLists(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *ContactRepository) GetByUID(uid string) (*model.Contact, error) {
	row := r.DB.QueryRow(`SELECT `+contactColumns+` FROM contacts WHERE uid = $1`, uid)
	c, err := scanContact(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadLists(c); err != nil {
		return nil, err
	}
	return c, nil
}

// FindByEmailName returns every contact matching the (email, last name,
// first name) triple. More than one hit means the import row is ambiguous.
func (r *ContactRepository) FindByEmailName(email, lastName, firstName string) ([]*model.Contact, error) {
	rows, err := r.DB.Query(
		`SELECT `+contactColumns+` FROM contacts
         WHERE email = $1 AND last_name = $2 AND first_name = $3
         ORDER BY id`, email, lastName, firstName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// List returns contacts, optionally restricted to a list and/or a
// case-insensitive substring search across names, email and organization.
func (r *ContactRepository) List(listID int, search string) ([]model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts c`
	args := []any{}

	if listID > 0 {
		query = `SELECT ` + contactColumns + ` FROM contacts c
            JOIN contact_list cl ON cl.contact_id = c.id AND cl.list_id = $1`
		args = append(args, listID)
	}
	if search != "" {
		ph := "$" + strconv.Itoa(len(args)+1)
		query += ` WHERE (c.last_name ILIKE ` + ph +
			` OR c.first_name ILIKE ` + ph +
			` OR c.email ILIKE ` + ph +
			` OR c.organization ILIKE ` + ph + `)`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY c.last_name, c.first_name`

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []model.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadListsBulk(contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

// ListByListID returns a list's members in membership order (the order the
// campaign runner processes recipients in).
func (r *ContactRepository) ListByListID(listID int) ([]model.Contact, error) {
	rows, err := r.DB.Query(
		`SELECT `+contactColumns+` FROM contacts c
         JOIN contact_list cl ON cl.contact_id = c.id
         WHERE cl.list_id = $1
         ORDER BY c.id`, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []model.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, *c)
	}
	return contacts, rows.Err()
}

func (r *ContactRepository) Create(c *model.Contact) error {
	if c.UID == "" {
		c.UID = uuid.New().String()
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	return r.DB.QueryRow(
		`INSERT INTO contacts
            (uid, first_name, last_name, email, phone, organization,
             street, street2, city, postal_code, region, country,
             source, notes, is_unsubscribed, created_at, updated_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
         RETURNING id`,
		c.UID, c.FirstName, c.LastName, c.Email, c.Phone, c.Organization,
		c.Street, c.Street2, c.City, c.PostalCode, c.Region, c.Country,
		c.Source, c.Notes, c.Unsubscribed, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
}

func (r *ContactRepository) Update(c *model.Contact) error {
	c.UpdatedAt = time.Now()
	_, err := r.DB.Exec(
		`UPDATE contacts SET
            first_name=$1, last_name=$2, email=$3, phone=$4, organization=$5,
            street=$6, street2=$7, city=$8, postal_code=$9, region=$10, country=$11,
            source=$12, notes=$13, updated_at=$14
         WHERE id=$15`,
		c.FirstName, c.LastName, c.Email, c.Phone, c.Organization,
		c.Street, c.Street2, c.City, c.PostalCode, c.Region, c.Country,
		c.Source, c.Notes, c.UpdatedAt, c.ID)
	return err
}

func (r *ContactRepository) Delete(id int) error {
	_, err := r.DB.Exec(`DELETE FROM contacts WHERE id=$1`, id)
	return err
}

// HasMessages reports whether campaign history references the contact.
// Such contacts are kept (soft state only) instead of hard-deleted.
func (r *ContactRepository) HasMessages(id int) (bool, error) {
	var n int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM messages WHERE contact_id=$1`, id).Scan(&n)
	return n > 0, err
}

// SetListMembership replaces a contact's memberships with exactly listIDs.
func (r *ContactRepository) SetListMembership(contactID int, listIDs []int) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM contact_list WHERE contact_id=$1`, contactID); err != nil {
		return err
	}
	for _, lid := range listIDs {
		if _, err := tx.Exec(
			`INSERT INTO contact_list (contact_id, list_id) VALUES ($1,$2)
             ON CONFLICT DO NOTHING`, contactID, lid); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *ContactRepository) AddToList(contactIDs []int, listID int) error {
	_, err := r.DB.Exec(
		`INSERT INTO contact_list (contact_id, list_id)
         SELECT id, $2 FROM contacts WHERE id = ANY($1)
         ON CONFLICT DO NOTHING`,
		pq.Array(contactIDs), listID)
	return err
}

func (r *ContactRepository) RemoveFromList(contactIDs []int, listID int) error {
	_, err := r.DB.Exec(
		`DELETE FROM contact_list WHERE list_id=$2 AND contact_id = ANY($1)`,
		pq.Array(contactIDs), listID)
	return err
}

func (r *ContactRepository) SetUnsubscribed(id int, unsubscribed bool, at *time.Time) error {
	_, err := r.DB.Exec(
		`UPDATE contacts SET is_unsubscribed=$1, unsubscribed_at=$2, updated_at=NOW() WHERE id=$3`,
		unsubscribed, at, id)
	return err
}

func (r *ContactRepository) loadLists(c *model.Contact) error {
	rows, err := r.DB.Query(
		`SELECT l.name FROM lists l
         JOIN contact_list cl ON cl.list_id = l.id
         WHERE cl.contact_id = $1
         ORDER BY l.name`, c.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	c.Lists = []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		c.Lists = append(c.Lists, name)
	}
	return rows.Err()
}

func (r *ContactRepository) loadListsBulk(contacts []model.Contact) error {
	if len(contacts) == 0 {
		return nil
	}
	ids := make([]int, len(contacts))
	index := make(map[int]int, len(contacts))
	for i := range contacts {
		ids[i] = contacts[i].ID
		index[contacts[i].ID] = i
		contacts[i].Lists = []string{}
	}

	rows, err := r.DB.Query(
		`SELECT cl.contact_id, l.name FROM lists l
         JOIN contact_list cl ON cl.list_id = l.id
         WHERE cl.contact_id = ANY($1)
         ORDER BY l.name`, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name string
		if err := rows.Scan(&cid, &name); err != nil {
			return err
		}
		if i, ok := index[cid]; ok {
			contacts[i].Lists = append(contacts[i].Lists, name)
		}
	}
	return rows.Err()
}

var _ ContactRepositoryInterface = (*ContactRepository)(nil)
