// internal/repository/message_repository.go
package repository

import (
	"database/sql"
	"time"

	"github.com/davencourt/mailliste-backend/internal/model"
)

type MessageRepositoryInterface interface {
	Create(msg *model.Message) error
	GetByID(id int) (*model.Message, error)
	ListPending(campaignID int) ([]model.Message, error)
	ListByCampaign(campaignID int) ([]model.Message, error)
	CountPending(campaignID int) (int, error)
	MarkSent(id int, at time.Time) error
	MarkError(id int, errText string) error
	ResetErrors(campaignID int) (int, error)
}

type MessageRepository struct {
	DB *sql.DB
}

// Create inserts one per-recipient row. The (campaign, contact) pair is
// unique; re-enqueueing the same recipient is a no-op.
func (r *MessageRepository) Create(msg *model.Message) error {
	now := time.Now()
	msg.CreatedAt = now
	msg.UpdatedAt = now
	if msg.Status == "" {
		msg.Status = model.MessagePending
	}
	err := r.DB.QueryRow(
		`INSERT INTO messages (campaign_id, contact_id, status, last_error, attempts, created_at, updated_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7)
         ON CONFLICT (campaign_id, contact_id) DO NOTHING
         RETURNING id`,
		msg.CampaignID, msg.ContactID, msg.Status, msg.LastError, msg.Attempts,
		msg.CreatedAt, msg.UpdatedAt).Scan(&msg.ID)
	if err == sql.ErrNoRows {
		// Row already existed; fetch its id.
		return r.DB.QueryRow(
			`SELECT id FROM messages WHERE campaign_id=$1 AND contact_id=$2`,
			msg.CampaignID, msg.ContactID).Scan(&msg.ID)
	}
	return err
}

func (r *MessageRepository) GetByID(id int) (*model.Message, error) {
	var m model.Message
	err := r.DB.QueryRow(
		`SELECT id, campaign_id, contact_id, status, last_error, attempts, sent_at, created_at, updated_at
         FROM messages WHERE id=$1`, id).
		Scan(&m.ID, &m.CampaignID, &m.ContactID, &m.Status, &m.LastError,
			&m.Attempts, &m.SentAt, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListPending returns a campaign's unsent rows in enqueue order, which
// follows list-membership order.
func (r *MessageRepository) ListPending(campaignID int) ([]model.Message, error) {
	return r.list(campaignID, true)
}

func (r *MessageRepository) ListByCampaign(campaignID int) ([]model.Message, error) {
	return r.list(campaignID, false)
}

func (r *MessageRepository) list(campaignID int, pendingOnly bool) ([]model.Message, error) {
	query := `SELECT id, campaign_id, contact_id, status, last_error, attempts, sent_at, created_at, updated_at
              FROM messages WHERE campaign_id=$1`
	if pendingOnly {
		query += ` AND status='pending'`
	}
	query += ` ORDER BY id`

	rows, err := r.DB.Query(query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := []model.Message{}
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.CampaignID, &m.ContactID, &m.Status, &m.LastError,
			&m.Attempts, &m.SentAt, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (r *MessageRepository) CountPending(campaignID int) (int, error) {
	var n int
	err := r.DB.QueryRow(
		`SELECT COUNT(*) FROM messages WHERE campaign_id=$1 AND status='pending'`,
		campaignID).Scan(&n)
	return n, err
}

func (r *MessageRepository) MarkSent(id int, at time.Time) error {
	_, err := r.DB.Exec(
		`UPDATE messages SET status='sent', last_error='', attempts=attempts+1,
                sent_at=$1, updated_at=NOW() WHERE id=$2`, at, id)
	return err
}

func (r *MessageRepository) MarkError(id int, errText string) error {
	_, err := r.DB.Exec(
		`UPDATE messages SET status='error', last_error=$1, attempts=attempts+1,
                updated_at=NOW() WHERE id=$2`, errText, id)
	return err
}

// ResetErrors flips a campaign's error rows back to pending for a manual
// resend. Returns the number of rows reset.
func (r *MessageRepository) ResetErrors(campaignID int) (int, error) {
	res, err := r.DB.Exec(
		`UPDATE messages SET status='pending', last_error='', updated_at=NOW()
         WHERE campaign_id=$1 AND status='error'`, campaignID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

var _ MessageRepositoryInterface = (*MessageRepository)(nil)
