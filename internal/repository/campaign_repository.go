// internal/repository/campaign_repository.go
package repository

import (
	"database/sql"
	"strings"

	"github.com/davencourt/mailliste-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	GetByID(id int) (*model.Campaign, error)
	Create(c *model.Campaign) error
	ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error)
	UpdateStatus(id int, status string) error
	GetStats(campaignID int) (map[string]int, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

// Attachment paths are stored newline-joined in a single text column.
const attachmentSep = "\n"

func joinAttachments(paths []string) string {
	return strings.Join(paths, attachmentSep)
}

func splitAttachments(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, attachmentSep)
}

func (r *CampaignRepository) GetByID(id int) (*model.Campaign, error) {
	var c model.Campaign
	var attachments string
	err := r.DB.QueryRow(
		`SELECT id, name, list_id, subject, body, format, attachments,
                include_unsubscribe, sender_copy, status, created_at
         FROM campaigns WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.ListID, &c.Subject, &c.Body, &c.Format, &attachments,
			&c.IncludeUnsubscribe, &c.SenderCopy, &c.Status, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.Attachments = splitAttachments(attachments)
	return &c, nil
}

func (r *CampaignRepository) Create(c *model.Campaign) error {
	return r.DB.QueryRow(
		`INSERT INTO campaigns
            (name, list_id, subject, body, format, attachments,
             include_unsubscribe, sender_copy, status)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
         RETURNING id, created_at`,
		c.Name, c.ListID, c.Subject, c.Body, c.Format, joinAttachments(c.Attachments),
		c.IncludeUnsubscribe, c.SenderCopy, c.Status).
		Scan(&c.ID, &c.CreatedAt)
}

// ListCampaigns returns a page of campaigns newest-first plus the total
// count for pagination.
func (r *CampaignRepository) ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error) {
	where := ""
	args := []any{}
	if status != "" {
		where = ` WHERE status = $1`
		args = append(args, status)
	}

	var total int
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM campaigns`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, name, list_id, subject, body, format, attachments,
                     include_unsubscribe, sender_copy, status, created_at
              FROM campaigns` + where + ` ORDER BY id DESC`
	if status != "" {
		query += ` LIMIT $2 OFFSET $3`
	} else {
		query += ` LIMIT $1 OFFSET $2`
	}
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		var c model.Campaign
		var attachments string
		if err := rows.Scan(&c.ID, &c.Name, &c.ListID, &c.Subject, &c.Body, &c.Format,
			&attachments, &c.IncludeUnsubscribe, &c.SenderCopy, &c.Status, &c.CreatedAt); err != nil {
			return nil, 0, err
		}
		c.Attachments = splitAttachments(attachments)
		campaigns = append(campaigns, &c)
	}
	return campaigns, total, rows.Err()
}

func (r *CampaignRepository) UpdateStatus(id int, status string) error {
	_, err := r.DB.Exec(`UPDATE campaigns SET status=$1 WHERE id=$2`, status, id)
	return err
}

// GetStats aggregates message rows by status for one campaign.
func (r *CampaignRepository) GetStats(campaignID int) (map[string]int, error) {
	rows, err := r.DB.Query(
		`SELECT status, COUNT(*) FROM messages WHERE campaign_id=$1 GROUP BY status`,
		campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{"total": 0, "pending": 0, "sent": 0, "error": 0}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
		stats["total"] += count
	}
	return stats, rows.Err()
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
