// internal/service/campaign_service.go
package service

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/davencourt/mailliste-backend/internal/apperrors"
	"github.com/davencourt/mailliste-backend/internal/model"
	"github.com/davencourt/mailliste-backend/internal/queue"
	"github.com/davencourt/mailliste-backend/internal/repository"
)

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	MessageRepo  repository.MessageRepositoryInterface
	ContactRepo  repository.ContactRepositoryInterface
	ListRepo     repository.ListRepositoryInterface
	Queue        queue.Queue
}

type CreateCampaignInput struct {
	Name               string   `json:"name"`
	ListID             int      `json:"list_id"`
	Subject            string   `json:"subject"`
	Body               string   `json:"body"`
	Format             string   `json:"format"`
	Attachments        []string `json:"attachments"`
	IncludeUnsubscribe bool     `json:"include_unsubscribe"`
	SenderCopy         bool     `json:"sender_copy"`
}

// EnqueueResult reports how the recipient set froze at campaign creation.
type EnqueueResult struct {
	CampaignID int `json:"campaign_id"`
	Queued     int `json:"queued"`
	Excluded   int `json:"excluded"`
}

type CampaignDetails struct {
	ID                 int            `json:"id"`
	Name               string         `json:"name"`
	ListID             int            `json:"list_id"`
	Subject            string         `json:"subject"`
	Format             string         `json:"format"`
	IncludeUnsubscribe bool           `json:"include_unsubscribe"`
	SenderCopy         bool           `json:"sender_copy"`
	Status             string         `json:"status"`
	CreatedAt          time.Time      `json:"created_at"`
	Stats              map[string]int `json:"stats"`
}

// CreateCampaign stores the campaign and freezes its recipient set: one
// pending message per list member who has not opted out at this moment.
// Later membership or opt-out changes never add rows.
func (s *CampaignService) CreateCampaign(in CreateCampaignInput) (*model.Campaign, *EnqueueResult, error) {
	list, err := s.ListRepo.GetByID(in.ListID)
	if err != nil {
		return nil, nil, err
	}
	if list == nil {
		return nil, nil, apperrors.NewNotFound("list", in.ListID)
	}
	if strings.TrimSpace(in.Subject) == "" {
		return nil, nil, apperrors.NewValidation("campaign subject is required")
	}
	if strings.TrimSpace(in.Body) == "" {
		return nil, nil, apperrors.NewValidation("campaign body is required")
	}
	format := in.Format
	if format == "" {
		format = model.FormatText
	}
	if format != model.FormatText && format != model.FormatHTML {
		return nil, nil, apperrors.NewValidation(fmt.Sprintf("unknown format %q", format))
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = fmt.Sprintf("%s_%s", list.Name, time.Now().Format("20060102_150405"))
	}

	c := &model.Campaign{
		Name:               name,
		ListID:             in.ListID,
		Subject:            in.Subject,
		Body:               in.Body,
		Format:             format,
		Attachments:        in.Attachments,
		IncludeUnsubscribe: in.IncludeUnsubscribe,
		SenderCopy:         in.SenderCopy,
		Status:             model.CampaignCreated,
	}
	if err := s.CampaignRepo.Create(c); err != nil {
		return nil, nil, err
	}

	members, err := s.ContactRepo.ListByListID(in.ListID)
	if err != nil {
		return nil, nil, err
	}

	result := &EnqueueResult{CampaignID: c.ID}
	for i := range members {
		m := &members[i]
		if m.Unsubscribed {
			result.Excluded++
			continue
		}
		msg := &model.Message{CampaignID: c.ID, ContactID: m.ID}
		if err := s.MessageRepo.Create(msg); err != nil {
			log.Println("enqueue: contact", m.ID, ":", err)
			continue
		}
		result.Queued++
	}
	return c, result, nil
}

// SendCampaign hands the campaign to the background worker. Re-sending a
// partially delivered campaign only touches rows still pending.
func (s *CampaignService) SendCampaign(campaignID int) error {
	c, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return err
	}
	if c == nil {
		return apperrors.NewNotFound("campaign", campaignID)
	}
	if c.Status == model.CampaignSending {
		return apperrors.NewValidation("campaign is already sending")
	}
	return s.Queue.Publish(queue.CampaignSendsQueue, queue.CampaignJob{CampaignID: campaignID})
}

// RetryErrors resets a campaign's error rows to pending and re-queues the
// campaign. Returns the number of rows reset.
func (s *CampaignService) RetryErrors(campaignID int) (int, error) {
	c, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return 0, err
	}
	if c == nil {
		return 0, apperrors.NewNotFound("campaign", campaignID)
	}
	n, err := s.MessageRepo.ResetErrors(campaignID)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	return n, s.Queue.Publish(queue.CampaignSendsQueue, queue.CampaignJob{CampaignID: campaignID})
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.CampaignRepo.ListCampaigns(offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

// GetCampaignDetailsWithStats returns a campaign plus its message counts
// aggregated by status.
func (s *CampaignService) GetCampaignDetailsWithStats(campaignID int) (*CampaignDetails, error) {
	c, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperrors.NewNotFound("campaign", campaignID)
	}

	stats, err := s.CampaignRepo.GetStats(campaignID)
	if err != nil {
		return nil, err
	}

	return &CampaignDetails{
		ID:                 c.ID,
		Name:               c.Name,
		ListID:             c.ListID,
		Subject:            c.Subject,
		Format:             c.Format,
		IncludeUnsubscribe: c.IncludeUnsubscribe,
		SenderCopy:         c.SenderCopy,
		Status:             c.Status,
		CreatedAt:          c.CreatedAt,
		Stats:              stats,
	}, nil
}

type PreviewResult struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// RenderPreview renders a campaign's subject and body against one contact
// without sending anything.
func (s *CampaignService) RenderPreview(campaignID, contactID int, overrideBody *string) (*PreviewResult, error) {
	c, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperrors.NewNotFound("campaign", campaignID)
	}
	contact, err := s.ContactRepo.GetByID(contactID)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, apperrors.NewNotFound("contact", contactID)
	}

	body := c.Body
	if overrideBody != nil && strings.TrimSpace(*overrideBody) != "" {
		body = *overrideBody
	}
	return &PreviewResult{
		Subject: RenderTemplate(c.Subject, PlaceholderMap(contact), false),
		Body:    RenderForContact(body, contact, c.Format),
	}, nil
}
