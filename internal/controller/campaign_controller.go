// internal/controller/campaign_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/davencourt/mailliste-backend/internal/mailer"
	"github.com/davencourt/mailliste-backend/internal/service"
)

type CampaignController struct {
	CampaignService *service.CampaignService
	Mailer          mailer.Mailer
}

// CreateCampaign stores the campaign and freezes its recipient set in one
// call; sending is a separate explicit action.
func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body service.CreateCampaignInput
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	campaign, enqueue, err := c.CampaignService.CreateCampaign(body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"campaign": campaign,
		"queued":   enqueue.Queued,
		"excluded": enqueue.Excluded,
	})
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	status := r.URL.Query().Get("status")

	campaigns, pagination, err := c.CampaignService.ListCampaigns(page, pageSize, status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":       campaigns,
		"pagination": pagination,
	})
}

func (c *CampaignController) GetCampaignDetails(w http.ResponseWriter, r *http.Request) {
	details, err := c.CampaignService.GetCampaignDetailsWithStats(urlID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// SendCampaign queues the campaign for the background worker and returns
// immediately; progress is visible through GetCampaignDetails.
func (c *CampaignController) SendCampaign(w http.ResponseWriter, r *http.Request) {
	id := urlID(r)
	if err := c.CampaignService.SendCampaign(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"campaign_id": id,
		"status":      "queued",
	})
}

func (c *CampaignController) RetryErrors(w http.ResponseWriter, r *http.Request) {
	id := urlID(r)
	reset, err := c.CampaignService.RetryErrors(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"campaign_id": id,
		"reset":       reset,
	})
}

func (c *CampaignController) PersonalizedPreview(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ContactID    int     `json:"contact_id"`
		OverrideBody *string `json:"override_body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	preview, err := c.CampaignService.RenderPreview(urlID(r), body.ContactID, body.OverrideBody)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// SMTPTest connects and authenticates against the configured server
// without sending anything.
func (c *CampaignController) SMTPTest(w http.ResponseWriter, r *http.Request) {
	if err := c.Mailer.Ping(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
