// internal/controller/contact_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/davencourt/mailliste-backend/internal/model"
	"github.com/davencourt/mailliste-backend/internal/service"
)

type ContactController struct {
	ContactService     *service.ContactService
	UnsubscribeService *service.UnsubscribeService
}

// contactBody is the JSON shape for create/update. Lists is by name; a
// missing Lists key leaves memberships untouched on update.
type contactBody struct {
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Organization string    `json:"organization"`
	Street       string    `json:"street"`
	Street2      string    `json:"street2"`
	City         string    `json:"city"`
	PostalCode   string    `json:"postal_code"`
	Region       string    `json:"region"`
	Country      string    `json:"country"`
	Source       string    `json:"source"`
	Notes        string    `json:"notes"`
	Lists        *[]string `json:"lists"`
}

func (b *contactBody) toModel() *model.Contact {
	return &model.Contact{
		FirstName:    b.FirstName,
		LastName:     b.LastName,
		Email:        b.Email,
		Phone:        b.Phone,
		Organization: b.Organization,
		Street:       b.Street,
		Street2:      b.Street2,
		City:         b.City,
		PostalCode:   b.PostalCode,
		Region:       b.Region,
		Country:      b.Country,
		Source:       b.Source,
		Notes:        b.Notes,
	}
}

func (c *ContactController) ListContacts(w http.ResponseWriter, r *http.Request) {
	listID, _ := strconv.Atoi(r.URL.Query().Get("list"))
	search := r.URL.Query().Get("search")

	contacts, err := c.ContactService.ListContacts(listID, search)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":  contacts,
		"count": len(contacts),
	})
}

func (c *ContactController) GetContact(w http.ResponseWriter, r *http.Request) {
	contact, err := c.ContactService.GetContact(urlID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

func (c *ContactController) CreateContact(w http.ResponseWriter, r *http.Request) {
	var body contactBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	lists := []string{}
	if body.Lists != nil {
		lists = *body.Lists
	}
	contact, err := c.ContactService.CreateContact(body.toModel(), lists)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, contact)
}

func (c *ContactController) UpdateContact(w http.ResponseWriter, r *http.Request) {
	var body contactBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	var lists []string
	if body.Lists != nil {
		lists = *body.Lists
	}
	contact, err := c.ContactService.UpdateContact(urlID(r), body.toModel(), lists)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

func (c *ContactController) DeleteContact(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "true"
	if err := c.ContactService.DeleteContact(urlID(r), force); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (c *ContactController) BulkAction(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Action     string `json:"action"`
		ContactIDs []int  `json:"contact_ids"`
		ListID     int    `json:"list_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	result, err := c.ContactService.BulkAction(body.Action, body.ContactIDs, body.ListID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Resubscribe clears an opt-out. Deliberately admin-only: there is no
// public route that can opt a contact back in.
func (c *ContactController) Resubscribe(w http.ResponseWriter, r *http.Request) {
	contact, err := c.UnsubscribeService.Resubscribe(urlID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}
