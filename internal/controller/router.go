// internal/controller/router.go
package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/davencourt/mailliste-backend/internal/auth"
)

// Controllers bundles everything the router mounts.
type Controllers struct {
	Auth        *AuthController
	Contact     *ContactController
	List        *ListController
	Import      *ImportController
	Campaign    *CampaignController
	Unsubscribe *UnsubscribeController
	Sessions    *auth.SessionStore
}

// NewRouter wires the admin API behind the session middleware and leaves
// the unsubscribe flow public.
func NewRouter(c Controllers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/login", c.Auth.Login)
	r.Post("/logout", c.Auth.Logout)

	r.Get("/unsubscribe/{uid}/{token}", c.Unsubscribe.ConfirmPage)
	r.Post("/unsubscribe/{uid}/{token}", c.Unsubscribe.Unsubscribe)

	r.Group(func(r chi.Router) {
		r.Use(c.Sessions.RequireAuth)

		r.Get("/contacts", c.Contact.ListContacts)
		r.Post("/contacts", c.Contact.CreateContact)
		r.Get("/contacts/{id}", c.Contact.GetContact)
		r.Put("/contacts/{id}", c.Contact.UpdateContact)
		r.Delete("/contacts/{id}", c.Contact.DeleteContact)
		r.Post("/contacts/bulk-action", c.Contact.BulkAction)
		r.Post("/contacts/{id}/resubscribe", c.Contact.Resubscribe)

		r.Get("/lists", c.List.ListLists)
		r.Post("/lists", c.List.CreateList)
		r.Get("/lists/{id}", c.List.GetList)
		r.Put("/lists/{id}", c.List.UpdateList)
		r.Delete("/lists/{id}", c.List.DeleteList)

		r.Post("/import", c.Import.Import)
		r.Get("/export", c.Import.Export)

		r.Get("/campaigns", c.Campaign.ListCampaigns)
		r.Post("/campaigns", c.Campaign.CreateCampaign)
		r.Get("/campaigns/{id}", c.Campaign.GetCampaignDetails)
		r.Post("/campaigns/{id}/send", c.Campaign.SendCampaign)
		r.Post("/campaigns/{id}/retry-errors", c.Campaign.RetryErrors)
		r.Post("/campaigns/{id}/preview", c.Campaign.PersonalizedPreview)

		r.Post("/smtp/test", c.Campaign.SMTPTest)
	})

	return r
}
