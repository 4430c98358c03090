// internal/controller/unsubscribe_controller.go
package controller

import (
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/davencourt/mailliste-backend/internal/service"
)

// UnsubscribeController serves the public, token-protected opt-out flow.
// GET shows a confirmation page so mail scanners following links don't
// unsubscribe anyone; only the POST changes state.
type UnsubscribeController struct {
	Unsubscribes *service.UnsubscribeService
}

var confirmPage = template.Must(template.New("confirm").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Unsubscribe</title></head>
<body>
<h1>Unsubscribe</h1>
{{if .Done}}
<p>{{.Email}} will not receive further mailings.</p>
{{else if .Already}}
<p>{{.Email}} is already unsubscribed.</p>
{{else}}
<p>Stop sending mailings to {{.Email}}?</p>
<form method="post">
<button type="submit">Unsubscribe</button>
</form>
{{end}}
</body>
</html>
`))

type confirmData struct {
	Email   string
	Done    bool
	Already bool
}

func (c *UnsubscribeController) params(r *http.Request) (string, string) {
	return chi.URLParam(r, "uid"), chi.URLParam(r, "token")
}

func (c *UnsubscribeController) ConfirmPage(w http.ResponseWriter, r *http.Request) {
	uid, token := c.params(r)
	contact, err := c.Unsubscribes.Lookup(uid, token)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	confirmPage.Execute(w, confirmData{Email: contact.Email, Already: contact.Unsubscribed})
}

func (c *UnsubscribeController) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	uid, token := c.params(r)
	contact, err := c.Unsubscribes.Unsubscribe(uid, token)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	confirmPage.Execute(w, confirmData{Email: contact.Email, Done: true})
}
