// internal/controller/helpers.go
package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/davencourt/mailliste-backend/internal/apperrors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the service error taxonomy onto HTTP statuses:
// not-found 404, validation 400, transport 502, anything else 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var nf *apperrors.NotFoundError
	var vd *apperrors.ValidationError
	var tr *apperrors.TransportError
	switch {
	case errors.As(err, &nf):
		status = http.StatusNotFound
	case errors.As(err, &vd):
		status = http.StatusBadRequest
	case errors.As(err, &tr):
		status = http.StatusBadGateway
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func urlID(r *http.Request) int {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	return id
}
