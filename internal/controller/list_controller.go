// internal/controller/list_controller.go
package controller

import (
	"encoding/json"
	"net/http"

	"github.com/davencourt/mailliste-backend/internal/service"
)

type ListController struct {
	ListService *service.ListService
}

type listBody struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (c *ListController) ListLists(w http.ResponseWriter, r *http.Request) {
	lists, err := c.ListService.ListLists()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": lists})
}

func (c *ListController) GetList(w http.ResponseWriter, r *http.Request) {
	list, err := c.ListService.GetList(urlID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (c *ListController) CreateList(w http.ResponseWriter, r *http.Request) {
	var body listBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	list, err := c.ListService.CreateList(body.Name, body.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, list)
}

func (c *ListController) UpdateList(w http.ResponseWriter, r *http.Request) {
	var body listBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	list, err := c.ListService.UpdateList(urlID(r), body.Name, body.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (c *ListController) DeleteList(w http.ResponseWriter, r *http.Request) {
	if err := c.ListService.DeleteList(urlID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
