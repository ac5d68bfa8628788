package apiserver

import (
	"encoding/json"
	"net/http"

	"github.com/acorn-io/kids-market/pkg/backend"
	"github.com/acorn-io/kids-market/pkg/model"
	"github.com/acorn-io/kids-market/pkg/version"
	"github.com/gorilla/mux"
)

type handler struct {
	backend backend.Backend
}

func newHandler(b backend.Backend) *handler {
	return &handler{
		backend: b,
	}
}

func (h *handler) root(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, version.Get(), "")
}

func (h *handler) createSession(w http.ResponseWriter, r *http.Request) {
	var input model.SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		handleError(w, http.StatusBadRequest, err)
		return
	}

	session, err := h.backend.CreateSession(input.Email, input.Password)
	if err != nil {
		handleError(w, http.StatusInternalServerError, err)
		return
	}

	writeSuccess(w, session, "session created for admin "+session.UID)
}

func (h *handler) listChildren(w http.ResponseWriter, r *http.Request) {
	children, err := h.backend.ListChildren(adminUIDFromContext(r.Context()))
	if err != nil {
		handleError(w, http.StatusInternalServerError, err)
		return
	}
	writeSuccess(w, children, "")
}

func (h *handler) createTask(w http.ResponseWriter, r *http.Request) {
	var input model.TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		handleError(w, http.StatusBadRequest, err)
		return
	}

	vars := mux.Vars(r)
	task, err := h.backend.CreateTask(adminUIDFromContext(r.Context()), vars["child"], input)
	if err != nil {
		handleError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

func (h *handler) updateTask(w http.ResponseWriter, r *http.Request) {
	var input model.TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		handleError(w, http.StatusBadRequest, err)
		return
	}

	vars := mux.Vars(r)
	task, err := h.backend.UpdateTask(adminUIDFromContext(r.Context()), vars["child"], vars["task"], input)
	if err != nil {
		handleError(w, http.StatusInternalServerError, err)
		return
	}
	writeSuccess(w, task, "")
}

func (h *handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.backend.DeleteTask(adminUIDFromContext(r.Context()), vars["child"], vars["task"]); err != nil {
		handleError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
