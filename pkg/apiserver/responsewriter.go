package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/acorn-io/kids-market/pkg/auth"
	"github.com/acorn-io/kids-market/pkg/backend"
	"github.com/acorn-io/kids-market/pkg/db"
	"github.com/acorn-io/kids-market/pkg/model"
	"github.com/sirupsen/logrus"
)

// handleError writes err with the status its kind calls for, falling back to
// the given status for anything unrecognized.
func handleError(w http.ResponseWriter, fallback int, err error) {
	status := fallback
	switch {
	case errors.Is(err, db.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, backend.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, auth.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, backend.ErrTitleRequired):
		status = http.StatusUnprocessableEntity
	}
	writeError(w, status, err)
}

func writeError(w http.ResponseWriter, httpStatus int, err error) {
	logrus.Errorf("got a response error: %v", err)
	o := model.ErrorResponse{
		Status:  httpStatus,
		Message: err.Error(),
	}
	res, _ := json.Marshal(o)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_, _ = w.Write(res)
}

func writeSuccess(w http.ResponseWriter, data interface{}, msg string) {
	if msg != "" {
		logrus.Debug(msg)
	}
	writeJSON(w, http.StatusOK, data)
}

func writeJSON(w http.ResponseWriter, httpStatus int, data interface{}) {
	res, err := json.Marshal(data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_, _ = w.Write(res)
}
