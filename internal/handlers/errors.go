package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/nkiryanov/bookadmin/internal/apperrors"
	"github.com/nkiryanov/bookadmin/internal/guard"
	"github.com/nkiryanov/bookadmin/internal/handlers/render"
	"github.com/nkiryanov/bookadmin/internal/logger"
	"github.com/nkiryanov/bookadmin/internal/session"
)

// renderError maps a service error to the console answer.
// A lost session is not ended here: the client observer has done it already, the operator is sent to login
func renderError(w http.ResponseWriter, r *http.Request, err error, l logger.Logger) {
	var (
		apiErr *apperrors.APIError
		valErr *apperrors.ValidationError
	)

	switch {
	case session.IsSessionEnd(err):
		http.Redirect(w, r, guard.LoginPath, http.StatusSeeOther)
	case errors.As(err, &valErr):
		render.FieldErrors(w, "Request validation failed", valErr.Fields)
	case errors.Is(err, apperrors.ErrTimeout):
		render.ServiceError(w, "Bookstore API did not answer in time", http.StatusGatewayTimeout)
	case errors.Is(err, apperrors.ErrTransport):
		l.Warn("Bookstore API unreachable", "error", err)
		render.ServiceError(w, "Bookstore API is unreachable", http.StatusBadGateway)
	case errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError:
		if apiErr.Status == http.StatusBadRequest && len(apiErr.Fields) > 0 {
			render.FieldErrors(w, apiErr.Message, apiErr.Fields)
			return
		}
		render.ServiceError(w, apiMessage(apiErr), apiErr.Status)
	case errors.As(err, &apiErr):
		l.Error("Bookstore API failed", "error", err)
		render.ServiceError(w, "Bookstore API error", http.StatusBadGateway)
	default:
		l.Error("Request failed", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func apiMessage(e *apperrors.APIError) string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Status)
}

// pathID reads the {id} wildcard. On failure 404 is already written
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		render.ServiceError(w, "Not found", http.StatusNotFound)
		return 0, false
	}
	return id, true
}
