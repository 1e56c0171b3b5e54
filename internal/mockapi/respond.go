package mockapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/nkiryanov/bookadmin/internal/handlers/render"
	"github.com/nkiryanov/bookadmin/internal/service/validate"
)

var structValidator = validate.New()

func writeJSON(w http.ResponseWriter, code int, data any) {
	render.JSONWithStatus(w, data, code)
}

// {"detail": "..."}: authentication, permission and lookup failures
func writeDetail(w http.ResponseWriter, code int, detail string) {
	render.JSONWithStatus(w, map[string]string{"detail": detail}, code)
}

// {"error": "..."}: rejected actions
func writeError(w http.ResponseWriter, code int, msg string) {
	render.JSONWithStatus(w, map[string]string{"error": msg}, code)
}

// {"field": ["..."]}: rejected payloads
func writeFields(w http.ResponseWriter, fields map[string][]string) {
	render.JSONWithStatus(w, fields, http.StatusBadRequest)
}

func writeNotFound(w http.ResponseWriter) {
	writeDetail(w, http.StatusNotFound, "Not found.")
}

// bind decodes and validates the body. On failure the answer is already written
func bind[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T

	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeDetail(w, http.StatusBadRequest, "JSON parse error - "+err.Error())
		return v, false
	}

	if err := structValidator.Struct(v); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) {
			writeFields(w, validate.Messages(errs))
		} else {
			writeDetail(w, http.StatusBadRequest, err.Error())
		}
		return v, false
	}

	return v, true
}
