package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/nkiryanov/bookadmin/internal/service/validate"
)

const (
	ValidationErrorType = "validation_failed"
	DecodingErrorType   = "decoding_failed"
	ServiceErrorType    = "service_error"
)

// Console forms are small; anything bigger is rejected before decoding
const MaxBodySize = 64 << 10

// Reports fields by their json names
var structValidator = validate.New()

type ErrorResponse struct {
	Error   string              `json:"error"`
	Message string              `json:"message,omitempty"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

func JSON(w http.ResponseWriter, data any) {
	JSONWithStatus(w, data, http.StatusOK)
}

// JSONWithStatus sends data as json and enforces status code
func JSONWithStatus(w http.ResponseWriter, data any, code int) {
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}

func ServiceError(w http.ResponseWriter, message string, code int) {
	JSONWithStatus(w, ErrorResponse{Error: ServiceErrorType, Message: message}, code)
}

// FieldErrors renders messages per field as the validator or the API produced them
func FieldErrors(w http.ResponseWriter, message string, fields map[string][]string) {
	JSONWithStatus(w, ErrorResponse{Error: ValidationErrorType, Message: message, Fields: fields}, http.StatusBadRequest)
}

func ValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	FieldErrors(w, "Request validation failed", validate.Messages(errs))
}

// DecodeError explains why the request body is not the expected JSON
func DecodeError(w http.ResponseWriter, err error) {
	code := http.StatusBadRequest
	var message string

	var typeErr *json.UnmarshalTypeError
	var sizeErr *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		message = "Request body is empty"
	case errors.As(err, &typeErr):
		message = fmt.Sprintf("Invalid data type for field '%s'", typeErr.Field)
	case errors.As(err, &sizeErr):
		code = http.StatusRequestEntityTooLarge
		message = fmt.Sprintf("Request body is larger than %d bytes", sizeErr.Limit)
	default:
		message = fmt.Sprintf("Failed to parse JSON: %s", err.Error())
	}

	JSONWithStatus(w, ErrorResponse{Error: DecodingErrorType, Message: message}, code)
}

// BindAndValidate decodes the JSON body into T and checks its struct tags.
// On failure the error response is already written
func BindAndValidate[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	var value T

	body := http.MaxBytesReader(w, r.Body, MaxBodySize)
	if err := json.NewDecoder(body).Decode(&value); err != nil {
		DecodeError(w, err)
		return value, err
	}

	if err := structValidator.Struct(value); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) {
			ValidationErrors(w, errs)
		} else {
			ServiceError(w, err.Error(), http.StatusBadRequest)
		}
		return value, err
	}

	return value, nil
}
