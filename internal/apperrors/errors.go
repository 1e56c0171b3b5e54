package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// Login rejected by the API (wrong username or password)
	ErrBadCredentials = errors.New("bad credentials")

	// API answered 401 on an authenticated call: the session is over
	ErrUnauthenticated = errors.New("unauthenticated")

	// Operation needs an authenticated session but there is none
	ErrNotAuthenticated = errors.New("not authenticated")

	ErrForbidden  = errors.New("forbidden")
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrAPI        = errors.New("api error")

	// Request could not reach the API or no response arrived in time
	ErrTransport = errors.New("api unreachable")
	ErrTimeout   = errors.New("api request timed out")

	ErrInvalidStoreBackend = errors.New("invalid token store backend")
	ErrCredentialNotFound  = errors.New("credential not found")
)

// APIError is any non-2xx answer of the remote API except the ones
// handled globally. Fields holds per-field validation messages verbatim.
type APIError struct {
	Status  int
	Message string
	Fields  map[string][]string
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "api error: status %d", e.Status)
	if e.Message != "" {
		fmt.Fprintf(&b, ", message: %s", e.Message)
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, ", %s: %s", k, strings.Join(e.Fields[k], "; "))
		}
	}
	return b.String()
}

// Is lets callers match an APIError against the category sentinels
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrAPI:
		return true
	case ErrUnauthenticated:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrValidation:
		return e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity
	default:
		return false
	}
}

// ValidationError is a request rejected on the client before it was sent
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
