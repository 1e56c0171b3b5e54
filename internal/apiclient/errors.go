package apiclient

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/nkiryanov/bookadmin/internal/apperrors"
)

// Keys the API uses for a message that is not bound to a field
var messageKeys = []string{"detail", "error", "message"}

// parseAPIError reads error bodies in the shapes the API produces:
//
//	{"detail": "msg"} or {"error": "msg"} or {"message": "msg"}
//	{"field": ["msg", ...], "other": "msg"}
//
// Anything else becomes the message as is
func parseAPIError(resp *http.Response) *apperrors.APIError {
	apiErr := &apperrors.APIError{Status: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		apiErr.Message = http.StatusText(resp.StatusCode)
		return apiErr
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(data, &body); err != nil {
		apiErr.Message = strings.TrimSpace(string(data))
		return apiErr
	}

	for _, key := range messageKeys {
		if raw, ok := body[key]; ok {
			if msgs := decodeMessages(raw); len(msgs) > 0 {
				apiErr.Message = strings.Join(msgs, "; ")
			}
			delete(body, key)
			break
		}
	}

	for field, raw := range body {
		msgs := decodeMessages(raw)
		if len(msgs) == 0 {
			continue
		}
		if apiErr.Fields == nil {
			apiErr.Fields = make(map[string][]string, len(body))
		}
		apiErr.Fields[field] = msgs
	}

	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	return apiErr
}

// Value is either a string or a list of strings. Other shapes are ignored
func decodeMessages(raw json.RawMessage) []string {
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		if one == "" {
			return nil
		}
		return []string{one}
	}

	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return many
	}

	return nil
}
