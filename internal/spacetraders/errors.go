package spacetraders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status int
	Path   string
	// Detail is what the user sees, verbatim from the server when it sent one.
	Detail string
	// explained is false when Detail is only the status text.
	explained bool
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %d %s", e.Path, e.Status, e.Detail)
}

func parseError(status int, path string, body []byte) *APIError {
	e := &APIError{Status: status, Path: path}

	var payload struct {
		Detail json.RawMessage `json:"detail"`
		Error  *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		e.Detail = detailText(payload.Detail)
		if e.Detail == "" && payload.Error != nil {
			e.Detail = payload.Error.Message
		}
	}
	e.explained = e.Detail != ""
	if e.Detail == "" {
		e.Detail = http.StatusText(status)
	}
	return e
}

// detailText accepts a plain string or a validation list of {msg}.
func detailText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &list); err == nil {
		msgs := make([]string, 0, len(list))
		for _, item := range list {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return strings.Trim(string(raw), `"`)
}

// DetailOf is the text to show a user for err.
func DetailOf(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	return err.Error()
}

// ServerDetail returns the detail only when the backend explained the
// failure itself. Callers use it to choose between the detail and their own
// fallback text.
func ServerDetail(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.explained {
		return apiErr.Detail, true
	}
	return "", false
}

// IsNotFound reports a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
