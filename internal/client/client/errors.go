package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)

// APIError is a non-2xx response. A 401 APIError matches ErrUnauthorized.
type APIError struct {
	StatusCode int
	Status     string
	// Detail is the API's human readable reason, when it sent one.
	Detail string
	Body   []byte
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("api error: %s", e.Status)
	}
	return fmt.Sprintf("api error: %s: %s", e.Status, e.Detail)
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

func newAPIError(resp *Response) *APIError {
	status := resp.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		Status:     status,
		Detail:     parseDetail(resp.Body),
		Body:       resp.Body,
	}
}

// parseDetail understands both {"detail": "text"} and the validation form
// {"detail": [{"msg": "..."}, ...]}.
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		return text
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err != nil {
		return ""
	}
	msgs := make([]string, 0, len(items))
	for _, it := range items {
		if it.Msg != "" {
			msgs = append(msgs, it.Msg)
		}
	}
	return strings.Join(msgs, "; ")
}
