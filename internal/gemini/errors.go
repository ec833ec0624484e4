package gemini

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError is a non-2xx answer from the generation API.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Body
	}
	if msg == "" {
		return fmt.Sprintf("gemini API %s", e.Status)
	}
	return fmt.Sprintf("gemini API %s: %s", e.Status, msg)
}

// BlockedError is returned when the prompt was rejected before any
// candidate was produced.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("gemini blocked the request: %s", e.Reason)
}

type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func newAPIError(statusCode int, status string, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: statusCode,
		Status:     status,
		Body:       strings.TrimSpace(string(body)),
	}

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Message = envelope.Error.Message
	}
	return apiErr
}
