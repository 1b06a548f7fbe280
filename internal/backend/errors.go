package backend

import (
	"errors"
	"fmt"
)

var ErrPaymentDeclined = errors.New("payment was not successful")

// APIError is a non-2xx response from the order/payment API.
type APIError struct {
	Status  int
	Message string
	Body    map[string]any
}

func (e *APIError) Error() string {
	return e.Message
}

func newAPIError(status int, body map[string]any) *APIError {
	msg := fmt.Sprintf("Request failed: %d", status)
	if s, ok := body["error"].(string); ok && s != "" {
		msg = s
	}
	return &APIError{Status: status, Message: msg, Body: body}
}
