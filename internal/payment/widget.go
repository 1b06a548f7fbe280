// Package payment wraps a card-tokenization widget into a request/response
// contract. The widget is injected so checkout can run against a fake.
package payment

import "context"

type Environment string

const (
	EnvSandbox    Environment = "sandbox"
	EnvProduction Environment = "production"
)

// Credentials mirror payments(applicationId, locationId) of the widget SDK.
type Credentials struct {
	ApplicationID string
	LocationID    string
	Environment   Environment
}

const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

type CardDetails struct {
	CardBrand string `json:"cardBrand"`
	Last4     string `json:"last4"`
	ExpMonth  int    `json:"expMonth"`
	ExpYear   int    `json:"expYear"`
}

type TokenizeDetails struct {
	Card *CardDetails `json:"card,omitempty"`
}

type TokenizeErrorDetail struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// TokenizeResult is the widget's tokenize() result as it arrives.
type TokenizeResult struct {
	Status  string                `json:"status"`
	Token   string                `json:"token,omitempty"`
	Details *TokenizeDetails      `json:"details,omitempty"`
	Errors  []TokenizeErrorDetail `json:"errors,omitempty"`
}

// Widget is the external tokenization capability.
type Widget interface {
	// Initialize loads the SDK and creates the payments object.
	Initialize(ctx context.Context, creds Credentials) error
	// AttachCardElement mounts the card input on a target element.
	AttachCardElement(ctx context.Context, target string) error
	Tokenize(ctx context.Context) (TokenizeResult, error)
	// Detach releases the card element. Safe to call more than once.
	Detach() error
}
