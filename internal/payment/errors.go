package payment

import "errors"

var (
	ErrNotReady = errors.New("payment widget not ready")
	ErrClosed   = errors.New("payment widget released")
)

// InitError is terminal for the session: the whole checkout must be restarted.
type InitError struct {
	Err error
}

func (e *InitError) Error() string {
	return "payment initialization failed: " + e.Err.Error()
}

func (e *InitError) Unwrap() error { return e.Err }

// TokenizeError is retryable by calling RequestToken again.
type TokenizeError struct {
	Message string
	Err     error
}

func (e *TokenizeError) Error() string {
	return e.Message
}

func (e *TokenizeError) Unwrap() error { return e.Err }
