package checkout

import "errors"

var (
	ErrInvalidTransition  = errors.New("checkout: event not allowed in the current step")
	ErrSubmissionInFlight = errors.New("checkout: a payment is already being processed")
	ErrCheckoutComplete   = errors.New("checkout: order already placed")
	ErrEmptyCart          = errors.New("checkout: cart is empty")
	ErrNoToken            = errors.New("checkout: no payment token, add a card first")
)

// ValidationError carries the first failing field and its message.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
