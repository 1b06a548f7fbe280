package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

const (
	defaultTokenizeMessage = "Failed to process card"
	defaultErrorMessage    = "Error processing payment"
	cardElementTarget      = "#card-container"
)

// CardSummary is display metadata only and can never be charged.
type CardSummary struct {
	Brand    string `json:"brand,omitempty"`
	Last4    string `json:"last4,omitempty"`
	ExpMonth int    `json:"expMonth,omitempty"`
	ExpYear  int    `json:"expYear,omitempty"`
}

// Token is a one-time payment source id plus the card it stands for.
type Token struct {
	Value string
	Card  *CardSummary
}

type adapterState int

const (
	stateIdle adapterState = iota
	stateReady
	stateFailed
	stateClosed
)

// Adapter drives Widget through load -> ready -> tokenize.
// It keeps only the most recent token and no card data.
type Adapter struct {
	mu      sync.Mutex
	widget  Widget
	state   adapterState
	initErr *InitError
	last    *Token
}

func NewAdapter(w Widget) *Adapter {
	return &Adapter{widget: w}
}

// Initialize is idempotent once ready. A failure sticks: every later call
// returns the same *InitError.
func (a *Adapter) Initialize(ctx context.Context, creds Credentials) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.state {
	case stateReady:
		return nil
	case stateFailed:
		return a.initErr
	case stateClosed:
		return ErrClosed
	}

	if err := a.widget.Initialize(ctx, creds); err != nil {
		return a.fail(err)
	}
	if err := a.widget.AttachCardElement(ctx, cardElementTarget); err != nil {
		return a.fail(fmt.Errorf("attach card element: %w", err))
	}
	a.state = stateReady
	return nil
}

func (a *Adapter) fail(err error) error {
	a.state = stateFailed
	a.initErr = &InitError{Err: err}
	return a.initErr
}

func (a *Adapter) RequestToken(ctx context.Context) (Token, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.state {
	case stateFailed:
		return Token{}, a.initErr
	case stateClosed:
		return Token{}, ErrClosed
	case stateIdle:
		return Token{}, ErrNotReady
	}

	res, err := a.widget.Tokenize(ctx)
	if err != nil {
		return Token{}, &TokenizeError{Message: messageOr(err.Error(), defaultErrorMessage), Err: err}
	}
	if res.Status != StatusOK || res.Token == "" {
		msg := defaultTokenizeMessage
		if len(res.Errors) > 0 {
			msg = messageOr(res.Errors[0].Message, defaultTokenizeMessage)
		}
		return Token{}, &TokenizeError{Message: msg}
	}

	tok := Token{Value: res.Token}
	if res.Details != nil && res.Details.Card != nil {
		c := res.Details.Card
		tok.Card = &CardSummary{Brand: c.CardBrand, Last4: c.Last4, ExpMonth: c.ExpMonth, ExpYear: c.ExpYear}
	}
	a.last = &tok
	return tok, nil
}

// Ready reports whether tokens can be requested.
func (a *Adapter) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state == stateReady
}

// DiscardToken forgets the most recent token. Tokens are single use.
func (a *Adapter) DiscardToken() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.last = nil
}

// HasToken reports whether a token is held and not yet discarded.
func (a *Adapter) HasToken() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last != nil
}

// Close detaches the widget and forgets the last token.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == stateClosed {
		return nil
	}
	a.state = stateClosed
	a.last = nil
	if err := a.widget.Detach(); err != nil {
		return fmt.Errorf("detach widget: %w", err)
	}
	return nil
}

// IsInitError reports whether err is terminal for the checkout session.
func IsInitError(err error) bool {
	var ie *InitError
	return errors.As(err, &ie)
}

func messageOr(msg, def string) string {
	if msg == "" {
		return def
	}
	return msg
}
