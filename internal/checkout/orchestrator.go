// Package checkout drives a shopper from cart review through payment to a
// placed order.
//
//	Review --Proceed--> Payment --AcquireToken--> Confirm --ProcessPayment--> done
//	   ^                  |  ^                      |  |
//	   +-------Back-------+  +----ChangePayment-----+  |
//	   +------------------EditShipping-----------------+
//
// A failed ProcessPayment returns to Payment. Payment tokens are single use:
// one is discarded after every submission attempt, successful or not.
package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/RaikyD/storefront-bff/internal/domain"
	"github.com/RaikyD/storefront-bff/internal/events"
	"github.com/RaikyD/storefront-bff/internal/logger"
	"github.com/RaikyD/storefront-bff/internal/notify"
	"github.com/RaikyD/storefront-bff/internal/payment"
	"github.com/google/uuid"
)

type Step string

const (
	StepReview  Step = "review"
	StepPayment Step = "payment"
	StepConfirm Step = "confirm"
)

// Cart is the part of the cart store checkout reads and clears.
type Cart interface {
	Lines() []domain.CartLine
	SubtotalCents() int64
	Clear(ctx context.Context)
}

// TokenSource produces one-time payment tokens. *payment.Adapter implements it.
type TokenSource interface {
	Initialize(ctx context.Context, creds payment.Credentials) error
	RequestToken(ctx context.Context) (payment.Token, error)
	DiscardToken()
	Close() error
}

// Gateway is the combined payment + order endpoint.
type Gateway interface {
	ProcessPayment(ctx context.Context, sub domain.OrderSubmission) (*domain.PaymentResult, error)
}

// ReceiptRecorder keeps a local copy of confirmed orders.
type ReceiptRecorder interface {
	Record(ctx context.Context, r domain.Receipt) error
}

type Deps struct {
	Cart           Cart
	Gateway        Gateway
	NewTokenSource func() TokenSource
	Credentials    payment.Credentials
	Notifier       notify.Notifier
	Pricing        Pricing

	// ShopperID owns the receipts of orders placed here.
	ShopperID string

	// optional
	Receipts ReceiptRecorder
	Events   events.Publisher
}

type Result struct {
	Order   domain.OrderResult         `json:"order"`
	Payment domain.PaymentConfirmation `json:"payment"`
}

// State is a read-only snapshot. The token itself never leaves the orchestrator.
type State struct {
	SessionID          string               `json:"sessionId"`
	Step               Step                 `json:"step"`
	Email              string               `json:"email"`
	Shipping           ShippingDraft        `json:"shipping"`
	Errors             map[string]string    `json:"errors,omitempty"`
	HasToken           bool                 `json:"hasToken"`
	Card               *payment.CardSummary `json:"card,omitempty"`
	Submitting         bool                 `json:"submitting"`
	PaymentError       string               `json:"paymentError,omitempty"`
	PaymentUnavailable bool                 `json:"paymentUnavailable"`
	SubmitError        string               `json:"submitError,omitempty"`
	Result             *Result              `json:"result,omitempty"`
}

type Orchestrator struct {
	mu   sync.Mutex
	deps Deps

	sessionID string
	step      Step
	email     string
	shipping  ShippingDraft
	errs      map[string]string

	tokens  TokenSource
	initErr error
	token   *payment.Token

	submitting   bool
	paymentError string
	submitError  string
	result       *Result
}

func New(deps Deps) *Orchestrator {
	o := &Orchestrator{deps: deps}
	o.resetLocked()
	return o
}

func (o *Orchestrator) resetLocked() {
	o.sessionID = uuid.NewString()
	o.step = StepReview
	o.email = ""
	o.shipping = ShippingDraft{}
	o.errs = make(map[string]string)
	o.initErr = nil
	o.token = nil
	o.submitting = false
	o.paymentError = ""
	o.submitError = ""
	o.result = nil
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()

	st := State{
		SessionID:          o.sessionID,
		Step:               o.step,
		Email:              o.email,
		Shipping:           o.shipping,
		HasToken:           o.token != nil,
		Submitting:         o.submitting,
		PaymentError:       o.paymentError,
		PaymentUnavailable: o.initErr != nil,
		SubmitError:        o.submitError,
		Result:             o.result,
	}
	if len(o.errs) > 0 {
		st.Errors = make(map[string]string, len(o.errs))
		for k, v := range o.errs {
			st.Errors[k] = v
		}
	}
	if o.token != nil && o.token.Card != nil {
		c := *o.token.Card
		st.Card = &c
	}
	return st
}

// Quote prices the current cart with the configured pricing.
func (o *Orchestrator) Quote() Quote {
	return o.deps.Pricing.Quote(o.deps.Cart.SubtotalCents())
}

// SetEmail updates the draft and clears its error until the next validation.
func (o *Orchestrator) SetEmail(email string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.editableLocked(); err != nil {
		return err
	}
	o.email = email
	delete(o.errs, FieldEmail)
	return nil
}

// BlurEmail validates the email draft as the field loses focus.
func (o *Orchestrator) BlurEmail() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.editableLocked(); err != nil {
		return err
	}
	if verr := o.checkEmailLocked(); verr != nil {
		return verr
	}
	return nil
}

func (o *Orchestrator) SetShippingField(field, value string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.editableLocked(); err != nil {
		return err
	}
	if !o.shipping.set(field, value) {
		return &ValidationError{Field: field, Message: "unknown shipping field"}
	}
	delete(o.errs, field)
	return nil
}

// SetShipping replaces the whole shipping draft.
func (o *Orchestrator) SetShipping(d ShippingDraft) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.editableLocked(); err != nil {
		return err
	}
	o.shipping = d
	o.clearShippingErrorsLocked()
	return nil
}

func (o *Orchestrator) editableLocked() error {
	if o.result != nil {
		return ErrCheckoutComplete
	}
	if o.submitting {
		return ErrSubmissionInFlight
	}
	return nil
}

func (o *Orchestrator) checkEmailLocked() *ValidationError {
	if verr := ValidateEmail(o.email); verr != nil {
		o.errs[FieldEmail] = verr.Message
		return verr
	}
	delete(o.errs, FieldEmail)
	return nil
}

func (o *Orchestrator) checkShippingLocked() *ValidationError {
	o.clearShippingErrorsLocked()
	if verr := ValidateShipping(o.shipping); verr != nil {
		o.errs[verr.Field] = verr.Message
		return verr
	}
	return nil
}

func (o *Orchestrator) clearShippingErrorsLocked() {
	for _, f := range shippingFields {
		delete(o.errs, f)
	}
}

func (o *Orchestrator) checkDraftsLocked() error {
	emailErr := o.checkEmailLocked()
	shipErr := o.checkShippingLocked()
	if emailErr != nil {
		return emailErr
	}
	if shipErr != nil {
		return shipErr
	}
	return nil
}

// Proceed validates the drafts and moves Review -> Payment, acquiring the
// payment widget. A widget that fails to initialize leaves the shopper on
// Payment with the *payment.InitError returned; it stays failed until Abandon.
func (o *Orchestrator) Proceed(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.editableLocked(); err != nil {
		return err
	}
	if o.step != StepReview {
		return ErrInvalidTransition
	}
	if err := o.checkDraftsLocked(); err != nil {
		return err
	}

	o.step = StepPayment
	o.paymentError = ""
	return o.acquireWidgetLocked(ctx)
}

func (o *Orchestrator) acquireWidgetLocked(ctx context.Context) error {
	if o.initErr != nil {
		return o.initErr
	}
	if o.tokens != nil {
		return nil
	}
	ts := o.deps.NewTokenSource()
	if err := ts.Initialize(ctx, o.deps.Credentials); err != nil {
		_ = ts.Close()
		o.initErr = err
		o.paymentError = err.Error()
		logger.Warn("payment widget unavailable", "session", o.sessionID, "err", err)
		return err
	}
	o.tokens = ts
	return nil
}

func (o *Orchestrator) releaseWidgetLocked() {
	if o.tokens == nil {
		return
	}
	if err := o.tokens.Close(); err != nil {
		logger.Warn("payment widget release failed", "session", o.sessionID, "err", err)
	}
	o.tokens = nil
}

// AcquireToken asks the widget for a token and moves Payment -> Confirm.
// Tokenization failures keep the shopper on Payment and may be retried.
func (o *Orchestrator) AcquireToken(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.editableLocked(); err != nil {
		return err
	}
	if o.step != StepPayment {
		return ErrInvalidTransition
	}
	if err := o.acquireWidgetLocked(ctx); err != nil {
		return err
	}

	tok, err := o.tokens.RequestToken(ctx)
	if err != nil {
		o.paymentError = err.Error()
		return err
	}
	o.token = &tok
	o.paymentError = ""
	o.submitError = ""
	o.step = StepConfirm
	return nil
}

// Back moves Payment -> Review.
func (o *Orchestrator) Back() error {
	return o.backTo(StepPayment, StepReview)
}

// EditShipping moves Confirm -> Review.
func (o *Orchestrator) EditShipping() error {
	return o.backTo(StepConfirm, StepReview)
}

// ChangePayment moves Confirm -> Payment, dropping the token and card summary.
func (o *Orchestrator) ChangePayment() error {
	return o.backTo(StepConfirm, StepPayment)
}

func (o *Orchestrator) backTo(from, to Step) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.editableLocked(); err != nil {
		return err
	}
	if o.step != from {
		return ErrInvalidTransition
	}
	o.discardTokenLocked()
	if to == StepReview {
		o.releaseWidgetLocked()
	}
	o.step = to
	return nil
}

func (o *Orchestrator) discardTokenLocked() {
	o.token = nil
	if o.tokens != nil {
		o.tokens.DiscardToken()
	}
}

// ProcessPayment submits the order with the held token. The token is spent
// whatever the outcome. On failure the cart and drafts are kept and the
// shopper returns to Payment to get a fresh token.
func (o *Orchestrator) ProcessPayment(ctx context.Context) (*Result, error) {
	o.mu.Lock()
	if err := o.editableLocked(); err != nil {
		o.mu.Unlock()
		return nil, err
	}
	if o.step != StepConfirm {
		o.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	if err := o.checkDraftsLocked(); err != nil {
		// stale drafts: send the shopper back to fix them
		o.discardTokenLocked()
		o.releaseWidgetLocked()
		o.step = StepReview
		o.mu.Unlock()
		return nil, err
	}
	lines := o.deps.Cart.Lines()
	if len(lines) == 0 {
		o.mu.Unlock()
		return nil, ErrEmptyCart
	}
	if o.token == nil {
		o.mu.Unlock()
		return nil, ErrNoToken
	}

	sub := o.buildSubmissionLocked(lines)
	o.submitting = true
	o.submitError = ""
	sessionID := o.sessionID
	o.mu.Unlock()

	res, err := o.deps.Gateway.ProcessPayment(ctx, sub)

	o.mu.Lock()
	o.submitting = false
	o.discardTokenLocked()
	if err != nil {
		o.submitError = err.Error()
		o.step = StepPayment
		o.mu.Unlock()

		logger.Warn("payment failed", "session", sessionID, "err", err)
		o.deps.Notifier.Show(o.failureMessage(err), notify.SeverityError, "")
		return nil, err
	}

	result := &Result{Order: res.Order, Payment: res.Payment}
	o.result = result
	o.releaseWidgetLocked()
	o.mu.Unlock()

	o.deps.Cart.Clear(ctx)
	logger.Info("order placed", "session", sessionID, "order_id", res.Order.OrderID, "payment_id", res.Payment.ID)
	o.deps.Notifier.Show("Thank you! Your order has been placed.", notify.SeveritySuccess, "")
	o.afterOrder(ctx, sessionID, sub.Email, result)
	return result, nil
}

func (o *Orchestrator) buildSubmissionLocked(lines []domain.CartLine) domain.OrderSubmission {
	items := make([]domain.OrderLine, 0, len(lines))
	var subtotal int64
	for _, l := range lines {
		items = append(items, domain.OrderLine{ItemID: l.ItemID, Quantity: l.Quantity})
		subtotal += l.LineTotalCents()
	}
	q := o.deps.Pricing.Quote(subtotal)
	return domain.OrderSubmission{
		Email:           strings.TrimSpace(o.email),
		ShippingAddress: o.shipping.Address(),
		Items:           items,
		TaxCents:        q.TaxCents,
		ShippingCents:   q.ShippingCents,
		Currency:        o.deps.Pricing.Currency,
		SourceID:        o.token.Value,
	}
}

func (o *Orchestrator) failureMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "The payment service took too long to respond. Please try again."
	}
	return "Payment failed: " + err.Error()
}

// afterOrder records and announces a placed order. Both are best effort.
func (o *Orchestrator) afterOrder(ctx context.Context, sessionID, email string, r *Result) {
	if o.deps.Receipts != nil {
		err := o.deps.Receipts.Record(ctx, domain.Receipt{
			ShopperID: o.deps.ShopperID,
			Email:     email,
			Order:     r.Order,
			Payment:   r.Payment,
		})
		if err != nil {
			logger.Warn("receipt not recorded", "order_id", r.Order.OrderID, "err", err)
		}
	}
	if o.deps.Events != nil {
		err := o.deps.Events.PublishOrderPlaced(ctx, domain.OrderPlaced{
			ShopperID: o.deps.ShopperID,
			SessionID: sessionID,
			Email:     email,
			Order:     r.Order,
			Payment:   r.Payment,
		})
		if err != nil {
			logger.Warn("order event not published", "order_id", r.Order.OrderID, "err", err)
		}
	}
}

// Abandon drops the checkout session and releases the payment widget. It is
// also how a new session starts after an order was placed. Not allowed while
// a payment is in flight.
func (o *Orchestrator) Abandon() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.submitting {
		return ErrSubmissionInFlight
	}
	o.discardTokenLocked()
	o.releaseWidgetLocked()
	o.resetLocked()
	return nil
}
