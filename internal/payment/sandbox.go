package payment

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
)

var (
	ErrMissingApplicationID  = errors.New("payment: missing application id")
	ErrMissingLocationID     = errors.New("payment: missing location id")
	ErrSandboxApplicationID  = errors.New("payment: sandbox application id must start with \"sandbox-\"")
	ErrProductionUnsupported = errors.New("payment: production tokenization needs the browser SDK")
	ErrNotAttached           = errors.New("payment: card element not attached")
)

// CardInput is what a shopper types into the card element.
type CardInput struct {
	Number     string `json:"number" validate:"required"`
	ExpMonth   int    `json:"expMonth" validate:"required,min=1,max=12"`
	ExpYear    int    `json:"expYear" validate:"required"`
	CVV        string `json:"cvv" validate:"required"`
	PostalCode string `json:"postalCode"`
}

// SandboxWidget emulates the provider's sandbox card element in-process so
// checkout can run end to end without a browser. It issues "cnon:" tokens.
type SandboxWidget struct {
	mu       sync.Mutex
	now      func() time.Time
	ready    bool
	attached string
	card     *CardInput
}

func NewSandboxWidget() *SandboxWidget {
	return &SandboxWidget{now: time.Now}
}

func (w *SandboxWidget) Initialize(_ context.Context, creds Credentials) error {
	if creds.ApplicationID == "" {
		return ErrMissingApplicationID
	}
	if creds.LocationID == "" {
		return ErrMissingLocationID
	}
	if creds.Environment == EnvProduction {
		return ErrProductionUnsupported
	}
	if !strings.HasPrefix(creds.ApplicationID, "sandbox-") {
		return ErrSandboxApplicationID
	}

	w.mu.Lock()
	w.ready = true
	w.mu.Unlock()
	return nil
}

func (w *SandboxWidget) AttachCardElement(_ context.Context, target string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.ready {
		return ErrNotReady
	}
	w.attached = target
	return nil
}

// SetCard fills the card element.
func (w *SandboxWidget) SetCard(card CardInput) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c := card
	w.card = &c
}

func (w *SandboxWidget) Tokenize(_ context.Context) (TokenizeResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.attached == "" {
		return TokenizeResult{}, ErrNotAttached
	}
	if w.card == nil {
		return errorResult("cardNumber", "Card number is required."), nil
	}

	number := digitsOnly(w.card.Number)
	if len(number) < 12 || len(number) > 19 || !luhnValid(number) {
		return errorResult("cardNumber", "Card number is not valid."), nil
	}
	if !w.expiryValid(w.card.ExpMonth, w.card.ExpYear) {
		return errorResult("expirationDate", "Expiration date is not valid."), nil
	}
	if n := len(digitsOnly(w.card.CVV)); n != len(w.card.CVV) || n < 3 || n > 4 {
		return errorResult("cvv", "CVV is not valid."), nil
	}

	return TokenizeResult{
		Status: StatusOK,
		Token:  "cnon:" + uuid.NewString(),
		Details: &TokenizeDetails{Card: &CardDetails{
			CardBrand: cardBrand(number),
			Last4:     number[len(number)-4:],
			ExpMonth:  w.card.ExpMonth,
			ExpYear:   w.card.ExpYear,
		}},
	}, nil
}

func (w *SandboxWidget) Detach() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.attached = ""
	w.card = nil
	return nil
}

func (w *SandboxWidget) expiryValid(month, year int) bool {
	if month < 1 || month > 12 {
		return false
	}
	if year < 100 {
		year += 2000
	}
	now := w.now()
	return year > now.Year() || (year == now.Year() && month >= int(now.Month()))
}

func errorResult(field, msg string) TokenizeResult {
	return TokenizeResult{Status: StatusError, Errors: []TokenizeErrorDetail{{Message: msg, Field: field}}}
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func luhnValid(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		d := int(number[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

func cardBrand(number string) string {
	switch {
	case strings.HasPrefix(number, "4"):
		return "VISA"
	case strings.HasPrefix(number, "34"), strings.HasPrefix(number, "37"):
		return "AMERICAN_EXPRESS"
	case strings.HasPrefix(number, "6011"), strings.HasPrefix(number, "65"):
		return "DISCOVER"
	case len(number) >= 2 && number[0] == '5' && number[1] >= '1' && number[1] <= '5':
		return "MASTERCARD"
	default:
		return "OTHER_CARD_BRAND"
	}
}
