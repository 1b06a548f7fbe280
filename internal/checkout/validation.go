package checkout

import (
	"regexp"
	"strings"

	"github.com/RaikyD/storefront-bff/internal/domain"
	"github.com/go-playground/validator/v10"
)

const (
	FieldEmail = "email"
	FieldName  = "name"
	FieldLine1 = "line1"
	FieldLine2 = "line2"
	FieldCity  = "city"
	FieldState = "state"
	FieldZip   = "zip"
)

var shippingFields = []string{FieldName, FieldLine1, FieldLine2, FieldCity, FieldState, FieldZip}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	msgEmailRequired = "Email is required"
	msgEmailInvalid  = "Please enter a valid email address"
)

// ShippingDraft is the address as typed. Field order is the order errors
// are reported in.
type ShippingDraft struct {
	Name  string `json:"name" validate:"required"`
	Line1 string `json:"line1" validate:"required"`
	Line2 string `json:"line2,omitempty"`
	City  string `json:"city" validate:"required"`
	State string `json:"state" validate:"required"`
	Zip   string `json:"zip" validate:"required"`
}

var shippingMessages = map[string]string{
	"Name":  "Name is required",
	"Line1": "Address line 1 is required",
	"City":  "City is required",
	"State": "State is required",
	"Zip":   "ZIP code is required",
}

var fieldKeys = map[string]string{
	"Name":  FieldName,
	"Line1": FieldLine1,
	"City":  FieldCity,
	"State": FieldState,
	"Zip":   FieldZip,
}

var validate = validator.New()

// ValidateEmail returns nil or the field error for an email draft.
func ValidateEmail(email string) *ValidationError {
	e := strings.TrimSpace(email)
	if e == "" {
		return &ValidationError{Field: FieldEmail, Message: msgEmailRequired}
	}
	if !strings.Contains(e, "@") || !strings.Contains(e, ".") || !emailPattern.MatchString(e) {
		return &ValidationError{Field: FieldEmail, Message: msgEmailInvalid}
	}
	return nil
}

func (d ShippingDraft) trimmed() ShippingDraft {
	return ShippingDraft{
		Name:  strings.TrimSpace(d.Name),
		Line1: strings.TrimSpace(d.Line1),
		Line2: strings.TrimSpace(d.Line2),
		City:  strings.TrimSpace(d.City),
		State: strings.TrimSpace(d.State),
		Zip:   strings.TrimSpace(d.Zip),
	}
}

// ValidateShipping returns the first missing required field, if any.
func ValidateShipping(d ShippingDraft) *ValidationError {
	err := validate.Struct(d.trimmed())
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return &ValidationError{Field: FieldName, Message: err.Error()}
	}
	first := verrs[0].StructField()
	return &ValidationError{Field: fieldKeys[first], Message: shippingMessages[first]}
}

// Address converts the draft to the wire form. A blank line2 is omitted.
func (d ShippingDraft) Address() domain.ShippingAddress {
	t := d.trimmed()
	return domain.ShippingAddress{
		Name:  t.Name,
		Line1: t.Line1,
		Line2: t.Line2,
		City:  t.City,
		State: t.State,
		Zip:   t.Zip,
	}
}

func (d *ShippingDraft) set(field, value string) bool {
	switch field {
	case FieldName:
		d.Name = value
	case FieldLine1:
		d.Line1 = value
	case FieldLine2:
		d.Line2 = value
	case FieldCity:
		d.City = value
	case FieldState:
		d.State = value
	case FieldZip:
		d.Zip = value
	default:
		return false
	}
	return true
}
