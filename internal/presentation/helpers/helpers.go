package helpers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func DecodeJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// DecodeValid decodes v and checks its validate tags. The returned
// *FieldErr names the first offending JSON field.
func DecodeValid(r io.Reader, v any) error {
	if err := DecodeJSON(r, v); err != nil {
		return err
	}
	err := validate.Struct(v)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &FieldErr{Field: verrs[0].Field(), Msg: verrs[0].Field() + " failed " + verrs[0].Tag() + " check"}
	}
	return err
}

type FieldErr struct {
	Field string
	Msg   string
}

func (e *FieldErr) Error() string { return e.Msg }

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func HttpError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}

func FieldError(w http.ResponseWriter, status int, msg, field string) {
	WriteJSON(w, status, map[string]string{"error": msg, "field": field})
}
