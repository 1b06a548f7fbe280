package presentation

import (
	"errors"
	"net/http"

	"github.com/RaikyD/storefront-bff/internal/application"
	"github.com/RaikyD/storefront-bff/internal/backend"
	"github.com/RaikyD/storefront-bff/internal/checkout"
	"github.com/RaikyD/storefront-bff/internal/logger"
	"github.com/RaikyD/storefront-bff/internal/payment"
	"github.com/RaikyD/storefront-bff/internal/presentation/helpers"
	"github.com/RaikyD/storefront-bff/internal/session"
	"github.com/sony/gobreaker/v2"
)

// writeError maps domain errors to inline JSON errors.
func writeError(w http.ResponseWriter, err error) {
	var (
		verr     *checkout.ValidationError
		ferr     *helpers.FieldErr
		tokErr   *payment.TokenizeError
		apiErr   *backend.APIError
		initFail = payment.IsInitError(err)
	)
	switch {
	case errors.As(err, &verr):
		helpers.FieldError(w, http.StatusUnprocessableEntity, verr.Message, verr.Field)
	case errors.As(err, &ferr):
		helpers.FieldError(w, http.StatusBadRequest, ferr.Msg, ferr.Field)
	case errors.As(err, &tokErr):
		helpers.HttpError(w, http.StatusUnprocessableEntity, tokErr.Message)
	case initFail:
		helpers.HttpError(w, http.StatusBadGateway, "Payment form is unavailable. Please try again later.")
	case errors.Is(err, checkout.ErrInvalidTransition),
		errors.Is(err, checkout.ErrSubmissionInFlight),
		errors.Is(err, checkout.ErrCheckoutComplete),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrNoToken),
		errors.Is(err, session.ErrNoCardElement):
		helpers.HttpError(w, http.StatusConflict, err.Error())
	case errors.Is(err, application.ErrReceiptNotFound):
		helpers.HttpError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &apiErr):
		if apiErr.Status == http.StatusNotFound {
			helpers.HttpError(w, http.StatusNotFound, apiErr.Message)
			return
		}
		helpers.HttpError(w, http.StatusBadGateway, apiErr.Message)
	case errors.Is(err, backend.ErrPaymentDeclined):
		helpers.HttpError(w, http.StatusBadGateway, "Payment was declined.")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		helpers.HttpError(w, http.StatusBadGateway, "Catalog is temporarily unavailable.")
	default:
		logger.Error("request failed", "err", err)
		helpers.HttpError(w, http.StatusBadGateway, err.Error())
	}
}
