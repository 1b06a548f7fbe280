package presentation

import (
	"context"
	"net/http"

	"github.com/RaikyD/storefront-bff/internal/checkout"
	"github.com/RaikyD/storefront-bff/internal/payment"
	"github.com/RaikyD/storefront-bff/internal/presentation/helpers"
	"github.com/go-chi/chi/v5"
)

type emailRequest struct {
	Email string `json:"email"`
}

type fieldRequest struct {
	Value string `json:"value"`
}

func (h *Handler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	h.writeCheckout(w, r)
}

func (h *Handler) writeCheckout(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	helpers.WriteJSON(w, http.StatusOK, h.newCheckoutView(s.Checkout, s.Cart))
}

// run applies one checkout event and answers with the resulting state.
func (h *Handler) run(w http.ResponseWriter, r *http.Request, event func(o *checkout.Orchestrator) error) {
	if err := event(sessionFrom(r).Checkout); err != nil {
		writeError(w, err)
		return
	}
	h.writeCheckout(w, r)
}

func (h *Handler) SetEmail(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := helpers.DecodeJSON(r.Body, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	h.run(w, r, func(o *checkout.Orchestrator) error { return o.SetEmail(req.Email) })
}

func (h *Handler) BlurEmail(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(o *checkout.Orchestrator) error { return o.BlurEmail() })
}

func (h *Handler) SetShipping(w http.ResponseWriter, r *http.Request) {
	var req checkout.ShippingDraft
	if err := helpers.DecodeJSON(r.Body, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	h.run(w, r, func(o *checkout.Orchestrator) error { return o.SetShipping(req) })
}

func (h *Handler) SetShippingField(w http.ResponseWriter, r *http.Request) {
	var req fieldRequest
	if err := helpers.DecodeJSON(r.Body, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	field := chi.URLParam(r, "field")
	h.run(w, r, func(o *checkout.Orchestrator) error { return o.SetShippingField(field, req.Value) })
}

func (h *Handler) Proceed(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(o *checkout.Orchestrator) error { return o.Proceed(r.Context()) })
}

// SetCard types card details into the sandbox card element. Only valid
// while on the payment step.
func (h *Handler) SetCard(w http.ResponseWriter, r *http.Request) {
	var card payment.CardInput
	if err := helpers.DecodeValid(r.Body, &card); err != nil {
		writeDecodeError(w, err)
		return
	}
	s := sessionFrom(r)
	if s.Checkout.State().Step != checkout.StepPayment {
		writeError(w, checkout.ErrInvalidTransition)
		return
	}
	if err := s.SetCard(card); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AcquireToken(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(o *checkout.Orchestrator) error { return o.AcquireToken(r.Context()) })
}

func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(o *checkout.Orchestrator) error { return o.Back() })
}

func (h *Handler) EditShipping(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(o *checkout.Orchestrator) error { return o.EditShipping() })
}

func (h *Handler) ChangePayment(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(o *checkout.Orchestrator) error { return o.ChangePayment() })
}

// Confirm submits the order. A dropped connection does not cancel a payment
// that is already on its way; only the backend timeout bounds it.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())
	h.run(w, r, func(o *checkout.Orchestrator) error {
		_, err := o.ProcessPayment(ctx)
		return err
	})
}

func (h *Handler) Abandon(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(o *checkout.Orchestrator) error { return o.Abandon() })
}
