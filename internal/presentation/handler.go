package presentation

import (
	"context"
	"net/http"
	"time"

	"github.com/RaikyD/storefront-bff/internal/domain"
	"github.com/RaikyD/storefront-bff/internal/session"
	"github.com/go-chi/chi/v5"
)

const (
	sessionCookie    = "sf_session"
	sessionCookieAge = 30 * 24 * time.Hour
)

type Catalog interface {
	ListItems(ctx context.Context) ([]domain.Item, error)
	GetItem(ctx context.Context, id int64) (*domain.Item, error)
}

type Receipts interface {
	GetByOrderID(ctx context.Context, id int64) (*domain.Receipt, error)
}

type Handler struct {
	sessions *session.Manager
	catalog  Catalog
	receipts Receipts
	currency string
}

func NewHandler(sessions *session.Manager, catalog Catalog, receipts Receipts, currency string) *Handler {
	return &Handler{sessions: sessions, catalog: catalog, receipts: receipts, currency: currency}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog/items", h.ListItems)
		r.Get("/catalog/items/{id}", h.GetItem)

		r.Group(func(r chi.Router) {
			r.Use(h.withSession)

			r.Get("/orders/{orderId}", h.GetReceipt)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.GetCart)
				r.Delete("/", h.ClearCart)
				r.Post("/items", h.AddCartItem)
				r.Patch("/items/{itemId}", h.UpdateCartItem)
				r.Delete("/items/{itemId}", h.RemoveCartItem)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", h.ListNotifications)
				r.Delete("/{id}", h.DismissNotification)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/", h.GetCheckout)
				r.Put("/email", h.SetEmail)
				r.Post("/email/blur", h.BlurEmail)
				r.Put("/shipping", h.SetShipping)
				r.Patch("/shipping/{field}", h.SetShippingField)
				r.Post("/proceed", h.Proceed)
				r.Post("/payment/card", h.SetCard)
				r.Post("/payment/token", h.AcquireToken)
				r.Post("/back", h.Back)
				r.Post("/edit-shipping", h.EditShipping)
				r.Post("/change-payment", h.ChangePayment)
				r.Post("/confirm", h.Confirm)
				r.Post("/abandon", h.Abandon)
			})
		})
	})
}

type sessionKey struct{}

// withSession resolves the shopper session from the cookie, issuing a new
// cookie when the session had to be created under a fresh id.
func (h *Handler) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(sessionCookie); err == nil {
			id = c.Value
		}
		s := h.sessions.Get(r.Context(), id)
		if s.ID != id {
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    s.ID,
				Path:     "/",
				MaxAge:   int(sessionCookieAge.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, s)))
	})
}

func sessionFrom(r *http.Request) *session.Session {
	return r.Context().Value(sessionKey{}).(*session.Session)
}
