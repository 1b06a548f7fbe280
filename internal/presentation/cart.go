package presentation

import (
	"net/http"
	"strconv"

	"github.com/RaikyD/storefront-bff/internal/presentation/helpers"
	"github.com/go-chi/chi/v5"
)

type addItemRequest struct {
	ItemID   int64 `json:"itemId" validate:"gt=0"`
	Quantity int   `json:"quantity" validate:"gte=1"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	helpers.WriteJSON(w, http.StatusOK, newCartView(s.Cart, h.currency))
}

// AddCartItem adds a catalog item. Title and price come from the catalog,
// never from the request.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := helpers.DecodeValid(r.Body, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	item, err := h.catalog.GetItem(r.Context(), req.ItemID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !item.IsActive {
		helpers.HttpError(w, http.StatusConflict, "item is not available")
		return
	}

	s := sessionFrom(r)
	if !s.Cart.Add(r.Context(), item.ID, req.Quantity, item.Title, item.PriceCents) {
		helpers.WriteJSON(w, http.StatusConflict, rejectedView{Error: "item not added", Cart: newCartView(s.Cart, h.currency)})
		return
	}
	helpers.WriteJSON(w, http.StatusOK, newCartView(s.Cart, h.currency))
}

func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "itemId")
	if !ok {
		return
	}
	var req updateQuantityRequest
	if err := helpers.DecodeValid(r.Body, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	s := sessionFrom(r)
	if !s.Cart.UpdateQuantity(r.Context(), id, req.Quantity) {
		helpers.WriteJSON(w, http.StatusConflict, rejectedView{Error: "quantity not changed", Cart: newCartView(s.Cart, h.currency)})
		return
	}
	helpers.WriteJSON(w, http.StatusOK, newCartView(s.Cart, h.currency))
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "itemId")
	if !ok {
		return
	}
	s := sessionFrom(r)
	s.Cart.Remove(r.Context(), id)
	helpers.WriteJSON(w, http.StatusOK, newCartView(s.Cart, h.currency))
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	s.Cart.Clear(r.Context())
	helpers.WriteJSON(w, http.StatusOK, newCartView(s.Cart, h.currency))
}

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]any{"notifications": sessionFrom(r).Notices.Active()})
}

func (h *Handler) DismissNotification(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	sessionFrom(r).Notices.Dismiss(id)
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		helpers.FieldError(w, http.StatusBadRequest, name+" must be an integer", name)
		return 0, false
	}
	return id, true
}

func writeDecodeError(w http.ResponseWriter, err error) {
	if fe, ok := err.(*helpers.FieldErr); ok {
		helpers.FieldError(w, http.StatusBadRequest, fe.Msg, fe.Field)
		return
	}
	helpers.HttpError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
}
