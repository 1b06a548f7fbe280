package presentation

import (
	"net/http"

	"github.com/RaikyD/storefront-bff/internal/application"
	"github.com/RaikyD/storefront-bff/internal/presentation/helpers"
)

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.ListItems(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	item, err := h.catalog.GetItem(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{"item": item})
}

// GetReceipt answers only for orders placed by the calling session. Other
// shoppers' orders look the same as unknown ones.
func (h *Handler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "orderId")
	if !ok {
		return
	}
	rec, err := h.receipts.GetByOrderID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if rec.ShopperID == "" || rec.ShopperID != sessionFrom(r).ID {
		writeError(w, application.ErrReceiptNotFound)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, newReceiptView(rec))
}
