package presentation

import (
	"github.com/RaikyD/storefront-bff/internal/cart"
	"github.com/RaikyD/storefront-bff/internal/checkout"
	"github.com/RaikyD/storefront-bff/internal/domain"
	"github.com/RaikyD/storefront-bff/internal/money"
)

type cartLineView struct {
	ItemID    int64        `json:"itemId"`
	Title     string       `json:"title"`
	Quantity  int          `json:"quantity"`
	UnitPrice money.Amount `json:"unitPrice"`
	LineTotal money.Amount `json:"lineTotal"`
}

type cartLimitsView struct {
	MaxPerItem int `json:"maxPerItem"`
	MaxTotal   int `json:"maxTotal"`
}

type cartView struct {
	Lines      []cartLineView  `json:"lines"`
	TotalItems int             `json:"totalItems"`
	Subtotal   money.Amount    `json:"subtotal"`
	LoadStatus cart.LoadStatus `json:"loadStatus"`
	Limits     cartLimitsView  `json:"limits"`
}

func newCartView(s *cart.Store, currency string) cartView {
	lines := s.Lines()
	v := cartView{
		Lines:      make([]cartLineView, 0, len(lines)),
		TotalItems: s.TotalItems(),
		Subtotal:   money.NewAmount(s.SubtotalCents(), currency),
		LoadStatus: s.LoadStatus(),
		Limits:     cartLimitsView{MaxPerItem: cart.MaxQuantityPerItem, MaxTotal: cart.MaxTotalCartItems},
	}
	for _, l := range lines {
		v.Lines = append(v.Lines, cartLineView{
			ItemID:    l.ItemID,
			Title:     l.Title,
			Quantity:  l.Quantity,
			UnitPrice: money.NewAmount(l.UnitPriceCents, currency),
			LineTotal: money.NewAmount(l.LineTotalCents(), currency),
		})
	}
	return v
}

// rejectedView answers a cart change the store refused. The reason is in
// the notification channel.
type rejectedView struct {
	Error string   `json:"error"`
	Cart  cartView `json:"cart"`
}

type quoteView struct {
	Subtotal money.Amount `json:"subtotal"`
	Tax      money.Amount `json:"tax"`
	Shipping money.Amount `json:"shipping"`
	Total    money.Amount `json:"total"`
}

func newQuoteView(q checkout.Quote) quoteView {
	return quoteView{
		Subtotal: money.NewAmount(q.SubtotalCents, q.Currency),
		Tax:      money.NewAmount(q.TaxCents, q.Currency),
		Shipping: money.NewAmount(q.ShippingCents, q.Currency),
		Total:    money.NewAmount(q.TotalCents, q.Currency),
	}
}

type checkoutView struct {
	checkout.State
	Quote quoteView `json:"quote"`
	Cart  cartView  `json:"cart"`
}

func (h *Handler) newCheckoutView(o *checkout.Orchestrator, c *cart.Store) checkoutView {
	return checkoutView{
		State: o.State(),
		Quote: newQuoteView(o.Quote()),
		Cart:  newCartView(c, h.currency),
	}
}

type receiptView struct {
	domain.Receipt
	Total money.Amount `json:"total"`
}

func newReceiptView(r *domain.Receipt) receiptView {
	t := r.Order.Totals
	v := receiptView{Receipt: *r, Total: money.NewAmount(t.TotalCents, t.Currency)}
	v.ShopperID = ""
	return v
}
