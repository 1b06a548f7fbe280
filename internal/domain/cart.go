package domain

// CartLine is one item in the shopper's cart with the title and price captured
// when it was added. JSON names match the browser storage format.
type CartLine struct {
	ItemID         int64  `json:"itemId"`
	Quantity       int    `json:"quantity"`
	Title          string `json:"title"`
	UnitPriceCents int64  `json:"priceCents"`
}

func (l CartLine) LineTotalCents() int64 {
	return int64(l.Quantity) * l.UnitPriceCents
}
