package checkout

// Pricing is the client-side estimate sent with the order. The server's
// totals replace it once an order result arrives.
type Pricing struct {
	Currency       string
	ShippingCents  int64
	TaxBasisPoints int64
}

func DefaultPricing() Pricing {
	return Pricing{Currency: "USD", ShippingCents: 500}
}

type Quote struct {
	SubtotalCents int64  `json:"subtotalCents"`
	TaxCents      int64  `json:"taxCents"`
	ShippingCents int64  `json:"shippingCents"`
	TotalCents    int64  `json:"totalCents"`
	Currency      string `json:"currency"`
}

// Quote prices a subtotal. Tax rounds half up to whole cents. Empty carts
// ship for free.
func (p Pricing) Quote(subtotalCents int64) Quote {
	q := Quote{SubtotalCents: subtotalCents, Currency: p.Currency}
	if subtotalCents <= 0 {
		return q
	}
	q.TaxCents = (subtotalCents*p.TaxBasisPoints + 5000) / 10000
	q.ShippingCents = p.ShippingCents
	q.TotalCents = q.SubtotalCents + q.TaxCents + q.ShippingCents
	return q
}
