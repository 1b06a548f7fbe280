package domain

type ShippingAddress struct {
	Name  string `json:"name"`
	Line1 string `json:"line1"`
	Line2 string `json:"line2,omitempty"`
	City  string `json:"city"`
	State string `json:"state"`
	Zip   string `json:"zip"`
}

type OrderLine struct {
	ItemID   int64 `json:"itemId"`
	Quantity int   `json:"quantity"`
}

// OrderSubmission is built once from a cart snapshot and the checkout drafts.
// SourceID is empty for the order-only endpoint.
type OrderSubmission struct {
	Email           string          `json:"email"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	Items           []OrderLine     `json:"items"`
	TaxCents        int64           `json:"taxCents"`
	ShippingCents   int64           `json:"shippingCents"`
	Currency        string          `json:"currency"`
	SourceID        string          `json:"sourceId,omitempty"`
}

type Totals struct {
	SubtotalCents int64  `json:"subtotalCents"`
	TaxCents      int64  `json:"taxCents"`
	ShippingCents int64  `json:"shippingCents"`
	TotalCents    int64  `json:"totalCents"`
	Currency      string `json:"currency"`
}

type ResultLine struct {
	ID             int64  `json:"id"`
	ItemID         *int64 `json:"itemId"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	Title          string `json:"title"`
}

type FulfillmentCounts struct {
	NeedsCreated int `json:"needsCreated"`
	NeedsShipped int `json:"needsShipped"`
}

// OrderResult is the server's authoritative view of a created order.
type OrderResult struct {
	OrderID     int64             `json:"orderId"`
	Totals      Totals            `json:"totals"`
	LineItems   []ResultLine      `json:"lineItems"`
	Fulfillment FulfillmentCounts `json:"fulfillment"`
}

type PaymentConfirmation struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	ReceiptURL string `json:"receiptUrl,omitempty"`
}

type PaymentResult struct {
	Success bool                `json:"success"`
	Order   OrderResult         `json:"order"`
	Payment PaymentConfirmation `json:"payment"`
}

// Receipt is a confirmed order as recorded locally after checkout. ShopperID
// is the session that placed it; only that session may read it back.
type Receipt struct {
	ShopperID string              `json:"shopperId,omitempty"`
	Email     string              `json:"email"`
	Order     OrderResult         `json:"order"`
	Payment   PaymentConfirmation `json:"payment"`
}

// OrderPlaced is published once per successful checkout.
type OrderPlaced struct {
	ShopperID string              `json:"shopperId"`
	SessionID string              `json:"sessionId"`
	Email     string              `json:"email"`
	Order     OrderResult         `json:"order"`
	Payment   PaymentConfirmation `json:"payment"`
}
