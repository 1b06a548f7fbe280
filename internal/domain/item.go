package domain

import "time"

type ItemImage struct {
	ID        int64   `json:"id"`
	ItemID    int64   `json:"itemId"`
	URL       string  `json:"url"`
	SortOrder *int    `json:"sortOrder"`
	AltText   *string `json:"altText"`
}

// Item is the catalog read model. Only ID, Title and PriceCents reach the cart.
type Item struct {
	ID                int64       `json:"id"`
	Title             string      `json:"title"`
	Description       *string     `json:"description"`
	PriceCents        int64       `json:"priceCents"`
	Currency          string      `json:"currency"`
	QuantityAvailable int         `json:"quantityAvailable"`
	MakeTimeMinutes   *int        `json:"makeTimeMinutes"`
	IsActive          bool        `json:"isActive"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
	Images            []ItemImage `json:"images"`
}
