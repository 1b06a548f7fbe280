package cart

import "fmt"

const (
	MaxQuantityPerItem = 10
	MaxTotalCartItems  = 20

	// StorageKey is the namespace carts are persisted under.
	StorageKey = "abc_shopping_cart"

	contactLink = "/contact"
)

func perItemLimitMessage(title string) string {
	return fmt.Sprintf("You can add at most %d of %q. Contact us for larger orders.", MaxQuantityPerItem, title)
}

func cartLimitMessage() string {
	return fmt.Sprintf("Your cart can hold at most %d items. Contact us for bulk orders.", MaxTotalCartItems)
}

const (
	invalidQuantityMessage = "Quantity must be at least 1."
	invalidPriceMessage    = "This item can't be added right now."
)

// withinLimits reports whether a line at proposed quantity fits, given the
// cart total with that line's current quantity already excluded.
func withinLimits(proposed, totalExcludingLine int) (perItem, total bool) {
	return proposed <= MaxQuantityPerItem, proposed <= MaxTotalCartItems-totalExcludingLine
}
