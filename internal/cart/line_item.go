package cart

import (
	"github.com/angelmondragon/qkart/pkg/types"
	"github.com/shopspring/decimal"
)

// LineItem is a cart row joined with its catalog product.
type LineItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Cost      decimal.Decimal `json:"cost"`
	Rating    int             `json:"rating"`
	Image     string          `json:"image"`
	Qty       int             `json:"qty"`
}

func newLineItem(entry types.CartEntry, product types.Product) LineItem {
	return LineItem{
		ProductID: entry.ProductID,
		Name:      product.Name,
		Category:  product.Category,
		Cost:      product.Cost,
		Rating:    product.Rating,
		Image:     product.Image,
		Qty:       entry.Qty,
	}
}

// Subtotal is Cost × Qty.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.Cost.Mul(decimal.NewFromInt(int64(l.Qty)))
}

// Find returns the line item for productID.
func Find(items []LineItem, productID string) (LineItem, bool) {
	for _, item := range items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return LineItem{}, false
}

// Contains reports whether productID is in the cart with a positive quantity.
func Contains(items []LineItem, productID string) bool {
	item, ok := Find(items, productID)
	return ok && item.Qty > 0
}
