package cart

import "github.com/angelmondragon/qkart/pkg/types"

// Reconciliation is the outcome of joining cart rows onto a catalog snapshot.
type Reconciliation struct {
	// Items is nil when there is no cart context and non-nil (possibly empty) otherwise.
	Items []LineItem
	// Dropped lists product ids whose rows had no catalog match.
	Dropped []string
}

// Present reports whether a cart context exists.
func (r Reconciliation) Present() bool {
	return r.Items != nil
}

// Join left-joins membership onto catalog, preserving membership order.
// Rows whose product is missing from the catalog are dropped and reported;
// rows with a non-positive quantity are skipped.
func Join(membership []types.CartEntry, catalog []types.Product) Reconciliation {
	if membership == nil {
		return Reconciliation{}
	}

	index := make(map[string]types.Product, len(catalog))
	for _, product := range catalog {
		if _, seen := index[product.ID]; !seen {
			index[product.ID] = product
		}
	}

	result := Reconciliation{Items: make([]LineItem, 0, len(membership))}
	for _, entry := range membership {
		if entry.Qty <= 0 {
			continue
		}
		product, ok := index[entry.ProductID]
		if !ok {
			result.Dropped = append(result.Dropped, entry.ProductID)
			continue
		}
		result.Items = append(result.Items, newLineItem(entry, product))
	}
	return result
}

// Reconcile returns the display-ready cart for membership, or nil when membership is nil.
func Reconcile(membership []types.CartEntry, catalog []types.Product) []LineItem {
	return Join(membership, catalog).Items
}
