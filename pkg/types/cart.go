package types

// CartEntry is one membership row of the authoritative cart.
type CartEntry struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

// CartUpdate is the body of POST /cart. Qty is the absolute target quantity.
type CartUpdate struct {
	ProductID string `json:"productId" validate:"required"`
	Qty       *int   `json:"qty" validate:"required,min=0"`
}
