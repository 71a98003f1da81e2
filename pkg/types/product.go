package types

import "github.com/shopspring/decimal"

func init() {
	// Costs and balances travel as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product is a catalog record as served by GET /products.
type Product struct {
	ID       string          `json:"_id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Cost     decimal.Decimal `json:"cost"`
	Rating   int             `json:"rating"`
	Image    string          `json:"image"`
}
