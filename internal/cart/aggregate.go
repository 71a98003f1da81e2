package cart

import "github.com/shopspring/decimal"

// Aggregate holds the derived cart totals.
type Aggregate struct {
	ItemCount  int             `json:"itemCount"`
	TotalValue decimal.Decimal `json:"totalValue"`
}

// TotalValue sums Cost × Qty over items.
func TotalValue(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// ItemCount sums Qty over items.
func ItemCount(items []LineItem) int {
	count := 0
	for _, item := range items {
		count += item.Qty
	}
	return count
}

// Summarize computes both totals.
func Summarize(items []LineItem) Aggregate {
	return Aggregate{
		ItemCount:  ItemCount(items),
		TotalValue: TotalValue(items),
	}
}
