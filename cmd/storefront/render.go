package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/angelmondragon/qkart/internal/storefront"
	pkgerrors "github.com/angelmondragon/qkart/pkg/errors"
	"github.com/shopspring/decimal"
)

func formatMoney(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// cartOnly reports whether a Load error concerns only the cart, leaving the catalog usable.
func cartOnly(err error) bool {
	switch pkgerrors.CodeOf(err) {
	case pkgerrors.CodeUnauthorized, pkgerrors.CodeValidation:
		return true
	}
	return false
}

func renderProducts(w io.Writer, view storefront.View) error {
	if view.NoProducts || len(view.Products) == 0 {
		_, err := fmt.Fprintln(w, "No products found")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tCOST\tRATING")
	for _, p := range view.Products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", p.ID, p.Name, p.Category, formatMoney(p.Cost), p.Rating)
	}
	return tw.Flush()
}

func renderCart(w io.Writer, view storefront.View) error {
	if len(view.Items) == 0 {
		_, err := fmt.Fprintln(w, "Cart is empty. Add more items to the cart to checkout")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tCOST\tSUBTOTAL")
	for _, item := range view.Items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", item.ProductID, item.Name, item.Qty, formatMoney(item.Cost), formatMoney(item.Subtotal()))
	}
	fmt.Fprintf(tw, "\t\t\tTotal\t%s\n", formatMoney(view.Summary.TotalValue))
	return tw.Flush()
}

func renderOrderDetails(w io.Writer, view storefront.View, balance decimal.Decimal) error {
	if len(view.Items) == 0 {
		_, err := fmt.Fprintln(w, "Cart is empty. Add more items to the cart to checkout")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Order Details")
	fmt.Fprintf(tw, "Products\t%d\n", view.Summary.ItemCount)
	fmt.Fprintf(tw, "Subtotal\t%s\n", formatMoney(view.Summary.TotalValue))
	fmt.Fprintf(tw, "Shipping Charges\t%s\n", formatMoney(decimal.Zero))
	fmt.Fprintf(tw, "Total\t%s\n", formatMoney(view.Summary.TotalValue))
	fmt.Fprintf(tw, "Wallet Balance\t%s\n", formatMoney(balance))
	return tw.Flush()
}
