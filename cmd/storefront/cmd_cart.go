package main

import (
	"context"

	"github.com/angelmondragon/qkart/internal/cart"
	"github.com/angelmondragon/qkart/internal/session"
	"github.com/angelmondragon/qkart/internal/storefront"
	"github.com/spf13/cobra"
)

type cartMutation func(svc *storefront.Service, ctx context.Context, identity cart.Identity, productID string) error

func newCartCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.loadCart(cmd.Context()); err != nil {
				return err
			}
			return renderCart(cmd.OutOrStdout(), a.front.View())
		},
	}
	cmd.AddCommand(newCartMutationCmd(a, "add", "Add one unit of a product to the cart", (*storefront.Service).AddToCart))
	cmd.AddCommand(newCartMutationCmd(a, "inc", "Increase the quantity of a cart item", (*storefront.Service).Increment))
	cmd.AddCommand(newCartMutationCmd(a, "dec", "Decrease the quantity of a cart item", (*storefront.Service).Decrement))
	return cmd
}

func newCartMutationCmd(a *app, use, short string, mutate cartMutation) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <productId>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := a.loadCart(ctx)
			if err != nil {
				return err
			}
			if err := mutate(a.front, ctx, sess, args[0]); err != nil {
				return err
			}
			return renderCart(cmd.OutOrStdout(), a.front.View())
		},
	}
}

func newCheckoutSummaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "checkout-summary",
		Short: "Show the order details for the current cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.loadCart(cmd.Context())
			if err != nil {
				return err
			}
			return renderOrderDetails(cmd.OutOrStdout(), a.front.View(), sess.Balance())
		},
	}
}

func (a *app) loadCart(ctx context.Context) (*session.Session, error) {
	sess, err := a.requireSession()
	if err != nil {
		return nil, err
	}
	if err := a.front.Load(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}
