package main

import (
	"github.com/spf13/cobra"
)

func newProductsCmd(a *app) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List the catalog, optionally filtered by name or category",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.front.Load(ctx, a.sess); err != nil && !cartOnly(err) {
				return err
			}
			if err := a.front.Search(ctx, search); err != nil {
				return err
			}
			return renderProducts(cmd.OutOrStdout(), a.front.View())
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "Search text")
	return cmd
}
