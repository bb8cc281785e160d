package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"ledgerdesk/internal/model"
	"ledgerdesk/internal/repository"
	"ledgerdesk/internal/service"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newSeedCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the sample catalog when the catalog is empty",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := s.app.Inventory.SeedSampleCatalog(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d products\n", n)
			return nil
		},
	}
}

func newProductsCmd(s *session) *cobra.Command {
	productsCmd := &cobra.Command{
		Use:   "products",
		Short: "List and edit catalog products",
	}

	listCmd := &cobra.Command{
		Use:   "list [search]",
		Short: "List products, optionally filtered by SKU or name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			printProducts(cmd, s.app.Inventory.SearchProducts(query))
			return nil
		},
	}

	var draft model.ProductDraft
	var price string
	addCmd := &cobra.Command{
		Use:     "add NAME",
		Short:   "Add a product; the SKU is generated unless --sku is given",
		Example: `  ledgerctl products add "Widget C" --category Gadgets --stock 10 --price 7.25`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := decimal.NewFromString(price)
			if err != nil {
				return fmt.Errorf("invalid price %q: %w", price, err)
			}
			draft.Name = args[0]
			draft.Price = p

			product, err := s.app.Inventory.AddProduct(cmd.Context(), draft)
			if err := warnOrFail(cmd, err); err != nil {
				return err
			}
			printProducts(cmd, []model.Product{product})
			return nil
		},
	}
	addCmd.Flags().StringVar(&draft.SKU, "sku", "", "Product SKU (generated when empty)")
	addCmd.Flags().StringVar(&draft.Category, "category", "", "Category, used as the invoice unit")
	addCmd.Flags().IntVar(&draft.Stock, "stock", 0, "Units in stock")
	addCmd.Flags().StringVar(&price, "price", "0", "Unit price")

	adjustCmd := &cobra.Command{
		Use:   "adjust SKU DELTA",
		Short: "Change stock by a signed delta",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var delta int
			if _, err := fmt.Sscan(args[1], &delta); err != nil {
				return fmt.Errorf("invalid delta %q: %w", args[1], err)
			}
			product, err := s.app.Inventory.AdjustStock(cmd.Context(), args[0], delta)
			if err := warnOrFail(cmd, err); err != nil {
				return err
			}
			printProducts(cmd, []model.Product{product})
			return nil
		},
	}

	productsCmd.AddCommand(listCmd, addCmd, adjustCmd)
	return productsCmd
}

// warnOrFail lets a change that was applied but not saved through with a warning
func warnOrFail(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrPersistence) {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		return nil
	}
	if errors.Is(err, service.ErrGenerationExhausted) {
		return fmt.Errorf("%w; pass --sku explicitly", err)
	}
	return err
}

func printProducts(cmd *cobra.Command, products []model.Product) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SKU\tNAME\tCATEGORY\tSTOCK\tPRICE")
	for _, p := range products {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", p.SKU, p.Name, p.Category, p.Stock, p.Price.StringFixed(2))
	}
	_ = w.Flush()
}
