package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"ledgerdesk/internal/model"

	"github.com/spf13/cobra"
)

func newInvoicesCmd(s *session) *cobra.Command {
	invoicesCmd := &cobra.Command{
		Use:   "invoices",
		Short: "Inspect saved invoices",
	}
	invoicesCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved invoices, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tDATE\tCUSTOMER\tSUBTOTAL\tGRAND TOTAL\tSAVED")
			for _, rec := range s.app.Builder.ListRecords() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					rec.ID, rec.Header.Date, rec.Header.Customer,
					rec.Totals.Subtotal.StringFixed(2), rec.Totals.GrandTotal.StringFixed(2),
					rec.SavedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	})
	return invoicesCmd
}

func newReportCmd(s *session) *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Sales and inventory reports",
	}

	var from, to string
	salesCmd := &cobra.Command{
		Use:     "sales",
		Short:   "Totals of saved invoices dated within a range",
		Example: `  ledgerctl report sales --from 2026-10-01 --to 2026-10-31`,
		RunE: func(cmd *cobra.Command, args []string) error {
			end := time.Now()
			start := end.AddDate(0, 0, -30)
			var err error
			if from != "" {
				if start, err = time.Parse(model.DateLayout, from); err != nil {
					return fmt.Errorf("invalid --from, use YYYY-MM-DD: %w", err)
				}
			}
			if to != "" {
				if end, err = time.Parse(model.DateLayout, to); err != nil {
					return fmt.Errorf("invalid --to, use YYYY-MM-DD: %w", err)
				}
			}

			report, err := s.app.Reports.SalesReport(start, end)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tDATE\tCUSTOMER\tGRAND TOTAL")
			for _, row := range report.Rows {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", row.ID, row.Date, row.Customer, row.GrandTotal.StringFixed(2))
			}
			fmt.Fprintf(w, "\t%s..%s\t%d invoices\t%s\n", report.From, report.To, report.InvoiceCount, report.TotalGrand.StringFixed(2))
			return w.Flush()
		},
	}
	salesCmd.Flags().StringVar(&from, "from", "", "Start date (YYYY-MM-DD, default 30 days ago)")
	salesCmd.Flags().StringVar(&to, "to", "", "End date (YYYY-MM-DD, default today)")

	inventoryCmd := &cobra.Command{
		Use:   "inventory",
		Short: "Stock levels and stock value",
		RunE: func(cmd *cobra.Command, args []string) error {
			report := s.app.Reports.InventoryReport()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SKU\tNAME\tSTOCK\tPRICE\tVALUE")
			for _, row := range report.Rows {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", row.SKU, row.Name, row.Stock, row.Price.StringFixed(2), row.StockValue.StringFixed(2))
			}
			fmt.Fprintf(w, "\t\t%d\t\t%s\n", report.TotalUnits, report.TotalValue.StringFixed(2))
			if err := w.Flush(); err != nil {
				return err
			}
			if len(report.LowStockSKUs) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "low stock (<= %d): %v\n", report.LowStockLimit, report.LowStockSKUs)
			}
			return nil
		},
	}

	reportCmd.AddCommand(salesCmd, inventoryCmd)
	return reportCmd
}
