package service

import (
	"fmt"
	"time"

	"ledgerdesk/internal/model"

	"github.com/shopspring/decimal"
)

type ReportService interface {
	SalesReport(from, to time.Time) (model.SalesReport, error)
	InventoryReport() model.InventoryReport
}

// RecordSource lists saved invoices, newest first
type RecordSource interface {
	ListRecords() []model.InvoiceRecord
}

type reportService struct {
	catalog       Catalog
	records       RecordSource
	lowStockLimit int
}

func NewReportService(catalog Catalog, records RecordSource, lowStockLimit int) ReportService {
	return &reportService{catalog: catalog, records: records, lowStockLimit: lowStockLimit}
}

// SalesReport aggregates saved invoices whose header date falls in [from, to].
// Records with an unparseable date are skipped.
func (s *reportService) SalesReport(from, to time.Time) (model.SalesReport, error) {
	from, to = truncateDay(from), truncateDay(to)
	if to.Before(from) {
		return model.SalesReport{}, fmt.Errorf("%w: report range ends before it starts", ErrValidation)
	}

	report := model.SalesReport{
		From:             from.Format(model.DateLayout),
		To:               to.Format(model.DateLayout),
		TotalSubtotal:    decimal.Zero,
		TotalTaxWithheld: decimal.Zero,
		TotalVAT:         decimal.Zero,
		TotalGrand:       decimal.Zero,
		Rows:             []model.SalesReportRow{},
	}

	for _, rec := range s.records.ListRecords() {
		date, err := time.Parse(model.DateLayout, rec.Header.Date)
		if err != nil || date.Before(from) || date.After(to) {
			continue
		}
		report.InvoiceCount++
		report.TotalSubtotal = report.TotalSubtotal.Add(rec.Totals.Subtotal)
		report.TotalTaxWithheld = report.TotalTaxWithheld.Add(rec.Totals.TaxWithheld)
		report.TotalVAT = report.TotalVAT.Add(rec.Totals.VATAmount)
		report.TotalGrand = report.TotalGrand.Add(rec.Totals.GrandTotal)
		report.Rows = append(report.Rows, model.SalesReportRow{
			ID:         rec.ID.String(),
			Date:       rec.Header.Date,
			Customer:   rec.Header.Customer,
			GrandTotal: rec.Totals.GrandTotal,
		})
	}

	return report, nil
}

func (s *reportService) InventoryReport() model.InventoryReport {
	products := s.catalog.ListProducts()
	report := model.InventoryReport{
		TotalValue:    decimal.Zero,
		LowStockLimit: s.lowStockLimit,
		LowStockSKUs:  []string{},
		Rows:          make([]model.InventoryReportRow, 0, len(products)),
	}

	for _, p := range products {
		value := p.StockValue()
		report.TotalUnits += p.Stock
		report.TotalValue = report.TotalValue.Add(value)
		if p.Stock <= s.lowStockLimit {
			report.LowStockSKUs = append(report.LowStockSKUs, p.SKU)
		}
		report.Rows = append(report.Rows, model.InventoryReportRow{
			SKU:        p.SKU,
			Name:       p.Name,
			Category:   p.Category,
			Stock:      p.Stock,
			Price:      p.Price,
			StockValue: value,
		})
	}

	return report
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
