package model

import "github.com/shopspring/decimal"

// SalesReportRow summarises one saved invoice
type SalesReportRow struct {
	ID         string          `json:"id"`
	Date       string          `json:"date"`
	Customer   string          `json:"customer"`
	GrandTotal decimal.Decimal `json:"grandTotal"`
}

// SalesReport aggregates saved invoices dated within a range
type SalesReport struct {
	From             string           `json:"from"`
	To               string           `json:"to"`
	InvoiceCount     int              `json:"invoiceCount"`
	TotalSubtotal    decimal.Decimal  `json:"totalSubtotal"`
	TotalTaxWithheld decimal.Decimal  `json:"totalTaxWithheld"`
	TotalVAT         decimal.Decimal  `json:"totalVAT"`
	TotalGrand       decimal.Decimal  `json:"totalGrand"`
	Rows             []SalesReportRow `json:"rows"`
}

// InventoryReportRow is one product line of the stock report
type InventoryReportRow struct {
	SKU        string          `json:"sku"`
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	Stock      int             `json:"stock"`
	Price      decimal.Decimal `json:"price"`
	StockValue decimal.Decimal `json:"stockValue"`
}

// InventoryReport lists current stock and its value
type InventoryReport struct {
	TotalUnits    int                  `json:"totalUnits"`
	TotalValue    decimal.Decimal      `json:"totalValue"`
	LowStockLimit int                  `json:"lowStockLimit"`
	LowStockSKUs  []string             `json:"lowStockSKUs"`
	Rows          []InventoryReportRow `json:"rows"`
}
