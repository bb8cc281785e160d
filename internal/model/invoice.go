package model

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// LineState tracks how a line item was filled in
type LineState string

const (
	LineEmpty  LineState = "empty"
	LineBound  LineState = "bound"  // filled from a catalog product
	LineEdited LineState = "edited" // bound, then changed by hand
	LineManual LineState = "manual" // typed without a catalog product
)

// Header field names accepted by the ledger builder
const (
	HeaderDate     = "date"
	HeaderCustomer = "customer"
	HeaderAddress  = "address"
	HeaderTaxID    = "taxId"
)

// Line field names accepted by the ledger builder
const (
	LineUnit        = "unit"
	LineDescription = "description"
	LineUnitPrice   = "unitPrice"
)

// DateLayout is the calendar-date format used for invoice dates
const DateLayout = "2006-01-02"

// LineItem is one row of an invoice. LineTotal is derived and only written by the builder.
type LineItem struct {
	SKU         string          `json:"sku"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
	State       LineState       `json:"state"`
}

// IsBound reports whether the line is associated with a catalog product
func (l LineItem) IsBound() bool {
	return l.SKU != ""
}

// InvoiceHeader holds the free-form header fields of an invoice
type InvoiceHeader struct {
	Date     string `json:"date"`
	Customer string `json:"customer"`
	Address  string `json:"address"`
	TaxID    string `json:"taxId"`
}

// Totals is derived from the line items and never stored on its own
type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxWithheld decimal.Decimal `json:"taxWithheld"`
	NetOfVAT    decimal.Decimal `json:"netOfVAT"`
	VATAmount   decimal.Decimal `json:"vatAmount"`
	GrandTotal  decimal.Decimal `json:"grandTotal"`
}

// InvoiceRecord is an immutable snapshot written by SaveRecord
type InvoiceRecord struct {
	ID      snowflake.ID  `json:"id" swaggertype:"string"`
	SavedAt time.Time     `json:"savedAt"`
	Header  InvoiceHeader `json:"header"`
	Items   []LineItem    `json:"items"`
	Totals  Totals        `json:"totals"`
}

// InvoicePreview is a read-only copy of the invoice being edited
type InvoicePreview struct {
	Header InvoiceHeader `json:"header"`
	Items  []LineItem    `json:"items"`
	Totals Totals        `json:"totals"`
}
