package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tax formula names
const (
	TaxFormulaWithholdingThenVAT = "withholding-then-vat"
	TaxFormulaEmbeddedVAT        = "embedded-vat"
)

// TaxRates stores the rates and the formula used to derive invoice totals
type TaxRates struct {
	Formula         string          `json:"formula"`
	WithholdingRate decimal.Decimal `json:"withholdingRate" swaggertype:"string"` // e.g. 0.12 = 12%
	VATRate         decimal.Decimal `json:"vatRate" swaggertype:"string"`
}

// TaxRule records a rate change; the newest rule is the one in force
type TaxRule struct {
	TaxRates
	EffectiveFrom time.Time `json:"effectiveFrom"`
}
