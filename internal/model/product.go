package model

import "github.com/shopspring/decimal"

// Product represents an item in the inventory catalog
type Product struct {
	SKU      string          `json:"sku"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Stock    int             `json:"stock"`
	Price    decimal.Decimal `json:"price"`
}

// ProductDraft is the caller-supplied shape for add and full-replace edits.
// An empty SKU asks the store to generate one.
type ProductDraft struct {
	SKU      string          `json:"sku"`
	Name     string          `json:"name" binding:"required"`
	Category string          `json:"category"`
	Stock    int             `json:"stock" binding:"min=0"`
	Price    decimal.Decimal `json:"price" swaggertype:"string" example:"9.99"`
}

// StockValue is stock multiplied by the unit price, rounded to cents.
func (p Product) StockValue() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.Stock))).Round(2)
}
