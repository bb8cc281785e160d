package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"ledgerdesk/internal/model"
	"ledgerdesk/internal/repository"

	"github.com/bwmarrin/snowflake"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultLineCount is the number of blank lines in a fresh invoice
const DefaultLineCount = 15

// LedgerBuilder edits a single invoice: header, a fixed template of line items,
// and the totals derived from them. Saved records are kept newest first.
type LedgerBuilder interface {
	Header() model.InvoiceHeader
	Items() []model.LineItem
	Totals() model.Totals
	LineCount() int

	SetHeaderField(field, value string) error
	BindLineItem(index int, sku string) (bool, error)
	SetLineQuantity(index int, quantity decimal.Decimal) error
	SetLineField(index int, field, value string) error
	BoundSKUs() []string
	SelectableProducts(index int) ([]model.Product, error)

	TaxPipeline() TaxPipeline
	SetTaxPipeline(p TaxPipeline)

	OpenPreview() model.InvoicePreview
	Clear()
	SaveRecord(ctx context.Context) (model.InvoiceRecord, error)
	ListRecords() []model.InvoiceRecord
	DeductStock(ctx context.Context) ([]model.Product, error)
}

type ledgerBuilder struct {
	mu        sync.Mutex
	catalog   Catalog
	pipeline  TaxPipeline
	repo      repository.InvoiceRepository
	txManager repository.TransactionManager
	ids       *snowflake.Node
	lineCount int
	now       func() time.Time
	log       zerolog.Logger

	header  model.InvoiceHeader
	items   []model.LineItem
	totals  model.Totals
	records []model.InvoiceRecord
}

func NewLedgerBuilder(
	ctx context.Context,
	catalog Catalog,
	pipeline TaxPipeline,
	repo repository.InvoiceRepository,
	txManager repository.TransactionManager,
	ids *snowflake.Node,
	lineCount int,
	log zerolog.Logger,
) LedgerBuilder {
	if lineCount <= 0 {
		lineCount = DefaultLineCount
	}

	records, err := repo.LoadAll(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("saved invoices could not be loaded, starting empty")
		records = []model.InvoiceRecord{}
	}

	b := &ledgerBuilder{
		catalog:   catalog,
		pipeline:  pipeline,
		repo:      repo,
		txManager: txManager,
		ids:       ids,
		lineCount: lineCount,
		now:       time.Now,
		log:       log,
		records:   records,
	}
	b.reset()
	return b
}

// EmptyItems returns count blank line items
func EmptyItems(count int) []model.LineItem {
	items := make([]model.LineItem, count)
	for i := range items {
		items[i] = model.LineItem{
			Quantity:  decimal.Zero,
			UnitPrice: decimal.Zero,
			LineTotal: decimal.Zero,
			State:     model.LineEmpty,
		}
	}
	return items
}

func (b *ledgerBuilder) reset() {
	b.header = model.InvoiceHeader{Date: b.now().Format(model.DateLayout)}
	b.items = EmptyItems(b.lineCount)
	b.totals = ComputeTotals(b.items, b.pipeline)
}

func (b *ledgerBuilder) Header() model.InvoiceHeader {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.header
}

func (b *ledgerBuilder) Items() []model.LineItem {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.items)
}

func (b *ledgerBuilder) Totals() model.Totals {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.totals
}

func (b *ledgerBuilder) LineCount() int {
	return b.lineCount
}

func (b *ledgerBuilder) SetHeaderField(field, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch field {
	case model.HeaderDate:
		if _, err := time.Parse(model.DateLayout, value); err != nil {
			return validationError("date must be YYYY-MM-DD: %q", value)
		}
		b.header.Date = value
	case model.HeaderCustomer:
		b.header.Customer = value
	case model.HeaderAddress:
		b.header.Address = value
	case model.HeaderTaxID:
		b.header.TaxID = value
	default:
		return validationError("unknown header field %q", field)
	}
	return nil
}

func (b *ledgerBuilder) BindLineItem(index int, sku string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.checkIndex(index); err != nil {
		return false, err
	}

	product, err := b.catalog.FindProduct(sku)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	for i, it := range b.items {
		if i != index && it.SKU == product.SKU {
			return false, fmt.Errorf("%w: %s is on line %d", ErrSKUAlreadyBound, product.SKU, i+1)
		}
	}

	line := b.items[index]
	line.SKU = product.SKU
	line.Description = product.Name
	line.Unit = product.Category
	line.UnitPrice = product.Price
	line.State = model.LineBound
	b.replaceLine(index, line)
	return true, nil
}

func (b *ledgerBuilder) SetLineQuantity(index int, quantity decimal.Decimal) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.checkIndex(index); err != nil {
		return err
	}
	if quantity.IsNegative() {
		return validationError("quantity must not be negative")
	}

	line := b.items[index]
	if line.IsBound() {
		product, err := b.catalog.FindProduct(line.SKU)
		switch {
		case err == nil:
			if quantity.GreaterThan(decimal.NewFromInt(int64(product.Stock))) {
				return &QuantityExceedsStockError{SKU: line.SKU, Requested: quantity, Available: product.Stock}
			}
		case errors.Is(err, ErrNotFound):
			// product deleted after binding; nothing left to bound against
		default:
			return err
		}
	}

	line.Quantity = quantity
	b.replaceLine(index, touched(line))
	return nil
}

func (b *ledgerBuilder) SetLineField(index int, field, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.checkIndex(index); err != nil {
		return err
	}

	line := b.items[index]
	switch field {
	case model.LineUnit:
		line.Unit = value
	case model.LineDescription:
		line.Description = value
	case model.LineUnitPrice:
		price, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return validationError("unit price must be a number: %q", value)
		}
		if price.IsNegative() {
			return validationError("unit price must not be negative")
		}
		line.UnitPrice = price
	default:
		return validationError("unknown line field %q", field)
	}

	b.replaceLine(index, touched(line))
	return nil
}

func (b *ledgerBuilder) BoundSKUs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.boundSKUs(-1)
}

// SelectableProducts lists catalog products not bound on any line other than index.
func (b *ledgerBuilder) SelectableProducts(index int) ([]model.Product, error) {
	b.mu.Lock()
	bound := b.boundSKUs(index)
	err := b.checkIndex(index)
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}

	products := b.catalog.ListProducts()
	return slices.DeleteFunc(products, func(p model.Product) bool {
		return slices.Contains(bound, p.SKU)
	}), nil
}

func (b *ledgerBuilder) TaxPipeline() TaxPipeline {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pipeline
}

func (b *ledgerBuilder) SetTaxPipeline(p TaxPipeline) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pipeline = p
	b.totals = ComputeTotals(b.items, b.pipeline)
}

func (b *ledgerBuilder) OpenPreview() model.InvoicePreview {
	b.mu.Lock()
	defer b.mu.Unlock()
	return model.InvoicePreview{
		Header: b.header,
		Items:  slices.Clone(b.items),
		Totals: b.totals,
	}
}

func (b *ledgerBuilder) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reset()
}

func (b *ledgerBuilder) SaveRecord(ctx context.Context) (model.InvoiceRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	record := model.InvoiceRecord{
		ID:      b.ids.Generate(),
		SavedAt: b.now().UTC(),
		Header:  b.header,
		Items:   slices.Clone(b.items),
		Totals:  b.totals,
	}

	next := make([]model.InvoiceRecord, 0, len(b.records)+1)
	next = append(next, record)
	next = append(next, b.records...)
	b.records = next

	b.log.Info().
		Str("invoice_id", record.ID.String()).
		Str("customer", record.Header.Customer).
		Str("grand_total", record.Totals.GrandTotal.StringFixed(2)).
		Msg("invoice saved")

	if err := b.repo.SaveAll(ctx, b.records); err != nil {
		b.log.Warn().Err(err).Str("invoice_id", record.ID.String()).Msg("invoice kept in memory but not saved")
		return record, fmt.Errorf("save invoice: %w", err)
	}
	return record, nil
}

func (b *ledgerBuilder) ListRecords() []model.InvoiceRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.records)
}

// DeductStock takes the quantity of every bound line out of the catalog.
// Fractional quantities are rounded up. All lines are checked against current
// stock before any adjustment is applied.
func (b *ledgerBuilder) DeductStock(ctx context.Context) ([]model.Product, error) {
	b.mu.Lock()
	lines := make([]model.LineItem, 0)
	for _, it := range b.items {
		if it.IsBound() && it.Quantity.IsPositive() {
			lines = append(lines, it)
		}
	}
	b.mu.Unlock()

	// The pre-check runs outside the transaction, so a concurrent edit can
	// still fail an adjustment below. Adjustments already applied in memory are
	// then reverted before the transaction rolls back.
	for _, line := range lines {
		product, err := b.catalog.FindProduct(line.SKU)
		if err != nil {
			return nil, err
		}
		if line.Quantity.GreaterThan(decimal.NewFromInt(int64(product.Stock))) {
			return nil, &QuantityExceedsStockError{SKU: line.SKU, Requested: line.Quantity, Available: product.Stock}
		}
	}

	var (
		updated    []model.Product
		applied    []stockChange
		persistErr error
	)
	err := b.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for _, line := range lines {
			before, err := b.catalog.FindProduct(line.SKU)
			if err != nil {
				b.revertStock(txCtx, applied)
				return err
			}
			delta := -int(line.Quantity.Ceil().IntPart())
			product, err := b.catalog.AdjustStock(txCtx, line.SKU, delta)
			if err != nil && !errors.Is(err, repository.ErrPersistence) {
				b.revertStock(txCtx, applied)
				return err
			}
			if err != nil && persistErr == nil {
				persistErr = err
			}
			applied = append(applied, stockChange{sku: line.SKU, delta: product.Stock - before.Stock})
			updated = append(updated, product)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("deduct stock: %w", err)
	}

	b.log.Info().Int("lines", len(updated)).Msg("stock deducted for invoice")
	return updated, persistErr
}

type stockChange struct {
	sku   string
	delta int
}

// revertStock undoes applied stock changes in reverse order. Write failures are
// ignored; the surrounding transaction is about to roll back.
func (b *ledgerBuilder) revertStock(ctx context.Context, applied []stockChange) {
	for i := len(applied) - 1; i >= 0; i-- {
		c := applied[i]
		if c.delta == 0 {
			continue
		}
		if _, err := b.catalog.AdjustStock(ctx, c.sku, -c.delta); err != nil && !errors.Is(err, repository.ErrPersistence) {
			b.log.Error().Err(err).Str("sku", c.sku).Int("delta", -c.delta).Msg("stock revert failed")
		}
	}
}

// boundSKUs must be called with the lock held; the line at skip is ignored
func (b *ledgerBuilder) boundSKUs(skip int) []string {
	skus := make([]string, 0)
	for i, it := range b.items {
		if i != skip && it.IsBound() {
			skus = append(skus, it.SKU)
		}
	}
	return skus
}

func (b *ledgerBuilder) checkIndex(index int) error {
	if index < 0 || index >= len(b.items) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrLineIndex, index, len(b.items))
	}
	return nil
}

// replaceLine stores line at index with a fresh line total and re-folds the totals
func (b *ledgerBuilder) replaceLine(index int, line model.LineItem) {
	line.LineTotal = LineTotal(line.Quantity, line.UnitPrice)
	next := slices.Clone(b.items)
	next[index] = line
	b.items = next
	b.totals = ComputeTotals(b.items, b.pipeline)
}

// touched moves a line to the state it reaches after a manual edit
func touched(line model.LineItem) model.LineItem {
	switch line.State {
	case model.LineBound:
		line.State = model.LineEdited
	case model.LineEmpty, "":
		if line.IsBound() {
			line.State = model.LineEdited
		} else {
			line.State = model.LineManual
		}
	}
	return line
}
