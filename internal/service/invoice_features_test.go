package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"

	"ledgerdesk/internal/model"
	"ledgerdesk/internal/repository"

	"github.com/bwmarrin/snowflake"
	"github.com/cucumber/godog"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type invoiceTestContext struct {
	kv      *repository.MemoryKVStore
	catalog InventoryService
	builder LedgerBuilder
	err     error
}

func (c *invoiceTestContext) reset() error {
	ctx := context.Background()
	c.kv = repository.NewMemoryKVStore()
	c.catalog = NewInventoryService(ctx, repository.NewProductRepository(c.kv), nil, nil, zerolog.Nop())

	pipeline, err := NewTaxPipeline(DefaultTaxRates())
	if err != nil {
		return err
	}
	node, err := snowflake.NewNode(7)
	if err != nil {
		return err
	}
	c.builder = NewLedgerBuilder(ctx, c.catalog, pipeline, repository.NewInvoiceRepository(c.kv),
		repository.NewLocalTransactionManager(), node, DefaultLineCount, zerolog.Nop())
	c.err = nil
	return nil
}

func (c *invoiceTestContext) theCatalogContains(table *godog.Table) error {
	// inserted in reverse so the catalog keeps the table order
	for i := len(table.Rows) - 1; i >= 1; i-- {
		cells := table.Rows[i].Cells
		stock, err := strconv.Atoi(cells[3].Value)
		if err != nil {
			return err
		}
		price, err := decimal.NewFromString(cells[4].Value)
		if err != nil {
			return err
		}
		draft := model.ProductDraft{SKU: cells[0].Value, Name: cells[1].Value, Category: cells[2].Value, Stock: stock, Price: price}
		if _, err := c.catalog.AddProduct(context.Background(), draft); err != nil {
			return err
		}
	}
	return nil
}

func (c *invoiceTestContext) iBindLineTo(line int, sku string) error {
	_, c.err = c.builder.BindLineItem(line-1, sku)
	return nil
}

func (c *invoiceTestContext) iSetTheQuantityOfLineTo(line int, qty string) error {
	q, err := decimal.NewFromString(qty)
	if err != nil {
		return err
	}
	c.err = c.builder.SetLineQuantity(line-1, q)
	return nil
}

func (c *invoiceTestContext) iSetTheDescriptionOfLineTo(line int, value string) error {
	c.err = c.builder.SetLineField(line-1, model.LineDescription, value)
	return nil
}

func (c *invoiceTestContext) iClearTheInvoice() error {
	c.builder.Clear()
	return nil
}

func (c *invoiceTestContext) iSaveTheInvoice() error {
	_, c.err = c.builder.SaveRecord(context.Background())
	return c.err
}

func (c *invoiceTestContext) refusedBecauseStockIsShort() error {
	return expectErr(c.err, ErrQuantityExceedsStock)
}

func (c *invoiceTestContext) refusedBecauseAlreadyBound() error {
	return expectErr(c.err, ErrSKUAlreadyBound)
}

func expectErr(got, want error) error {
	if !errors.Is(got, want) {
		return fmt.Errorf("expected %v, got %v", want, got)
	}
	return nil
}

func (c *invoiceTestContext) lineHasTotal(line int, want string) error {
	return sameAmount("line total", c.builder.Items()[line-1].LineTotal, want)
}

func (c *invoiceTestContext) lineHasQuantity(line int, want string) error {
	return sameAmount("quantity", c.builder.Items()[line-1].Quantity, want)
}

func (c *invoiceTestContext) lineIs(line int, state string) error {
	if got := c.builder.Items()[line-1].State; string(got) != state {
		return fmt.Errorf("line %d is %q, want %q", line, got, state)
	}
	return nil
}

func (c *invoiceTestContext) everyLineIs(state string) error {
	for i := range c.builder.Items() {
		if err := c.lineIs(i+1, state); err != nil {
			return err
		}
	}
	return nil
}

func (c *invoiceTestContext) theInvoiceHasLines(n int) error {
	if got := len(c.builder.Items()); got != n {
		return fmt.Errorf("invoice has %d lines, want %d", got, n)
	}
	return nil
}

func (c *invoiceTestContext) totalIs(pick func(model.Totals) decimal.Decimal, name string) func(string) error {
	return func(want string) error {
		return sameAmount(name, pick(c.builder.Totals()), want)
	}
}

func (c *invoiceTestContext) thereAreSavedInvoices(n int) error {
	if got := len(c.builder.ListRecords()); got != n {
		return fmt.Errorf("%d saved invoices, want %d", got, n)
	}
	return nil
}

func (c *invoiceTestContext) newestSavedHasGrandTotal(want string) error {
	records := c.builder.ListRecords()
	if len(records) == 0 {
		return errors.New("no saved invoices")
	}
	return sameAmount("grand total", records[0].Totals.GrandTotal, want)
}

func sameAmount(name string, got decimal.Decimal, want string) error {
	w, err := decimal.NewFromString(want)
	if err != nil {
		return err
	}
	if !got.Equal(w) {
		return fmt.Errorf("%s is %s, want %s", name, got.StringFixed(2), w.StringFixed(2))
	}
	return nil
}

func InitializeInvoiceScenario(ctx *godog.ScenarioContext) {
	tc := &invoiceTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		return ctx, tc.reset()
	})

	// Given / When
	ctx.Step(`^the catalog contains:$`, tc.theCatalogContains)
	ctx.Step(`^I bind line (\d+) to "([^"]*)"$`, tc.iBindLineTo)
	ctx.Step(`^I set the quantity of line (\d+) to ([0-9.]+)$`, tc.iSetTheQuantityOfLineTo)
	ctx.Step(`^I set the description of line (\d+) to "([^"]*)"$`, tc.iSetTheDescriptionOfLineTo)
	ctx.Step(`^I clear the invoice$`, tc.iClearTheInvoice)
	ctx.Step(`^I save the invoice$`, tc.iSaveTheInvoice)

	// Then
	ctx.Step(`^the change is refused because stock is short$`, tc.refusedBecauseStockIsShort)
	ctx.Step(`^the change is refused because the product is already on the invoice$`, tc.refusedBecauseAlreadyBound)
	ctx.Step(`^line (\d+) has total ([0-9.]+)$`, tc.lineHasTotal)
	ctx.Step(`^line (\d+) has quantity ([0-9.]+)$`, tc.lineHasQuantity)
	ctx.Step(`^line (\d+) is "([^"]*)"$`, tc.lineIs)
	ctx.Step(`^every line is "([^"]*)"$`, tc.everyLineIs)
	ctx.Step(`^the invoice has (\d+) lines$`, tc.theInvoiceHasLines)
	ctx.Step(`^the subtotal is ([0-9.]+)$`, tc.totalIs(func(t model.Totals) decimal.Decimal { return t.Subtotal }, "subtotal"))
	ctx.Step(`^the tax withheld is ([0-9.]+)$`, tc.totalIs(func(t model.Totals) decimal.Decimal { return t.TaxWithheld }, "tax withheld"))
	ctx.Step(`^the net of VAT is ([0-9.]+)$`, tc.totalIs(func(t model.Totals) decimal.Decimal { return t.NetOfVAT }, "net of VAT"))
	ctx.Step(`^the VAT amount is ([0-9.]+)$`, tc.totalIs(func(t model.Totals) decimal.Decimal { return t.VATAmount }, "VAT amount"))
	ctx.Step(`^the grand total is ([0-9.]+)$`, tc.totalIs(func(t model.Totals) decimal.Decimal { return t.GrandTotal }, "grand total"))
	ctx.Step(`^there are (\d+) saved invoices$`, tc.thereAreSavedInvoices)
	ctx.Step(`^the newest saved invoice has grand total ([0-9.]+)$`, tc.newestSavedHasGrandTotal)
}

func TestInvoiceFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeInvoiceScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"../../features/invoice.feature"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
