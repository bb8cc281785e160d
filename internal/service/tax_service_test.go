package service

import (
	"context"
	"testing"

	"ledgerdesk/internal/model"
	"ledgerdesk/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertTotals(t *testing.T, got model.Totals, subtotal, withheld, net, vat, grand string) {
	t.Helper()
	assert.Equal(t, subtotal, got.Subtotal.StringFixed(2), "subtotal")
	assert.Equal(t, withheld, got.TaxWithheld.StringFixed(2), "tax withheld")
	assert.Equal(t, net, got.NetOfVAT.StringFixed(2), "net of VAT")
	assert.Equal(t, vat, got.VATAmount.StringFixed(2), "VAT")
	assert.Equal(t, grand, got.GrandTotal.StringFixed(2), "grand total")
}

func TestWithholdingThenVAT(t *testing.T) {
	p, err := NewTaxPipeline(DefaultTaxRates())
	require.NoError(t, err)
	assert.Equal(t, model.TaxFormulaWithholdingThenVAT, p.Name())

	assertTotals(t, p.Compute(dec("30")), "30.00", "3.60", "26.40", "3.17", "29.57")
	assertTotals(t, p.Compute(decimal.Zero), "0.00", "0.00", "0.00", "0.00", "0.00")
	assertTotals(t, p.Compute(dec("1234.56")), "1234.56", "148.15", "1086.41", "130.37", "1216.78")
}

func TestWithholdingThenVATIsDeterministic(t *testing.T) {
	p, err := NewTaxPipeline(DefaultTaxRates())
	require.NoError(t, err)

	first := p.Compute(dec("987.65"))
	for i := 0; i < 10; i++ {
		assert.True(t, p.Compute(dec("987.65")).GrandTotal.Equal(first.GrandTotal))
	}
}

func TestEmbeddedVAT(t *testing.T) {
	rates := DefaultTaxRates()
	rates.Formula = model.TaxFormulaEmbeddedVAT
	p, err := NewTaxPipeline(rates)
	require.NoError(t, err)

	assertTotals(t, p.Compute(dec("30")), "30.00", "3.60", "26.79", "3.21", "33.60")
}

func TestEmbeddedVATRoundsNetOnce(t *testing.T) {
	// 0.01 / 2.0000000016 is 0.004999999996, which a pre-rounding to 8 places
	// would lift to 0.005 and then to 0.01.
	p, err := NewTaxPipeline(model.TaxRates{
		Formula:         model.TaxFormulaEmbeddedVAT,
		WithholdingRate: decimal.Zero,
		VATRate:         dec("1.0000000016"),
	})
	require.NoError(t, err)

	assertTotals(t, p.Compute(dec("0.01")), "0.01", "0.00", "0.00", "0.01", "0.01")
}

func TestNewTaxPipelineRejectsBadConfig(t *testing.T) {
	rates := DefaultTaxRates()
	rates.Formula = "flat"
	_, err := NewTaxPipeline(rates)
	assert.Error(t, err)

	rates = DefaultTaxRates()
	rates.VATRate = dec("-0.01")
	_, err = NewTaxPipeline(rates)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLineTotalRoundsHalfAwayFromZero(t *testing.T) {
	cases := []struct {
		qty, price, want string
	}{
		{"3", "10.00", "30.00"},
		{"1", "0.125", "0.13"},
		{"0.5", "0.25", "0.13"},
		{"2.5", "1.99", "4.98"},
		{"1", "-0.125", "-0.13"},
	}
	for _, tc := range cases {
		got := LineTotal(dec(tc.qty), dec(tc.price))
		assert.Equal(t, tc.want, got.StringFixed(2), "%s x %s", tc.qty, tc.price)
	}
}

func TestComputeTotalsSumsLineTotals(t *testing.T) {
	p, err := NewTaxPipeline(DefaultTaxRates())
	require.NoError(t, err)

	items := EmptyItems(3)
	items[0].LineTotal = dec("10.005")
	items[2].LineTotal = dec("4.50")

	totals := ComputeTotals(items, p)
	assert.Equal(t, "14.505", totals.Subtotal.String())
}

func TestTaxServiceAppliesAndRestoresRates(t *testing.T) {
	ctx := context.Background()
	kv := repository.NewMemoryKVStore()
	inv := newInventory(t, kv)
	b := newBuilder(t, kv, inv)
	require.NoError(t, b.SetLineField(0, model.LineUnitPrice, "30"))
	require.NoError(t, b.SetLineQuantity(0, dec("1")))

	taxes := NewTaxService(ctx, repository.NewTaxRuleRepository(kv), b, zerolog.Nop())
	assert.Empty(t, taxes.History())

	rates := DefaultTaxRates()
	rates.Formula = model.TaxFormulaEmbeddedVAT
	totals, err := taxes.Apply(ctx, rates)
	require.NoError(t, err)
	assertTotals(t, totals, "30.00", "3.60", "26.79", "3.21", "33.60")
	require.Len(t, taxes.History(), 1)

	_, err = taxes.Apply(ctx, model.TaxRates{Formula: "flat"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, model.TaxFormulaEmbeddedVAT, taxes.Current().Formula)

	fresh := newBuilder(t, kv, inv)
	assert.Equal(t, model.TaxFormulaWithholdingThenVAT, fresh.TaxPipeline().Name())
	NewTaxService(ctx, repository.NewTaxRuleRepository(kv), fresh, zerolog.Nop())
	assert.Equal(t, model.TaxFormulaEmbeddedVAT, fresh.TaxPipeline().Name())
}
