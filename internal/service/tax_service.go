package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"ledgerdesk/internal/model"
	"ledgerdesk/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// TaxPipeline derives invoice totals from a subtotal.
type TaxPipeline interface {
	Name() string
	Rates() model.TaxRates
	Compute(subtotal decimal.Decimal) model.Totals
}

// round2 rounds half away from zero to cents
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// withholdingThenVAT deducts withholding from the subtotal, then adds VAT on the remainder:
//
//	ewTax      = round2(subtotal * ewRate)
//	netOfVAT   = round2(subtotal - ewTax)
//	vatAmount  = round2(netOfVAT * vatRate)
//	grandTotal = round2(netOfVAT + vatAmount)
type withholdingThenVAT struct {
	ewRate  decimal.Decimal
	vatRate decimal.Decimal
}

func (p withholdingThenVAT) Name() string { return model.TaxFormulaWithholdingThenVAT }

func (p withholdingThenVAT) Rates() model.TaxRates {
	return model.TaxRates{Formula: p.Name(), WithholdingRate: p.ewRate, VATRate: p.vatRate}
}

func (p withholdingThenVAT) Compute(subtotal decimal.Decimal) model.Totals {
	ewTax := round2(subtotal.Mul(p.ewRate))
	net := round2(subtotal.Sub(ewTax))
	vat := round2(net.Mul(p.vatRate))
	return model.Totals{
		Subtotal:    subtotal,
		TaxWithheld: ewTax,
		NetOfVAT:    net,
		VATAmount:   vat,
		GrandTotal:  round2(net.Add(vat)),
	}
}

// embeddedVAT treats the subtotal as VAT-inclusive and adds withholding on top:
//
//	ewTax      = round2(subtotal * ewRate)
//	netOfVAT   = round2(subtotal / (1 + vatRate))
//	vatAmount  = round2(subtotal - netOfVAT)
//	grandTotal = round2(subtotal + ewTax)
type embeddedVAT struct {
	ewRate  decimal.Decimal
	vatRate decimal.Decimal
}

func (p embeddedVAT) Name() string { return model.TaxFormulaEmbeddedVAT }

func (p embeddedVAT) Rates() model.TaxRates {
	return model.TaxRates{Formula: p.Name(), WithholdingRate: p.ewRate, VATRate: p.vatRate}
}

func (p embeddedVAT) Compute(subtotal decimal.Decimal) model.Totals {
	ewTax := round2(subtotal.Mul(p.ewRate))
	net := round2(subtotal.Div(decimal.NewFromInt(1).Add(p.vatRate)))
	return model.Totals{
		Subtotal:    subtotal,
		TaxWithheld: ewTax,
		NetOfVAT:    net,
		VATAmount:   round2(subtotal.Sub(net)),
		GrandTotal:  round2(subtotal.Add(ewTax)),
	}
}

// NewTaxPipeline builds the named formula with the given rates.
func NewTaxPipeline(rates model.TaxRates) (TaxPipeline, error) {
	if rates.WithholdingRate.IsNegative() || rates.VATRate.IsNegative() {
		return nil, fmt.Errorf("%w: tax rates must not be negative", ErrValidation)
	}
	switch rates.Formula {
	case "", model.TaxFormulaWithholdingThenVAT:
		return withholdingThenVAT{ewRate: rates.WithholdingRate, vatRate: rates.VATRate}, nil
	case model.TaxFormulaEmbeddedVAT:
		return embeddedVAT{ewRate: rates.WithholdingRate, vatRate: rates.VATRate}, nil
	default:
		return nil, fmt.Errorf("%w: unknown tax formula %q", ErrValidation, rates.Formula)
	}
}

// DefaultTaxRates is the canonical pipeline at 12% withholding and 12% VAT.
func DefaultTaxRates() model.TaxRates {
	return model.TaxRates{
		Formula:         model.TaxFormulaWithholdingThenVAT,
		WithholdingRate: decimal.RequireFromString("0.12"),
		VATRate:         decimal.RequireFromString("0.12"),
	}
}

// ComputeTotals folds all line totals into a subtotal and applies the pipeline.
// The subtotal is not rounded further.
func ComputeTotals(items []model.LineItem, pipeline TaxPipeline) model.Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.LineTotal)
	}
	return pipeline.Compute(subtotal)
}

// LineTotal is quantity times unit price rounded to cents.
func LineTotal(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return round2(quantity.Mul(unitPrice))
}

// TaxService changes the rates applied to the invoice and keeps their history.
type TaxService interface {
	Current() model.TaxRates
	History() []model.TaxRule
	Apply(ctx context.Context, rates model.TaxRates) (model.Totals, error)
}

type taxService struct {
	mu      sync.Mutex
	repo    repository.TaxRuleRepository
	builder LedgerBuilder
	rules   []model.TaxRule
	now     func() time.Time
	log     zerolog.Logger
}

// NewTaxService loads the stored history. When a rule is stored it replaces the
// builder's configured pipeline.
func NewTaxService(ctx context.Context, repo repository.TaxRuleRepository, builder LedgerBuilder, log zerolog.Logger) TaxService {
	rules, err := repo.LoadAll(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("tax history could not be loaded, keeping configured rates")
		rules = []model.TaxRule{}
	}

	s := &taxService{repo: repo, builder: builder, rules: rules, now: time.Now, log: log}
	if len(rules) > 0 {
		pipeline, err := NewTaxPipeline(rules[0].TaxRates)
		if err != nil {
			log.Warn().Err(err).Msg("stored tax rule ignored")
		} else {
			builder.SetTaxPipeline(pipeline)
		}
	}
	return s
}

func (s *taxService) Current() model.TaxRates {
	return s.builder.TaxPipeline().Rates()
}

func (s *taxService) History() []model.TaxRule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.rules)
}

// Apply swaps the pipeline, recomputes the invoice and records the change.
func (s *taxService) Apply(ctx context.Context, rates model.TaxRates) (model.Totals, error) {
	pipeline, err := NewTaxPipeline(rates)
	if err != nil {
		return model.Totals{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.builder.SetTaxPipeline(pipeline)
	rule := model.TaxRule{TaxRates: pipeline.Rates(), EffectiveFrom: s.now().UTC()}
	s.rules = append([]model.TaxRule{rule}, s.rules...)

	s.log.Info().
		Str("formula", rule.Formula).
		Str("withholding_rate", rule.WithholdingRate.String()).
		Str("vat_rate", rule.VATRate.String()).
		Msg("tax rates changed")

	totals := s.builder.Totals()
	if err := s.repo.SaveAll(ctx, s.rules); err != nil {
		s.log.Warn().Err(err).Msg("tax change applied but not saved")
		return totals, fmt.Errorf("save tax rule: %w", err)
	}
	return totals, nil
}
