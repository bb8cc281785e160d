package repository

import (
	"context"

	"ledgerdesk/internal/model"
)

// TaxRulesKey is the storage key of the tax rate history
const TaxRulesKey = "taxRules"

// TaxRuleRepository stores tax rate changes, newest first
type TaxRuleRepository interface {
	LoadAll(ctx context.Context) ([]model.TaxRule, error)
	SaveAll(ctx context.Context, rules []model.TaxRule) error
}

type taxRuleRepository struct {
	kv KVStore
}

func NewTaxRuleRepository(kv KVStore) TaxRuleRepository {
	return &taxRuleRepository{kv: kv}
}

func (r *taxRuleRepository) LoadAll(ctx context.Context) ([]model.TaxRule, error) {
	return loadArray[model.TaxRule](ctx, r.kv, TaxRulesKey)
}

func (r *taxRuleRepository) SaveAll(ctx context.Context, rules []model.TaxRule) error {
	return saveArray(ctx, r.kv, TaxRulesKey, rules)
}
