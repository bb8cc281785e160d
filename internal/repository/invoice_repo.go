package repository

import (
	"context"

	"ledgerdesk/internal/model"
)

// InvoicesKey is the storage key of the saved invoice records, newest first
const InvoicesKey = "savedInvoices"

type InvoiceRepository interface {
	LoadAll(ctx context.Context) ([]model.InvoiceRecord, error)
	SaveAll(ctx context.Context, records []model.InvoiceRecord) error
}

type invoiceRepository struct {
	kv KVStore
}

func NewInvoiceRepository(kv KVStore) InvoiceRepository {
	return &invoiceRepository{kv: kv}
}

func (r *invoiceRepository) LoadAll(ctx context.Context) ([]model.InvoiceRecord, error) {
	return loadArray[model.InvoiceRecord](ctx, r.kv, InvoicesKey)
}

func (r *invoiceRepository) SaveAll(ctx context.Context, records []model.InvoiceRecord) error {
	return saveArray(ctx, r.kv, InvoicesKey, records)
}
