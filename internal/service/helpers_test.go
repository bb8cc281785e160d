package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ledgerdesk/internal/model"
	"ledgerdesk/internal/repository"

	"github.com/bwmarrin/snowflake"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// flakyKV fails writes while failWrites is set
type flakyKV struct {
	*repository.MemoryKVStore
	failWrites bool
}

func (f *flakyKV) Put(ctx context.Context, key string, value []byte) error {
	if f.failWrites {
		return errors.New("disk full")
	}
	return f.MemoryKVStore.Put(ctx, key, value)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func product(sku string, stock int, price string) model.ProductDraft {
	return model.ProductDraft{SKU: sku, Name: "Item " + sku, Category: "pcs", Stock: stock, Price: dec(price)}
}

func newInventory(t *testing.T, kv repository.KVStore, drafts ...model.ProductDraft) InventoryService {
	t.Helper()
	inv := NewInventoryService(context.Background(), repository.NewProductRepository(kv), nil, nil, zerolog.Nop())
	for i := len(drafts) - 1; i >= 0; i-- {
		_, err := inv.AddProduct(context.Background(), drafts[i])
		require.NoError(t, err)
	}
	return inv
}

func newBuilder(t *testing.T, kv repository.KVStore, catalog Catalog) *ledgerBuilder {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	pipeline, err := NewTaxPipeline(DefaultTaxRates())
	require.NoError(t, err)

	b := NewLedgerBuilder(
		context.Background(),
		catalog,
		pipeline,
		repository.NewInvoiceRepository(kv),
		repository.NewLocalTransactionManager(),
		node,
		DefaultLineCount,
		zerolog.Nop(),
	).(*ledgerBuilder)
	b.now = func() time.Time { return time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC) }
	b.Clear()
	return b
}
