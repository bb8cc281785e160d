package repository

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

type contextKey string

const (
	txKey     contextKey = "gorm_tx"
	inLocalTx contextKey = "local_tx"
)

// TransactionManager groups several writes under one unit of work via context injection.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

type transactionManager struct {
	db *gorm.DB
}

func NewTransactionManager(db *gorm.DB) TransactionManager {
	return &transactionManager{db: db}
}

func (t *transactionManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if _, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, txKey, tx)
		return fn(txCtx)
	})
}

// GetDB extracts the transaction DB from context if present, otherwise returns root DB.
func GetDB(ctx context.Context, rootDB *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return rootDB.WithContext(ctx)
}

// localTransactionManager serialises units of work for stores without native
// transactions (file, memory). Writes inside fn are not rolled back on error.
type localTransactionManager struct {
	mu sync.Mutex
}

func NewLocalTransactionManager() TransactionManager {
	return &localTransactionManager{}
}

func (t *localTransactionManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if ctx.Value(inLocalTx) != nil {
		return fn(ctx)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(context.WithValue(ctx, inLocalTx, true))
}
