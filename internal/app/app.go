package app

import (
	"context"
	"fmt"

	"ledgerdesk/internal/config"
	"ledgerdesk/internal/database"
	"ledgerdesk/internal/logger"
	"ledgerdesk/internal/repository"
	"ledgerdesk/internal/service"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// App holds the wired services shared by the API server and the CLI
type App struct {
	Config    *config.Config
	Inventory service.InventoryService
	Builder   service.LedgerBuilder
	Reports   service.ReportService
	Tax       service.TaxService

	db *gorm.DB
}

// New builds the storage backend named by cfg and the services on top of it.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	kv, txManager, db, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	policy, err := service.StockPolicyByName(cfg.StockPolicy)
	if err != nil {
		return nil, err
	}
	pipeline, err := service.NewTaxPipeline(cfg.TaxRates())
	if err != nil {
		return nil, err
	}
	node, err := snowflake.NewNode(cfg.SnowflakeNode)
	if err != nil {
		return nil, fmt.Errorf("snowflake node: %w", err)
	}

	inventory := service.NewInventoryService(
		ctx,
		repository.NewProductRepository(kv),
		service.NewSKUGenerator(cfg.SKULength, cfg.SKUMaxAttempts),
		policy,
		logger.WithComponent("inventory"),
	)
	builder := service.NewLedgerBuilder(
		ctx,
		inventory,
		pipeline,
		repository.NewInvoiceRepository(kv),
		txManager,
		node,
		cfg.InvoiceLineCount,
		logger.WithComponent("ledger"),
	)

	return &App{
		Config:    cfg,
		Inventory: inventory,
		Builder:   builder,
		Reports:   service.NewReportService(inventory, builder, cfg.LowStockThreshold),
		Tax:       service.NewTaxService(ctx, repository.NewTaxRuleRepository(kv), builder, logger.WithComponent("tax")),
		db:        db,
	}, nil
}

func openStore(cfg *config.Config) (repository.KVStore, repository.TransactionManager, *gorm.DB, error) {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		db, err := database.NewConnection(cfg.DSN())
		if err != nil {
			return nil, nil, nil, fmt.Errorf("database connection failed: %w", err)
		}
		return repository.NewGormKVStore(db), repository.NewTransactionManager(db), db, nil
	case config.StorageMemory:
		return repository.NewMemoryKVStore(), repository.NewLocalTransactionManager(), nil, nil
	default:
		kv, err := repository.NewFileKVStore(cfg.DataDir)
		if err != nil {
			return nil, nil, nil, err
		}
		return kv, repository.NewLocalTransactionManager(), nil, nil
	}
}

// Close releases the database pool when one was opened
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
