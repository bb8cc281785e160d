package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"ledgerdesk/internal/model"
	"ledgerdesk/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Catalog is the read-and-adjust view of the inventory the ledger builder depends on.
type Catalog interface {
	ListProducts() []model.Product
	FindProduct(sku string) (model.Product, error)
	AdjustStock(ctx context.Context, sku string, delta int) (model.Product, error)
}

// InventoryService owns the product catalog.
//
// Mutations are applied in memory first and then the whole catalog is written
// back. When that write fails the returned error wraps repository.ErrPersistence
// and the returned product still reflects the applied change.
type InventoryService interface {
	Catalog
	SearchProducts(query string) []model.Product
	AddProduct(ctx context.Context, draft model.ProductDraft) (model.Product, error)
	UpdateProduct(ctx context.Context, sku string, draft model.ProductDraft) (model.Product, error)
	DeleteProduct(ctx context.Context, sku string) error
	SeedSampleCatalog(ctx context.Context) (int, error)
	StockPolicy() StockPolicy
}

type inventoryService struct {
	mu       sync.RWMutex
	products []model.Product
	repo     repository.ProductRepository
	skus     *SKUGenerator
	policy   StockPolicy
	log      zerolog.Logger
}

// NewInventoryService loads the catalog from the repository. Missing or unreadable
// content starts an empty catalog.
func NewInventoryService(
	ctx context.Context,
	repo repository.ProductRepository,
	skus *SKUGenerator,
	policy StockPolicy,
	log zerolog.Logger,
) InventoryService {
	if skus == nil {
		skus = NewSKUGenerator(DefaultSKULength, DefaultSKUMaxAttempts)
	}
	if policy == nil {
		policy = ClampNonNegative{}
	}

	products, err := repo.LoadAll(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("catalog could not be loaded, starting empty")
		products = []model.Product{}
	}
	products = dropInvalidRows(products, log)

	return &inventoryService{
		products: products,
		repo:     repo,
		skus:     skus,
		policy:   policy,
		log:      log,
	}
}

func (s *inventoryService) StockPolicy() StockPolicy {
	return s.policy
}

func (s *inventoryService) ListProducts() []model.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.products)
}

func (s *inventoryService) SearchProducts(query string) []model.Product {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return s.ListProducts()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]model.Product, 0)
	for _, p := range s.products {
		if strings.Contains(strings.ToLower(p.SKU), q) || strings.Contains(strings.ToLower(p.Name), q) {
			res = append(res, p)
		}
	}
	return res
}

func (s *inventoryService) FindProduct(sku string) (model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(sku); i >= 0 {
		return s.products[i], nil
	}
	return model.Product{}, fmt.Errorf("%w: %s", ErrNotFound, sku)
}

func (s *inventoryService) AddProduct(ctx context.Context, draft model.ProductDraft) (model.Product, error) {
	if err := validateDraft(draft); err != nil {
		return model.Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sku := strings.TrimSpace(draft.SKU)
	if sku == "" {
		generated, err := s.skus.Generate(func(candidate string) bool { return s.indexOf(candidate) >= 0 })
		if err != nil {
			return model.Product{}, err
		}
		sku = generated
	} else if s.indexOf(sku) >= 0 {
		return model.Product{}, fmt.Errorf("%w: %s", ErrDuplicateSKU, sku)
	}

	product := productFromDraft(sku, draft)
	next := make([]model.Product, 0, len(s.products)+1)
	next = append(next, product)
	next = append(next, s.products...)
	s.products = next

	s.log.Info().Str("sku", sku).Str("name", product.Name).Msg("product added")
	return product, s.persist(ctx, "add")
}

func (s *inventoryService) UpdateProduct(ctx context.Context, sku string, draft model.ProductDraft) (model.Product, error) {
	if err := validateDraft(draft); err != nil {
		return model.Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(sku)
	if i < 0 {
		return model.Product{}, fmt.Errorf("%w: %s", ErrNotFound, sku)
	}

	newSKU := strings.TrimSpace(draft.SKU)
	if newSKU == "" {
		newSKU = sku
	}
	if newSKU != sku && s.indexOf(newSKU) >= 0 {
		return model.Product{}, fmt.Errorf("%w: %s", ErrDuplicateSKU, newSKU)
	}

	product := productFromDraft(newSKU, draft)
	next := slices.Clone(s.products)
	next[i] = product
	s.products = next

	s.log.Info().Str("sku", sku).Str("new_sku", newSKU).Msg("product updated")
	return product, s.persist(ctx, "update")
}

func (s *inventoryService) DeleteProduct(ctx context.Context, sku string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(sku)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, sku)
	}
	s.products = slices.Delete(slices.Clone(s.products), i, i+1)

	s.log.Info().Str("sku", sku).Msg("product deleted")
	return s.persist(ctx, "delete")
}

func (s *inventoryService) AdjustStock(ctx context.Context, sku string, delta int) (model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(sku)
	if i < 0 {
		return model.Product{}, fmt.Errorf("%w: %s", ErrNotFound, sku)
	}

	current := s.products[i]
	stock, err := s.policy.Apply(current.Stock, delta)
	if err != nil {
		return current, fmt.Errorf("adjust stock for %s: %w", sku, err)
	}

	current.Stock = stock
	next := slices.Clone(s.products)
	next[i] = current
	s.products = next

	s.log.Debug().Str("sku", sku).Int("delta", delta).Int("stock", stock).Msg("stock adjusted")
	return current, s.persist(ctx, "adjust-stock")
}

// dropInvalidRows keeps the first valid row per SKU. Rows with an empty SKU,
// negative stock or a negative price are skipped with a warning.
func dropInvalidRows(products []model.Product, log zerolog.Logger) []model.Product {
	seen := make(map[string]bool, len(products))
	kept := make([]model.Product, 0, len(products))
	for i, p := range products {
		var reason string
		switch {
		case strings.TrimSpace(p.SKU) == "":
			reason = "empty sku"
		case p.Stock < 0:
			reason = "negative stock"
		case p.Price.IsNegative():
			reason = "negative price"
		case seen[p.SKU]:
			reason = "duplicate sku"
		}
		if reason != "" {
			log.Warn().Int("row", i).Str("sku", p.SKU).Str("reason", reason).Msg("dropping stored product")
			continue
		}
		seen[p.SKU] = true
		kept = append(kept, p)
	}
	return kept
}

// SampleCatalog is the starter catalog offered on first run
func SampleCatalog() []model.ProductDraft {
	return []model.ProductDraft{
		{SKU: "P001", Name: "Widget A", Category: "Gadgets", Stock: 120, Price: decimal.RequireFromString("9.9")},
		{SKU: "P002", Name: "Widget B", Category: "Gadgets", Stock: 45, Price: decimal.RequireFromString("14.5")},
		{SKU: "P003", Name: "Gizmo", Category: "Tools", Stock: 200, Price: decimal.RequireFromString("5.25")},
	}
}

func (s *inventoryService) SeedSampleCatalog(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.products) > 0 {
		return 0, nil
	}

	drafts := SampleCatalog()
	next := make([]model.Product, 0, len(drafts))
	for _, d := range drafts {
		next = append(next, productFromDraft(d.SKU, d))
	}
	s.products = next

	s.log.Info().Int("count", len(next)).Msg("sample catalog seeded")
	return len(next), s.persist(ctx, "seed")
}

// indexOf must be called with the lock held
func (s *inventoryService) indexOf(sku string) int {
	return slices.IndexFunc(s.products, func(p model.Product) bool { return p.SKU == sku })
}

// persist must be called with the lock held
func (s *inventoryService) persist(ctx context.Context, op string) error {
	if err := s.repo.SaveAll(ctx, s.products); err != nil {
		s.log.Warn().Err(err).Str("op", op).Msg("catalog change applied but not saved")
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func validateDraft(draft model.ProductDraft) error {
	if strings.TrimSpace(draft.Name) == "" {
		return validationError("name is required")
	}
	if draft.Stock < 0 {
		return validationError("stock must not be negative")
	}
	if draft.Price.IsNegative() {
		return validationError("price must not be negative")
	}
	return nil
}

func productFromDraft(sku string, draft model.ProductDraft) model.Product {
	return model.Product{
		SKU:      sku,
		Name:     strings.TrimSpace(draft.Name),
		Category: strings.TrimSpace(draft.Category),
		Stock:    draft.Stock,
		Price:    draft.Price,
	}
}
