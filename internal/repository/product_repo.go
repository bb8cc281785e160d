package repository

import (
	"context"

	"ledgerdesk/internal/model"
)

// ProductsKey is the storage key of the product catalog
const ProductsKey = "inventoryProducts"

type ProductRepository interface {
	LoadAll(ctx context.Context) ([]model.Product, error)
	SaveAll(ctx context.Context, products []model.Product) error
}

type productRepository struct {
	kv KVStore
}

func NewProductRepository(kv KVStore) ProductRepository {
	return &productRepository{kv: kv}
}

func (r *productRepository) LoadAll(ctx context.Context) ([]model.Product, error) {
	return loadArray[model.Product](ctx, r.kv, ProductsKey)
}

func (r *productRepository) SaveAll(ctx context.Context, products []model.Product) error {
	return saveArray(ctx, r.kv, ProductsKey, products)
}
