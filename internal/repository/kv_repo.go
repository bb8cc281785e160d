package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ledgerdesk/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrKeyNotFound is returned by KVStore.Get when nothing is stored under the key
var ErrKeyNotFound = errors.New("key not found")

// KVStore is the durable key-value collaborator. Values are opaque JSON blobs.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

type gormKVStore struct {
	db *gorm.DB
}

// NewGormKVStore stores entries in the kv_entries table
func NewGormKVStore(db *gorm.DB) KVStore {
	return &gormKVStore{db: db}
}

func (s *gormKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	var entry model.KVEntry
	if err := GetDB(ctx, s.db).First(&entry, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return []byte(entry.Value), nil
}

func (s *gormKVStore) Put(ctx context.Context, key string, value []byte) error {
	entry := model.KVEntry{Key: key, Value: string(value), UpdatedAt: time.Now()}
	err := GetDB(ctx, s.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}
