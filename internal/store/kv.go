// Package store persists the raw commodity price data and the combined
// pipeline output in a key-value backing store.
package store

import (
	"context"
	"errors"
)

// Well-known keys in the backing store.
const (
	KeyPriceData    = "price_data"
	KeyCombinedData = "combined_price_data"
	BackupKeyPrefix = "price_data_backup_"
)

// ErrKeyNotFound is returned by Get when the key does not exist.
var ErrKeyNotFound = errors.New("key not found")

// KeyValueStore is the persistence capability the pipeline depends on.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Del(ctx context.Context, keys ...string) error
	Keys(ctx context.Context, pattern string) ([]string, error)
	Ping(ctx context.Context) error
}
