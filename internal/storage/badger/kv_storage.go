// -----------------------------------------------------------------------
// Last Modified: Friday, 16th October 2026 4:20:51 pm
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package badger

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockscan/internal/interfaces"
	"github.com/timshannon/badgerhold/v4"
)

// KVStorage implements the KeyValueStorage interface for Badger.
// Keys are stored exactly as given. Every operation honours ctx cancellation
// before touching the store.
type KVStorage struct {
	db     *Connection
	logger arbor.ILogger
}

// NewKVStorage creates a new KVStorage instance
func NewKVStorage(db *Connection, logger arbor.ILogger) interfaces.KeyValueStorage {
	return &KVStorage{
		db:     db,
		logger: logger,
	}
}

// Get retrieves a value by key
func (s *KVStorage) Get(ctx context.Context, key string) (string, error) {
	pair, err := s.GetPair(ctx, key)
	if err != nil {
		return "", err
	}
	return pair.Value, nil
}

// GetPair retrieves a full KeyValuePair by key
func (s *KVStorage) GetPair(ctx context.Context, key string) (*interfaces.KeyValuePair, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var pair interfaces.KeyValuePair
	err := s.db.Store().Get(key, &pair)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, interfaces.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key/value pair: %w", err)
	}

	return &pair, nil
}

// Set inserts or updates a key/value pair
func (s *KVStorage) Set(ctx context.Context, key string, value string, description string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := time.Now()

	pair := interfaces.KeyValuePair{
		Key:         key,
		Value:       value,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Check if exists to preserve CreatedAt
	var existing interfaces.KeyValuePair
	err := s.db.Store().Get(key, &existing)
	if err == nil {
		pair.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("failed to check key existence: %w", err)
	}

	if err := s.db.Store().Upsert(key, &pair); err != nil {
		return fmt.Errorf("failed to set key/value: %w", err)
	}

	return nil
}

// Delete removes a key/value pair
func (s *KVStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Store().Delete(key, &interfaces.KeyValuePair{})
	if errors.Is(err, badgerhold.ErrNotFound) {
		return interfaces.ErrKeyNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}

// DeleteAll removes all key/value pairs from storage
func (s *KVStorage) DeleteAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	count, err := s.db.Store().Count(&interfaces.KeyValuePair{}, nil)
	if err != nil {
		return fmt.Errorf("failed to count key/value pairs: %w", err)
	}
	if err := s.db.Store().DeleteMatching(&interfaces.KeyValuePair{}, nil); err != nil {
		return fmt.Errorf("failed to delete key/value pairs: %w", err)
	}

	s.logger.Info().Int("count", int(count)).Msg("Deleted all key/value pairs")
	return nil
}

// ListByPrefix returns all key/value pairs whose key starts with prefix, ordered by key
func (s *KVStorage) ListByPrefix(ctx context.Context, prefix string) ([]interfaces.KeyValuePair, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pattern := regexp.MustCompile("^" + regexp.QuoteMeta(prefix))

	var pairs []interfaces.KeyValuePair
	err := s.db.Store().Find(&pairs, badgerhold.Where("Key").RegExp(pattern).SortBy("Key"))
	if err != nil {
		return nil, fmt.Errorf("failed to list key/value pairs by prefix: %w", err)
	}
	return pairs, nil
}
