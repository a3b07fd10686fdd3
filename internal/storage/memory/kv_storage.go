// Package memory provides a process-local KeyValueStorage used for ephemeral
// runs (storage.type = "memory") and as the test substitute for Badger.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockscan/internal/interfaces"
)

// KVStorage is a mutex-guarded map implementation of KeyValueStorage.
type KVStorage struct {
	mu     sync.RWMutex
	pairs  map[string]interfaces.KeyValuePair
	logger arbor.ILogger
}

// NewKVStorage creates an empty in-memory store.
func NewKVStorage(logger arbor.ILogger) *KVStorage {
	return &KVStorage{
		pairs:  make(map[string]interfaces.KeyValuePair),
		logger: logger,
	}
}

func (s *KVStorage) Get(ctx context.Context, key string) (string, error) {
	pair, err := s.GetPair(ctx, key)
	if err != nil {
		return "", err
	}
	return pair.Value, nil
}

func (s *KVStorage) GetPair(ctx context.Context, key string) (*interfaces.KeyValuePair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pair, ok := s.pairs[key]
	if !ok {
		return nil, interfaces.ErrKeyNotFound
	}
	return &pair, nil
}

func (s *KVStorage) Set(ctx context.Context, key string, value string, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	pair := interfaces.KeyValuePair{
		Key:         key,
		Value:       value,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if existing, ok := s.pairs[key]; ok {
		pair.CreatedAt = existing.CreatedAt
	}
	s.pairs[key] = pair
	return nil
}

func (s *KVStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pairs[key]; !ok {
		return interfaces.ErrKeyNotFound
	}
	delete(s.pairs, key)
	return nil
}

func (s *KVStorage) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	count := len(s.pairs)
	s.pairs = make(map[string]interfaces.KeyValuePair)
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Info().Int("count", count).Msg("Deleted all key/value pairs")
	}
	return nil
}

// ListByPrefix returns pairs whose key starts with prefix, ordered by key.
func (s *KVStorage) ListByPrefix(ctx context.Context, prefix string) ([]interfaces.KeyValuePair, error) {
	pairs := s.snapshot(func(key string) bool { return strings.HasPrefix(key, prefix) })
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].Key < pairs[j].Key
	})
	return pairs, nil
}

func (s *KVStorage) snapshot(match func(string) bool) []interfaces.KeyValuePair {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pairs := make([]interfaces.KeyValuePair, 0, len(s.pairs))
	for k, pair := range s.pairs {
		if match(k) {
			pairs = append(pairs, pair)
		}
	}
	return pairs
}
