// Package credentials stores the single Alpha Vantage API key.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockscan/internal/interfaces"
)

const (
	// APIKeyKey is the fixed KV key holding the Alpha Vantage API key.
	APIKeyKey = "alphaVantageApiKey"

	apiKeyDescription = "Alpha Vantage API key"
)

// EnvVars are checked in order before the KV store.
var EnvVars = []string{"STOCKSCAN_ALPHAVANTAGE_API_KEY", "ALPHA_VANTAGE_API_KEY"}

// Source identifies where a resolved key came from.
type Source string

const (
	SourceNone   Source = "none"
	SourceEnv    Source = "env"
	SourceStore  Source = "store"
	SourceConfig Source = "config"
)

// Service resolves the API key: environment, then KV store, then config file.
type Service struct {
	storage   interfaces.KeyValueStorage
	fallback  string
	lookupEnv func(string) (string, bool)
	logger    arbor.ILogger
}

// NewService creates a credential store. fallback is the config-file key.
func NewService(storage interfaces.KeyValueStorage, fallback string, logger arbor.ILogger) *Service {
	return &Service{
		storage:   storage,
		fallback:  strings.TrimSpace(fallback),
		lookupEnv: os.LookupEnv,
		logger:    logger,
	}
}

// APIKey returns the configured key or interfaces.ErrNoCredential.
func (s *Service) APIKey(ctx context.Context) (string, error) {
	key, _, err := s.Resolve(ctx)
	return key, err
}

// Resolve returns the key together with where it was found.
func (s *Service) Resolve(ctx context.Context) (string, Source, error) {
	for _, name := range EnvVars {
		if v, ok := s.lookupEnv(name); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), SourceEnv, nil
		}
	}

	value, err := s.storage.Get(ctx, APIKeyKey)
	switch {
	case err == nil && strings.TrimSpace(value) != "":
		return strings.TrimSpace(value), SourceStore, nil
	case err != nil && !errors.Is(err, interfaces.ErrKeyNotFound):
		s.logger.Warn().Err(err).Str("key", APIKeyKey).Msg("Failed to read stored API key")
	}

	if s.fallback != "" {
		return s.fallback, SourceConfig, nil
	}

	return "", SourceNone, interfaces.ErrNoCredential
}

// SetAPIKey persists key under the fixed credential key.
func (s *Service) SetAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("API key cannot be empty")
	}

	if err := s.storage.Set(ctx, APIKeyKey, key, apiKeyDescription); err != nil {
		s.logger.Error().Err(err).Str("key", APIKeyKey).Msg("Failed to store API key")
		return err
	}

	s.logger.Info().Str("key", APIKeyKey).Msg("Stored API key")
	return nil
}

// ClearAPIKey removes the stored key. Clearing an absent key is not an error.
func (s *Service) ClearAPIKey(ctx context.Context) error {
	err := s.storage.Delete(ctx, APIKeyKey)
	if err != nil && !errors.Is(err, interfaces.ErrKeyNotFound) {
		s.logger.Error().Err(err).Str("key", APIKeyKey).Msg("Failed to delete API key")
		return err
	}

	s.logger.Info().Str("key", APIKeyKey).Msg("Cleared API key")
	return nil
}

// Mask hides all but the last four characters of a key for display.
func Mask(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
