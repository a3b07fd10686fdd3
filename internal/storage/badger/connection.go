package badger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockscan/internal/common"
	"github.com/timshannon/badgerhold/v4"
)

// gcDiscardRatio is the share of a value-log file that must be garbage
// before a GC pass rewrites it.
const gcDiscardRatio = 0.5

// Connection owns the badgerhold store backing the key/value storage.
type Connection struct {
	store  *badgerhold.Store
	logger arbor.ILogger
	config *common.BadgerConfig
}

// Open opens (or creates) the database described by config.
func Open(logger arbor.ILogger, config *common.BadgerConfig) (*Connection, error) {
	if !config.InMemory {
		if config.Path == "" {
			return nil, fmt.Errorf("badger path is required")
		}
		if err := prepareDir(logger, config); err != nil {
			return nil, err
		}
	}

	logger.Debug().
		Str("path", config.Path).
		Bool("in_memory", config.InMemory).
		Msg("Opening Badger database")

	store, err := badgerhold.Open(openOptions(config))
	if err != nil {
		logger.Error().Err(err).Str("path", config.Path).Msg("Failed to open Badger database")
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	return &Connection{
		store:  store,
		logger: logger,
		config: config,
	}, nil
}

// prepareDir applies reset_on_startup and makes sure the directory exists.
func prepareDir(logger arbor.ILogger, config *common.BadgerConfig) error {
	if config.ResetOnStartup {
		if _, err := os.Stat(config.Path); err == nil {
			logger.Info().Str("path", config.Path).Msg("Deleting existing database (reset_on_startup=true)")
			if err := os.RemoveAll(config.Path); err != nil {
				logger.Warn().Err(err).Str("path", config.Path).Msg("Failed to delete database directory")
			}
		}
	}

	if err := os.MkdirAll(filepath.Clean(config.Path), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	return nil
}

func openOptions(config *common.BadgerConfig) badgerhold.Options {
	options := badgerhold.DefaultOptions
	options.Logger = nil // arbor handles logging
	options.SyncWrites = config.SyncWrites

	if config.InMemory {
		options.InMemory = true
		options.Dir = ""
		options.ValueDir = ""
		return options
	}

	options.Dir = config.Path
	options.ValueDir = config.Path
	return options
}

// Store returns the underlying badgerhold store
func (c *Connection) Store() *badgerhold.Store {
	return c.store
}

// RunGC runs one value-log garbage collection pass. Having nothing to
// rewrite is not an error.
func (c *Connection) RunGC() error {
	if c.store == nil || c.config.InMemory {
		return nil
	}

	err := c.store.Badger().RunValueLogGC(gcDiscardRatio)
	if err != nil {
		if errors.Is(err, badgerdb.ErrNoRewrite) {
			c.logger.Debug().Msg("Value-log GC found nothing to rewrite")
			return nil
		}
		return fmt.Errorf("value-log gc failed: %w", err)
	}

	c.logger.Debug().Str("path", c.config.Path).Msg("Value-log GC pass completed")
	return nil
}

// Close closes the database, running a GC pass first when configured.
func (c *Connection) Close() error {
	if c.store == nil {
		return nil
	}
	if c.config.GCOnClose {
		if err := c.RunGC(); err != nil {
			c.logger.Warn().Err(err).Msg("Value-log GC before close failed")
		}
	}
	return c.store.Close()
}
