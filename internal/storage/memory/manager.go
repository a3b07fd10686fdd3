package memory

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockscan/internal/interfaces"
)

// Manager implements the StorageManager interface over an in-memory store.
// Nothing survives Close.
type Manager struct {
	kv *KVStorage
}

// NewManager creates an in-memory storage manager.
func NewManager(logger arbor.ILogger) interfaces.StorageManager {
	logger.Info().Msg("In-memory storage manager initialized (data is not persisted)")
	return &Manager{kv: NewKVStorage(logger)}
}

func (m *Manager) KeyValueStorage() interfaces.KeyValueStorage {
	return m.kv
}

func (m *Manager) DB() interface{} {
	return nil
}

func (m *Manager) Compact() error {
	return nil
}

func (m *Manager) Close() error {
	return nil
}
