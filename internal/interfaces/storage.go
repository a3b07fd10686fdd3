// -----------------------------------------------------------------------
// Last Modified: Tuesday, 13th October 2026 10:41:27 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package interfaces

// StorageManager owns the storage backend lifecycle and exposes the
// key/value capability to the services that persist through it.
type StorageManager interface {
	KeyValueStorage() KeyValueStorage
	// DB returns the underlying store handle (nil for in-memory backends)
	DB() interface{}
	// Compact reclaims space left by overwritten cache entries
	Compact() error
	Close() error
}
