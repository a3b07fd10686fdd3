package common

import (
	"github.com/google/uuid"
)

// NewLoadID generates a correlation ID for one load of a symbol.
// Format: load_<uuid>
func NewLoadID() string {
	return "load_" + uuid.New().String()
}
