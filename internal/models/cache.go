package models

import "time"

// CacheEntry is a cached payload together with the time it was captured.
type CacheEntry[T any] struct {
	Payload    T         `json:"payload"`
	CapturedAt time.Time `json:"captured_at"`
}

// Age returns how long ago the entry was captured relative to now.
func (e CacheEntry[T]) Age(now time.Time) time.Duration {
	return now.Sub(e.CapturedAt)
}

// SearchCache maps literal query text to the results of the last successful search.
type SearchCache map[string][]SearchResult
