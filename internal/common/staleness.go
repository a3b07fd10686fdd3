package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultFreshnessWindow is how long a cached dataset is served without refetching.
const DefaultFreshnessWindow = 24 * time.Hour

// StalenessResult contains the result of a staleness check.
type StalenessResult struct {
	// IsStale indicates whether the cached data is stale and needs refresh.
	IsStale bool
	// NextCheckTime is when a fresh entry will become stale.
	NextCheckTime time.Time
	// Reason provides a human-readable explanation for the staleness decision.
	Reason string
}

// CheckStaleness decides whether data captured at capturedAt is stale at now
// for the given freshness window. An entry is fresh while now-capturedAt is
// strictly less than the window; a zero capture time is always stale.
func CheckStaleness(capturedAt, now time.Time, window time.Duration) StalenessResult {
	if capturedAt.IsZero() {
		return StalenessResult{
			IsStale: true,
			Reason:  "no capture timestamp, assuming stale",
		}
	}
	if window <= 0 {
		window = DefaultFreshnessWindow
	}

	age := now.Sub(capturedAt)
	expiresAt := capturedAt.Add(window)

	if age < window {
		return StalenessResult{
			IsStale:       false,
			NextCheckTime: expiresAt,
			Reason: fmt.Sprintf("captured %s ago, fresh until %s",
				age.Truncate(time.Second), expiresAt.UTC().Format("2006-01-02 15:04:05 MST")),
		}
	}

	return StalenessResult{
		IsStale: true,
		Reason: fmt.Sprintf("captured %s ago, older than %s window",
			age.Truncate(time.Second), window),
	}
}

// IsFresh is shorthand for !CheckStaleness(...).IsStale.
func IsFresh(capturedAt, now time.Time, window time.Duration) bool {
	return !CheckStaleness(capturedAt, now, window).IsStale
}

// EpochMillis formats t as the epoch-millisecond string used for persisted timestamps.
func EpochMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// ParseEpochMillis parses an epoch-millisecond string.
func ParseEpochMillis(s string) (time.Time, bool) {
	ms, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}
