package swrcache

import "time"

// Entry wraps cached data with the fetch time that drives freshness checks.
type Entry[T any] struct {
	Data      T         `json:"data"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Age returns how long ago the entry was fetched. Entries with no fetch
// time, or one in the future after a clock rollback, report a negative age
// and must not be served.
func (e Entry[T]) Age(now time.Time) time.Duration {
	if e.FetchedAt.IsZero() {
		return -1
	}
	return now.Sub(e.FetchedAt)
}
