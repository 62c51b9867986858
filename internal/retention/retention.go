// Package retention implements soft delete with time-bounded recovery: trash
// lists ordered most-recent-first, TTL purge, positional restore and the
// single timer that evicts entries the moment they expire.
package retention

import (
	"errors"
	"time"
)

// TTLs for the two trash classes
const (
	HistoryTTL = 5 * time.Minute
	DoneTTL    = 5 * time.Minute
)

var ErrIndexOutOfRange = errors.New("trash index out of range")

// Entry is anything that remembers when it was soft-deleted
type Entry interface {
	Deleted() time.Time
}

// Prepend adds a batch of freshly deleted entries in front of trash, keeping
// the batch's own order.
func Prepend[E any](trash []E, batch ...E) []E {
	out := make([]E, 0, len(batch)+len(trash))
	out = append(out, batch...)
	return append(out, trash...)
}

// Expired reports whether e has outlived ttl at now
func Expired[E Entry](e E, ttl time.Duration, now time.Time) bool {
	return now.Sub(e.Deleted()) >= ttl
}

// Purge returns the entries still inside their TTL
func Purge[E Entry](trash []E, ttl time.Duration, now time.Time) []E {
	out := make([]E, 0, len(trash))
	for _, e := range trash {
		if !Expired(e, ttl, now) {
			out = append(out, e)
		}
	}
	return out
}

// Restore removes the entry at index and returns it with the remaining list
func Restore[E any](trash []E, index int) (E, []E, error) {
	var zero E
	if index < 0 || index >= len(trash) {
		return zero, trash, ErrIndexOutOfRange
	}
	e := trash[index]
	out := make([]E, 0, len(trash)-1)
	out = append(out, trash[:index]...)
	out = append(out, trash[index+1:]...)
	return e, out, nil
}

// NextExpiry returns the earliest moment any entry of trash expires
func NextExpiry[E Entry](trash []E, ttl time.Duration) (time.Time, bool) {
	var next time.Time
	found := false
	for _, e := range trash {
		at := e.Deleted().Add(ttl)
		if !found || at.Before(next) {
			next = at
			found = true
		}
	}
	return next, found
}

// Earliest picks the minimum of several optional deadlines
func Earliest(deadlines ...time.Time) (time.Time, bool) {
	var next time.Time
	found := false
	for _, d := range deadlines {
		if d.IsZero() {
			continue
		}
		if !found || d.Before(next) {
			next = d
			found = true
		}
	}
	return next, found
}
