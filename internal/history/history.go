// Package history keeps the most-recently-used project and todo names. Names
// are unique ignoring case; deleted names go to a trash with a TTL.
package history

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/existflow/taskr/internal/model"
	"github.com/existflow/taskr/internal/retention"
)

var ErrEmptyValue = errors.New("history value is empty")

// Contains reports whether list holds value, ignoring case
func Contains(list []string, value string) bool {
	for _, v := range list {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}

// Record puts value at the front of list unless it is empty or already
// present in any case
func Record(list []string, value string) []string {
	value = strings.TrimSpace(value)
	if value == "" || Contains(list, value) {
		return list
	}
	out := make([]string, 0, len(list)+1)
	out = append(out, value)
	return append(out, list...)
}

// Edit replaces the entry at index. Whitespace-only input is rejected and the
// old value kept.
func Edit(list []string, index int, value string) ([]string, error) {
	if index < 0 || index >= len(list) {
		return list, retention.ErrIndexOutOfRange
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return list, ErrEmptyValue
	}
	out := append([]string(nil), list...)
	out[index] = value
	return out, nil
}

// Delete removes the entries at indices and prepends them to trash as one
// batch in list order. Indices outside the list are ignored.
func Delete(list []string, trash []model.HistoryTrashEntry, indices []int, now time.Time) ([]string, []model.HistoryTrashEntry) {
	remove := make(map[int]bool, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(list) {
			remove[i] = true
		}
	}
	if len(remove) == 0 {
		return list, trash
	}

	order := make([]int, 0, len(remove))
	for i := range remove {
		order = append(order, i)
	}
	sort.Ints(order)

	batch := make([]model.HistoryTrashEntry, 0, len(order))
	for _, i := range order {
		batch = append(batch, model.HistoryTrashEntry{Value: list[i], DeletedAt: now})
	}
	kept := make([]string, 0, len(list)-len(remove))
	for i, v := range list {
		if !remove[i] {
			kept = append(kept, v)
		}
	}
	return kept, retention.Prepend(trash, batch...)
}

// Restore takes the trash entry at index back into list through Record, so
// it is deduplicated against the current names
func Restore(list []string, trash []model.HistoryTrashEntry, index int) ([]string, []model.HistoryTrashEntry, error) {
	entry, rest, err := retention.Restore(trash, index)
	if err != nil {
		return list, trash, err
	}
	return Record(list, entry.Value), rest, nil
}
