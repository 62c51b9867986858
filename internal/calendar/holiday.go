// Package calendar holds the local-date arithmetic used for scheduling: date
// keys, the Japanese national holiday set, due-date risk buckets and the
// month grid rendered by the calendar view.
package calendar

import (
	"math"
	"sort"
	"time"
)

// DateKeyLayout is the canonical YYYY-MM-DD form of a local date
const DateKeyLayout = "2006-01-02"

// ToLocalDateKey formats t as a date key in t's own location. It never
// converts to UTC, so a late-evening local time keeps its calendar date.
func ToLocalDateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// ParseDateKey parses a date key as local midnight
func ParseDateKey(key string) (time.Time, error) {
	return time.ParseInLocation(DateKeyLayout, key, time.Local)
}

// NthWeekdayOfMonth returns the nth occurrence of weekday in the month
func NthWeekdayOfMonth(year int, month time.Month, weekday time.Weekday, nth int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	offset := (int(weekday) - int(first.Weekday()) + 7) % 7
	return time.Date(year, month, 1+offset+(nth-1)*7, 0, 0, 0, 0, time.Local)
}

// VernalEquinoxDay approximates the March day of the vernal equinox.
// The formula is only accurate for a few decades around 1980-2099.
func VernalEquinoxDay(year int) int {
	return equinoxDay(20.8431, year)
}

// AutumnalEquinoxDay approximates the September day of the autumnal equinox
func AutumnalEquinoxDay(year int) int {
	return equinoxDay(23.2488, year)
}

func equinoxDay(base float64, year int) int {
	y := float64(year - 1980)
	return int(math.Floor(base + 0.242194*y - math.Floor(y/4)))
}

// Holidays is a set of date keys
type Holidays map[string]struct{}

// Has reports whether key is a holiday
func (h Holidays) Has(key string) bool {
	_, ok := h[key]
	return ok
}

// Keys returns the holiday date keys in chronological order
func (h Holidays) Keys() []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (h Holidays) add(t time.Time) {
	h[ToLocalDateKey(t)] = struct{}{}
}

// HolidaySet computes the national holidays of year: fixed dates, the
// nth-Monday holidays, both equinoxes, then one substitute-holiday pass and
// one citizens'-holiday pass, in that order.
func HolidaySet(year int) Holidays {
	h := Holidays{}
	day := func(m time.Month, d int) time.Time {
		return time.Date(year, m, d, 0, 0, 0, 0, time.Local)
	}

	h.add(day(time.January, 1))
	h.add(day(time.February, 11))
	if year >= 2020 {
		h.add(day(time.February, 23))
	}
	h.add(day(time.April, 29))
	h.add(day(time.May, 3))
	h.add(day(time.May, 4))
	h.add(day(time.May, 5))
	h.add(day(time.August, 11))
	h.add(day(time.November, 3))
	h.add(day(time.November, 23))

	h.add(NthWeekdayOfMonth(year, time.January, time.Monday, 2))   // Coming-of-Age Day
	h.add(NthWeekdayOfMonth(year, time.July, time.Monday, 3))      // Marine Day
	h.add(NthWeekdayOfMonth(year, time.September, time.Monday, 3)) // Respect-for-the-Aged Day
	h.add(NthWeekdayOfMonth(year, time.October, time.Monday, 2))   // Sports Day

	h.add(day(time.March, VernalEquinoxDay(year)))
	h.add(day(time.September, AutumnalEquinoxDay(year)))

	// Substitute holidays: a Sunday holiday moves to the next free day.
	for _, key := range h.Keys() {
		d, _ := ParseDateKey(key)
		if d.Weekday() != time.Sunday {
			continue
		}
		sub := d
		for {
			sub = sub.AddDate(0, 0, 1)
			if !h.Has(ToLocalDateKey(sub)) {
				break
			}
		}
		h.add(sub)
	}

	// Citizens' holidays: a day between two holidays becomes one.
	for cursor := day(time.January, 1); cursor.Year() == year; cursor = cursor.AddDate(0, 0, 1) {
		key := ToLocalDateKey(cursor)
		if h.Has(key) {
			continue
		}
		if h.Has(ToLocalDateKey(cursor.AddDate(0, 0, -1))) && h.Has(ToLocalDateKey(cursor.AddDate(0, 0, 1))) {
			h[key] = struct{}{}
		}
	}

	return h
}

// IsRestDay reports whether t is a Sunday or a holiday in h
func IsRestDay(t time.Time, h Holidays) bool {
	return t.Weekday() == time.Sunday || h.Has(ToLocalDateKey(t))
}
