package calendar

import (
	"fmt"
	"time"
)

// Risk classes used to colour due-date labels
const (
	RiskNormal = "risk-normal"
	RiskUrgent = "risk-urgent"
	RiskSoon   = "risk-soon"
	RiskPast   = "risk-past"
)

// Undecided is shown for tasks without a due date
const Undecided = "未定"

// TimeLayout is the HH:MM form of a due time
const TimeLayout = "15:04"

var weekdayKanji = [7]string{"日", "月", "火", "水", "木", "金", "土"}

// WeekdayKanji returns the one-character Japanese weekday name
func WeekdayKanji(d time.Weekday) string {
	return weekdayKanji[d]
}

// Risk is a due-date label and its display class
type Risk struct {
	Text  string `json:"text"`
	Class string `json:"class"`
}

// dayNumber counts calendar days so DST transitions never shift a difference
func dayNumber(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// DiffDays returns the whole-day difference between target's date and the
// date of now; negative means the target is in the past.
func DiffDays(now, target time.Time) int {
	return int(dayNumber(target) - dayNumber(now))
}

// RiskLabel buckets a due date relative to now
func RiskLabel(dueDate string, now time.Time) Risk {
	if dueDate == "" {
		return Risk{Text: Undecided, Class: RiskNormal}
	}
	target, err := ParseDateKey(dueDate)
	if err != nil {
		return Risk{Text: Undecided, Class: RiskNormal}
	}

	days := DiffDays(now, target)
	switch {
	case days == 0:
		return Risk{Text: "今日", Class: RiskUrgent}
	case days == 1:
		return Risk{Text: "明日", Class: RiskSoon}
	case days == 2:
		return Risk{Text: "明後日", Class: RiskSoon}
	case days > 2:
		return Risk{Text: fmt.Sprintf("%d日後", days), Class: RiskNormal}
	default:
		return Risk{Text: fmt.Sprintf("%d日前", -days), Class: RiskPast}
	}
}

// ValidTime reports whether s is a well-formed HH:MM due time
func ValidTime(s string) bool {
	_, err := time.Parse(TimeLayout, s)
	return err == nil && len(s) == 5
}

// FormatDate renders a due date as YY/MM/DD(曜), followed by the due time
// when one is set.
func FormatDate(dueDate, dueTime string) string {
	if dueDate == "" {
		return Undecided
	}
	d, err := ParseDateKey(dueDate)
	if err != nil {
		return dueDate
	}
	s := fmt.Sprintf("%02d/%02d/%02d(%s)", d.Year()%100, int(d.Month()), d.Day(), WeekdayKanji(d.Weekday()))
	if dueTime != "" {
		s += " " + dueTime
	}
	return s
}

// DueAt resolves a due date and optional time to a local instant
func DueAt(dueDate, dueTime string) (time.Time, bool) {
	d, err := ParseDateKey(dueDate)
	if err != nil {
		return time.Time{}, false
	}
	if dueTime != "" {
		if hm, err := time.Parse(TimeLayout, dueTime); err == nil {
			d = d.Add(time.Duration(hm.Hour())*time.Hour + time.Duration(hm.Minute())*time.Minute)
		}
	}
	return d, true
}

// RemindText renders the time left until the due moment as "{d}日 {h}時 {m}分",
// clamped at zero once it has passed.
func RemindText(dueDate, dueTime string, now time.Time) string {
	if dueDate == "" {
		return "-"
	}
	target, ok := DueAt(dueDate, dueTime)
	if !ok {
		return "-"
	}
	left := target.Sub(now)
	if left < 0 {
		left = 0
	}
	days := int(left / (24 * time.Hour))
	hours := int(left % (24 * time.Hour) / time.Hour)
	mins := int(left % time.Hour / time.Minute)
	return fmt.Sprintf("%d日 %d時 %d分", days, hours, mins)
}
