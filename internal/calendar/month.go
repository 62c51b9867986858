package calendar

import (
	"fmt"
	"time"

	"github.com/existflow/taskr/internal/model"
)

// Day is one cell of a month grid
type Day struct {
	Date     time.Time    `json:"-"`
	Key      string       `json:"date"`
	Weekday  string       `json:"weekday"`
	Holiday  bool         `json:"holiday"`
	Saturday bool         `json:"saturday"`
	Tasks    []model.Task `json:"tasks"`
}

// MonthGrid is a Monday-first calendar page
type MonthGrid struct {
	Year    int        `json:"year"`
	Month   time.Month `json:"month"`
	Title   string     `json:"title"`
	Leading int        `json:"leading"` // blank cells before the 1st
	Days    []Day      `json:"days"`
}

// Month builds the grid for year/month and places every active task due on
// each day into its cell.
func Month(year int, month time.Month, tasks []model.Task) MonthGrid {
	holidays := HolidaySet(year)
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	last := first.AddDate(0, 1, -1)

	byDate := map[string][]model.Task{}
	for _, t := range tasks {
		if t.Done || t.DueDate == "" {
			continue
		}
		byDate[t.DueDate] = append(byDate[t.DueDate], t)
	}

	g := MonthGrid{
		Year:    year,
		Month:   month,
		Title:   fmt.Sprintf("%d年/ %d月", year, int(month)),
		Leading: (int(first.Weekday()) + 6) % 7,
	}
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		key := ToLocalDateKey(d)
		g.Days = append(g.Days, Day{
			Date:     d,
			Key:      key,
			Weekday:  WeekdayKanji(d.Weekday()),
			Holiday:  IsRestDay(d, holidays),
			Saturday: d.Weekday() == time.Saturday,
			Tasks:    byDate[key],
		})
	}
	return g
}

// ShiftMonth moves year/month by delta months, wrapping across years
func ShiftMonth(year int, month time.Month, delta int) (int, time.Month) {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.Local).AddDate(0, delta, 0)
	return t.Year(), t.Month()
}
