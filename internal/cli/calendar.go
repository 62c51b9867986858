package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/existflow/taskr/internal/app"
	"github.com/existflow/taskr/internal/calendar"
	"github.com/spf13/cobra"
)

var holidaysCmd = &cobra.Command{
	Use:   "holidays [year]",
	Short: "List Japanese national holidays of a year",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHolidays,
}

var calendarCmd = &cobra.Command{
	Use:     "calendar [year month]",
	Aliases: []string{"cal"},
	Short:   "Show a month with its holidays and due tasks",
	Long: `Show a Monday-first month grid. Rest days are marked with *, and the
number of active tasks due on a day follows it in brackets.

With --ics, write every active dated task as an iCalendar file instead.

Examples:
  taskr calendar
  taskr calendar 2025 5
  taskr calendar --ics tasks.ics`,
	Args: cobra.RangeArgs(0, 2),
	RunE: runCalendar,
}

var calendarICS string

func init() {
	calendarCmd.Flags().StringVar(&calendarICS, "ics", "", "Write an iCalendar export to this file (- for stdout)")
}

func runHolidays(cmd *cobra.Command, args []string) error {
	year := now().Year()
	if len(args) == 1 {
		y, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid year %q", args[0])
		}
		year = y
	}
	for _, key := range calendar.HolidaySet(year).Keys() {
		d, _ := calendar.ParseDateKey(key)
		fmt.Printf("  %s (%s)\n", key, calendar.WeekdayKanji(d.Weekday()))
	}
	return nil
}

func runCalendar(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer closeApp(a)

	if calendarICS != "" {
		ics := calendar.BuildICS(a.Tasks.All(), a.Now())
		if calendarICS == "-" {
			fmt.Print(ics)
			return nil
		}
		if err := os.WriteFile(calendarICS, []byte(ics), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", calendarICS, err)
		}
		fmt.Printf("✓ Wrote %s\n", calendarICS)
		return nil
	}

	switch len(args) {
	case 1:
		return fmt.Errorf("give both year and month")
	case 2:
		year, err1 := strconv.Atoi(args[0])
		month, err2 := strconv.Atoi(args[1])
		if err1 != nil || err2 != nil || month < 1 || month > 12 {
			return fmt.Errorf("invalid year/month %s %s", args[0], args[1])
		}
		if _, err := a.UpdateView(cmd.Context(), func(v *app.ViewState) {
			v.CalendarYear, v.CalendarMonth = year, time.Month(month)
		}); err != nil {
			return err
		}
	}

	printMonth(a.Month(), calendar.ToLocalDateKey(a.Now()))
	return nil
}

func printMonth(g calendar.MonthGrid, today string) {
	fmt.Printf("\n  %s\n", g.Title)
	fmt.Println("   月     火     水     木     金     土     日")

	cells := make([]string, 0, g.Leading+len(g.Days))
	for i := 0; i < g.Leading; i++ {
		cells = append(cells, "       ")
	}
	for _, d := range g.Days {
		mark := " "
		switch {
		case d.Key == today:
			mark = ">"
		case d.Holiday:
			mark = "*"
		case d.Saturday:
			mark = "+"
		}
		count := "   "
		if n := len(d.Tasks); n > 0 {
			count = fmt.Sprintf("[%d]", min(n, 9))
		}
		cells = append(cells, fmt.Sprintf("%s%2d%s ", mark, d.Date.Day(), count))
	}
	for i := 0; i < len(cells); i += 7 {
		end := min(i+7, len(cells))
		fmt.Println("  " + strings.Join(cells[i:end], ""))
	}
	fmt.Println()
}
