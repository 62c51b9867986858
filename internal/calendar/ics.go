package calendar

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/existflow/taskr/internal/model"
)

const (
	icsDateLayout = "20060102"
	// content lines longer than this many octets are folded
	icsLineLimit = 75
)

// BuildICS exports every active, dated task as an iCalendar event. Tasks
// with a due time become one-hour events; the rest are all-day.
func BuildICS(tasks []model.Task, now time.Time) string {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//taskr//Task Export//JA",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
	}
	stamp := now.UTC().Format("20060102T150405Z")

	for _, t := range tasks {
		if t.Done || t.DueDate == "" {
			continue
		}
		due, ok := DueAt(t.DueDate, t.DueTime)
		if !ok {
			continue
		}

		summary := strings.TrimSpace(t.Project)
		if todo := strings.TrimSpace(t.Todo); todo != "" {
			if summary != "" {
				summary += " / "
			}
			summary += todo
		}

		lines = append(lines,
			"BEGIN:VEVENT",
			"UID:"+escapeICSText(fmt.Sprintf("task-%s@taskr", t.ID)),
			"DTSTAMP:"+stamp,
			"SUMMARY:"+escapeICSText(summary),
		)
		if t.DueTime != "" {
			lines = append(lines,
				"DTSTART:"+due.Format("20060102T150405"),
				"DTEND:"+due.Add(time.Hour).Format("20060102T150405"),
			)
		} else {
			lines = append(lines,
				"DTSTART;VALUE=DATE:"+due.Format(icsDateLayout),
				"DTEND;VALUE=DATE:"+due.AddDate(0, 0, 1).Format(icsDateLayout),
			)
		}
		if note := strings.TrimSpace(t.Note); note != "" {
			lines = append(lines, "DESCRIPTION:"+escapeICSText(note))
		}
		lines = append(lines, "CATEGORIES:"+strings.ToUpper(string(t.Type)), "END:VEVENT")
	}

	lines = append(lines, "END:VCALENDAR")
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(foldICSLine(l))
		b.WriteString("\r\n")
	}
	return b.String()
}

// foldICSLine splits line into chunks of at most icsLineLimit octets,
// continuation chunks led by a single space. Multi-byte characters are
// never split.
func foldICSLine(line string) string {
	if len(line) <= icsLineLimit {
		return line
	}
	var b strings.Builder
	limit := icsLineLimit
	width := 0
	for _, r := range line {
		n := utf8.RuneLen(r)
		if n < 0 {
			n = len(string(utf8.RuneError))
		}
		if width+n > limit {
			b.WriteString("\r\n ")
			width = 0
			limit = icsLineLimit - 1
		}
		b.WriteRune(r)
		width += n
	}
	return b.String()
}

func escapeICSText(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		";", `\;`,
		",", `\,`,
		"\r\n", `\n`,
		"\n", `\n`,
	)
	return r.Replace(s)
}
