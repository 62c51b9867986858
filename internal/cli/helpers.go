package cli

import (
	"bufio"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/existflow/taskr/internal/attachment"
	"github.com/existflow/taskr/internal/calendar"
	"github.com/existflow/taskr/internal/model"
	"golang.org/x/term"
)

// now is the CLI's notion of the current time
var now = time.Now

// shortID trims an id for display; commands accept any unique prefix
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// termWidth returns the stdout width, or 100 when it is not a terminal
func termWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 100
}

// truncate shortens s to at most n runes
func truncate(s string, n int) string {
	if n <= 1 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

// confirm asks a yes/no question on an interactive stdin. Without a terminal
// the answer is no, so scripts must pass --force.
func confirm(question string) bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false
	}
	fmt.Printf("%s (y/N): ", question)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.EqualFold(strings.TrimSpace(line), "y")
}

// readUploads loads files from disk. The MIME type comes from the extension,
// falling back to content sniffing.
func readUploads(paths []string) ([]attachment.Upload, error) {
	files := make([]attachment.Upload, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		typ := mime.TypeByExtension(strings.ToLower(filepath.Ext(p)))
		if typ == "" {
			typ = http.DetectContentType(data)
		}
		if i := strings.Index(typ, ";"); i >= 0 {
			typ = typ[:i]
		}
		files = append(files, attachment.NewUpload(filepath.Base(p), typ, data))
	}
	return files, nil
}

// parseType maps a --type flag to a task type
func parseType(s string) (model.TaskType, error) {
	switch strings.ToLower(s) {
	case "", "w", "work":
		return model.TypeWork, nil
	case "p", "private":
		return model.TypePrivate, nil
	}
	return "", fmt.Errorf("unknown task type %q (want work or private)", s)
}

// parseDue validates a due date flag; "today" and "tomorrow" are accepted
func parseDue(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "today":
		return calendar.ToLocalDateKey(now()), nil
	case "tomorrow":
		return calendar.ToLocalDateKey(now().AddDate(0, 0, 1)), nil
	}
	if _, err := calendar.ParseDateKey(s); err != nil {
		return "", fmt.Errorf("invalid due date %q (want YYYY-MM-DD)", s)
	}
	return s, nil
}

func parseTime(s string) (string, error) {
	if s == "" || calendar.ValidTime(s) {
		return s, nil
	}
	return "", fmt.Errorf("invalid due time %q (want HH:MM)", s)
}

func printTask(t model.Task, width int) {
	icon := "[ ]"
	if t.Done {
		icon = "[x]"
	}
	risk := calendar.RiskLabel(t.DueDate, now())
	due := calendar.FormatDate(t.DueDate, t.DueTime)

	label := t.Todo
	if t.Project != "" {
		label = t.Project + " / " + t.Todo
	}
	clip := " "
	if len(t.Attachments) > 0 {
		clip = "📎"
	}
	room := width - 48
	if room < 16 {
		room = 16
	}
	fmt.Printf("  %s %s %-8s %s  %-18s %-8s %s\n",
		icon, t.Type.Badge(), shortID(t.ID), clip, due, risk.Text, truncate(label, room))
}
