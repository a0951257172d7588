package styles

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Calendar renders one month of the detection history: detection days in
// the alert color, today highlighted, other days muted.

const calendarCellWidth = 4

// RenderCalendar renders the given month. visited holds ISO dates
// (YYYY-MM-DD) of detection days; today is the current ISO date.
func RenderCalendar(theme *Theme, month time.Time, visited map[string]bool, today string) string {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()

	var b strings.Builder

	b.WriteString(theme.Subtitle.Render(first.Format("January 2006")))
	b.WriteString("\n")

	for _, wd := range []string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"} {
		b.WriteString(theme.Subtle.Render(pad(wd)))
	}
	b.WriteString("\n")

	// Leading blanks up to the first weekday.
	col := int(first.Weekday())
	b.WriteString(strings.Repeat(pad(""), col))

	for day := 1; day <= daysInMonth; day++ {
		iso := fmt.Sprintf("%04d-%02d-%02d", first.Year(), int(first.Month()), day)
		label := fmt.Sprintf("%2d", day)

		var style lipgloss.Style
		switch {
		case visited[iso] && iso == today:
			style = theme.BadgeAlert.Bold(true)
		case visited[iso]:
			style = theme.ErrorStyle
		case iso == today:
			style = theme.Highlight
		default:
			style = theme.Normal
		}
		b.WriteString(pad(style.Render(label)))

		col++
		if col == 7 {
			b.WriteString("\n")
			col = 0
		}
	}
	if col != 0 {
		b.WriteString("\n")
	}

	return b.String()
}

func pad(s string) string {
	width := lipgloss.Width(s)
	if width >= calendarCellWidth {
		return s
	}
	return s + strings.Repeat(" ", calendarCellWidth-width)
}
