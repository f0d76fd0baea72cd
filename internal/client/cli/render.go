package cli

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/smartkraft/lebensspur/internal/client/display"
	"github.com/smartkraft/lebensspur/internal/client/models"
)

const barWidth = 24

var tierColors = map[display.Tier]lipgloss.Color{
	display.TierNormal:  lipgloss.Color("10"),
	display.TierWarning: lipgloss.Color("11"),
	display.TierDanger:  lipgloss.Color("9"),
}

// renderStatus draws the timer card: state, remaining time, ring fraction as
// a bar and the vacation and session lines. A zero since omits the login time.
func renderStatus(d display.Display, v models.SessionView, since time.Time) string {
	color := tierColors[d.Tier]
	label := lipgloss.NewStyle().Bold(true).Foreground(color).Render(d.Label)

	lines := []string{
		label,
		lipgloss.NewStyle().Bold(true).Render(d.Clock()),
		lipgloss.NewStyle().Foreground(color).Render(progressBar(d.Fraction, barWidth)),
	}
	if d.VacationActive {
		lines = append(lines, fmt.Sprintf("Vacation: %d days", d.VacationDays))
	}
	if d.Running {
		lines = append(lines, "Type 'pause' to pause")
	} else if d.State == models.StatePaused {
		lines = append(lines, "Type 'pause' to resume")
	}
	lines = append(lines, fmt.Sprintf("Auto-logout: %d min", v.AutoLogoutMinutes))
	if !since.IsZero() {
		lines = append(lines, "Logged in since "+since.Format(time.DateTime))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

func progressBar(fraction float64, width int) string {
	filled := int(math.Round(fraction * float64(width)))
	filled = max(0, min(width, filled))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func renderAudit(entries []models.AuditEntry, loc *time.Location) string {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s  %-16s %s", e.Time.In(loc).Format(time.DateTime), e.Type, e.Text)
		if e.Detail != "" {
			fmt.Fprintf(&b, " (%s)", e.Detail)
		}
	}
	return b.String()
}
