package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Terminal writes notifications as single styled lines.
type Terminal struct {
	mu     sync.Mutex
	w      io.Writer
	styles map[Level]lipgloss.Style
}

func NewTerminal(w io.Writer) *Terminal {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	return &Terminal{
		w: w,
		styles: map[Level]lipgloss.Style{
			LevelSuccess: base.Foreground(lipgloss.Color("10")),
			LevelInfo:    base.Foreground(lipgloss.Color("12")),
			LevelWarning: base.Foreground(lipgloss.Color("11")),
			LevelError:   base.Foreground(lipgloss.Color("9")),
		},
	}
}

func (t *Terminal) Notify(n Notification) {
	style, ok := t.styles[n.Level]
	if !ok {
		style = t.styles[LevelInfo]
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.w, style.Render(fmt.Sprintf("[%s]", n.Level))+" "+n.Message)
}
