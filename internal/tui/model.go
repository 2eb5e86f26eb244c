// Package tui renders live progress for interactive renders: one table row
// per input clip that fills in as probing lands, then a spinner line while
// ffmpeg runs.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	tickInterval = 150 * time.Millisecond

	// maxClipWidth caps the CLIP column so one long filename cannot push
	// the rest of the table off screen.
	maxClipWidth = 32
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// tickMsg drives the spinner.
type tickMsg time.Time

var clipColumns = []string{"CLIP", "DURATION", "FPS", "AUDIO", "START", "STATUS"}

// clipRow holds the display fields for one input clip.
type clipRow struct {
	Key    string
	Fields map[string]string
}

// Model is the bubbletea model for the render display.
type Model struct {
	rows     []clipRow
	rowIndex map[string]int
	phase    string
	done     bool
	err      error
	tick     int
}

// NewModel seeds one pending row per clip name, in render order.
func NewModel(clips []string) Model {
	m := Model{
		rowIndex: make(map[string]int, len(clips)),
		phase:    "probing clips",
	}
	for _, name := range clips {
		m.rowIndex[name] = len(m.rows)
		m.rows = append(m.rows, clipRow{Key: name, Fields: map[string]string{
			"CLIP":   name,
			"STATUS": "pending",
		}})
	}
	return m
}

func scheduleTick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init satisfies the tea.Model interface.
func (m Model) Init() tea.Cmd {
	return scheduleTick()
}

// Update satisfies the tea.Model interface.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.tick++
		if m.done {
			return m, nil
		}
		return m, scheduleTick()

	case ClipUpdateMsg:
		if idx, ok := m.rowIndex[msg.Key]; ok {
			for name, value := range msg.Fields {
				m.rows[idx].Fields[name] = value
			}
		}
		return m, nil

	case PhaseMsg:
		m.phase = msg.Phase
		return m, nil

	case WorkDoneMsg:
		m.done = true
		return m, tea.Quit

	case ErrorMsg:
		m.err = msg.Err
		m.done = true
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// View satisfies the tea.Model interface. On a fatal error the final frame
// is empty; the caller owns printing the error exactly once.
func (m Model) View() string {
	if m.done && m.err != nil {
		return ""
	}

	widths := make([]int, len(clipColumns))
	for i, col := range clipColumns {
		widths[i] = len(col)
		for _, row := range m.rows {
			n := len(row.Fields[col])
			if col == "CLIP" && n > maxClipWidth {
				n = maxClipWidth
			}
			if n > widths[i] {
				widths[i] = n
			}
		}
	}

	var b strings.Builder

	headerParts := make([]string, len(clipColumns))
	for i, col := range clipColumns {
		headerParts[i] = HeaderStyle.Render(pad(col, widths[i]))
	}
	b.WriteString(strings.Join(headerParts, "  "))
	b.WriteByte('\n')

	for _, row := range m.rows {
		parts := make([]string, len(clipColumns))
		for i, col := range clipColumns {
			val := NonEmptyOrDash(TruncateWithEllipsis(row.Fields[col], widths[i]))
			if col == "STATUS" {
				parts[i] = StatusStyle(val).Render(pad(val, widths[i]))
			} else {
				parts[i] = pad(val, widths[i])
			}
		}
		b.WriteString(strings.Join(parts, "  "))
		b.WriteByte('\n')
	}

	if !m.done {
		spinner := spinnerFrames[m.tick%len(spinnerFrames)]
		fmt.Fprintf(&b, "\n%s %s...\n", spinner, m.phase)
	}

	return b.String()
}

// Done reports whether the model has finished (work done or error).
func (m Model) Done() bool {
	return m.done
}

// Err returns any fatal error that occurred.
func (m Model) Err() error {
	return m.err
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// NonEmptyOrDash returns "-" for empty or whitespace strings.
func NonEmptyOrDash(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	return value
}

// TruncateWithEllipsis truncates a string and adds "..." past max length.
func TruncateWithEllipsis(value string, max int) string {
	if max <= 0 {
		return ""
	}
	value = strings.TrimSpace(value)
	if len(value) <= max {
		return value
	}
	if max <= 3 {
		return value[:max]
	}
	return value[:max-3] + "..."
}
