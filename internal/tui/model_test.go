package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"sidestack/internal/media"
	"sidestack/internal/timeline"
)

func TestClipUpdateMsg(t *testing.T) {
	m := NewModel([]string{"cam-a.mp4", "cam-b.mp4"})

	updated, _ := m.Update(ClipUpdateMsg{
		Key:    "cam-a.mp4",
		Fields: map[string]string{"DURATION": "12.50s", "STATUS": "probed"},
	})
	m = updated.(Model)

	if m.rows[0].Fields["DURATION"] != "12.50s" {
		t.Errorf("DURATION = %q, want 12.50s", m.rows[0].Fields["DURATION"])
	}
	if m.rows[0].Fields["STATUS"] != "probed" {
		t.Errorf("STATUS = %q, want probed", m.rows[0].Fields["STATUS"])
	}
	if m.rows[1].Fields["STATUS"] != "pending" {
		t.Errorf("second row STATUS = %q, want pending", m.rows[1].Fields["STATUS"])
	}
}

func TestClipUpdateMsgUnknownKey(t *testing.T) {
	m := NewModel([]string{"cam-a.mp4"})

	updated, _ := m.Update(ClipUpdateMsg{
		Key:    "nope.mp4",
		Fields: map[string]string{"STATUS": "probed"},
	})
	m = updated.(Model)

	if m.rows[0].Fields["STATUS"] != "pending" {
		t.Errorf("STATUS = %q, want pending", m.rows[0].Fields["STATUS"])
	}
}

func TestWorkDoneMsg(t *testing.T) {
	m := NewModel([]string{"cam-a.mp4"})

	updated, cmd := m.Update(WorkDoneMsg{})
	m = updated.(Model)

	if !m.Done() {
		t.Error("expected Done() after WorkDoneMsg")
	}
	if cmd == nil {
		t.Error("expected tea.Quit command")
	}
}

func TestErrorMsgClearsView(t *testing.T) {
	m := NewModel([]string{"cam-a.mp4"})

	updated, cmd := m.Update(ErrorMsg{Err: errors.New("probe failed")})
	m = updated.(Model)

	if !m.Done() || m.Err() == nil {
		t.Error("expected Done() and Err() after ErrorMsg")
	}
	if cmd == nil {
		t.Error("expected tea.Quit command")
	}
	if m.View() != "" {
		t.Errorf("final frame should be empty on error, got %q", m.View())
	}
}

func TestViewTable(t *testing.T) {
	m := NewModel([]string{"cam-a.mp4", "cam-b.mp4"})
	updated, _ := m.Update(ClipUpdateMsg{
		Key: "cam-a.mp4",
		Fields: map[string]string{
			"DURATION": "12.50s", "FPS": "29.97", "AUDIO": "yes", "START": "1.00s", "STATUS": "probed",
		},
	})
	m = updated.(Model)

	view := m.View()
	for _, want := range []string{"CLIP", "DURATION", "FPS", "AUDIO", "START", "STATUS", "cam-a.mp4", "29.97", "probed", "pending"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	// Unprobed columns render as dashes.
	if !strings.Contains(view, "-") {
		t.Errorf("view should dash empty cells:\n%s", view)
	}
}

func TestViewSpinnerFollowsPhase(t *testing.T) {
	m := NewModel([]string{"cam-a.mp4"})

	if view := m.View(); !strings.Contains(view, "probing clips...") {
		t.Errorf("expected probing footer:\n%s", view)
	}

	updated, _ := m.Update(PhaseMsg{Phase: "rendering"})
	m = updated.(Model)
	if view := m.View(); !strings.Contains(view, "rendering...") {
		t.Errorf("expected rendering footer:\n%s", view)
	}

	updated, _ = m.Update(WorkDoneMsg{})
	m = updated.(Model)
	if view := m.View(); strings.Contains(view, "rendering...") {
		t.Errorf("footer should disappear when done:\n%s", view)
	}
}

func TestTickStopsAfterDone(t *testing.T) {
	m := NewModel([]string{"cam-a.mp4"})

	updated, _ := m.Update(WorkDoneMsg{})
	m = updated.(Model)

	updated, cmd := m.Update(tickMsg{})
	_ = updated
	if cmd != nil {
		t.Error("expected no tick command after done")
	}
}

func TestCtrlC(t *testing.T) {
	m := NewModel([]string{"cam-a.mp4"})

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = updated.(Model)

	if !m.Done() {
		t.Error("expected Done() after ctrl+c")
	}
	if cmd == nil {
		t.Error("expected tea.Quit command")
	}
}

func TestPipelineReporter(t *testing.T) {
	var sent []tea.Msg
	r := NewPipelineReporter(func(msg tea.Msg) { sent = append(sent, msg) }, []string{"a.mp4", "b.mp4"})

	r.ClipProbed(1, media.ClipDescriptor{
		Duration:  12.5,
		FrameRate: 59.94,
		HasAudio:  true,
	})
	if len(sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(sent))
	}
	update, ok := sent[0].(ClipUpdateMsg)
	if !ok || update.Key != "b.mp4" {
		t.Fatalf("unexpected message: %#v", sent[0])
	}
	if update.Fields["DURATION"] != "12.50s" || update.Fields["AUDIO"] != "yes" {
		t.Fatalf("unexpected fields: %v", update.Fields)
	}
	if update.Fields["FPS"] != "59.94" {
		t.Fatalf("FPS = %q", update.Fields["FPS"])
	}

	sent = nil
	r.TimelineResolved(timeline.Plan{Starts: []float64{1, 0}, SyncInstant: 5, Total: 13})
	if len(sent) != 3 {
		t.Fatalf("expected 2 row updates and a phase change, got %d", len(sent))
	}
	first, ok := sent[0].(ClipUpdateMsg)
	if !ok || first.Fields["START"] != "1.00s" {
		t.Fatalf("unexpected first message: %#v", sent[0])
	}
	if _, ok := sent[2].(PhaseMsg); !ok {
		t.Fatalf("expected PhaseMsg last, got %#v", sent[2])
	}
}

func TestPipelineReporterIgnoresOutOfRange(t *testing.T) {
	var sent []tea.Msg
	r := NewPipelineReporter(func(msg tea.Msg) { sent = append(sent, msg) }, []string{"a.mp4"})

	r.ClipProbed(5, media.ClipDescriptor{Duration: 1})
	if len(sent) != 0 {
		t.Fatalf("expected no messages, got %d", len(sent))
	}
}

func TestTruncateWithEllipsis(t *testing.T) {
	tests := []struct {
		input string
		max   int
		want  string
	}{
		{"short", 10, "short"},
		{"a longer string here", 10, "a longe..."},
		{"abc", 3, "abc"},
		{"abcd", 3, "abc"},
		{"", 5, ""},
		{"hello", 0, ""},
	}
	for _, tt := range tests {
		got := TruncateWithEllipsis(tt.input, tt.max)
		if got != tt.want {
			t.Errorf("TruncateWithEllipsis(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
		}
	}
}

func TestNonEmptyOrDash(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "-"},
		{"  ", "-"},
		{"29.97", "29.97"},
		{" yes ", "yes"},
	}
	for _, tt := range tests {
		if got := NonEmptyOrDash(tt.input); got != tt.want {
			t.Errorf("NonEmptyOrDash(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
