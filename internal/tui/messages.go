package tui

// ClipUpdateMsg fills in columns for one clip row, keyed by column header.
type ClipUpdateMsg struct {
	Key    string
	Fields map[string]string
}

// PhaseMsg swaps the footer line text ("probing clips", "rendering").
type PhaseMsg struct {
	Phase string
}

// WorkDoneMsg signals that all background work has completed.
type WorkDoneMsg struct{}

// ErrorMsg signals a fatal error; the TUI should quit.
type ErrorMsg struct {
	Err error
}
