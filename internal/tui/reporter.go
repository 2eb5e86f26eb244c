package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"sidestack/internal/media"
	"sidestack/internal/timeline"
)

// PipelineReporter forwards resolve progress into the running program as
// row updates. Keys must match the clip names used to seed the model.
type PipelineReporter struct {
	send func(tea.Msg)
	keys []string
}

// NewPipelineReporter constructs a reporter bound to a send callback.
func NewPipelineReporter(send func(tea.Msg), keys []string) *PipelineReporter {
	return &PipelineReporter{send: send, keys: keys}
}

// ClipProbed fills in the probed columns for one clip.
func (r *PipelineReporter) ClipProbed(index int, clip media.ClipDescriptor) {
	if index < 0 || index >= len(r.keys) {
		return
	}
	audio := "no"
	if clip.HasAudio {
		audio = "yes"
	}
	fields := map[string]string{
		"DURATION": fmt.Sprintf("%.2fs", clip.Duration),
		"AUDIO":    audio,
		"STATUS":   "probed",
	}
	if clip.FrameRateKnown() {
		fields["FPS"] = timeline.FormatFrameRate(clip.FrameRate)
	}
	r.send(ClipUpdateMsg{Key: r.keys[index], Fields: fields})
}

// TimelineResolved sets each clip's start offset and flips the footer to
// the render phase.
func (r *PipelineReporter) TimelineResolved(place timeline.Plan) {
	for i, start := range place.Starts {
		if i >= len(r.keys) {
			break
		}
		r.send(ClipUpdateMsg{Key: r.keys[i], Fields: map[string]string{
			"START": fmt.Sprintf("%.2fs", start),
		}})
	}
	r.send(PhaseMsg{Phase: "rendering"})
}
