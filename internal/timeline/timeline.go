// Package timeline places clips on a shared output timeline.
//
// Alignment values carry no meaning on their own. In sync mode each value
// is an instant inside its clip that should coincide across all clips; in
// timeline mode each value is the clip's absolute start on the output
// timeline. Resolve turns either form into per-clip start offsets plus the
// total output duration.
package timeline

import (
	"fmt"

	"sidestack/internal/media"
)

// syncSlack absorbs probe rounding when a sync value is checked against
// the clip duration.
const syncSlack = 0.25

// Mode selects how alignment values are interpreted.
type Mode string

const (
	// ModeSync reads each value as an in-clip instant to line up.
	ModeSync Mode = "sync"
	// ModeTimeline reads each value as an absolute timeline start.
	ModeTimeline Mode = "timeline"
)

// ParseMode converts a user-supplied mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSync, ModeTimeline:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown alignment mode %q (expected %q or %q)", s, ModeSync, ModeTimeline)
}

// AlignmentSpec pairs one value per clip with the mode that gives the
// values meaning.
type AlignmentSpec struct {
	Mode   Mode
	Values []float64
}

// Plan is the resolved placement of every clip, in input order.
type Plan struct {
	// Starts holds each clip's absolute start on the output timeline.
	Starts []float64
	// SyncInstant is the timeline instant where sync values coincide.
	// Always zero in timeline mode.
	SyncInstant float64
	// Total is the output duration, the latest clip end.
	Total float64
}

// AlignmentError reports a sync value that falls outside its clip.
type AlignmentError struct {
	Index    int // zero-based clip index
	Value    float64
	Duration float64
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("sync point for video%d is %.3fs but the clip is only %.3fs long (sync points must fall inside the clip)",
		e.Index+1, e.Value, e.Duration)
}

// Resolve places each clip on the output timeline and computes the total
// duration. Clips and spec values correspond by index.
func Resolve(spec AlignmentSpec, clips []media.ClipDescriptor) (Plan, error) {
	if len(spec.Values) != len(clips) {
		return Plan{}, fmt.Errorf("got %d alignment values for %d clips", len(spec.Values), len(clips))
	}

	var plan Plan
	switch spec.Mode {
	case ModeTimeline:
		plan.Starts = append([]float64(nil), spec.Values...)
	case ModeSync:
		for i, clip := range clips {
			if spec.Values[i] > clip.Duration+syncSlack {
				return Plan{}, &AlignmentError{Index: i, Value: spec.Values[i], Duration: clip.Duration}
			}
		}
		for _, v := range spec.Values {
			if v > plan.SyncInstant {
				plan.SyncInstant = v
			}
		}
		plan.Starts = make([]float64, len(spec.Values))
		for i, v := range spec.Values {
			plan.Starts[i] = plan.SyncInstant - v
		}
	default:
		return Plan{}, fmt.Errorf("unknown alignment mode %q", spec.Mode)
	}

	for i, clip := range clips {
		if end := plan.Starts[i] + clip.Duration; end > plan.Total {
			plan.Total = end
		}
	}
	return plan, nil
}
