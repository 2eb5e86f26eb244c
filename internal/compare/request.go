// Package compare orchestrates side-by-side comparison jobs: it validates
// a request, probes the inputs in parallel, resolves the shared timeline,
// and assembles the filter graph the renderer executes.
package compare

import (
	"sidestack/internal/graph"
	"sidestack/internal/media"
	"sidestack/internal/timeline"
)

// Request describes one comparison job. Audio arrives already parsed into
// a typed plan; the videoN boundary syntax is handled exactly once, at
// the edge that received it.
type Request struct {
	Videos    []string
	Alignment timeline.AlignmentSpec
	Labels    []string // empty, or one per video ("" skips a tile)
	Output    string

	TileHeight int
	FrameRate  float64 // 0 derives the rate from the inputs
	Audio      graph.AudioPlan
	FontFile   string
	CRF        int
	Preset     string
	Overwrite  bool
}

// Plan is a fully resolved job: probed descriptors, timeline placement,
// the assembled graph, and the encoding values the renderer consumes.
type Plan struct {
	Videos    []string // expanded input paths, in render order
	Output    string   // expanded output path
	Clips     []media.ClipDescriptor
	Timeline  timeline.Plan
	Mode      timeline.Mode
	FrameRate string // formatted fps filter value
	Graph     graph.Graph
	CRF       int
	Preset    string
	Overwrite bool
}

// Warnings lists non-fatal conditions hit while resolving, currently all
// from audio routing.
func (p Plan) Warnings() []string { return p.Graph.Warnings }
