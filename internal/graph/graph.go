// Package graph builds ffmpeg filter graphs for side-by-side composites.
//
// Chains are kept as typed fragment records so they can be inspected and
// tested without parsing filter syntax. Serialization to -filter_complex
// text happens in exactly one place, Graph.FilterComplex.
package graph

import (
	"fmt"
	"strconv"
	"strings"
)

// Arg is one filter argument. Positional arguments leave Key empty.
type Arg struct {
	Key   string
	Value string
}

// Filter is one named filter with its ordered arguments.
type Filter struct {
	Name string
	Args []Arg
}

// Fragment is one chain of filters from input labels to output labels.
// Labels are stored without brackets ("0:v", "v1", "amixed").
type Fragment struct {
	Inputs  []string
	Filters []Filter
	Outputs []string
}

// Graph is the ordered fragment list plus the stream labels the renderer
// maps, with any warnings accumulated while routing audio.
type Graph struct {
	Fragments []Fragment
	VideoOut  string
	AudioOut  string
	Warnings  []string
}

// HasAudio reports whether the graph produces an audio output stream.
func (g Graph) HasAudio() bool { return g.AudioOut != "" }

// FilterComplex renders the whole graph in -filter_complex syntax.
func (g Graph) FilterComplex() string {
	var b strings.Builder
	for i, fr := range g.Fragments {
		if i > 0 {
			b.WriteByte(';')
		}
		fr.encode(&b)
	}
	return b.String()
}

func (fr Fragment) encode(b *strings.Builder) {
	for _, in := range fr.Inputs {
		b.WriteByte('[')
		b.WriteString(in)
		b.WriteByte(']')
	}
	for i, f := range fr.Filters {
		if i > 0 {
			b.WriteByte(',')
		}
		f.encode(b)
	}
	for _, out := range fr.Outputs {
		b.WriteByte('[')
		b.WriteString(out)
		b.WriteByte(']')
	}
}

func (f Filter) encode(b *strings.Builder) {
	b.WriteString(f.Name)
	for i, arg := range f.Args {
		if i == 0 {
			b.WriteByte('=')
		} else {
			b.WriteByte(':')
		}
		if arg.Key != "" {
			b.WriteString(arg.Key)
			b.WriteByte('=')
		}
		b.WriteString(arg.Value)
	}
}

// Composite describes the side-by-side layout to build. Starts, Labels
// and HasAudio correspond to inputs by index; FrameRate is the already
// formatted fps filter value.
type Composite struct {
	TileHeight int
	FrameRate  string
	Starts     []float64
	Total      float64
	Labels     []string
	FontFile   string
	Audio      AudioPlan
	HasAudio   []bool
}

// Build assembles the full graph: one video chain per input, the
// horizontal stack with the output rate, then the audio leg the plan
// calls for. Fragment order is stable.
func Build(c Composite) Graph {
	g := Graph{VideoOut: "vout"}
	for i := range c.Starts {
		g.Fragments = append(g.Fragments, videoChain(i, c))
	}
	g.Fragments = append(g.Fragments, stackFragment(len(c.Starts)), rateFragment(c.FrameRate))
	routeAudio(&g, c)
	return g
}

// videoChain resets timestamps, scales to the tile height, normalizes
// pixel format and sample aspect, draws the optional label, then clones
// frames at both ends and trims so the stream spans the whole output.
func videoChain(idx int, c Composite) Fragment {
	filters := []Filter{
		{Name: "setpts", Args: []Arg{{Value: "PTS-STARTPTS"}}},
		{Name: "scale", Args: []Arg{{Value: "-2"}, {Value: strconv.Itoa(c.TileHeight)}}},
		{Name: "format", Args: []Arg{{Value: "yuv420p"}}},
		{Name: "setsar", Args: []Arg{{Value: "1"}}},
	}
	if label := strings.TrimSpace(labelAt(c.Labels, idx)); label != "" {
		filters = append(filters, Drawtext(label, c.TileHeight, c.FontFile))
	}
	filters = append(filters,
		Filter{Name: "tpad", Args: []Arg{
			{Key: "start_duration", Value: FormatSeconds(c.Starts[idx])},
			{Key: "start_mode", Value: "clone"},
			{Key: "stop_duration", Value: FormatSeconds(c.Total)},
			{Key: "stop_mode", Value: "clone"},
		}},
		Filter{Name: "trim", Args: []Arg{{Key: "duration", Value: FormatSeconds(c.Total)}}},
		Filter{Name: "setpts", Args: []Arg{{Value: "PTS-STARTPTS"}}},
	)
	return Fragment{
		Inputs:  []string{fmt.Sprintf("%d:v", idx)},
		Filters: filters,
		Outputs: []string{fmt.Sprintf("v%d", idx)},
	}
}

// stackFragment places the per-input tiles side by side. shortest=1 is
// safe because every chain is padded and trimmed to the same length.
func stackFragment(n int) Fragment {
	inputs := make([]string, n)
	for i := range inputs {
		inputs[i] = fmt.Sprintf("v%d", i)
	}
	return Fragment{
		Inputs: inputs,
		Filters: []Filter{{Name: "hstack", Args: []Arg{
			{Key: "inputs", Value: strconv.Itoa(n)},
			{Key: "shortest", Value: "1"},
		}}},
		Outputs: []string{"vstack"},
	}
}

func rateFragment(fps string) Fragment {
	return Fragment{
		Inputs:  []string{"vstack"},
		Filters: []Filter{{Name: "fps", Args: []Arg{{Key: "fps", Value: fps}}}},
		Outputs: []string{"vout"},
	}
}

func labelAt(labels []string, idx int) string {
	if idx < len(labels) {
		return labels[idx]
	}
	return ""
}
