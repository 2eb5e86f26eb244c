package graph

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// AudioPlan selects which inputs feed the output audio track. The zero
// value is the silent plan.
type AudioPlan struct {
	mode   audioMode
	single int
}

type audioMode int

const (
	audioNone audioMode = iota
	audioMix
	audioSingle
)

// AudioNone is the silent plan.
func AudioNone() AudioPlan { return AudioPlan{} }

// AudioMix mixes every input that actually has audio.
func AudioMix() AudioPlan { return AudioPlan{mode: audioMix} }

// AudioFrom takes audio from one input, by zero-based index.
func AudioFrom(idx int) AudioPlan { return AudioPlan{mode: audioSingle, single: idx} }

// IsNone reports the silent plan.
func (p AudioPlan) IsNone() bool { return p.mode == audioNone }

// IsMix reports the mix-everything plan.
func (p AudioPlan) IsMix() bool { return p.mode == audioMix }

// Single returns the selected input index when exactly one input feeds
// the audio track.
func (p AudioPlan) Single() (int, bool) {
	return p.single, p.mode == audioSingle
}

// String renders the plan in the boundary syntax, with videoN 1-based.
func (p AudioPlan) String() string {
	switch p.mode {
	case audioMix:
		return "mix"
	case audioSingle:
		return fmt.Sprintf("video%d", p.single+1)
	default:
		return "none"
	}
}

var errInvalidAudio = errors.New("invalid audio value, use none | mix | videoN (e.g. video1, video3)")

// ParseAudioPlan reads a selection string ("none", "mix", or "videoN"
// with N counting inputs from 1) and range-checks it against the input
// count. The string form is parsed exactly once, here; everything
// downstream works with the typed plan.
func ParseAudioPlan(value string, inputs int) (AudioPlan, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch {
	case v == "" || v == "none":
		return AudioNone(), nil
	case v == "mix":
		return AudioMix(), nil
	case strings.HasPrefix(v, "video"):
		suffix := v[len("video"):]
		if !allDigits(suffix) {
			return AudioPlan{}, errInvalidAudio
		}
		n, err := strconv.Atoi(suffix)
		if err != nil {
			return AudioPlan{}, errInvalidAudio
		}
		idx := n - 1
		if idx < 0 || idx >= inputs {
			return AudioPlan{}, fmt.Errorf("audio=%s is out of range for %d input(s)", value, inputs)
		}
		return AudioFrom(idx), nil
	default:
		return AudioPlan{}, errInvalidAudio
	}
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// routeAudio appends the audio leg the plan calls for. A selection whose
// source turns out to be silent degrades to no audio with a warning
// rather than failing the whole job.
func routeAudio(g *Graph, c Composite) {
	if c.Audio.IsNone() {
		return
	}

	if idx, ok := c.Audio.Single(); ok {
		if !audioAt(c.HasAudio, idx) {
			g.Warnings = append(g.Warnings, fmt.Sprintf(
				"requested audio from video%d, but it has no audio stream. Output will be silent.", idx+1))
			return
		}
		g.Fragments = append(g.Fragments,
			audioChain(idx, delayMillis(c.Starts[idx]), "a1"),
			finalizeAudio("a1", c.Total))
		g.AudioOut = "aout"
		return
	}

	// mix
	var labels []string
	for i := range c.Starts {
		if !audioAt(c.HasAudio, i) {
			continue
		}
		label := fmt.Sprintf("a%d", i)
		g.Fragments = append(g.Fragments, audioChain(i, delayMillis(c.Starts[i]), label))
		labels = append(labels, label)
	}
	switch len(labels) {
	case 0:
		g.Warnings = append(g.Warnings,
			"audio=mix requested, but none of the inputs have audio. Output will be silent.")
		return
	case 1:
		g.Fragments = append(g.Fragments, finalizeAudio(labels[0], c.Total))
	default:
		g.Fragments = append(g.Fragments, mixFragment(labels), finalizeAudio("amixed", c.Total))
	}
	g.AudioOut = "aout"
}

// audioChain normalizes one input to stereo 48k float, resets its
// timestamps, and delays it to its timeline start.
func audioChain(idx, delayMS int, out string) Fragment {
	return Fragment{
		Inputs: []string{fmt.Sprintf("%d:a", idx)},
		Filters: []Filter{
			{Name: "aformat", Args: []Arg{
				{Key: "sample_fmts", Value: "fltp"},
				{Key: "sample_rates", Value: "48000"},
				{Key: "channel_layouts", Value: "stereo"},
			}},
			{Name: "asetpts", Args: []Arg{{Value: "PTS-STARTPTS"}}},
			{Name: "adelay", Args: []Arg{
				{Key: "delays", Value: strconv.Itoa(delayMS)},
				{Key: "all", Value: "1"},
			}},
		},
		Outputs: []string{out},
	}
}

func mixFragment(labels []string) Fragment {
	return Fragment{
		Inputs: labels,
		Filters: []Filter{{Name: "amix", Args: []Arg{
			{Key: "inputs", Value: strconv.Itoa(len(labels))},
			{Key: "duration", Value: "longest"},
			{Key: "dropout_transition", Value: "2"},
		}}},
		Outputs: []string{"amixed"},
	}
}

// finalizeAudio pads and trims a stream to exactly the output duration
// and gives it the well-known output label.
func finalizeAudio(in string, total float64) Fragment {
	return Fragment{
		Inputs: []string{in},
		Filters: []Filter{
			{Name: "apad", Args: []Arg{{Key: "whole_dur", Value: FormatSeconds(total)}}},
			{Name: "atrim", Args: []Arg{
				{Key: "start", Value: "0"},
				{Key: "end", Value: FormatSeconds(total)},
			}},
			{Name: "asetpts", Args: []Arg{{Value: "PTS-STARTPTS"}}},
		},
		Outputs: []string{"aout"},
	}
}

func delayMillis(start float64) int {
	return int(math.Round(start * 1000))
}

func audioAt(flags []bool, idx int) bool {
	return idx < len(flags) && flags[idx]
}
