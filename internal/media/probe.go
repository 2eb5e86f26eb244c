package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Prober resolves the media descriptor for a file path.
type Prober interface {
	Probe(ctx context.Context, path string) (ClipDescriptor, error)
}

// FFprobe probes media files by running the ffprobe binary through a Runner.
type FFprobe struct {
	Binary string
	Runner Runner
}

// NewFFprobe returns a prober using the given binary path ("ffprobe" when
// empty) and runner (CmdRunner when nil).
func NewFFprobe(binary string, runner Runner) *FFprobe {
	if binary == "" {
		binary = "ffprobe"
	}
	if runner == nil {
		runner = CmdRunner{}
	}
	return &FFprobe{Binary: binary, Runner: runner}
}

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
	Format  ffprobeFormat   `json:"format"`
}

type ffprobeStream struct {
	CodecType    string `json:"codec_type"`
	AvgFrameRate string `json:"avg_frame_rate"`
	RFrameRate   string `json:"r_frame_rate"`
	Duration     string `json:"duration"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

// Probe runs ffprobe and normalizes its JSON output into a ClipDescriptor.
// A missing or unreadable duration is an error; a missing frame rate is not.
func (p *FFprobe) Probe(ctx context.Context, path string) (ClipDescriptor, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ClipDescriptor{}, &ProbeError{Path: path, Err: errors.New("input file not found")}
		}
		return ClipDescriptor{}, &ProbeError{Path: path, Err: fmt.Errorf("stat input: %w", err)}
	}

	args := []string{
		"-v", "error",
		"-show_format",
		"-show_streams",
		"-print_format", "json",
		path,
	}

	result, runErr := p.Runner.Run(ctx, p.Binary, args, RunOptions{})
	if runErr != nil {
		stderr := strings.TrimSpace(string(result.Stderr))
		if stderr != "" {
			return ClipDescriptor{}, &ProbeError{Path: path, Err: fmt.Errorf("ffprobe: %w: %s", runErr, stderr)}
		}
		return ClipDescriptor{}, &ProbeError{Path: path, Err: fmt.Errorf("ffprobe: %w", runErr)}
	}

	var parsed ffprobeOutput
	if err := json.Unmarshal(result.Stdout, &parsed); err != nil {
		return ClipDescriptor{}, &ProbeError{Path: path, Err: fmt.Errorf("decode ffprobe output: %w", err)}
	}

	if len(parsed.Streams) == 0 {
		return ClipDescriptor{}, &ProbeError{Path: path, Err: errors.New("no streams found")}
	}

	desc := ClipDescriptor{Path: path, FrameRate: math.NaN()}
	haveVideo := false
	for _, s := range parsed.Streams {
		switch s.CodecType {
		case "video":
			if !haveVideo {
				haveVideo = true
				rate := s.AvgFrameRate
				if rate == "" {
					rate = s.RFrameRate
				}
				desc.FrameRate = parseFraction(rate)
			}
		case "audio":
			desc.HasAudio = true
		}
	}
	if !haveVideo {
		return ClipDescriptor{}, &ProbeError{Path: path, Err: errors.New("no video stream found")}
	}

	desc.Duration = resolveDuration(parsed)
	if desc.Duration <= 0 {
		return ClipDescriptor{}, &ProbeError{Path: path, Err: ErrDurationUnresolvable}
	}

	return desc, nil
}

// resolveDuration prefers the container duration, falling back to the longest
// per-stream duration when the container omits one.
func resolveDuration(parsed ffprobeOutput) float64 {
	if d, ok := parseDurationField(parsed.Format.Duration); ok {
		return d
	}
	best := 0.0
	for _, s := range parsed.Streams {
		if d, ok := parseDurationField(s.Duration); ok && d > best {
			best = d
		}
	}
	return best
}

func parseDurationField(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "N/A" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// ProbeAll probes every path concurrently and returns descriptors in input
// order. The first failure cancels the remaining probes.
func ProbeAll(ctx context.Context, prober Prober, paths []string) ([]ClipDescriptor, error) {
	return ProbeEach(ctx, prober, paths, nil)
}

// ProbeEach is ProbeAll with a per-clip callback invoked as each probe
// lands. Callbacks fire from probe goroutines, so fn must be safe for
// concurrent use.
func ProbeEach(ctx context.Context, prober Prober, paths []string, fn func(int, ClipDescriptor)) ([]ClipDescriptor, error) {
	descs := make([]ClipDescriptor, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			desc, err := prober.Probe(ctx, path)
			if err != nil {
				return err
			}
			descs[i] = desc
			if fn != nil {
				fn(i, desc)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return descs, nil
}
