package compare

import (
	"context"

	"github.com/rs/zerolog"

	"sidestack/internal/graph"
	"sidestack/internal/media"
	"sidestack/internal/paths"
	"sidestack/internal/timeline"
)

// Service runs the resolve pipeline. The prober is injected so tests and
// alternate frontends can supply fakes.
type Service struct {
	prober   media.Prober
	log      zerolog.Logger
	reporter Reporter
}

// Reporter receives notifications as the resolve pipeline progresses.
// Frontends showing live progress implement it. ClipProbed fires from
// probe goroutines and must be safe for concurrent use.
type Reporter interface {
	ClipProbed(index int, clip media.ClipDescriptor)
	TimelineResolved(place timeline.Plan)
}

// NewService builds a Service. A nil prober falls back to ffprobe on
// PATH.
func NewService(prober media.Prober, log zerolog.Logger) *Service {
	if prober == nil {
		prober = media.NewFFprobe("", nil)
	}
	return &Service{prober: prober, log: log}
}

// SetReporter attaches a progress observer for subsequent Resolve calls.
func (s *Service) SetReporter(r Reporter) { s.reporter = r }

// Resolve validates the request, probes every input concurrently, places
// the clips on the shared timeline and assembles the filter graph.
// Validation and alignment failures return before any renderer state is
// touched; audio degradation is recorded as warnings, not errors.
func (s *Service) Resolve(ctx context.Context, req Request) (Plan, error) {
	if err := Validate(req); err != nil {
		return Plan{}, err
	}

	videos := make([]string, len(req.Videos))
	for i, v := range req.Videos {
		videos[i] = paths.ExpandUser(v)
	}
	output := paths.ExpandUser(req.Output)

	s.log.Debug().Int("clips", len(videos)).Msg("probing inputs")
	var observe func(int, media.ClipDescriptor)
	if s.reporter != nil {
		observe = s.reporter.ClipProbed
	}
	clips, err := media.ProbeEach(ctx, s.prober, videos, observe)
	if err != nil {
		return Plan{}, err
	}

	place, err := timeline.Resolve(req.Alignment, clips)
	if err != nil {
		return Plan{}, err
	}
	if s.reporter != nil {
		s.reporter.TimelineResolved(place)
	}

	rate := timeline.FormatFrameRate(timeline.ResolveFrameRate(req.FrameRate, clips))
	s.log.Debug().
		Str("fps", rate).
		Float64("total", place.Total).
		Msg("timeline resolved")

	hasAudio := make([]bool, len(clips))
	for i, clip := range clips {
		hasAudio[i] = clip.HasAudio
	}
	g := graph.Build(graph.Composite{
		TileHeight: req.TileHeight,
		FrameRate:  rate,
		Starts:     place.Starts,
		Total:      place.Total,
		Labels:     req.Labels,
		FontFile:   req.FontFile,
		Audio:      req.Audio,
		HasAudio:   hasAudio,
	})
	for _, warning := range g.Warnings {
		s.log.Warn().Msg(warning)
	}

	return Plan{
		Videos:    videos,
		Output:    output,
		Clips:     clips,
		Timeline:  place,
		Mode:      req.Alignment.Mode,
		FrameRate: rate,
		Graph:     g,
		CRF:       req.CRF,
		Preset:    req.Preset,
		Overwrite: req.Overwrite,
	}, nil
}
