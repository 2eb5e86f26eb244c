package media

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeRunner struct {
	stdout string
	stderr string
	err    error
	calls  int
}

func (f *fakeRunner) Run(_ context.Context, _ string, _ []string, _ RunOptions) (RunResult, error) {
	f.calls++
	return RunResult{Stdout: []byte(f.stdout), Stderr: []byte(f.stderr)}, f.err
}

func writeTempClip(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("stub"), 0o644); err != nil {
		t.Fatalf("write temp clip: %v", err)
	}
	return path
}

func TestProbeNormalizesOutput(t *testing.T) {
	path := writeTempClip(t)
	runner := &fakeRunner{stdout: `{
		"streams": [
			{"codec_type": "video", "avg_frame_rate": "30000/1001", "duration": "12.480000"},
			{"codec_type": "audio", "duration": "12.500000"}
		],
		"format": {"duration": "12.500000"}
	}`}

	desc, err := NewFFprobe("", runner).Probe(context.Background(), path)
	if err != nil {
		t.Fatalf("Probe error: %v", err)
	}
	if desc.Duration != 12.5 {
		t.Fatalf("Duration = %v; want 12.5", desc.Duration)
	}
	if !desc.HasAudio {
		t.Fatalf("expected HasAudio")
	}
	if !desc.FrameRateKnown() {
		t.Fatalf("expected a known frame rate, got %v", desc.FrameRate)
	}
	if math.Abs(desc.FrameRate-29.97) > 0.01 {
		t.Fatalf("FrameRate = %v; want ~29.97", desc.FrameRate)
	}
}

func TestProbeDurationFallsBackToStreams(t *testing.T) {
	path := writeTempClip(t)
	runner := &fakeRunner{stdout: `{
		"streams": [
			{"codec_type": "video", "avg_frame_rate": "25", "duration": "10.0"},
			{"codec_type": "audio", "duration": "12.25"}
		],
		"format": {"duration": "N/A"}
	}`}

	desc, err := NewFFprobe("ffprobe", runner).Probe(context.Background(), path)
	if err != nil {
		t.Fatalf("Probe error: %v", err)
	}
	if desc.Duration != 12.25 {
		t.Fatalf("Duration = %v; want stream fallback 12.25", desc.Duration)
	}
}

func TestProbeUnknownFrameRateIsNotAnError(t *testing.T) {
	path := writeTempClip(t)
	runner := &fakeRunner{stdout: `{
		"streams": [{"codec_type": "video", "avg_frame_rate": "0/0"}],
		"format": {"duration": "4.2"}
	}`}

	desc, err := NewFFprobe("ffprobe", runner).Probe(context.Background(), path)
	if err != nil {
		t.Fatalf("Probe error: %v", err)
	}
	if desc.FrameRateKnown() {
		t.Fatalf("expected unknown frame rate, got %v", desc.FrameRate)
	}
	if desc.HasAudio {
		t.Fatalf("did not expect HasAudio")
	}
}

func TestProbeMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.mp4")
	runner := &fakeRunner{}

	_, err := NewFFprobe("ffprobe", runner).Probe(context.Background(), missing)
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	var probeErr *ProbeError
	if !errors.As(err, &probeErr) {
		t.Fatalf("expected *ProbeError, got %T: %v", err, err)
	}
	if probeErr.Path != missing {
		t.Fatalf("ProbeError.Path = %q; want %q", probeErr.Path, missing)
	}
	if !strings.Contains(err.Error(), missing) {
		t.Fatalf("error %q does not name the path", err)
	}
	if runner.calls != 0 {
		t.Fatalf("ffprobe should not run for a missing file")
	}
}

func TestProbeNoVideoStream(t *testing.T) {
	path := writeTempClip(t)
	runner := &fakeRunner{stdout: `{
		"streams": [{"codec_type": "audio", "duration": "3.0"}],
		"format": {"duration": "3.0"}
	}`}

	_, err := NewFFprobe("ffprobe", runner).Probe(context.Background(), path)
	if err == nil || !strings.Contains(err.Error(), "no video stream") {
		t.Fatalf("expected no-video-stream error, got %v", err)
	}
}

func TestProbeDurationUnresolvable(t *testing.T) {
	path := writeTempClip(t)
	runner := &fakeRunner{stdout: `{
		"streams": [{"codec_type": "video", "avg_frame_rate": "30", "duration": "N/A"}],
		"format": {}
	}`}

	_, err := NewFFprobe("ffprobe", runner).Probe(context.Background(), path)
	if !errors.Is(err, ErrDurationUnresolvable) {
		t.Fatalf("expected ErrDurationUnresolvable, got %v", err)
	}
}

func TestProbeAppendsStderrOnFailure(t *testing.T) {
	path := writeTempClip(t)
	runner := &fakeRunner{err: errors.New("exit status 1"), stderr: "moov atom not found"}

	_, err := NewFFprobe("ffprobe", runner).Probe(context.Background(), path)
	if err == nil || !strings.Contains(err.Error(), "moov atom not found") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}

type fakeProber struct {
	descs map[string]ClipDescriptor
	fail  string
}

func (f fakeProber) Probe(_ context.Context, path string) (ClipDescriptor, error) {
	if path == f.fail {
		return ClipDescriptor{}, &ProbeError{Path: path, Err: errors.New("boom")}
	}
	desc, ok := f.descs[path]
	if !ok {
		return ClipDescriptor{}, fmt.Errorf("unexpected path %s", path)
	}
	return desc, nil
}

func TestProbeAllPreservesOrder(t *testing.T) {
	prober := fakeProber{descs: map[string]ClipDescriptor{
		"a.mp4": {Path: "a.mp4", Duration: 12},
		"b.mp4": {Path: "b.mp4", Duration: 13},
		"c.mp4": {Path: "c.mp4", Duration: 9},
	}}

	descs, err := ProbeAll(context.Background(), prober, []string{"a.mp4", "b.mp4", "c.mp4"})
	if err != nil {
		t.Fatalf("ProbeAll error: %v", err)
	}
	wantDurations := []float64{12, 13, 9}
	for i, want := range wantDurations {
		if descs[i].Duration != want {
			t.Fatalf("descs[%d].Duration = %v; want %v", i, descs[i].Duration, want)
		}
	}
}

func TestProbeAllPropagatesFailure(t *testing.T) {
	prober := fakeProber{
		descs: map[string]ClipDescriptor{"a.mp4": {Path: "a.mp4", Duration: 12}},
		fail:  "b.mp4",
	}

	_, err := ProbeAll(context.Background(), prober, []string{"a.mp4", "b.mp4"})
	var probeErr *ProbeError
	if !errors.As(err, &probeErr) || probeErr.Path != "b.mp4" {
		t.Fatalf("expected ProbeError for b.mp4, got %v", err)
	}
}

func TestParseFraction(t *testing.T) {
	cases := map[string]float64{
		"30000/1001": 29.97002997002997,
		"25":         25,
		"24/1":       24,
	}
	for input, want := range cases {
		if got := parseFraction(input); math.Abs(got-want) > 1e-9 {
			t.Fatalf("parseFraction(%q) = %v; want %v", input, got, want)
		}
	}

	unknown := []string{"", "0/0", "N/A", "x/2", "1/0", "abc"}
	for _, input := range unknown {
		if got := parseFraction(input); !math.IsNaN(got) {
			t.Fatalf("parseFraction(%q) = %v; want NaN", input, got)
		}
	}
}
