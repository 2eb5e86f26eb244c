package media

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ClipDescriptor holds the probed properties of one input clip. Instances are
// created per render job and never mutated.
type ClipDescriptor struct {
	Path      string
	Duration  float64 // seconds, always > 0 once probing succeeds
	FrameRate float64 // native frame rate; NaN when the container does not report one
	HasAudio  bool
}

// FrameRateKnown reports whether the clip carried a usable native frame rate.
func (d ClipDescriptor) FrameRateKnown() bool {
	return d.FrameRate > 0 && !math.IsNaN(d.FrameRate) && !math.IsInf(d.FrameRate, 0)
}

// ErrDurationUnresolvable marks a clip whose duration could not be determined
// from either the container format or any stream.
var ErrDurationUnresolvable = errors.New("could not determine a valid duration")

// ProbeError reports a clip whose metadata could not be resolved. It always
// names the offending path.
type ProbeError struct {
	Path string
	Err  error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %s: %v", e.Path, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

// parseFraction converts ffprobe rate strings like "30000/1001" or "25" to a
// float. Unknown markers ("0/0", "N/A", empty) and malformed values yield NaN.
func parseFraction(frac string) float64 {
	frac = strings.TrimSpace(frac)
	if frac == "" || frac == "0/0" || frac == "N/A" {
		return math.NaN()
	}
	if num, den, ok := strings.Cut(frac, "/"); ok {
		n, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return math.NaN()
		}
		d, err := strconv.ParseFloat(den, 64)
		if err != nil || d == 0 {
			return math.NaN()
		}
		return n / d
	}
	v, err := strconv.ParseFloat(frac, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
