package timeline

import (
	"math"
	"strconv"
	"strings"

	"sidestack/internal/media"
)

// fallbackFrameRate is used when no input reports a usable rate.
const fallbackFrameRate = 30.0

// ResolveFrameRate picks the output frame rate. An explicit positive
// override wins; otherwise the fastest known input rate is used so no clip
// drops frames, falling back to 30 when every input's rate is unknown.
func ResolveFrameRate(override float64, clips []media.ClipDescriptor) float64 {
	if override > 0 {
		return override
	}
	best := 0.0
	for _, clip := range clips {
		if clip.FrameRateKnown() && clip.FrameRate > best {
			best = clip.FrameRate
		}
	}
	if best > 0 {
		return best
	}
	return fallbackFrameRate
}

// FormatFrameRate renders a frame rate as an fps filter argument.
// Rates within 0.05 of an integer collapse to the integer form, anything
// else keeps three decimals with trailing zeros stripped, and unusable
// values fall back to "30". The result is stable under re-parsing.
func FormatFrameRate(fps float64) string {
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return "30"
	}
	nearest := math.Round(fps)
	if math.Abs(fps-nearest) < 0.05 && nearest >= 1 {
		return strconv.Itoa(int(nearest))
	}
	s := strconv.FormatFloat(fps, 'f', 3, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
