package compare

import (
	"fmt"
	"math"
	"path/filepath"

	"sidestack/internal/paths"
)

// Kind identifies which request check failed.
type Kind string

const (
	KindInvalidHeight     Kind = "invalid_height"
	KindInvalidFrameRate  Kind = "invalid_frame_rate"
	KindInvalidQuality    Kind = "invalid_quality"
	KindMissingFont       Kind = "missing_font"
	KindInsufficientClips Kind = "insufficient_clips"
	KindCountMismatch     Kind = "count_mismatch"
	KindInvalidAlignment  Kind = "invalid_alignment"
	KindMissingOutput     Kind = "missing_output"
	KindOutputExists      Kind = "output_exists"
	KindOutputDirMissing  Kind = "output_dir_missing"
)

// ValidationError is a static request-shape failure, detected before any
// probing or rendering happens.
type ValidationError struct {
	Kind    Kind
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(kind Kind, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validate checks the request shape and reports the first failing rule.
// It touches the filesystem only to confirm the font, the output and the
// output directory; inputs themselves are the prober's concern.
func Validate(req Request) error {
	if req.TileHeight <= 0 {
		return invalid(KindInvalidHeight, "height must be a positive integer")
	}
	if r := req.FrameRate; r != 0 && (r < 0 || math.IsNaN(r) || math.IsInf(r, 0)) {
		return invalid(KindInvalidFrameRate, "fps must be a positive number when provided")
	}
	if req.CRF < 0 || req.CRF > 51 {
		return invalid(KindInvalidQuality, "crf must be between 0 and 51 for libx264")
	}
	if req.FontFile != "" {
		ok, err := paths.FileExists(paths.ExpandUser(req.FontFile))
		if err != nil || !ok {
			return invalid(KindMissingFont, "font file not found: %s", req.FontFile)
		}
	}

	if len(req.Videos) < 2 {
		return invalid(KindInsufficientClips, "provide at least 2 videos for a side-by-side comparison")
	}
	if len(req.Videos) != len(req.Alignment.Values) {
		return invalid(KindCountMismatch,
			"got %d videos but %d alignment values (provide one per video, in order)",
			len(req.Videos), len(req.Alignment.Values))
	}
	for _, v := range req.Alignment.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return invalid(KindInvalidAlignment, "alignment values must be finite numbers")
		}
		if v < 0 {
			return invalid(KindInvalidAlignment, "alignment values must be >= 0 (they are timestamps in seconds)")
		}
	}
	if len(req.Labels) != 0 && len(req.Labels) != len(req.Videos) {
		return invalid(KindCountMismatch,
			"got %d labels for %d videos (provide none, or exactly one per video; an empty label skips a tile)",
			len(req.Labels), len(req.Videos))
	}

	if req.Output == "" {
		return invalid(KindMissingOutput, "an output path is required")
	}
	output := paths.ExpandUser(req.Output)
	if exists, err := paths.FileExists(output); err == nil && exists && !req.Overwrite {
		return invalid(KindOutputExists,
			"output file already exists: %s (enable overwrite to replace it)", output)
	}
	if dir := filepath.Dir(output); dir != "." {
		if exists, err := paths.DirExists(dir); err == nil && !exists {
			return invalid(KindOutputDirMissing, "output directory does not exist: %s", dir)
		}
	}
	return nil
}
