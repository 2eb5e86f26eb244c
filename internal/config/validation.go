package config

import (
	"fmt"
	"math"

	"sidestack/internal/paths"
)

// ValidationResult captures a single validation finding.
type ValidationResult struct {
	Level   string `json:"level"` // "error" or "warning"
	Message string `json:"message"`
}

// knownPresets are the libx264 speed/quality presets ffmpeg accepts.
var knownPresets = map[string]bool{
	"ultrafast": true,
	"superfast": true,
	"veryfast":  true,
	"faster":    true,
	"fast":      true,
	"medium":    true,
	"slow":      true,
	"slower":    true,
	"veryslow":  true,
	"placebo":   true,
}

// Validate runs all config checks and returns structured findings for
// the doctor command. An empty slice means the config is sound.
func (c Config) Validate() []ValidationResult {
	var results []ValidationResult
	results = append(results, c.validateRender()...)
	results = append(results, c.validateServe()...)
	return results
}

func (c Config) validateRender() []ValidationResult {
	var results []ValidationResult

	if c.Render.TileHeight <= 0 {
		results = append(results, ValidationResult{
			Level:   "error",
			Message: fmt.Sprintf("render.tile_height must be positive, got %d", c.Render.TileHeight),
		})
	}
	if f := c.Render.FPS; f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		results = append(results, ValidationResult{
			Level:   "error",
			Message: "render.fps must be a positive number (or omitted to derive it from inputs)",
		})
	}
	if crf := c.Render.CRFValue(); crf < 0 || crf > 51 {
		results = append(results, ValidationResult{
			Level:   "error",
			Message: fmt.Sprintf("render.crf must be between 0 and 51, got %d", crf),
		})
	}
	switch c.Render.Audio {
	case "", "none", "mix":
	default:
		// videoN settings are only checkable against a concrete job.
		results = append(results, ValidationResult{
			Level:   "warning",
			Message: fmt.Sprintf("render.audio %q selects a fixed input; jobs with fewer inputs will fail validation", c.Render.Audio),
		})
	}
	if c.Render.Preset != "" && !knownPresets[c.Render.Preset] {
		results = append(results, ValidationResult{
			Level:   "warning",
			Message: fmt.Sprintf("render.preset %q is not a known libx264 preset", c.Render.Preset),
		})
	}
	if font := c.Render.FontFile; font != "" {
		if ok, err := paths.FileExists(paths.ExpandUser(font)); err != nil || !ok {
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("render.font_file %q not found", font),
			})
		}
	}
	return results
}

func (c Config) validateServe() []ValidationResult {
	var results []ValidationResult
	if c.Serve.Listen == "" {
		results = append(results, ValidationResult{
			Level:   "error",
			Message: "serve.listen must not be empty",
		})
	}
	if c.Serve.JobsDir == "" {
		results = append(results, ValidationResult{
			Level:   "error",
			Message: "serve.jobs_dir must not be empty",
		})
	}
	return results
}
