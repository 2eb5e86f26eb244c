// Package config holds the YAML configuration: render defaults that
// flags can override, tool locations, and serve settings.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"sidestack/internal/paths"
)

// Config captures everything sidestack reads from its config file.
type Config struct {
	Version int          `yaml:"version"`
	Render  RenderConfig `yaml:"render"`
	Tools   ToolsConfig  `yaml:"tools"`
	Serve   ServeConfig  `yaml:"serve"`
}

// RenderConfig carries per-job defaults. Flags override these; these
// override the built-ins.
type RenderConfig struct {
	TileHeight int     `yaml:"tile_height"`
	FPS        float64 `yaml:"fps,omitempty"` // 0 derives the rate from the inputs
	Audio      string  `yaml:"audio"`
	FontFile   string  `yaml:"font_file,omitempty"`
	CRF        *int    `yaml:"crf,omitempty"` // pointer so an explicit 0 survives
	Preset     string  `yaml:"preset"`
}

// CRFValue returns the effective crf applying the default.
func (r RenderConfig) CRFValue() int {
	if r.CRF == nil {
		return 20
	}
	return *r.CRF
}

// ToolsConfig points at the external binaries.
type ToolsConfig struct {
	FFmpeg  string `yaml:"ffmpeg"`
	FFprobe string `yaml:"ffprobe"`
}

// ServeConfig configures the HTTP service.
type ServeConfig struct {
	Listen  string `yaml:"listen"`
	JobsDir string `yaml:"jobs_dir"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Version: 1,
		Render: RenderConfig{
			TileHeight: 1080,
			Audio:      "none",
			CRF:        intPtr(20),
			Preset:     "medium",
		},
		Tools: ToolsConfig{
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
		},
		Serve: ServeConfig{
			Listen:  ":8080",
			JobsDir: paths.DefaultJobsRoot(),
		},
	}
}

// Load reads the YAML configuration from disk if it exists, otherwise
// returns the default configuration.
func Load(path string) (Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults ensures fields fall back to sensible values when the
// YAML omits them.
func (c *Config) ApplyDefaults() {
	defaults := Default()

	if c.Version == 0 {
		c.Version = defaults.Version
	}
	if c.Render.TileHeight == 0 {
		c.Render.TileHeight = defaults.Render.TileHeight
	}
	if c.Render.Audio == "" {
		c.Render.Audio = defaults.Render.Audio
	}
	if c.Render.CRF == nil {
		c.Render.CRF = intPtr(20)
	}
	if c.Render.Preset == "" {
		c.Render.Preset = defaults.Render.Preset
	}
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = defaults.Tools.FFmpeg
	}
	if c.Tools.FFprobe == "" {
		c.Tools.FFprobe = defaults.Tools.FFprobe
	}
	if c.Serve.Listen == "" {
		c.Serve.Listen = defaults.Serve.Listen
	}
	if c.Serve.JobsDir == "" {
		c.Serve.JobsDir = defaults.Serve.JobsDir
	}
}

// Marshal returns the YAML encoding of the configuration.
func (c Config) Marshal() ([]byte, error) {
	buf, err := yaml.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf, nil
}

func intPtr(v int) *int {
	return &v
}
