// Package tools reports on the external binaries the renderer shells out to.
// The doctor command uses it to tell users whether ffmpeg and ffprobe are
// present, what versions they are, and whether those versions are new enough
// for the filters the compositor emits.
package tools

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"sidestack/internal/config"
	"sidestack/internal/media"
)

// ToolInfo captures availability and version details for an external tool.
type ToolInfo struct {
	Name      string `json:"name"`
	Path      string `json:"path,omitempty"`
	Version   string `json:"version,omitempty"`
	Minimum   string `json:"minimum,omitempty"`
	Available bool   `json:"available"`
	Satisfied bool   `json:"satisfied"`
	Error     string `json:"error,omitempty"`
}

// minimums records the oldest release of each tool the filter graph is known
// to work with. tpad's clone modes arrived in ffmpeg 4.3; older builds abort
// mid render with an unknown-option error.
var minimums = map[string]string{
	"ffmpeg":  "4.3",
	"ffprobe": "4.3",
}

// Probe checks ffmpeg and ffprobe, honoring path overrides from cfg. Results
// come back in a fixed order so doctor output is stable.
func Probe(ctx context.Context, cfg config.ToolsConfig, runner media.Runner) []ToolInfo {
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}
	if runner == nil {
		runner = media.CmdRunner{}
	}

	commands := []struct {
		name    string
		command string
	}{
		{"ffmpeg", cfg.FFmpeg},
		{"ffprobe", cfg.FFprobe},
	}

	infos := make([]ToolInfo, 0, len(commands))
	for _, c := range commands {
		infos = append(infos, probeOne(ctx, c.name, c.command, runner))
	}
	return infos
}

func probeOne(ctx context.Context, name, command string, runner media.Runner) ToolInfo {
	info := ToolInfo{Name: name, Minimum: minimums[name]}

	path, err := resolvePath(name, command)
	if err != nil {
		info.Error = err.Error()
		return info
	}
	info.Path = path
	info.Available = true

	version, err := readVersion(ctx, runner, path)
	if err != nil {
		info.Error = err.Error()
		return info
	}
	info.Version = version

	info.Satisfied = meetsMinimum(version, info.Minimum)
	if !info.Satisfied {
		info.Error = fmt.Sprintf("version %s below minimum %s", version, info.Minimum)
	}
	return info
}

// resolvePath turns a configured command into an executable path. Bare names
// go through PATH lookup; values with a separator are tried directly.
func resolvePath(name, command string) (string, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		command = name
	}

	path, err := exec.LookPath(command)
	if err != nil {
		if strings.ContainsAny(command, `/\`) {
			return "", fmt.Errorf("%s not found at %s", name, command)
		}
		return "", fmt.Errorf("%s not found in PATH", command)
	}
	return path, nil
}
