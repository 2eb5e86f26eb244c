package render

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"sidestack/internal/media"
	"sidestack/internal/paths"
)

// Service invokes ffmpeg for resolved jobs. The runner is injected so
// tests never execute a real encoder.
type Service struct {
	ffmpeg string
	runner media.Runner
	log    zerolog.Logger
	stderr io.Writer
}

// NewService binds a renderer to an ffmpeg binary. Empty binary means
// "ffmpeg" on PATH; nil runner means real process execution.
func NewService(ffmpeg string, runner media.Runner, log zerolog.Logger) *Service {
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	if runner == nil {
		runner = media.CmdRunner{}
	}
	return &Service{ffmpeg: ffmpeg, runner: runner, log: log}
}

// SetStderr mirrors renderer diagnostics to w in addition to the log
// file, for live progress display.
func (s *Service) SetStderr(w io.Writer) { s.stderr = w }

// Result describes a completed render.
type Result struct {
	Output  string
	LogPath string
	Elapsed time.Duration
}

// RenderError reports a failed renderer run. The full transcript lives
// in the log file; Tail keeps the last few stderr lines for the message.
type RenderError struct {
	Output  string
	LogPath string
	Tail    string
	Err     error
}

func (e *RenderError) Error() string {
	msg := fmt.Sprintf("ffmpeg failed: %v (see %s)", e.Err, e.LogPath)
	if e.Tail != "" {
		msg += "\n" + e.Tail
	}
	return msg
}

func (e *RenderError) Unwrap() error { return e.Err }

// Run executes ffmpeg for the job, capturing stderr into a log file next
// to the output. A failed run never leaves a partial output behind; an
// output that predated the run and was refused rather than overwritten
// stays untouched.
func (s *Service) Run(ctx context.Context, job Job) (Result, error) {
	logPath := LogPath(job.Output)
	logFile, err := os.Create(logPath)
	if err != nil {
		return Result{}, fmt.Errorf("open render log: %w", err)
	}
	defer logFile.Close()

	var stderr io.Writer = logFile
	if s.stderr != nil {
		stderr = io.MultiWriter(logFile, s.stderr)
	}

	existedBefore, _ := paths.FileExists(job.Output)

	s.log.Debug().
		Str("output", job.Output).
		Int("inputs", len(job.Inputs)).
		Msg("starting ffmpeg")

	started := time.Now()
	res, err := s.runner.Run(ctx, s.ffmpeg, Args(job), media.RunOptions{Stderr: stderr})
	if err != nil {
		if !existedBefore || job.Overwrite {
			_ = os.Remove(job.Output)
		}
		return Result{LogPath: logPath}, &RenderError{
			Output:  job.Output,
			LogPath: logPath,
			Tail:    tailLines(res.Stderr, 5),
			Err:     err,
		}
	}

	elapsed := time.Since(started)
	s.log.Info().
		Str("output", job.Output).
		Dur("elapsed", elapsed).
		Msg("render complete")
	return Result{Output: job.Output, LogPath: logPath, Elapsed: elapsed}, nil
}

// LogPath names the render log kept beside an output file.
func LogPath(output string) string {
	return strings.TrimSuffix(output, filepath.Ext(output)) + ".log"
}

func tailLines(b []byte, n int) string {
	trimmed := strings.TrimSpace(string(b))
	if trimmed == "" {
		return ""
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
