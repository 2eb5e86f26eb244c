package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"sidestack/internal/compare"
	"sidestack/internal/graph"
	"sidestack/internal/jobs"
	"sidestack/internal/media"
	"sidestack/internal/paths"
	"sidestack/internal/render"
	"sidestack/internal/timeline"
)

// maxFieldBytes caps non-file form values. No recognized field is anywhere
// near this long.
const maxFieldBytes = 4096

// syncHandler accepts one multipart request carrying the clips and their
// alignment, renders synchronously, and leaves the job directory behind for
// later GET and DELETE calls.
func syncHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mr, err := r.MultipartReader()
		if err != nil {
			WriteError(w, http.StatusBadRequest, "expected multipart form data", "BAD_REQUEST")
			return
		}

		id := jobs.NewID()
		jp := cfg.Store.Dir(id)
		if err := jp.EnsureRoot(); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		var videos []string
		fields := map[string]string{}

		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				WriteError(w, http.StatusBadRequest, "malformed multipart body: "+err.Error(), "BAD_REQUEST")
				return
			}

			if part.FormName() == "videos" {
				ext := filepath.Ext(filepath.Base(part.FileName()))
				dst := jp.InputFile(len(videos), ext)
				if err := saveUpload(dst, part); err != nil {
					WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
					return
				}
				videos = append(videos, dst)
				continue
			}

			value, err := io.ReadAll(io.LimitReader(part, maxFieldBytes))
			if err != nil {
				WriteError(w, http.StatusBadRequest, "read form field: "+err.Error(), "BAD_REQUEST")
				return
			}
			fields[part.FormName()] = strings.TrimSpace(string(value))
		}

		now := time.Now().UTC()
		rec := jobs.Record{
			ID:        id,
			Status:    jobs.StatusPending,
			Videos:    baseNames(videos),
			Mode:      fields["mode"],
			CreatedAt: now,
			UpdatedAt: now,
		}
		if rec.Mode == "" {
			rec.Mode = string(timeline.ModeSync)
		}

		req, err := buildRequest(cfg, jp, videos, fields)
		if err != nil {
			failJob(cfg, &rec, err.Error())
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		rec.Labels = req.Labels

		if err := cfg.Store.Save(rec); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		plan, err := cfg.Resolver.Resolve(r.Context(), req)
		if err != nil {
			failJob(cfg, &rec, err.Error())
			status, code := resolveErrorStatus(err)
			WriteError(w, status, err.Error(), code)
			return
		}

		result, err := cfg.Renderer.Run(r.Context(), render.JobFromPlan(plan))
		if err != nil {
			failJob(cfg, &rec, err.Error())
			WriteError(w, http.StatusInternalServerError, err.Error(), "RENDER_FAILED")
			return
		}

		rec.Status = jobs.StatusCompleted
		rec.Message = "render complete"
		rec.Output = result.Output
		rec.SyncInstant = plan.Timeline.SyncInstant
		rec.Starts = plan.Timeline.Starts
		rec.Warnings = plan.Warnings()
		rec.UpdatedAt = time.Now().UTC()
		if err := cfg.Store.Save(rec); err != nil {
			cfg.Log.Error().Err(err).Str("job_id", id).Msg("save job record")
		}

		WriteJSON(w, http.StatusOK, SyncResponse{
			JobID:    id,
			Status:   string(jobs.StatusCompleted),
			Message:  "render complete",
			Output:   result.Output,
			Sync:     &SyncWindow{Instant: plan.Timeline.SyncInstant, Starts: plan.Timeline.Starts},
			Warnings: plan.Warnings(),
		})
	}
}

// buildRequest folds the form fields over the configured render defaults.
// Field errors come back ready to serve as 400 responses.
func buildRequest(cfg ServerConfig, jp paths.JobPaths, videos []string, fields map[string]string) (compare.Request, error) {
	req := compare.Request{
		Videos:     videos,
		Output:     jp.OutputFile,
		TileHeight: cfg.Render.TileHeight,
		FrameRate:  cfg.Render.FPS,
		FontFile:   cfg.Render.FontFile,
		CRF:        cfg.Render.CRFValue(),
		Preset:     cfg.Render.Preset,
		Overwrite:  true,
	}

	starts, err := parseStarts(fields["starts"])
	if err != nil {
		return compare.Request{}, err
	}

	mode := timeline.ModeSync
	if v := fields["mode"]; v != "" {
		mode, err = timeline.ParseMode(v)
		if err != nil {
			return compare.Request{}, err
		}
	}
	req.Alignment = timeline.AlignmentSpec{Mode: mode, Values: starts}
	req.Labels = parseLabels(fields["labels"])

	if v := fields["height"]; v != "" {
		h, err := strconv.Atoi(v)
		if err != nil {
			return compare.Request{}, fmt.Errorf("invalid height value %q", v)
		}
		req.TileHeight = h
	}
	if v := fields["fps"]; v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return compare.Request{}, fmt.Errorf("invalid fps value %q", v)
		}
		req.FrameRate = f
	}
	if v := fields["crf"]; v != "" {
		crf, err := strconv.Atoi(v)
		if err != nil {
			return compare.Request{}, fmt.Errorf("invalid crf value %q", v)
		}
		req.CRF = crf
	}
	if v := fields["preset"]; v != "" {
		req.Preset = v
	}

	audio := cfg.Render.Audio
	if v := fields["audio"]; v != "" {
		audio = v
	}
	req.Audio, err = graph.ParseAudioPlan(audio, len(videos))
	if err != nil {
		return compare.Request{}, err
	}

	return req, nil
}

func parseStarts(value string) ([]float64, error) {
	if value == "" {
		return nil, errors.New("starts is required (comma-separated seconds, one per video)")
	}
	pieces := strings.Split(value, ",")
	out := make([]float64, 0, len(pieces))
	for _, piece := range pieces {
		piece = strings.TrimSpace(piece)
		v, err := strconv.ParseFloat(piece, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid starts value %q", piece)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseLabels(value string) []string {
	if value == "" {
		return nil
	}
	pieces := strings.Split(value, ",")
	out := make([]string, len(pieces))
	for i, piece := range pieces {
		out[i] = strings.TrimSpace(piece)
	}
	return out
}

func saveUpload(dst string, src io.Reader) error {
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("save upload: %w", err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return fmt.Errorf("save upload: %w", err)
	}
	return f.Close()
}

func baseNames(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}

// resolveErrorStatus maps pipeline failures onto response codes. Requests
// that fail validation are the caller's fault; clips that cannot be probed
// or aligned are unprocessable; anything else is on us.
func resolveErrorStatus(err error) (int, string) {
	var verr *compare.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, "BAD_REQUEST"
	}
	var perr *media.ProbeError
	if errors.As(err, &perr) {
		return http.StatusUnprocessableEntity, "UNPROCESSABLE"
	}
	var aerr *timeline.AlignmentError
	if errors.As(err, &aerr) {
		return http.StatusUnprocessableEntity, "UNPROCESSABLE"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

func failJob(cfg ServerConfig, rec *jobs.Record, message string) {
	rec.Status = jobs.StatusFailed
	rec.Message = message
	rec.UpdatedAt = time.Now().UTC()
	if err := cfg.Store.Save(*rec); err != nil {
		cfg.Log.Error().Err(err).Str("job_id", rec.ID).Msg("save job record")
	}
}
