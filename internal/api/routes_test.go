package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"sidestack/internal/compare"
	"sidestack/internal/config"
	"sidestack/internal/jobs"
	"sidestack/internal/media"
	"sidestack/internal/render"
	"sidestack/internal/timeline"
)

type fakeResolver struct {
	req   compare.Request
	plan  compare.Plan
	err   error
	calls int
}

func (f *fakeResolver) Resolve(_ context.Context, req compare.Request) (compare.Plan, error) {
	f.calls++
	f.req = req
	if f.err != nil {
		return compare.Plan{}, f.err
	}
	plan := f.plan
	if plan.Videos == nil {
		plan.Videos = req.Videos
	}
	if plan.Output == "" {
		plan.Output = req.Output
	}
	return plan, nil
}

type fakeRenderer struct {
	job   render.Job
	err   error
	calls int
}

func (f *fakeRenderer) Run(_ context.Context, job render.Job) (render.Result, error) {
	f.calls++
	f.job = job
	if f.err != nil {
		return render.Result{}, f.err
	}
	return render.Result{Output: job.Output, LogPath: render.LogPath(job.Output)}, nil
}

func testServerConfig(t *testing.T, resolver Resolver, renderer Renderer) (ServerConfig, *jobs.Store) {
	t.Helper()
	store := jobs.NewStore(t.TempDir())
	return ServerConfig{
		Listen:    "127.0.0.1:0",
		Version:   "test",
		StartTime: time.Now(),
		Resolver:  resolver,
		Renderer:  renderer,
		Store:     store,
		Render:    config.Default().Render,
		Log:       zerolog.Nop(),
	}, store
}

type uploadPart struct {
	filename string
	content  string
}

func multipartBody(t *testing.T, uploads []uploadPart, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, u := range uploads {
		fw, err := w.CreateFormFile("videos", u.filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write([]byte(u.content)); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func postSync(t *testing.T, router http.Handler, uploads []uploadPart, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, uploads, fields)
	req := httptest.NewRequest(http.MethodPost, "/sync", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeJSONBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestHealthz(t *testing.T) {
	cfg, _ := testServerConfig(t, &fakeResolver{}, &fakeRenderer{})
	router := NewRouter(cfg)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	body := decodeJSONBody(t, rr)
	if body["status"] != "ok" || body["version"] != "test" {
		t.Fatalf("unexpected body: %v", body)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing X-Request-ID header")
	}
}

func TestSyncRendersAndRecordsJob(t *testing.T) {
	resolver := &fakeResolver{plan: compare.Plan{
		Timeline:  timeline.Plan{Starts: []float64{0, 3}, SyncInstant: 5, Total: 13},
		FrameRate: "30",
	}}
	renderer := &fakeRenderer{}
	cfg, store := testServerConfig(t, resolver, renderer)
	router := NewRouter(cfg)

	rr := postSync(t, router,
		[]uploadPart{{"cam-a.mp4", "clip-a"}, {"cam-b.mov", "clip-b"}},
		map[string]string{"starts": "5, 2"},
	)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	body := decodeJSONBody(t, rr)
	jobID, _ := body["job_id"].(string)
	if !jobs.ValidID(jobID) {
		t.Fatalf("bad job id %q", jobID)
	}
	if body["status"] != "completed" {
		t.Fatalf("status = %v", body["status"])
	}
	sync, ok := body["sync"].(map[string]interface{})
	if !ok || sync["instant"] != 5.0 {
		t.Fatalf("sync block = %v", body["sync"])
	}

	jp := store.Dir(jobID)
	first, err := os.ReadFile(jp.InputFile(0, ".mp4"))
	if err != nil || string(first) != "clip-a" {
		t.Fatalf("first upload not saved: %v %q", err, first)
	}
	if _, err := os.Stat(jp.InputFile(1, ".mov")); err != nil {
		t.Fatalf("second upload should keep its extension: %v", err)
	}

	if resolver.calls != 1 || renderer.calls != 1 {
		t.Fatalf("resolver calls = %d, renderer calls = %d", resolver.calls, renderer.calls)
	}
	if resolver.req.Output != jp.OutputFile || !resolver.req.Overwrite {
		t.Fatalf("unexpected request: %+v", resolver.req)
	}
	if got := resolver.req.Alignment.Values; len(got) != 2 || got[0] != 5 || got[1] != 2 {
		t.Fatalf("starts = %v", got)
	}

	rec, err := store.Load(jobID)
	if err != nil {
		t.Fatalf("load record: %v", err)
	}
	if rec.Status != jobs.StatusCompleted || rec.SyncInstant != 5 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if len(rec.Videos) != 2 || rec.Videos[0] != "video1.mp4" || rec.Videos[1] != "video2.mov" {
		t.Fatalf("record videos = %v", rec.Videos)
	}
}

func TestSyncAppliesFieldOverrides(t *testing.T) {
	resolver := &fakeResolver{}
	cfg, _ := testServerConfig(t, resolver, &fakeRenderer{})
	router := NewRouter(cfg)

	rr := postSync(t, router,
		[]uploadPart{{"a.mp4", "a"}, {"b.mp4", "b"}},
		map[string]string{
			"starts": "5,2",
			"mode":   "timeline",
			"labels": "cam a, cam b",
			"height": "720",
			"fps":    "60",
			"audio":  "mix",
			"crf":    "18",
			"preset": "fast",
		},
	)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	req := resolver.req
	if req.TileHeight != 720 || req.FrameRate != 60 || req.CRF != 18 || req.Preset != "fast" {
		t.Fatalf("overrides not applied: %+v", req)
	}
	if req.Alignment.Mode != timeline.ModeTimeline {
		t.Fatalf("mode = %v", req.Alignment.Mode)
	}
	if !req.Audio.IsMix() {
		t.Fatalf("audio = %v", req.Audio)
	}
	if len(req.Labels) != 2 || req.Labels[0] != "cam a" || req.Labels[1] != "cam b" {
		t.Fatalf("labels = %v", req.Labels)
	}
}

func TestSyncUsesConfiguredDefaults(t *testing.T) {
	resolver := &fakeResolver{}
	cfg, _ := testServerConfig(t, resolver, &fakeRenderer{})
	router := NewRouter(cfg)

	rr := postSync(t, router,
		[]uploadPart{{"a.mp4", "a"}, {"b.mp4", "b"}},
		map[string]string{"starts": "0,0"},
	)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	req := resolver.req
	if req.TileHeight != 1080 || req.FrameRate != 0 || req.CRF != 20 || req.Preset != "medium" {
		t.Fatalf("defaults not applied: %+v", req)
	}
	if !req.Audio.IsNone() || req.Alignment.Mode != timeline.ModeSync {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestSyncRejectsBadStarts(t *testing.T) {
	resolver := &fakeResolver{}
	cfg, _ := testServerConfig(t, resolver, &fakeRenderer{})
	router := NewRouter(cfg)

	rr := postSync(t, router,
		[]uploadPart{{"a.mp4", "a"}, {"b.mp4", "b"}},
		map[string]string{"starts": "5,abc"},
	)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	body := decodeJSONBody(t, rr)
	if !strings.Contains(body["error"].(string), `invalid starts value "abc"`) {
		t.Fatalf("error = %v", body["error"])
	}
	if resolver.calls != 0 {
		t.Fatal("resolver should not run on a field error")
	}
}

func TestSyncValidationFailure(t *testing.T) {
	resolver := &fakeResolver{err: &compare.ValidationError{
		Kind:    compare.KindInvalidHeight,
		Message: "height must be a positive number of pixels",
	}}
	cfg, store := testServerConfig(t, resolver, &fakeRenderer{})
	router := NewRouter(cfg)

	rr := postSync(t, router,
		[]uploadPart{{"a.mp4", "a"}, {"b.mp4", "b"}},
		map[string]string{"starts": "0,0", "height": "-1"},
	)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	body := decodeJSONBody(t, rr)
	jobID := jobIDFromStore(t, store)
	rec, err := store.Load(jobID)
	if err != nil {
		t.Fatalf("load record: %v", err)
	}
	if rec.Status != jobs.StatusFailed || !strings.Contains(rec.Message, "height") {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if !strings.Contains(body["error"].(string), "height") {
		t.Fatalf("error = %v", body["error"])
	}
}

func TestSyncProbeFailureIsUnprocessable(t *testing.T) {
	resolver := &fakeResolver{err: &media.ProbeError{Path: "video1.mp4", Err: context.DeadlineExceeded}}
	cfg, _ := testServerConfig(t, resolver, &fakeRenderer{})
	router := NewRouter(cfg)

	rr := postSync(t, router,
		[]uploadPart{{"a.mp4", "a"}, {"b.mp4", "b"}},
		map[string]string{"starts": "0,0"},
	)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestSyncRenderFailure(t *testing.T) {
	renderer := &fakeRenderer{err: &render.RenderError{Output: "out.mp4", Err: os.ErrPermission}}
	cfg, store := testServerConfig(t, &fakeResolver{}, renderer)
	router := NewRouter(cfg)

	rr := postSync(t, router,
		[]uploadPart{{"a.mp4", "a"}, {"b.mp4", "b"}},
		map[string]string{"starts": "0,0"},
	)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	rec, err := store.Load(jobIDFromStore(t, store))
	if err != nil {
		t.Fatalf("load record: %v", err)
	}
	if rec.Status != jobs.StatusFailed {
		t.Fatalf("record status = %s", rec.Status)
	}
}

func TestJobLifecycle(t *testing.T) {
	cfg, store := testServerConfig(t, &fakeResolver{}, &fakeRenderer{})
	router := NewRouter(cfg)

	rec := jobs.Record{ID: jobs.NewID(), Status: jobs.StatusCompleted, Mode: "sync", Videos: []string{"video1.mp4"}}
	if err := store.Save(rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/"+rec.ID, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr.Code)
	}
	body := decodeJSONBody(t, rr)
	if body["status"] != "completed" {
		t.Fatalf("body = %v", body)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/not-a-job-id", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid id status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/"+jobs.NewID(), nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown id status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/jobs/"+rec.ID, nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/"+rec.ID, nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", rr.Code)
	}
}

func jobIDFromStore(t *testing.T, store *jobs.Store) string {
	t.Helper()
	entries, err := os.ReadDir(store.Root())
	if err != nil {
		t.Fatalf("read jobs root: %v", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	if len(ids) != 1 {
		t.Fatalf("expected exactly one job dir, got %v", ids)
	}
	return ids[0]
}
