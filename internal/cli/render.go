package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"sidestack/internal/compare"
	"sidestack/internal/config"
	"sidestack/internal/graph"
	"sidestack/internal/logging"
	"sidestack/internal/media"
	"sidestack/internal/paths"
	"sidestack/internal/render"
	"sidestack/internal/timeline"
	"sidestack/internal/tui"
	"sidestack/pkg/jobfile"
)

// render and plan accept the same job description; these vars back the
// shared flag surface registered by addRequestFlags.
var (
	reqVideos    []string
	reqStarts    []float64
	reqMode      string
	reqLabels    []string
	reqOutput    string
	reqHeight    int
	reqFPS       float64
	reqAudio     string
	reqFont      string
	reqCRF       int
	reqPreset    string
	reqOverwrite bool
	reqPlanFile  string

	renderPrintCmd   bool
	renderNoProgress bool
)

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Probe, align, and render the side-by-side comparison",
		RunE:  runRender,
	}
	addRequestFlags(cmd)
	cmd.Flags().BoolVar(&renderPrintCmd, "print-cmd", false, "Print the filter graph and ffmpeg command before rendering")
	cmd.Flags().BoolVar(&renderNoProgress, "no-progress", false, "Disable the live progress table")
	return cmd
}

func addRequestFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringArrayVar(&reqVideos, "video", nil, "Input video file (repeat per clip; order fixes tile order)")
	flags.Float64SliceVar(&reqStarts, "start", nil, "Alignment value in seconds, one per video")
	flags.StringVar(&reqMode, "mode", "", "Alignment mode: sync or timeline (default sync)")
	flags.StringArrayVar(&reqLabels, "label", nil, "Overlay label, one per video (empty string skips a tile)")
	flags.StringVarP(&reqOutput, "output", "o", "", "Output file path")
	flags.IntVar(&reqHeight, "height", 0, "Tile height in pixels")
	flags.Float64Var(&reqFPS, "fps", 0, "Output frame rate (default: highest input rate)")
	flags.StringVar(&reqAudio, "audio", "", "Audio routing: none, mix, or videoN")
	flags.StringVar(&reqFont, "font", "", "Font file for labels")
	flags.IntVar(&reqCRF, "crf", -1, "libx264 quality, 0 to 51 (lower is better)")
	flags.StringVar(&reqPreset, "preset", "", "libx264 speed preset")
	flags.BoolVar(&reqOverwrite, "overwrite", false, "Replace the output file if it exists")
	flags.StringVar(&reqPlanFile, "plan", "", "YAML job file; flags override its fields")
}

// buildRequest layers the request sources: config defaults, then the job
// file when --plan names one, then explicit flags. Sentinel flag defaults
// (empty, zero, -1 for crf) mean "not set here".
func buildRequest(cfg config.Config) (compare.Request, error) {
	videos := reqVideos
	starts := reqStarts
	mode := reqMode
	labels := reqLabels
	output := reqOutput
	height := reqHeight
	fps := reqFPS
	audio := reqAudio
	font := reqFont
	crf := reqCRF
	preset := reqPreset
	overwrite := reqOverwrite

	if reqPlanFile != "" {
		job, err := jobfile.Load(paths.ExpandUser(reqPlanFile))
		if err != nil {
			return compare.Request{}, err
		}
		if len(videos) == 0 {
			videos = job.Videos
		}
		if len(starts) == 0 {
			starts = job.Starts
		}
		if mode == "" {
			mode = job.Mode
		}
		if len(labels) == 0 {
			labels = job.Labels
		}
		if output == "" {
			output = job.Output
		}
		if height == 0 {
			height = job.Height
		}
		if fps == 0 {
			fps = job.FPS
		}
		if audio == "" {
			audio = job.Audio
		}
		if font == "" {
			font = job.Font
		}
		if crf < 0 && job.CRF != nil {
			crf = *job.CRF
		}
		if preset == "" {
			preset = job.Preset
		}
		overwrite = overwrite || job.Overwrite
	}

	if mode == "" {
		mode = string(timeline.ModeSync)
	}
	if height == 0 {
		height = cfg.Render.TileHeight
	}
	if fps == 0 {
		fps = cfg.Render.FPS
	}
	if audio == "" {
		audio = cfg.Render.Audio
	}
	if font == "" {
		font = cfg.Render.FontFile
	}
	if crf < 0 {
		crf = cfg.Render.CRFValue()
	}
	if preset == "" {
		preset = cfg.Render.Preset
	}

	parsedMode, err := timeline.ParseMode(mode)
	if err != nil {
		return compare.Request{}, err
	}
	audioPlan, err := graph.ParseAudioPlan(audio, len(videos))
	if err != nil {
		return compare.Request{}, err
	}

	return compare.Request{
		Videos:     videos,
		Alignment:  timeline.AlignmentSpec{Mode: parsedMode, Values: starts},
		Labels:     labels,
		Output:     output,
		TileHeight: height,
		FrameRate:  fps,
		Audio:      audioPlan,
		FontFile:   font,
		CRF:        crf,
		Preset:     preset,
		Overwrite:  overwrite,
	}, nil
}

func runRender(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	req, err := buildRequest(cfg)
	if err != nil {
		return err
	}

	runner := media.CmdRunner{}
	resolver := compare.NewService(media.NewFFprobe(cfg.Tools.FFprobe, runner), logging.WithComponent("compare"))
	renderer := render.NewService(cfg.Tools.FFmpeg, runner, logging.WithComponent("render"))

	// --print-cmd output interleaves badly with the live table.
	mode := tui.DetectMode(cmd.OutOrStdout(), renderNoProgress || renderPrintCmd, outputJSON)
	if mode == tui.ModeTUI {
		return renderWithProgress(cmd, resolver, renderer, req)
	}
	return renderPlain(cmd, resolver, renderer, cfg.Tools.FFmpeg, req, mode == tui.ModeJSON)
}

type renderOutcome struct {
	plan   compare.Plan
	result render.Result
}

func renderWithProgress(cmd *cobra.Command, resolver *compare.Service, renderer *render.Service, req compare.Request) error {
	names := clipNames(req.Videos)
	model := tui.NewModel(names)

	// Buffered so the work goroutine never blocks if the user quits the
	// program before the pipeline finishes.
	done := make(chan renderOutcome, 1)
	err := tui.RunWithWork(cmd.OutOrStdout(), model, func(send func(tea.Msg)) {
		resolver.SetReporter(tui.NewPipelineReporter(send, names))

		plan, workErr := resolver.Resolve(cmd.Context(), req)
		if workErr != nil {
			send(tui.ErrorMsg{Err: workErr})
			return
		}
		result, workErr := renderer.Run(cmd.Context(), render.JobFromPlan(plan))
		if workErr != nil {
			send(tui.ErrorMsg{Err: workErr})
			return
		}
		done <- renderOutcome{plan: plan, result: result}
	})
	if err != nil {
		return err
	}

	select {
	case outcome := <-done:
		writeRenderSummary(cmd.OutOrStdout(), outcome.plan, outcome.result)
	default:
		// Interactive quit before the render finished.
	}
	return nil
}

func renderPlain(cmd *cobra.Command, resolver *compare.Service, renderer *render.Service, ffmpeg string, req compare.Request, jsonOut bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	plan, err := resolver.Resolve(ctx, req)
	if err != nil {
		return err
	}
	job := render.JobFromPlan(plan)

	if renderPrintCmd {
		fmt.Fprintln(out, plan.Graph.FilterComplex())
		fmt.Fprintln(out, shellJoin(render.Command(ffmpeg, job)))
	}

	result, err := renderer.Run(ctx, job)
	if err != nil {
		return err
	}

	if jsonOut {
		return writeRenderJSON(cmd, plan, result)
	}
	writeRenderSummary(out, plan, result)
	return nil
}

// writeRenderSummary prints the success line and, in sync mode, where the
// shared moment landed on the output timeline.
func writeRenderSummary(out io.Writer, plan compare.Plan, result render.Result) {
	fmt.Fprintf(out, "Done. Wrote: %s\n", result.Output)
	if plan.Mode != timeline.ModeSync {
		return
	}
	starts := make([]string, len(plan.Timeline.Starts))
	for i, s := range plan.Timeline.Starts {
		starts[i] = fmt.Sprintf("video%d=%.2fs", i+1, s)
	}
	fmt.Fprintf(out, "Sync instant at t=%.3fs; starts: %s\n",
		plan.Timeline.SyncInstant, strings.Join(starts, ", "))
}

type renderResultPayload struct {
	Output      string    `json:"output"`
	LogPath     string    `json:"log_path"`
	Mode        string    `json:"mode"`
	SyncInstant float64   `json:"sync_instant"`
	Starts      []float64 `json:"starts"`
	Total       float64   `json:"total_duration"`
	FrameRate   string    `json:"frame_rate"`
	HasAudio    bool      `json:"has_audio"`
	Warnings    []string  `json:"warnings,omitempty"`
	ElapsedMS   int64     `json:"elapsed_ms"`
}

func writeRenderJSON(cmd *cobra.Command, plan compare.Plan, result render.Result) error {
	payload := renderResultPayload{
		Output:      result.Output,
		LogPath:     result.LogPath,
		Mode:        string(plan.Mode),
		SyncInstant: plan.Timeline.SyncInstant,
		Starts:      plan.Timeline.Starts,
		Total:       plan.Timeline.Total,
		FrameRate:   plan.FrameRate,
		HasAudio:    plan.Graph.HasAudio(),
		Warnings:    plan.Warnings(),
		ElapsedMS:   result.Elapsed.Milliseconds(),
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// clipNames returns the base name of each input for display. Duplicate
// base names (the same filename from two source directories) get an
// ordinal prefix so progress rows stay distinguishable.
func clipNames(videos []string) []string {
	names := make([]string, len(videos))
	seen := make(map[string]int, len(videos))
	for i, v := range videos {
		names[i] = filepath.Base(v)
		seen[names[i]]++
	}
	for i, name := range names {
		if seen[name] > 1 {
			names[i] = fmt.Sprintf("%d:%s", i+1, name)
		}
	}
	return names
}

// shellJoin renders an argv for copy-paste, quoting anything the shell
// would split or interpret.
func shellJoin(args []string) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		if arg != "" && !strings.ContainsAny(arg, " \t\n'\"\\;$&|<>()[]{}*?#~`") {
			parts[i] = arg
			continue
		}
		parts[i] = "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
	}
	return strings.Join(parts, " ")
}
