package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sidestack/internal/compare"
	"sidestack/internal/logging"
	"sidestack/internal/media"
	"sidestack/internal/render"
	"sidestack/internal/timeline"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Resolve the timeline and print what render would run",
		Long: "Plan probes the inputs, resolves the shared timeline, and prints the\n" +
			"placement table, filter graph, and ffmpeg command without rendering.",
		RunE: runPlan,
	}
	addRequestFlags(cmd)
	return cmd
}

func runPlan(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	req, err := buildRequest(cfg)
	if err != nil {
		return err
	}

	resolver := compare.NewService(media.NewFFprobe(cfg.Tools.FFprobe, media.CmdRunner{}), logging.WithComponent("compare"))
	plan, err := resolver.Resolve(cmd.Context(), req)
	if err != nil {
		return err
	}

	argv := render.Command(cfg.Tools.FFmpeg, render.JobFromPlan(plan))

	if outputJSON {
		return writePlanJSON(cmd, req, plan, argv)
	}
	writePlanText(cmd.OutOrStdout(), req, plan, argv)
	return nil
}

func writePlanText(out io.Writer, req compare.Request, plan compare.Plan, argv []string) {
	names := clipNames(plan.Videos)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CLIP\tSTART\tDURATION\tFPS\tAUDIO")
	for i, clip := range plan.Clips {
		fps := "-"
		if clip.FrameRateKnown() {
			fps = timeline.FormatFrameRate(clip.FrameRate)
		}
		audio := "no"
		if clip.HasAudio {
			audio = "yes"
		}
		fmt.Fprintf(tw, "%s\t%.2fs\t%.2fs\t%s\t%s\n",
			names[i], plan.Timeline.Starts[i], clip.Duration, fps, audio)
	}
	tw.Flush()

	fmt.Fprintf(out, "\nmode: %s\n", plan.Mode)
	if plan.Mode == timeline.ModeSync {
		fmt.Fprintf(out, "sync instant: %.3fs\n", plan.Timeline.SyncInstant)
	}
	fmt.Fprintf(out, "total: %.2fs\n", plan.Timeline.Total)
	fmt.Fprintf(out, "fps: %s\n", plan.FrameRate)
	fmt.Fprintf(out, "audio: %s\n", req.Audio)
	for _, warning := range plan.Warnings() {
		fmt.Fprintf(out, "warning: %s\n", warning)
	}

	fmt.Fprintf(out, "\nfilter graph:\n%s\n", plan.Graph.FilterComplex())
	fmt.Fprintf(out, "\ncommand:\n%s\n", shellJoin(argv))
}

type planClipPayload struct {
	Path      string  `json:"path"`
	Start     float64 `json:"start"`
	Duration  float64 `json:"duration"`
	FrameRate float64 `json:"frame_rate,omitempty"`
	HasAudio  bool    `json:"has_audio"`
}

type planPayload struct {
	Clips       []planClipPayload `json:"clips"`
	Mode        string            `json:"mode"`
	SyncInstant float64           `json:"sync_instant"`
	Total       float64           `json:"total_duration"`
	FrameRate   string            `json:"frame_rate"`
	Audio       string            `json:"audio"`
	HasAudio    bool              `json:"has_audio"`
	Warnings    []string          `json:"warnings,omitempty"`
	FilterGraph string            `json:"filter_graph"`
	Command     []string          `json:"command"`
}

func writePlanJSON(cmd *cobra.Command, req compare.Request, plan compare.Plan, argv []string) error {
	clips := make([]planClipPayload, len(plan.Clips))
	for i, clip := range plan.Clips {
		clips[i] = planClipPayload{
			Path:     plan.Videos[i],
			Start:    plan.Timeline.Starts[i],
			Duration: clip.Duration,
			HasAudio: clip.HasAudio,
		}
		// An unknown rate is NaN, which encoding/json refuses to encode.
		if clip.FrameRateKnown() {
			clips[i].FrameRate = clip.FrameRate
		}
	}

	payload := planPayload{
		Clips:       clips,
		Mode:        string(plan.Mode),
		SyncInstant: plan.Timeline.SyncInstant,
		Total:       plan.Timeline.Total,
		FrameRate:   plan.FrameRate,
		Audio:       req.Audio.String(),
		HasAudio:    plan.Graph.HasAudio(),
		Warnings:    plan.Warnings(),
		FilterGraph: plan.Graph.FilterComplex(),
		Command:     argv,
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
