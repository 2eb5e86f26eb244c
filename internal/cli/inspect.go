package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sidestack/internal/media"
	"sidestack/internal/paths"
	"sidestack/internal/timeline"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE...",
		Short: "Probe media files and print duration, frame rate, and audio",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runInspect,
	}
}

type inspectRow struct {
	Path      string  `json:"path"`
	Duration  float64 `json:"duration"`
	FrameRate float64 `json:"frame_rate,omitempty"`
	HasAudio  bool    `json:"has_audio"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	prober := media.NewFFprobe(cfg.Tools.FFprobe, media.CmdRunner{})

	var (
		rows []inspectRow
		errs []error
	)
	for _, arg := range args {
		desc, err := prober.Probe(cmd.Context(), paths.ExpandUser(arg))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		row := inspectRow{Path: arg, Duration: desc.Duration, HasAudio: desc.HasAudio}
		// An unknown rate is NaN, which encoding/json refuses to encode.
		if desc.FrameRateKnown() {
			row.FrameRate = desc.FrameRate
		}
		rows = append(rows, row)
	}

	if outputJSON {
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return errors.Join(errs...)
	}

	if len(rows) > 0 {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "FILE\tDURATION\tFPS\tAUDIO")
		for _, row := range rows {
			fps := "-"
			if row.FrameRate > 0 {
				fps = timeline.FormatFrameRate(row.FrameRate)
			}
			audio := "no"
			if row.HasAudio {
				audio = "yes"
			}
			fmt.Fprintf(tw, "%s\t%.2fs\t%s\t%s\n", row.Path, row.Duration, fps, audio)
		}
		tw.Flush()
	}
	return errors.Join(errs...)
}
