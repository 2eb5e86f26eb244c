package cli

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"sidestack/internal/config"
	"sidestack/internal/paths"
	"sidestack/internal/tools"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check tools and configuration health",
		RunE:  runDoctor,
	}
}

type healthCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Summary string `json:"summary"`
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	cfg, cfgErr := loadConfig()
	if cfgErr != nil {
		// Tool detection still runs with built-in defaults.
		cfg = config.Default()
	}

	var checks []healthCheck
	checks = append(checks, checkTools(cmd, cfg))
	checks = append(checks, checkConfigFile(cfg, cfgErr))
	checks = append(checks, checkJobsRoot(cfg))

	return writeDoctorResult(cmd, checks)
}

func checkTools(cmd *cobra.Command, cfg config.Config) healthCheck {
	infos := tools.Probe(cmd.Context(), cfg.Tools, nil)

	var satisfied int
	var found []string
	for _, info := range infos {
		if info.Satisfied {
			satisfied++
			label := info.Name
			if info.Version != "" {
				label += " " + info.Version
			}
			found = append(found, label)
		}
	}

	if satisfied == len(infos) {
		return healthCheck{Name: "Tools", Status: "ok", Summary: joinComma(found)}
	}

	var problems []string
	for _, info := range infos {
		if !info.Satisfied && info.Error != "" {
			problems = append(problems, info.Error)
		}
	}
	return healthCheck{Name: "Tools", Status: "error", Summary: joinComma(problems)}
}

func checkConfigFile(cfg config.Config, cfgErr error) healthCheck {
	if cfgErr != nil {
		return healthCheck{Name: "Config", Status: "error", Summary: cfgErr.Error()}
	}

	findings := cfg.Validate()
	var warnings, errors int
	for _, f := range findings {
		switch f.Level {
		case "warning":
			warnings++
		case "error":
			errors++
		}
	}

	summary := fmt.Sprintf("tile height %dp, crf %d, preset %s",
		cfg.Render.TileHeight, cfg.Render.CRFValue(), cfg.Render.Preset)

	if errors > 0 {
		return healthCheck{Name: "Config", Status: "error", Summary: fmt.Sprintf("%s; %d errors", summary, errors)}
	}
	if warnings > 0 {
		return healthCheck{Name: "Config", Status: "warning", Summary: fmt.Sprintf("%s; %d warnings", summary, warnings)}
	}
	return healthCheck{Name: "Config", Status: "ok", Summary: summary}
}

func checkJobsRoot(cfg config.Config) healthCheck {
	exists, err := paths.DirExists(cfg.Serve.JobsDir)
	if err != nil {
		return healthCheck{Name: "Jobs dir", Status: "warning", Summary: err.Error()}
	}
	if !exists {
		return healthCheck{Name: "Jobs dir", Status: "ok", Summary: cfg.Serve.JobsDir + " (created on first job)"}
	}
	return healthCheck{Name: "Jobs dir", Status: "ok", Summary: cfg.Serve.JobsDir}
}

func writeDoctorResult(cmd *cobra.Command, checks []healthCheck) error {
	if outputJSON {
		data, err := json.MarshalIndent(checks, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	bold := lipgloss.NewStyle().Bold(true).Inline(true)
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Inline(true)
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Inline(true)
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Inline(true)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, bold.Render("ENVIRONMENT:")+" "+configFilePath())

	for _, c := range checks {
		var statusStr string
		switch c.Status {
		case "ok":
			statusStr = green.Render("OK")
		case "warning":
			statusStr = yellow.Render("WARN")
		case "error":
			statusStr = red.Render("ERROR")
		}
		fmt.Fprintf(out, "  %-10s %s    %s\n", c.Name+":", statusStr, c.Summary)
	}

	return nil
}

func joinComma(items []string) string {
	if len(items) == 0 {
		return ""
	}
	result := items[0]
	for _, item := range items[1:] {
		result += ", " + item
	}
	return result
}
