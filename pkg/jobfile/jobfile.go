// Package jobfile loads YAML job descriptions for the render and plan
// commands. A job file is the machine-facing request format; command-line
// flags given alongside one override its scalar fields.
package jobfile

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Job mirrors the render command's flag surface. Videos, starts and labels
// are parallel lists in clip order.
type Job struct {
	Videos    []string  `yaml:"videos"`
	Starts    []float64 `yaml:"starts"`
	Mode      string    `yaml:"mode,omitempty"`
	Labels    []string  `yaml:"labels,omitempty"`
	Output    string    `yaml:"output,omitempty"`
	Height    int       `yaml:"height,omitempty"`
	FPS       float64   `yaml:"fps,omitempty"`
	Audio     string    `yaml:"audio,omitempty"`
	Font      string    `yaml:"font,omitempty"`
	CRF       *int      `yaml:"crf,omitempty"`
	Preset    string    `yaml:"preset,omitempty"`
	Overwrite bool      `yaml:"overwrite,omitempty"`
}

// Load reads a job file and checks what the format itself requires: the
// parallel lists must line up and enums must be spelled right. Semantic
// checks (value ranges, files existing) stay with the pipeline so they run
// the same way for every frontend.
func Load(path string) (Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Job{}, fmt.Errorf("read job file: %w", err)
	}

	var job Job
	if err := yaml.Unmarshal(data, &job); err != nil {
		return Job{}, fmt.Errorf("parse job file: %w", err)
	}

	if errs := job.validate(); len(errs) > 0 {
		return job, errs
	}
	return job, nil
}

func (j Job) validate() Errors {
	var errs Errors

	if len(j.Videos) < 2 {
		errs = append(errs, Error{Field: "videos", Message: "at least two videos are required"})
	}
	for i, v := range j.Videos {
		if strings.TrimSpace(v) == "" {
			errs = append(errs, Error{Field: fmt.Sprintf("videos[%d]", i), Message: "path must not be blank"})
		}
	}

	if len(j.Starts) == 0 {
		errs = append(errs, Error{Field: "starts", Message: "starts is required, one value per video"})
	} else if len(j.Starts) != len(j.Videos) {
		errs = append(errs, Error{
			Field:   "starts",
			Message: fmt.Sprintf("got %d values for %d videos", len(j.Starts), len(j.Videos)),
		})
	}

	if len(j.Labels) > 0 && len(j.Labels) != len(j.Videos) {
		errs = append(errs, Error{
			Field:   "labels",
			Message: fmt.Sprintf("got %d labels for %d videos", len(j.Labels), len(j.Videos)),
		})
	}

	if j.Mode != "" && j.Mode != "sync" && j.Mode != "timeline" {
		errs = append(errs, Error{Field: "mode", Message: "mode must be sync or timeline"})
	}

	return errs
}
