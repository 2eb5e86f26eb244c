package render

import (
	"strconv"

	"sidestack/internal/compare"
	"sidestack/internal/graph"
)

// Job carries everything one ffmpeg invocation needs.
type Job struct {
	Inputs    []string
	Output    string
	Graph     graph.Graph
	Total     float64
	CRF       int
	Preset    string
	Overwrite bool
}

// JobFromPlan converts a resolved comparison plan into a render job.
func JobFromPlan(p compare.Plan) Job {
	return Job{
		Inputs:    p.Videos,
		Output:    p.Output,
		Graph:     p.Graph,
		Total:     p.Timeline.Total,
		CRF:       p.CRF,
		Preset:    p.Preset,
		Overwrite: p.Overwrite,
	}
}

// Args builds the ffmpeg argument list for a job. Order matters to
// ffmpeg: inputs first, then the graph and stream maps, encoder settings,
// and the output path last.
func Args(job Job) []string {
	args := []string{"-hide_banner"}
	if job.Overwrite {
		args = append(args, "-y")
	} else {
		args = append(args, "-n")
	}
	for _, input := range job.Inputs {
		args = append(args, "-i", input)
	}

	args = append(args, "-filter_complex", job.Graph.FilterComplex())
	args = append(args, "-map", "["+job.Graph.VideoOut+"]")
	if job.Graph.HasAudio() {
		args = append(args, "-map", "["+job.Graph.AudioOut+"]", "-c:a", "aac", "-b:a", "192k")
	} else {
		args = append(args, "-an")
	}

	return append(args,
		"-t", graph.FormatSeconds(job.Total),
		"-c:v", "libx264",
		"-preset", job.Preset,
		"-crf", strconv.Itoa(job.CRF),
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		job.Output,
	)
}

// Command is Args prefixed with the ffmpeg binary, for display and dry
// runs.
func Command(ffmpeg string, job Job) []string {
	return append([]string{ffmpeg}, Args(job)...)
}
