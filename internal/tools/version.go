package tools

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"sidestack/internal/media"
)

// versionPattern matches the leading numeric release in an ffmpeg banner
// line, e.g. "ffmpeg version 6.1.1-3ubuntu5" or "ffmpeg version n7.0".
var versionPattern = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?(?:\.[0-9]+)?`)

func readVersion(ctx context.Context, runner media.Runner, path string) (string, error) {
	res, err := runner.Run(ctx, path, []string{"-version"}, media.RunOptions{})
	if err != nil {
		return "", fmt.Errorf("%s -version: %w", path, err)
	}

	line := firstLine(strings.TrimSpace(string(res.Stdout)))
	if match := versionPattern.FindString(line); match != "" {
		return match, nil
	}
	return line, nil
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[:idx]
	}
	return text
}

// meetsMinimum compares dotted numeric versions, padding the shorter side
// with zeros. Non-numeric fragments are skipped, so "n7.0" reads as 7.0.
func meetsMinimum(version, minimum string) bool {
	if minimum == "" {
		return true
	}
	if version == "" {
		return false
	}

	vParts := numericParts(version)
	mParts := numericParts(minimum)
	for len(vParts) < len(mParts) {
		vParts = append(vParts, 0)
	}
	for len(mParts) < len(vParts) {
		mParts = append(mParts, 0)
	}
	for i := range vParts {
		if vParts[i] > mParts[i] {
			return true
		}
		if vParts[i] < mParts[i] {
			return false
		}
	}
	return true
}

func numericParts(version string) []int {
	var parts []int
	current := strings.Builder{}
	for _, r := range version {
		if r >= '0' && r <= '9' {
			current.WriteRune(r)
			continue
		}
		if current.Len() > 0 {
			val, _ := strconv.Atoi(current.String())
			parts = append(parts, val)
			current.Reset()
		}
	}
	if current.Len() > 0 {
		val, _ := strconv.Atoi(current.String())
		parts = append(parts, val)
	}
	return parts
}
