package graph

import (
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"sidestack/internal/paths"
)

var (
	// Line endings are normalized first so CRLF input renders as a
	// single break after escaping.
	newlineNormalizer = strings.NewReplacer("\r\n", "\n", "\r", "\n")
	drawtextEscaper   = strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`:`, `\:`,
		`,`, `\,`,
		`%`, `\%`,
		`[`, `\[`,
		`]`, `\]`,
		"\n", `\n`,
	)
)

// EscapeDrawText escapes label text for a drawtext text='...' field.
func EscapeDrawText(text string) string {
	return drawtextEscaper.Replace(newlineNormalizer.Replace(text))
}

// EscapeFilterPath prepares a file path for use inside a filter argument
// such as fontfile='...': absolute, forward slashes, with ':' and quotes
// escaped.
func EscapeFilterPath(path string) string {
	s := filepath.ToSlash(paths.Absolute(path))
	s = strings.ReplaceAll(s, ":", `\:`)
	return strings.ReplaceAll(s, "'", `\'`)
}

// Drawtext builds the label overlay for one tile: centered text in a
// translucent box near the bottom edge, sized relative to the tile
// height with floors that keep small tiles legible.
func Drawtext(label string, height int, fontFile string) Filter {
	fontSize := max(14, int(math.Round(float64(height)*0.05)))
	bottomMargin := max(8, int(math.Round(float64(height)*0.03)))
	boxBorder := max(4, int(math.Round(float64(height)*0.015)))

	args := make([]Arg, 0, 9)
	if fontFile != "" {
		args = append(args, Arg{Key: "fontfile", Value: "'" + EscapeFilterPath(fontFile) + "'"})
	}
	args = append(args,
		Arg{Key: "text", Value: "'" + EscapeDrawText(label) + "'"},
		Arg{Key: "fontsize", Value: strconv.Itoa(fontSize)},
		Arg{Key: "fontcolor", Value: "white"},
		Arg{Key: "box", Value: "1"},
		Arg{Key: "boxcolor", Value: "black@0.5"},
		Arg{Key: "boxborderw", Value: strconv.Itoa(boxBorder)},
		Arg{Key: "x", Value: "(w-text_w)/2"},
		Arg{Key: "y", Value: "h-text_h-" + strconv.Itoa(bottomMargin)},
	)
	return Filter{Name: "drawtext", Args: args}
}
