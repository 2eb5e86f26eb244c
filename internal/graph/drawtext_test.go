package graph

import (
	"strings"
	"testing"
)

func drawtextString(label string, height int, fontFile string) string {
	g := Graph{Fragments: []Fragment{{Filters: []Filter{Drawtext(label, height, fontFile)}}}}
	return g.FilterComplex()
}

func TestDrawtextGeometryScalesWithHeight(t *testing.T) {
	got := drawtextString("A", 1080, "")

	expectations := []string{
		"drawtext=text='A'",
		"fontsize=54",
		"boxborderw=16",
		"y=h-text_h-32",
	}
	for _, expected := range expectations {
		if !strings.Contains(got, expected) {
			t.Fatalf("expected %q in %q", expected, got)
		}
	}
}

func TestDrawtextGeometryFloorsForTinyTiles(t *testing.T) {
	got := drawtextString("A", 100, "")

	expectations := []string{
		"fontsize=14",
		"boxborderw=4",
		"y=h-text_h-8",
	}
	for _, expected := range expectations {
		if !strings.Contains(got, expected) {
			t.Fatalf("expected %q in %q", expected, got)
		}
	}
}

func TestDrawtextFontFileComesFirst(t *testing.T) {
	got := drawtextString("A", 720, "/fonts/Sans.ttf")
	if !strings.HasPrefix(got, "drawtext=fontfile='/fonts/Sans.ttf':text='A':") {
		t.Fatalf("unexpected option order: %q", got)
	}
}

func TestEscapeDrawText(t *testing.T) {
	cases := map[string]string{
		"plain":                 "plain",
		"It's 100%":             `It\'s 100\%`,
		"a:b,c":                 `a\:b\,c`,
		"[tag]":                 `\[tag\]`,
		`back\slash`:            `back\\slash`,
		"line1\r\nline2":        `line1\nline2`,
		"line1\rline2\nline3":   `line1\nline2\nline3`,
		"Don't stop, believin'": `Don\'t stop\, believin\'`,
	}
	for input, expected := range cases {
		if got := EscapeDrawText(input); got != expected {
			t.Fatalf("EscapeDrawText(%q) = %q; want %q", input, got, expected)
		}
	}
}

func TestEscapeFilterPath(t *testing.T) {
	got := EscapeFilterPath("/fonts/My Font's: Regular.ttf")
	want := `/fonts/My Font\'s\: Regular.ttf`
	if got != want {
		t.Fatalf("EscapeFilterPath = %q; want %q", got, want)
	}
}
