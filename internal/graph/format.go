package graph

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatSeconds renders a non-negative duration as a compact decimal for
// filter and argument values ("1.5", "10", "0.033333"). Six digits of
// precision, trailing zeros stripped. Callers validate sign before times
// reach graph construction, so a negative value is a programming error
// and panics.
func FormatSeconds(seconds float64) string {
	if seconds < 0 {
		panic(fmt.Sprintf("graph: negative time value %v", seconds))
	}
	s := strconv.FormatFloat(seconds, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" {
		return "0"
	}
	return s
}
