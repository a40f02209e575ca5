package contextpp

import (
	"fmt"
	"strings"
)

// RenderLineNumbers formats lines with 4-wide right-aligned line numbers,
// starting at firstLine (1-based), per spec §4.4 step 6.
func RenderLineNumbers(lines []string, firstLine int) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = fmt.Sprintf("%4d | %s", firstLine+i, l)
	}
	return out
}

// TruncateHeadTail shrinks lines to fit budget tokens using a head-tail split
// (~80% head, ~20% tail), inserting a single "... (K lines omitted) ..."
// placeholder between the two halves, and keeps the largest surviving
// head+tail that still fits (spec §4.4 step 5). It reports whether any
// truncation occurred.
func TruncateHeadTail(lines []string, tok Tokenizer, budget int) ([]string, bool) {
	if tok.Count(strings.Join(lines, "\n")) <= budget {
		return lines, false
	}
	n := len(lines)
	for k := n - 1; k >= 0; k-- {
		head := ceilFrac(k, 80)
		tail := k - head
		omitted := n - k
		candidate := buildHeadTail(lines, head, tail, omitted)
		if tok.Count(strings.Join(candidate, "\n")) <= budget {
			return candidate, true
		}
	}
	return []string{fmt.Sprintf("... (%d lines omitted) ...", n)}, true
}

func ceilFrac(k, pct int) int {
	return (k*pct + 99) / 100
}

func buildHeadTail(lines []string, head, tail, omitted int) []string {
	out := make([]string, 0, head+tail+1)
	out = append(out, lines[:head]...)
	if omitted > 0 {
		out = append(out, fmt.Sprintf("... (%d lines omitted) ...", omitted))
	}
	if tail > 0 {
		out = append(out, lines[len(lines)-tail:]...)
	}
	return out
}
