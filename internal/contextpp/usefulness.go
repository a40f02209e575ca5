package contextpp

import (
	"math"
	"strings"
)

// Per-line usefulness constants from spec §4.4 ("Full-blown AST-driven
// post-processing").
const (
	BackgroundUsefulness   = 5.0
	SymbolDefaultUsefulness = 10.0
	DowngradeParentCoef    = 0.6
	DowngradeBodyCoef      = 0.8
)

// Symbol is a span in a file attributed to a named AST symbol, optionally
// nested under a parent symbol. Line numbers are 1-based inclusive.
type Symbol struct {
	Name      string
	Path      []string // dotted symbol path, root-to-leaf
	StartLine int
	EndLine   int
	// BodyStart/BodyEnd delimit the symbol's body (as opposed to its
	// declaration line); zero means the whole span is the declaration.
	BodyStart int
	BodyEnd   int
	Parent    *Symbol
}

// ScoreUsefulness assigns a per-line usefulness score (1-indexed; index 0 is
// unused) to every line of a file given the symbols matched by the tool call
// that requested it. Lines outside any matched symbol keep the background
// score; matched symbol bodies start at SymbolDefaultUsefulness; a matched
// symbol's parent scope is boosted in proportion to the ratio of its path
// depth to the matched symbol's, scaled by DowngradeParentCoef (spec §4.4
// "Parent of a matched symbol…").
func ScoreUsefulness(totalLines int, symbols []Symbol, matched map[string]bool, maxUseful float64) []float64 {
	useful := make([]float64, totalLines+1)
	for i := range useful {
		useful[i] = BackgroundUsefulness
	}
	for _, sym := range symbols {
		if !matched[sym.Name] {
			continue
		}
		setRange(useful, sym.StartLine, sym.EndLine, SymbolDefaultUsefulness, totalLines)
		if sym.Parent != nil {
			parentLen := len(sym.Parent.Path)
			childLen := len(sym.Path)
			if childLen == 0 {
				childLen = 1
			}
			val := SymbolDefaultUsefulness +
				(maxUseful-SymbolDefaultUsefulness)*(float64(parentLen)/float64(childLen))*DowngradeParentCoef
			boostRange(useful, sym.Parent.StartLine, sym.Parent.EndLine, val, totalLines)
		}
	}
	return useful
}

func setRange(useful []float64, start, end int, val float64, totalLines int) {
	for line := start; line <= end; line++ {
		if line < 1 || line > totalLines {
			continue
		}
		useful[line] = val
	}
}

func boostRange(useful []float64, start, end int, val float64, totalLines int) {
	for line := start; line <= end; line++ {
		if line < 1 || line > totalLines {
			continue
		}
		if val > useful[line] {
			useful[line] = val
		}
	}
}

// DowngradeBody multiplies every line of a symbol's body by
// DowngradeBodyCoef, except the first/last line when it contains only a
// closing bracket (spec §4.4 "Bodies are multiplied by…").
func DowngradeBody(lines []string, useful []float64, bodyStart, bodyEnd int) {
	for line := bodyStart; line <= bodyEnd; line++ {
		if line < 1 || line > len(lines) || line >= len(useful) {
			continue
		}
		if line == bodyStart || line == bodyEnd {
			trimmed := strings.TrimSpace(lines[line-1])
			if isClosingBracketOnly(trimmed) {
				continue
			}
		}
		useful[line] *= DowngradeBodyCoef
	}
}

func isClosingBracketOnly(s string) bool {
	switch s {
	case "}", ")", "]", "});", "})", "end":
		return true
	default:
		return false
	}
}

// CloseGaps closes one-line usefulness dips: for each interior line, the
// score becomes max(current, min(left-neighbor, right-neighbor)), so an
// isolated low-usefulness line between two highly useful lines is pulled up
// rather than creating a single-line hole in otherwise-included context
// (spec §4.4 "Gap-closing").
func CloseGaps(useful []float64) {
	n := len(useful)
	if n < 4 {
		return
	}
	prev := append([]float64(nil), useful...)
	for i := 2; i < n-1; i++ {
		l, r, m := prev[i-1], prev[i+1], prev[i]
		useful[i] = math.Max(m, math.Min(l, r))
	}
}
