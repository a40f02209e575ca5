package patch

import "fmt"

// DiffChunk is the canonical, file-applicable result of parsing a model diff
// (spec §4.8), mirroring the original implementation's DiffChunk struct
// field-for-field so the application step (Apply) can stay dialect-agnostic.
//
// Line1/Line2 are 1-based inclusive line ranges in the BEFORE file, per the
// spec's wire contract. A pure insertion (no removed lines) is represented
// by Line2 == Line1-1, meaning "insert before line Line1" with nothing
// removed.
type DiffChunk struct {
	FileName string
	// FileAction is one of "edit", "add", "remove", or "rename".
	FileAction     string
	Line1, Line2   int
	LinesRemove    string
	LinesAdd       string
	FileNameRename string
	IsFile         bool
	ApplicationDetails string
}

// ApplyToLines applies the chunk to a copy of the given 0-based lines,
// returning the resulting lines. Lines are plain strings with no trailing
// newline.
func (c DiffChunk) ApplyToLines(lines []string) ([]string, error) {
	start := c.Line1 - 1 // 0-based first removed line (or insertion point if empty range)
	end := c.Line2       // 0-based exclusive end: Line2 is 1-based inclusive, so it equals the half-open end
	if start < 0 || end < start-1 || end > len(lines) {
		return nil, fmt.Errorf("patch: chunk range [%d,%d] out of bounds for %d lines", c.Line1, c.Line2, len(lines))
	}
	if end < start {
		end = start // empty removal range (pure insertion)
	}
	var add []string
	if c.LinesAdd != "" {
		add = splitLinesKeepEmpty(c.LinesAdd)
	}
	out := make([]string, 0, len(lines)-(end-start)+len(add))
	out = append(out, lines[:start]...)
	out = append(out, add...)
	out = append(out, lines[end:]...)
	return out, nil
}

// ApplyChunksToFile applies a sequence of chunks (all for the same file) in
// order, translating each chunk's original-file coordinates against the
// running result. Chunks must be sorted by Line1 ascending and must not
// overlap, which the parsers guarantee by construction.
func ApplyChunksToFile(original string, chunks []DiffChunk) (string, error) {
	lines := splitLinesKeepEmpty(original)
	offset := 0
	for _, c := range chunks {
		shifted := c
		shifted.Line1 += offset
		shifted.Line2 += offset
		next, err := shifted.ApplyToLines(lines)
		if err != nil {
			return "", err
		}
		offset += len(next) - len(lines)
		lines = next
	}
	return joinLines(lines), nil
}
