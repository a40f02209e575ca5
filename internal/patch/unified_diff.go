package patch

import (
	"fmt"
	"strings"
)

// rawEdit is one fenced ```diff``` block extracted from a model message,
// mirroring the original implementation's Edit struct: an optional target
// path (from the "--- a/path" / "+++ b/path" header pair) and the hunk body
// lines that follow it, up to the closing fence.
type rawEdit struct {
	path string
	hunk []string
}

// extractFencedDiffs scans a message for ```diff fenced code blocks and
// returns one rawEdit per block, discarding any block whose hunk carries no
// actual +/- lines (grounded on process_fenced_block's "keeper" flag).
func extractFencedDiffs(content string) []rawEdit {
	lines := strings.Split(content, "\n")
	var edits []rawEdit
	i := 0
	for i < len(lines) {
		line := lines[i]
		if !strings.HasPrefix(strings.TrimSpace(line), "```diff") {
			i++
			continue
		}
		i++
		var path string
		var hunk []string
		keeper := false
		for i < len(lines) && !strings.HasPrefix(strings.TrimSpace(lines[i]), "```") {
			l := trimCR(lines[i])
			switch {
			case strings.HasPrefix(l, "--- "):
				// header only; +++ carries the canonical path
			case strings.HasPrefix(l, "+++ "):
				path = cleanDiffPath(strings.TrimPrefix(l, "+++ "))
			case strings.HasPrefix(l, "@@"):
				hunk = append(hunk, l)
			default:
				if strings.HasPrefix(l, "+") || strings.HasPrefix(l, "-") {
					keeper = true
				}
				hunk = append(hunk, l)
			}
			i++
		}
		if i < len(lines) {
			i++ // consume closing ```
		}
		if keeper && path != "" {
			edits = append(edits, rawEdit{path: path, hunk: hunk})
		}
	}
	return edits
}

func cleanDiffPath(p string) string {
	p = strings.TrimSpace(p)
	p = strings.TrimPrefix(p, "a/")
	p = strings.TrimPrefix(p, "b/")
	if idx := strings.Index(p, "\t"); idx >= 0 {
		p = p[:idx]
	}
	return p
}

// FileLookup resolves a workspace-relative path to its current line content.
type FileLookup func(path string) ([]string, bool)

// ParseUnifiedDiff extracts every fenced diff block in content and parses
// each into DiffChunks against the corresponding file's current contents,
// trying extra_space offsets [0, -1, 1] in that order and keeping the first
// that parses cleanly (grounded on UnifiedDiffFormat::parse_message).
func ParseUnifiedDiff(content string, lookup FileLookup) ([]DiffChunk, error) {
	edits := extractFencedDiffs(content)
	if len(edits) == 0 {
		// No fenced diff at all, or every fenced block's hunk carried no
		// +/- lines (extractFencedDiffs already dropped those as empty) —
		// both are a no-op, not a failure (spec §4.8 "empty hunks are
		// skipped"; grounded on parse_message's test_empty_* suite, which
		// expects Ok(vec![]) for header-only hunks and even an empty string).
		return nil, nil
	}
	var all []DiffChunk
	for _, e := range edits {
		fileLines, ok := lookup(e.path)
		if !ok {
			return nil, fmt.Errorf("patch: diff references unknown file %q", e.path)
		}
		var lastErr error
		parsed := false
		for _, extraSpace := range []int{0, -1, 1} {
			chunks, err := parseDiffChunks(e.path, e.hunk, fileLines, extraSpace)
			if err != nil {
				lastErr = err
				continue
			}
			all = append(all, chunks...)
			parsed = true
			break
		}
		if !parsed {
			return nil, fmt.Errorf("patch: could not apply diff to %q: %w", e.path, lastErr)
		}
	}
	return all, nil
}

// hunkLine classifies one hunk line by its leading marker.
type hunkKind int

const (
	hunkContext hunkKind = iota
	hunkRemove
	hunkAdd
)

func classifyHunkLine(l string) (hunkKind, string) {
	switch {
	case strings.HasPrefix(l, "-"):
		return hunkRemove, l[1:]
	case strings.HasPrefix(l, "+"):
		return hunkAdd, l[1:]
	case strings.HasPrefix(l, "@@"):
		return hunkContext, ""
	default:
		body := l
		if strings.HasPrefix(body, " ") {
			body = body[1:]
		}
		return hunkContext, body
	}
}

// changeEditSpaces shifts every context line's leading whitespace by
// extraSpace characters, leaving +/- lines untouched (grounded on
// change_edit_spaces).
func changeEditSpaces(hunk []string, extraSpace int) []string {
	if extraSpace == 0 {
		return hunk
	}
	out := make([]string, len(hunk))
	for i, l := range hunk {
		if strings.HasPrefix(l, "+") || strings.HasPrefix(l, "-") || strings.HasPrefix(l, "@@") {
			out[i] = l
			continue
		}
		if extraSpace < 0 {
			n := -extraSpace
			trimmed := l
			for j := 0; j < n && strings.HasPrefix(trimmed, " "); j++ {
				trimmed = trimmed[1:]
			}
			out[i] = trimmed
		} else {
			out[i] = strings.Repeat(" ", extraSpace) + l
		}
	}
	return out
}

// parseDiffChunks is the per-edit driver: it walks the (possibly
// extra-space-shifted) hunk against the file, locating it with
// searchTextLocation and reconstructing its changes with
// parseSingleDiffChunk, advancing cursors through both until the hunk is
// exhausted (grounded on parse_diff_chunks).
func parseDiffChunks(path string, rawHunk []string, fileLines []string, extraSpace int) ([]DiffChunk, error) {
	hunk := changeEditSpaces(dropHunkHeaders(rawHunk), extraSpace)
	if len(hunk) == 0 {
		return nil, fmt.Errorf("patch: empty hunk for %q", path)
	}

	var chunks []DiffChunk
	fileCursor := 0
	hunkCursor := 0
	for hunkCursor < len(hunk) {
		segment := hunk[hunkCursor:]
		start, matchLen, err := searchTextLocation(segment, fileLines[fileCursor:])
		if err != nil {
			return nil, fmt.Errorf("patch: %q: %w", path, err)
		}
		line1, line2, chunk, _, err := parseSingleDiffChunk(segment, fileLines[fileCursor+start:])
		if err != nil {
			return nil, fmt.Errorf("patch: %q: %w", path, err)
		}
		chunk.FileName = path
		chunk.FileAction = "edit"
		// line1/line2 from parseSingleDiffChunk are 0-based half-open and
		// local to the matched window; convert to the absolute 1-based
		// inclusive coordinates DiffChunk publishes.
		chunk.Line1 = fileCursor + start + line1 + 1
		chunk.Line2 = fileCursor + start + line2
		chunks = append(chunks, chunk)

		fileCursor += start + matchLen
		// parseSingleDiffChunk always walks its entire input segment and
		// folds every change in it into one chunk, so the whole segment is
		// spent.
		hunkCursor += len(segment)
	}
	return chunks, nil
}

func dropHunkHeaders(hunk []string) []string {
	out := make([]string, 0, len(hunk))
	for _, l := range hunk {
		if strings.HasPrefix(l, "@@") {
			continue
		}
		out = append(out, l)
	}
	return out
}

// searchTextLocation finds where a hunk's leading lines anchor into
// fileLines. It first tries to match the hunk's leading context+remove
// lines contiguously (treating remove lines as needing to be present, minus
// their marker); if that fails and the hunk has any remove lines, it falls
// back to matching only the trailing contiguous block of remove lines
// (grounded on search_text_location's two-pass strategy).
func searchTextLocation(hunk []string, fileLines []string) (start, matchLen int, err error) {
	leading := leadingNonAddLines(hunk)
	if start, ok := findContiguous(leading, fileLines); ok {
		return start, len(leading), nil
	}

	minusOnly := trailingRemoveBlock(hunk)
	if len(minusOnly) > 0 {
		if start, ok := findContiguous(minusOnly, fileLines); ok {
			return start, len(minusOnly), nil
		}
	}
	return 0, 0, fmt.Errorf("could not locate hunk context in file")
}

// leadingNonAddLines returns the content of every non-add hunk line, in
// order and stripped of markers — these are the lines expected to already
// exist in the file.
func leadingNonAddLines(hunk []string) []string {
	var out []string
	for _, l := range hunk {
		kind, body := classifyHunkLine(l)
		if kind == hunkAdd {
			continue
		}
		out = append(out, body)
	}
	return out
}

// trailingRemoveBlock returns the last contiguous run of remove-line bodies
// in the hunk.
func trailingRemoveBlock(hunk []string) []string {
	var block []string
	for i := len(hunk) - 1; i >= 0; i-- {
		kind, body := classifyHunkLine(hunk[i])
		if kind != hunkRemove {
			if len(block) > 0 {
				break
			}
			continue
		}
		block = append([]string{body}, block...)
	}
	return block
}

// findContiguous finds the first index in fileLines where needle occurs
// contiguously (exact line equality).
func findContiguous(needle, fileLines []string) (int, bool) {
	if len(needle) == 0 || len(needle) > len(fileLines) {
		return 0, false
	}
	for start := 0; start+len(needle) <= len(fileLines); start++ {
		match := true
		for j, want := range needle {
			if fileLines[start+j] != want {
				match = false
				break
			}
		}
		if match {
			return start, true
		}
	}
	return 0, false
}

// parseSingleDiffChunk walks the hunk lines against fileLines, lock-step,
// classifying each by its marker and accumulating the removed/added text.
// Context lines that sit between two changes are carried into both the
// removed and the added text, so one chunk covers every change in the hunk.
// It returns the [line1,line2) range (relative to fileLines) from the first
// to the last changed line, the chunk itself (FileName/FileAction left for the
// caller to fill in), and how many fileLines it consumed (grounded on
// parse_single_diff_chunk).
func parseSingleDiffChunk(hunk []string, fileLines []string) (line1, line2 int, chunk DiffChunk, consumedFileLines int, err error) {
	var removed, added, pending []string
	line1 = -1
	fi := 0
	for _, l := range hunk {
		kind, body := classifyHunkLine(l)
		switch kind {
		case hunkContext:
			if fi >= len(fileLines) || fileLines[fi] != body {
				return 0, 0, DiffChunk{}, 0, fmt.Errorf("context line mismatch at file offset %d", fi)
			}
			if line1 >= 0 {
				pending = append(pending, body)
			}
			fi++
		case hunkRemove:
			if line1 < 0 {
				line1 = fi
			}
			if fi >= len(fileLines) || fileLines[fi] != body {
				return 0, 0, DiffChunk{}, 0, fmt.Errorf("remove line mismatch at file offset %d", fi)
			}
			removed = append(append(removed, pending...), body)
			added = append(added, pending...)
			pending = nil
			fi++
		case hunkAdd:
			if line1 < 0 {
				line1 = fi
			}
			removed = append(removed, pending...)
			added = append(append(added, pending...), body)
			pending = nil
		}
	}
	if line1 < 0 {
		line1 = 0
	}
	line2 = line1 + len(removed)
	chunk = DiffChunk{
		Line1:       line1,
		Line2:       line2,
		LinesRemove: joinLines(removed),
		LinesAdd:    joinLines(added),
	}
	return line1, line2, chunk, fi, nil
}
