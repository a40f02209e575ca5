package contextpp

import (
	"fmt"
	"math"
	"path"
	"path/filepath"

	"github.com/refact-ai/agentcore/internal/model"
)

// canonicalPath normalizes a file path for duplicate comparison: forward
// slashes, cleaned of "." and ".." segments.
func canonicalPath(p string) string {
	return path.Clean(filepath.ToSlash(p))
}

// linesOverlap reports whether [aLine1,aLine2] and [bLine1,bLine2] overlap,
// treating a 0 upper bound as unbounded and a 0 lower bound as "from start".
func linesOverlap(aLine1, aLine2, bLine1, bLine2 int) bool {
	aStart, aEnd := normalizeRange(aLine1, aLine2)
	bStart, bEnd := normalizeRange(bLine1, bLine2)
	return aStart <= bEnd && bStart <= aEnd
}

func normalizeRange(line1, line2 int) (int, int) {
	start := line1
	if start == 0 {
		start = 1
	}
	end := line2
	if end == 0 {
		end = math.MaxInt32
	}
	return start, end
}

// findToolName walks transcript backwards from its end looking for an
// assistant message whose ToolCalls includes toolCallID, returning the
// requested tool's name. This recovers the tool name for the duplicate stub
// message (spec §4.4 step 4) without the ContextFile needing to duplicate it.
func findToolName(transcript []model.Message, toolCallID string) string {
	if toolCallID == "" {
		return ""
	}
	for i := len(transcript) - 1; i >= 0; i-- {
		m := transcript[i]
		if m.Role != model.RoleAssistant {
			continue
		}
		for _, tc := range m.ToolCalls {
			if tc.ID == toolCallID {
				return tc.Function.Name
			}
		}
	}
	return ""
}

// SuppressDuplicates replaces the content of any file in `files` that
// overlaps, on the same canonical path, a file already delivered earlier in
// `transcript` via a context_file message, with a short stub pointing back to
// the earlier message (spec §4.4 step 4, §8.7).
func SuppressDuplicates(transcript []model.Message, files []model.ContextFile) []model.ContextFile {
	out := make([]model.ContextFile, len(files))
	copy(out, files)

	for i := range out {
		cf := &out[i]
		canon := canonicalPath(cf.FileName)

	outer:
		for msgIdx := len(transcript) - 1; msgIdx >= 0; msgIdx-- {
			m := transcript[msgIdx]
			if m.Role != model.RoleContextFile {
				continue
			}
			for _, prior := range m.ContextFiles {
				if canonicalPath(prior.FileName) != canon {
					continue
				}
				if !linesOverlap(prior.Line1, prior.Line2, cf.Line1, cf.Line2) {
					continue
				}
				toolName := findToolName(transcript, prior.SourceToolCallID)
				if toolName == "" {
					toolName = "a prior tool call"
				}
				cf.FileContent = fmt.Sprintf(
					"📎 Already retrieved in message #%d via `%s`. Use narrower range if needed.",
					msgIdx, toolName)
				cf.SkipPP = true
				break outer
			}
		}
	}
	return out
}
