package contextpp

import (
	"strings"

	"github.com/refact-ai/agentcore/internal/model"
)

// Input bundles what Process needs to post-process one turn's evidence.
type Input struct {
	// Transcript is the chat history so far, used by SuppressDuplicates to
	// find earlier deliveries of the same file range.
	Transcript []model.Message
	// Files are the candidate code excerpts gathered this turn.
	Files []model.ContextFile
	// PlainTexts are non-file evidence blobs (at-command clips, tool stdout)
	// competing for the text half of the budget.
	PlainTexts []string
	Budget     Budget
	// Tokenizer estimates token counts; defaults to CharApproxTokenizer.
	Tokenizer Tokenizer
}

// Output is the budget-fit result of one turn's post-processing.
type Output struct {
	Files      []model.ContextFile
	PlainTexts []string
	Truncated  bool
}

// Process runs the per-turn context post-processing pipeline (spec §4.4
// steps 1-6): duplicate suppression, fair-share budget allocation across
// code files and across plain-text blobs, line-number rendering, and
// head-tail truncation of whatever doesn't fit. Line numbers are rendered
// before truncation (rather than after, as the step order in §4.4 reads
// literally) so a truncated file's surviving head and tail keep their true
// source line numbers instead of a renumbered, contiguous run — see
// DESIGN.md.
func Process(in Input) Output {
	tok := in.Tokenizer
	if tok == nil {
		tok = CharApproxTokenizer{}
	}

	files := SuppressDuplicates(in.Transcript, in.Files)

	sizes := make([]int, len(files))
	for i, f := range files {
		sizes[i] = tok.Count(f.FileContent)
	}
	codeAlloc := FairShareAllocate(sizes, in.Budget.Code)

	truncatedAny := false
	out := make([]model.ContextFile, len(files))
	for i, f := range files {
		out[i] = f
		if f.SkipPP {
			continue
		}
		firstLine := f.Line1
		if firstLine == 0 {
			firstLine = 1
		}
		rendered := RenderLineNumbers(strings.Split(f.FileContent, "\n"), firstLine)
		shrunk, did := TruncateHeadTail(rendered, tok, codeAlloc[i])
		if did {
			truncatedAny = true
		}
		out[i].FileContent = strings.Join(shrunk, "\n")
	}

	textSizes := make([]int, len(in.PlainTexts))
	for i, t := range in.PlainTexts {
		textSizes[i] = tok.Count(t)
	}
	textAlloc := FairShareAllocate(textSizes, in.Budget.Text)
	texts := make([]string, len(in.PlainTexts))
	for i, t := range in.PlainTexts {
		lines := strings.Split(t, "\n")
		shrunk, did := TruncateHeadTail(lines, tok, textAlloc[i])
		if did {
			truncatedAny = true
		}
		texts[i] = strings.Join(shrunk, "\n")
	}

	return Output{Files: out, PlainTexts: texts, Truncated: truncatedAny}
}
