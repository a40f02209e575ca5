package patch

import (
	"context"
	"fmt"
	"strings"

	"github.com/refact-ai/agentcore/internal/model"
	"github.com/refact-ai/agentcore/internal/modelclient"
)

// EditorSync is the collaborator that actually mutates the working tree and
// keeps its AST index current, standing in for the original implementation's
// editor-sync/AST service. A real implementation writes through an open
// editor buffer when one exists and falls back to the filesystem otherwise.
type EditorSync interface {
	ReadFile(path string) (string, error)
	WriteFile(path string, content string) error
	Rename(oldPath, newPath string) error
	Remove(path string) error
	// SyncAST re-indexes path after a write, rename, or remove.
	SyncAST(path string) error
}

// maxRepairAttempts bounds the model-assisted repair loop for SectionEdit
// tickets whose hunks fail to parse cleanly (spec §4.8).
const maxRepairAttempts = 3

// Apply validates, parses, and applies a batch of tickets through ed,
// returning the diff-role message the caller should append to the
// transcript (spec §4.8's "emit a single diff-role message carrying the
// array of chunks and an application_details string").
func Apply(ctx context.Context, ed EditorSync, repairClient modelclient.Client, tickets []Ticket) (model.Message, error) {
	if err := ValidateTickets(tickets); err != nil {
		return model.Message{}, err
	}

	var chunks []DiffChunk
	var details []string
	for _, t := range tickets {
		switch t.Action {
		case NewFile:
			if err := ed.WriteFile(t.FilenameAfter, t.Content); err != nil {
				return model.Message{}, fmt.Errorf("patch: creating %q: %w", t.FilenameAfter, err)
			}
			chunks = append(chunks, DiffChunk{FileName: t.FilenameAfter, FileAction: "add", LinesAdd: t.Content, IsFile: true})
			details = append(details, fmt.Sprintf("created %s", t.FilenameAfter))

		case ReplaceFile:
			original, err := ed.ReadFile(t.FilenameBefore)
			if err != nil {
				return model.Message{}, fmt.Errorf("patch: reading %q: %w", t.FilenameBefore, err)
			}
			if err := ed.WriteFile(t.FilenameBefore, t.Content); err != nil {
				return model.Message{}, fmt.Errorf("patch: writing %q: %w", t.FilenameBefore, err)
			}
			chunks = append(chunks, DiffChunk{
				FileName: t.FilenameBefore, FileAction: "edit",
				Line1: 1, Line2: strings.Count(original, "\n") + 1,
				LinesRemove: original, LinesAdd: t.Content,
			})
			details = append(details, fmt.Sprintf("replaced %s in full", t.FilenameBefore))

		case ReplaceSymbol:
			result, err := applyReplaceSymbol(ed, t)
			if err != nil {
				return model.Message{}, err
			}
			chunks = append(chunks, result)
			details = append(details, fmt.Sprintf("replaced symbol %s in %s", t.Symbol, t.FilenameBefore))

		case SectionEdit:
			sectionChunks, err := applySectionEdit(ctx, ed, repairClient, t)
			if err != nil {
				return model.Message{}, err
			}
			chunks = append(chunks, sectionChunks...)
			details = append(details, fmt.Sprintf("edited %s (%d chunk(s))", t.FilenameBefore, len(sectionChunks)))

		default:
			return model.Message{}, fmt.Errorf("patch: unknown ticket action %q", t.Action)
		}

		if t.Action != NewFile {
			if err := ed.SyncAST(t.FilenameBefore); err != nil {
				return model.Message{}, fmt.Errorf("patch: syncing AST for %q: %w", t.FilenameBefore, err)
			}
		}
	}

	return newDiffMessage(chunks, strings.Join(details, "; ")), nil
}

func newDiffMessage(chunks []DiffChunk, applicationDetails string) model.Message {
	msg := model.Message{Role: model.RoleDiff, Kind: model.ContentSimpleText}
	var sb strings.Builder
	for _, c := range chunks {
		fmt.Fprintf(&sb, "%s %s [%d,%d]\n", c.FileAction, c.FileName, c.Line1, c.Line2)
	}
	sb.WriteString(applicationDetails)
	msg.Text = sb.String()
	return msg
}

func applyReplaceSymbol(ed EditorSync, t Ticket) (DiffChunk, error) {
	original, err := ed.ReadFile(t.FilenameBefore)
	if err != nil {
		return DiffChunk{}, fmt.Errorf("patch: reading %q: %w", t.FilenameBefore, err)
	}
	start, end, err := locateSymbolBody(original, t.Symbol)
	if err != nil {
		return DiffChunk{}, fmt.Errorf("patch: locating symbol %q in %q: %w", t.Symbol, t.FilenameBefore, err)
	}
	chunk := DiffChunk{
		FileName: t.FilenameBefore, FileAction: "edit",
		Line1: start + 1, Line2: end,
		LinesAdd: t.Content,
	}
	updated, err := chunk.applyRemoveFrom(original)
	if err != nil {
		return DiffChunk{}, err
	}
	if err := ed.WriteFile(t.FilenameBefore, updated); err != nil {
		return DiffChunk{}, fmt.Errorf("patch: writing %q: %w", t.FilenameBefore, err)
	}
	return chunk, nil
}

// applyRemoveFrom fills in LinesRemove from the original content (the
// caller already knows Line1/Line2) and returns the file with the chunk
// applied.
func (c *DiffChunk) applyRemoveFrom(original string) (string, error) {
	lines := splitLinesKeepEmpty(original)
	if c.Line1-1 < 0 || c.Line2 > len(lines) {
		return "", fmt.Errorf("patch: symbol range out of bounds")
	}
	c.LinesRemove = joinLines(lines[c.Line1-1 : c.Line2])
	return ApplyChunksToFile(original, []DiffChunk{*c})
}

// locateSymbolBody finds a simple top-level "func <name>" or "func (...)
// <name>(" declaration's line span by brace counting. It is intentionally
// modest: the workspace's real AST index (not modeled here) is what a
// production build would call into for precise symbol boundaries; this is
// the fallback used when only file text is available.
func locateSymbolBody(content, symbol string) (start, end int, err error) {
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		trimmed := strings.TrimSpace(l)
		if !strings.HasPrefix(trimmed, "func ") {
			continue
		}
		if !declaresSymbol(trimmed, symbol) {
			continue
		}
		depth := 0
		opened := false
		for j := i; j < len(lines); j++ {
			for _, r := range lines[j] {
				switch r {
				case '{':
					depth++
					opened = true
				case '}':
					depth--
				}
			}
			if opened && depth == 0 {
				return i, j + 1, nil
			}
		}
		return 0, 0, fmt.Errorf("unterminated declaration for %q", symbol)
	}
	return 0, 0, fmt.Errorf("symbol %q not found", symbol)
}

func declaresSymbol(declLine, symbol string) bool {
	idx := strings.Index(declLine, symbol+"(")
	return idx >= 0
}

// applySectionEdit parses a SectionEdit ticket's Hunks using whichever
// dialect matches, making up to maxRepairAttempts parse attempts with a
// model-assisted repair of the hunks between them (spec §4.8).
func applySectionEdit(ctx context.Context, ed EditorSync, repairClient modelclient.Client, t Ticket) ([]DiffChunk, error) {
	original, err := ed.ReadFile(t.FilenameBefore)
	if err != nil {
		return nil, fmt.Errorf("patch: reading %q: %w", t.FilenameBefore, err)
	}
	lookup := func(path string) ([]string, bool) {
		if path != "" && path != t.FilenameBefore {
			return nil, false
		}
		return splitLinesKeepEmpty(original), true
	}

	hunks := t.Hunks
	var lastErr error
	attempts := 0
	for attempt := 0; attempt < maxRepairAttempts; attempt++ {
		attempts++
		chunks, err := parseSectionEdit(hunks, t.FilenameBefore, lookup)
		if err == nil {
			updated, err := ApplyChunksToFile(original, chunks)
			if err != nil {
				lastErr = err
			} else {
				if err := ed.WriteFile(t.FilenameBefore, updated); err != nil {
					return nil, fmt.Errorf("patch: writing %q: %w", t.FilenameBefore, err)
				}
				return chunks, nil
			}
		} else {
			lastErr = err
		}
		if repairClient == nil || attempt == maxRepairAttempts-1 {
			break
		}
		repaired, rerr := requestRepair(ctx, repairClient, original, hunks, lastErr)
		if rerr != nil {
			break
		}
		hunks = repaired
	}
	return nil, fmt.Errorf("patch: could not apply SectionEdit to %q after %d attempt(s): %w", t.FilenameBefore, attempts, lastErr)
}

func parseSectionEdit(hunks, path string, lookup FileLookup) ([]DiffChunk, error) {
	if strings.Contains(hunks, originalHeading) {
		lines, _ := lookup(path)
		return ParseBlockReplace(path, hunks, lines)
	}
	return ParseUnifiedDiff(hunks, lookup)
}

// requestRepair asks the model to fix a diff that failed to parse,
// returning the corrected diff text. This is the model-assisted repair
// step referenced by spec §4.8; it is a single focused turn rather than a
// full sub-chat, since the only context a repair needs is the file, the bad
// diff, and the parse error.
func requestRepair(ctx context.Context, client modelclient.Client, original, badHunks string, parseErr error) (string, error) {
	prompt := fmt.Sprintf(
		"The following diff failed to apply to this file with error: %s\n\nFile:\n%s\n\nDiff:\n%s\n\nProduce a corrected diff in the same dialect that will apply cleanly. Reply with only the corrected fenced diff block.",
		parseErr, original, badHunks,
	)
	resp, err := client.Complete(ctx, modelclient.Request{
		Messages: []model.Message{model.NewSimpleText(model.RoleUser, prompt)},
	})
	if err != nil {
		return "", err
	}
	return resp.Message.ContentTextOnly(), nil
}
