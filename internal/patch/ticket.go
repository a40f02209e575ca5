// Package patch implements the patch engine (C8): it turns model-produced
// diff descriptions, in two dialects, into canonical DiffChunks and applies
// them to the working tree. Grounded on the original implementation's
// at_tools/att_patch (unified-diff and block-replace parsers) and
// tools/patch/tool_patch.rs (the ticket model and model-assisted repair
// loop), with a small collaborator interface (EditorSync) standing in for
// the AST/editor-sync service the original calls into. The package returns
// plain fmt errors; the apply_tickets tool in internal/builtintools wraps
// them as toolerrors and carries the confirmation rules for the apply step.
package patch

import "fmt"

// Action discriminates the four ticket kinds (spec §4.8).
type Action string

const (
	ReplaceFile   Action = "ReplaceFile"
	ReplaceSymbol Action = "ReplaceSymbol"
	SectionEdit   Action = "SectionEdit"
	NewFile       Action = "NewFile"
)

// Ticket is a declarative edit request produced by the model.
type Ticket struct {
	ID             string
	Action         Action
	FilenameBefore string
	FilenameAfter  string
	// Symbol names the top-level AST symbol to replace, for ReplaceSymbol.
	Symbol string
	// Content is the new file body (ReplaceFile/NewFile) or new symbol body
	// (ReplaceSymbol). SectionEdit tickets carry their edits as Hunks instead.
	Content string
	// Hunks holds the raw diff/block-replace text for SectionEdit tickets.
	Hunks string
}

// ValidateTickets checks the static compatibility rules from spec §4.8:
// every ticket must share one filename_before, and SectionEdit cannot be
// mixed with any other action in the same batch.
func ValidateTickets(tickets []Ticket) error {
	if len(tickets) == 0 {
		return fmt.Errorf("patch: no tickets to apply")
	}
	filename := tickets[0].FilenameBefore
	hasSectionEdit := false
	hasOther := false
	for _, t := range tickets {
		if t.FilenameBefore != filename {
			return fmt.Errorf("patch: tickets reference different files (%q vs %q); apply them separately", filename, t.FilenameBefore)
		}
		if t.Action == SectionEdit {
			hasSectionEdit = true
		} else {
			hasOther = true
		}
		if t.Action == "" {
			return fmt.Errorf("patch: ticket %q has no action", t.ID)
		}
	}
	if hasSectionEdit && hasOther {
		return fmt.Errorf("patch: cannot mix SectionEdit tickets with other actions in the same batch")
	}
	return nil
}

// ExistenceChecker reports whether a workspace path exists, so tickets can be
// validated before any diff parsing is attempted.
type ExistenceChecker interface {
	Exists(path string) bool
}

// ValidateAgainstWorkspace additionally checks each ticket's file existence
// expectation: ReplaceFile/ReplaceSymbol/SectionEdit require the file to
// exist; NewFile requires it not to.
func ValidateAgainstWorkspace(tickets []Ticket, ws ExistenceChecker) error {
	for _, t := range tickets {
		exists := ws.Exists(t.FilenameBefore)
		switch t.Action {
		case NewFile:
			if exists {
				return fmt.Errorf("patch: NewFile ticket %q targets an existing file %q", t.ID, t.FilenameBefore)
			}
		default:
			if !exists {
				return fmt.Errorf("patch: ticket %q targets a nonexistent file %q", t.ID, t.FilenameBefore)
			}
		}
	}
	return nil
}
