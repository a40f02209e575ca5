// Package builtintools implements the tool set spec §4.2 enumerates: each
// tool is a toolspec.Tool (C2) that embeds toolspec.Base for the default
// confirm/deny evaluation, grounded on the teacher's own generated tool
// adapters (runtime/agent/tools), which follow the same "small struct,
// static Description(), thin Execute()" shape. External collaborators named
// but not specified by spec.md (the AST index, the vector DB, the
// filesystem/privacy layer, shell execution, HTTP fetch, the memory index)
// are modeled here as minimal interfaces a serving environment supplies; the
// registry (internal/toolspec.Registry) filters a tool out of the
// advertised set when one of its declared dependencies is missing.
package builtintools

import (
	"path"
	"sort"
	"strings"

	"github.com/refact-ai/agentcore/internal/patch"
	"github.com/refact-ai/agentcore/internal/toolerrors"
)

// Workspace is the filesystem/privacy collaborator every file-touching tool
// depends on. It embeds patch.EditorSync so edit tools (replace_textdoc,
// update_textdoc, apply_tickets, mv, rm) share the same read/write/rename/
// remove/SyncAST contract the patch engine (C8) already defines.
type Workspace interface {
	patch.EditorSync

	// ListFiles returns every path tracked by the workspace, used for fuzzy
	// path correction and the tree tool.
	ListFiles() ([]string, error)
	// ProjectDirs lists the workspace's allowed project directories; a path
	// resolving outside all of them is rejected.
	ProjectDirs() []string
	// IsPrivate reports whether path is blocked by the privacy/blocklist
	// rules (spec.md's "file-system privacy/blocklist checks", named but not
	// specified — a minimal true/false gate stands in here).
	IsPrivate(p string) bool
}

// resolvePath fuzzy-corrects a requested path against the workspace's known
// files: exact match first, then the closest Jaro-Winkler match over
// basenames (reusing internal/patch's metric rather than a second string
// distance implementation), per spec.md's "resolve ... via fuzzy path
// correction" wording for search_semantic/mv/rm. corrected reports whether
// the returned path differs from the input, so callers can surface
// ExecResult.Corrections.
func resolvePath(ws Workspace, requested string) (resolved string, corrected bool, err error) {
	files, err := ws.ListFiles()
	if err != nil {
		return "", false, err
	}
	for _, f := range files {
		if f == requested {
			return f, false, nil
		}
	}
	best := ""
	bestScore := -1.0
	reqBase := path.Base(requested)
	for _, f := range files {
		score := patch.Similarity(path.Base(f), reqBase)
		if strings.HasSuffix(f, requested) {
			score += 0.5
		}
		if score > bestScore {
			bestScore = score
			best = f
		}
	}
	if best == "" || bestScore < 0.6 {
		return requested, false, errNotFound(requested)
	}
	return best, best != requested, nil
}

func errNotFound(p string) error {
	return toolerrors.Errorf(toolerrors.KindNotFound, "builtintools: no file resolves to %s", p)
}

// checkProjectScope rejects a path outside every allowed project directory
// or matching the privacy blocklist.
func checkProjectScope(ws Workspace, p string) error {
	if ws.IsPrivate(p) {
		return toolerrors.Errorf(toolerrors.KindPermission, "builtintools: %s: blocked by privacy rules", p)
	}
	dirs := ws.ProjectDirs()
	if len(dirs) == 0 {
		return nil
	}
	for _, d := range dirs {
		if p == d || strings.HasPrefix(p, d+"/") {
			return nil
		}
	}
	return toolerrors.Errorf(toolerrors.KindPermission, "builtintools: %s: outside allowed project directories", p)
}

// sortedCopy returns a sorted copy of ss without mutating the caller's slice.
func sortedCopy(ss []string) []string {
	out := append([]string{}, ss...)
	sort.Strings(out)
	return out
}
