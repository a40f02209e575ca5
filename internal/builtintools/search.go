package builtintools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/refact-ai/agentcore/internal/confirm"
	"github.com/refact-ai/agentcore/internal/model"
	"github.com/refact-ai/agentcore/internal/toolerrors"
	"github.com/refact-ai/agentcore/internal/toolspec"
)

// SearchHit is one ranked result a VectorDB returns for a query.
type SearchHit struct {
	FileName   string
	Line1      int
	Line2      int
	Content    string
	Score      float64
	Symbols    []string
}

// VectorDB is the external semantic-search collaborator (spec.md: "call
// vector DB", named but not specified).
type VectorDB interface {
	Search(ctx context.Context, query string, scope string) ([]SearchHit, error)
}

// SearchSemantic implements the search_semantic tool (spec §4.2): parse
// comma-separated queries, resolve scope via fuzzy path correction, call the
// vector DB per query, rank and merge results, emit one summary text message
// plus ContextFile records.
type SearchSemantic struct {
	toolspec.Base
	DB VectorDB
	WS Workspace
}

func (t SearchSemantic) Description() toolspec.ToolDesc {
	return toolspec.ToolDesc{
		Name:        "search_semantic",
		DisplayName: "Semantic Search",
		Source:      "builtin",
		Description: "Search the codebase by meaning across one or more comma-separated queries, within an optional workspace/directory/file scope.",
		Parameters: []toolspec.Param{
			{Name: "queries", Type: "string", Desc: "comma-separated search queries"},
			{Name: "scope", Type: "string", Desc: "workspace, a directory prefix, or a single file"},
		},
		ParametersRequired: []string{"queries"},
	}
}

func (t SearchSemantic) DependsOn() []string { return []string{"vecdb"} }

func (t SearchSemantic) Execute(ctx context.Context, toolCallID string, args map[string]any) (toolspec.ExecResult, error) {
	queriesArg, _ := args["queries"].(string)
	scopeArg, _ := args["scope"].(string)

	scope := scopeArg
	corrected := false
	if scope != "" && scope != "workspace" && t.WS != nil {
		resolved, wasCorrected, err := resolvePath(t.WS, scope)
		if err == nil {
			scope = resolved
			corrected = wasCorrected
		}
	}

	var allHits []SearchHit
	for _, q := range strings.Split(queriesArg, ",") {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		hits, err := t.DB.Search(ctx, q, scope)
		if err != nil {
			return toolspec.ExecResult{}, toolerrors.NewWithCause(toolerrors.KindExecution, fmt.Sprintf("search_semantic: query %q", q), err)
		}
		allHits = append(allHits, hits...)
	}
	sort.SliceStable(allHits, func(i, j int) bool { return allHits[i].Score > allHits[j].Score })

	var summary strings.Builder
	fmt.Fprintf(&summary, "Found %d result(s) for %q", len(allHits), queriesArg)
	if scope != "" {
		fmt.Fprintf(&summary, " in scope %q", scope)
	}
	summary.WriteString(".")

	contextFiles := make([]model.ContextFile, 0, len(allHits))
	for _, h := range allHits {
		contextFiles = append(contextFiles, model.ContextFile{
			FileName:         h.FileName,
			FileContent:      h.Content,
			Line1:            h.Line1,
			Line2:            h.Line2,
			Symbols:          h.Symbols,
			Usefulness:       h.Score * 10,
			SourceToolCallID: toolCallID,
		})
	}

	return toolspec.ExecResult{
		Corrections:  corrected,
		Messages:     []model.Message{model.NewToolResult(toolCallID, summary.String())},
		ContextFiles: contextFiles,
	}, nil
}

func (t SearchSemantic) CommandToMatchAgainstConfirmDeny(args map[string]any) string {
	queries, _ := args["queries"].(string)
	return confirm.CommandFromArgs("search_semantic", queries)
}

func (t SearchSemantic) MatchAgainstConfirmDeny(ctx context.Context, args map[string]any, overrides confirm.Rules) confirm.Result {
	return t.Base.Evaluate(ctx, args, overrides, t.CommandToMatchAgainstConfirmDeny)
}
