package builtintools

import (
	"context"
	"fmt"

	"github.com/refact-ai/agentcore/internal/confirm"
	"github.com/refact-ai/agentcore/internal/model"
	"github.com/refact-ai/agentcore/internal/toolerrors"
	"github.com/refact-ai/agentcore/internal/toolspec"
)

// Span is one AST-located excerpt.
type Span struct {
	FileName string
	Line1    int
	Line2    int
	Content  string
}

// ASTService is the external symbol-index collaborator (spec.md: "the AST
// index ... consumed only as an opaque search service").
type ASTService interface {
	// DefinitionPathsFuzzy fuzzy-resolves a symbol query to candidate paths.
	DefinitionPathsFuzzy(query string) []string
	// Definition returns the declaration span for a resolved symbol.
	Definition(symbol string) (Span, bool)
	// References returns every usage span of a resolved symbol.
	References(symbol string) ([]Span, error)
	// TopLevelSymbols lists a file's top-level symbol names.
	TopLevelSymbols(path string) ([]string, error)
}

type symbolTool struct {
	toolspec.Base
	name, display, verb string
	AST                 ASTService
}

func (t symbolTool) Description() toolspec.ToolDesc {
	return toolspec.ToolDesc{
		Name:        t.name,
		DisplayName: t.display,
		Source:      "builtin",
		Description: fmt.Sprintf("Fuzzy-resolve a symbol through the AST service and emit its %s as ContextFile span(s).", t.verb),
		Parameters: []toolspec.Param{
			{Name: "symbol", Type: "string", Desc: "symbol name or fuzzy query"},
		},
		ParametersRequired: []string{"symbol"},
	}
}

func (t symbolTool) DependsOn() []string { return []string{"ast"} }

func (t symbolTool) CommandToMatchAgainstConfirmDeny(args map[string]any) string {
	sym, _ := args["symbol"].(string)
	return confirm.CommandFromArgs(t.name, sym)
}

func (t symbolTool) MatchAgainstConfirmDeny(ctx context.Context, args map[string]any, overrides confirm.Rules) confirm.Result {
	return t.Base.Evaluate(ctx, args, overrides, t.CommandToMatchAgainstConfirmDeny)
}

func (t symbolTool) resolve(query string) (string, error) {
	candidates := t.AST.DefinitionPathsFuzzy(query)
	if len(candidates) == 0 {
		return "", toolerrors.Errorf(toolerrors.KindNotFound, "%s: no symbol resolves to %q", t.name, query)
	}
	return candidates[0], nil
}

// Cat implements the cat tool: emit a symbol's declaration as a ContextFile.
type Cat struct{ symbolTool }

// NewCat constructs the cat tool.
func NewCat(ast ASTService) Cat {
	return Cat{symbolTool{name: "cat", display: "Cat Symbol", verb: "declaration", AST: ast}}
}

func (t Cat) Execute(ctx context.Context, toolCallID string, args map[string]any) (toolspec.ExecResult, error) {
	symbol, _ := args["symbol"].(string)
	resolved, err := t.resolve(symbol)
	if err != nil {
		return toolspec.ExecResult{}, err
	}
	span, ok := t.AST.Definition(resolved)
	if !ok {
		return toolspec.ExecResult{}, toolerrors.Errorf(toolerrors.KindNotFound, "cat: %q has no definition span", resolved)
	}
	return toolspec.ExecResult{
		Corrections: resolved != symbol,
		Messages:    []model.Message{model.NewToolResult(toolCallID, fmt.Sprintf("%s:L%d-%d", span.FileName, span.Line1, span.Line2))},
		ContextFiles: []model.ContextFile{{
			FileName: span.FileName, FileContent: span.Content,
			Line1: span.Line1, Line2: span.Line2, Symbols: []string{resolved},
			SourceToolCallID: toolCallID,
		}},
	}, nil
}

// Definition implements the definition tool: an alias of cat in this
// runtime (spec.md groups cat/definition/references under one contract
// since there is no separately specified divergence in behavior).
type Definition struct{ symbolTool }

// NewDefinition constructs the definition tool.
func NewDefinition(ast ASTService) Definition {
	return Definition{symbolTool{name: "definition", display: "Go to Definition", verb: "declaration", AST: ast}}
}

func (t Definition) Execute(ctx context.Context, toolCallID string, args map[string]any) (toolspec.ExecResult, error) {
	return Cat{t.symbolTool}.Execute(ctx, toolCallID, args)
}

// References implements the references tool: emit every usage span.
type References struct{ symbolTool }

// NewReferences constructs the references tool.
func NewReferences(ast ASTService) References {
	return References{symbolTool{name: "references", display: "Find References", verb: "usages", AST: ast}}
}

func (t References) Execute(ctx context.Context, toolCallID string, args map[string]any) (toolspec.ExecResult, error) {
	symbol, _ := args["symbol"].(string)
	resolved, err := t.resolve(symbol)
	if err != nil {
		return toolspec.ExecResult{}, err
	}
	spans, err := t.AST.References(resolved)
	if err != nil {
		return toolspec.ExecResult{}, toolerrors.NewWithCause(toolerrors.KindExecution, "references", err)
	}
	contextFiles := make([]model.ContextFile, 0, len(spans))
	for _, s := range spans {
		contextFiles = append(contextFiles, model.ContextFile{
			FileName: s.FileName, FileContent: s.Content,
			Line1: s.Line1, Line2: s.Line2, Symbols: []string{resolved},
			SourceToolCallID: toolCallID,
		})
	}
	return toolspec.ExecResult{
		Corrections:  resolved != symbol,
		Messages:     []model.Message{model.NewToolResult(toolCallID, fmt.Sprintf("%d reference(s) to %s", len(spans), resolved))},
		ContextFiles: contextFiles,
	}, nil
}
