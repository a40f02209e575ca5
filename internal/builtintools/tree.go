package builtintools

import (
	"context"
	"fmt"
	"strings"

	"github.com/refact-ai/agentcore/internal/confirm"
	"github.com/refact-ai/agentcore/internal/model"
	"github.com/refact-ai/agentcore/internal/toolerrors"
	"github.com/refact-ai/agentcore/internal/toolspec"
)

// charsPerRAGToken approximates how many tree-listing characters one
// "tokens_for_rag" unit buys, giving the budget a concrete character ceiling
// without pulling in a tokenizer for what is a rough sizing knob.
const charsPerRAGToken = 3

// Tree implements the tree tool (spec §4.2): render the project file tree
// trimmed to a character budget proportional to tokens_for_rag, optionally
// annotating each file with its top-level symbols from the AST service.
type Tree struct {
	toolspec.Base
	WS  Workspace
	AST ASTService // optional; nil means no symbol annotation
}

func (t Tree) Description() toolspec.ToolDesc {
	return toolspec.ToolDesc{
		Name:        "tree",
		DisplayName: "Project Tree",
		Source:      "builtin",
		Description: "List the project's file tree, optionally annotated with top-level symbols, trimmed to a character budget.",
		Parameters: []toolspec.Param{
			{Name: "tokens_for_rag", Type: "integer", Desc: "budget hint driving how much of the tree to include"},
		},
	}
}

func (t Tree) DependsOn() []string { return nil }

func (t Tree) Execute(ctx context.Context, toolCallID string, args map[string]any) (toolspec.ExecResult, error) {
	tokensForRAG := 2048
	if v, ok := args["tokens_for_rag"].(float64); ok && v > 0 {
		tokensForRAG = int(v)
	}
	budget := tokensForRAG * charsPerRAGToken

	files, err := t.WS.ListFiles()
	if err != nil {
		return toolspec.ExecResult{}, toolerrors.NewWithCause(toolerrors.KindExecution, "tree", err)
	}
	files = sortedCopy(files)

	var sb strings.Builder
	omitted := 0
	for _, f := range files {
		line := f
		if t.AST != nil {
			if syms, err := t.AST.TopLevelSymbols(f); err == nil && len(syms) > 0 {
				line = fmt.Sprintf("%s (%s)", f, strings.Join(syms, ", "))
			}
		}
		if sb.Len()+len(line)+1 > budget {
			omitted++
			continue
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	if omitted > 0 {
		fmt.Fprintf(&sb, "... (%d more file(s) omitted to fit the budget) ...\n", omitted)
	}

	return toolspec.ExecResult{
		Messages: []model.Message{model.NewToolResult(toolCallID, sb.String())},
	}, nil
}

func (t Tree) CommandToMatchAgainstConfirmDeny(args map[string]any) string {
	return confirm.CommandFromArgs("tree")
}

func (t Tree) MatchAgainstConfirmDeny(ctx context.Context, args map[string]any, overrides confirm.Rules) confirm.Result {
	return t.Base.Evaluate(ctx, args, overrides, t.CommandToMatchAgainstConfirmDeny)
}
