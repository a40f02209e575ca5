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

var textdocConfirmRules = confirm.Rules{AskUser: []string{"*"}}

// ReplaceTextdoc implements the replace_textdoc tool (spec §4.2): replace a
// file's entire content, producing a diff-role message. Always
// confirmation-gated (spec §4.5).
type ReplaceTextdoc struct {
	toolspec.Base
	WS Workspace
}

// NewReplaceTextdoc constructs the tool with its always-confirm default rule.
func NewReplaceTextdoc(ws Workspace) ReplaceTextdoc {
	return ReplaceTextdoc{Base: toolspec.Base{Rules: &textdocConfirmRules}, WS: ws}
}

func (t ReplaceTextdoc) Description() toolspec.ToolDesc {
	return toolspec.ToolDesc{
		Name: "replace_textdoc", DisplayName: "Replace File", Source: "builtin", Agentic: true,
		Description: "Replace a file's entire content.",
		Parameters: []toolspec.Param{
			{Name: "path", Type: "string", Desc: "file to replace"},
			{Name: "content", Type: "string", Desc: "new file content"},
		},
		ParametersRequired: []string{"path", "content"},
	}
}

func (t ReplaceTextdoc) DependsOn() []string { return nil }

func (t ReplaceTextdoc) Execute(ctx context.Context, toolCallID string, args map[string]any) (toolspec.ExecResult, error) {
	p, _ := args["path"].(string)
	content, _ := args["content"].(string)

	resolved, corrected, err := resolvePath(t.WS, p)
	if err != nil {
		return toolspec.ExecResult{}, toolerrors.NewWithCause(toolerrors.KindNotFound, "replace_textdoc", err)
	}
	original, err := t.WS.ReadFile(resolved)
	if err != nil {
		return toolspec.ExecResult{}, toolerrors.NewWithCause(toolerrors.KindExecution, "replace_textdoc", err)
	}
	if err := t.WS.WriteFile(resolved, content); err != nil {
		return toolspec.ExecResult{}, toolerrors.NewWithCause(toolerrors.KindExecution, "replace_textdoc", err)
	}
	if err := t.WS.SyncAST(resolved); err != nil {
		return toolspec.ExecResult{}, toolerrors.NewWithCause(toolerrors.KindExecution, "replace_textdoc: syncing AST", err)
	}

	diff := model.Message{Role: model.RoleDiff, Kind: model.ContentSimpleText, ToolCallID: toolCallID,
		Text: fmt.Sprintf("edit %s [1,%d]\nreplaced %s in full", resolved, strings.Count(original, "\n")+1, resolved)}
	return toolspec.ExecResult{Corrections: corrected, Messages: []model.Message{diff}}, nil
}

func (t ReplaceTextdoc) CommandToMatchAgainstConfirmDeny(args map[string]any) string {
	p, _ := args["path"].(string)
	return confirm.CommandFromArgs("replace_textdoc", p)
}

func (t ReplaceTextdoc) MatchAgainstConfirmDeny(ctx context.Context, args map[string]any, overrides confirm.Rules) confirm.Result {
	return t.Base.Evaluate(ctx, args, overrides, t.CommandToMatchAgainstConfirmDeny)
}

// UpdateTextdoc implements the update_textdoc tool (spec §4.2): a literal
// old_str -> replacement substitution, optionally multi-occurrence,
// producing a diff-role message. Always confirmation-gated (spec §4.5).
type UpdateTextdoc struct {
	toolspec.Base
	WS Workspace
}

// NewUpdateTextdoc constructs the tool with its always-confirm default rule.
func NewUpdateTextdoc(ws Workspace) UpdateTextdoc {
	return UpdateTextdoc{Base: toolspec.Base{Rules: &textdocConfirmRules}, WS: ws}
}

func (t UpdateTextdoc) Description() toolspec.ToolDesc {
	return toolspec.ToolDesc{
		Name: "update_textdoc", DisplayName: "Update File", Source: "builtin", Agentic: true,
		Description: "Replace a literal substring in a file, once or at every occurrence.",
		Parameters: []toolspec.Param{
			{Name: "path", Type: "string", Desc: "file to update"},
			{Name: "old_str", Type: "string", Desc: "literal text to find"},
			{Name: "replacement", Type: "string", Desc: "text to substitute"},
			{Name: "multiple", Type: "boolean", Desc: "replace every occurrence instead of just the first"},
		},
		ParametersRequired: []string{"path", "old_str", "replacement"},
	}
}

func (t UpdateTextdoc) DependsOn() []string { return nil }

func (t UpdateTextdoc) Execute(ctx context.Context, toolCallID string, args map[string]any) (toolspec.ExecResult, error) {
	p, _ := args["path"].(string)
	oldStr, _ := args["old_str"].(string)
	replacement, _ := args["replacement"].(string)
	multiple, _ := args["multiple"].(bool)

	resolved, corrected, err := resolvePath(t.WS, p)
	if err != nil {
		return toolspec.ExecResult{}, toolerrors.NewWithCause(toolerrors.KindNotFound, "update_textdoc", err)
	}
	original, err := t.WS.ReadFile(resolved)
	if err != nil {
		return toolspec.ExecResult{}, toolerrors.NewWithCause(toolerrors.KindExecution, "update_textdoc", err)
	}
	if !strings.Contains(original, oldStr) {
		return toolspec.ExecResult{}, toolerrors.Errorf(toolerrors.KindParse, "update_textdoc: %q not found in %s", oldStr, resolved)
	}

	count := 1
	if multiple {
		count = -1
	}
	updated := strings.Replace(original, oldStr, replacement, count)
	if err := t.WS.WriteFile(resolved, updated); err != nil {
		return toolspec.ExecResult{}, toolerrors.NewWithCause(toolerrors.KindExecution, "update_textdoc", err)
	}
	if err := t.WS.SyncAST(resolved); err != nil {
		return toolspec.ExecResult{}, toolerrors.NewWithCause(toolerrors.KindExecution, "update_textdoc: syncing AST", err)
	}

	n := strings.Count(original, oldStr)
	if !multiple && n > 1 {
		n = 1
	}
	diff := model.Message{Role: model.RoleDiff, Kind: model.ContentSimpleText, ToolCallID: toolCallID,
		Text: fmt.Sprintf("edit %s\nreplaced %d occurrence(s) of %q", resolved, n, oldStr)}
	return toolspec.ExecResult{Corrections: corrected, Messages: []model.Message{diff}}, nil
}

func (t UpdateTextdoc) CommandToMatchAgainstConfirmDeny(args map[string]any) string {
	p, _ := args["path"].(string)
	return confirm.CommandFromArgs("update_textdoc", p)
}

func (t UpdateTextdoc) MatchAgainstConfirmDeny(ctx context.Context, args map[string]any, overrides confirm.Rules) confirm.Result {
	return t.Base.Evaluate(ctx, args, overrides, t.CommandToMatchAgainstConfirmDeny)
}
