package builtintools

import (
	"context"
	"fmt"

	"github.com/refact-ai/agentcore/internal/confirm"
	"github.com/refact-ai/agentcore/internal/model"
	"github.com/refact-ai/agentcore/internal/toolerrors"
	"github.com/refact-ai/agentcore/internal/toolspec"
)

var fileOpConfirmRules = confirm.Rules{AskUser: []string{"*"}}

// Mv implements the mv tool (spec §4.2): resolve paths, enforce project-dir
// and privacy constraints, produce a diff-role message with
// DiffChunk{file_action: rename}. Always confirmation-gated (spec §4.5).
type Mv struct {
	toolspec.Base
	WS Workspace
}

// NewMv constructs the mv tool with its always-confirm default rule.
func NewMv(ws Workspace) Mv {
	return Mv{Base: toolspec.Base{Rules: &fileOpConfirmRules}, WS: ws}
}

func (t Mv) Description() toolspec.ToolDesc {
	return toolspec.ToolDesc{
		Name: "mv", DisplayName: "Move/Rename File", Source: "builtin", Agentic: true,
		Description: "Rename or move a file within the workspace.",
		Parameters: []toolspec.Param{
			{Name: "path", Type: "string", Desc: "source path"},
			{Name: "new_path", Type: "string", Desc: "destination path"},
		},
		ParametersRequired: []string{"path", "new_path"},
	}
}

func (t Mv) DependsOn() []string { return nil }

func (t Mv) Execute(ctx context.Context, toolCallID string, args map[string]any) (toolspec.ExecResult, error) {
	src, _ := args["path"].(string)
	dst, _ := args["new_path"].(string)

	resolved, corrected, err := resolvePath(t.WS, src)
	if err != nil {
		return toolspec.ExecResult{}, toolerrors.NewWithCause(toolerrors.KindNotFound, "mv", err)
	}
	if err := checkProjectScope(t.WS, resolved); err != nil {
		return toolspec.ExecResult{}, err
	}
	if err := checkProjectScope(t.WS, dst); err != nil {
		return toolspec.ExecResult{}, err
	}
	if err := t.WS.Rename(resolved, dst); err != nil {
		return toolspec.ExecResult{}, toolerrors.NewWithCause(toolerrors.KindExecution, "mv", err)
	}
	if err := t.WS.SyncAST(dst); err != nil {
		return toolspec.ExecResult{}, toolerrors.NewWithCause(toolerrors.KindExecution, "mv: syncing AST", err)
	}

	diff := model.Message{Role: model.RoleDiff, Kind: model.ContentSimpleText, ToolCallID: toolCallID,
		Text: fmt.Sprintf("rename %s -> %s", resolved, dst)}
	return toolspec.ExecResult{Corrections: corrected, Messages: []model.Message{diff}}, nil
}

func (t Mv) CommandToMatchAgainstConfirmDeny(args map[string]any) string {
	src, _ := args["path"].(string)
	dst, _ := args["new_path"].(string)
	return confirm.CommandFromArgs("mv", src, dst)
}

func (t Mv) MatchAgainstConfirmDeny(ctx context.Context, args map[string]any, overrides confirm.Rules) confirm.Result {
	return t.Base.Evaluate(ctx, args, overrides, t.CommandToMatchAgainstConfirmDeny)
}

// Rm implements the rm tool (spec §4.2): resolve the path, enforce scope,
// produce a diff-role message with DiffChunk{file_action: remove}. Supports
// dry_run. Always confirmation-gated (spec §4.5).
type Rm struct {
	toolspec.Base
	WS Workspace
}

// NewRm constructs the rm tool with its always-confirm default rule.
func NewRm(ws Workspace) Rm {
	return Rm{Base: toolspec.Base{Rules: &fileOpConfirmRules}, WS: ws}
}

func (t Rm) Description() toolspec.ToolDesc {
	return toolspec.ToolDesc{
		Name: "rm", DisplayName: "Remove File", Source: "builtin", Agentic: true,
		Description: "Remove a file from the workspace.",
		Parameters: []toolspec.Param{
			{Name: "path", Type: "string", Desc: "path to remove"},
			{Name: "dry_run", Type: "boolean", Desc: "report what would be removed without removing it"},
		},
		ParametersRequired: []string{"path"},
	}
}

func (t Rm) DependsOn() []string { return nil }

func (t Rm) Execute(ctx context.Context, toolCallID string, args map[string]any) (toolspec.ExecResult, error) {
	p, _ := args["path"].(string)
	dryRun, _ := args["dry_run"].(bool)

	resolved, corrected, err := resolvePath(t.WS, p)
	if err != nil {
		return toolspec.ExecResult{}, toolerrors.NewWithCause(toolerrors.KindNotFound, "rm", err)
	}
	if err := checkProjectScope(t.WS, resolved); err != nil {
		return toolspec.ExecResult{}, err
	}

	if dryRun {
		msg := model.Message{Role: model.RoleDiff, Kind: model.ContentSimpleText, ToolCallID: toolCallID,
			Text: fmt.Sprintf("(dry run) remove %s", resolved)}
		return toolspec.ExecResult{Corrections: corrected, Messages: []model.Message{msg}}, nil
	}

	if err := t.WS.Remove(resolved); err != nil {
		return toolspec.ExecResult{}, toolerrors.NewWithCause(toolerrors.KindExecution, "rm", err)
	}
	if err := t.WS.SyncAST(resolved); err != nil {
		return toolspec.ExecResult{}, toolerrors.NewWithCause(toolerrors.KindExecution, "rm: syncing AST", err)
	}

	diff := model.Message{Role: model.RoleDiff, Kind: model.ContentSimpleText, ToolCallID: toolCallID,
		Text: fmt.Sprintf("remove %s", resolved)}
	return toolspec.ExecResult{Corrections: corrected, Messages: []model.Message{diff}}, nil
}

func (t Rm) CommandToMatchAgainstConfirmDeny(args map[string]any) string {
	p, _ := args["path"].(string)
	return confirm.CommandFromArgs("rm", p)
}

func (t Rm) MatchAgainstConfirmDeny(ctx context.Context, args map[string]any, overrides confirm.Rules) confirm.Result {
	return t.Base.Evaluate(ctx, args, overrides, t.CommandToMatchAgainstConfirmDeny)
}
