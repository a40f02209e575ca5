package executor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/refact-ai/agentcore/internal/confirm"
	"github.com/refact-ai/agentcore/internal/model"
	"github.com/refact-ai/agentcore/internal/toolspec"
)

type stubTool struct {
	toolspec.Base
	name   string
	result toolspec.ExecResult
	err    error
}

func (s stubTool) Description() toolspec.ToolDesc {
	return toolspec.ToolDesc{Name: s.name, ParametersRequired: []string{"path"}}
}
func (s stubTool) DependsOn() []string { return nil }
func (s stubTool) Execute(_ context.Context, toolCallID string, _ map[string]any) (toolspec.ExecResult, error) {
	if s.err != nil {
		return toolspec.ExecResult{}, s.err
	}
	if len(s.result.Messages) == 0 {
		return toolspec.ExecResult{Messages: []model.Message{model.NewToolResult(toolCallID, "ok")}}, nil
	}
	return s.result, nil
}
func (s stubTool) CommandToMatchAgainstConfirmDeny(args map[string]any) string {
	return toolspec.ToolDesc{}.Name
}
func (s stubTool) MatchAgainstConfirmDeny(ctx context.Context, args map[string]any, overrides confirm.Rules) confirm.Result {
	return s.Base.Evaluate(ctx, args, overrides, func(a map[string]any) string {
		path, _ := a["path"].(string)
		return confirm.CommandFromArgs(s.name, path)
	})
}

func call(id, toolName string, args map[string]any) model.ToolCall {
	raw, _ := json.Marshal(args)
	return model.ToolCall{ID: id, Function: model.ToolCallFunction{Name: toolName, Arguments: string(raw)}}
}

func newRegistry(tools ...toolspec.Tool) *toolspec.Registry {
	r := toolspec.NewRegistry()
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

func TestRunIsNoOpWithoutToolCalls(t *testing.T) {
	msgs := []model.Message{model.NewSimpleText(model.RoleAssistant, "hi")}
	out, err := Run(context.Background(), Input{Messages: msgs, Registry: newRegistry()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.SomethingHappened {
		t.Fatal("expected SomethingHappened=false with no tool_calls")
	}
}

func TestRunEveryToolCallGetsExactlyOneReply(t *testing.T) {
	t1 := stubTool{name: "read_file"}
	t2 := stubTool{name: "write_file"}
	msgs := []model.Message{{
		Role: model.RoleAssistant,
		ToolCalls: []model.ToolCall{
			call("c1", "read_file", map[string]any{"path": "a.go"}),
			call("c2", "write_file", map[string]any{"path": "b.go"}),
		},
	}}
	out, err := Run(context.Background(), Input{Messages: msgs, Registry: newRegistry(t1, t2)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	replies := out.Messages[len(msgs):]
	if len(replies) != 2 {
		t.Fatalf("expected exactly 2 replies for 2 tool_calls, got %d", len(replies))
	}
	if replies[0].ToolCallID != "c1" || replies[1].ToolCallID != "c2" {
		t.Fatalf("replies not correlated to their tool_call IDs: %+v", replies)
	}
}

func TestRunUnknownToolProducesErrorReply(t *testing.T) {
	msgs := []model.Message{{
		Role:      model.RoleAssistant,
		ToolCalls: []model.ToolCall{call("c1", "does_not_exist", map[string]any{})},
	}}
	out, _ := Run(context.Background(), Input{Messages: msgs, Registry: newRegistry()})
	reply := out.Messages[len(msgs)]
	if reply.Role != model.RoleTool || reply.ToolCallID != "c1" {
		t.Fatalf("expected a tool-role error reply for c1, got %+v", reply)
	}
}

func TestRunInvalidJSONArgumentsProducesErrorReply(t *testing.T) {
	msgs := []model.Message{{
		Role: model.RoleAssistant,
		ToolCalls: []model.ToolCall{
			{ID: "c1", Function: model.ToolCallFunction{Name: "read_file", Arguments: "{not json"}},
		},
	}}
	out, _ := Run(context.Background(), Input{Messages: msgs, Registry: newRegistry(stubTool{name: "read_file"})})
	reply := out.Messages[len(msgs)]
	if reply.ToolCallID != "c1" {
		t.Fatalf("expected error reply for c1, got %+v", reply)
	}
}

func TestRunMissingRequiredFieldProducesErrorReply(t *testing.T) {
	msgs := []model.Message{{
		Role:      model.RoleAssistant,
		ToolCalls: []model.ToolCall{call("c1", "read_file", map[string]any{})},
	}}
	out, _ := Run(context.Background(), Input{Messages: msgs, Registry: newRegistry(stubTool{name: "read_file"})})
	reply := out.Messages[len(msgs)]
	if reply.ToolCallID != "c1" {
		t.Fatalf("expected validation error reply for c1, got %+v", reply)
	}
}

func TestRunToolErrorStillProducesReply(t *testing.T) {
	failing := stubTool{name: "flaky", err: errors.New("boom")}
	msgs := []model.Message{{
		Role:      model.RoleAssistant,
		ToolCalls: []model.ToolCall{call("c1", "flaky", map[string]any{"path": "x"})},
	}}
	out, err := Run(context.Background(), Input{Messages: msgs, Registry: newRegistry(failing)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	reply := out.Messages[len(msgs)]
	if reply.ToolCallID != "c1" {
		t.Fatalf("expected exactly one reply correlated to c1 despite tool error, got %+v", reply)
	}
}

func TestRunDeniedToolProducesErrorReply(t *testing.T) {
	deny := confirm.Rules{Deny: []string{"rm *"}}
	denyRules := deny
	tool := stubTool{name: "rm", result: toolspec.ExecResult{}}
	tool.Base = toolspec.Base{Rules: &denyRules}
	msgs := []model.Message{{
		Role:      model.RoleAssistant,
		ToolCalls: []model.ToolCall{call("c1", "rm", map[string]any{"path": "/tmp"})},
	}}
	out, _ := Run(context.Background(), Input{Messages: msgs, Registry: newRegistry(tool)})
	reply := out.Messages[len(msgs)]
	if reply.ToolCallID != "c1" {
		t.Fatalf("expected denial reply for c1, got %+v", reply)
	}
}
