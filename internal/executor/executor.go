// Package executor drives one round of tool execution (C6): given a message
// list whose last assistant message carries tool_calls, it parses arguments,
// looks up and runs each tool, and guarantees every call gets exactly one
// reply. It mirrors the teacher's tool-call dispatch shape (runtime/agent/
// tools and runtime/toolregistry) generalized from generated Goa adapters to
// the hand-written toolspec.Tool contract.
package executor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/refact-ai/agentcore/internal/confirm"
	"github.com/refact-ai/agentcore/internal/contextpp"
	"github.com/refact-ai/agentcore/internal/model"
	"github.com/refact-ai/agentcore/internal/telemetry"
	"github.com/refact-ai/agentcore/internal/toolerrors"
	"github.com/refact-ai/agentcore/internal/toolspec"
)

// Input bundles what Run needs to execute one round of tool calls.
type Input struct {
	// Messages is the transcript so far; its last element must be an
	// assistant message. If that message has no ToolCalls, Run is a no-op.
	Messages []model.Message
	Registry *toolspec.Registry

	// ConfirmOverrides are session/config-level confirm/deny rules, keyed by
	// tool name, merged over each tool's own defaults (spec §4.5).
	ConfirmOverrides map[string]confirm.Rules

	// PostProcessBudget, when non-zero, enables context post-processing
	// (§4.4) over the generated context files once the round completes, if
	// the remaining budget exceeds PostProcessFloor.
	PostProcessBudget contextpp.Budget
	PostProcessFloor  int
	Tokenizer         contextpp.Tokenizer

	Logger telemetry.Logger
}

// Output is the result of one executor round.
type Output struct {
	// Messages is the input transcript plus every generated reply, in tool
	// call order, with context files post-processed per §4.4 when enabled.
	Messages []model.Message
	// SomethingHappened is false only when there were no tool_calls to run.
	SomethingHappened bool
	Usage             model.Usage
}

// Run executes the C6 round described in spec §4.6.
func Run(ctx context.Context, in Input) (Output, error) {
	if len(in.Messages) == 0 {
		return Output{Messages: in.Messages}, nil
	}
	last := in.Messages[len(in.Messages)-1]
	if last.Role != model.RoleAssistant || len(last.ToolCalls) == 0 {
		return Output{Messages: in.Messages}, nil
	}

	var generated []model.Message
	var contextFiles []model.ContextFile
	var usage model.Usage

	for _, call := range last.ToolCalls {
		msgs, files, callUsage := runOne(ctx, in, call)
		if len(msgs) != 1 {
			// The round-trip invariant (spec §4.6 step 3) requires exactly
			// one reply per tool_call; a tool that returns more than one
			// collapses to its first so the invariant still holds.
			if len(msgs) == 0 {
				msgs = []model.Message{model.NewToolResult(call.ID, "tool produced no reply")}
			} else {
				msgs = msgs[:1]
			}
		}
		generated = append(generated, msgs...)
		contextFiles = append(contextFiles, files...)
		usage = usage.Add(callUsage)
	}

	out := append(append([]model.Message{}, in.Messages...), generated...)

	if len(contextFiles) > 0 && in.PostProcessBudget.Code+in.PostProcessBudget.Text > in.PostProcessFloor {
		pp := contextpp.Process(contextpp.Input{
			Transcript: out,
			Files:      contextFiles,
			Budget:     in.PostProcessBudget,
			Tokenizer:  in.Tokenizer,
		})
		out = append(out, model.NewContextFiles(pp.Files))
	}

	return Output{Messages: out, SomethingHappened: true, Usage: usage}, nil
}

// runOne parses, looks up, and executes a single tool call, guaranteeing a
// reply message is always produced (spec §4.6 steps 1-3).
func runOne(ctx context.Context, in Input, call model.ToolCall) ([]model.Message, []model.ContextFile, model.Usage) {
	var args map[string]any
	if call.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			return []model.Message{errorReply(call.ID, toolerrors.NewWithCause(toolerrors.KindValidation, "invalid arguments", err))}, nil, model.Usage{}
		}
	}
	if args == nil {
		args = map[string]any{}
	}

	tool, ok := in.Registry.Get(call.Function.Name)
	if !ok {
		return []model.Message{errorReply(call.ID, toolerrors.Errorf(toolerrors.KindNotFound, "unknown tool %q", call.Function.Name))}, nil, model.Usage{}
	}

	if issues, err := toolspec.ValidateArgs(tool.Description(), args); err != nil {
		return []model.Message{errorReply(call.ID, toolerrors.NewWithCause(toolerrors.KindValidation, "validating arguments", err))}, nil, model.Usage{}
	} else if len(issues) > 0 {
		return []model.Message{errorReply(call.ID, toolerrors.Errorf(toolerrors.KindValidation, "argument validation failed: %v", issues))}, nil, model.Usage{}
	}

	overrides := in.ConfirmOverrides[call.Function.Name]
	if res := tool.MatchAgainstConfirmDeny(ctx, args, overrides); res.Outcome == confirm.Deny {
		return []model.Message{errorReply(call.ID, toolerrors.Errorf(toolerrors.KindPermission, "denied by rule %q", res.Rule))}, nil, model.Usage{}
	}

	result, err := tool.Execute(ctx, call.ID, args)
	usage := model.Usage{}
	if result.Usage != nil {
		usage = *result.Usage
	}
	if err != nil {
		msg := errorReply(call.ID, err)
		return []model.Message{msg}, nil, usage
	}
	if len(result.Messages) == 0 {
		return nil, result.ContextFiles, usage
	}
	return result.Messages, result.ContextFiles, usage
}

func errorReply(toolCallID string, err error) model.Message {
	return model.NewToolResult(toolCallID, fmt.Sprintf("error: %v", err))
}
