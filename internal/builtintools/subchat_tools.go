package builtintools

import (
	"context"

	"github.com/refact-ai/agentcore/internal/confirm"
	"github.com/refact-ai/agentcore/internal/model"
	"github.com/refact-ai/agentcore/internal/modelclient"
	"github.com/refact-ai/agentcore/internal/subchat"
	"github.com/refact-ai/agentcore/internal/toolspec"
)

func subchatParams(args map[string]any) subchat.Parameters {
	p := subchat.Parameters{MaxNewTokens: 2048}
	if m, ok := args["model"].(string); ok {
		p.Model = m
	}
	if n, ok := args["n_ctx"].(float64); ok {
		p.NCtx = int(n)
	}
	if n, ok := args["tokens_for_rag"].(float64); ok {
		p.TokensForRAG = int(n)
	}
	if n, ok := args["max_new_tokens"].(float64); ok && n > 0 {
		p.MaxNewTokens = int(n)
	}
	if tmp, ok := args["temperature"].(float64); ok {
		p.Temperature = &tmp
	}
	if e, ok := args["reasoning_effort"].(string); ok {
		p.ReasoningEffort = e
	}
	return p
}

var deepResearchConfirmRules = confirm.Rules{AskUser: []string{"*"}}

// DeepResearch implements the deep_research tool (spec §4.2, §4.7): delegate
// to the shared subchat.Runner, which schedules the sub-chat through
// internal/engine. Always confirmation-gated (spec §4.5).
type DeepResearch struct {
	toolspec.Base
	Client modelclient.Client
	Side   subchat.Side
	Runner *subchat.Runner
}

// NewDeepResearch constructs the tool with its always-confirm default rule.
func NewDeepResearch(client modelclient.Client, side subchat.Side, runner *subchat.Runner) DeepResearch {
	return DeepResearch{Base: toolspec.Base{Rules: &deepResearchConfirmRules}, Client: client, Side: side, Runner: runner}
}

func (t DeepResearch) Description() toolspec.ToolDesc {
	return toolspec.ToolDesc{
		Name: "deep_research", DisplayName: "Deep Research", Source: "builtin", Agentic: true,
		Description: "Spawn a researcher sub-chat to investigate a task thoroughly before answering.",
		Parameters: []toolspec.Param{
			{Name: "task", Type: "string", Desc: "research task description"},
			{Name: "model", Type: "string", Desc: "model to run the sub-chat on"},
		},
		ParametersRequired: []string{"task"},
	}
}

func (t DeepResearch) DependsOn() []string { return nil }

func (t DeepResearch) Execute(ctx context.Context, toolCallID string, args map[string]any) (toolspec.ExecResult, error) {
	task, _ := args["task"].(string)
	res, err := t.Runner.DeepResearch(ctx, t.Client, subchatParams(args), task, t.Side)
	if err != nil {
		return toolspec.ExecResult{}, err
	}
	reply := res.Message
	reply.Role = model.RoleTool
	reply.ToolCallID = toolCallID
	return toolspec.ExecResult{Messages: []model.Message{reply}, Usage: &res.Usage}, nil
}

func (t DeepResearch) CommandToMatchAgainstConfirmDeny(args map[string]any) string {
	task, _ := args["task"].(string)
	return confirm.CommandFromArgs("deep_research", task)
}

func (t DeepResearch) MatchAgainstConfirmDeny(ctx context.Context, args map[string]any, overrides confirm.Rules) confirm.Result {
	return t.Base.Evaluate(ctx, args, overrides, t.CommandToMatchAgainstConfirmDeny)
}

// DeepThinking implements the deep_thinking tool (spec §4.2, §4.7): delegate
// to the shared subchat.Runner over the parent transcript.
type DeepThinking struct {
	toolspec.Base
	Client           modelclient.Client
	ParentTranscript func() []model.Message
	Runner           *subchat.Runner
}

func (t DeepThinking) Description() toolspec.ToolDesc {
	return toolspec.ToolDesc{
		Name: "deep_thinking", DisplayName: "Deep Thinking", Source: "builtin",
		Description: "Summarize the parent conversation into a flat transcript and ask the model a focused question about it.",
		Parameters: []toolspec.Param{
			{Name: "question", Type: "string", Desc: "the question to answer against the flattened transcript"},
		},
		ParametersRequired: []string{"question"},
	}
}

func (t DeepThinking) DependsOn() []string { return nil }

func (t DeepThinking) Execute(ctx context.Context, toolCallID string, args map[string]any) (toolspec.ExecResult, error) {
	question, _ := args["question"].(string)
	var transcript []model.Message
	if t.ParentTranscript != nil {
		transcript = t.ParentTranscript()
	}
	res, err := t.Runner.DeepThinking(ctx, t.Client, subchatParams(args), transcript, question)
	if err != nil {
		return toolspec.ExecResult{}, err
	}
	reply := res.Message
	reply.Role = model.RoleTool
	reply.ToolCallID = toolCallID
	return toolspec.ExecResult{Messages: []model.Message{reply}, Usage: &res.Usage}, nil
}

func (t DeepThinking) CommandToMatchAgainstConfirmDeny(args map[string]any) string {
	q, _ := args["question"].(string)
	return confirm.CommandFromArgs("deep_thinking", q)
}

func (t DeepThinking) MatchAgainstConfirmDeny(ctx context.Context, args map[string]any, overrides confirm.Rules) confirm.Result {
	return t.Base.Evaluate(ctx, args, overrides, t.CommandToMatchAgainstConfirmDeny)
}

// Subagent implements the subagent tool (spec §4.2, §4.7): delegate to the
// shared subchat.Runner with a restricted tool registry, persisting its
// report into the memory index tagged [subagent, delegation].
type Subagent struct {
	toolspec.Base
	Client    modelclient.Client
	Registry  *toolspec.Registry
	SystemMsg string
	Memory    MemoryIndex
	Runner    *subchat.Runner
}

func (t Subagent) Description() toolspec.ToolDesc {
	return toolspec.ToolDesc{
		Name: "subagent", DisplayName: "Sub-Agent", Source: "builtin", Agentic: true,
		Description: "Run a full tool-using sub-agent loop against a restricted tool set to accomplish a delegated task.",
		Parameters: []toolspec.Param{
			{Name: "task", Type: "string", Desc: "the task to delegate"},
			{Name: "max_steps", Type: "integer", Desc: "maximum tool-execution rounds (clamped to [1,50])"},
		},
		ParametersRequired: []string{"task"},
	}
}

func (t Subagent) DependsOn() []string { return nil }

func (t Subagent) Execute(ctx context.Context, toolCallID string, args map[string]any) (toolspec.ExecResult, error) {
	task, _ := args["task"].(string)
	maxSteps := subchat.ClampMaxSteps(0)
	if n, ok := args["max_steps"].(float64); ok {
		maxSteps = int(n)
	}

	var memoryFn func(string)
	if t.Memory != nil {
		memoryFn = func(report string) {
			_ = t.Memory.Record([]string{"subagent", "delegation"}, report)
		}
	}

	res, err := t.Runner.Subagent(ctx, t.Client, t.Registry, subchatParams(args), t.SystemMsg, task, maxSteps, memoryFn)
	if err != nil {
		return toolspec.ExecResult{}, err
	}
	reply := res.Message
	reply.Role = model.RoleTool
	reply.ToolCallID = toolCallID
	return toolspec.ExecResult{Messages: []model.Message{reply}, Usage: &res.Usage}, nil
}

func (t Subagent) CommandToMatchAgainstConfirmDeny(args map[string]any) string {
	task, _ := args["task"].(string)
	return confirm.CommandFromArgs("subagent", task)
}

func (t Subagent) MatchAgainstConfirmDeny(ctx context.Context, args map[string]any, overrides confirm.Rules) confirm.Result {
	return t.Base.Evaluate(ctx, args, overrides, t.CommandToMatchAgainstConfirmDeny)
}
