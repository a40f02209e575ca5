package subchat

import (
	"context"

	"github.com/google/uuid"

	"github.com/refact-ai/agentcore/internal/engine"
	"github.com/refact-ai/agentcore/internal/model"
	"github.com/refact-ai/agentcore/internal/modelclient"
	"github.com/refact-ai/agentcore/internal/toolspec"
)

const (
	taskDeepResearch = "subchat.deep_research"
	taskDeepThinking = "subchat.deep_thinking"
	taskSubagent     = "subchat.subagent"
)

// Runner schedules sub-chat variants through an engine.Engine (spec §4.7's
// expansion: sub-chats run as engine-scheduled activities rather than being
// called inline), assigning each invocation a globally unique run id so
// engine backends that log or trace by execution ID (including a future
// Temporal-backed Engine) can correlate a sub-chat hop back to its parent
// turn. Grounded on the teacher's runtime/agent/runtime.generateRunID, which
// solves the identical problem for workflow execution IDs.
type Runner struct {
	eng engine.Engine
}

// NewRunner registers the three sub-chat task kinds on eng and returns a
// Runner that schedules through it.
func NewRunner(eng engine.Engine) (*Runner, error) {
	r := &Runner{eng: eng}
	if err := eng.Register(taskDeepResearch, r.runDeepResearch); err != nil {
		return nil, err
	}
	if err := eng.Register(taskDeepThinking, r.runDeepThinking); err != nil {
		return nil, err
	}
	if err := eng.Register(taskSubagent, r.runSubagent); err != nil {
		return nil, err
	}
	return r, nil
}

// runID generates a unique engine execution id, prefixed for observability
// the way the teacher's generateRunID prefixes workflow IDs with an agent id.
func runID(kind string) string {
	return kind + "-" + uuid.NewString()
}

type deepResearchInput struct {
	Client modelclient.Client
	Params Parameters
	Task   string
	Side   Side
}

func (r *Runner) runDeepResearch(ctx engine.Context, input any) (any, error) {
	in := input.(deepResearchInput)
	return DeepResearch(ctx.Context(), in.Client, in.Params, in.Task, in.Side)
}

// DeepResearch schedules the deep_research sub-chat through the engine.
func (r *Runner) DeepResearch(ctx context.Context, client modelclient.Client, params Parameters, task string, side Side) (Result, error) {
	h, err := r.eng.Start(ctx, runID(taskDeepResearch), taskDeepResearch, deepResearchInput{Client: client, Params: params, Task: task, Side: side})
	if err != nil {
		return Result{}, err
	}
	out, err := h.Wait(ctx)
	if err != nil {
		return Result{}, err
	}
	return resultOrZero(out), nil
}

type deepThinkingInput struct {
	Client           modelclient.Client
	Params           Parameters
	ParentTranscript []model.Message
	Question         string
}

func (r *Runner) runDeepThinking(ctx engine.Context, input any) (any, error) {
	in := input.(deepThinkingInput)
	return DeepThinking(ctx.Context(), in.Client, in.Params, in.ParentTranscript, in.Question)
}

// DeepThinking schedules the deep_thinking sub-chat through the engine.
func (r *Runner) DeepThinking(ctx context.Context, client modelclient.Client, params Parameters, parentTranscript []model.Message, question string) (Result, error) {
	h, err := r.eng.Start(ctx, runID(taskDeepThinking), taskDeepThinking, deepThinkingInput{Client: client, Params: params, ParentTranscript: parentTranscript, Question: question})
	if err != nil {
		return Result{}, err
	}
	out, err := h.Wait(ctx)
	if err != nil {
		return Result{}, err
	}
	return resultOrZero(out), nil
}

type subagentInput struct {
	Client       modelclient.Client
	Registry     *toolspec.Registry
	Params       Parameters
	SystemPrompt string
	Task         string
	MaxSteps     int
	MemoryFn     func(string)
}

func (r *Runner) runSubagent(ctx engine.Context, input any) (any, error) {
	in := input.(subagentInput)
	return Subagent(ctx.Context(), in.Client, in.Registry, in.Params, in.SystemPrompt, in.Task, in.MaxSteps, in.MemoryFn)
}

// Subagent schedules the subagent sub-chat through the engine.
func (r *Runner) Subagent(ctx context.Context, client modelclient.Client, registry *toolspec.Registry, params Parameters, systemPrompt, task string, maxSteps int, memoryFn func(report string)) (Result, error) {
	h, err := r.eng.Start(ctx, runID(taskSubagent), taskSubagent, subagentInput{
		Client: client, Registry: registry, Params: params,
		SystemPrompt: systemPrompt, Task: task, MaxSteps: maxSteps, MemoryFn: memoryFn,
	})
	if err != nil {
		return Result{}, err
	}
	out, err := h.Wait(ctx)
	if err != nil {
		return Result{}, err
	}
	return resultOrZero(out), nil
}

func resultOrZero(v any) Result {
	res, _ := v.(Result)
	return res
}
