// Package subchat implements the three sub-chat/sub-agent variants (C7):
// deep_research, deep_thinking, and subagent. All three share one skeleton —
// a bounded nested conversation against a restricted tool set — generalized
// from the teacher's runtime/agent/engine workflow abstraction (internal/
// engine here) down to a single-shot "run to completion" shape instead of a
// durable, replayable workflow.
package subchat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/refact-ai/agentcore/internal/executor"
	"github.com/refact-ai/agentcore/internal/model"
	"github.com/refact-ai/agentcore/internal/modelclient"
	"github.com/refact-ai/agentcore/internal/toolspec"
)

// Parameters configures every sub-chat variant (spec §4.7).
type Parameters struct {
	Model           string
	NCtx            int
	TokensForRAG    int
	Temperature     *float64
	MaxNewTokens    int
	ReasoningEffort string
}

// Side is the side channel a running sub-chat uses to emit "entertainment"
// messages back to the parent conversation while a call is outstanding.
type Side interface {
	Emit(model.Message)
}

// Result is what every sub-chat variant returns to its caller.
type Result struct {
	Message model.Message
	Usage   model.Usage
}

// DeepResearch runs one model turn with a researcher system prompt. While the
// call is outstanding it emits an "entertainment" assistant message to side
// every 10 seconds, stopping the ticker as soon as the call completes (spec
// §4.7 "deep_research").
func DeepResearch(ctx context.Context, client modelclient.Client, params Parameters, task string, side Side) (Result, error) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	done := make(chan struct{})
	go func() {
		n := 0
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				n++
				if side != nil {
					side.Emit(model.NewSimpleText(model.RoleAssistant,
						fmt.Sprintf("Still researching... (%ds elapsed)", n*10)))
				}
			}
		}
	}()

	msgs := []model.Message{
		model.NewSimpleText(model.RoleSystem, researcherSystemPrompt),
		model.NewSimpleText(model.RoleUser, task),
	}
	resp, err := client.Complete(ctx, modelclient.Request{
		Model:           params.Model,
		Messages:        msgs,
		Temperature:     params.Temperature,
		MaxNewTokens:    params.MaxNewTokens,
		ReasoningEffort: params.ReasoningEffort,
	})
	close(done)
	if err != nil {
		return Result{}, fmt.Errorf("subchat: deep_research: %w", err)
	}
	return Result{Message: resp.Message, Usage: resp.Usage}, nil
}

const researcherSystemPrompt = "You are a careful research assistant. Investigate the task thoroughly before answering, and cite what you found in the codebase or documents you were given."

// DeepThinking flattens the parent's conversation into a single user message
// (prefixed user/assistant turns, with context files inlined) and asks the
// model one turn with that as the sole input (spec §4.7 "deep_thinking").
func DeepThinking(ctx context.Context, client modelclient.Client, params Parameters, parentTranscript []model.Message, question string) (Result, error) {
	flat := FlattenTranscript(parentTranscript)
	var sb strings.Builder
	sb.WriteString(flat)
	sb.WriteString("\n\n")
	sb.WriteString(question)

	resp, err := client.Complete(ctx, modelclient.Request{
		Model:           params.Model,
		Messages:        []model.Message{model.NewSimpleText(model.RoleUser, sb.String())},
		Temperature:     params.Temperature,
		MaxNewTokens:    params.MaxNewTokens,
		ReasoningEffort: params.ReasoningEffort,
	})
	if err != nil {
		return Result{}, fmt.Errorf("subchat: deep_thinking: %w", err)
	}
	return Result{Message: resp.Message, Usage: resp.Usage}, nil
}

// FlattenTranscript renders a transcript as "role: content" lines, inlining
// context-file bodies, for use as deep_thinking's sole user message.
func FlattenTranscript(transcript []model.Message) string {
	var sb strings.Builder
	for _, m := range transcript {
		switch m.Role {
		case model.RoleUser, model.RoleAssistant:
			if text := m.ContentTextOnly(); text != "" {
				fmt.Fprintf(&sb, "%s: %s\n", m.Role, text)
			}
		case model.RoleContextFile:
			for _, cf := range m.ContextFiles {
				fmt.Fprintf(&sb, "file %s:\n%s\n", cf.FileName, cf.FileContent)
			}
		}
	}
	return sb.String()
}

const defaultMaxSteps = 50
const minMaxSteps = 1

// ClampMaxSteps bounds a subagent's step budget to [1, 50] (spec §4.7).
func ClampMaxSteps(n int) int {
	if n < minMaxSteps {
		return minMaxSteps
	}
	if n > defaultMaxSteps {
		return defaultMaxSteps
	}
	return n
}

// Subagent runs the full tool-using loop: a system prompt plus a user task,
// up to maxSteps (clamped to [1,50]) tool-execution rounds against a
// restricted registry and, if that budget runs out, asking the model to wrap up (spec §4.7
// "subagent"). The returned Result's Message is the final assistant reply;
// memoryFn, when non-nil, is invoked with the report so the caller can
// persist it into the memory index tagged [subagent, delegation].
func Subagent(ctx context.Context, client modelclient.Client, registry *toolspec.Registry, params Parameters, systemPrompt, task string, maxSteps int, memoryFn func(report string)) (Result, error) {
	maxSteps = ClampMaxSteps(maxSteps)

	msgs := []model.Message{
		model.NewSimpleText(model.RoleSystem, systemPrompt),
		model.NewSimpleText(model.RoleUser, task),
	}
	var total model.Usage
	advertise := registry.Advertise(toolspec.AdvertiseOptions{AllowAgentic: true})
	tools := make([]modelclient.ToolDef, 0, len(advertise))
	for _, d := range advertise {
		tools = append(tools, modelclient.ToolDef{Name: d.Name, Description: d.Description})
	}

	for step := 0; step < maxSteps; step++ {
		resp, err := client.Complete(ctx, modelclient.Request{
			Model:           params.Model,
			Messages:        msgs,
			Tools:           tools,
			Temperature:     params.Temperature,
			MaxNewTokens:    params.MaxNewTokens,
			ReasoningEffort: params.ReasoningEffort,
		})
		if err != nil {
			return Result{}, fmt.Errorf("subchat: subagent step %d: %w", step, err)
		}
		total = total.Add(resp.Usage)
		msgs = append(msgs, resp.Message)
		if len(resp.Message.ToolCalls) == 0 {
			if memoryFn != nil {
				memoryFn(resp.Message.ContentTextOnly())
			}
			return Result{Message: resp.Message, Usage: total}, nil
		}

		out, err := executor.Run(ctx, executor.Input{Messages: msgs, Registry: registry})
		if err != nil {
			return Result{}, fmt.Errorf("subchat: subagent step %d executor: %w", step, err)
		}
		msgs = out.Messages
		total = total.Add(out.Usage)
	}

	// Step budget exhausted: ask the model to wrap up with no further tools.
	msgs = append(msgs, model.NewSimpleText(model.RoleUser, "You've reached the step limit. Summarize your findings now."))
	resp, err := client.Complete(ctx, modelclient.Request{
		Model:        params.Model,
		Messages:     msgs,
		Temperature:  params.Temperature,
		MaxNewTokens: params.MaxNewTokens,
	})
	if err != nil {
		return Result{}, fmt.Errorf("subchat: subagent wrap-up: %w", err)
	}
	total = total.Add(resp.Usage)
	if memoryFn != nil {
		memoryFn(resp.Message.ContentTextOnly())
	}
	return Result{Message: resp.Message, Usage: total}, nil
}
