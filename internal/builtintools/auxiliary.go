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

// MemoryIndex is the external auxiliary-state collaborator used by
// create_knowledge and by Subagent's report persistence.
type MemoryIndex interface {
	Record(tags []string, text string) error
}

// TrajectoryContextProvider is the external collaborator get_trajectory_context
// reads from (spec.md: "inspect ... auxiliary state").
type TrajectoryContextProvider interface {
	Context(chatID string) (string, error)
}

// CreateKnowledge implements the create_knowledge tool: record a note into
// the memory index.
type CreateKnowledge struct {
	toolspec.Base
	Memory MemoryIndex
}

func (t CreateKnowledge) Description() toolspec.ToolDesc {
	return toolspec.ToolDesc{
		Name: "create_knowledge", DisplayName: "Create Knowledge", Source: "builtin",
		Description: "Record a durable note into the memory index for later recall.",
		Parameters: []toolspec.Param{
			{Name: "text", Type: "string", Desc: "the note to record"},
			{Name: "tags", Type: "string", Desc: "comma-separated tags"},
		},
		ParametersRequired: []string{"text"},
	}
}

func (t CreateKnowledge) DependsOn() []string { return []string{"memory"} }

func (t CreateKnowledge) Execute(ctx context.Context, toolCallID string, args map[string]any) (toolspec.ExecResult, error) {
	text, _ := args["text"].(string)
	var tags []string
	if tagsArg, ok := args["tags"].(string); ok {
		for _, tag := range strings.Split(tagsArg, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}
	if err := t.Memory.Record(tags, text); err != nil {
		return toolspec.ExecResult{}, toolerrors.NewWithCause(toolerrors.KindExecution, "create_knowledge", err)
	}
	return toolspec.ExecResult{
		Messages: []model.Message{model.NewToolResult(toolCallID, "Knowledge recorded.")},
	}, nil
}

func (t CreateKnowledge) CommandToMatchAgainstConfirmDeny(args map[string]any) string {
	return confirm.CommandFromArgs("create_knowledge")
}

func (t CreateKnowledge) MatchAgainstConfirmDeny(ctx context.Context, args map[string]any, overrides confirm.Rules) confirm.Result {
	return t.Base.Evaluate(ctx, args, overrides, t.CommandToMatchAgainstConfirmDeny)
}

// GetTrajectoryContext implements the get_trajectory_context tool: fetch a
// rendered context string for a given chat id.
type GetTrajectoryContext struct {
	toolspec.Base
	Trajectories TrajectoryContextProvider
}

func (t GetTrajectoryContext) Description() toolspec.ToolDesc {
	return toolspec.ToolDesc{
		Name: "get_trajectory_context", DisplayName: "Get Trajectory Context", Source: "builtin",
		Description: "Fetch a rendered summary of a trajectory's context by chat id.",
		Parameters: []toolspec.Param{
			{Name: "chat_id", Type: "string", Desc: "the trajectory's chat id"},
		},
		ParametersRequired: []string{"chat_id"},
	}
}

func (t GetTrajectoryContext) DependsOn() []string { return nil }

func (t GetTrajectoryContext) Execute(ctx context.Context, toolCallID string, args map[string]any) (toolspec.ExecResult, error) {
	chatID, _ := args["chat_id"].(string)
	text, err := t.Trajectories.Context(chatID)
	if err != nil {
		return toolspec.ExecResult{}, toolerrors.NewWithCause(toolerrors.KindNotFound, "get_trajectory_context", err)
	}
	return toolspec.ExecResult{Messages: []model.Message{model.NewToolResult(toolCallID, text)}}, nil
}

func (t GetTrajectoryContext) CommandToMatchAgainstConfirmDeny(args map[string]any) string {
	chatID, _ := args["chat_id"].(string)
	return confirm.CommandFromArgs("get_trajectory_context", chatID)
}

func (t GetTrajectoryContext) MatchAgainstConfirmDeny(ctx context.Context, args map[string]any, overrides confirm.Rules) confirm.Result {
	return t.Base.Evaluate(ctx, args, overrides, t.CommandToMatchAgainstConfirmDeny)
}

// CompressSession implements the compress_session tool. Its interaction with
// the chat-compression pipeline is not specified beyond spec.md's note to
// "treat its output (a text acknowledgement listing files) as the full
// contract unless explicitly extended" — so this tool only ever reports
// which context files it was handed, and performs no compression itself.
type CompressSession struct {
	toolspec.Base
}

func (t CompressSession) Description() toolspec.ToolDesc {
	return toolspec.ToolDesc{
		Name: "compress_session", DisplayName: "Compress Session", Source: "builtin",
		Description: "Acknowledge which files were considered for session compression.",
		Parameters: []toolspec.Param{
			{Name: "files", Type: "string", Desc: "comma-separated file names considered for compression"},
		},
	}
}

func (t CompressSession) DependsOn() []string { return nil }

func (t CompressSession) Execute(ctx context.Context, toolCallID string, args map[string]any) (toolspec.ExecResult, error) {
	filesArg, _ := args["files"].(string)
	var files []string
	for _, f := range strings.Split(filesArg, ",") {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}
	text := "No files were compressed."
	if len(files) > 0 {
		text = fmt.Sprintf("Considered %d file(s) for compression: %s", len(files), strings.Join(files, ", "))
	}
	return toolspec.ExecResult{Messages: []model.Message{model.NewToolResult(toolCallID, text)}}, nil
}

func (t CompressSession) CommandToMatchAgainstConfirmDeny(args map[string]any) string {
	return confirm.CommandFromArgs("compress_session")
}

func (t CompressSession) MatchAgainstConfirmDeny(ctx context.Context, args map[string]any, overrides confirm.Rules) confirm.Result {
	return t.Base.Evaluate(ctx, args, overrides, t.CommandToMatchAgainstConfirmDeny)
}

// Submit implements the submit tool: signals end-of-interaction. It carries
// no side effects of its own; callers (the executor/engine) observe its
// presence in the tool-call stream to stop the loop.
type Submit struct {
	toolspec.Base
}

func (t Submit) Description() toolspec.ToolDesc {
	return toolspec.ToolDesc{
		Name: "submit", DisplayName: "Submit", Source: "builtin",
		Description: "Signal that the current task is complete and no further tool calls are needed.",
		Parameters: []toolspec.Param{
			{Name: "summary", Type: "string", Desc: "a short summary of what was accomplished"},
		},
	}
}

func (t Submit) DependsOn() []string { return nil }

func (t Submit) Execute(ctx context.Context, toolCallID string, args map[string]any) (toolspec.ExecResult, error) {
	summary, _ := args["summary"].(string)
	if summary == "" {
		summary = "Done."
	}
	return toolspec.ExecResult{Messages: []model.Message{model.NewToolResult(toolCallID, summary)}}, nil
}

func (t Submit) CommandToMatchAgainstConfirmDeny(args map[string]any) string {
	return confirm.CommandFromArgs("submit")
}

func (t Submit) MatchAgainstConfirmDeny(ctx context.Context, args map[string]any, overrides confirm.Rules) confirm.Result {
	return t.Base.Evaluate(ctx, args, overrides, t.CommandToMatchAgainstConfirmDeny)
}
