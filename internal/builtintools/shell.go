package builtintools

import (
	"context"
	"fmt"
	"time"

	"github.com/refact-ai/agentcore/internal/confirm"
	"github.com/refact-ai/agentcore/internal/model"
	"github.com/refact-ai/agentcore/internal/toolerrors"
	"github.com/refact-ai/agentcore/internal/toolspec"
)

// defaultShellTimeout bounds a shell/cmdline invocation when the caller does
// not supply one (spec §4.6: "enforce a configurable timeout ... killed with
// their process tree on expiry").
const defaultShellTimeout = 30 * time.Second

// ShellRunner is the external process-execution collaborator. It owns
// process-group/tree teardown on timeout; this tool only supplies the
// timeout and captures the result.
type ShellRunner interface {
	Run(ctx context.Context, command string, timeout time.Duration) (stdout, stderr string, exitCode int, err error)
}

// OutputFilter optionally post-processes captured stdout/stderr (spec §4.2:
// "run an output filter") before it is returned to the model, e.g. to strip
// secrets or truncate noisy build output. A nil filter passes output through
// unchanged.
type OutputFilter func(stdout, stderr string) string

var shellConfirmRules = confirm.Rules{AskUser: []string{"*"}}

// Shell implements the shell tool and doubles as the shape every cmdline_*
// and integration tool (MySQL, Docker, Git, ...) is built from: name and
// description vary per integration, but all share "run a command with a
// timeout, capture output, filter it, always confirm" (spec §4.2, §4.5).
type Shell struct {
	toolspec.Base
	ToolName    string
	Display     string
	Desc        string
	Runner      ShellRunner
	Filter      OutputFilter
	Timeout     time.Duration
	// CommandArg is the argument key holding the command string. Integration
	// tools that build their own command from multiple structured fields set
	// BuildCommand instead and leave CommandArg empty.
	CommandArg   string
	BuildCommand func(args map[string]any) string
}

// NewShell constructs the plain shell tool.
func NewShell(runner ShellRunner, filter OutputFilter) Shell {
	return Shell{
		Base:       toolspec.Base{Rules: &shellConfirmRules},
		ToolName:   "shell", Display: "Shell", Desc: "Execute a shell command with a timeout and capture its output.",
		Runner: runner, Filter: filter, Timeout: defaultShellTimeout, CommandArg: "command",
	}
}

// NewCmdlineTool constructs a cmdline_* or integration tool (e.g.
// cmdline_git, mysql) sharing Shell's execution shape but its own name,
// description, and command-building logic.
func NewCmdlineTool(name, display, desc string, runner ShellRunner, filter OutputFilter, buildCommand func(map[string]any) string) Shell {
	return Shell{
		Base:       toolspec.Base{Rules: &shellConfirmRules},
		ToolName:   name, Display: display, Desc: desc,
		Runner: runner, Filter: filter, Timeout: defaultShellTimeout, BuildCommand: buildCommand,
	}
}

func (t Shell) Description() toolspec.ToolDesc {
	params := []toolspec.Param{{Name: "timeout", Type: "integer", Desc: "seconds before the command is killed"}}
	required := []string{}
	if t.CommandArg != "" {
		params = append(params, toolspec.Param{Name: t.CommandArg, Type: "string", Desc: "command to execute"})
		required = append(required, t.CommandArg)
	}
	return toolspec.ToolDesc{
		Name: t.ToolName, DisplayName: t.Display, Source: "builtin", Agentic: true,
		Description:        t.Desc,
		Parameters:         params,
		ParametersRequired: required,
	}
}

func (t Shell) DependsOn() []string { return []string{"shell"} }

func (t Shell) commandString(args map[string]any) string {
	if t.BuildCommand != nil {
		return t.BuildCommand(args)
	}
	s, _ := args[t.CommandArg].(string)
	return s
}

func (t Shell) Execute(ctx context.Context, toolCallID string, args map[string]any) (toolspec.ExecResult, error) {
	command := t.commandString(args)
	if command == "" {
		return toolspec.ExecResult{}, toolerrors.Errorf(toolerrors.KindValidation, "%s: no command to run", t.ToolName)
	}

	timeout := t.Timeout
	if secs, ok := args["timeout"].(float64); ok && secs > 0 {
		timeout = time.Duration(secs) * time.Second
	}

	stdout, stderr, exitCode, err := t.Runner.Run(ctx, command, timeout)
	if err != nil {
		return toolspec.ExecResult{}, toolerrors.NewWithCause(toolerrors.KindExecution, t.ToolName, err)
	}

	rendered := fmt.Sprintf("exit code: %d\nstdout:\n%s\nstderr:\n%s", exitCode, stdout, stderr)
	if t.Filter != nil {
		rendered = t.Filter(stdout, stderr)
	}
	return toolspec.ExecResult{Messages: []model.Message{model.NewToolResult(toolCallID, rendered)}}, nil
}

func (t Shell) CommandToMatchAgainstConfirmDeny(args map[string]any) string {
	return confirm.CommandFromArgs(t.ToolName, t.commandString(args))
}

func (t Shell) MatchAgainstConfirmDeny(ctx context.Context, args map[string]any, overrides confirm.Rules) confirm.Result {
	return t.Base.Evaluate(ctx, args, overrides, t.CommandToMatchAgainstConfirmDeny)
}
