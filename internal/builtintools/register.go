package builtintools

import (
	"github.com/refact-ai/agentcore/internal/engine"
	"github.com/refact-ai/agentcore/internal/modelclient"
	"github.com/refact-ai/agentcore/internal/subchat"
	"github.com/refact-ai/agentcore/internal/toolspec"
)

// Collaborators bundles every external service the default tool set needs.
// Fields left nil simply cause the corresponding tool(s) to be skipped by
// RegisterDefaults, so a serving environment without e.g. a vector DB still
// gets the rest of the set (the registry's own dependency filtering handles
// the same case for tools registered despite a missing collaborator).
type Collaborators struct {
	Workspace    Workspace
	VectorDB     VectorDB
	AST          ASTService
	ShellRunner  ShellRunner
	OutputFilter OutputFilter
	WebFetcher   WebFetcher
	Memory       MemoryIndex
	Trajectories TrajectoryContextProvider
	ModelClient  modelclient.Client
	Side         subchat.Side
	SubagentMsg  string
	// SubchatRunner schedules deep_research/deep_thinking/subagent through
	// internal/engine. If nil, RegisterDefaults builds one on an in-memory
	// engine (see internal/engine.NewInMem).
	SubchatRunner *subchat.Runner
}

// RegisterDefaults registers every built-in tool spec §4.2 enumerates into
// reg, wiring collaborators where present. Confirmation defaults follow spec
// §4.5: apply_tickets, update_textdoc, replace_textdoc, mv, rm,
// deep_research, shell/cmdline_*/integrations always require confirmation;
// those defaults are set in each tool's constructor, not here.
func RegisterDefaults(reg *toolspec.Registry, c Collaborators) {
	if c.VectorDB != nil {
		reg.Register(SearchSemantic{DB: c.VectorDB, WS: c.Workspace})
	}
	if c.Workspace != nil {
		reg.Register(Tree{WS: c.Workspace, AST: c.AST})
		reg.Register(NewMv(c.Workspace))
		reg.Register(NewRm(c.Workspace))
		reg.Register(NewReplaceTextdoc(c.Workspace))
		reg.Register(NewUpdateTextdoc(c.Workspace))
		reg.Register(NewApplyTickets(c.Workspace, c.ModelClient))
	}
	if c.AST != nil {
		reg.Register(NewCat(c.AST))
		reg.Register(NewDefinition(c.AST))
		reg.Register(NewReferences(c.AST))
	}
	if c.ModelClient != nil {
		runner := c.SubchatRunner
		if runner == nil {
			runner, _ = subchat.NewRunner(engine.NewInMem(nil, nil, nil))
		}
		reg.Register(NewDeepResearch(c.ModelClient, c.Side, runner))
		reg.Register(DeepThinking{Client: c.ModelClient, Runner: runner})
		reg.Register(Subagent{Client: c.ModelClient, Registry: reg, SystemMsg: c.SubagentMsg, Memory: c.Memory, Runner: runner})
	}
	if c.Memory != nil {
		reg.Register(CreateKnowledge{Memory: c.Memory})
	}
	if c.Trajectories != nil {
		reg.Register(GetTrajectoryContext{Trajectories: c.Trajectories})
	}
	reg.Register(CompressSession{})
	reg.Register(Submit{})
	if c.ShellRunner != nil {
		reg.Register(NewShell(c.ShellRunner, c.OutputFilter))
	}
	if c.WebFetcher != nil {
		reg.Register(Web{Fetcher: c.WebFetcher})
	}
}
