// Package toolspec defines the polymorphic tool contract (C2): a uniform
// interface every tool implements (description, dependency declaration,
// execution, and confirm/deny matching), plus the registry that advertises
// the subset of tools available and permitted in a given chat mode.
//
// The shape follows the teacher's runtime/agent/tools.ToolSpec: tools are
// named, described, and schema-validated the same way, generalized here from
// a Goa-DSL-generated spec into one a hand-written tool populates directly.
package toolspec

import (
	"context"

	"github.com/refact-ai/agentcore/internal/confirm"
	"github.com/refact-ai/agentcore/internal/model"
)

// Param describes one named argument a tool accepts.
type Param struct {
	Name string
	Type string
	Desc string
}

// FieldIssue reports one argument validation failure.
type FieldIssue struct {
	Field      string
	Constraint string
}

// ToolDesc is the metadata a tool exposes to the model and to the UI.
type ToolDesc struct {
	Name         string
	DisplayName  string
	Source       string
	Agentic      bool
	Experimental bool
	Description  string

	Parameters         []Param
	ParametersRequired []string

	// PayloadSchema is an optional JSON Schema (draft 2020-12) used to
	// validate arguments beyond simple required-field presence. Nil means
	// only ParametersRequired is enforced.
	PayloadSchema []byte
}

// ExecResult is the return value of Tool.Execute.
type ExecResult struct {
	// Corrections reports whether the tool silently corrected its own
	// arguments (e.g. fuzzy path resolution) and the model should be told so.
	Corrections bool
	// Messages must include exactly one message with Role == model.RoleTool
	// (or model.RoleDiff, for edit tools) carrying the matching ToolCallID.
	Messages []model.Message
	// ContextFiles are forwarded to the context post-processor (C4) rather
	// than rendered inline by the tool itself.
	ContextFiles []model.ContextFile
	// Usage reports any model calls the tool made on its own behalf (e.g. a
	// sub-chat). The executor (C6) folds this into the turn's usage total
	// even when Execute also returns an error.
	Usage *model.Usage
}

// Tool is the uniform contract every tool implements.
type Tool interface {
	// Description returns the tool's static metadata.
	Description() ToolDesc

	// DependsOn lists external collaborator names (e.g. "ast", "vecdb") this
	// tool requires at runtime. If any is missing from the serving
	// environment, the registry filters the tool out of the advertised set.
	DependsOn() []string

	// Execute runs the tool. args has already passed schema/required-field
	// validation. The returned ExecResult must satisfy the C6 round-trip
	// invariant for the toolCallID it was invoked with.
	Execute(ctx context.Context, toolCallID string, args map[string]any) (ExecResult, error)

	// CommandToMatchAgainstConfirmDeny renders a stable textual command
	// string for this invocation, used by the confirmation engine.
	CommandToMatchAgainstConfirmDeny(args map[string]any) string

	// ConfirmDenyRules returns this tool's static default rule set, if any.
	ConfirmDenyRules() (confirm.Rules, bool)

	// MatchAgainstConfirmDeny evaluates this invocation's command string
	// against overrides merged with the tool's static defaults.
	MatchAgainstConfirmDeny(ctx context.Context, args map[string]any, overrides confirm.Rules) confirm.Result
}

// Base implements the default MatchAgainstConfirmDeny behavior described in
// spec §4.2: build the command string, apply the deny list first, then the
// ask list. Concrete tools embed Base and implement the remaining methods,
// mirroring how the teacher's generated tool adapters embed common plumbing.
type Base struct {
	// Rules, when non-nil, are this tool's static confirm/deny defaults.
	Rules *confirm.Rules
}

// ConfirmDenyRules returns b.Rules.
func (b Base) ConfirmDenyRules() (confirm.Rules, bool) {
	if b.Rules == nil {
		return confirm.Rules{}, false
	}
	return *b.Rules, true
}

// Evaluate merges the tool's static rules with the supplied overrides
// (the union of both, override entries appended after the static ones — see
// confirm.Rules.Merge) and evaluates the command string built by commandFn.
// Concrete tools call this from their own MatchAgainstConfirmDeny method.
func (b Base) Evaluate(_ context.Context, args map[string]any, overrides confirm.Rules, commandFn func(map[string]any) string) confirm.Result {
	base, _ := b.ConfirmDenyRules()
	merged := base.Merge(overrides)
	return confirm.Evaluate(merged, commandFn(args))
}
