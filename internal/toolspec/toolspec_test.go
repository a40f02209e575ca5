package toolspec

import (
	"context"
	"testing"

	"github.com/refact-ai/agentcore/internal/confirm"
)

type stubTool struct {
	Base
	name    string
	deps    []string
	agentic bool
	exp     bool
}

func (s stubTool) Description() ToolDesc {
	return ToolDesc{Name: s.name, Agentic: s.agentic, Experimental: s.exp}
}
func (s stubTool) DependsOn() []string { return s.deps }
func (s stubTool) Execute(context.Context, string, map[string]any) (ExecResult, error) {
	return ExecResult{}, nil
}
func (s stubTool) CommandToMatchAgainstConfirmDeny(map[string]any) string { return s.name }
func (s stubTool) MatchAgainstConfirmDeny(ctx context.Context, args map[string]any, overrides confirm.Rules) confirm.Result {
	return s.Base.Evaluate(ctx, args, overrides, s.CommandToMatchAgainstConfirmDeny)
}

func TestRegistryFiltersByDependency(t *testing.T) {
	r := NewRegistry("ast")
	r.Register(stubTool{name: "definition", deps: []string{"ast"}})
	r.Register(stubTool{name: "search_semantic", deps: []string{"vecdb"}})

	avail := r.Available()
	if len(avail) != 1 || avail[0].Description().Name != "definition" {
		t.Fatalf("Available() = %+v, want only definition", avail)
	}
}

func TestRegistryAdvertiseHidesAgenticAndExperimental(t *testing.T) {
	r := NewRegistry()
	r.Register(stubTool{name: "cat"})
	r.Register(stubTool{name: "rm", agentic: true})
	r.Register(stubTool{name: "deep_research", exp: true})

	readOnly := r.Advertise(AdvertiseOptions{AllowAgentic: false, IncludeExperimental: false})
	if len(readOnly) != 1 || readOnly[0].Name != "cat" {
		t.Fatalf("read-only Advertise() = %+v, want only cat", readOnly)
	}

	full := r.Advertise(AdvertiseOptions{AllowAgentic: true, IncludeExperimental: true})
	if len(full) != 3 {
		t.Fatalf("full Advertise() = %+v, want 3 tools", full)
	}
}

func TestValidateArgsRequiredFields(t *testing.T) {
	desc := ToolDesc{ParametersRequired: []string{"query", "scope"}}
	issues, err := ValidateArgs(desc, map[string]any{"query": "foo"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(issues) != 1 || issues[0].Field != "scope" {
		t.Fatalf("issues = %+v, want missing scope", issues)
	}
}

func TestBaseMatchAgainstConfirmDenyDefaultsToStaticRules(t *testing.T) {
	rules := confirm.Rules{AskUser: []string{"*"}}
	tool := stubTool{Base: Base{Rules: &rules}, name: "rm"}
	res := tool.MatchAgainstConfirmDeny(context.Background(), nil, confirm.Rules{})
	if res.Outcome != confirm.Confirmation {
		t.Fatalf("Outcome = %v, want Confirmation", res.Outcome)
	}
}
