package subchat

import (
	"context"
	"testing"

	"github.com/refact-ai/agentcore/internal/engine"
	"github.com/refact-ai/agentcore/internal/model"
	"github.com/refact-ai/agentcore/internal/modelclient"
	"github.com/refact-ai/agentcore/internal/toolspec"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	eng := engine.NewInMem(nil, nil, nil)
	r, err := NewRunner(eng)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	return r
}

func TestRunnerDeepResearchSchedulesThroughEngine(t *testing.T) {
	r := newTestRunner(t)
	client := &fakeClient{fn: func(req modelclient.Request) (modelclient.Response, error) {
		return modelclient.Response{Message: model.NewSimpleText(model.RoleAssistant, "findings")}, nil
	}}
	res, err := r.DeepResearch(context.Background(), client, Parameters{}, "investigate X", &recordingSide{})
	if err != nil {
		t.Fatalf("Runner.DeepResearch: %v", err)
	}
	if res.Message.Text != "findings" {
		t.Fatalf("got %q, want %q", res.Message.Text, "findings")
	}
}

func TestRunnerDeepThinkingSchedulesThroughEngine(t *testing.T) {
	r := newTestRunner(t)
	transcript := []model.Message{model.NewSimpleText(model.RoleUser, "what is X")}
	client := &fakeClient{fn: func(req modelclient.Request) (modelclient.Response, error) {
		return modelclient.Response{Message: model.NewSimpleText(model.RoleAssistant, "thought")}, nil
	}}
	res, err := r.DeepThinking(context.Background(), client, Parameters{}, transcript, "now what?")
	if err != nil {
		t.Fatalf("Runner.DeepThinking: %v", err)
	}
	if res.Message.Text != "thought" {
		t.Fatalf("got %q, want %q", res.Message.Text, "thought")
	}
}

func TestRunnerSubagentSchedulesThroughEngine(t *testing.T) {
	r := newTestRunner(t)
	reg := toolspec.NewRegistry()
	client := &fakeClient{fn: func(req modelclient.Request) (modelclient.Response, error) {
		return modelclient.Response{Message: model.NewSimpleText(model.RoleAssistant, "done")}, nil
	}}
	var report string
	res, err := r.Subagent(context.Background(), client, reg, Parameters{}, "sys", "task", 10, func(rep string) { report = rep })
	if err != nil {
		t.Fatalf("Runner.Subagent: %v", err)
	}
	if res.Message.Text != "done" {
		t.Fatalf("got %q, want done", res.Message.Text)
	}
	if report != "done" {
		t.Fatalf("expected memoryFn to receive the final report, got %q", report)
	}
}

func TestRunnerRunIDsAreUnique(t *testing.T) {
	a := runID(taskSubagent)
	b := runID(taskSubagent)
	if a == b {
		t.Fatalf("expected distinct run ids, got %q twice", a)
	}
}
