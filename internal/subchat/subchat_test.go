package subchat

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/refact-ai/agentcore/internal/model"
	"github.com/refact-ai/agentcore/internal/modelclient"
	"github.com/refact-ai/agentcore/internal/toolspec"
)

type fakeClient struct {
	calls int32
	fn    func(req modelclient.Request) (modelclient.Response, error)
}

func (f *fakeClient) Complete(_ context.Context, req modelclient.Request) (modelclient.Response, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.fn(req)
}

type recordingSide struct {
	messages []model.Message
}

func (s *recordingSide) Emit(m model.Message) { s.messages = append(s.messages, m) }

func TestDeepResearchReturnsModelReply(t *testing.T) {
	client := &fakeClient{fn: func(req modelclient.Request) (modelclient.Response, error) {
		return modelclient.Response{Message: model.NewSimpleText(model.RoleAssistant, "findings")}, nil
	}}
	res, err := DeepResearch(context.Background(), client, Parameters{}, "investigate X", &recordingSide{})
	if err != nil {
		t.Fatalf("DeepResearch: %v", err)
	}
	if res.Message.Text != "findings" {
		t.Fatalf("got %q, want %q", res.Message.Text, "findings")
	}
}

func TestDeepThinkingFlattensTranscript(t *testing.T) {
	transcript := []model.Message{
		model.NewSimpleText(model.RoleUser, "what is X"),
		model.NewSimpleText(model.RoleAssistant, "X is Y"),
	}
	var seenText string
	client := &fakeClient{fn: func(req modelclient.Request) (modelclient.Response, error) {
		seenText = req.Messages[0].Text
		return modelclient.Response{Message: model.NewSimpleText(model.RoleAssistant, "thought")}, nil
	}}
	_, err := DeepThinking(context.Background(), client, Parameters{}, transcript, "now what?")
	if err != nil {
		t.Fatalf("DeepThinking: %v", err)
	}
	if !containsAll(seenText, "user: what is X", "assistant: X is Y", "now what?") {
		t.Fatalf("flattened transcript missing expected content: %q", seenText)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

func TestClampMaxStepsBounds(t *testing.T) {
	cases := map[int]int{-5: 1, 0: 1, 1: 1, 30: 30, 50: 50, 200: 50}
	for in, want := range cases {
		if got := ClampMaxSteps(in); got != want {
			t.Errorf("ClampMaxSteps(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestSubagentStopsWhenNoMoreToolCalls(t *testing.T) {
	reg := toolspec.NewRegistry()
	client := &fakeClient{fn: func(req modelclient.Request) (modelclient.Response, error) {
		return modelclient.Response{
			Message: model.NewSimpleText(model.RoleAssistant, "done"),
			Usage:   model.Usage{TotalTokens: 10},
		}, nil
	}}
	var report string
	res, err := Subagent(context.Background(), client, reg, Parameters{}, "sys", "task", 10, func(r string) { report = r })
	if err != nil {
		t.Fatalf("Subagent: %v", err)
	}
	if res.Message.Text != "done" {
		t.Fatalf("got %q, want done", res.Message.Text)
	}
	if client.calls != 1 {
		t.Fatalf("expected exactly one model call when there are no tool_calls, got %d", client.calls)
	}
	if report != "done" {
		t.Fatalf("expected memoryFn to receive the final report, got %q", report)
	}
}
