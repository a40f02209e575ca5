package title

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/refact-ai/agentcore/internal/model"
	"github.com/refact-ai/agentcore/internal/modelclient"
)

func TestShouldGenerate(t *testing.T) {
	cases := []struct {
		title     string
		generated bool
		count     int
		want      bool
	}{
		{"", false, 1, true},
		{"New Chat", false, 1, true},
		{"untitled", false, 1, true},
		{"  Untitled  ", false, 1, true},
		{"My actual title", false, 1, false},
		{"", true, 1, false},
		{"", false, 0, false},
	}
	for _, c := range cases {
		if got := ShouldGenerate(c.title, c.generated, c.count); got != c.want {
			t.Errorf("ShouldGenerate(%q,%v,%d) = %v, want %v", c.title, c.generated, c.count, got, c.want)
		}
	}
}

func TestBuildContextSkipsToolAndContextFileMessages(t *testing.T) {
	msgs := []model.Message{
		model.NewSimpleText(model.RoleUser, "fix the bug"),
		model.NewToolResult("call1", "tool output"),
		model.NewContextFiles([]model.ContextFile{{FileName: "a.go"}}),
		model.NewSimpleText(model.RoleAssistant, "done"),
	}
	got := BuildContext(msgs)
	if !strings.Contains(got, "user: fix the bug") || !strings.Contains(got, "assistant: done") {
		t.Fatalf("unexpected context: %q", got)
	}
	if strings.Contains(got, "tool output") {
		t.Fatalf("tool message leaked into context: %q", got)
	}
}

func TestBuildContextCapsAt6Messages(t *testing.T) {
	var msgs []model.Message
	for i := 0; i < 10; i++ {
		msgs = append(msgs, model.NewSimpleText(model.RoleUser, "msg"))
	}
	got := BuildContext(msgs)
	if strings.Count(got, "user: msg") != maxContextMessages {
		t.Fatalf("expected %d messages, got %d in %q", maxContextMessages, strings.Count(got, "user: msg"), got)
	}
}

func TestCleanStripsQuotesAndCollapsesWhitespace(t *testing.T) {
	got := Clean("  \"`**Fix the\n\n  login bug**`\"  ")
	if got != "Fix the login bug" {
		t.Fatalf("Clean() = %q, want %q", got, "Fix the login bug")
	}
}

func TestCleanTruncatesTo60WithEllipsis(t *testing.T) {
	long := strings.Repeat("a", 100)
	got := Clean(long)
	if utf8Len := len([]rune(got)); utf8Len != maxTitleChars {
		t.Fatalf("Clean(long) has length %d, want %d", utf8Len, maxTitleChars)
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("Clean(long) = %q, want a trailing ellipsis", got)
	}
}

func TestGenerateFallsBackOnModelFailure(t *testing.T) {
	client := failingClient{}
	msgs := []model.Message{model.NewSimpleText(model.RoleUser, "Fix authentication bug")}
	got := Generate(context.Background(), client, "light-model", msgs)
	if got != "Fix authentication bug" {
		t.Fatalf("Generate() = %q, want fallback to first user message", got)
	}
}

func TestGenerateUsesModelReplyWhenAvailable(t *testing.T) {
	client := stubClient{text: "  \"Login Bug Fix\"  "}
	msgs := []model.Message{model.NewSimpleText(model.RoleUser, "please fix the login bug")}
	got := Generate(context.Background(), client, "light-model", msgs)
	if got != "Login Bug Fix" {
		t.Fatalf("Generate() = %q, want %q", got, "Login Bug Fix")
	}
}

type failingClient struct{}

func (failingClient) Complete(context.Context, modelclient.Request) (modelclient.Response, error) {
	return modelclient.Response{}, errors.New("model unavailable")
}

type stubClient struct{ text string }

func (c stubClient) Complete(context.Context, modelclient.Request) (modelclient.Response, error) {
	return modelclient.Response{Message: model.NewSimpleText(model.RoleAssistant, c.text)}, nil
}
