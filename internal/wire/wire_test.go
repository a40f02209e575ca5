package wire

import (
	"strings"
	"testing"

	"github.com/refact-ai/agentcore/internal/model"
)

func TestNormalizeToolResultSplitsDelayedImages(t *testing.T) {
	toolMsg := model.NewMultimodal(model.RoleTool, []model.MediaElement{
		{Type: model.MediaText, Text: "here is the screenshot"},
		{Type: model.MediaImage, MimeType: "image/png", Base64: "Zm9v"},
	})
	toolMsg.ToolCallID = "call1"

	msgs := []model.Message{
		model.NewSimpleText(model.RoleUser, "take a screenshot"),
		toolMsg,
		model.NewSimpleText(model.RoleUser, "now what"),
	}

	out := Normalize(msgs)

	if out[1].Role != "tool" || out[1].Content != "here is the screenshot" {
		t.Fatalf("expected tool text message, got %+v", out[1])
	}
	if out[2].Role != "user" {
		t.Fatalf("expected delayed image user message before next boundary, got %+v", out[2])
	}
	parts, ok := out[2].Content.([]ContentPart)
	if !ok || len(parts) != 1 || parts[0].Type != "image_url" {
		t.Fatalf("expected one image part, got %+v", out[2].Content)
	}
	if out[3].Role != "user" || out[3].Content != "now what" {
		t.Fatalf("expected flushed original user message last, got %+v", out[3])
	}
}

func TestNormalizeDiffRoleSuccessSummary(t *testing.T) {
	diff := model.NewSimpleText(model.RoleDiff, "foo.go:L1-2")
	diff.ToolCallID = "call2"
	out := Normalize([]model.Message{diff})
	if out[0].Role != "tool" || out[0].ToolCallID != "call2" {
		t.Fatalf("expected diff to become a tool message, got %+v", out[0])
	}
	text, _ := out[0].Content.(string)
	if !strings.HasPrefix(text, "The operation has succeeded.\n") {
		t.Fatalf("unexpected diff summary: %q", text)
	}
}

func TestNormalizeDiffRoleNoopSummary(t *testing.T) {
	diff := model.NewSimpleText(model.RoleDiff, "")
	diff.ToolCallID = "call3"
	out := Normalize([]model.Message{diff})
	if out[0].Content != "Nothing has changed." {
		t.Fatalf("expected noop summary, got %+v", out[0].Content)
	}
}

func TestNormalizePlainTextAndCDInstructionBecomeUser(t *testing.T) {
	msgs := []model.Message{
		model.NewSimpleText(model.RolePlainText, "plain"),
		model.NewSimpleText(model.RoleCDInstr, "cd /tmp"),
	}
	out := Normalize(msgs)
	for _, m := range out {
		if m.Role != "user" {
			t.Fatalf("expected user role, got %+v", m)
		}
	}
}

func TestNormalizeContextFileRendersOnePerFile(t *testing.T) {
	msg := model.NewContextFiles([]model.ContextFile{
		{FileName: "a.go", FileContent: "package a\n", Line1: 1, Line2: 2},
		{FileName: "b.go", FileContent: "package b\n", Line1: 3, Line2: 4},
	})
	out := Normalize([]model.Message{msg})
	if len(out) != 2 {
		t.Fatalf("expected one wire message per context file, got %d", len(out))
	}
	text, _ := out[0].Content.(string)
	if !strings.Contains(text, "a.go:L1-2") || !strings.Contains(text, "package a\n") {
		t.Fatalf("unexpected rendering: %q", text)
	}
}

func TestNormalizeAssistantToolCallsCarryThrough(t *testing.T) {
	m := model.NewSimpleText(model.RoleAssistant, "calling a tool")
	m.ToolCalls = []model.ToolCall{{ID: "c1", Function: model.ToolCallFunction{Name: "cat", Arguments: `{"path":"a.go"}`}}}
	out := Normalize([]model.Message{m})
	if len(out[0].ToolCalls) != 1 || out[0].ToolCalls[0].Function.Name != "cat" {
		t.Fatalf("expected tool call carried through, got %+v", out[0])
	}
}

func TestNormalizeRewritesTrailingThinkingOnlyMessage(t *testing.T) {
	m := model.Message{
		Role:           model.RoleAssistant,
		Kind:           model.ContentSimpleText,
		Text:           "",
		ThinkingBlocks: []model.ThinkingBlock{{Provider: "anthropic", Signature: "sig"}},
	}
	out := Normalize([]model.Message{
		model.NewSimpleText(model.RoleUser, "hi"),
		m,
	})
	last := out[len(out)-1]
	if last.Content != interruptedReplacementText {
		t.Fatalf("expected trailing thinking-only message rewritten, got %+v", last)
	}
}

func TestNormalizeDoesNotRewriteNonTrailingThinkingMessage(t *testing.T) {
	m := model.Message{
		Role:           model.RoleAssistant,
		Kind:           model.ContentSimpleText,
		Text:           "",
		ThinkingBlocks: []model.ThinkingBlock{{Provider: "anthropic", Signature: "sig"}},
	}
	out := Normalize([]model.Message{
		model.NewSimpleText(model.RoleUser, "hi"),
		m,
		model.NewSimpleText(model.RoleUser, "continue"),
	})
	last := out[len(out)-1]
	if last.Content == interruptedReplacementText {
		t.Fatal("rewrite should only apply to the trailing message")
	}
}
