package model

import "testing"

func TestContentTextOnlyElidesImages(t *testing.T) {
	msg := NewMultimodal(RoleUser, []MediaElement{
		{Type: MediaText, Text: "hello "},
		{Type: MediaImage, MimeType: "image/png", Base64: "xxxx"},
		{Type: MediaText, Text: "world"},
	})
	if got := msg.ContentTextOnly(); got != "hello world" {
		t.Fatalf("ContentTextOnly() = %q, want %q", got, "hello world")
	}
}

func TestContentTextOnlyImagesOnlyIsEmpty(t *testing.T) {
	msg := NewMultimodal(RoleUser, []MediaElement{
		{Type: MediaImage, MimeType: "image/png", Base64: "xxxx"},
	})
	if got := msg.ContentTextOnly(); got != "" {
		t.Fatalf("ContentTextOnly() = %q, want empty string", got)
	}
}

func TestValidateToolMessageRequiresToolCallID(t *testing.T) {
	msg := NewSimpleText(RoleTool, "result")
	if err := msg.Validate(); err == nil {
		t.Fatal("expected error for tool message without tool_call_id")
	}
	msg.ToolCallID = "call_1"
	if err := msg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateToolCallsRequireAssistantRole(t *testing.T) {
	msg := NewSimpleText(RoleUser, "hi")
	msg.ToolCalls = []ToolCall{{ID: "1", Function: ToolCallFunction{Name: "tree"}}}
	if err := msg.Validate(); err == nil {
		t.Fatal("expected error for non-assistant message with tool_calls")
	}
	msg.Role = RoleAssistant
	if err := msg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBackfillToolCallIndices(t *testing.T) {
	idx1 := 1
	calls := []ToolCall{
		{ID: "a"},
		{ID: "b", Index: &idx1},
		{ID: "c"},
	}
	BackfillToolCallIndices(calls)
	want := []int{0, 1, 2}
	for i, c := range calls {
		if c.Index == nil || *c.Index != want[i] {
			t.Fatalf("call %d: index = %v, want %d", i, c.Index, want[i])
		}
	}
}
