package modelclient

import (
	"context"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/refact-ai/agentcore/internal/model"
)

type fakeChatCompletionsClient struct {
	resp *openai.ChatCompletion
	err  error
	got  openai.ChatCompletionNewParams
}

func (f *fakeChatCompletionsClient) New(_ context.Context, body openai.ChatCompletionNewParams, _ ...option.RequestOption) (*openai.ChatCompletion, error) {
	f.got = body
	return f.resp, f.err
}

func TestOpenAICompleteTranslatesResponse(t *testing.T) {
	fake := &fakeChatCompletionsClient{resp: &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{
				FinishReason: "stop",
				Message: openai.ChatCompletionMessage{
					Content: "hello from openai",
				},
			},
		},
		Usage: openai.CompletionUsage{
			PromptTokens:     10,
			CompletionTokens: 4,
			TotalTokens:      14,
		},
	}}
	client, err := NewOpenAIClient(fake, "gpt-test")
	if err != nil {
		t.Fatalf("NewOpenAIClient: %v", err)
	}

	resp, err := client.Complete(context.Background(), Request{
		Messages: []model.Message{model.NewSimpleText(model.RoleUser, "hi")},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Message.Text != "hello from openai" {
		t.Fatalf("got text %q", resp.Message.Text)
	}
	if resp.Message.FinishReason != "stop" {
		t.Fatalf("got finish reason %q", resp.Message.FinishReason)
	}
	if resp.Usage.TotalTokens != 14 {
		t.Fatalf("got total tokens %d, want 14", resp.Usage.TotalTokens)
	}
	if fake.got.Model != "gpt-test" {
		t.Fatalf("got model %q, want gpt-test", fake.got.Model)
	}
}

func TestOpenAICompleteRejectsEmptyMessages(t *testing.T) {
	client, _ := NewOpenAIClient(&fakeChatCompletionsClient{}, "gpt-test")
	if _, err := client.Complete(context.Background(), Request{}); err == nil {
		t.Fatal("expected error for empty message list")
	}
}

func TestOpenAICompleteUsesRequestModelOverDefault(t *testing.T) {
	fake := &fakeChatCompletionsClient{resp: &openai.ChatCompletion{}}
	client, _ := NewOpenAIClient(fake, "gpt-default")

	if _, err := client.Complete(context.Background(), Request{
		Model:    "gpt-explicit",
		Messages: []model.Message{model.NewSimpleText(model.RoleUser, "hi")},
	}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if fake.got.Model != "gpt-explicit" {
		t.Fatalf("got model %q, want gpt-explicit", fake.got.Model)
	}
}

func TestNewOpenAIClientRejectsMissingDefaults(t *testing.T) {
	if _, err := NewOpenAIClient(nil, "gpt-test"); err == nil {
		t.Fatal("expected error for nil chat client")
	}
	if _, err := NewOpenAIClient(&fakeChatCompletionsClient{}, ""); err == nil {
		t.Fatal("expected error for empty default model")
	}
}
