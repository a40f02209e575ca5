package modelclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"github.com/refact-ai/agentcore/internal/model"
)

// ChatCompletionsClient captures the subset of the OpenAI SDK used by
// OpenAIClient, following the same narrow-interface-for-testability pattern
// as AnthropicClient.
type ChatCompletionsClient interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAIClient implements Client on top of the Chat Completions API. It also
// serves OpenAI-compatible third-party endpoints (a common deployment for
// local/self-hosted models) since the request/response shapes are identical.
type OpenAIClient struct {
	chat         ChatCompletionsClient
	defaultModel string
}

// NewOpenAIClient builds a Client from an already-configured Chat Completions
// service (or a test double).
func NewOpenAIClient(chat ChatCompletionsClient, defaultModel string) (*OpenAIClient, error) {
	if chat == nil {
		return nil, errors.New("modelclient: openai chat completions client is required")
	}
	if defaultModel == "" {
		return nil, errors.New("modelclient: default openai model is required")
	}
	return &OpenAIClient{chat: chat, defaultModel: defaultModel}, nil
}

// NewOpenAIClientFromAPIKey constructs a client against baseURL (empty means
// the default OpenAI endpoint; set it to target an OpenAI-compatible proxy).
func NewOpenAIClientFromAPIKey(apiKey, baseURL, defaultModel string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("modelclient: openai api key is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	c := openai.NewClient(opts...)
	return NewOpenAIClient(&c.Chat.Completions, defaultModel)
}

// Complete implements Client.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (Response, error) {
	params, err := c.buildParams(req)
	if err != nil {
		return Response{}, err
	}
	completion, err := c.chat.New(ctx, params)
	if err != nil {
		return Response{}, fmt.Errorf("modelclient: openai chat.completions.new: %w", err)
	}
	return translateOpenAIResponse(completion), nil
}

func (c *OpenAIClient) buildParams(req Request) (openai.ChatCompletionNewParams, error) {
	modelID := req.Model
	if modelID == "" {
		modelID = c.defaultModel
	}
	msgs, err := encodeOpenAIMessages(req.Messages)
	if err != nil {
		return openai.ChatCompletionNewParams{}, err
	}
	params := openai.ChatCompletionNewParams{
		Model:    modelID,
		Messages: msgs,
	}
	if req.Temperature != nil {
		params.Temperature = param.NewOpt(*req.Temperature)
	}
	if req.MaxNewTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(req.MaxNewTokens))
	}
	if len(req.Tools) > 0 {
		params.Tools = encodeOpenAITools(req.Tools)
	}
	return params, nil
}

func encodeOpenAIMessages(msgs []model.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case model.RoleSystem:
			out = append(out, openai.SystemMessage(m.ContentTextOnly()))
		case model.RoleUser, model.RolePlainText, model.RoleCDInstr, model.RoleContextFile:
			out = append(out, openai.UserMessage(m.ContentTextOnly()))
		case model.RoleAssistant:
			out = append(out, encodeOpenAIAssistantMessage(m))
		case model.RoleTool, model.RoleDiff:
			out = append(out, openai.ToolMessage(m.ContentTextOnly(), m.ToolCallID))
		}
	}
	if len(out) == 0 {
		return nil, errors.New("modelclient: openai requires at least one message")
	}
	return out, nil
}

func encodeOpenAIAssistantMessage(m model.Message) openai.ChatCompletionMessageParamUnion {
	msg := openai.ChatCompletionAssistantMessageParam{
		Content: openai.ChatCompletionAssistantMessageParamContentUnion{
			OfString: param.NewOpt(m.ContentTextOnly()),
		},
	}
	for _, tc := range m.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: tc.ID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			},
		})
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &msg}
}

func encodeOpenAITools(tools []ToolDef) []openai.ChatCompletionToolUnionParam {
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        t.Name,
			Description: param.NewOpt(t.Description),
			Parameters:  t.Parameters,
		}))
	}
	return out
}

func translateOpenAIResponse(completion *openai.ChatCompletion) Response {
	resp := Response{Message: model.Message{Role: model.RoleAssistant, Kind: model.ContentSimpleText}}
	if len(completion.Choices) == 0 {
		return resp
	}
	choice := completion.Choices[0]
	resp.Message.Text = choice.Message.Content
	resp.Message.FinishReason = choice.FinishReason
	for _, tc := range choice.Message.ToolCalls {
		resp.Message.ToolCalls = append(resp.Message.ToolCalls, model.ToolCall{
			ID:       tc.ID,
			Function: model.ToolCallFunction{Name: tc.Function.Name, Arguments: tc.Function.Arguments},
		})
	}
	model.BackfillToolCallIndices(resp.Message.ToolCalls)
	resp.Usage = model.Usage{
		PromptTokens:     int(completion.Usage.PromptTokens),
		CompletionTokens: int(completion.Usage.CompletionTokens),
		TotalTokens:      int(completion.Usage.TotalTokens),
	}
	return resp
}
