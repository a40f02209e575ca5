package modelclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/refact-ai/agentcore/internal/model"
)

// MessagesClient captures the subset of the Anthropic SDK used by
// AnthropicClient, so tests can substitute a fake in place of
// *sdk.MessageService (grounded on the teacher's features/model/anthropic
// adapter, which follows the same narrowing for testability).
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// AnthropicClient implements Client on top of the Anthropic Messages API.
type AnthropicClient struct {
	msg          MessagesClient
	defaultModel string
	maxTokens    int64
}

// NewAnthropicClient builds a Client from an already-configured Anthropic
// Messages service (or a test double implementing MessagesClient).
func NewAnthropicClient(msg MessagesClient, defaultModel string, maxTokens int64) (*AnthropicClient, error) {
	if msg == nil {
		return nil, errors.New("modelclient: anthropic messages client is required")
	}
	if defaultModel == "" {
		return nil, errors.New("modelclient: default anthropic model is required")
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &AnthropicClient{msg: msg, defaultModel: defaultModel, maxTokens: maxTokens}, nil
}

// NewAnthropicClientFromAPIKey constructs a client using the SDK's default
// HTTP transport, reading ANTHROPIC_API_KEY conventions through option.WithAPIKey.
func NewAnthropicClientFromAPIKey(apiKey, defaultModel string) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, errors.New("modelclient: anthropic api key is required")
	}
	c := sdk.NewClient(option.WithAPIKey(apiKey))
	return NewAnthropicClient(&c.Messages, defaultModel, 4096)
}

// Complete implements Client.
func (c *AnthropicClient) Complete(ctx context.Context, req Request) (Response, error) {
	params, err := c.buildParams(req)
	if err != nil {
		return Response{}, err
	}
	msg, err := c.msg.New(ctx, params)
	if err != nil {
		return Response{}, fmt.Errorf("modelclient: anthropic messages.new: %w", err)
	}
	return translateAnthropicResponse(msg), nil
}

func (c *AnthropicClient) buildParams(req Request) (sdk.MessageNewParams, error) {
	modelID := req.Model
	if modelID == "" {
		modelID = c.defaultModel
	}
	conversation, system, err := encodeAnthropicMessages(req.Messages)
	if err != nil {
		return sdk.MessageNewParams{}, err
	}
	params := sdk.MessageNewParams{
		Model:     sdk.Model(modelID),
		MaxTokens: c.maxTokens,
		Messages:  conversation,
	}
	if len(system) > 0 {
		params.System = system
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}
	if len(req.Tools) > 0 {
		tools, err := encodeAnthropicTools(req.Tools)
		if err != nil {
			return sdk.MessageNewParams{}, err
		}
		params.Tools = tools
	}
	return params, nil
}

func encodeAnthropicMessages(msgs []model.Message) ([]sdk.MessageParam, []sdk.TextBlockParam, error) {
	conversation := make([]sdk.MessageParam, 0, len(msgs))
	system := make([]sdk.TextBlockParam, 0)

	for _, m := range msgs {
		switch m.Role {
		case model.RoleSystem:
			if text := m.ContentTextOnly(); text != "" {
				system = append(system, sdk.TextBlockParam{Text: text})
			}
		case model.RoleUser, model.RolePlainText, model.RoleCDInstr, model.RoleContextFile:
			blocks := encodeAnthropicUserBlocks(m)
			if len(blocks) > 0 {
				conversation = append(conversation, sdk.NewUserMessage(blocks...))
			}
		case model.RoleAssistant:
			blocks := encodeAnthropicAssistantBlocks(m)
			if len(blocks) > 0 {
				conversation = append(conversation, sdk.NewAssistantMessage(blocks...))
			}
		case model.RoleTool, model.RoleDiff:
			content := m.ContentTextOnly()
			conversation = append(conversation, sdk.NewUserMessage(sdk.NewToolResultBlock(m.ToolCallID, content, false)))
		}
	}
	if len(conversation) == 0 {
		return nil, nil, errors.New("modelclient: anthropic requires at least one user/assistant message")
	}
	return conversation, system, nil
}

func encodeAnthropicUserBlocks(m model.Message) []sdk.ContentBlockParamUnion {
	switch m.Kind {
	case model.ContentContextFiles:
		var blocks []sdk.ContentBlockParamUnion
		for _, cf := range m.ContextFiles {
			blocks = append(blocks, sdk.NewTextBlock(cf.FileContent))
		}
		return blocks
	case model.ContentMultimodal:
		var blocks []sdk.ContentBlockParamUnion
		for _, el := range m.Media {
			switch el.Type {
			case model.MediaText:
				if el.Text != "" {
					blocks = append(blocks, sdk.NewTextBlock(el.Text))
				}
			case model.MediaImage:
				blocks = append(blocks, sdk.NewImageBlockBase64(el.MimeType, el.Base64))
			}
		}
		return blocks
	default:
		if m.Text == "" {
			return nil
		}
		return []sdk.ContentBlockParamUnion{sdk.NewTextBlock(m.Text)}
	}
}

func encodeAnthropicAssistantBlocks(m model.Message) []sdk.ContentBlockParamUnion {
	var blocks []sdk.ContentBlockParamUnion
	if text := m.ContentTextOnly(); text != "" {
		blocks = append(blocks, sdk.NewTextBlock(text))
	}
	for _, tc := range m.ToolCalls {
		var input map[string]any
		_ = json.Unmarshal([]byte(tc.Function.Arguments), &input)
		blocks = append(blocks, sdk.NewToolUseBlock(tc.ID, input, tc.Function.Name))
	}
	return blocks
}

func encodeAnthropicTools(tools []ToolDef) ([]sdk.ToolUnionParam, error) {
	out := make([]sdk.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		if t.Name == "" {
			continue
		}
		schema := sdk.ToolInputSchemaParam{ExtraFields: t.Parameters}
		u := sdk.ToolUnionParamOfTool(schema, t.Name)
		if u.OfTool != nil {
			u.OfTool.Description = sdk.String(t.Description)
		}
		out = append(out, u)
	}
	return out, nil
}

func translateAnthropicResponse(msg *sdk.Message) Response {
	resp := Response{Message: model.Message{Role: model.RoleAssistant, Kind: model.ContentSimpleText}}
	var text string
	var calls []model.ToolCall
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			text += block.Text
		case "tool_use":
			raw, _ := json.Marshal(block.Input)
			calls = append(calls, model.ToolCall{ID: block.ID, Function: model.ToolCallFunction{Name: block.Name, Arguments: string(raw)}})
		}
	}
	resp.Message.Text = text
	resp.Message.ToolCalls = calls
	resp.Message.FinishReason = string(msg.StopReason)
	model.BackfillToolCallIndices(resp.Message.ToolCalls)

	resp.Usage = model.Usage{
		PromptTokens:     int(msg.Usage.InputTokens),
		CompletionTokens: int(msg.Usage.OutputTokens),
		TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
	}
	return resp
}
