package modelclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"

	"github.com/refact-ai/agentcore/internal/model"
)

// RuntimeClient mirrors the subset of the AWS Bedrock runtime client this
// adapter needs, matching *bedrockruntime.Client so callers can substitute a
// fake in tests (grounded on the teacher's features/model/bedrock adapter).
type RuntimeClient interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockClient implements Client on top of the AWS Bedrock Converse API.
type BedrockClient struct {
	runtime      RuntimeClient
	defaultModel string
	maxTokens    int32
}

// NewBedrockClient builds a Client from an already-configured Bedrock runtime
// client (or a test double implementing RuntimeClient).
func NewBedrockClient(runtime RuntimeClient, defaultModel string, maxTokens int32) (*BedrockClient, error) {
	if runtime == nil {
		return nil, errors.New("modelclient: bedrock runtime client is required")
	}
	if defaultModel == "" {
		return nil, errors.New("modelclient: default bedrock model is required")
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &BedrockClient{runtime: runtime, defaultModel: defaultModel, maxTokens: maxTokens}, nil
}

// Complete implements Client.
func (c *BedrockClient) Complete(ctx context.Context, req Request) (Response, error) {
	modelID := req.Model
	if modelID == "" {
		modelID = c.defaultModel
	}
	conversation, system, err := encodeBedrockMessages(req.Messages)
	if err != nil {
		return Response{}, err
	}

	input := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(modelID),
		Messages: conversation,
		System:   system,
		InferenceConfig: &brtypes.InferenceConfiguration{
			MaxTokens: aws.Int32(c.maxTokens),
		},
	}
	if req.Temperature != nil {
		input.InferenceConfig.Temperature = aws.Float32(float32(*req.Temperature))
	}
	if len(req.Tools) > 0 {
		input.ToolConfig = encodeBedrockToolConfig(req.Tools)
	}

	out, err := c.runtime.Converse(ctx, input)
	if err != nil {
		if isThrottling(err) {
			return Response{}, fmt.Errorf("modelclient: bedrock converse: %w: %w", ErrRateLimited, err)
		}
		return Response{}, fmt.Errorf("modelclient: bedrock converse: %w", err)
	}
	return translateBedrockResponse(out), nil
}

// isThrottling reports whether err is Bedrock's throttling exception,
// identified via smithy's APIError interface rather than string-matching
// (the Bedrock SDK models ThrottlingException as a distinct error code).
func isThrottling(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "ThrottlingException"
}

func encodeBedrockMessages(msgs []model.Message) ([]brtypes.Message, []brtypes.SystemContentBlock, error) {
	conversation := make([]brtypes.Message, 0, len(msgs))
	system := make([]brtypes.SystemContentBlock, 0)

	for _, m := range msgs {
		switch m.Role {
		case model.RoleSystem:
			if text := m.ContentTextOnly(); text != "" {
				system = append(system, &brtypes.SystemContentBlockMemberText{Value: text})
			}
		case model.RoleUser, model.RolePlainText, model.RoleCDInstr, model.RoleContextFile:
			if text := m.ContentTextOnly(); text != "" {
				conversation = append(conversation, brtypes.Message{
					Role:    brtypes.ConversationRoleUser,
					Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: text}},
				})
			}
		case model.RoleAssistant:
			conversation = append(conversation, encodeBedrockAssistantMessage(m))
		case model.RoleTool, model.RoleDiff:
			tr := brtypes.ToolResultBlock{
				ToolUseId: aws.String(m.ToolCallID),
				Content:   []brtypes.ToolResultContentBlock{&brtypes.ToolResultContentBlockMemberText{Value: m.ContentTextOnly()}},
			}
			conversation = append(conversation, brtypes.Message{
				Role:    brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberToolResult{Value: tr}},
			})
		}
	}
	if len(conversation) == 0 {
		return nil, nil, errors.New("modelclient: bedrock requires at least one message")
	}
	return conversation, system, nil
}

func encodeBedrockAssistantMessage(m model.Message) brtypes.Message {
	var blocks []brtypes.ContentBlock
	if text := m.ContentTextOnly(); text != "" {
		blocks = append(blocks, &brtypes.ContentBlockMemberText{Value: text})
	}
	for _, tc := range m.ToolCalls {
		var input map[string]any
		_ = json.Unmarshal([]byte(tc.Function.Arguments), &input)
		blocks = append(blocks, &brtypes.ContentBlockMemberToolUse{Value: brtypes.ToolUseBlock{
			ToolUseId: aws.String(tc.ID),
			Name:      aws.String(tc.Function.Name),
			Input:     document.NewLazyDocument(input),
		}})
	}
	return brtypes.Message{Role: brtypes.ConversationRoleAssistant, Content: blocks}
}

func encodeBedrockToolConfig(tools []ToolDef) *brtypes.ToolConfiguration {
	list := make([]brtypes.Tool, 0, len(tools))
	for _, t := range tools {
		spec := brtypes.ToolSpecification{
			Name:        aws.String(t.Name),
			Description: aws.String(t.Description),
			InputSchema: &brtypes.ToolInputSchemaMemberJson{Value: document.NewLazyDocument(t.Parameters)},
		}
		list = append(list, &brtypes.ToolMemberToolSpec{Value: spec})
	}
	return &brtypes.ToolConfiguration{Tools: list}
}

func translateBedrockResponse(out *bedrockruntime.ConverseOutput) Response {
	resp := Response{Message: model.Message{Role: model.RoleAssistant, Kind: model.ContentSimpleText}}
	msgOut, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return resp
	}
	var text string
	var calls []model.ToolCall
	for _, block := range msgOut.Value.Content {
		switch b := block.(type) {
		case *brtypes.ContentBlockMemberText:
			text += b.Value
		case *brtypes.ContentBlockMemberToolUse:
			var raw []byte
			if b.Value.Input != nil {
				raw, _ = b.Value.Input.MarshalSmithyDocument()
			}
			calls = append(calls, model.ToolCall{
				ID:       aws.ToString(b.Value.ToolUseId),
				Function: model.ToolCallFunction{Name: aws.ToString(b.Value.Name), Arguments: string(raw)},
			})
		}
	}
	resp.Message.Text = text
	resp.Message.ToolCalls = calls
	resp.Message.FinishReason = string(out.StopReason)
	model.BackfillToolCallIndices(resp.Message.ToolCalls)

	if out.Usage != nil {
		resp.Usage = model.Usage{
			PromptTokens:     int(out.Usage.InputTokens),
			CompletionTokens: int(out.Usage.OutputTokens),
			TotalTokens:      int(out.Usage.TotalTokens),
		}
	}
	return resp
}
