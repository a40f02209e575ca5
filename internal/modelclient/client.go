// Package modelclient unifies the provider-specific chat-completion SDKs
// behind one interface so the rest of the runtime (executor, sub-chats, title
// generation) never branches on vendor. Adapted from the teacher's
// runtime/agent.Client shape (a minimal Run(ctx, messages) contract),
// widened with the request/response fields the orchestration loop needs.
package modelclient

import (
	"context"

	"github.com/refact-ai/agentcore/internal/model"
)

// Request is one chat-completion call.
type Request struct {
	Model          string
	Messages       []model.Message
	Tools          []ToolDef
	Temperature    *float64
	MaxNewTokens   int
	ReasoningEffort string
}

// ToolDef is the wire-level tool advertisement passed to the model endpoint.
type ToolDef struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON-Schema-shaped parameter spec
}

// Response is one chat-completion result.
type Response struct {
	Message model.Message
	Usage   model.Usage
}

// Client is the uniform chat-completion contract every provider adapter
// implements (spec §1 "model endpoint" — treated as an external collaborator
// the runtime calls through this interface, never directly).
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}
