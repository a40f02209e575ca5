package trajectory

import (
	"encoding/json"
	"time"

	"github.com/refact-ai/agentcore/internal/model"
)

// Trajectory is the on-disk canonical form of a chat (spec §4.9), stored
// under "<workspace>/.refact/trajectories/<id>.json".
type Trajectory struct {
	ID                 string         `json:"id"`
	Title              string         `json:"title"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	Model              string         `json:"model"`
	Mode               string         `json:"mode"`
	ToolUse            string         `json:"tool_use"`
	Messages           []wireMessage  `json:"messages"`
	BoostReasoning     bool           `json:"boost_reasoning"`
	CheckpointsEnabled bool           `json:"checkpoints_enabled"`
	ContextTokensCap   *int           `json:"context_tokens_cap,omitempty"`
	IncludeProjectInfo bool           `json:"include_project_info"`
	IsTitleGenerated   bool           `json:"isTitleGenerated"`
	Passthrough        map[string]any `json:"-"`
}

// wireMessage is the on-disk shape of a model.Message. It is a deliberately
// thin DTO rather than the full wire-adapter output (C12): the trajectory
// file is this runtime's own durable record, not a provider payload, so it
// keeps tool-result/diff/context-file messages as they are instead of
// collapsing them the way a provider request would. It round-trips role,
// text, media, context files, tool calls, tool_call_id and finish_reason;
// Kind is recomputed on load, and Usage and ThinkingBlocks are not persisted.
type wireMessage struct {
	Role           model.Role           `json:"role"`
	Text           string               `json:"text,omitempty"`
	Media          []model.MediaElement `json:"media,omitempty"`
	ContextFiles   []model.ContextFile  `json:"context_files,omitempty"`
	ToolCalls      []model.ToolCall     `json:"tool_calls,omitempty"`
	ToolCallID     string               `json:"tool_call_id,omitempty"`
	FinishReason   string               `json:"finish_reason,omitempty"`
}

func toWire(msgs []model.Message) []wireMessage {
	out := make([]wireMessage, len(msgs))
	for i, m := range msgs {
		out[i] = wireMessage{
			Role: m.Role, Text: m.Text, Media: m.Media, ContextFiles: m.ContextFiles,
			ToolCalls: m.ToolCalls, ToolCallID: m.ToolCallID, FinishReason: m.FinishReason,
		}
	}
	return out
}

func fromWire(wire []wireMessage) []model.Message {
	out := make([]model.Message, len(wire))
	for i, w := range wire {
		kind := model.ContentSimpleText
		if len(w.Media) > 0 {
			kind = model.ContentMultimodal
		} else if len(w.ContextFiles) > 0 {
			kind = model.ContentContextFiles
		}
		out[i] = model.Message{
			Role: w.Role, Kind: kind, Text: w.Text, Media: w.Media, ContextFiles: w.ContextFiles,
			ToolCalls: w.ToolCalls, ToolCallID: w.ToolCallID, FinishReason: w.FinishReason,
		}
	}
	return out
}

// NewTrajectory constructs an empty trajectory ready for its first save.
func NewTrajectory(id string, now time.Time) Trajectory {
	return Trajectory{ID: id, Title: "New Chat", CreatedAt: now, UpdatedAt: now}
}

// SetMessages replaces the trajectory's message list from the live model
// representation.
func (t *Trajectory) SetMessages(msgs []model.Message) { t.Messages = toWire(msgs) }

// ToModelMessages returns the trajectory's messages in live model form.
func (t Trajectory) ToModelMessages() []model.Message { return fromWire(t.Messages) }

// MarshalJSON folds Passthrough fields in alongside the named fields, per
// spec §4.9's "...passthrough..." trailing field. Named fields always win on
// key collision.
func (t Trajectory) MarshalJSON() ([]byte, error) {
	type alias Trajectory
	named, err := json.Marshal(alias(t))
	if err != nil {
		return nil, err
	}
	if len(t.Passthrough) == 0 {
		return named, nil
	}
	merged := map[string]json.RawMessage{}
	for k, v := range t.Passthrough {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		merged[k] = raw
	}
	var namedMap map[string]json.RawMessage
	if err := json.Unmarshal(named, &namedMap); err != nil {
		return nil, err
	}
	for k, v := range namedMap {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// UnmarshalJSON captures any field not in the named schema into Passthrough.
func (t *Trajectory) UnmarshalJSON(data []byte) error {
	type alias Trajectory
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*t = Trajectory(a)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	known := map[string]bool{
		"id": true, "title": true, "created_at": true, "updated_at": true,
		"model": true, "mode": true, "tool_use": true, "messages": true,
		"boost_reasoning": true, "checkpoints_enabled": true, "context_tokens_cap": true,
		"include_project_info": true, "isTitleGenerated": true,
	}
	for k, v := range raw {
		if known[k] {
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			continue
		}
		if t.Passthrough == nil {
			t.Passthrough = map[string]any{}
		}
		t.Passthrough[k] = val
	}
	return nil
}
