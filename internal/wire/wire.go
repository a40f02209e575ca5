// Package wire implements the message-format normalizer (C12): converting
// the internal model.Message union stream into the OpenAI-compatible wire
// shape a model endpoint expects, per spec §4.11. Grounded on
// internal/modelclient's per-provider encoders (which do the same job for
// their own wire shapes) and spec.md's explicit transformation list.
package wire

import (
	"fmt"
	"strings"

	"github.com/refact-ai/agentcore/internal/model"
)

// ToolCallWire is the wire shape of one tool call on an assistant message.
type ToolCallWire struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

// Message is one OpenAI-compatible chat message.
type Message struct {
	Role       string         `json:"role"`
	Content    any            `json:"content"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCallWire `json:"tool_calls,omitempty"`
}

// ContentPart is one element of a multimodal Content array.
type ContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL *struct {
		URL string `json:"url"`
	} `json:"image_url,omitempty"`
}

const (
	successSummary = "The operation has succeeded.\n%s"
	noopSummary    = "Nothing has changed."

	interruptedReplacementText = "Previous reasoning was interrupted; continuing from here."
)

// Normalize converts an internal message stream into its wire form,
// applying every rule in spec §4.11: tool-result/multimodal splitting with
// delayed image flushing, diff-role synthesis, plain_text/cd_instruction
// flattening, per-file context_file rendering, and the trailing-thinking-
// only assistant rewrite.
func Normalize(messages []model.Message) []Message {
	var out []Message
	var delayedImages []Message

	flush := func() {
		out = append(out, delayedImages...)
		delayedImages = nil
	}

	for i, m := range messages {
		switch m.Role {
		case model.RoleTool:
			text, images := splitMultimodal(m)
			out = append(out, Message{Role: "tool", ToolCallID: m.ToolCallID, Content: text})
			if len(images) > 0 {
				delayedImages = append(delayedImages, Message{Role: "user", Content: images})
			}
			continue

		case model.RoleDiff:
			out = append(out, Message{Role: "tool", ToolCallID: m.ToolCallID, Content: diffSummary(m)})
			continue

		case model.RolePlainText, model.RoleCDInstr:
			flush()
			out = append(out, Message{Role: "user", Content: m.ContentTextOnly()})
			continue

		case model.RoleContextFile:
			flush()
			for _, cf := range m.ContextFiles {
				out = append(out, Message{Role: "user", Content: renderContextFile(cf)})
			}
			continue

		case model.RoleAssistant:
			flush()
			out = append(out, assistantMessage(m))
			continue

		default:
			flush()
			out = append(out, Message{Role: string(m.Role), Content: m.ContentTextOnly()})
		}
		_ = i
	}
	flush()

	rewriteTrailingThinkingOnly(messages, out)
	return out
}

// splitMultimodal separates a tool-result message's text and image parts.
func splitMultimodal(m model.Message) (text string, images []ContentPart) {
	if m.Kind != model.ContentMultimodal {
		return m.ContentTextOnly(), nil
	}
	var sb strings.Builder
	for _, el := range m.Media {
		switch el.Type {
		case model.MediaText:
			sb.WriteString(el.Text)
		case model.MediaImage:
			part := ContentPart{Type: "image_url"}
			part.ImageURL = &struct {
				URL string `json:"url"`
			}{URL: fmt.Sprintf("data:%s;base64,%s", el.MimeType, el.Base64)}
			images = append(images, part)
		}
	}
	return sb.String(), images
}

func diffSummary(m model.Message) string {
	text := m.ContentTextOnly()
	if strings.TrimSpace(text) == "" {
		return noopSummary
	}
	return fmt.Sprintf(successSummary, text)
}

func renderContextFile(cf model.ContextFile) string {
	return fmt.Sprintf("%s:L%d-%d\n```\n%s```\n", cf.FileName, cf.Line1, cf.Line2, cf.FileContent)
}

func assistantMessage(m model.Message) Message {
	wm := Message{Role: "assistant", Content: m.ContentTextOnly()}
	for _, tc := range m.ToolCalls {
		w := ToolCallWire{ID: tc.ID, Type: "function"}
		w.Function.Name = tc.Function.Name
		w.Function.Arguments = tc.Function.Arguments
		wm.ToolCalls = append(wm.ToolCalls, w)
	}
	return wm
}

// rewriteTrailingThinkingOnly rewrites a final assistant message's wire
// Content if the corresponding internal message carried only thinking
// blocks (empty text, no tool calls), per spec §4.11, to avoid vendor
// errors about an empty assistant turn.
func rewriteTrailingThinkingOnly(internal []model.Message, out []Message) {
	if len(internal) == 0 || len(out) == 0 {
		return
	}
	last := internal[len(internal)-1]
	if last.Role != model.RoleAssistant {
		return
	}
	if last.ContentTextOnly() != "" || len(last.ToolCalls) > 0 {
		return
	}
	if len(last.ThinkingBlocks) == 0 {
		return
	}
	out[len(out)-1].Content = interruptedReplacementText
}
