// Package model defines the internal union-typed message stream shared by the
// chat/tool orchestration loop, the context post-processor, and the wire
// adapter. Messages carry typed content (plain text, multimodal, or context
// files) plus optional tool-call annotations, usage, and thinking blocks,
// mirroring the part-union shape the teacher runtime uses for its own
// provider-agnostic Message type.
package model

import "fmt"

// Role identifies the speaker (or structural kind) of a Message.
type Role string

const (
	RoleSystem       Role = "system"
	RoleUser         Role = "user"
	RoleAssistant    Role = "assistant"
	RoleTool         Role = "tool"
	RoleDiff         Role = "diff"
	RoleContextFile  Role = "context_file"
	RoleCDInstr      Role = "cd_instruction"
	RolePlainText    Role = "plain_text"
	RoleKernel       Role = "kernel"
)

// MediaType discriminates a MediaElement's payload.
type MediaType string

const (
	MediaText  MediaType = "text"
	MediaImage MediaType = "image"
)

// MediaElement is one block of a Multimodal message content.
type MediaElement struct {
	Type MediaType
	// Text holds the content when Type == MediaText.
	Text string
	// MimeType is the image media type (e.g. "image/png") when Type == MediaImage.
	MimeType string
	// Base64 is the base64-encoded image payload when Type == MediaImage.
	Base64 string
}

// GradientType drives the per-line usefulness profile assigned to a
// ContextFile during post-processing (see internal/contextpp).
type GradientType int

const (
	GradientFull        GradientType = -1
	GradientFlat        GradientType = 0
	GradientCommentsUp  GradientType = 1
	GradientDeclUp      GradientType = 2
	GradientBodyDown    GradientType = 3
	GradientUsageRadial GradientType = 4
)

// ContextFile is a file excerpt attached to a message with a usefulness score.
//
// Line1/Line2 are 1-based. Line2 == 0 means "to EOF"; Line1 == 0 means "from
// start". SkipPP marks a file that should be rendered verbatim, bypassing the
// AST-driven post-processing pass (but not the fair-share budget or the
// duplicate-suppression pass).
type ContextFile struct {
	FileName    string
	FileContent string
	Line1       int
	Line2       int
	Symbols     []string
	Gradient    GradientType
	Usefulness  float64
	SkipPP      bool

	// SourceToolCallID correlates this excerpt to the tool call that produced
	// it, so later duplicate-suppression passes can name the originating
	// tool when a file is re-requested.
	SourceToolCallID string
}

// ToolCallFunction is the function-call payload of a ToolCall.
type ToolCallFunction struct {
	Name      string
	Arguments string // raw JSON text, as produced by the model
}

// ToolCall is one tool invocation requested by the assistant.
type ToolCall struct {
	ID       string
	Function ToolCallFunction
	Type     string
	// Index is the call's position within the assistant message. It is
	// synthesized (back-filled, 0-based, in input order) when the model
	// endpoint omits it.
	Index *int
}

// Usage tracks token counts for a model call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Add accumulates another Usage into u, returning the sum. Nil receivers and
// operands are treated as zero.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		PromptTokens:     u.PromptTokens + other.PromptTokens,
		CompletionTokens: u.CompletionTokens + other.CompletionTokens,
		TotalTokens:      u.TotalTokens + other.TotalTokens,
	}
}

// ContentKind discriminates the three content shapes a Message may carry.
type ContentKind int

const (
	// ContentSimpleText holds a single text blob (the common case).
	ContentSimpleText ContentKind = iota
	// ContentMultimodal holds an ordered list of MediaElement blocks.
	ContentMultimodal
	// ContentContextFiles holds a list of ContextFile excerpts.
	ContentContextFiles
)

// Message is a single record in the chat transcript.
//
// Invariants (enforced by Validate):
//   - A message with Role == RoleTool must carry a non-empty ToolCallID.
//   - A message with non-empty ToolCalls must have Role == RoleAssistant.
type Message struct {
	Role Role

	Kind         ContentKind
	Text         string // valid when Kind == ContentSimpleText
	Media        []MediaElement
	ContextFiles []ContextFile

	ToolCalls      []ToolCall
	ToolCallID     string
	Usage          *Usage
	ThinkingBlocks []ThinkingBlock
	FinishReason   string
}

// ThinkingBlock is an opaque vendor-specific reasoning object. The runtime
// never inspects its contents; it is carried through and re-emitted to the
// same provider family it came from.
type ThinkingBlock struct {
	Provider  string
	Signature string
	Payload   any
}

// NewSimpleText constructs a plain-text message for the given role.
func NewSimpleText(role Role, text string) Message {
	return Message{Role: role, Kind: ContentSimpleText, Text: text}
}

// NewMultimodal constructs a multimodal message for the given role.
func NewMultimodal(role Role, elements []MediaElement) Message {
	return Message{Role: role, Kind: ContentMultimodal, Media: elements}
}

// NewContextFiles constructs a context-file message carrying the given excerpts.
func NewContextFiles(files []ContextFile) Message {
	return Message{Role: RoleContextFile, Kind: ContentContextFiles, ContextFiles: files}
}

// NewToolResult constructs a tool-role reply correlated to toolCallID.
func NewToolResult(toolCallID, text string) Message {
	return Message{Role: RoleTool, Kind: ContentSimpleText, Text: text, ToolCallID: toolCallID}
}

// ContentTextOnly returns the concatenation of textual parts, eliding any
// image payload. It returns the empty string if the message holds only
// images, per the C1 contract.
func (m Message) ContentTextOnly() string {
	switch m.Kind {
	case ContentSimpleText:
		return m.Text
	case ContentMultimodal:
		var out string
		for _, el := range m.Media {
			if el.Type == MediaText {
				out += el.Text
			}
		}
		return out
	case ContentContextFiles:
		var out string
		for _, cf := range m.ContextFiles {
			out += cf.FileContent
		}
		return out
	default:
		return ""
	}
}

// Validate checks the C1 message invariants.
func (m Message) Validate() error {
	if m.Role == RoleTool && m.ToolCallID == "" {
		return fmt.Errorf("model: message with role %q must carry a tool_call_id", RoleTool)
	}
	if len(m.ToolCalls) > 0 && m.Role != RoleAssistant {
		return fmt.Errorf("model: message with tool_calls must have role %q, got %q", RoleAssistant, m.Role)
	}
	return nil
}

// BackfillToolCallIndices assigns a monotonically increasing, 0-based Index to
// any ToolCall missing one, in input order. This satisfies the executor's
// round-trip invariant (spec §8.1) after loading a trajectory whose wire
// messages predate index tracking.
func BackfillToolCallIndices(calls []ToolCall) {
	next := 0
	for i := range calls {
		if calls[i].Index != nil {
			if *calls[i].Index >= next {
				next = *calls[i].Index + 1
			}
			continue
		}
		idx := next
		calls[i].Index = &idx
		next++
	}
}
