package builtintools

import (
	"context"
	"encoding/json"

	"github.com/refact-ai/agentcore/internal/confirm"
	"github.com/refact-ai/agentcore/internal/model"
	"github.com/refact-ai/agentcore/internal/modelclient"
	"github.com/refact-ai/agentcore/internal/patch"
	"github.com/refact-ai/agentcore/internal/toolerrors"
	"github.com/refact-ai/agentcore/internal/toolspec"
)

var applyTicketsConfirmRules = confirm.Rules{AskUser: []string{"*"}}

// ApplyTickets implements the apply_tickets tool (spec §4.2, detailed in
// §4.8): delegate entirely to the patch engine (internal/patch). Always
// confirmation-gated (spec §4.5).
type ApplyTickets struct {
	toolspec.Base
	Editor       patch.EditorSync
	RepairClient modelclient.Client
}

// NewApplyTickets constructs the tool with its always-confirm default rule.
func NewApplyTickets(editor patch.EditorSync, repairClient modelclient.Client) ApplyTickets {
	return ApplyTickets{Base: toolspec.Base{Rules: &applyTicketsConfirmRules}, Editor: editor, RepairClient: repairClient}
}

func (t ApplyTickets) Description() toolspec.ToolDesc {
	return toolspec.ToolDesc{
		Name: "apply_tickets", DisplayName: "Apply Patch Tickets", Source: "builtin", Agentic: true,
		Description: "Apply one or more patch tickets (new file, full replace, symbol replace, or section edit) to the workspace.",
		Parameters: []toolspec.Param{
			{Name: "tickets", Type: "array", Desc: "JSON array of ticket objects"},
		},
		ParametersRequired: []string{"tickets"},
	}
}

func (t ApplyTickets) DependsOn() []string { return nil }

// ticketWire is the JSON shape a model emits for one ticket; it mirrors
// patch.Ticket field-for-field so tool-call arguments decode directly.
type ticketWire struct {
	ID             string       `json:"id"`
	Action         string       `json:"action"`
	FilenameBefore string       `json:"filename_before"`
	FilenameAfter  string       `json:"filename_after"`
	Symbol         string       `json:"symbol"`
	Content        string       `json:"content"`
	Hunks          string       `json:"hunks"`
}

func (t ApplyTickets) Execute(ctx context.Context, toolCallID string, args map[string]any) (toolspec.ExecResult, error) {
	raw, err := json.Marshal(args["tickets"])
	if err != nil {
		return toolspec.ExecResult{}, toolerrors.NewWithCause(toolerrors.KindValidation, "apply_tickets: encoding arguments", err)
	}
	var wire []ticketWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return toolspec.ExecResult{}, toolerrors.NewWithCause(toolerrors.KindValidation, "apply_tickets", err)
	}

	tickets := make([]patch.Ticket, 0, len(wire))
	for _, w := range wire {
		tickets = append(tickets, patch.Ticket{
			ID:             w.ID,
			Action:         patch.Action(w.Action),
			FilenameBefore: w.FilenameBefore,
			FilenameAfter:  w.FilenameAfter,
			Symbol:         w.Symbol,
			Content:        w.Content,
			Hunks:          w.Hunks,
		})
	}

	msg, err := patch.Apply(ctx, t.Editor, t.RepairClient, tickets)
	if err != nil {
		return toolspec.ExecResult{}, toolerrors.NewWithCause(toolerrors.KindParse, "apply_tickets", err)
	}
	msg.ToolCallID = toolCallID
	return toolspec.ExecResult{Messages: []model.Message{msg}}, nil
}

func (t ApplyTickets) CommandToMatchAgainstConfirmDeny(args map[string]any) string {
	return confirm.CommandFromArgs("apply_tickets")
}

func (t ApplyTickets) MatchAgainstConfirmDeny(ctx context.Context, args map[string]any, overrides confirm.Rules) confirm.Result {
	return t.Base.Evaluate(ctx, args, overrides, t.CommandToMatchAgainstConfirmDeny)
}
