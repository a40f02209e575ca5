// Package title implements the asynchronous title generator (C11): after a
// trajectory save, ask a light chat model to name the chat, falling back to
// the first user message on failure. Grounded on spec §4.10 directly (no
// pack file implements this; it follows the same "call a model, clean the
// text" shape as internal/subchat's single-turn calls).
package title

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/refact-ai/agentcore/internal/model"
	"github.com/refact-ai/agentcore/internal/modelclient"
)

const (
	maxContextMessages = 6
	maxMessageChars     = 500
	maxTitleChars       = 60
	titleTemperature    = 0.3
	titleMaxNewTokens   = 50
)

var titleTemperatureValue = titleTemperature

const titlePrompt = "Reply with only a short, descriptive title (a few words) for this conversation. Do not use quotation marks."

// ShouldGenerate reports whether title generation should fire after a save,
// per spec §4.10's trigger conditions.
func ShouldGenerate(currentTitle string, isTitleGenerated bool, messageCount int) bool {
	if isTitleGenerated {
		return false
	}
	if messageCount == 0 {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(currentTitle)) {
	case "", "new chat", "untitled":
		return true
	default:
		return false
	}
}

// BuildContext renders up to the first 6 non-empty user, assistant or
// plain_text messages
// (each capped at 500 chars) as "role: content" lines, per spec §4.10.
func BuildContext(messages []model.Message) string {
	var sb strings.Builder
	count := 0
	for _, m := range messages {
		if count >= maxContextMessages {
			break
		}
		if m.Role != model.RoleUser && m.Role != model.RoleAssistant && m.Role != model.RolePlainText {
			continue
		}
		text := m.ContentTextOnly()
		if text == "" {
			continue
		}
		if utf8.RuneCountInString(text) > maxMessageChars {
			text = truncateRunes(text, maxMessageChars)
		}
		fmt.Fprintf(&sb, "%s: %s\n", m.Role, text)
		count++
	}
	return sb.String()
}

// Generate calls a light model to produce a title for messages, cleaning
// the result per spec §4.10. On any model failure it falls back to the
// first non-empty user message, truncated to 60 chars.
func Generate(ctx context.Context, client modelclient.Client, lightModel string, messages []model.Message) string {
	built := BuildContext(messages)
	if client != nil && built != "" {
		resp, err := client.Complete(ctx, modelclient.Request{
			Model:        lightModel,
			Messages:     []model.Message{model.NewSimpleText(model.RoleUser, built+"\n"+titlePrompt)},
			Temperature:  &titleTemperatureValue,
			MaxNewTokens: titleMaxNewTokens,
		})
		if err == nil {
			if cleaned := Clean(resp.Message.ContentTextOnly()); cleaned != "" {
				return cleaned
			}
		}
	}
	return fallbackTitle(messages)
}

func fallbackTitle(messages []model.Message) string {
	for _, m := range messages {
		if m.Role != model.RoleUser {
			continue
		}
		text := strings.TrimSpace(m.ContentTextOnly())
		if text != "" {
			return truncateWithEllipsis(text, maxTitleChars)
		}
	}
	return "New Chat"
}

// Clean strips surrounding quotes/backticks/asterisks, collapses whitespace
// (including newlines), and truncates to <=60 chars with an ellipsis, per
// spec §4.10.
func Clean(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, "\"'`* \t\n")
	s = strings.Join(strings.Fields(s), " ")
	return truncateWithEllipsis(s, maxTitleChars)
}

func truncateWithEllipsis(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return truncateRunes(s, max-1) + "…"
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
