package builtintools

import (
	"context"
	"regexp"
	"strings"

	"github.com/refact-ai/agentcore/internal/confirm"
	"github.com/refact-ai/agentcore/internal/model"
	"github.com/refact-ai/agentcore/internal/toolerrors"
	"github.com/refact-ai/agentcore/internal/toolspec"
)

// WebFetcher is the external HTTP collaborator the web tool depends on.
type WebFetcher interface {
	Fetch(ctx context.Context, url string) (html string, err error)
}

// Web implements the web tool (spec §4.2): fetch a URL, extract the likely
// content container, and render an HTML->Markdown-ish text approximation.
type Web struct {
	toolspec.Base
	Fetcher WebFetcher
}

func (t Web) Description() toolspec.ToolDesc {
	return toolspec.ToolDesc{
		Name: "web", DisplayName: "Fetch Web Page", Source: "builtin",
		Description: "Fetch a URL and extract its likely main content as readable text.",
		Parameters: []toolspec.Param{
			{Name: "url", Type: "string", Desc: "the URL to fetch"},
		},
		ParametersRequired: []string{"url"},
	}
}

func (t Web) DependsOn() []string { return []string{"web"} }

func (t Web) Execute(ctx context.Context, toolCallID string, args map[string]any) (toolspec.ExecResult, error) {
	url, _ := args["url"].(string)
	html, err := t.Fetcher.Fetch(ctx, url)
	if err != nil {
		return toolspec.ExecResult{}, toolerrors.NewWithCause(toolerrors.KindExecution, "web", err)
	}
	text := extractContent(html)
	return toolspec.ExecResult{Messages: []model.Message{model.NewToolResult(toolCallID, text)}}, nil
}

func (t Web) CommandToMatchAgainstConfirmDeny(args map[string]any) string {
	url, _ := args["url"].(string)
	return confirm.CommandFromArgs("web", url)
}

func (t Web) MatchAgainstConfirmDeny(ctx context.Context, args map[string]any, overrides confirm.Rules) confirm.Result {
	return t.Base.Evaluate(ctx, args, overrides, t.CommandToMatchAgainstConfirmDeny)
}

var (
	scriptOrStyleRe = regexp.MustCompile(`(?is)<(script|style|nav|header|footer)[^>]*>.*?</(script|style|nav|header|footer)>`)
	mainContainerRe = regexp.MustCompile(`(?is)<(article|main)[^>]*>(.*?)</(?:article|main)>`)
	tagRe           = regexp.MustCompile(`(?s)<[^>]+>`)
	blankLinesRe    = regexp.MustCompile(`\n{3,}`)
)

// extractContent picks the <article>/<main> container when present,
// otherwise the whole document, strips script/style/nav/footer blocks and
// remaining tags, and collapses blank lines — a deliberately simple
// HTML->Markdown-ish approximation (spec.md does not specify a particular
// readability algorithm, only the observable behavior).
func extractContent(html string) string {
	stripped := scriptOrStyleRe.ReplaceAllString(html, "")
	body := stripped
	if m := mainContainerRe.FindStringSubmatch(stripped); len(m) == 4 {
		body = m[2]
	}
	text := tagRe.ReplaceAllString(body, "\n")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
