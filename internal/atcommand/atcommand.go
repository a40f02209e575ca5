// Package atcommand implements the at-command parser (C3): it extracts
// inline "@cmd arg…" directives from user text, validates and (where
// possible) auto-corrects their arguments, and replaces the matched span with
// a human-facing clip so the rest of the turn sees ordinary text.
package atcommand

import "strings"

// Validator checks and, on failure, offers a correction for one positional
// argument of a registered command.
type Validator interface {
	// Validate reports whether arg is acceptable, and if not, why.
	Validate(arg string) (ok bool, reason string)
	// Complete proposes a corrected value for an invalid arg. ok is false
	// when no correction could be produced.
	Complete(arg string) (corrected string, ok bool)
}

// Command is a registered at-command.
type Command struct {
	// Name is matched against tokens of the form "@Name".
	Name string
	// Validators holds one validator per positional argument; its length is
	// the command's arity. A nil entry (or a Validators slice shorter than
	// the number of args actually supplied) skips validation for that
	// position.
	Validators []Validator
}

// Arity is the number of positional arguments this command accepts.
func (c Command) Arity() int { return len(c.Validators) }

// ArgHighlight is the per-argument outcome surfaced for UI rendering.
type ArgHighlight struct {
	Value     string
	OK        bool
	Reason    string
	Corrected bool
}

// Match is one resolved "@cmd arg…" occurrence.
type Match struct {
	Command string
	Args     []ArgHighlight
	// Start/End are rune offsets of the original span in the input text.
	Start int
	End   int
	// Clip is the human-facing summary that replaces the span in the
	// cleaned text returned by Parse.
	Clip string
}

// Parser holds the set of registered at-commands.
type Parser struct {
	commands map[string]Command
}

// NewParser constructs an empty Parser.
func NewParser() *Parser {
	return &Parser{commands: make(map[string]Command)}
}

// Register adds (or replaces) a command definition.
func (p *Parser) Register(cmd Command) {
	p.commands[cmd.Name] = cmd
}

// token is one whitespace/punctuation-delimited run from the tokenizer.
type token struct {
	text       string
	startRune  int
	endRune    int
}

// tokenize splits text the way spec §4.3 requires: tokens match
// `@?[^ !?@\n]*`, i.e. runs of characters that are not space, '!', '?', '@',
// or newline, optionally preceded by a single '@'. Delimiters are discarded;
// '@' always starts a new token.
func tokenize(text string) []token {
	runes := []rune(text)
	var tokens []token
	var cur []rune
	start := -1
	flush := func(end int) {
		if len(cur) > 0 {
			tokens = append(tokens, token{text: string(cur), startRune: start, endRune: end})
		}
		cur = nil
		start = -1
	}
	for i, r := range runes {
		switch r {
		case ' ', '\n', '!', '?':
			flush(i)
		case '@':
			flush(i)
			start = i
			cur = append(cur, r)
		default:
			if start == -1 {
				start = i
			}
			cur = append(cur, r)
		}
	}
	flush(len(runes))
	return tokens
}

// Parse extracts and resolves at-commands from text, returning the cleaned
// text (matched spans replaced by their clip) and the structured matches in
// left-to-right order. Parsing tolerates commands written mid-sentence.
func (p *Parser) Parse(text string) (string, []Match) {
	tokens := tokenize(text)
	var matches []Match

	i := 0
	for i < len(tokens) {
		tok := tokens[i]
		name, isCmd := strings.CutPrefix(tok.text, "@")
		cmd, known := p.commands[name]
		if !isCmd || !known {
			i++
			continue
		}

		argc := cmd.Arity()
		args := make([]ArgHighlight, 0, argc)
		j := i + 1
		for len(args) < argc && j < len(tokens) {
			next := tokens[j]
			if strings.HasPrefix(next.text, "@") {
				break // breaks at the next @cmd, per spec
			}
			validator := cmd.Validators[len(args)]
			value := next.text
			corrected := false
			ok, reason := true, ""
			if validator != nil {
				ok, reason = validator.Validate(value)
				if !ok {
					if fix, fixed := validator.Complete(value); fixed {
						value = fix
						corrected = true
						ok, reason = true, ""
					}
				}
			}
			args = append(args, ArgHighlight{Value: value, OK: ok, Reason: reason, Corrected: corrected})
			j++
		}

		end := tok.endRune
		if len(args) > 0 {
			end = tokens[i+len(args)].endRune
		}
		match := Match{
			Command: name,
			Args:    args,
			Start:   tok.startRune,
			End:     end,
			Clip:    clipFor(name, args),
		}
		matches = append(matches, match)
		i = i + 1 + len(args)
	}

	return render(text, matches), matches
}

// clipFor builds the human-facing summary that substitutes for a matched
// "@cmd arg…" span in the cleaned text.
func clipFor(name string, args []ArgHighlight) string {
	if len(args) == 0 {
		return "`@" + name + "`"
	}
	vals := make([]string, len(args))
	for i, a := range args {
		vals[i] = a.Value
	}
	return "`@" + name + " " + strings.Join(vals, " ") + "`"
}

// render rebuilds text with every matched span replaced by its clip.
func render(text string, matches []Match) string {
	if len(matches) == 0 {
		return text
	}
	runes := []rune(text)
	var b strings.Builder
	cursor := 0
	for _, m := range matches {
		b.WriteString(string(runes[cursor:m.Start]))
		b.WriteString(m.Clip)
		cursor = m.End
	}
	b.WriteString(string(runes[cursor:]))
	return b.String()
}
