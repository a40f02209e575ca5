// Package contextpp implements the context post-processor (C4): budget-aware
// selection, truncation, and duplicate suppression of file excerpts and
// plain-text tool output so one turn's evidence fits the model's context
// window.
package contextpp

import "fmt"

// hardMinimum is the smallest n_ctx the post-processor will operate under
// (spec §4.4, §7 Budget exceeded).
const hardMinimum = 8192

// Budget is the per-turn token allocation split between code evidence (files)
// and plain text evidence (tool output, at-command clips).
type Budget struct {
	Code int
	Text int
}

// FromNCtx derives a Budget from the model's context window. It reserves
// max(n_ctx/2, 4096) tokens and splits that reserve 80% code / 20% text. It
// refuses windows below hardMinimum with a fatal error (spec §7.4).
func FromNCtx(nCtx int) (Budget, error) {
	if nCtx < hardMinimum {
		return Budget{}, fmt.Errorf("contextpp: n_ctx %d is below the minimum of %d tokens required for post-processing", nCtx, hardMinimum)
	}
	reserve := nCtx / 2
	if reserve < 4096 {
		reserve = 4096
	}
	return Budget{
		Code: reserve * 80 / 100,
		Text: reserve * 20 / 100,
	}, nil
}

// Tokenizer estimates the token count of a text blob. The real tokenizer is
// an external, model-specific service (spec §1 Non-goals); CharApprox is the
// fallback used when no tokenizer is wired in.
type Tokenizer interface {
	Count(text string) int
}

// CharApproxTokenizer estimates four characters per token. It is a
// deliberately crude stand-in: no pack example ships a BPE tokenizer, and the
// spec treats the tokenizer registry as an opaque external service.
type CharApproxTokenizer struct{}

// Count implements Tokenizer.
func (CharApproxTokenizer) Count(text string) int {
	n := len([]rune(text))
	if n == 0 {
		return 0
	}
	tokens := n / 4
	if tokens == 0 {
		tokens = 1
	}
	return tokens
}
