package confirm

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestDenyPrecedenceProperty checks, across randomly generated rule sets and
// commands, that Deny always wins over Confirmation: whenever a deny glob
// matches, the outcome is never Confirmation or Pass.
func TestDenyPrecedenceProperty(t *testing.T) {
	params := gopter.DefaultTestParameters()
	props := gopter.NewProperties(params)

	word := gen.OneConstOf("rm", "mysql", "shell", "cmdline", "*")

	props.Property("deny glob equal to the command always denies", prop.ForAll(
		func(tool string) bool {
			rules := Rules{AskUser: []string{"*"}, Deny: []string{tool}}
			res := Evaluate(rules, tool)
			return res.Outcome == Deny
		},
		word,
	))

	props.Property("no matching rule implies Pass", prop.ForAll(
		func(command string) bool {
			rules := Rules{AskUser: []string{"zzz_never_matches_zzz"}, Deny: []string{"yyy_never_matches_yyy"}}
			if command == "" {
				return true
			}
			res := Evaluate(rules, command)
			return res.Outcome == Pass
		},
		gen.OneConstOf("cat file.go", "tree", "search_semantic foo", "definition Bar"),
	))

	props.TestingRun(t)
}
