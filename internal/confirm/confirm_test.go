package confirm

import "testing"

func TestDenyWinsOverConfirmation(t *testing.T) {
	rules := Rules{AskUser: []string{"*"}, Deny: []string{"rm *"}}
	res := Evaluate(rules, "rm -rf /tmp")
	if res.Outcome != Deny {
		t.Fatalf("Outcome = %v, want Deny", res.Outcome)
	}
	if res.Rule != "rm *" {
		t.Fatalf("Rule = %q, want %q", res.Rule, "rm *")
	}
}

func TestPassWhenNoRuleMatches(t *testing.T) {
	rules := Rules{AskUser: []string{"rm *"}, Deny: []string{"sudo *"}}
	res := Evaluate(rules, "cat file.go")
	if res.Outcome != Pass {
		t.Fatalf("Outcome = %v, want Pass", res.Outcome)
	}
}

func TestWildcardAsksForAnyNonEmptyCommand(t *testing.T) {
	rules := Rules{AskUser: []string{"*"}}
	if res := Evaluate(rules, "anything at all"); res.Outcome != Confirmation {
		t.Fatalf("Outcome = %v, want Confirmation", res.Outcome)
	}
	if res := Evaluate(rules, ""); res.Outcome != Pass {
		t.Fatalf("Outcome for empty command = %v, want Pass", res.Outcome)
	}
}

func TestGlobMatchesAcrossSeparators(t *testing.T) {
	rules := Rules{Deny: []string{"mysql DROP*"}}
	res := Evaluate(rules, "mysql DROP TABLE users")
	if res.Outcome != Deny {
		t.Fatalf("Outcome = %v, want Deny", res.Outcome)
	}
}

func TestCommandFromArgsSkipsEmpty(t *testing.T) {
	got := CommandFromArgs("rm", "-r", "", "path/to/file")
	want := "rm -r path/to/file"
	if got != want {
		t.Fatalf("CommandFromArgs() = %q, want %q", got, want)
	}
}
