package patch

import (
	"strings"
	"testing"
)

func TestParseBlockReplaceExactMatch(t *testing.T) {
	original := "func Greet() {\n\tfmt.Println(\"hi\")\n}\n"
	fileLines := strings.Split(strings.TrimSuffix(original, "\n"), "\n")
	content := "### Original Section (to be replaced)\n" +
		"```\n" +
		"\tfmt.Println(\"hi\")\n" +
		"```\n" +
		"### Modified Section (to replace with)\n" +
		"```\n" +
		"\tfmt.Println(\"hello\")\n" +
		"```\n"

	chunks, err := ParseBlockReplace("greet.go", content, fileLines)
	if err != nil {
		t.Fatalf("ParseBlockReplace: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	applied, err := ApplyChunksToFile(strings.TrimSuffix(original, "\n"), chunks)
	if err != nil {
		t.Fatalf("ApplyChunksToFile: %v", err)
	}
	if !strings.Contains(applied, "hello") || strings.Contains(applied, "\"hi\"") {
		t.Fatalf("unexpected applied content: %q", applied)
	}
}

func TestParseBlockReplaceIndentInsensitiveMatch(t *testing.T) {
	fileLines := []string{"func F() {", "        return 1", "}"}
	content := "### Original Section (to be replaced)\n" +
		"```\n" +
		"return 1\n" +
		"```\n" +
		"### Modified Section (to replace with)\n" +
		"```\n" +
		"return 2\n" +
		"```\n"
	chunks, err := ParseBlockReplace("f.go", content, fileLines)
	if err != nil {
		t.Fatalf("ParseBlockReplace: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Line1 != 2 || chunks[0].Line2 != 2 {
		t.Fatalf("unexpected chunk: %+v", chunks)
	}
}

func TestParseBlockReplaceFuzzyFallback(t *testing.T) {
	fileLines := []string{"func F() {", "\treturn computeValue(a, b)", "}"}
	// Original section has a minor typo/rewording versus the file; should
	// still match via the Jaro-Winkler fallback.
	content := "### Original Section (to be replaced)\n" +
		"```\n" +
		"return computeValue(a,b)\n" +
		"```\n" +
		"### Modified Section (to replace with)\n" +
		"```\n" +
		"return computeValue(a, b, c)\n" +
		"```\n"
	chunks, err := ParseBlockReplace("f.go", content, fileLines)
	if err != nil {
		t.Fatalf("ParseBlockReplace: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
}

func TestParseBlockReplaceNoMatchBelowFloor(t *testing.T) {
	fileLines := []string{"func F() {", "\treturn 1", "}"}
	content := "### Original Section (to be replaced)\n" +
		"```\n" +
		"this text bears no resemblance whatsoever\n" +
		"```\n" +
		"### Modified Section (to replace with)\n" +
		"```\n" +
		"something else\n" +
		"```\n"
	if _, err := ParseBlockReplace("f.go", content, fileLines); err == nil {
		t.Fatal("expected no-match error below the similarity floor")
	}
}

func TestJaroWinklerIdentical(t *testing.T) {
	if got := jaroWinkler("hello", "hello"); got != 1 {
		t.Fatalf("jaroWinkler(identical) = %v, want 1", got)
	}
}

func TestJaroWinklerCloseStrings(t *testing.T) {
	if got := jaroWinkler("martha", "marhta"); got < 0.9 {
		t.Fatalf("jaroWinkler(martha, marhta) = %v, want >= 0.9", got)
	}
}
