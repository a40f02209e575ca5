package patch

import "strings"

// splitLinesKeepEmpty splits on "\n" without dropping a trailing empty
// element the way strings.Split already behaves for "a\nb\n" -> ["a","b",""].
// Named explicitly here because the patch algorithms below rely on that
// trailing-empty-element behavior to preserve a file's final newline.
func splitLinesKeepEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

// trimCR reports s with trailing \r removed, tolerating CRLF input.
func trimCR(s string) string {
	return strings.TrimSuffix(s, "\r")
}
