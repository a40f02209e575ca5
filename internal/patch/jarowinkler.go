package patch

import "strings"

// jaroWinkler is a small, dependency-free similarity metric used only as the
// block-replace dialect's fallback when an "Original Section" doesn't match
// any file span byte-for-byte (see block_replace.go). No library in the
// example corpus provides Jaro-Winkler, and the metric is short enough
// (~40 lines) that pulling in a dependency for it would not be idiomatic;
// this is the one stdlib-only piece of the patch engine, noted in
// DESIGN.md.
// Similarity exposes the Jaro-Winkler metric for callers outside this
// package that need the same fuzzy-match behavior (e.g. the built-in tools'
// path correction), so the one stdlib-only string metric in this module has
// a single implementation.
func Similarity(a, b string) float64 {
	return jaroWinkler(a, b)
}

func jaroWinkler(a, b string) float64 {
	j := jaro(a, b)
	if j <= 0 {
		return j
	}
	prefix := 0
	for prefix < len(a) && prefix < len(b) && prefix < 4 && a[prefix] == b[prefix] {
		prefix++
	}
	return j + float64(prefix)*0.1*(1-j)
}

func jaro(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := len(a), len(b)
	if la == 0 || lb == 0 {
		return 0
	}
	matchDist := max(la, lb)/2 - 1
	if matchDist < 0 {
		matchDist = 0
	}
	aMatched := make([]bool, la)
	bMatched := make([]bool, lb)
	matches := 0
	for i := 0; i < la; i++ {
		start := max(0, i-matchDist)
		end := min(lb, i+matchDist+1)
		for j := start; j < end; j++ {
			if bMatched[j] || a[i] != b[j] {
				continue
			}
			aMatched[i] = true
			bMatched[j] = true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0
	}
	var transpositions int
	k := 0
	for i := 0; i < la; i++ {
		if !aMatched[i] {
			continue
		}
		for !bMatched[k] {
			k++
		}
		if a[i] != b[k] {
			transpositions++
		}
		k++
	}
	m := float64(matches)
	return (m/float64(la) + m/float64(lb) + (m-float64(transpositions)/2)/m) / 3
}

// normalizedSimilarity compares two multi-line blocks ignoring leading/
// trailing whitespace on each line, which is where model-generated sections
// most commonly drift from the file.
func normalizedSimilarity(a, b string) float64 {
	return jaroWinkler(normalizeBlock(a), normalizeBlock(b))
}

func normalizeBlock(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.Join(lines, "\n")
}
