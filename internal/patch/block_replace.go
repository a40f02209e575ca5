package patch

import (
	"fmt"
	"strings"
)

// blockReplaceSimilarityFloor is the minimum Jaro-Winkler similarity for a
// fuzzy-matched "Original Section" to be accepted (spec §4.8's SectionEdit
// indent-insensitive fallback).
const blockReplaceSimilarityFloor = 0.9

const (
	originalHeading = "### Original Section (to be replaced)"
	modifiedHeading = "### Modified Section (to replace with)"
)

// ParseBlockReplace recognizes the second SectionEdit dialect: a path
// heading followed by paired "### Original Section (to be replaced)" /
// "### Modified Section (to replace with)" fenced blocks. The original
// block is first matched against the file verbatim modulo per-line
// indentation; failing that, the best-scoring contiguous window of file
// lines by Jaro-Winkler similarity is used if it clears
// blockReplaceSimilarityFloor.
func ParseBlockReplace(path, content string, fileLines []string) ([]DiffChunk, error) {
	pairs, err := extractSectionPairs(content)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("patch: no Original/Modified section pairs found")
	}

	var chunks []DiffChunk
	cursor := 0
	for _, p := range pairs {
		start, length, err := locateSection(p.original, fileLines[cursor:])
		if err != nil {
			return nil, fmt.Errorf("patch: %q: %w", path, err)
		}
		absStart := cursor + start // 0-based
		absEnd := absStart + length
		chunks = append(chunks, DiffChunk{
			FileName:    path,
			FileAction:  "edit",
			Line1:       absStart + 1,
			Line2:       absEnd,
			LinesRemove: joinLines(fileLines[absStart:absEnd]),
			LinesAdd:    p.modified,
		})
		cursor = absEnd
	}
	return chunks, nil
}

type sectionPair struct {
	original string
	modified string
}

// extractSectionPairs walks content for heading/fence pairs in order.
func extractSectionPairs(content string) ([]sectionPair, error) {
	lines := strings.Split(content, "\n")
	var pairs []sectionPair
	i := 0
	for i < len(lines) {
		if strings.TrimSpace(lines[i]) != originalHeading {
			i++
			continue
		}
		original, next, err := readFencedBlock(lines, i+1)
		if err != nil {
			return nil, err
		}
		i = next
		for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
			i++
		}
		if i >= len(lines) || strings.TrimSpace(lines[i]) != modifiedHeading {
			return nil, fmt.Errorf("Original Section with no matching Modified Section")
		}
		modified, next2, err := readFencedBlock(lines, i+1)
		if err != nil {
			return nil, err
		}
		i = next2
		pairs = append(pairs, sectionPair{original: original, modified: modified})
	}
	return pairs, nil
}

// readFencedBlock expects a ``` fence starting at or after `from`, and
// returns its body plus the line index just past the closing fence.
func readFencedBlock(lines []string, from int) (string, int, error) {
	i := from
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	if i >= len(lines) || !strings.HasPrefix(strings.TrimSpace(lines[i]), "```") {
		return "", 0, fmt.Errorf("expected a fenced code block after section heading")
	}
	i++
	start := i
	for i < len(lines) && !strings.HasPrefix(strings.TrimSpace(lines[i]), "```") {
		i++
	}
	if i >= len(lines) {
		return "", 0, fmt.Errorf("unterminated fenced code block")
	}
	body := strings.Join(lines[start:i], "\n")
	return body, i + 1, nil
}

// locateSection finds where `original` occurs in fileLines: first exact
// (modulo per-line indentation), then by best-scoring contiguous window
// under Jaro-Winkler similarity.
func locateSection(original string, fileLines []string) (start, length int, err error) {
	originalLines := strings.Split(original, "\n")
	length = len(originalLines)
	if length == 0 || length > len(fileLines) {
		return 0, 0, fmt.Errorf("original section is empty or longer than the remaining file")
	}

	normOriginal := normalizeBlock(original)
	for s := 0; s+length <= len(fileLines); s++ {
		window := strings.Join(fileLines[s:s+length], "\n")
		if normalizeBlock(window) == normOriginal {
			return s, length, nil
		}
	}

	bestScore := 0.0
	bestStart := -1
	for s := 0; s+length <= len(fileLines); s++ {
		window := strings.Join(fileLines[s:s+length], "\n")
		score := normalizedSimilarity(window, original)
		if score > bestScore {
			bestScore = score
			bestStart = s
		}
	}
	if bestStart < 0 || bestScore < blockReplaceSimilarityFloor {
		return 0, 0, fmt.Errorf("no file span matches the Original Section (best similarity %.2f)", bestScore)
	}
	return bestStart, length, nil
}
