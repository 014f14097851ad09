package errorgroup

import "strings"

// LinePattern is the skeleton of one matched log line: the literal anchor texts
// that every later line must contain, in order.
type LinePattern struct {
	Anchors []string `json:"anchors"`
	// Index is the position of the line in the window it was derived from.
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

func newLinePattern(anchors []Span, words []string, score float64, index int) LinePattern {
	texts := make([]string, 0, len(anchors))
	for _, a := range anchors {
		texts = append(texts, strings.Join(words[a.StartA:a.EndA()], " "))
	}
	return LinePattern{Anchors: texts, Index: index, Score: score}
}

// Matches reports whether line contains every anchor in order. Anchors need not be
// adjacent; each search starts just after the previous anchor.
func (p LinePattern) Matches(line string) bool {
	rest := line
	for _, anchor := range p.Anchors {
		idx := strings.Index(rest, anchor)
		if idx == -1 {
			return false
		}
		rest = rest[idx+len(anchor):]
	}
	return true
}

// String joins the anchors with a wildcard marker, for display.
func (p LinePattern) String() string {
	return strings.Join(p.Anchors, " ... ")
}

// lineScore aligns two lines and returns the coverage score of the first line
// together with the anchors that produced it.
func lineScore(wordsA, wordsB []string, minMatchLength int) (float64, []Span) {
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0, nil
	}

	minLength := minAnchorLength(minMatchLength, len(wordsA), len(wordsB))
	anchors := uniqueSpans(align(wordsA, wordsB), len(wordsA), len(wordsB), minLength)

	var score float64
	for _, a := range anchors {
		// A line that starts with the shared text in only one of the two logs
		// is a different message.
		if a.leadingMismatch() {
			return 0, anchors
		}
		score += a.score(len(wordsA))
	}
	return score, anchors
}

// derivePatterns compares two occurrences line by line and returns the patterns
// of the lines that matched, or nil when too few lines matched.
func derivePatterns(a, b *Occurrence, opts Options) []LinePattern {
	if len(a.Lines) == 0 || len(b.Lines) == 0 {
		return nil
	}

	windowA := a.Window(opts.LinesCheck)
	windowB := b.Window(opts.LinesCheck)

	var patterns []LinePattern
	otherIndex := 0
	for i, line := range windowA {
		words := splitWords(line)
		for j := otherIndex; j < len(windowB); j++ {
			score, anchors := lineScore(words, splitWords(windowB[j]), opts.MinMatchLength)
			if score > opts.MatchMinCoverage {
				patterns = append(patterns, newLinePattern(anchors, words, score, i))
				otherIndex = j + 1
				break
			}
		}
	}

	if len(a.Lines) == len(b.Lines) && len(patterns) == len(a.Lines) {
		return patterns
	}
	if len(patterns) >= opts.MatchMinLines {
		return patterns
	}
	return nil
}

// applyPatterns reports whether an occurrence satisfies a cluster's fixed patterns.
func applyPatterns(patterns []LinePattern, occ *Occurrence, opts Options) bool {
	if len(occ.Lines) == 0 {
		return false
	}

	window := occ.Window(opts.LinesCheck)
	matches := 0
	otherIndex := 0
	for _, p := range patterns {
		for j := otherIndex; j < len(window); j++ {
			if p.Matches(window[j]) {
				matches++
				otherIndex = j + 1
				break
			}
		}
	}

	if len(occ.Lines) == len(patterns) && matches == len(occ.Lines) {
		return true
	}
	return matches >= opts.MatchMinLines
}
