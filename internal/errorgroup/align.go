package errorgroup

import (
	"math"
	"strings"
)

// Span is a run of identical consecutive words shared by two lines.
type Span struct {
	StartA int
	StartB int
	Length int
}

// EndA returns the word index just past the span in the first line.
func (s Span) EndA() int {
	return s.StartA + s.Length
}

// EndB returns the word index just past the span in the second line.
func (s Span) EndB() int {
	return s.StartB + s.Length
}

// leadingMismatch reports whether the span starts a line in only one of the two lines.
func (s Span) leadingMismatch() bool {
	return (s.StartA == 0 && s.StartB > 0) || (s.StartB == 0 && s.StartA > 0)
}

// score is the percentage of a line of lineLength words covered by the span.
// Spans starting both lines get a small bonus so aligned prefixes win ties.
func (s Span) score(lineLength int) float64 {
	if lineLength == 0 {
		return 0
	}
	score := math.Round(float64(s.Length) / float64(lineLength) * 100)
	if s.StartA == 0 && s.StartB == 0 {
		score += 0.9
	}
	return score
}

// splitWords splits a log line on single spaces. Empty lines have no words.
func splitWords(line string) []string {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	return strings.Split(line, " ")
}

// align returns every maximal diagonal run of equal words between a and b,
// in the order the runs start.
func align(a, b []string) []Span {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}

	// memo[i][j] holds the index into spans of the run ending at (i, j), or -1.
	memo := make([][]int, len(a))
	for i := range memo {
		memo[i] = make([]int, len(b))
	}

	var spans []Span
	for i := range a {
		for j := range b {
			if a[i] != b[j] {
				memo[i][j] = -1
				continue
			}
			if i > 0 && j > 0 && memo[i-1][j-1] >= 0 {
				idx := memo[i-1][j-1]
				spans[idx].Length++
				memo[i][j] = idx
				continue
			}
			spans = append(spans, Span{StartA: i, StartB: j, Length: 1})
			memo[i][j] = len(spans) - 1
		}
	}
	return spans
}
