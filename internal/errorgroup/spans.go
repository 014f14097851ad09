package errorgroup

import "sort"

// rect is a half-open word index window [startA, endA) x [startB, endB).
type rect struct {
	startA, startB int
	endA, endB     int
}

func (r rect) contains(s Span) bool {
	return s.StartA >= r.startA && s.StartB >= r.startB &&
		s.EndA() <= r.endA && s.EndB() <= r.endB
}

// uniqueSpans greedily picks the longest span inside the window, then repeats on
// the windows strictly left and right of it. The chosen anchors never overlap and
// are returned left to right.
func uniqueSpans(spans []Span, lenA, lenB, minLength int) []Span {
	if len(spans) == 0 {
		return nil
	}

	var anchors []Span
	work := []rect{{endA: lenA, endB: lenB}}
	for len(work) > 0 {
		r := work[len(work)-1]
		work = work[:len(work)-1]

		if r.endA-r.startA < minLength || r.endB-r.startB < minLength {
			continue
		}

		best := -1
		for i, s := range spans {
			if !r.contains(s) {
				continue
			}
			if best == -1 || s.Length > spans[best].Length {
				best = i
			}
		}
		if best == -1 || spans[best].Length < minLength {
			continue
		}

		chosen := spans[best]
		anchors = append(anchors, chosen)
		work = append(work,
			rect{startA: r.startA, startB: r.startB, endA: chosen.StartA, endB: chosen.StartB},
			rect{startA: chosen.EndA(), startB: chosen.EndB(), endA: r.endA, endB: r.endB},
		)
	}

	// Anchors are strictly increasing on both axes, so ordering by A is left to right.
	sort.Slice(anchors, func(i, j int) bool {
		return anchors[i].StartA < anchors[j].StartA
	})
	return anchors
}

// minAnchorLength relaxes the anchor length for short lines of equal length so
// that, for example, two identical two word lines can still match.
func minAnchorLength(defaultMin, lenA, lenB int) int {
	if lenA == lenB && lenA < defaultMin {
		return lenA
	}
	return defaultMin
}
