package errorgroup

import "fmt"

const (
	// DefaultLinesCheck is how many of the most recent lines of a log are compared.
	DefaultLinesCheck = 5
	// DefaultMinMatchLength is the minimum number of words in an anchor.
	DefaultMinMatchLength = 3
	// DefaultMatchMinCoverage is the coverage score a line must exceed to match.
	DefaultMatchMinCoverage = 60
	// DefaultMatchMinLines is how many lines must match out of the compared window.
	DefaultMatchMinLines = 2
)

// Options tunes the matching thresholds used by the engine.
type Options struct {
	LinesCheck       int     `yaml:"lines_check" json:"linesCheck"`
	MinMatchLength   int     `yaml:"min_match_length" json:"minMatchLength"`
	MatchMinCoverage float64 `yaml:"match_min_coverage" json:"matchMinCoverage"`
	MatchMinLines    int     `yaml:"match_min_lines" json:"matchMinLines"`
}

// DefaultOptions returns the thresholds used for the daily service error digest.
func DefaultOptions() Options {
	return Options{
		LinesCheck:       DefaultLinesCheck,
		MinMatchLength:   DefaultMinMatchLength,
		MatchMinCoverage: DefaultMatchMinCoverage,
		MatchMinLines:    DefaultMatchMinLines,
	}
}

// Validate reports the first out of range threshold.
func (o Options) Validate() error {
	if o.LinesCheck < 1 {
		return fmt.Errorf("lines_check must be at least 1, got %d", o.LinesCheck)
	}
	if o.MinMatchLength < 1 {
		return fmt.Errorf("min_match_length must be at least 1, got %d", o.MinMatchLength)
	}
	if o.MatchMinCoverage < 0 || o.MatchMinCoverage > 100 {
		return fmt.Errorf("match_min_coverage must be between 0 and 100, got %v", o.MatchMinCoverage)
	}
	if o.MatchMinLines < 1 || o.MatchMinLines > o.LinesCheck {
		return fmt.Errorf("match_min_lines must be between 1 and lines_check (%d), got %d", o.LinesCheck, o.MatchMinLines)
	}
	return nil
}
