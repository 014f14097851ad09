package errorgroup

import "time"

// Occurrence is one reported error: the log lines a device sent for a service,
// oldest line first.
type Occurrence struct {
	Device    string    `json:"device"`
	Timestamp time.Time `json:"timestamp"`
	Lines     []string  `json:"lines"`
}

// NewOccurrence copies lines so later changes by the caller cannot affect clustering.
func NewOccurrence(device string, timestamp time.Time, lines []string) *Occurrence {
	copied := make([]string, len(lines))
	copy(copied, lines)
	return &Occurrence{Device: device, Timestamp: timestamp, Lines: copied}
}

// Window returns up to size of the most recent lines, most recent first.
func (o *Occurrence) Window(size int) []string {
	n := len(o.Lines)
	if n > size {
		n = size
	}
	window := make([]string, n)
	for i := 0; i < n; i++ {
		window[i] = o.Lines[len(o.Lines)-1-i]
	}
	return window
}
