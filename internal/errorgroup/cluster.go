package errorgroup

import "time"

// clusterState is either seedState or establishedState.
type clusterState interface {
	isClusterState()
}

// seedState holds the first occurrence until a second one is compared to it successfully.
type seedState struct {
	first *Occurrence
}

// establishedState holds the patterns every later occurrence is tested against.
// They are never recomputed.
type establishedState struct {
	patterns []LinePattern
}

func (seedState) isClusterState()        {}
func (establishedState) isClusterState() {}

// Cluster is a group of occurrences believed to be the same recurring error.
type Cluster struct {
	state      clusterState
	members    []*Occurrence
	devices    []string
	seen       map[string]struct{}
	timestamps []time.Time
	opts       Options
}

func newCluster(first *Occurrence, opts Options) *Cluster {
	c := &Cluster{
		state: seedState{first: first},
		seen:  make(map[string]struct{}),
		opts:  opts,
	}
	c.add(first)
	return c
}

// TryAdd adds occ to the cluster if it matches and reports whether it did.
func (c *Cluster) TryAdd(occ *Occurrence) bool {
	switch s := c.state.(type) {
	case seedState:
		patterns := derivePatterns(s.first, occ, c.opts)
		if patterns == nil {
			return false
		}
		c.state = establishedState{patterns: patterns}
	case establishedState:
		if !applyPatterns(s.patterns, occ, c.opts) {
			return false
		}
	}
	c.add(occ)
	return true
}

func (c *Cluster) add(occ *Occurrence) {
	c.members = append(c.members, occ)
	c.timestamps = append(c.timestamps, occ.Timestamp)
	if _, ok := c.seen[occ.Device]; !ok {
		c.seen[occ.Device] = struct{}{}
		c.devices = append(c.devices, occ.Device)
	}
}

// Established reports whether the cluster has fixed its patterns.
func (c *Cluster) Established() bool {
	_, ok := c.state.(establishedState)
	return ok
}

// Patterns returns the fixed patterns, or nil while the cluster is still a seed.
func (c *Cluster) Patterns() []LinePattern {
	if s, ok := c.state.(establishedState); ok {
		out := make([]LinePattern, len(s.patterns))
		copy(out, s.patterns)
		return out
	}
	return nil
}

// Size is the number of occurrences in the cluster.
func (c *Cluster) Size() int {
	return len(c.members)
}

// Devices returns the distinct devices in first-seen order.
func (c *Cluster) Devices() []string {
	out := make([]string, len(c.devices))
	copy(out, c.devices)
	return out
}

// Timestamps returns member timestamps in join order.
func (c *Cluster) Timestamps() []time.Time {
	out := make([]time.Time, len(c.timestamps))
	copy(out, c.timestamps)
	return out
}

// FirstSeen and LastSeen return the earliest and latest member timestamps.
func (c *Cluster) FirstSeen() time.Time {
	first := c.timestamps[0]
	for _, t := range c.timestamps[1:] {
		if t.Before(first) {
			first = t
		}
	}
	return first
}

func (c *Cluster) LastSeen() time.Time {
	last := c.timestamps[0]
	for _, t := range c.timestamps[1:] {
		if t.After(last) {
			last = t
		}
	}
	return last
}

// Sample is the occurrence that founded the cluster.
func (c *Cluster) Sample() *Occurrence {
	return c.members[0]
}
