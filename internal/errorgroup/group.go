// Package errorgroup clusters near-duplicate device error logs.
//
// Occurrences reported for the same service are compared line by line using word
// alignment. Lines that share enough long runs of words are considered the same,
// so logs that only differ in hostnames, ids or counters end up in one cluster.
// The package does no I/O and keeps no state between calls to Group.
package errorgroup

import "time"

// Details is the optional payload of a system error event. A nil field was absent.
type Details struct {
	UnitName *string  `json:"unitName,omitempty"`
	Logs     []string `json:"logs,omitempty"`
}

// Event is a system error event as read from the event store.
type Event struct {
	DeviceName string
	Timestamp  time.Time
	Details    Details
}

// ServiceGroup holds every cluster for one service.
type ServiceGroup struct {
	Name     string
	clusters []*Cluster
	devices  []string
	seen     map[string]struct{}
	opts     Options
}

func newServiceGroup(name string, opts Options) *ServiceGroup {
	return &ServiceGroup{
		Name: name,
		seen: make(map[string]struct{}),
		opts: opts,
	}
}

// Accept places occ in the first cluster, in creation order, that matches it,
// or starts a new cluster. It returns the cluster and whether it was created.
func (g *ServiceGroup) Accept(occ *Occurrence) (*Cluster, bool) {
	if _, ok := g.seen[occ.Device]; !ok {
		g.seen[occ.Device] = struct{}{}
		g.devices = append(g.devices, occ.Device)
	}

	for _, c := range g.clusters {
		if c.TryAdd(occ) {
			return c, false
		}
	}

	c := newCluster(occ, g.opts)
	g.clusters = append(g.clusters, c)
	return c, true
}

// Clusters returns the clusters in creation order.
func (g *ServiceGroup) Clusters() []*Cluster {
	out := make([]*Cluster, len(g.clusters))
	copy(out, g.clusters)
	return out
}

// Devices returns every device that reported into the service, in first-seen order.
func (g *ServiceGroup) Devices() []string {
	out := make([]string, len(g.devices))
	copy(out, g.devices)
	return out
}

// ServiceErrorMap maps a service name to its clusters.
type ServiceErrorMap map[string]*ServiceGroup

// Stats summarises one grouping run.
type Stats struct {
	Processed int
	Skipped   int
	Clusters  int
}

// Grouper groups events with a fixed set of thresholds. A Grouper holds no state
// between runs and may be shared between goroutines.
type Grouper struct {
	opts Options
}

// NewGrouper returns a Grouper, falling back to defaults for invalid options.
func NewGrouper(opts Options) *Grouper {
	if opts.Validate() != nil {
		opts = DefaultOptions()
	}
	return &Grouper{opts: opts}
}

// Options returns the thresholds in use.
func (gr *Grouper) Options() Options {
	return gr.opts
}

// Group clusters events per service. Events without a unit name or logs are skipped.
func (gr *Grouper) Group(events []Event) (ServiceErrorMap, Stats) {
	result := make(ServiceErrorMap)
	var stats Stats

	for _, ev := range events {
		if ev.Details.UnitName == nil || ev.Details.Logs == nil {
			stats.Skipped++
			continue
		}
		name := *ev.Details.UnitName

		group, ok := result[name]
		if !ok {
			group = newServiceGroup(name, gr.opts)
			result[name] = group
		}

		if _, created := group.Accept(NewOccurrence(ev.DeviceName, ev.Timestamp, ev.Details.Logs)); created {
			stats.Clusters++
		}
		stats.Processed++
	}
	return result, stats
}

// Group clusters events with the default thresholds.
func Group(events []Event) ServiceErrorMap {
	result, _ := NewGrouper(DefaultOptions()).Group(events)
	return result
}
