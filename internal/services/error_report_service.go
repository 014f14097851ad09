package services

import (
	"context"
	"sort"
	"time"

	"github.com/devicewatch/backend/internal/errorgroup"
	"github.com/devicewatch/backend/internal/logger"
)

// ClusterReport describes one recurring error.
type ClusterReport struct {
	Devices         []string    `json:"devices" yaml:"devices"`
	OccurrenceCount int         `json:"occurrenceCount" yaml:"occurrence_count"`
	Timestamps      []time.Time `json:"timestamps" yaml:"timestamps"`
	FirstSeen       time.Time   `json:"firstSeen" yaml:"first_seen"`
	LastSeen        time.Time   `json:"lastSeen" yaml:"last_seen"`
	SampleLines     []string    `json:"sampleLines" yaml:"sample_lines"`
	Patterns        []string    `json:"patterns" yaml:"patterns"`
	Established     bool        `json:"established" yaml:"established"`
}

// ServiceReport lists the clusters for one service, in creation order.
type ServiceReport struct {
	Name    string          `json:"name" yaml:"name"`
	Devices []string        `json:"devices" yaml:"devices"`
	Errors  []ClusterReport `json:"errors" yaml:"errors"`
}

// Report is the clustered view of system errors in a time window.
type Report struct {
	StartTime *time.Time               `json:"startTime,omitempty" yaml:"start_time,omitempty"`
	EndTime   *time.Time               `json:"endTime,omitempty" yaml:"end_time,omitempty"`
	Processed int                      `json:"processed" yaml:"processed"`
	Skipped   int                      `json:"skipped" yaml:"skipped"`
	Services  map[string]ServiceReport `json:"services" yaml:"services"`
}

// ServiceNames returns the service names in alphabetical order.
func (r *Report) ServiceNames() []string {
	names := make([]string, 0, len(r.Services))
	for name := range r.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Empty reports whether no service had any error.
func (r *Report) Empty() bool {
	return len(r.Services) == 0
}

// ErrorSource is the part of EventService the report builder needs.
type ErrorSource interface {
	QueryErrors(ctx context.Context, query ErrorQuery) ([]errorgroup.Event, error)
}

type ErrorReportService struct {
	source  ErrorSource
	grouper *errorgroup.Grouper
	metrics *Metrics
}

// NewErrorReportService returns a report builder. metrics may be nil.
func NewErrorReportService(source ErrorSource, opts errorgroup.Options, metrics *Metrics) *ErrorReportService {
	return &ErrorReportService{
		source:  source,
		grouper: errorgroup.NewGrouper(opts),
		metrics: metrics,
	}
}

// Build queries the system errors matching query and clusters them per service.
func (s *ErrorReportService) Build(ctx context.Context, query ErrorQuery) (*Report, error) {
	start := time.Now()

	events, err := s.source.QueryErrors(ctx, query)
	if err != nil {
		return nil, err
	}

	grouped, stats := s.grouper.Group(events)
	report := &Report{
		StartTime: query.StartTime,
		EndTime:   query.EndTime,
		Processed: stats.Processed,
		Skipped:   stats.Skipped,
		Services:  make(map[string]ServiceReport, len(grouped)),
	}
	for name, group := range grouped {
		report.Services[name] = newServiceReport(group)
		logger.WithService(name).WithField("clusters", len(group.Clusters())).Debug("Grouped service errors")
	}

	if s.metrics != nil {
		s.metrics.ReportsTotal.Inc()
		s.metrics.EventsProcessed.Add(float64(stats.Processed))
		s.metrics.EventsSkipped.Add(float64(stats.Skipped))
		s.metrics.Clusters.Set(float64(stats.Clusters))
		s.metrics.BuildDuration.Observe(time.Since(start).Seconds())
	}

	logger.Info("Built system error report", map[string]interface{}{
		"events":   len(events),
		"skipped":  stats.Skipped,
		"services": len(grouped),
		"clusters": stats.Clusters,
	})
	return report, nil
}

func newServiceReport(group *errorgroup.ServiceGroup) ServiceReport {
	clusters := group.Clusters()
	out := ServiceReport{
		Name:    group.Name,
		Devices: group.Devices(),
		Errors:  make([]ClusterReport, 0, len(clusters)),
	}
	for _, c := range clusters {
		out.Errors = append(out.Errors, newClusterReport(c))
	}
	return out
}

func newClusterReport(c *errorgroup.Cluster) ClusterReport {
	patterns := c.Patterns()
	texts := make([]string, 0, len(patterns))
	for _, p := range patterns {
		texts = append(texts, p.String())
	}

	return ClusterReport{
		Devices:         c.Devices(),
		OccurrenceCount: c.Size(),
		Timestamps:      c.Timestamps(),
		FirstSeen:       c.FirstSeen(),
		LastSeen:        c.LastSeen(),
		SampleLines:     c.Sample().Lines,
		Patterns:        texts,
		Established:     c.Established(),
	}
}
