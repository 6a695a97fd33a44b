// Package exposition parses the Prometheus/OpenMetrics text exposition format
// into structured metric families.
package exposition

// MetricType is the declared type of a metric family.
type MetricType string

const (
	TypeCounter   MetricType = "counter"
	TypeGauge     MetricType = "gauge"
	TypeHistogram MetricType = "histogram"
	TypeSummary   MetricType = "summary"
	TypeUntyped   MetricType = "untyped"
)

// MetricFamily is a named group of samples sharing documentation, unit, and type.
type MetricFamily struct {
	Name    string
	Help    string
	Unit    string
	Type    MetricType
	Samples []Sample
}

// Sample is a single observed value within a family. Name carries the literal
// metric name from the sample line, which for histogram and summary families
// includes the type-specific suffix (_bucket, _count, _sum).
type Sample struct {
	Name      string
	Labels    map[string]string
	Value     float64
	Timestamp int64
	// HasTimestamp reports whether the sample line carried an explicit timestamp.
	HasTimestamp bool
}
