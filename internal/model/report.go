package model

import (
	"sort"
	"strings"
	"time"
)

// IndexName is the grouping key produced by the indexname deriver
// (package indexname); kept as a plain string so it works directly as
// a map key and needs no wrapper type.
type IndexName = string

// Anomaly is a single anomalous log line, with its distance to the
// nearest baseline line, its 1-based position in the source, and a
// recovered timestamp when one could be found.
type Anomaly struct {
	Distance  float32
	Pos       int
	Timestamp *int64 // epoch milliseconds, nil when unknown
	Line      string
}

// AnomalyContext pairs an Anomaly with its surrounding before/after
// raw lines (each at most CTX_LENGTH, or BETWEEN_CTX_LENGTH for the
// extended before window).
type AnomalyContext struct {
	Before  []string
	Anomaly Anomaly
	After   []string
}

// IndexReport summarizes one trained Index for presentation.
type IndexReport struct {
	TrainTime time.Duration
	Sources   []Source
}

// LogReport is the set of anomalies found in one target source.
type LogReport struct {
	TestTime  time.Duration
	Anomalies []AnomalyContext
	Source    Source
	IndexName IndexName
	LineCount int
	ByteCount int
}

// meanDistance is used only to order LogReports for presentation.
func (lr LogReport) meanDistance() float64 {
	if len(lr.Anomalies) == 0 {
		return 0
	}
	var sum float64
	for _, a := range lr.Anomalies {
		sum += float64(a.Anomaly.Distance)
	}
	return sum / float64(len(lr.Anomalies))
}

// SortLogReports orders sources whose relative path starts with
// "job-output" first, then the rest by descending mean anomaly
// distance. Matches model.rs's Model::report ordering.
func SortLogReports(reports []LogReport) []LogReport {
	sort.SliceStable(reports, func(i, j int) bool {
		ji := strings.HasPrefix(reports[i].Source.Relative(), "job-output")
		jj := strings.HasPrefix(reports[j].Source.Relative(), "job-output")
		if ji != jj {
			return ji
		}
		if ji && jj {
			return false
		}
		return reports[i].meanDistance() > reports[j].meanDistance()
	})
	return reports
}

// Report is the top-level aggregate produced by Model.Report.
type Report struct {
	CreatedAt        time.Time
	RunTime          time.Duration
	Target           string
	Baselines        []string
	LogReports       []LogReport
	IndexReports     map[IndexName]IndexReport
	IndexErrors      [][]Source
	ReadErrors       []ReadError
	TotalLineCount   int
	TotalAnomalyCount int
}

// ReadError records a source that failed to open or stream, paired
// with the error text (kept as a string so Report stays serializable).
type ReadError struct {
	Source Source
	Err    string
}
