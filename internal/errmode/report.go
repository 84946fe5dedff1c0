package errmode

import (
	"time"

	"github.com/logjuicer/logjuicer-go/internal/model"
)

// LogReport is the set of anomalies found by error-mode in one source.
type LogReport struct {
	Source    model.Source
	Anomalies []model.AnomalyContext
	LineCount int
	ByteCount int
}

// Report is the error-mode counterpart to model.Report: it carries no
// baseline or index, only per-source error-line findings.
type Report struct {
	CreatedAt      time.Time
	RunTime        time.Duration
	Target         string
	LogReports     []LogReport
	ReadErrors     []model.ReadError
	TotalLineCount int
}

// Run enumerates every source under target and scans each with an
// ErrorsProcessor, producing a Report with no baseline comparison.
func Run(target model.Content) (*Report, error) {
	start := time.Now()
	sources, err := target.Sources()
	if err != nil {
		return nil, err
	}

	var logReports []LogReport
	var readErrors []model.ReadError
	var totalLines int

	for _, source := range sources {
		f, err := model.OpenSource(source)
		if err != nil {
			readErrors = append(readErrors, model.ReadError{Source: source, Err: err.Error()})
			continue
		}
		proc := NewErrorsProcessor(f, source.IsJSON())
		var anomalies []model.AnomalyContext
		for {
			ctx, ok, err := proc.Next()
			if err != nil {
				readErrors = append(readErrors, model.ReadError{Source: source, Err: err.Error()})
				break
			}
			if !ok {
				break
			}
			anomalies = append(anomalies, ctx)
		}
		f.Close()
		totalLines += proc.LineCount
		if len(anomalies) > 0 {
			logReports = append(logReports, LogReport{
				Source:    source,
				Anomalies: anomalies,
				LineCount: proc.LineCount,
				ByteCount: proc.ByteCount,
			})
		}
	}

	return &Report{
		CreatedAt:      time.Now(),
		RunTime:        time.Since(start),
		Target:         target.String(),
		LogReports:     logReports,
		ReadErrors:     readErrors,
		TotalLineCount: totalLines,
	}, nil
}
