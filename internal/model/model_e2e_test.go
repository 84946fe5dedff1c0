package model

import (
	"strings"
	"testing"

	"github.com/logjuicer/logjuicer-go/internal/vectorizer"
)

func trainAndReport(t *testing.T, baselineBody, targetBody string) *Report {
	t.Helper()

	cfg := DefaultTargetConfig()
	trainer := NewIndexTrainer(vectorizer.NewBuilder())
	if err := trainer.Add(cfg, strings.NewReader(baselineBody), false); err != nil {
		t.Fatalf("training: %v", err)
	}
	idx := &Index{index: &hashingIndex{matrix: trainer.Build()}}

	proc := NewChunkProcessor(strings.NewReader(targetBody), false, idx.index, false, cfg, NewKnownLines(), nil, nil)
	var anomalies []AnomalyContext
	for {
		ctx, ok, err := proc.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		anomalies = append(anomalies, ctx)
	}

	return &Report{
		LogReports: []LogReport{{
			Anomalies: anomalies,
			LineCount: proc.LineCount,
			ByteCount: proc.ByteCount,
		}},
		TotalLineCount:    proc.LineCount,
		TotalAnomalyCount: len(anomalies),
	}
}

func TestEndToEndTrainAndReportFindsNewErrorLine(t *testing.T) {
	baseline := strings.Join([]string{
		"2017-05-23 14:58:17,806 starting service worker",
		"2017-05-23 14:58:18,100 worker ready for requests",
		"2017-05-23 14:58:19,200 handled request ok",
	}, "\n") + "\n"

	target := strings.Join([]string{
		"2017-05-23 15:01:00,000 starting service worker",
		"2017-05-23 15:01:01,000 worker ready for requests",
		"2017-05-23 15:01:02,000 FATAL unexpected nil pointer dereference in handler",
		"2017-05-23 15:01:03,000 handled request ok",
	}, "\n") + "\n"

	report := trainAndReport(t, baseline, target)
	if report.TotalAnomalyCount == 0 {
		t.Fatalf("expected at least one anomaly, got none")
	}
	found := false
	for _, a := range report.LogReports[0].Anomalies {
		if strings.Contains(a.Anomaly.Line, "nil pointer dereference") {
			found = true
			if a.Anomaly.Timestamp == nil {
				t.Errorf("expected a recovered timestamp for the anomalous line")
			}
		}
	}
	if !found {
		t.Errorf("expected the injected error line to be reported as an anomaly, got %+v", report.LogReports[0].Anomalies)
	}
}

func TestEndToEndTrainAndReportNoAnomaliesOnIdenticalTarget(t *testing.T) {
	body := strings.Join([]string{
		"starting service worker",
		"worker ready for requests",
		"handled request ok",
	}, "\n") + "\n"

	report := trainAndReport(t, body, body)
	if report.TotalAnomalyCount != 0 {
		t.Fatalf("expected no anomalies when target matches baseline exactly, got %d", report.TotalAnomalyCount)
	}
}
