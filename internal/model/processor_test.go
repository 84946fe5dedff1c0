package model

import (
	"strings"
	"testing"

	"github.com/logjuicer/logjuicer-go/internal/vectorizer"
)

// containsIndex is a ChunkIndex stand-in that reports distance 1.0 for
// any target containing needle, 0.0 otherwise.
type containsIndex struct {
	needle string
}

func (c containsIndex) Distance(targets []string) []float32 {
	out := make([]float32, len(targets))
	for i, t := range targets {
		if strings.Contains(t, c.needle) {
			out[i] = 1.0
		}
	}
	return out
}

func collectAll(t *testing.T, proc *ChunkProcessor) []AnomalyContext {
	t.Helper()
	var out []AnomalyContext
	for {
		ctx, ok, err := proc.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		out = append(out, ctx)
	}
	return out
}

func TestChunkProcessorFindsSingleAnomalyWithContext(t *testing.T) {
	body := strings.Join([]string{
		"line one is normal",
		"line two is normal",
		"line three is normal",
		"this is a weirdglitch event",
		"line five is normal",
		"line six is normal",
		"line seven is normal",
	}, "\n") + "\n"

	proc := NewChunkProcessor(strings.NewReader(body), false, containsIndex{needle: "weirdglitch"}, false, nil, nil, nil, nil)
	anomalies := collectAll(t, proc)

	if len(anomalies) != 1 {
		t.Fatalf("expected 1 anomaly, got %d", len(anomalies))
	}
	a := anomalies[0]
	if a.Anomaly.Pos != 4 {
		t.Errorf("expected pos 4, got %d", a.Anomaly.Pos)
	}
	if a.Anomaly.Distance != 1.0 {
		t.Errorf("expected distance 1.0, got %v", a.Anomaly.Distance)
	}
	if len(a.Before) != ctxLength {
		t.Errorf("expected %d before lines, got %d: %v", ctxLength, len(a.Before), a.Before)
	}
	if len(a.After) != ctxLength {
		t.Errorf("expected %d after lines, got %d: %v", ctxLength, len(a.After), a.After)
	}
	if a.Before[len(a.Before)-1] != "line three is normal" {
		t.Errorf("unexpected last before line: %q", a.Before[len(a.Before)-1])
	}
	if a.After[0] != "line five is normal" {
		t.Errorf("unexpected first after line: %q", a.After[0])
	}
}

func TestChunkProcessorExtendedBeforeContext(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString("normal filler line\n")
	}
	b.WriteString("first weirdglitch event\n")
	for i := 0; i < 20; i++ {
		b.WriteString("normal filler line\n")
	}
	b.WriteString("second weirdglitch event\n")
	for i := 0; i < 5; i++ {
		b.WriteString("normal filler line\n")
	}

	proc := NewChunkProcessor(strings.NewReader(b.String()), false, containsIndex{needle: "weirdglitch"}, false, nil, nil, nil, nil)
	anomalies := collectAll(t, proc)
	if len(anomalies) != 2 {
		t.Fatalf("expected 2 anomalies, got %d", len(anomalies))
	}
	// The second anomaly's before-context must not abut the first
	// anomaly's after-context (I4): since there's plenty of filler in
	// between, it should fall back to the normal CTX_LENGTH window.
	if len(anomalies[1].Before) != ctxLength {
		t.Errorf("expected %d before lines on second anomaly, got %d", ctxLength, len(anomalies[1].Before))
	}
}

func TestChunkProcessorNoAnomalies(t *testing.T) {
	body := "all normal\nall normal\nall normal\n"
	proc := NewChunkProcessor(strings.NewReader(body), false, containsIndex{needle: "never-matches"}, false, nil, nil, nil, nil)
	anomalies := collectAll(t, proc)
	if len(anomalies) != 0 {
		t.Fatalf("expected no anomalies, got %d", len(anomalies))
	}
	if proc.LineCount != 3 {
		t.Errorf("expected LineCount 3, got %d", proc.LineCount)
	}
}

func TestChunkProcessorJobOutputStopsAtLogjuicerTask(t *testing.T) {
	body := strings.Join([]string{
		"line one is normal",
		"this is a weirdglitch event",
		"TASK [run-logjuicer : report]",
		"this is a weirdglitch event that should be ignored",
	}, "\n") + "\n"

	proc := NewChunkProcessor(strings.NewReader(body), false, containsIndex{needle: "weirdglitch"}, true, nil, nil, nil, nil)
	anomalies := collectAll(t, proc)
	if len(anomalies) != 1 {
		t.Fatalf("expected 1 anomaly before the stop marker, got %d", len(anomalies))
	}
}

func TestChunkProcessorLocalDedupSkipsRepeatedLine(t *testing.T) {
	body := strings.Join([]string{
		"this is a weirdglitch event",
		"this is a weirdglitch event",
		"this is a weirdglitch event",
	}, "\n") + "\n"

	skip := NewKnownLines()
	proc := NewChunkProcessor(strings.NewReader(body), false, containsIndex{needle: "weirdglitch"}, false, nil, skip, nil, nil)
	anomalies := collectAll(t, proc)
	if len(anomalies) != 1 {
		t.Fatalf("expected only the first occurrence to be searched, got %d anomalies", len(anomalies))
	}
}

func TestChunkProcessorUsesVectorizerThresholdBoundary(t *testing.T) {
	// A ChunkIndex reporting exactly the threshold distance is not an
	// anomaly; the comparison is strict (>).
	idx := fixedDistanceIndex{d: vectorizer.Threshold}
	body := "some line\nanother line\n"
	proc := NewChunkProcessor(strings.NewReader(body), false, idx, false, nil, nil, nil, nil)
	anomalies := collectAll(t, proc)
	if len(anomalies) != 0 {
		t.Fatalf("expected no anomalies at the threshold boundary, got %d", len(anomalies))
	}
}

type fixedDistanceIndex struct{ d float32 }

func (f fixedDistanceIndex) Distance(targets []string) []float32 {
	out := make([]float32, len(targets))
	for i := range out {
		out[i] = f.d
	}
	return out
}
