// Package model implements the grouping, training, and reporting
// layer: it enumerates sources out of a Content, groups them by
// IndexName, trains one hashing-trick index per group, and runs the
// chunk processor over target sources to produce a Report.
package model

import (
	"fmt"
	"time"

	"github.com/logjuicer/logjuicer-go/internal/vectorizer"
)

// ChunkIndex is the trained search surface a ChunkProcessor queries:
// given a batch of canonical tokenized lines, return their distance
// to the nearest baseline line.
type ChunkIndex interface {
	Distance(targets []string) []float32
}

// hashingIndex is the production ChunkIndex: a single L2-normalized
// CSR matrix built by an IndexTrainer over every source in an
// IndexName group.
type hashingIndex struct {
	matrix *vectorizer.Matrix
}

func (h *hashingIndex) Distance(targets []string) []float32 {
	return vectorizer.Search(h.matrix, targets)
}

// noopIndex is a ChunkIndex that reports every line as identical to
// the baseline (distance 0). Used by processor tests that need a
// deterministic index without actually training one.
type noopIndex struct{}

func (noopIndex) Distance(targets []string) []float32 {
	return make([]float32, len(targets))
}

// Index is one trained group: every Source sharing an IndexName,
// folded into a single ChunkIndex.
type Index struct {
	CreatedAt time.Time
	TrainTime time.Duration
	Sources   []Source
	index     ChunkIndex
	LineCount int
	ByteCount int
}

// ToReport summarizes an Index for presentation.
func (idx *Index) ToReport() IndexReport {
	return IndexReport{TrainTime: idx.TrainTime, Sources: idx.Sources}
}

// Matrix exposes the trained hashing-trick matrix backing this Index,
// for persistence (internal/store) and inspection. Returns nil for a
// noop index, which is never persisted.
func (idx *Index) Matrix() *vectorizer.Matrix {
	if h, ok := idx.index.(*hashingIndex); ok {
		return h.matrix
	}
	return nil
}

// NewTrainedIndex rebuilds an Index around an already-trained matrix,
// used by internal/store when loading a persisted Model back into
// memory.
func NewTrainedIndex(createdAt time.Time, trainTime time.Duration, sources []Source, matrix *vectorizer.Matrix, lineCount, byteCount int) *Index {
	return &Index{
		CreatedAt: createdAt,
		TrainTime: trainTime,
		Sources:   sources,
		index:     &hashingIndex{matrix: matrix},
		LineCount: lineCount,
		ByteCount: byteCount,
	}
}

// NewModel assembles a Model from its persisted fields, used by
// internal/store when loading.
func NewModel(createdAt time.Time, baselines []Content, indexes map[IndexName]*Index) *Model {
	return &Model{CreatedAt: createdAt, Baselines: baselines, Indexes: indexes}
}

// TrainIndex trains a single Index over every source of one IndexName
// group.
func TrainIndex(config *TargetConfig, sources []Source) (*Index, error) {
	createdAt := time.Now()
	start := time.Now()
	trainer := NewIndexTrainer(vectorizer.NewBuilder())
	for _, source := range sources {
		f, err := openSource(source)
		if err != nil {
			continue // training tolerates per-source read failures
		}
		err = trainer.Add(config, f, source.IsJSON())
		f.Close()
		if err != nil {
			continue
		}
	}
	return &Index{
		CreatedAt: createdAt,
		TrainTime: time.Since(start),
		Sources:   append([]Source{}, sources...),
		index:     &hashingIndex{matrix: trainer.Build()},
		LineCount: trainer.LineCount,
		ByteCount: trainer.ByteCount,
	}, nil
}

// Model is an immutable archive of baselines used to search anomalies
// in a target.
type Model struct {
	CreatedAt time.Time
	Baselines []Content
	Indexes   map[IndexName]*Index
}

// Train builds a Model from a set of baseline Contents: every source
// is enumerated, filtered by config, grouped by IndexName, and one
// Index is trained per group.
func Train(config *TargetConfig, baselines []Content) (*Model, error) {
	groups, err := GroupSources(baselines, config.IsSourceValid)
	if err != nil {
		return nil, err
	}
	indexes := make(map[IndexName]*Index, len(groups))
	for name, sources := range groups {
		idx, err := TrainIndex(config, sources)
		if err != nil {
			return nil, fmt.Errorf("training index %s: %w", name, err)
		}
		indexes[name] = idx
	}
	return &Model{CreatedAt: time.Now(), Baselines: baselines, Indexes: indexes}, nil
}

// GetIndex returns the matching index for a given IndexName, falling
// back to the sole trained index when the model has exactly one
// (lookup_or_single in the original, used for 1-vs-1 diff).
func (m *Model) GetIndex(name IndexName) (*Index, bool) {
	if idx, ok := m.Indexes[name]; ok {
		return idx, true
	}
	if len(m.Indexes) == 1 {
		for _, idx := range m.Indexes {
			return idx, true
		}
	}
	return nil, false
}

// Age reports how long ago this Model was created, relative to now.
func (m *Model) Age(now time.Time) time.Duration {
	return now.Sub(m.CreatedAt)
}

// Report runs the chunk processor over every source of target,
// grouping by IndexName and looking up the matching trained Index,
// and assembles the aggregate Report.
func (m *Model) Report(config *TargetConfig, target Content) (*Report, error) {
	start := time.Now()
	createdAt := time.Now()

	groups, err := GroupSources([]Content{target}, config.IsSourceValid)
	if err != nil {
		return nil, err
	}

	var logReports []LogReport
	var indexErrors [][]Source
	var readErrors []ReadError
	indexReports := make(map[IndexName]IndexReport)
	var totalLines, totalAnomalies int

	for name, sources := range groups {
		index, ok := m.GetIndex(name)
		if !ok {
			indexErrors = append(indexErrors, sources)
			continue
		}
		skipLines := NewKnownLines()
		for _, source := range sources {
			sourceStart := time.Now()
			f, err := openSource(source)
			if err != nil {
				readErrors = append(readErrors, ReadError{Source: source, Err: err.Error()})
				continue
			}
			proc := NewChunkProcessor(f, source.IsJSON(), index.index, isJobOutputFor(source), config, skipLines, nil, nil)
			var anomalies []AnomalyContext
			for {
				ctx, ok, err := proc.Next()
				if err != nil {
					readErrors = append(readErrors, ReadError{Source: source, Err: err.Error()})
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
				totalAnomalies += len(anomalies)
				if _, ok := indexReports[name]; !ok {
					indexReports[name] = index.ToReport()
				}
				logReports = append(logReports, LogReport{
					TestTime:  time.Since(sourceStart),
					Anomalies: anomalies,
					Source:    source,
					IndexName: name,
					LineCount: proc.LineCount,
					ByteCount: proc.ByteCount,
				})
			}
		}
	}

	baselineNames := make([]string, 0, len(m.Baselines))
	for _, b := range m.Baselines {
		baselineNames = append(baselineNames, b.String())
	}

	return &Report{
		CreatedAt:         createdAt,
		RunTime:           time.Since(start),
		Target:            target.String(),
		Baselines:         baselineNames,
		LogReports:        SortLogReports(logReports),
		IndexReports:      indexReports,
		IndexErrors:       indexErrors,
		ReadErrors:        readErrors,
		TotalLineCount:    totalLines,
		TotalAnomalyCount: totalAnomalies,
	}, nil
}
