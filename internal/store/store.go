// Package store persists a trained Model to disk and loads it back,
// gating compatibility on a magic/version header the way model.rs's
// Model::save/Model::load do, and performing the write as an
// atomic rename so a crash mid-save never leaves a corrupt model file
// in place (the idiom ArchGuard's own internal/index/store.go uses).
package store

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/logjuicer/logjuicer-go/internal/model"
	"github.com/logjuicer/logjuicer-go/internal/vectorizer"
)

// magic and version gate persisted model compatibility; bump version
// whenever the tokenizer or vectorizer algorithm changes, since an old
// model's vectors would no longer compare meaningfully against freshly
// tokenized lines.
const (
	magic   = "LGRD"
	version = 2
)

type header struct {
	Magic     string
	Version   int
	CreatedAt time.Time
}

type indexRecord struct {
	CreatedAt time.Time
	TrainTime time.Duration
	Sources   []model.Source
	Matrix    *vectorizer.Matrix
	LineCount int
	ByteCount int
}

type modelRecord struct {
	Header    header
	Baselines []model.Content
	Indexes   map[model.IndexName]indexRecord
}

func toRecord(m *model.Model) modelRecord {
	indexes := make(map[model.IndexName]indexRecord, len(m.Indexes))
	for name, idx := range m.Indexes {
		indexes[name] = indexRecord{
			CreatedAt: idx.CreatedAt,
			TrainTime: idx.TrainTime,
			Sources:   idx.Sources,
			Matrix:    idx.Matrix(),
			LineCount: idx.LineCount,
			ByteCount: idx.ByteCount,
		}
	}
	return modelRecord{
		Header: header{
			Magic:     magic,
			Version:   version,
			CreatedAt: m.CreatedAt,
		},
		Baselines: m.Baselines,
		Indexes:   indexes,
	}
}

func fromRecord(rec modelRecord) *model.Model {
	indexes := make(map[model.IndexName]*model.Index, len(rec.Indexes))
	for name, ir := range rec.Indexes {
		indexes[name] = model.NewTrainedIndex(ir.CreatedAt, ir.TrainTime, ir.Sources, ir.Matrix, ir.LineCount, ir.ByteCount)
	}
	return model.NewModel(rec.Header.CreatedAt, rec.Baselines, indexes)
}

// validateHeader checks the magic and version of a loaded header,
// mirroring model.rs's validate_magic/validate_version gate.
func validateHeader(h header) error {
	if h.Magic != magic {
		return fmt.Errorf("not a logjuicer model file (bad magic %q)", h.Magic)
	}
	if h.Version != version {
		return fmt.Errorf("incompatible model version %d, expected %d", h.Version, version)
	}
	return nil
}

// Save gzip+gob-encodes m and atomically replaces path with the
// result.
func Save(path string, m *model.Model) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating model directory: %w", err)
	}

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if err := gob.NewEncoder(gw).Encode(toRecord(m)); err != nil {
		return fmt.Errorf("encoding model: %w", err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("flushing model: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing model: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replacing model: %w", err)
	}
	return nil
}

// Load decodes a Model previously written by Save, rejecting a file
// with a mismatched magic or version.
func Load(path string) (*model.Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening model: %w", err)
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("opening model: %w", err)
	}
	defer gr.Close()

	var rec modelRecord
	if err := gob.NewDecoder(gr).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decoding model: %w", err)
	}
	if err := validateHeader(rec.Header); err != nil {
		return nil, err
	}
	return fromRecord(rec), nil
}

// Check validates that a model file exists, decodes cleanly, and is
// no older than maxAge (the check-model subcommand's age gate).
func Check(path string, maxAge time.Duration, now time.Time) error {
	m, err := Load(path)
	if err != nil {
		return err
	}
	if age := m.Age(now); maxAge > 0 && age > maxAge {
		return fmt.Errorf("model is %s old, older than the requested max age %s", age, maxAge)
	}
	return nil
}
