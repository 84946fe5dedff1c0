package model

import (
	"fmt"
	"io"

	"github.com/logjuicer/logjuicer-go/internal/lines"
	"github.com/logjuicer/logjuicer-go/internal/tokenizer"
	"github.com/logjuicer/logjuicer-go/internal/vectorizer"
)

// IndexTrainer streams one or more baseline readers through the
// lines/tokenizer/vectorizer pipeline into a single builder,
// deduplicating identical tokenized lines as it goes (§4.6).
type IndexTrainer struct {
	builder   *vectorizer.Builder
	skipLines *KnownLines
	LineCount int
	ByteCount int
}

// NewIndexTrainer returns a trainer that accumulates into builder.
func NewIndexTrainer(builder *vectorizer.Builder) *IndexTrainer {
	return &IndexTrainer{builder: builder, skipLines: NewKnownLines()}
}

// TrainSingle trains a fresh builder from one reader and returns the
// built matrix; a convenience wrapper around NewIndexTrainer+Add+Build.
func TrainSingle(isJSON bool, config *TargetConfig, r io.Reader) (*vectorizer.Matrix, error) {
	trainer := NewIndexTrainer(vectorizer.NewBuilder())
	if err := trainer.Add(config, r, isJSON); err != nil {
		return nil, err
	}
	return trainer.Build(), nil
}

// Add streams one reader's lines through tokenization and dedup into
// the trainer's builder.
func (t *IndexTrainer) Add(config *TargetConfig, r io.Reader, isJSON bool) error {
	it := lines.New(r, isJSON)
	for {
		line, ok := it.Next()
		if !ok {
			break
		}
		raw := string(line.Bytes)
		t.LineCount++
		t.ByteCount += len(line.Bytes)

		if config != nil && config.IsIgnoredLine(raw) {
			continue
		}

		tokens := tokenizer.Process(raw)
		if tokens == "" {
			continue
		}
		if t.skipLines.Insert(tokens) {
			t.builder.Add(tokens)
		}
	}
	if err := it.Err(); err != nil {
		return fmt.Errorf("reading source: %w", err)
	}
	return nil
}

// Build finalizes the accumulated matrix.
func (t *IndexTrainer) Build() *vectorizer.Matrix {
	return t.builder.Build()
}
