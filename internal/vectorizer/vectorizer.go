// Package vectorizer turns a canonical tokenized line into a sparse
// feature vector via the hashing trick, and assembles trained vectors
// into a CSR matrix that supports chunked cosine-distance search
// against a baseline.
package vectorizer

import (
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Size is the fixed feature-space dimension every vector hashes into.
const Size = 260000

// ChunkSize bounds how many baseline rows are scanned together during
// a search pass.
const ChunkSize = 512

// Threshold is the distance above which a line is considered an
// anomaly.
const Threshold = 0.3

// Row is a sorted, deduplicated sparse vector: Indices is strictly
// increasing, Values holds the matching signed entry for each index.
type Row struct {
	Indices []int32
	Values  []float32
}

// Vectorize hashes each space-separated sub-token of a canonical line
// into the fixed feature space, using the high bit of the hash to
// pick a +1/-1 sign (the signed hashing trick). Colliding indices keep
// the first sign seen, never summed, matching the reference
// scikit-learn HashingVectorizer behavior.
func Vectorize(line string) Row {
	words := splitSpace(line)
	type pair struct {
		idx  int32
		sign float32
	}
	pairs := make([]pair, 0, len(words))
	for _, w := range words {
		h := uint32(xxhash.Sum64String(w))
		sign := float32(-1.0)
		if h >= 1<<31 {
			sign = 1.0
		}
		pairs = append(pairs, pair{idx: int32(h % Size), sign: sign})
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].idx < pairs[j].idx })

	row := Row{}
	var last int32
	seen := false
	for _, p := range pairs {
		if seen && p.idx == last {
			continue
		}
		row.Indices = append(row.Indices, p.idx)
		row.Values = append(row.Values, p.sign)
		last = p.idx
		seen = true
	}
	return row
}

func splitSpace(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

// L2Norm returns the Euclidean norm of a row's values.
func L2Norm(values []float32) float32 {
	var sum float32
	for _, v := range values {
		sum += v * v
	}
	return float32(math.Sqrt(float64(sum)))
}

// Matrix is a row-normalized CSR sparse matrix: row r's entries are
// Cols[RowStart[r]:RowStart[r+1]] paired with Vals at the same
// offsets.
type Matrix struct {
	RowStart []int32
	Cols     []int32
	Vals     []float32
}

// Rows reports the number of rows in the matrix.
func (m *Matrix) Rows() int {
	if len(m.RowStart) == 0 {
		return 0
	}
	return len(m.RowStart) - 1
}

// Builder accumulates tokenized lines into row triplets and produces
// an L2-normalized CSR matrix on Build.
type Builder struct {
	rowIndices [][]int32
	rowValues  [][]float32
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add vectorizes and L2-normalizes a tokenized line, appending it as
// the next row. Callers are expected to have already skipped empty
// tokenized lines (§4.6).
func (b *Builder) Add(line string) {
	row := Vectorize(line)
	norm := L2Norm(row.Values)
	if norm != 0 {
		for i := range row.Values {
			row.Values[i] /= norm
		}
	}
	b.rowIndices = append(b.rowIndices, row.Indices)
	b.rowValues = append(b.rowValues, row.Values)
}

// Len returns the number of rows accumulated so far.
func (b *Builder) Len() int { return len(b.rowIndices) }

// Build assembles the accumulated rows into a CSR matrix.
func (b *Builder) Build() *Matrix {
	m := &Matrix{RowStart: make([]int32, len(b.rowIndices)+1)}
	for i, idx := range b.rowIndices {
		m.RowStart[i+1] = m.RowStart[i] + int32(len(idx))
		m.Cols = append(m.Cols, idx...)
		m.Vals = append(m.Vals, b.rowValues[i]...)
	}
	return m
}

// Search computes, for every target tokenized line, the minimum
// cosine distance to any row of the baseline matrix: 1.0 means no
// overlap at all, 0.0 means an exact match. The baseline is walked in
// row-chunks of ChunkSize to bound the amount of intermediate state
// touched at once, matching the reference implementation's chunked
// sparse matrix product.
func Search(baseline *Matrix, targets []string) []float32 {
	result := make([]float32, len(targets))
	for i := range result {
		result[i] = 1.0
	}
	if baseline == nil || baseline.Rows() == 0 {
		return result
	}

	targetMaps := make([]map[int32]float32, len(targets))
	for i, t := range targets {
		row := Vectorize(t)
		norm := L2Norm(row.Values)
		m := make(map[int32]float32, len(row.Indices))
		for j, idx := range row.Indices {
			v := row.Values[j]
			if norm != 0 {
				v /= norm
			}
			m[idx] = v
		}
		targetMaps[i] = m
	}

	rows := baseline.Rows()
	for chunkStart := 0; chunkStart < rows; chunkStart += ChunkSize {
		chunkEnd := chunkStart + ChunkSize
		if chunkEnd > rows {
			chunkEnd = rows
		}
		for r := chunkStart; r < chunkEnd; r++ {
			rs, re := baseline.RowStart[r], baseline.RowStart[r+1]
			for ti, tm := range targetMaps {
				if len(tm) == 0 {
					continue
				}
				var dot float32
				for k := rs; k < re; k++ {
					if v, ok := tm[baseline.Cols[k]]; ok {
						dot += baseline.Vals[k] * v
					}
				}
				if dist := 1.0 - dot; dist < result[ti] {
					result[ti] = dist
				}
			}
		}
	}
	return result
}
