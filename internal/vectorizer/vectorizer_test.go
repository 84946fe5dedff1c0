package vectorizer

import (
	"math"
	"testing"
)

func buildOne(line string) *Matrix {
	b := NewBuilder()
	b.Add(line)
	return b.Build()
}

func approxEqual(t *testing.T, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("got %v, want %v (tol %v)", got, want, tol)
	}
}

func TestVectorizeL2Norm(t *testing.T) {
	row := Vectorize("the first test is the 42")
	norm := L2Norm(row.Values)
	if norm == 0 {
		t.Fatal("expected non-zero norm for a non-empty line")
	}
}

func TestSearchIdenticalLineIsZeroDistance(t *testing.T) {
	baseline := buildOne("the second line")
	distances := Search(baseline, []string{"the second line"})
	approxEqual(t, float64(distances[0]), 0.0, 1e-5)
}

func TestSearchUnrelatedLineIsFarther(t *testing.T) {
	m := NewBuilder()
	for _, line := range []string{
		"the first line",
		"the second line",
		"the third line is a warning",
	} {
		m.Add(line)
	}
	baseline := m.Build()
	distances := Search(baseline, []string{"a new error", "the second line"})
	if distances[0] <= 0.6 {
		t.Fatalf("expected an unrelated line to be far from baseline, got %v", distances[0])
	}
	approxEqual(t, float64(distances[1]), 0.0, 1e-5)
}

func TestDedupKeepsFirstSignNotSum(t *testing.T) {
	row := Vectorize("abc abc")
	for i := range row.Indices {
		if row.Values[i] != 1 && row.Values[i] != -1 {
			t.Fatalf("expected a sign of +-1, never a summed value, got %v", row.Values[i])
		}
	}
}

func TestBuilderRowIsUnitNorm(t *testing.T) {
	m := buildOne("the first line is reasonably long so it has several tokens")
	if m.Rows() != 1 {
		t.Fatalf("expected 1 row, got %d", m.Rows())
	}
	var sum float64
	for _, v := range m.Vals {
		sum += float64(v) * float64(v)
	}
	approxEqual(t, math.Sqrt(sum), 1.0, 1e-4)
}

func TestSearchChunksAcrossManyBaselineRows(t *testing.T) {
	b := NewBuilder()
	for i := 0; i < ChunkSize*2+37; i++ {
		b.Add("a filler baseline line repeated many times over")
	}
	b.Add("the unique needle line to find")
	baseline := b.Build()
	distances := Search(baseline, []string{"the unique needle line to find"})
	approxEqual(t, float64(distances[0]), 0.0, 1e-5)
}
