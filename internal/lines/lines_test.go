package lines

import (
	"strings"
	"testing"
)

func collect(t *testing.T, input string, splitJSON bool) []string {
	t.Helper()
	it := New(strings.NewReader(input), splitJSON)
	var out []string
	for {
		ln, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, string(ln.Bytes)+"|"+itoa(ln.Number))
	}
	if err := it.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return out
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	if neg {
		b = append([]byte{'-'}, b...)
	}
	return string(b)
}

func TestIterator(t *testing.T) {
	got := collect(t, "first\nsecond\nthird\nfourth\\nsub4", false)
	want := []string{"first|1", "second|2", "third|3", "fourth|4", "sub4|4"}
	assertEqualSlices(t, got, want)
}

func TestIteratorTrailingSubLine(t *testing.T) {
	got := collect(t, "first\\n", false)
	want := []string{"first|1"}
	assertEqualSlices(t, got, want)
}

func TestJSONIterator(t *testing.T) {
	got := collect(t, "[42, 43,\n {\"key\": \"value\", o:[1,2]}]", true)
	want := []string{
		"42|1",
		" 43|1",
		" |2",
		"\"key\": \"value\"|2",
		" o:|2",
		"1|2",
		"2|2",
	}
	assertEqualSlices(t, got, want)
}

func TestLineCountIgnoresSubLines(t *testing.T) {
	got := collect(t, "a\\nb\\nc\nd", false)
	want := []string{"a|1", "b|1", "c|1", "d|2"}
	assertEqualSlices(t, got, want)
}

func TestOverlongLineDiscarded(t *testing.T) {
	long := strings.Repeat("x", defaultMaxLineLength+100)
	input := long + "\nshort\n"
	got := collect(t, input, false)
	want := []string{"short|2"}
	assertEqualSlices(t, got, want)
}

func assertEqualSlices(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %v want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %q want %q (full got=%v want=%v)", i, got[i], want[i], got, want)
		}
	}
}
