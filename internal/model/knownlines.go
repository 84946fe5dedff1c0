package model

// KnownLines is a dedup set of canonical tokenized lines, used to
// avoid searching the same unique line twice within one source
// (local) or, optionally, across an entire target corpus (global,
// invariant I5).
type KnownLines struct {
	seen map[string]struct{}
}

// NewKnownLines returns an empty dedup set.
func NewKnownLines() *KnownLines {
	return &KnownLines{seen: make(map[string]struct{})}
}

// Insert records tokens as seen, returning true the first time a
// given value is inserted and false on every subsequent call.
func (k *KnownLines) Insert(tokens string) bool {
	if _, ok := k.seen[tokens]; ok {
		return false
	}
	k.seen[tokens] = struct{}{}
	return true
}

// Len reports how many distinct tokenized lines have been seen.
func (k *KnownLines) Len() int { return len(k.seen) }
