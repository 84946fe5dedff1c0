// Package lines implements the streaming byte-lines iterator that
// feeds the tokenizer: it reads a byte stream and emits (slice,
// line-number) pairs, splitting on real newlines, literal `\n`
// two-byte sequences, and, optionally, unquoted JSON separators, all
// in constant memory.
package lines

import (
	"io"
)

const (
	defaultChunkSize     = 8192
	defaultMaxLineLength = 6000
)

type sep int

const (
	sepNewLine sep = iota // a real '\n'
	sepSubLine            // a literal two-byte '\n' (backslash, n)
	sepJSON               // an unquoted JSON separator: { } , [ ]
)

func (s sep) len() int {
	switch s {
	case sepSubLine:
		return 2
	default:
		return 1
	}
}

type state int

const (
	stateEOF state = iota
	stateScanning
)

// Line is one yielded (content, 1-based line number) pair. Content is
// a slice into the iterator's internal buffer valid only until the
// next call to Next; callers that need to retain it must copy.
type Line struct {
	Bytes  []byte
	Number int
}

// Lines streams a byte Reader into Line values.
type Lines struct {
	r   io.Reader
	err error

	buf           []byte
	state         state
	lastSep       sep
	lineCount     int
	chunkSize     int
	maxLineLength int
	splitJSON     bool
	inJSONString  bool
	prevPos       int
	escaped       bool
}

// New creates a Lines iterator over r. When splitJSON is enabled,
// unquoted `{ } , [ ]` characters act as additional sub-line
// separators, letting a single-line JSON blob be treated as multiple
// logical lines.
func New(r io.Reader, splitJSON bool) *Lines {
	return &Lines{
		r:             r,
		state:         stateScanning,
		lastSep:       sepNewLine,
		chunkSize:     defaultChunkSize,
		maxLineLength: defaultMaxLineLength,
		splitJSON:     splitJSON,
		buf:           make([]byte, 0, defaultChunkSize),
	}
}

// Err returns the first read error encountered, if any.
func (l *Lines) Err() error { return l.err }

// Next returns the next line, or ok=false when the stream is
// exhausted or an error occurred (check Err).
func (l *Lines) Next() (Line, bool) {
	if l.err != nil {
		return Line{}, false
	}
	if l.state == stateEOF {
		return Line{}, false
	}
	if len(l.buf) == 0 {
		return l.readSlice()
	}
	return l.getSlice()
}

// readSlice reads a new chunk and dispatches to getSlice.
func (l *Lines) readSlice() (Line, bool) {
	pos := len(l.buf)
	l.buf = append(l.buf, make([]byte, l.chunkSize)...)
	n, err := l.r.Read(l.buf[pos:])
	if n > 0 {
		l.buf = l.buf[:pos+n]
		return l.getSlice()
	}
	if pos > 0 {
		// EOF with left-overs: emit them as a final line.
		l.updateLineCounter(stateEOF, l.lastSep)
		out := l.buf[:pos]
		l.buf = nil
		return Line{Bytes: out, Number: l.lineCount}, true
	}
	if err != nil && err != io.EOF {
		l.err = err
	}
	return Line{}, false
}

// getSlice finds the next line in the buffer.
func (l *Lines) getSlice() (Line, bool) {
	pos, s, found := l.findNextLine()
	switch {
	case !found && len(l.buf) > l.maxLineLength:
		// The current line is over the limit and doesn't end in the
		// buffer; drop everything and keep draining until a newline.
		l.prevPos = 0
		l.buf = l.buf[:0]
		return l.dropUntilNextLine()

	case found && pos > l.maxLineLength:
		// The line is over the limit but its end is already in the
		// buffer: just advance past it.
		l.prevPos = 0
		l.buf = l.buf[pos+s.len():]
		return l.getSlice()

	case !found:
		// Need more data: remember where we stopped scanning and
		// read another chunk.
		l.prevPos = len(l.buf)
		return l.readSlice()

	default:
		l.prevPos = 0
		res := l.buf[:pos]
		l.buf = l.buf[pos+s.len():]
		if len(res) == 0 {
			return l.getSlice()
		}
		return Line{Bytes: res, Number: l.lineCount}, true
	}
}

// findNextLine scans forward from prevPos for the next separator.
func (l *Lines) findNextLine() (int, sep, bool) {
	for i := l.prevPos; i < len(l.buf); i++ {
		c := l.buf[i]
		var s sep
		haveSep := false
		switch {
		case l.escaped:
			l.escaped = false
			if c == 'n' {
				s, haveSep = sepSubLine, true
			}
		case c == '\\':
			l.escaped = true
		case c == '\n':
			s, haveSep = sepNewLine, true
		case l.splitJSON:
			if js, ok := l.matchJSON(c); ok {
				s, haveSep = js, true
			}
		}
		if haveSep {
			l.updateLineCounter(stateScanning, s)
			pos := i
			if s == sepSubLine {
				pos = i - 1
			}
			return pos, s, true
		}
	}
	return 0, 0, false
}

func (l *Lines) matchJSON(c byte) (sep, bool) {
	if c == '"' {
		l.inJSONString = !l.inJSONString
		return 0, false
	}
	if !l.inJSONString {
		switch c {
		case ',', '[', ']', '{', '}':
			return sepJSON, true
		}
	}
	return 0, false
}

// updateLineCounter increments the line count only when the previous
// separator was a real newline: sub-line and JSON splits don't count.
func (l *Lines) updateLineCounter(st state, s sep) {
	if l.state == stateScanning && l.lastSep == sepNewLine {
		l.lineCount++
	}
	l.state = st
	l.lastSep = s
}

// dropUntilNextLine discards data until a real line boundary is found,
// used to recover from an over-long line whose end isn't yet buffered.
func (l *Lines) dropUntilNextLine() (Line, bool) {
	l.buf = make([]byte, l.chunkSize)
	n, err := l.r.Read(l.buf)
	if n > 0 {
		l.buf = l.buf[:n]
		pos, s, found := l.findNextLine()
		switch {
		case found && n == l.chunkSize:
			// The separator landed exactly at a full chunk boundary:
			// treat it as unresolved and keep reading fresh chunks.
			l.buf = l.buf[:0]
			return l.readSlice()
		case found:
			l.buf = l.buf[pos+s.len():]
			return l.getSlice()
		default:
			l.buf = l.buf[:0]
			return l.dropUntilNextLine()
		}
	}
	if err != nil && err != io.EOF {
		l.err = err
	}
	return Line{}, false
}
