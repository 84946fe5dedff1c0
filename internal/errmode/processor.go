package errmode

import (
	"io"

	"github.com/logjuicer/logjuicer-go/internal/lines"
	"github.com/logjuicer/logjuicer-go/internal/model"
)

const ctxLength = 3

// fixedDistance is the constant anomaly distance reported in error
// mode: there is no baseline to measure against, only whether a line
// matched the error vocabulary or completed a multi-line trace.
const fixedDistance = 0.5

// ErrorsProcessor is the alternative, model-free anomaly detector
// (§4.9's "alternate report mode"): it streams a source's lines
// through a State and anchors CTX_LENGTH before/after context around
// every standalone error line or completed multi-line trace.
type ErrorsProcessor struct {
	it     *lines.Lines
	state  *State
	before []string

	pending *model.AnomalyContext
	ready   []model.AnomalyContext

	tbLine string
	tbPos  int

	LineCount int
	ByteCount int
}

// NewErrorsProcessor creates a processor reading lines from r.
func NewErrorsProcessor(r io.Reader, isJSON bool) *ErrorsProcessor {
	return &ErrorsProcessor{
		it:    lines.New(r, isJSON),
		state: New(),
	}
}

// Next returns the next anomaly context, or ok=false once the source
// is exhausted; check Err afterward to distinguish EOF from a read
// failure.
func (p *ErrorsProcessor) Next() (model.AnomalyContext, bool, error) {
	for len(p.ready) == 0 {
		if !p.step() {
			p.flushPending()
			if len(p.ready) == 0 {
				return model.AnomalyContext{}, false, p.it.Err()
			}
			break
		}
	}
	out := p.ready[0]
	p.ready = p.ready[1:]
	return out, true, nil
}

// Err returns the first read error encountered by the wrapped lines
// iterator, if any.
func (p *ErrorsProcessor) Err() error { return p.it.Err() }

func (p *ErrorsProcessor) step() bool {
	line, ok := p.it.Next()
	if !ok {
		return false
	}
	p.LineCount++
	p.ByteCount += len(line.Bytes)
	raw := string(line.Bytes)

	if p.pending != nil {
		p.pending.After = append(p.pending.After, raw)
		if len(p.pending.After) >= ctxLength {
			p.flushPending()
		}
	}

	switch p.state.Parse(raw) {
	case Error:
		p.flushPending()
		p.pending = &model.AnomalyContext{
			Before:  append([]string{}, p.before...),
			Anomaly: model.Anomaly{Distance: fixedDistance, Pos: line.Number, Line: raw},
		}
	case NeedMore:
		if p.tbLine == "" {
			p.tbLine, p.tbPos = raw, line.Number
		}
	case CompletedTraceBack:
		p.flushPending()
		p.pending = &model.AnomalyContext{
			Before:  append([]string{}, p.before...),
			Anomaly: model.Anomaly{Distance: fixedDistance, Pos: p.tbPos, Line: p.tbLine},
		}
		p.tbLine = ""
	case NoError:
		p.tbLine = ""
	}

	p.before = append(p.before, raw)
	if len(p.before) > ctxLength {
		p.before = p.before[len(p.before)-ctxLength:]
	}
	return true
}

func (p *ErrorsProcessor) flushPending() {
	if p.pending != nil {
		p.ready = append(p.ready, *p.pending)
		p.pending = nil
	}
}
