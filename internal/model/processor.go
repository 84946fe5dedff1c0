package model

import (
	"io"

	"github.com/logjuicer/logjuicer-go/internal/lines"
	"github.com/logjuicer/logjuicer-go/internal/log"
	"github.com/logjuicer/logjuicer-go/internal/tokenizer"
	"github.com/logjuicer/logjuicer-go/internal/vectorizer"
)

var procLogger = log.FromEnv("MODEL")

const (
	ctxLength        = 3
	betweenCtxLength = 12
	chunkSize        = 512
)

type bufLine struct {
	raw   string
	coord int
}

// lastTSState tracks the most recent recovered timestamp so a
// time-of-day-only match can be anchored to a date, and so that a
// source with no timestamps at all stops paying for the lookup after
// 42 lines.
type lastTSState struct {
	missing bool
	epoch   *int64
	pos     int
}

// ChunkProcessor streams a target source through the tokenizer, batches
// unique tokenized lines in chunks of ChunkSize, searches them against
// a trained ChunkIndex, and reattaches distances to the original raw
// lines with before/after context (§4.7).
type ChunkProcessor struct {
	it    *lines.Lines
	index ChunkIndex

	config      *TargetConfig
	isJobOutput bool

	buffer       []bufLine
	targets      []string
	targetsCoord []int
	leftOvers    []string

	currentAnomaly *AnomalyContext
	ready          []AnomalyContext

	skipLines *KnownLines
	global    *KnownLines

	coord int

	LineCount int
	ByteCount int

	glDate *int64
	lastTS lastTSState
}

// NewChunkProcessor builds a processor reading from r. skipLines is
// the per-source dedup set (pass nil to process every line, never
// deduplicating); global is an optional cross-source dedup set shared
// across a report run. glDate anchors time-of-day-only timestamps when
// the target has one known full date already (used for the web
// service's live-tail mode; nil for standalone reports).
func NewChunkProcessor(r io.Reader, isJSON bool, index ChunkIndex, isJobOutput bool, config *TargetConfig, skipLines, global *KnownLines, glDate *int64) *ChunkProcessor {
	return &ChunkProcessor{
		it:          lines.New(r, isJSON),
		index:       index,
		config:      config,
		isJobOutput: isJobOutput,
		skipLines:   skipLines,
		global:      global,
		glDate:      glDate,
	}
}

// Next returns the next AnomalyContext, or ok=false once the source is
// exhausted.
func (p *ChunkProcessor) Next() (AnomalyContext, bool, error) {
	for {
		if len(p.ready) > 0 {
			a := p.ready[0]
			p.ready = p.ready[1:]
			return a, true, nil
		}
		if err := p.readAnomalies(); err != nil {
			return AnomalyContext{}, false, err
		}
		if len(p.ready) == 0 {
			return AnomalyContext{}, false, nil
		}
	}
}

func (p *ChunkProcessor) readAnomalies() error {
	for {
		line, ok := p.it.Next()
		if !ok {
			break
		}
		raw := string(line.Bytes)
		p.LineCount++
		p.ByteCount += len(line.Bytes)
		p.coord++

		if p.isJobOutput && contains(raw, "TASK [run-logjuicer") {
			break
		}

		if p.config != nil && p.config.IsIgnoredLine(raw) {
			continue
		}

		tokens := tokenizer.Process(raw)
		p.buffer = append(p.buffer, bufLine{raw: raw, coord: p.coord})

		processLine := true
		if p.skipLines != nil {
			processLine = p.skipLines.Insert(tokens)
		}

		if processLine {
			p.targets = append(p.targets, tokens)
			p.targetsCoord = append(p.targetsCoord, p.coord)
			if len(p.targets) == chunkSize {
				p.doSearchAnomalies()
				if len(p.ready) > 0 {
					return nil
				}
			}
		} else if len(p.buffer) > chunkSize*10 {
			p.doSearchAnomalies()
			if len(p.ready) > 0 {
				return nil
			}
		}
	}
	if err := p.it.Err(); err != nil {
		return err
	}

	if len(p.targets) > 0 {
		p.doSearchAnomalies()
	}
	if p.currentAnomaly != nil {
		p.ready = append(p.ready, *p.currentAnomaly)
		p.currentAnomaly = nil
	}
	return nil
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

func (p *ChunkProcessor) doSearchAnomalies() {
	distances := p.index.Distance(p.targets)

	bufferPos := 0
	lastContextPos := 0

	for ti, distance := range distances {
		coord := p.targetsCoord[ti]
		isAnomaly := distance > vectorizer.Threshold

		var targetRaw string
		var targetPos int
		found := false

		for bufferPos < len(p.buffer) {
			entry := p.buffer[bufferPos]
			bufferPos++
			foundHere := entry.coord == coord

			if foundHere && isAnomaly {
				targetRaw = entry.raw
				targetPos = entry.coord
				found = true
			} else if p.currentAnomaly != nil {
				p.currentAnomaly.After = append(p.currentAnomaly.After, entry.raw)
				if len(p.currentAnomaly.After) >= ctxLength {
					p.ready = append(p.ready, *p.currentAnomaly)
					p.currentAnomaly = nil
				}
				lastContextPos = bufferPos
			}
			if foundHere {
				break
			}
		}

		if found {
			if p.currentAnomaly != nil {
				p.ready = append(p.ready, *p.currentAnomaly)
				p.currentAnomaly = nil
			}

			if p.global != nil && !p.global.Insert(p.targets[ti]) {
				continue
			}

			timestamp := p.getTimestamp(targetRaw, bufferPos)
			if p.lastTS.epoch == nil && !p.lastTS.missing && timestamp == nil && targetPos > 42 {
				p.lastTS = lastTSState{missing: true}
			} else {
				p.lastTS = lastTSState{epoch: timestamp, pos: targetPos}
			}

			before := collectBefore(bufferPos-1, lastContextPos, p.buffer, p.leftOvers)
			lastContextPos = bufferPos

			p.currentAnomaly = &AnomalyContext{
				Before: before,
				After:  nil,
				Anomaly: Anomaly{
					Distance:  distance,
					Pos:       targetPos,
					Timestamp: timestamp,
					Line:      targetRaw,
				},
			}
		}
		if isAnomaly && !found {
			// A desync between targets and buffer: the Rust original
			// treats this as a programming bug and aborts (§7). A
			// library has no business taking down its caller's
			// process over it, so this logs loudly and drops the
			// anomaly instead of panicking.
			procLogger.Errorf("target coord %d (distance %v) has no matching buffer entry; dropping anomaly", coord, distance)
		}
	}

	if p.currentAnomaly != nil && lastContextPos < len(p.buffer) {
		for _, entry := range p.buffer[lastContextPos:] {
			p.currentAnomaly.After = append(p.currentAnomaly.After, entry.raw)
			if len(p.currentAnomaly.After) >= ctxLength {
				p.ready = append(p.ready, *p.currentAnomaly)
				p.currentAnomaly = nil
				break
			}
		}
	}

	p.reset(lastContextPos)
}

func (p *ChunkProcessor) reset(leftOversPos int) {
	p.targets = p.targets[:0]
	p.targetsCoord = p.targetsCoord[:0]

	minLeftOversPos := 0
	if len(p.buffer) >= betweenCtxLength {
		minLeftOversPos = len(p.buffer) - betweenCtxLength
	}
	maxLeftOversPos := leftOversPos
	if minLeftOversPos > maxLeftOversPos {
		maxLeftOversPos = minLeftOversPos
	}

	p.leftOvers = make([]string, 0, len(p.buffer)-maxLeftOversPos)
	for _, e := range p.buffer[maxLeftOversPos:] {
		p.leftOvers = append(p.leftOvers, e.raw)
	}
	p.buffer = p.buffer[:0]
}

// collectBefore builds the before-context window from the current
// buffer and the previous chunk's left-overs, extending the window to
// BETWEEN_CTX_LENGTH when it would otherwise abut the previous
// anomaly's after-context (I4).
func collectBefore(bufferPos, lastContextPos int, buffer []bufLine, leftOvers []string) []string {
	ctxDistance := ctxLength
	if bufferPos-lastContextPos < betweenCtxLength {
		ctxDistance = betweenCtxLength
	}
	minPos := bufferPos - ctxDistance
	if minPos < 0 {
		minPos = 0
	}
	beforeContextPos := lastContextPos
	if minPos > beforeContextPos {
		beforeContextPos = minPos
	}

	before := make([]string, 0, bufferPos-beforeContextPos)
	for _, e := range buffer[beforeContextPos:bufferPos] {
		before = append(before, e.raw)
	}

	if beforeContextPos == 0 && len(before) < ctxDistance {
		need := ctxDistance - len(before)
		want := need
		if len(leftOvers) < want {
			want = len(leftOvers)
		}
		extra := append([]string{}, leftOvers[len(leftOvers)-want:]...)
		before = append(extra, before...)
	}
	return before
}

// getTimestamp recovers a full epoch timestamp for a raw line,
// falling back to the closest previously-seen timestamp in the
// buffer when the line itself carries no date, and to glDate to
// anchor a bare time-of-day.
func (p *ChunkProcessor) getTimestamp(logLine string, bufferPos int) *int64 {
	if p.lastTS.missing {
		return nil
	}
	ts, ok := ParseTimestamp(logLine)
	if !ok {
		ts, ok = p.getClosestTimestamp(0, bufferPos, p.lastTS.pos)
	}
	if !ok {
		return nil
	}
	if ts.IsFull() {
		e := ts.Epoch
		return &e
	}
	if p.glDate == nil {
		return nil
	}
	e := SetDate(*p.glDate, ts.Time)
	return &e
}

func (p *ChunkProcessor) getClosestTimestamp(count, bufferPos, lastTSPos int) (TS, bool) {
	if count > 32 {
		return TS{}, false
	}
	prevPos := bufferPos - 1
	if prevPos < 0 {
		return TS{}, false
	}
	entry := p.buffer[prevPos]
	if entry.coord <= lastTSPos {
		return TS{}, false
	}
	if ts, ok := ParseTimestamp(entry.raw); ok {
		return ts, true
	}
	return p.getClosestTimestamp(count+1, prevPos, lastTSPos)
}
