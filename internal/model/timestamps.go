package model

import (
	"strconv"
	"strings"
	"time"
)

// tsKind distinguishes a fully-dated timestamp from a time-of-day-only
// match that still needs a date to anchor it.
type tsKind int

const (
	tsFull tsKind = iota
	tsTimeOnly
)

// TS is a timestamp recovered from a single log line: either a full
// epoch-millisecond instant, or a bare time-of-day in milliseconds
// since midnight.
type TS struct {
	kind  tsKind
	Epoch int64 // epoch ms, meaningful when kind == tsFull
	Time  int64 // ms since midnight, meaningful when kind == tsTimeOnly
}

// IsFull reports whether this TS carries a full date, not just a time.
func (t TS) IsFull() bool { return t.kind == tsFull }

var fullLayouts = []string{
	"2006-01-02 15:04:05,000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.000",
	"[2006/01/02 15:04:05]",
}

// ParseTimestamp tries a catalog of layouts against a raw log line and
// returns either a full timestamp or a bare time-of-day, in the
// original's priority order: a JSON "date" field, then the ISO/syslog
// date-time layouts, then a klog-style time at byte offset 6, then a
// leading "Mon _2 15:04:05 " syslog time.
func ParseTimestamp(line string) (TS, bool) {
	if rest, ok := strings.CutPrefix(line, `{"date":`); ok {
		if ts, ok := parseJSONDate(rest); ok {
			return ts, true
		}
		return TS{}, false
	}

	for _, layout := range fullLayouts {
		if t, ok := parseLayoutPrefix(line, layout); ok {
			return TS{kind: tsFull, Epoch: t.UnixMilli()}, true
		}
	}

	if len(line) > 6 {
		if t, ok := parseTimeLayoutPrefix(line[6:], "15:04:05.000"); ok {
			return TS{kind: tsTimeOnly, Time: msOfDay(t)}, true
		}
	}
	if t, ok := parseTimeLayoutPrefix(line, "Jan _2 15:04:05 "); ok {
		return TS{kind: tsTimeOnly, Time: msOfDay(t)}, true
	}
	return TS{}, false
}

func msOfDay(t time.Time) int64 {
	return int64(t.Hour())*3_600_000 + int64(t.Minute())*60_000 + int64(t.Second())*1_000 + int64(t.Nanosecond())/1_000_000
}

// parseLayoutPrefix parses as much of line as layout consumes,
// ignoring any trailing remainder, the way Rust's parse_and_remainder
// does.
func parseLayoutPrefix(line, layout string) (time.Time, bool) {
	n := layout2Len(layout)
	if len(line) < n {
		return time.Time{}, false
	}
	t, err := time.Parse(layout, line[:n])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func parseTimeLayoutPrefix(line, layout string) (time.Time, bool) {
	return parseLayoutPrefix(line, layout)
}

// layout2Len returns the number of input bytes a Go reference layout
// consumes when every numeric field is exactly as wide as the
// reference (these layouts have no variable-width fields, since Go's
// "_2" day-of-month pads to a fixed 2 bytes too).
func layout2Len(layout string) int {
	return len(layout)
}

func parseJSONDate(s string) (TS, bool) {
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return TS{}, false
	}
	end := dot + 1
	for end < len(s) && s[end] >= '0' && s[end] <= '9' && end < dot+4 {
		end++
	}
	secs, err := strconv.ParseInt(s[:dot], 10, 64)
	if err != nil {
		return TS{}, false
	}
	fracStr := s[dot+1 : end]
	for len(fracStr) < 3 {
		fracStr += "0"
	}
	millis, err := strconv.ParseInt(fracStr[:3], 10, 64)
	if err != nil {
		return TS{}, false
	}
	return TS{kind: tsFull, Epoch: secs*1000 + millis}, true
}

const (
	hourMS = 3_600_000
	dayMS  = hourMS * 24
)

// SetDate anchors a bare time-of-day onto the date of a previously
// known full timestamp, choosing the day whose wall time is within 12
// hours of the known timestamp, rolling forward or back a day
// otherwise.
func SetDate(dateTime int64, timeOfDay int64) int64 {
	knownTime := dateTime % dayMS
	knownDate := dateTime / dayMS * dayMS
	diff := absDiff(knownTime, timeOfDay)
	switch {
	case knownTime > timeOfDay:
		if diff > hourMS*12 {
			return knownDate + dayMS + timeOfDay
		}
		return knownDate + timeOfDay
	case diff > hourMS*12:
		return knownDate - dayMS + timeOfDay
	default:
		return knownDate + timeOfDay
	}
}

func absDiff(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}
