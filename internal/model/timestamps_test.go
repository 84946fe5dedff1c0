package model

import "testing"

func TestParseTimestampFull(t *testing.T) {
	cases := []struct {
		line string
		want int64
	}{
		{"2017-05-23 14:58:17,806 | doing stuff", 1495551497806},
		{"2017-05-23T14:58:17 doing stuff", 1495551497000},
		{"[2017/05/23 14:58:17] doing stuff", 1495551497000},
		{`{"date": 1495551497.806, "msg": "stuff"}`, 1495551497806},
	}
	for _, c := range cases {
		ts, ok := ParseTimestamp(c.line)
		if !ok {
			t.Fatalf("ParseTimestamp(%q): expected match", c.line)
		}
		if !ts.IsFull() {
			t.Fatalf("ParseTimestamp(%q): expected full timestamp", c.line)
		}
		if ts.Epoch != c.want {
			t.Fatalf("ParseTimestamp(%q) = %d, want %d", c.line, ts.Epoch, c.want)
		}
	}
}

func TestParseTimestampKlogStyle(t *testing.T) {
	line := "I0523 14:58:17.806123   12345 server.go:42] starting"
	ts, ok := ParseTimestamp(line)
	if !ok {
		t.Fatalf("expected klog-style match")
	}
	if ts.IsFull() {
		t.Fatalf("expected time-only timestamp")
	}
	want := int64(14)*3_600_000 + int64(58)*60_000 + int64(17)*1_000 + 806
	if ts.Time != want {
		t.Fatalf("got %d, want %d", ts.Time, want)
	}
}

func TestParseTimestampSyslog(t *testing.T) {
	line := "May 23 14:58:17 host sshd[123]: stuff"
	ts, ok := ParseTimestamp(line)
	if !ok {
		t.Fatalf("expected syslog match")
	}
	if ts.IsFull() {
		t.Fatalf("expected time-only timestamp")
	}
	want := int64(14)*3_600_000 + int64(58)*60_000 + int64(17)*1_000
	if ts.Time != want {
		t.Fatalf("got %d, want %d", ts.Time, want)
	}
}

func TestParseTimestampNoMatch(t *testing.T) {
	if _, ok := ParseTimestamp("just a plain line with no date in it"); ok {
		t.Fatalf("expected no match")
	}
}

func TestSetDateSameDay(t *testing.T) {
	// known: 2017-05-23 14:00:00 UTC
	known := int64(1495548000000)
	timeOfDay := int64(15)*3_600_000 + int64(0)*60_000 // 15:00:00
	got := SetDate(known, timeOfDay)
	knownDate := known / dayMS * dayMS
	want := knownDate + timeOfDay
	if got != want {
		t.Fatalf("got %d, want %d", got, want)
	}
}

func TestSetDateRollsForward(t *testing.T) {
	// known time-of-day is 23:00, target time-of-day is 01:00: should
	// roll to the next day since the 1am event follows the 11pm one.
	known := int64(23)*3_600_000
	target := int64(1) * 3_600_000
	got := SetDate(known, target)
	want := dayMS + target
	if got != want {
		t.Fatalf("got %d, want %d", got, want)
	}
}

func TestSetDateRollsBackward(t *testing.T) {
	// known time-of-day is 01:00, target time-of-day is 23:00 of the
	// previous day: should roll backward.
	known := int64(1) * 3_600_000
	target := int64(23) * 3_600_000
	got := SetDate(known, target)
	want := -dayMS + target
	if got != want {
		t.Fatalf("got %d, want %d", got, want)
	}
}
