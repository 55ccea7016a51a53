package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2026-03-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2026, 3, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestIntervalDuration(t *testing.T) {
	if IntervalDuration("1h") != time.Hour {
		t.Fatalf("1h")
	}
	if IntervalDuration("1d") != 24*time.Hour {
		t.Fatalf("1d")
	}
	if IntervalDuration("bogus") != time.Hour {
		t.Fatalf("fallback")
	}
}

func TestNextDailyHour(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	next := NextDailyHour(now, 2)
	if next.Day() != 11 || next.Hour() != 2 {
		t.Fatalf("unexpected %v", next)
	}
	next = NextDailyHour(now, 23)
	if next.Day() != 10 || next.Hour() != 23 {
		t.Fatalf("unexpected %v", next)
	}
}
