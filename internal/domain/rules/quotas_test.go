package rules

import (
	"testing"
	"time"
)

func TestDayKeyUsesTimezone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	utc := time.Date(2026, 3, 10, 2, 30, 0, 0, time.UTC)
	got := DayKey(utc, loc)
	want := "2026-03-09"
	if got != want {
		t.Fatalf("unexpected day key: got %s want %s", got, want)
	}
}

func TestDayKeyDefaultsToUTC(t *testing.T) {
	utc := time.Date(2026, 3, 9, 23, 59, 59, 0, time.UTC)
	got := DayKey(utc, nil)
	want := "2026-03-09"
	if got != want {
		t.Fatalf("unexpected day key: got %s want %s", got, want)
	}
}

func TestNextResetAtDefaultsToUTCMidnight(t *testing.T) {
	now := time.Date(2026, 3, 9, 18, 15, 0, 0, time.UTC)
	got := NextResetAt(now, nil)
	want := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("unexpected reset_at: got %s want %s", got.Format(time.RFC3339), want.Format(time.RFC3339))
	}
}
