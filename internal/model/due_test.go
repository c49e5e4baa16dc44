package model

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"
)

func TestParseDue(t *testing.T) {
	now := time.Date(2025, 1, 10, 10, 7, 30, 0, time.UTC)
	cases := []struct {
		in   string
		want string
	}{
		{"2025-01-12T18:30", "2025-01-12 18:30"},
		{"2025-01-12 18:30", "2025-01-12 18:30"},
		{"2025-01-12", "2025-01-12 09:00"},
		{"today 18:00", "2025-01-10 18:00"},
		{"tomorrow", "2025-01-11 09:00"},
		{"Tomorrow 07:15", "2025-01-11 07:15"},
		{"+2h", "2025-01-10 12:07"},
		{"2025-01-12T18:30:00Z", "2025-01-12 18:30"},
	}
	for _, tc := range cases {
		got, err := ParseDue(tc.in, now)
		if err != nil {
			t.Fatalf("ParseDue(%q) failed: %v", tc.in, err)
		}
		if got.Format("2006-01-02 15:04") != tc.want {
			t.Fatalf("ParseDue(%q) = %s, want %s", tc.in, got.Format(time.RFC3339), tc.want)
		}
	}
}

func TestParseDueRejectsGarbage(t *testing.T) {
	now := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	for _, in := range []string{"", "someday", "+-1h", "today 25:00", "tomorrow 09:00 extra"} {
		if _, err := ParseDue(in, now); !errors.Is(err, ErrInvalidDue) {
			t.Fatalf("ParseDue(%q) expected ErrInvalidDue, got %v", in, err)
		}
	}
}

func TestParseDueKeepsWallClockAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	cases := []struct {
		in   string
		now  time.Time
		want time.Time
	}{
		{"2025-03-09", time.Date(2025, 3, 1, 12, 0, 0, 0, ny), time.Date(2025, 3, 9, 9, 0, 0, 0, ny)},
		{"tomorrow", time.Date(2025, 3, 8, 20, 0, 0, 0, ny), time.Date(2025, 3, 9, 9, 0, 0, 0, ny)},
		{"today", time.Date(2025, 11, 2, 0, 30, 0, 0, ny), time.Date(2025, 11, 2, 9, 0, 0, 0, ny)},
		{"tomorrow 07:30", time.Date(2025, 11, 1, 22, 0, 0, 0, ny), time.Date(2025, 11, 2, 7, 30, 0, 0, ny)},
		{"2025-11-02", time.Date(2025, 10, 30, 12, 0, 0, 0, ny), time.Date(2025, 11, 2, 9, 0, 0, 0, ny)},
	}
	for _, tc := range cases {
		got, err := ParseDue(tc.in, tc.now)
		if err != nil {
			t.Fatalf("ParseDue(%q) failed: %v", tc.in, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("ParseDue(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestAtClockNormalizesDayOverflow(t *testing.T) {
	got := AtClock(2025, 1, 32, 8*time.Hour+15*time.Minute, time.UTC)
	if want := time.Date(2025, 2, 1, 8, 15, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("AtClock = %s, want %s", got, want)
	}
}
