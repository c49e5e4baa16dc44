package model

import (
	"errors"
	"testing"
	"time"
)

func TestReminderKindIsValid(t *testing.T) {
	for _, k := range []ReminderKind{ReminderKindAt, ReminderKindBefore30} {
		if !k.IsValid() {
			t.Fatalf("expected valid reminder kind: %q", k)
		}
	}
	if ReminderKind("1h").IsValid() {
		t.Fatal("expected invalid kind")
	}
}

func TestReminderKindLeadTime(t *testing.T) {
	if ReminderKindAt.LeadTime() != 0 {
		t.Fatalf("at-due lead time = %s", ReminderKindAt.LeadTime())
	}
	if ReminderKindBefore30.LeadTime() != 30*time.Minute {
		t.Fatalf("30m lead time = %s", ReminderKindBefore30.LeadTime())
	}
}

func TestParseReminderKind(t *testing.T) {
	k, err := ParseReminderKind("30m")
	if err != nil || k != ReminderKindBefore30 {
		t.Fatalf("parse 30m = %q, %v", k, err)
	}
	if _, err := ParseReminderKind("soon"); !errors.Is(err, ErrInvalidReminderKind) {
		t.Fatalf("expected ErrInvalidReminderKind, got %v", err)
	}
}
