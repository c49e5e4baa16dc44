package model

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidReminderKind = errors.New("model: invalid reminder kind")

type ReminderKind string

const (
	ReminderKindAt       ReminderKind = "at"
	ReminderKindBefore30 ReminderKind = "30m"
)

// LeadTime is how long before the due instant the reminder fires.
func (k ReminderKind) LeadTime() time.Duration {
	if k == ReminderKindBefore30 {
		return 30 * time.Minute
	}
	return 0
}

func (k ReminderKind) IsValid() bool {
	switch k {
	case ReminderKindAt, ReminderKindBefore30:
		return true
	default:
		return false
	}
}

func ParseReminderKind(raw string) (ReminderKind, error) {
	k := ReminderKind(raw)
	if !k.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidReminderKind, raw)
	}
	return k, nil
}
