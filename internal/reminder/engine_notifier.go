package reminder

import (
	"context"

	"github.com/taskly/taskly/internal/scheduler"
)

// EngineNotifier registers requests with the in-process scheduler engine.
type EngineNotifier struct {
	Engine *scheduler.Engine
}

func (n EngineNotifier) Register(ctx context.Context, req Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.Engine.Schedule(scheduler.ReminderEvent{
		ID:        req.ID,
		TaskID:    req.TaskID,
		Kind:      req.Kind,
		Title:     req.Title,
		Body:      req.Body,
		TriggerAt: req.FireAt,
	})
}

func (n EngineNotifier) Cancel(ctx context.Context, ids ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.Engine.Cancel(ids...)
	return nil
}

// IsDaily reports whether ev is the repeating daily reminder.
func IsDaily(ev scheduler.ReminderEvent) bool {
	return ev.ID == DailyID
}
