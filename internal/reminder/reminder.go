package reminder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/taskly/taskly/internal/model"
)

var ErrUnpersisted = errors.New("reminder: task has no id")

const (
	DueNowTitle  = "Task due now"
	DueSoonTitle = "Task due in 30 minutes"
	DailyID      = "daily-reminder"
	DailyTitle   = "Taskly"
	DailyBody    = "Take a look at today's tasks."
	SampleID     = "sample-reminder"
	SampleBody   = "Notifications are working."

	DefaultDailyAt = 8 * time.Hour
)

type Request struct {
	ID     string
	TaskID string
	Kind   model.ReminderKind
	FireAt time.Time
	Title  string
	Body   string
}

type Notifier interface {
	Register(ctx context.Context, req Request) error
	Cancel(ctx context.Context, ids ...string) error
}

// RequestID is the deterministic identifier of a task reminder.
func RequestID(taskID string, kind model.ReminderKind) string {
	return taskID + "#" + string(kind)
}

func RequestIDs(taskID string) []string {
	return []string{
		RequestID(taskID, model.ReminderKindAt),
		RequestID(taskID, model.ReminderKindBefore30),
	}
}

type Option func(*Scheduler)

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Scheduler keeps a task's notification requests in line with its due
// date and completion flag.
type Scheduler struct {
	notifier Notifier
	now      func() time.Time
	logger   *slog.Logger
}

func NewScheduler(n Notifier, opts ...Option) *Scheduler {
	s := &Scheduler{
		notifier: n,
		now:      time.Now,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Plan returns the requests Schedule would register for task at now.
// Instants that are not strictly in the future are skipped.
func Plan(task model.Task, now time.Time) []Request {
	if task.Done || !task.HasDue() {
		return nil
	}
	due := *task.DueAt
	out := make([]Request, 0, 2)
	if due.After(now) {
		out = append(out, Request{
			ID:     RequestID(task.ID, model.ReminderKindAt),
			TaskID: task.ID,
			Kind:   model.ReminderKindAt,
			FireAt: due,
			Title:  DueNowTitle,
			Body:   task.Title,
		})
	}
	before := due.Add(-model.ReminderKindBefore30.LeadTime())
	if before.After(now) {
		out = append(out, Request{
			ID:     RequestID(task.ID, model.ReminderKindBefore30),
			TaskID: task.ID,
			Kind:   model.ReminderKindBefore30,
			FireAt: before,
			Title:  DueSoonTitle,
			Body:   task.Title,
		})
	}
	return out
}

// Schedule cancels both of the task's requests and then registers the
// ones still in the future. It returns the requests that were registered.
func (s *Scheduler) Schedule(ctx context.Context, task model.Task) ([]Request, error) {
	if !task.Persisted() {
		return nil, ErrUnpersisted
	}
	if err := s.Cancel(ctx, task); err != nil {
		return nil, err
	}

	var errs []error
	issued := make([]Request, 0, 2)
	for _, req := range Plan(task, s.now()) {
		if err := s.notifier.Register(ctx, req); err != nil {
			errs = append(errs, fmt.Errorf("reminder: register %s: %w", req.ID, err))
			continue
		}
		issued = append(issued, req)
	}
	s.logger.Debug("reminders scheduled", "task_id", task.ID, "issued", len(issued))
	return issued, errors.Join(errs...)
}

func (s *Scheduler) Cancel(ctx context.Context, task model.Task) error {
	if !task.Persisted() {
		return nil
	}
	if err := s.notifier.Cancel(ctx, RequestIDs(task.ID)...); err != nil {
		return fmt.Errorf("reminder: cancel %s: %w", task.ID, err)
	}
	return nil
}

func (s *Scheduler) ScheduleDaily(ctx context.Context, clock time.Duration) (Request, error) {
	if err := s.CancelDaily(ctx); err != nil {
		return Request{}, err
	}
	req := Request{
		ID:     DailyID,
		FireAt: NextDaily(s.now(), clock),
		Title:  DailyTitle,
		Body:   DailyBody,
	}
	if err := s.notifier.Register(ctx, req); err != nil {
		return Request{}, fmt.Errorf("reminder: register %s: %w", DailyID, err)
	}
	return req, nil
}

func (s *Scheduler) CancelDaily(ctx context.Context) error {
	if err := s.notifier.Cancel(ctx, DailyID); err != nil {
		return fmt.Errorf("reminder: cancel %s: %w", DailyID, err)
	}
	return nil
}

func (s *Scheduler) ScheduleSample(ctx context.Context, after time.Duration) (Request, error) {
	req := Request{
		ID:     SampleID,
		FireAt: s.now().Add(after),
		Title:  DailyTitle,
		Body:   SampleBody,
	}
	if err := s.notifier.Register(ctx, req); err != nil {
		return Request{}, fmt.Errorf("reminder: register %s: %w", SampleID, err)
	}
	return req, nil
}

// NextDaily returns the first instant after now at the given clock time
// in now's location.
func NextDaily(now time.Time, clock time.Duration) time.Time {
	y, m, d := now.Date()
	next := model.AtClock(y, m, d, clock, now.Location())
	if !next.After(now) {
		next = model.AtClock(y, m, d+1, clock, now.Location())
	}
	return next
}
