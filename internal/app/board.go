package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/taskly/taskly/internal/auth"
	"github.com/taskly/taskly/internal/filter"
	"github.com/taskly/taskly/internal/model"
	"github.com/taskly/taskly/internal/reminder"
)

type TaskStore interface {
	Create(ctx context.Context, userID string, in model.Task) (model.Task, error)
	Update(ctx context.Context, userID, id string, patch model.TaskPatch) (model.Task, error)
	Delete(ctx context.Context, userID, id string) error
}

type Reminders interface {
	Schedule(ctx context.Context, task model.Task) ([]reminder.Request, error)
	Cancel(ctx context.Context, task model.Task) error
}

type CategoryStore interface {
	Categories() model.CategorySet
	SetCategories(set model.CategorySet) error
}

type Config struct {
	Session    auth.Session
	Store      TaskStore
	Reminders  Reminders
	Categories CategoryStore
	Calendar   filter.Calendar
	Logger     *slog.Logger
	Now        func() time.Time
}

type Draft struct {
	Title string
	Emoji string
	DueAt *time.Time
	Notes string
}

// Board is the signed-in user's task list and view state. It is the one
// place tasks are mutated, so every change that affects a due date or the
// done flag is paired with a reminder update. Board is not safe for
// concurrent use; the TUI drives it from its update loop.
type Board struct {
	session    auth.Session
	store      TaskStore
	reminders  Reminders
	categories CategoryStore
	cal        filter.Calendar
	logger     *slog.Logger
	now        func() time.Time

	tasks  []model.Task
	state  filter.State
	catSet model.CategorySet
}

func NewBoard(cfg Config) *Board {
	b := &Board{
		session:    cfg.Session,
		store:      cfg.Store,
		reminders:  cfg.Reminders,
		categories: cfg.Categories,
		cal:        cfg.Calendar,
		logger:     cfg.Logger,
		now:        cfg.Now,
		catSet:     model.DefaultCategories,
	}
	if b.logger == nil {
		b.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if b.now == nil {
		b.now = time.Now
	}
	if b.categories != nil {
		b.catSet = b.categories.Categories()
	}
	return b
}

func (b *Board) Session() auth.Session { return b.session }
func (b *Board) Filter() filter.State { return b.state }
func (b *Board) Categories() model.CategorySet { return b.catSet }
func (b *Board) Tasks() []model.Task { return slices.Clone(b.tasks) }
func (b *Board) Empty() bool { return len(b.tasks) == 0 }
func (b *Board) Calendar() filter.Calendar { return b.cal }
func (b *Board) SetSession(sess auth.Session) { b.session = sess }

func (b *Board) ApplySnapshot(tasks []model.Task) {
	b.tasks = slices.Clone(tasks)
}

func (b *Board) Pending(now time.Time) []model.Task {
	return b.cal.Pending(b.tasks, b.state, now)
}

func (b *Board) Completed(now time.Time) []model.Task {
	return b.cal.Completed(b.tasks, b.state, now)
}

// Task returns the task whose id is ref or starts with ref.
func (b *Board) Task(ref string) (model.Task, error) {
	i, err := b.find(ref)
	if err != nil {
		return model.Task{}, err
	}
	return b.tasks[i], nil
}

func (b *Board) find(ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return -1, ErrTaskNotFound
	}
	match := -1
	for i, t := range b.tasks {
		if t.ID == ref {
			return i, nil
		}
		if strings.HasPrefix(t.ID, ref) {
			if match >= 0 {
				return -1, fmt.Errorf("%w: %q", ErrAmbiguousTask, ref)
			}
			match = i
		}
	}
	if match < 0 {
		return -1, fmt.Errorf("%w: %q", ErrTaskNotFound, ref)
	}
	return match, nil
}

// Add validates d, stores it and schedules its reminders. An empty emoji
// falls back to the active category filter.
func (b *Board) Add(ctx context.Context, d Draft) (model.Task, error) {
	const op = "add"
	if !b.session.Valid() {
		return model.Task{}, opErr(KindValidation, op, ErrSignedOut)
	}
	task := model.Task{
		Title: strings.TrimSpace(d.Title),
		Emoji: strings.TrimSpace(d.Emoji),
		DueAt: d.DueAt,
		Notes: strings.TrimSpace(d.Notes),
	}
	if task.Emoji == "" {
		task.Emoji = b.state.Category
	}
	if task.Emoji == "" {
		return model.Task{}, opErr(KindValidation, op, ErrCategoryRequired)
	}
	if err := validate(task); err != nil {
		return model.Task{}, opErr(KindValidation, op, err)
	}

	created, err := b.store.Create(ctx, b.session.UserID, task)
	if err != nil {
		b.logger.Error("task create failed", "user_id", b.session.UserID, "error", err)
		return model.Task{}, opErr(KindStore, op, err)
	}
	b.upsert(created)

	if _, err := b.reminders.Schedule(ctx, created); err != nil {
		b.logger.Warn("reminder schedule failed", "task_id", created.ID, "error", err)
		return created, opErr(KindNotify, op, err)
	}
	return created, nil
}

// Edit applies patch to the task. The local copy changes even when the
// store rejects the write.
func (b *Board) Edit(ctx context.Context, ref string, patch model.TaskPatch) (model.Task, error) {
	const op = "edit"
	i, err := b.find(ref)
	if err != nil {
		return model.Task{}, opErr(KindValidation, op, err)
	}
	if patch.Emoji != nil {
		emoji := strings.TrimSpace(*patch.Emoji)
		patch.Emoji = &emoji
	}
	next := patch.Apply(b.tasks[i])
	if err := validate(next); err != nil {
		return model.Task{}, opErr(KindValidation, op, err)
	}
	if patch.IsEmpty() {
		return next, nil
	}
	b.tasks[i] = next

	var notifyErr error
	if patch.TouchesSchedule() {
		notifyErr = b.syncReminders(ctx, op, next)
	}
	var storeErr error
	if _, err := b.store.Update(ctx, b.session.UserID, next.ID, patch); err != nil {
		b.logger.Error("task update failed", "task_id", next.ID, "error", err)
		storeErr = opErr(KindStore, op, err)
	}
	return next, errors.Join(storeErr, notifyErr)
}

func (b *Board) Toggle(ctx context.Context, ref string) (model.Task, error) {
	const op = "toggle"
	i, err := b.find(ref)
	if err != nil {
		return model.Task{}, opErr(KindValidation, op, err)
	}
	b.tasks[i].Done = !b.tasks[i].Done
	task := b.tasks[i]

	notifyErr := b.syncReminders(ctx, op, task)
	var storeErr error
	done := task.Done
	if _, err := b.store.Update(ctx, b.session.UserID, task.ID, model.TaskPatch{Done: &done}); err != nil {
		b.logger.Error("task toggle failed", "task_id", task.ID, "error", err)
		storeErr = opErr(KindStore, op, err)
	}
	return task, errors.Join(storeErr, notifyErr)
}

func (b *Board) SetDone(ctx context.Context, ref string, done bool) (model.Task, error) {
	task, err := b.Task(ref)
	if err != nil {
		return model.Task{}, opErr(KindValidation, "toggle", err)
	}
	if task.Done == done {
		return task, nil
	}
	return b.Toggle(ctx, task.ID)
}

func (b *Board) Delete(ctx context.Context, ref string) (model.Task, error) {
	const op = "delete"
	i, err := b.find(ref)
	if err != nil {
		return model.Task{}, opErr(KindValidation, op, err)
	}
	task := b.tasks[i]
	b.tasks = slices.Delete(b.tasks, i, i+1)

	var notifyErr error
	if err := b.reminders.Cancel(ctx, task); err != nil {
		b.logger.Warn("reminder cancel failed", "task_id", task.ID, "error", err)
		notifyErr = opErr(KindNotify, op, err)
	}
	var storeErr error
	if err := b.store.Delete(ctx, b.session.UserID, task.ID); err != nil {
		b.logger.Error("task delete failed", "task_id", task.ID, "error", err)
		storeErr = opErr(KindStore, op, err)
	}
	return task, errors.Join(storeErr, notifyErr)
}

func (b *Board) SetCategory(emoji string) error {
	emoji = strings.TrimSpace(emoji)
	if emoji != "" && b.catSet.Index(emoji) < 0 {
		return opErr(KindValidation, "filter", fmt.Errorf("%w: %q", ErrUnknownCategory, emoji))
	}
	b.state.Category = emoji
	return nil
}

// SetCategoryIndex selects a filter segment: 0 is all, 1 to 4 are the
// categories in order.
func (b *Board) SetCategoryIndex(segment int) error {
	if segment == 0 {
		b.state.Category = ""
		return nil
	}
	if segment < 1 || segment > model.CategoryCount {
		return opErr(KindValidation, "filter", fmt.Errorf("%w: %d", model.ErrCategoryIndex, segment))
	}
	b.state.Category = b.catSet[segment-1]
	return nil
}

func (b *Board) SetDateFilter(mode filter.DateMode) {
	b.state = b.state.WithDateMode(mode)
}

// RenameCategory replaces the category at index (0-based) and keeps an
// active filter on it pointing at the new label. Existing tasks keep
// their emoji.
func (b *Board) RenameCategory(index int, emoji string) error {
	const op = "rename category"
	renamed, err := b.catSet.Rename(index, emoji)
	if err != nil {
		return opErr(KindValidation, op, err)
	}
	old := b.catSet[index]
	b.catSet = renamed
	b.state = b.state.RenameCategory(old, renamed[index])

	if b.categories == nil {
		return nil
	}
	if err := b.categories.SetCategories(renamed); err != nil {
		b.logger.Error("categories save failed", "error", err)
		return opErr(KindStore, op, err)
	}
	return nil
}

func (b *Board) Reconcile(ctx context.Context) (int, error) {
	var errs []error
	issued := 0
	for _, task := range b.tasks {
		if !task.Persisted() {
			continue
		}
		reqs, err := b.reminders.Schedule(ctx, task)
		issued += len(reqs)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return issued, opErr(KindNotify, "reconcile", errors.Join(errs...))
}

func (b *Board) Clear(ctx context.Context) error {
	var errs []error
	for _, task := range b.tasks {
		if err := b.reminders.Cancel(ctx, task); err != nil {
			errs = append(errs, err)
		}
	}
	b.tasks = nil
	b.state = filter.State{}
	b.session = auth.Session{}
	return opErr(KindNotify, "clear", errors.Join(errs...))
}

func (b *Board) syncReminders(ctx context.Context, op string, task model.Task) error {
	var err error
	if task.Done {
		err = b.reminders.Cancel(ctx, task)
	} else {
		_, err = b.reminders.Schedule(ctx, task)
	}
	if err != nil {
		b.logger.Warn("reminder update failed", "task_id", task.ID, "error", err)
		return opErr(KindNotify, op, err)
	}
	return nil
}

func (b *Board) upsert(task model.Task) {
	for i := range b.tasks {
		if b.tasks[i].ID == task.ID {
			b.tasks[i] = task
			return
		}
	}
	b.tasks = append(b.tasks, task)
}

func validate(task model.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	if !model.IsSingleEmoji(task.Emoji) {
		return fmt.Errorf("%w: %q", model.ErrInvalidCategory, task.Emoji)
	}
	return nil
}
