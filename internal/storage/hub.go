package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskly/taskly/internal/model"
)

var ErrMissingUser = errors.New("storage: user id is required")

// Hub is the task store seen by clients. Every successful write is
// followed by a full snapshot to each subscriber of the affected user.
type Hub struct {
	repo   Repository
	now    func() time.Time
	newID  func() string
	logger *slog.Logger

	mu   sync.Mutex
	subs map[string]map[*subscription]struct{}
}

type subscription struct {
	ch chan []model.Task
}

type HubOption func(*Hub)

func WithHubClock(now func() time.Time) HubOption {
	return func(h *Hub) {
		if now != nil {
			h.now = now
		}
	}
}

func WithIDGenerator(gen func() string) HubOption {
	return func(h *Hub) {
		if gen != nil {
			h.newID = gen
		}
	}
}

func WithHubLogger(logger *slog.Logger) HubOption {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func NewHub(repo Repository, opts ...HubOption) *Hub {
	h := &Hub{
		repo:   repo,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		subs:   make(map[string]map[*subscription]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) Snapshot(ctx context.Context, userID string) ([]model.Task, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUser
	}
	rows, err := h.repo.ListTasks(ctx, TaskListFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	out := make([]model.Task, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToModel())
	}
	return out, nil
}

// Subscribe returns a channel that receives the current snapshot and then
// a new one after every write. Only the latest undelivered snapshot is
// kept. The channel is closed once ctx is done.
func (h *Hub) Subscribe(ctx context.Context, userID string) (<-chan []model.Task, error) {
	snap, err := h.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	sub := &subscription{ch: make(chan []model.Task, 1)}
	sub.ch <- snap

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*subscription]struct{})
	}
	h.subs[userID][sub] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs[userID], sub)
		if len(h.subs[userID]) == 0 {
			delete(h.subs, userID)
		}
		close(sub.ch)
		h.mu.Unlock()
	}()
	return sub.ch, nil
}

func (h *Hub) Create(ctx context.Context, userID string, in model.Task) (model.Task, error) {
	if strings.TrimSpace(userID) == "" {
		return model.Task{}, ErrMissingUser
	}
	if err := in.Validate(); err != nil {
		return model.Task{}, err
	}
	created := h.now().UTC()
	in.ID = h.newID()
	in.CreatedAt = &created
	in.Title = strings.TrimSpace(in.Title)
	in.Notes = strings.TrimSpace(in.Notes)
	if err := h.repo.CreateTask(ctx, taskFromModel(userID, in)); err != nil {
		return model.Task{}, fmt.Errorf("create task: %w", err)
	}
	h.publish(ctx, userID)
	return in, nil
}

func (h *Hub) Update(ctx context.Context, userID, id string, patch model.TaskPatch) (model.Task, error) {
	row, err := h.owned(ctx, userID, id)
	if err != nil {
		return model.Task{}, err
	}
	next := patch.Apply(row.ToModel())
	if err := next.Validate(); err != nil {
		return model.Task{}, err
	}
	if err := h.repo.UpdateTask(ctx, taskFromModel(userID, next)); err != nil {
		return model.Task{}, fmt.Errorf("update task %s: %w", id, err)
	}
	h.publish(ctx, userID)
	return next, nil
}

func (h *Hub) Delete(ctx context.Context, userID, id string) error {
	if _, err := h.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := h.repo.DeleteTask(ctx, id); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	h.publish(ctx, userID)
	return nil
}

func (h *Hub) DeleteAll(ctx context.Context, userID string) (int64, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, ErrMissingUser
	}
	n, err := h.repo.DeleteUserTasks(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("delete tasks of %s: %w", userID, err)
	}
	h.publish(ctx, userID)
	return n, nil
}

func (h *Hub) owned(ctx context.Context, userID, id string) (Task, error) {
	if strings.TrimSpace(userID) == "" {
		return Task{}, ErrMissingUser
	}
	row, err := h.repo.GetTask(ctx, id)
	if err != nil {
		return Task{}, fmt.Errorf("get task %s: %w", id, err)
	}
	if row.UserID != userID {
		return Task{}, fmt.Errorf("get task %s: %w", id, ErrNotFound)
	}
	return row, nil
}

func (h *Hub) publish(ctx context.Context, userID string) {
	h.mu.Lock()
	n := len(h.subs[userID])
	h.mu.Unlock()
	if n == 0 {
		return
	}
	snap, err := h.Snapshot(context.WithoutCancel(ctx), userID)
	if err != nil {
		h.logger.Error("snapshot failed", "user_id", userID, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[userID] {
		offer(sub.ch, snap)
	}
}

// offer replaces an undelivered snapshot with snap.
func offer(ch chan []model.Task, snap []model.Task) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}
