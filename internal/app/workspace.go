package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/taskly/taskly/internal/auth"
	"github.com/taskly/taskly/internal/model"
	"github.com/taskly/taskly/internal/prefs"
	"github.com/taskly/taskly/internal/reminder"
)

type TaskFeed interface {
	Snapshot(ctx context.Context, userID string) ([]model.Task, error)
	Subscribe(ctx context.Context, userID string) (<-chan []model.Task, error)
}

type WorkspaceConfig struct {
	Board     *Board
	Feed      TaskFeed
	Accounts  *auth.Service
	Prefs     *prefs.Store
	Reminders *reminder.Scheduler
	DailyAt   time.Duration
	Logger    *slog.Logger
}

// Workspace ties the board to the signed-in account: it restores the
// saved session, loads the task list and keeps the device-level daily
// reminder in line with the preference.
type Workspace struct {
	Board *Board

	feed      TaskFeed
	accounts  *auth.Service
	prefs     *prefs.Store
	reminders *reminder.Scheduler
	dailyAt   time.Duration
	logger    *slog.Logger
}

func NewWorkspace(cfg WorkspaceConfig) *Workspace {
	w := &Workspace{
		Board:     cfg.Board,
		feed:      cfg.Feed,
		accounts:  cfg.Accounts,
		prefs:     cfg.Prefs,
		reminders: cfg.Reminders,
		dailyAt:   cfg.DailyAt,
		logger:    cfg.Logger,
	}
	if w.logger == nil {
		w.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if w.dailyAt <= 0 {
		w.dailyAt = reminder.DefaultDailyAt
	}
	return w
}

func (w *Workspace) SignedIn() bool { return w.Board.Session().Valid() }

// Restore signs in with the saved session. It returns ErrSignedOut when
// there is none or the account no longer exists.
func (w *Workspace) Restore(ctx context.Context) (auth.Session, error) {
	saved, err := w.prefs.Session()
	if err != nil {
		if errors.Is(err, prefs.ErrNoSession) {
			return auth.Session{}, ErrSignedOut
		}
		return auth.Session{}, err
	}
	sess, err := w.accounts.Resume(ctx, saved)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) || errors.Is(err, auth.ErrNotSignedIn) {
			w.logger.Warn("saved session dropped", "user_id", saved.UserID, "error", err)
			_ = w.prefs.ClearSession()
			return auth.Session{}, ErrSignedOut
		}
		return auth.Session{}, err
	}
	return sess, w.signIn(ctx, sess)
}

func (w *Workspace) Login(ctx context.Context, email, password string) (auth.Session, error) {
	sess, err := w.accounts.Login(ctx, email, password)
	if err != nil {
		return auth.Session{}, err
	}
	return sess, w.signIn(ctx, sess)
}

func (w *Workspace) Register(ctx context.Context, email, password, confirm, displayName string) (auth.Session, error) {
	sess, err := w.accounts.Register(ctx, email, password, confirm, displayName)
	if err != nil {
		return auth.Session{}, err
	}
	return sess, w.signIn(ctx, sess)
}

func (w *Workspace) signIn(ctx context.Context, sess auth.Session) error {
	if err := w.prefs.SetSession(sess); err != nil {
		return opErr(KindStore, "save session", err)
	}
	w.Board.SetSession(sess)
	if err := w.Refresh(ctx); err != nil {
		return err
	}
	var errs []error
	if _, err := w.Board.Reconcile(ctx); err != nil {
		errs = append(errs, err)
	}
	if w.prefs.DailyReminder() {
		if _, err := w.reminders.ScheduleDaily(ctx, w.dailyAt); err != nil {
			errs = append(errs, opErr(KindNotify, "daily reminder", err))
		}
	}
	return errors.Join(errs...)
}

func (w *Workspace) Refresh(ctx context.Context) error {
	sess := w.Board.Session()
	if !sess.Valid() {
		return ErrSignedOut
	}
	tasks, err := w.feed.Snapshot(ctx, sess.UserID)
	if err != nil {
		return opErr(KindStore, "load tasks", err)
	}
	w.Board.ApplySnapshot(tasks)
	return nil
}

func (w *Workspace) Subscribe(ctx context.Context) (<-chan []model.Task, error) {
	sess := w.Board.Session()
	if !sess.Valid() {
		return nil, ErrSignedOut
	}
	return w.feed.Subscribe(ctx, sess.UserID)
}

func (w *Workspace) SignOut(ctx context.Context) error {
	sess := w.Board.Session()
	if !sess.Valid() {
		return ErrSignedOut
	}
	clearErr := w.Board.Clear(ctx)
	w.accounts.SignOut(sess)
	if err := w.prefs.ClearSession(); err != nil {
		return errors.Join(clearErr, opErr(KindStore, "clear session", err))
	}
	return clearErr
}

// DeleteAccount removes the account and its tasks. password may be empty
// when the session is recent; otherwise auth.ErrRecentLoginRequired is
// returned and the caller asks for it.
func (w *Workspace) DeleteAccount(ctx context.Context, password string) (*auth.ReauthFlow, error) {
	sess := w.Board.Session()
	if !sess.Valid() {
		return nil, ErrSignedOut
	}
	flow := &auth.ReauthFlow{Session: sess, Password: password}
	if err := w.accounts.DeleteAccount(ctx, flow); err != nil {
		return flow, err
	}
	w.logger.Info("account removed", "user_id", sess.UserID, "tasks", flow.DeletedTasks)
	clearErr := w.Board.Clear(ctx)
	if err := w.prefs.ClearSession(); err != nil {
		return flow, errors.Join(clearErr, opErr(KindStore, "clear session", err))
	}
	return flow, clearErr
}

func (w *Workspace) DailyReminder() bool { return w.prefs.DailyReminder() }

func (w *Workspace) DailyAt() time.Duration { return w.dailyAt }

func (w *Workspace) SetDailyReminder(ctx context.Context, on bool) error {
	if err := w.prefs.SetDailyReminder(on); err != nil {
		return opErr(KindStore, "daily reminder", err)
	}
	if !on {
		return opErr(KindNotify, "daily reminder", w.reminders.CancelDaily(ctx))
	}
	_, err := w.reminders.ScheduleDaily(ctx, w.dailyAt)
	return opErr(KindNotify, "daily reminder", err)
}

func (w *Workspace) RescheduleDaily(ctx context.Context) error {
	if !w.prefs.DailyReminder() {
		return nil
	}
	_, err := w.reminders.ScheduleDaily(ctx, w.dailyAt)
	return opErr(KindNotify, "daily reminder", err)
}

func (w *Workspace) SendSample(ctx context.Context, after time.Duration) (reminder.Request, error) {
	req, err := w.reminders.ScheduleSample(ctx, after)
	if err != nil {
		return reminder.Request{}, opErr(KindNotify, "sample notification", err)
	}
	return req, nil
}
