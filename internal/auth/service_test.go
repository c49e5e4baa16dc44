package auth

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskly/taskly/internal/events"
	"github.com/taskly/taskly/internal/model"
	"github.com/taskly/taskly/internal/storage"
)

type authFixture struct {
	svc   *Service
	repo  *storage.SQLiteRepository
	hub   *storage.Hub
	bus   *events.Bus
	clock *time.Time
}

func newAuthServiceForTests(t *testing.T) authFixture {
	t.Helper()
	repo, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	clock := time.Date(2026, 2, 7, 9, 0, 0, 0, time.UTC)
	hub := storage.NewHub(repo)
	bus := events.NewBus(8)
	svc := NewService(repo, hub, bus, slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithClock(func() time.Time { return clock }),
		WithBcryptCost(bcrypt.MinCost),
	)
	return authFixture{svc: svc, repo: repo, hub: hub, bus: bus, clock: &clock}
}

func TestRegisterValidatesInput(t *testing.T) {
	f := newAuthServiceForTests(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "not-an-email", "secret1", "secret1", "")
	assert.ErrorIs(t, err, ErrInvalidEmail)
	_, err = f.svc.Register(ctx, "ada@example.com", "12345", "12345", "")
	assert.ErrorIs(t, err, ErrWeakPassword)
	_, err = f.svc.Register(ctx, "ada@example.com", "secret1", "secret2", "")
	assert.ErrorIs(t, err, ErrPasswordMismatch)
}

func TestRegisterThenLogin(t *testing.T) {
	f := newAuthServiceForTests(t)
	ctx := context.Background()
	evs, unsub := f.bus.Subscribe()
	defer unsub()

	sess, err := f.svc.Register(ctx, " Ada@Example.com ", "secret1", "secret1", "")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", sess.Email)
	assert.Equal(t, "Ada", sess.DisplayName)
	assert.Equal(t, events.KindRegistered, (<-evs).Kind)

	_, err = f.svc.Register(ctx, "ada@example.com", "secret1", "secret1", "")
	assert.ErrorIs(t, err, ErrEmailInUse)

	_, err = f.svc.Login(ctx, "ada@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrWrongPassword)
	_, err = f.svc.Login(ctx, "bob@example.com", "secret1")
	assert.ErrorIs(t, err, ErrUserNotFound)

	again, err := f.svc.Login(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, again.UserID)
	ev := <-evs
	assert.Equal(t, events.KindLoggedIn, ev.Kind)
	assert.Equal(t, sess.UserID, ev.UserID)
}

func TestResumeRefreshesSession(t *testing.T) {
	f := newAuthServiceForTests(t)
	ctx := context.Background()
	sess, err := f.svc.Register(ctx, "ada@example.com", "secret1", "secret1", "Ada L.")
	require.NoError(t, err)

	resumed, err := f.svc.Resume(ctx, Session{UserID: sess.UserID})
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", resumed.DisplayName)

	_, err = f.svc.Resume(ctx, Session{})
	assert.ErrorIs(t, err, ErrNotSignedIn)
	_, err = f.svc.Resume(ctx, Session{UserID: "ghost"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeleteAccountWithFreshSession(t *testing.T) {
	f := newAuthServiceForTests(t)
	ctx := context.Background()
	sess, err := f.svc.Register(ctx, "ada@example.com", "secret1", "secret1", "")
	require.NoError(t, err)
	_, err = f.hub.Create(ctx, sess.UserID, model.Task{Title: "x", Emoji: "📝"})
	require.NoError(t, err)

	flow := &ReauthFlow{Session: sess}
	require.NoError(t, f.svc.DeleteAccount(ctx, flow))
	assert.False(t, flow.Reauthenticated)
	assert.EqualValues(t, 1, flow.DeletedTasks)

	_, err = f.repo.GetUser(ctx, sess.UserID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteAccountStaleSessionNeedsPassword(t *testing.T) {
	f := newAuthServiceForTests(t)
	ctx := context.Background()
	sess, err := f.svc.Register(ctx, "ada@example.com", "secret1", "secret1", "")
	require.NoError(t, err)

	*f.clock = f.clock.Add(RecentLoginWindow + time.Second)
	flow := &ReauthFlow{Session: sess}
	assert.ErrorIs(t, f.svc.DeleteAccount(ctx, flow), ErrRecentLoginRequired)

	flow.Password = "nope-nope"
	assert.ErrorIs(t, f.svc.DeleteAccount(ctx, flow), ErrWrongPassword)

	flow.Password = "secret1"
	require.NoError(t, f.svc.DeleteAccount(ctx, flow))
	assert.True(t, flow.Reauthenticated)
	assert.Equal(t, *f.clock, flow.Session.AuthenticatedAt)

	assert.ErrorIs(t, f.svc.DeleteAccount(ctx, nil), ErrNotSignedIn)
}

func TestSessionResolvedName(t *testing.T) {
	assert.Equal(t, "Ada L.", Session{DisplayName: " Ada L. ", Email: "ada@example.com"}.ResolvedName())
	assert.Equal(t, "Bob", Session{Email: "bob@example.com"}.ResolvedName())
	assert.Equal(t, "Unknown", Session{}.ResolvedName())
}

func TestSessionFresh(t *testing.T) {
	at := time.Date(2026, 2, 7, 9, 0, 0, 0, time.UTC)
	s := Session{UserID: "u", AuthenticatedAt: at}
	assert.True(t, s.Fresh(at.Add(RecentLoginWindow), RecentLoginWindow))
	assert.False(t, s.Fresh(at.Add(RecentLoginWindow+time.Nanosecond), RecentLoginWindow))
	assert.False(t, Session{UserID: "u"}.Fresh(at, RecentLoginWindow))
}
