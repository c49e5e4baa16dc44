package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskly/taskly/internal/events"
	"github.com/taskly/taskly/internal/storage"
)

var (
	ErrInvalidEmail        = errors.New("auth: invalid email")
	ErrWeakPassword        = errors.New("auth: password must be at least 6 characters")
	ErrPasswordMismatch    = errors.New("auth: passwords do not match")
	ErrEmailInUse          = errors.New("auth: email already registered")
	ErrUserNotFound        = errors.New("auth: user not found")
	ErrWrongPassword       = errors.New("auth: wrong password")
	ErrNotSignedIn         = errors.New("auth: not signed in")
	ErrRecentLoginRequired = errors.New("auth: recent login required")
)

const (
	MinPasswordLength = 6
	RecentLoginWindow = 5 * time.Minute
)

type UserStore interface {
	CreateUser(ctx context.Context, in storage.User) error
	GetUser(ctx context.Context, id string) (storage.User, error)
	GetUserByEmail(ctx context.Context, email string) (storage.User, error)
	DeleteUser(ctx context.Context, id string) error
}

type TaskPurger interface {
	DeleteAll(ctx context.Context, userID string) (int64, error)
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.cost = cost
	}
}

type Service struct {
	users  UserStore
	tasks  TaskPurger
	bus    *events.Bus
	logger *slog.Logger
	now    func() time.Time
	cost   int
}

func NewService(users UserStore, tasks TaskPurger, bus *events.Bus, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Service{
		users:  users,
		tasks:  tasks,
		bus:    bus,
		logger: logger,
		now:    time.Now,
		cost:   bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || strings.ToLower(addr.Address) != email {
		return ErrInvalidEmail
	}
	return nil
}

func validatePassword(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

// Register creates an account and signs it in. An empty display name is
// derived from the email address.
func (s *Service) Register(ctx context.Context, email, password, confirm, displayName string) (Session, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return Session{}, err
	}
	if err := validatePassword(password); err != nil {
		return Session{}, err
	}
	if password != confirm {
		return Session{}, ErrPasswordMismatch
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = NameFromEmail(email)
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return Session{}, ErrEmailInUse
	} else if !errors.Is(err, storage.ErrNotFound) {
		return Session{}, fmt.Errorf("auth: lookup %s: %w", email, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return Session{}, fmt.Errorf("auth: hash password: %w", err)
	}
	now := s.now().UTC()
	user := storage.User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		CreatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return Session{}, ErrEmailInUse
		}
		return Session{}, fmt.Errorf("auth: create user: %w", err)
	}

	sess := sessionFor(user, now)
	s.logger.Info("user registered", "user_id", user.ID)
	s.publish(events.KindRegistered, sess)
	return sess, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return Session{}, err
	}
	if err := validatePassword(password); err != nil {
		return Session{}, err
	}
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Session{}, ErrUserNotFound
		}
		return Session{}, fmt.Errorf("auth: lookup %s: %w", email, err)
	}
	if err := checkPassword(user, password); err != nil {
		s.logger.Warn("login rejected", "user_id", user.ID)
		return Session{}, err
	}

	sess := sessionFor(user, s.now().UTC())
	s.logger.Info("user logged in", "user_id", user.ID)
	s.publish(events.KindLoggedIn, sess)
	return sess, nil
}

// Resume checks that a persisted session still refers to an existing
// account and refreshes its display name.
func (s *Service) Resume(ctx context.Context, sess Session) (Session, error) {
	if !sess.Valid() {
		return Session{}, ErrNotSignedIn
	}
	user, err := s.users.GetUser(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Session{}, ErrUserNotFound
		}
		return Session{}, fmt.Errorf("auth: lookup user %s: %w", sess.UserID, err)
	}
	sess.Email = user.Email
	sess.DisplayName = user.DisplayName
	return sess, nil
}

func (s *Service) SignOut(sess Session) {
	if !sess.Valid() {
		return
	}
	s.logger.Info("user signed out", "user_id", sess.UserID)
	s.publish(events.KindSignedOut, sess)
}

// ReauthFlow carries the state of an account deletion that may need the
// user to confirm their password again.
type ReauthFlow struct {
	Session  Session
	Password string

	Reauthenticated bool
	DeletedTasks    int64
}

// DeleteAccount removes the user's tasks and then the account itself. A
// session older than RecentLoginWindow needs flow.Password.
func (s *Service) DeleteAccount(ctx context.Context, flow *ReauthFlow) error {
	if flow == nil || !flow.Session.Valid() {
		return ErrNotSignedIn
	}
	now := s.now().UTC()
	if !flow.Session.Fresh(now, RecentLoginWindow) {
		if flow.Password == "" {
			return ErrRecentLoginRequired
		}
		user, err := s.users.GetUser(ctx, flow.Session.UserID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("auth: lookup user %s: %w", flow.Session.UserID, err)
		}
		if err := checkPassword(user, flow.Password); err != nil {
			return err
		}
		flow.Session.AuthenticatedAt = now
		flow.Reauthenticated = true
	}

	n, err := s.tasks.DeleteAll(ctx, flow.Session.UserID)
	if err != nil {
		return fmt.Errorf("auth: delete tasks: %w", err)
	}
	flow.DeletedTasks = n
	if err := s.users.DeleteUser(ctx, flow.Session.UserID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("auth: delete user: %w", err)
	}

	s.logger.Info("account deleted", "user_id", flow.Session.UserID, "tasks", n)
	s.publish(events.KindAccountDeleted, flow.Session)
	return nil
}

func checkPassword(user storage.User, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrWrongPassword
		}
		return fmt.Errorf("auth: compare password: %w", err)
	}
	return nil
}

func sessionFor(user storage.User, at time.Time) Session {
	return Session{
		UserID:          user.ID,
		Email:           user.Email,
		DisplayName:     user.DisplayName,
		AuthenticatedAt: at,
	}
}

func (s *Service) publish(kind events.Kind, sess Session) {
	s.bus.Publish(events.Event{
		Kind:        kind,
		UserID:      sess.UserID,
		Email:       sess.Email,
		DisplayName: sess.DisplayName,
		At:          s.now().UTC(),
	})
}
