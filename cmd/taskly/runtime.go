package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/taskly/taskly/internal/app"
	"github.com/taskly/taskly/internal/auth"
	"github.com/taskly/taskly/internal/events"
	"github.com/taskly/taskly/internal/filter"
	"github.com/taskly/taskly/internal/prefs"
	"github.com/taskly/taskly/internal/reminder"
	"github.com/taskly/taskly/internal/scheduler"
	"github.com/taskly/taskly/internal/storage"
	"github.com/taskly/taskly/internal/update"
)

const eventBuffer = 16

// loadConfig layers defaults, the YAML file, the environment and finally
// any flags set on the command line. fs may already carry command flags.
func loadConfig(fs *pflag.FlagSet, args []string) (update.RuntimeConfig, error) {
	configPath := fs.String("config", "", "YAML config file (default <data-dir>/config.yaml)")
	flagged := update.DefaultRuntimeConfig()
	update.BindFlags(fs, &flagged)
	if err := fs.Parse(args); err != nil {
		return update.RuntimeConfig{}, err
	}

	base := update.DefaultRuntimeConfig()
	if fs.Changed("data-dir") {
		base.DataDir = flagged.DataDir
	}
	path := *configPath
	if path == "" {
		path = filepath.Join(base.Resolve().DataDir, "config.yaml")
	}
	cfg, err := update.LoadRuntimeConfigFile(base, path)
	if err != nil {
		return update.RuntimeConfig{}, err
	}
	cfg = update.RuntimeConfigFromEnv(cfg)

	overlay := pflag.NewFlagSet(fs.Name(), pflag.ContinueOnError)
	update.BindFlags(overlay, &cfg)
	var setErr error
	fs.Visit(func(f *pflag.Flag) {
		if overlay.Lookup(f.Name) == nil {
			return
		}
		if err := overlay.Set(f.Name, f.Value.String()); err != nil {
			setErr = errors.Join(setErr, err)
		}
	})
	if setErr != nil {
		return update.RuntimeConfig{}, setErr
	}

	cfg = cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return update.RuntimeConfig{}, err
	}
	return cfg, nil
}

// newLogger writes to the configured log file. Without one the TUI logs
// nowhere and CLI commands log to stderr.
func newLogger(cfg update.RuntimeConfig, cli bool) (*slog.Logger, func(), error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	options := &slog.HandlerOptions{Level: level}

	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		return slog.New(slog.NewTextHandler(f, options)), func() { _ = f.Close() }, nil
	}
	if !cli {
		return slog.New(slog.NewTextHandler(io.Discard, options)), func() {}, nil
	}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return slog.New(slog.NewTextHandler(os.Stderr, options)), func() {}, nil
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, options)), func() {}, nil
}

type appEnv struct {
	cfg    update.RuntimeConfig
	logger *slog.Logger
	repo   *storage.SQLiteRepository
	engine *scheduler.Engine
	ws     *app.Workspace

	stopEvents func()
	done       chan struct{}
}

func openEnv(cfg update.RuntimeConfig, logger *slog.Logger) (*appEnv, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	repo, err := storage.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	store, err := prefs.Open(cfg.PrefsPath)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}
	weekStart, _ := cfg.WeekStartDay()
	dailyAt, _ := cfg.DailyClock()

	hub := storage.NewHub(repo, storage.WithHubLogger(logger))
	bus := events.NewBus(eventBuffer)
	accounts := auth.NewService(repo, hub, bus, logger)
	engine := scheduler.NewEngine(cfg.SchedulerBuffer)
	sched := reminder.NewScheduler(reminder.EngineNotifier{Engine: engine}, reminder.WithLogger(logger))
	board := app.NewBoard(app.Config{
		Store:      hub,
		Reminders:  sched,
		Categories: store,
		Calendar:   filter.Calendar{WeekStart: weekStart},
		Logger:     logger,
	})
	ws := app.NewWorkspace(app.WorkspaceConfig{
		Board:     board,
		Feed:      hub,
		Accounts:  accounts,
		Prefs:     store,
		Reminders: sched,
		DailyAt:   dailyAt,
		Logger:    logger,
	})

	rt := &appEnv{cfg: cfg, logger: logger, repo: repo, engine: engine, ws: ws, done: make(chan struct{})}
	evs, stop := bus.Subscribe()
	rt.stopEvents = stop
	go func() {
		defer close(rt.done)
		for ev := range evs {
			logger.Info("account event", "kind", ev.Kind, "user_id", ev.UserID, "email", ev.Email)
		}
	}()
	return rt, nil
}

func (r *appEnv) Close() {
	r.engine.Stop()
	r.stopEvents()
	<-r.done
	if err := r.repo.Close(); err != nil {
		r.logger.Warn("close database failed", "error", err)
	}
}
