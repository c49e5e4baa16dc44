package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/taskly/taskly/internal/app"
	"github.com/taskly/taskly/internal/update"
)

func main() {
	if len(os.Args) > 1 {
		if handled, code := runCLI(os.Args[1:]); handled {
			os.Exit(code)
		}
	}
	os.Exit(runTUI(os.Args[1:]))
}

func runTUI(args []string) int {
	fs := pflag.NewFlagSet("taskly", pflag.ContinueOnError)
	cfg, err := loadConfig(fs, args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", fs.Arg(0))
		printHelp(os.Stderr)
		return 2
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger, closeLog, err := newLogger(cfg, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "taskly failed: %v\n", err)
		return 1
	}
	defer closeLog()

	rt, err := openEnv(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "taskly failed: %v\n", err)
		return 1
	}
	defer rt.Close()

	rt.engine.Start()
	var startErr error
	if _, err := rt.ws.Restore(ctx); err != nil && !errors.Is(err, app.ErrSignedOut) {
		logger.Warn("session restore failed", "error", err)
		startErr = err
	}

	var notifier update.DesktopNotifier = update.NoopDesktopNotifier{}
	if cfg.DesktopNotifications {
		notifier = update.ExecDesktopNotifier{}
	}
	model := update.NewModel(ctx, update.Deps{
		Workspace:  rt.ws,
		Engine:     rt.engine,
		Notifier:   notifier,
		Logger:     logger,
		Config:     cfg,
		StartupErr: startErr,
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "taskly failed: %v\n", err)
		return 1
	}
	return 0
}
