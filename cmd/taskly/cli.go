package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/taskly/taskly/internal/app"
	"github.com/taskly/taskly/internal/auth"
	"github.com/taskly/taskly/internal/commands"
	"github.com/taskly/taskly/internal/filter"
	"github.com/taskly/taskly/internal/reminder"
	"github.com/taskly/taskly/internal/update"
)

// runCLI handles subcommands. It returns handled=false when the arguments
// should start the TUI instead.
func runCLI(args []string) (bool, int) {
	if len(args) == 0 {
		return false, 0
	}
	switch args[0] {
	case "help", "-h", "--help":
		printHelp(os.Stdout)
		return true, 0
	case "tui":
		return true, runTUI(args[1:])
	case "register":
		return true, cliRegister(args[1:])
	case "login":
		return true, cliLogin(args[1:])
	case "logout":
		return true, cliLogout(args[1:])
	case "whoami":
		return true, cliWhoami(args[1:])
	case "delete-account":
		return true, cliDeleteAccount(args[1:])
	case "list", "ls":
		return true, cliList(args[1:])
	case "notify":
		return true, cliNotify(args[1:])
	case "add", "edit", "done", "undo", "delete", "rm", "show", "daily":
		return true, cliTaskCommand(args[0], args[1:])
	default:
		return false, 0
	}
}

func printHelp(w io.Writer) {
	fmt.Fprint(w, `taskly - personal tasks with reminders

Usage:
  taskly [flags]                 start the terminal UI
  taskly tui [flags]             start the terminal UI

Account:
  taskly register --email <e> [--name <n>]
  taskly login --email <e>
  taskly logout
  taskly whoami
  taskly delete-account --yes

Tasks:
  taskly list [--filter all|today|week|overdue] [--cat <emoji|1-4>] [--done]
  taskly add <title> cat:<emoji> [due:<when>] [note:<text>]
  taskly edit <id> [title:<t>] [due:<when>|due:none] [cat:<emoji>] [note:<text>]
  taskly done|undo|delete|show <id>
  taskly daily on|off
  taskly notify                  send a test notification

Flags shared by every command:
  --config, --data-dir, --db, --prefs, --log-file, --log-level,
  --desktop-notifications, --week-start, --daily-at
`)
}

// cliSession loads the config and opens the stores. When signedIn is set
// the saved session must still be valid.
func cliSession(ctx context.Context, fs *pflag.FlagSet, args []string, signedIn bool) (*appEnv, func(), int) {
	cfg, err := loadConfig(fs, args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, nil, 0
		}
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, 2
	}
	logger, closeLog, err := newLogger(cfg, true)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, 1
	}
	rt, err := openEnv(cfg, logger)
	if err != nil {
		closeLog()
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, 1
	}
	cleanup := func() {
		rt.Close()
		closeLog()
	}
	if !signedIn {
		return rt, cleanup, -1
	}
	if _, err := rt.ws.Restore(ctx); err != nil {
		if errors.Is(err, app.ErrSignedOut) {
			fmt.Fprintln(os.Stderr, "not signed in; run `taskly login` first")
			cleanup()
			return nil, nil, 1
		}
		fmt.Fprintln(os.Stderr, update.DescribeError(err))
	}
	return rt, cleanup, -1
}

func fail(err error) int {
	fmt.Fprintln(os.Stderr, update.DescribeError(err))
	return 1
}

var stdin = bufio.NewReader(os.Stdin)

// readPassword prompts on the terminal with echo disabled, or reads one
// line from stdin when it is not a terminal.
func readPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := stdin.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(b), nil
}

func cliRegister(args []string) int {
	ctx := context.Background()
	fs := pflag.NewFlagSet("register", pflag.ContinueOnError)
	email := fs.String("email", "", "account email")
	name := fs.String("name", "", "display name (defaults to the email's local part)")
	rt, cleanup, code := cliSession(ctx, fs, args, false)
	if code >= 0 {
		return code
	}
	defer cleanup()

	password, err := readPassword("Password: ")
	if err != nil {
		return fail(err)
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		return fail(err)
	}
	sess, err := rt.ws.Register(ctx, *email, password, confirm, *name)
	if !rt.ws.SignedIn() {
		return fail(err)
	}
	fmt.Printf("registered and signed in as %s\n", sess.ResolvedName())
	if err != nil {
		return fail(err)
	}
	return 0
}

func cliLogin(args []string) int {
	ctx := context.Background()
	fs := pflag.NewFlagSet("login", pflag.ContinueOnError)
	email := fs.String("email", "", "account email")
	rt, cleanup, code := cliSession(ctx, fs, args, false)
	if code >= 0 {
		return code
	}
	defer cleanup()

	password, err := readPassword("Password: ")
	if err != nil {
		return fail(err)
	}
	sess, err := rt.ws.Login(ctx, *email, password)
	if !rt.ws.SignedIn() {
		return fail(err)
	}
	fmt.Printf("signed in as %s\n", sess.ResolvedName())
	if err != nil {
		return fail(err)
	}
	return 0
}

func cliLogout(args []string) int {
	ctx := context.Background()
	rt, cleanup, code := cliSession(ctx, pflag.NewFlagSet("logout", pflag.ContinueOnError), args, true)
	if code >= 0 {
		return code
	}
	defer cleanup()
	if err := rt.ws.SignOut(ctx); err != nil {
		return fail(err)
	}
	fmt.Println("signed out")
	return 0
}

func cliWhoami(args []string) int {
	ctx := context.Background()
	rt, cleanup, code := cliSession(ctx, pflag.NewFlagSet("whoami", pflag.ContinueOnError), args, true)
	if code >= 0 {
		return code
	}
	defer cleanup()
	sess := rt.ws.Board.Session()
	fmt.Printf("%s <%s>\n", sess.ResolvedName(), sess.Email)
	return 0
}

func cliDeleteAccount(args []string) int {
	ctx := context.Background()
	fs := pflag.NewFlagSet("delete-account", pflag.ContinueOnError)
	yes := fs.Bool("yes", false, "confirm deleting the account and every task")
	rt, cleanup, code := cliSession(ctx, fs, args, true)
	if code >= 0 {
		return code
	}
	defer cleanup()
	if !*yes {
		fmt.Fprintln(os.Stderr, "this deletes your account and all tasks; rerun with --yes")
		return 2
	}

	flow, err := rt.ws.DeleteAccount(ctx, "")
	if errors.Is(err, auth.ErrRecentLoginRequired) {
		password, perr := readPassword("Password: ")
		if perr != nil {
			return fail(perr)
		}
		flow, err = rt.ws.DeleteAccount(ctx, password)
	}
	if flow == nil || (err != nil && rt.ws.SignedIn()) {
		return fail(err)
	}
	fmt.Printf("account deleted with %d task(s)\n", flow.DeletedTasks)
	if err != nil {
		return fail(err)
	}
	return 0
}

func cliList(args []string) int {
	ctx := context.Background()
	fs := pflag.NewFlagSet("list", pflag.ContinueOnError)
	mode := fs.String("filter", "all", "all|today|week|overdue")
	cat := fs.String("cat", "", "category emoji or index 1-4")
	showDone := fs.Bool("done", false, "also list completed tasks")
	rt, cleanup, code := cliSession(ctx, fs, args, true)
	if code >= 0 {
		return code
	}
	defer cleanup()

	board := rt.ws.Board
	dm, err := filter.ParseDateMode(*mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	board.SetDateFilter(dm)
	if *cat != "" {
		if idx, convErr := strconv.Atoi(*cat); convErr == nil {
			err = board.SetCategoryIndex(idx)
		} else {
			err = board.SetCategory(*cat)
		}
		if err != nil {
			return fail(err)
		}
	}

	now := time.Now()
	pending := board.Pending(now)
	if board.Empty() {
		fmt.Println("No tasks yet.")
		return 0
	}
	for _, t := range pending {
		fmt.Println(update.DescribeTask(t, now))
	}
	if *showDone {
		completed := board.Completed(now)
		if len(completed) > 0 {
			fmt.Println("Done:")
		}
		for _, t := range completed {
			fmt.Println(update.DescribeTask(t, now))
		}
	}
	return 0
}

func cliTaskCommand(name string, args []string) int {
	ctx := context.Background()
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetInterspersed(false)
	rt, cleanup, code := cliSession(ctx, fs, args, true)
	if code >= 0 {
		return code
	}
	defer cleanup()

	cmd, err := commands.Parse(name + " " + strings.Join(fs.Args(), " "))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	res, err := commands.Execute(cmd, update.BoardHandlers(ctx, rt.ws, time.Now))
	if res.Message != "" {
		fmt.Println(res.Message)
	}
	if err != nil {
		return fail(err)
	}
	return 0
}

func cliNotify(args []string) int {
	ctx := context.Background()
	fs := pflag.NewFlagSet("notify", pflag.ContinueOnError)
	wait := fs.Duration("wait", 5*time.Second, "delay before the notification")
	rt, cleanup, code := cliSession(ctx, fs, args, false)
	if code >= 0 {
		return code
	}
	defer cleanup()

	rt.engine.Start()
	req, err := rt.ws.SendSample(ctx, *wait)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("test notification at %s\n", req.FireAt.Format("15:04:05"))

	timer := time.NewTimer(*wait + 5*time.Second)
	defer timer.Stop()
	for {
		select {
		case ev := <-rt.engine.C():
			if ev.ID != reminder.SampleID {
				continue
			}
			fmt.Printf("%s: %s\n", ev.Title, ev.Body)
			if rt.cfg.DesktopNotifications {
				n := update.Notification{Title: ev.Title, Body: ev.Body, Level: "reminder", At: ev.TriggerAt}
				if err := (update.ExecDesktopNotifier{}).Send(n); err != nil {
					rt.logger.Warn("desktop notification failed", "error", err)
				}
			}
			return 0
		case <-timer.C:
			fmt.Fprintln(os.Stderr, "notification did not fire")
			return 1
		}
	}
}
