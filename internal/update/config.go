package update

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("config: invalid value")

type RuntimeConfig struct {
	DataDir              string `yaml:"data_dir"`
	DBPath               string `yaml:"db_path"`
	PrefsPath            string `yaml:"prefs_path"`
	LogFile              string `yaml:"log_file"`
	LogLevel             string `yaml:"log_level"`
	DesktopNotifications bool   `yaml:"desktop_notifications"`
	SchedulerBuffer      int    `yaml:"scheduler_buffer"`
	WeekStart            string `yaml:"week_start"`
	DailyReminderAt      string `yaml:"daily_reminder_at"`
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		DataDir:              DefaultDataDir(),
		LogLevel:             "info",
		DesktopNotifications: false,
		SchedulerBuffer:      64,
		WeekStart:            "monday",
		DailyReminderAt:      "08:00",
	}
}

// DefaultDataDir is $TASKLY_DATA_DIR, else $XDG_DATA_HOME/taskly, else
// ~/.local/share/taskly.
func DefaultDataDir() string {
	if dir := strings.TrimSpace(os.Getenv("TASKLY_DATA_DIR")); dir != "" {
		return dir
	}
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "taskly")
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "taskly")
}

// LoadRuntimeConfigFile overlays the YAML file at path on base. A missing
// file is not an error.
func LoadRuntimeConfigFile(base RuntimeConfig, path string) (RuntimeConfig, error) {
	if strings.TrimSpace(path) == "" {
		return base, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return base, nil
		}
		return base, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := base
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return base, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func RuntimeConfigFromEnv(base RuntimeConfig) RuntimeConfig {
	cfg := base
	if v, ok := getEnvString("TASKLY_DB_PATH"); ok {
		cfg.DBPath = v
	}
	if v, ok := getEnvString("TASKLY_PREFS_PATH"); ok {
		cfg.PrefsPath = v
	}
	if v, ok := getEnvString("TASKLY_LOG_FILE"); ok {
		cfg.LogFile = v
	}
	if v, ok := getEnvString("TASKLY_LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := getEnvBool("TASKLY_DESKTOP_NOTIFICATIONS"); ok {
		cfg.DesktopNotifications = v
	}
	if v, ok := getEnvInt("TASKLY_SCHEDULER_BUFFER"); ok && v > 0 {
		cfg.SchedulerBuffer = v
	}
	if v, ok := getEnvString("TASKLY_WEEK_START"); ok {
		cfg.WeekStart = v
	}
	if v, ok := getEnvString("TASKLY_DAILY_REMINDER_AT"); ok {
		cfg.DailyReminderAt = v
	}
	return cfg
}

func BindFlags(fs *pflag.FlagSet, cfg *RuntimeConfig) {
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory for the database, preferences and log")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path (default <data-dir>/taskly.db)")
	fs.StringVar(&cfg.PrefsPath, "prefs", cfg.PrefsPath, "preferences file (default <data-dir>/prefs.json)")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "write logs to this file")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug|info|warn|error")
	fs.BoolVar(&cfg.DesktopNotifications, "desktop-notifications", cfg.DesktopNotifications, "send reminders to the desktop")
	fs.StringVar(&cfg.WeekStart, "week-start", cfg.WeekStart, "first day of the week for the week filter")
	fs.StringVar(&cfg.DailyReminderAt, "daily-at", cfg.DailyReminderAt, "time of the daily reminder (HH:MM)")
}

func (c RuntimeConfig) Resolve() RuntimeConfig {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir()
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, "taskly.db")
	}
	if c.PrefsPath == "" {
		c.PrefsPath = filepath.Join(c.DataDir, "prefs.json")
	}
	if c.SchedulerBuffer <= 0 {
		c.SchedulerBuffer = 64
	}
	return c
}

func (c RuntimeConfig) Validate() error {
	if _, err := c.WeekStartDay(); err != nil {
		return err
	}
	if _, err := c.DailyClock(); err != nil {
		return err
	}
	return nil
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

func (c RuntimeConfig) WeekStartDay() (time.Weekday, error) {
	raw := strings.ToLower(strings.TrimSpace(c.WeekStart))
	if raw == "" {
		return time.Monday, nil
	}
	day, ok := weekdays[raw]
	if !ok {
		return 0, fmt.Errorf("%w: week_start %q", ErrInvalidConfig, c.WeekStart)
	}
	return day, nil
}

func (c RuntimeConfig) DailyClock() (time.Duration, error) {
	raw := strings.TrimSpace(c.DailyReminderAt)
	if raw == "" {
		return 8 * time.Hour, nil
	}
	t, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, fmt.Errorf("%w: daily_reminder_at %q", ErrInvalidConfig, c.DailyReminderAt)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func getEnvString(name string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	return raw, raw != ""
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvBool(name string) (bool, bool) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return false, false
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
