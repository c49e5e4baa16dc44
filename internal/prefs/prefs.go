package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/taskly/taskly/internal/auth"
	"github.com/taskly/taskly/internal/model"
)

const (
	KeyCategories    = "categories.v1"
	KeyDailyReminder = "settings.dailyReminder"
	KeySession       = "session.v1"
)

var ErrNoSession = errors.New("prefs: no saved session")

// Store is a small key/value file for device-local settings. Every write
// rewrites the whole file through a temp file and rename.
type Store struct {
	path   string
	mu     sync.Mutex
	values map[string]json.RawMessage
}

func Open(path string) (*Store, error) {
	s := &Store{path: strings.TrimSpace(path), values: make(map[string]json.RawMessage)}
	if s.path == "" {
		return s, nil
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("prefs: read %s: %w", s.path, err)
	}
	if strings.TrimSpace(string(raw)) == "" {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s.values); err != nil {
		return nil, fmt.Errorf("prefs: decode %s: %w", s.path, err)
	}
	return s, nil
}

func (s *Store) Path() string {
	return s.path
}

// Categories returns the stored set, or the defaults when nothing valid
// is stored.
func (s *Store) Categories() model.CategorySet {
	var items []string
	if !s.get(KeyCategories, &items) {
		return model.DefaultCategories
	}
	set, ok := model.CategorySetFrom(items)
	if !ok {
		return model.DefaultCategories
	}
	return set
}

func (s *Store) SetCategories(set model.CategorySet) error {
	return s.put(KeyCategories, set.Slice())
}

func (s *Store) DailyReminder() bool {
	var on bool
	s.get(KeyDailyReminder, &on)
	return on
}

func (s *Store) SetDailyReminder(on bool) error {
	return s.put(KeyDailyReminder, on)
}

func (s *Store) Session() (auth.Session, error) {
	var sess auth.Session
	if !s.get(KeySession, &sess) || !sess.Valid() {
		return auth.Session{}, ErrNoSession
	}
	return sess, nil
}

func (s *Store) SetSession(sess auth.Session) error {
	return s.put(KeySession, sess)
}

func (s *Store) ClearSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[KeySession]; !ok {
		return nil
	}
	delete(s.values, KeySession)
	return s.flushLocked()
}

func (s *Store) get(key string, dst any) bool {
	s.mu.Lock()
	raw, ok := s.values[key]
	s.mu.Unlock()
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func (s *Store) put(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("prefs: encode %s: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = raw
	return s.flushLocked()
}

func (s *Store) flushLocked() error {
	if s.path == "" {
		return nil
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "prefs-*.tmp")
	if err != nil {
		return err
	}
	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.values); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
