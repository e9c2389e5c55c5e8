package task

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"repeatbot/internal/storage"
	logx "repeatbot/pkg/logx"
)

// Store owns the task document at one path.
//
// Every mutation reads the whole document, validates it, applies one change
// and writes the whole document back, all under a single mutex. Access from
// other processes is not coordinated.
type Store struct {
	path  string
	files storage.Files
	log   logx.Logger

	// diag limits malformed-record diagnostics so a broken file can't flood the log.
	diag *rate.Limiter

	mu sync.Mutex
}

func NewStore(path string, files storage.Files, log logx.Logger) *Store {
	if files == nil {
		files = storage.OSFiles{}
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Store{
		path:  path,
		files: files,
		log:   log.With(logx.String("comp", "task_store")),
		diag:  rate.NewLimiter(rate.Every(time.Second), 5),
	}
}

// Path returns the location of the task document.
func (s *Store) Path() string { return s.path }

// Init creates an empty task document if none exists yet.
func (s *Store) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.files.Exists(s.path)
	if err != nil {
		s.log.Error("task list stat failed", logx.String("path", s.path), logx.Err(err))
		return fmt.Errorf("stat %s: %w", s.path, err)
	}
	if ok {
		return nil
	}
	if err := s.writeLocked(emptyDocument); err != nil {
		return err
	}
	s.log.Info("task list created", logx.String("path", s.path))
	return nil
}

// Create adds a new task. The channel is stored lower-case.
func (s *Store) Create(ctx context.Context, name string, t Task) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	t.Channel = strings.ToLower(t.Channel)
	if err := checkTask(name, t); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.loadLocked("")
	if err != nil {
		return "", err
	}
	if _, ok := tasks[name]; ok {
		return "", exists(name)
	}
	tasks[name] = t
	if err := s.saveLocked(tasks); err != nil {
		return "", err
	}
	s.log.Info("task created", logx.String("task", name), logx.String("channel", t.Channel), logx.Int64("interval_s", t.TotalWaitInterval))
	return fmt.Sprintf("Task %q created: every %s on channel %q.", name, Interval(t.TotalWaitInterval), t.Channel), nil
}

// Modify applies p to the task called name.
//
// A rename moves the record to the new key unchanged and removes the old key.
// Renaming onto an existing task fails with ErrExists.
func (s *Store) Modify(ctx context.Context, name string, p Patch) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.Kind < PatchMessage || p.Kind > PatchRename {
		return "", fmt.Errorf("unknown patch kind %d", p.Kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.loadLocked(name)
	if err != nil {
		return "", err
	}
	rec, ok := tasks[name]
	if !ok {
		return "", notFound(name)
	}

	var reply string
	if p.Kind == PatchRename {
		if p.Name == name {
			return fmt.Sprintf("Task %q renamed to %q.", name, p.Name), nil
		}
		if !ValidName(p.Name) {
			return "", &ValidationError{Field: "name", Message: MsgName}
		}
		if _, taken := tasks[p.Name]; taken {
			return "", exists(p.Name)
		}
		tasks[p.Name] = rec
		delete(tasks, name)
		reply = fmt.Sprintf("Task %q renamed to %q.", name, p.Name)
	} else {
		next := p.apply(rec)
		if err := checkTask(name, next); err != nil {
			return "", err
		}
		tasks[name] = next
		reply = fmt.Sprintf("Task %q updated: %s is now %s.", name, p.Kind, describe(p.Kind, next))
	}

	if err := s.saveLocked(tasks); err != nil {
		return "", err
	}
	s.log.Info("task modified", logx.String("task", name), logx.String("patch", p.Kind.String()))
	return reply, nil
}

// Delete removes the task called name.
func (s *Store) Delete(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.loadLocked(name)
	if err != nil {
		return "", err
	}
	if _, ok := tasks[name]; !ok {
		return "", notFound(name)
	}
	delete(tasks, name)
	if err := s.saveLocked(tasks); err != nil {
		return "", err
	}
	s.log.Info("task deleted", logx.String("task", name))
	return fmt.Sprintf("Task %q deleted.", name), nil
}

// Clear resets the document to an empty mapping, whatever it held before.
func (s *Store) Clear(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeLocked(emptyDocument); err != nil {
		return "", err
	}
	s.log.Info("task list cleared", logx.String("path", s.path))
	return "Task list cleared.", nil
}

// List returns a copy of the stored tasks.
func (s *Store) List(ctx context.Context) (Tasks, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.loadLocked("")
	if err != nil {
		return nil, err
	}
	out := make(Tasks, len(tasks))
	for k, v := range tasks {
		out[k] = v
	}
	return out, nil
}

// loadLocked reads and validates the document. When name is set and the
// document is invalid, a malformed record under that name is reported.
func (s *Store) loadLocked(name string) (Tasks, error) {
	raw, err := s.files.ReadFile(s.path)
	if err != nil {
		s.log.Error("task list read failed", logx.String("path", s.path), logx.Err(err))
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if err := ValidateDocument(raw); err != nil {
		s.log.Warn("task list failed validation", logx.String("path", s.path), logx.Err(err))
		if name != "" {
			s.diagnose(raw, name)
		}
		return nil, err
	}
	tasks, err := decodeDocument(raw)
	if err != nil {
		s.log.Error("task list decode failed", logx.String("path", s.path), logx.Err(err))
		return nil, err
	}
	return tasks, nil
}

func (s *Store) diagnose(raw []byte, name string) {
	rec, n, ok := lookupRecord(raw, name)
	if !ok || n == len(canonicalFields) {
		return
	}
	if !s.diag.Allow() {
		return
	}
	s.log.Warn("malformed task record",
		logx.String("task", name),
		logx.Int("fields", n),
		logx.String("record", rec.Raw),
	)
}

func (s *Store) saveLocked(tasks Tasks) error {
	b, err := encodeDocument(tasks)
	if err != nil {
		s.log.Error("task list encode failed", logx.Err(err))
		return err
	}
	return s.writeLocked(b)
}

func (s *Store) writeLocked(b []byte) error {
	if err := s.files.WriteFile(s.path, b); err != nil {
		s.log.Error("task list write failed", logx.String("path", s.path), logx.Err(err))
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

// checkTask applies the field rules to a complete record.
func checkTask(name string, t Task) error {
	if !ValidName(name) {
		return &ValidationError{Field: "name", Message: MsgName}
	}
	if t.TotalWaitInterval <= 0 || t.TotalWaitInterval > MaxInterval {
		return &ValidationError{Field: "interval", Message: MsgIntervalRange}
	}
	if !ValidChannel(t.Channel) {
		return &ValidationError{Field: "channel", Message: MsgChannel}
	}
	if t.TaskMessage == "" {
		return &ValidationError{Field: "message", Message: MsgMessage}
	}
	return nil
}

func describe(k PatchKind, t Task) string {
	switch k {
	case PatchMessage:
		return fmt.Sprintf("%q", t.TaskMessage)
	case PatchInterval:
		return Interval(t.TotalWaitInterval).String()
	case PatchChannel:
		return fmt.Sprintf("%q", t.Channel)
	default:
		return ""
	}
}
