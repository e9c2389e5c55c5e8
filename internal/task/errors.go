package task

import (
	"errors"
	"fmt"
)

var (
	ErrExists       = errors.New("task already exists")
	ErrNotFound     = errors.New("task does not exist")
	ErrInvalidStore = errors.New("invalid task list")
)

// NameError ties ErrExists / ErrNotFound to the task name involved.
type NameError struct {
	Name string
	Err  error
}

func (e *NameError) Error() string { return fmt.Sprintf("%s: %v", e.Name, e.Err) }
func (e *NameError) Unwrap() error { return e.Err }

// ValidationError reports a field that failed its format rule.
// Message is meant for the person who typed the command.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// CorruptionError locates the first structural problem in a stored document.
// Task is empty when the problem is at document level.
type CorruptionError struct {
	Task   string
	Reason string
}

func (e *CorruptionError) Error() string {
	if e.Task == "" {
		return "invalid task list: " + e.Reason
	}
	return fmt.Sprintf("invalid task list: task %q: %s", e.Task, e.Reason)
}

func (e *CorruptionError) Unwrap() error { return ErrInvalidStore }

func exists(name string) error   { return &NameError{Name: name, Err: ErrExists} }
func notFound(name string) error { return &NameError{Name: name, Err: ErrNotFound} }
