package command

import "errors"

// ErrNotCommand means the text does not start with the command prefix.
var ErrNotCommand = errors.New("not a command")

// UsageError is a malformed command. Usage is the help text to reply with.
type UsageError struct {
	Usage string
}

func (e *UsageError) Error() string { return e.Usage }

func usageErr(u string) error { return &UsageError{Usage: u} }
