package taskrun

import (
	stderrors "errors"
	"fmt"

	"github.com/goliatone/go-errors"
)

var (
	// ErrTaskNotFound is returned by Dispatcher.Run after the help listing
	// has been printed for an unknown task name.
	ErrTaskNotFound = errors.New("task not found", errors.CategoryBadInput).
			WithTextCode("TASK_NOT_FOUND")
)

const (
	// ExitUnknownTask is the process status used when the task name is unknown.
	ExitUnknownTask = 2
)

// CommandError reports a checked command that did not exit cleanly.
type CommandError struct {
	Command  string
	Dir      string
	ExitCode int
	Err      error
}

func (e *CommandError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("command %q exited with status %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("command %q failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExitCode maps an error returned by Dispatcher.Run to a process exit status.
// Failed checked commands propagate the subprocess status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	if IsTaskNotFound(err) {
		return ExitUnknownTask
	}

	var cmdErr *CommandError
	if stderrors.As(err, &cmdErr) && cmdErr.ExitCode > 0 {
		return cmdErr.ExitCode
	}

	return 1
}

// IsTaskNotFound reports whether err is, or wraps, ErrTaskNotFound.
func IsTaskNotFound(err error) bool {
	for err != nil {
		if err == ErrTaskNotFound {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}
