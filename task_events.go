package taskrun

import (
	"path/filepath"
	"strings"
)

// TaskIDProvider defines the strategy used to derive a task name from a script path.
type TaskIDProvider func(scriptPath string) string

// DefaultTaskIDProvider uses the file name without its extension, so
// "tasks.d/reset-db.sh" becomes "reset-db".
func DefaultTaskIDProvider(scriptPath string) string {
	base := filepath.Base(scriptPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// TaskEventType discriminates between different kinds of task registration events.
type TaskEventType string

const (
	// TaskEventRegistered signals that a task was successfully registered.
	TaskEventRegistered TaskEventType = "registered"
	// TaskEventRegistrationFailed signals that a task failed to register.
	TaskEventRegistrationFailed TaskEventType = "registration_failed"
)

// TaskEvent captures contextual information about task registration outcomes.
type TaskEvent struct {
	Type   TaskEventType
	TaskID string
	Source string
	Task   Task
	Err    error
}

// TaskEventHandler consumes task registration events emitted by Dispatcher.Load.
type TaskEventHandler func(TaskEvent)

// TaskEventEmitter task creators can implement this to publish registration events upstream.
type TaskEventEmitter interface {
	AddTaskEventHandler(TaskEventHandler)
}
