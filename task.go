package taskrun

import (
	"context"
	"io"

	"github.com/goliatone/go-errors"
)

type SourceProvider interface {
	GetScript(path string) (content []byte, err error)
	ListScripts(ctx context.Context) ([]ScriptInfo, error)
}

type ScriptInfo struct {
	ID      string
	Path    string
	Content []byte
}

type TaskCreator interface {
	CreateTasks(ctx context.Context) ([]Task, error)
}

// Invocation represents a request to execute a named task
type Invocation struct {
	ID       string
	TaskName string
	Args     []string
	// Shell gives the task access to the command helpers and the output sink.
	Shell *Shell
}

// Type returns the message type for the command system
func (msg Invocation) Type() string {
	return "taskrun:invocation"
}

// Validate ensures the message contains required fields
func (msg Invocation) Validate() error {
	if msg.TaskName == "" {
		return errors.New("task name cannot be empty", errors.CategoryValidation).
			WithTextCode("INVALID_INVOCATION")
	}
	if msg.Shell == nil {
		return errors.New("shell cannot be nil", errors.CategoryValidation).
			WithTextCode("INVALID_INVOCATION")
	}
	return nil
}

// Output returns the writer tasks should print to.
func (msg *Invocation) Output() io.Writer {
	if msg == nil || msg.Shell == nil {
		return io.Discard
	}
	return msg.Shell.Output()
}

// Task is a named unit of work exposed on the command line
type Task interface {
	GetID() string
	GetDescription() string
	GetNeeds() []string
	Execute(ctx context.Context, inv *Invocation) error
}

// TaskFunc is the body of a task. Args holds everything after the task name.
type TaskFunc func(ctx context.Context, inv *Invocation) error

type Registry interface {
	Add(task Task) error
	Get(id string) (Task, bool)
	List() []Task
}

const (
	// NoDocumentation is printed by the help flag for tasks without a description.
	NoDocumentation = "No documentation for this command"

	// HelpFlag triggers documentation output when passed as the last argument.
	// Any other argument, --help included, is forwarded to the task.
	HelpFlag = "-h"
)
