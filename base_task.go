package taskrun

import (
	"context"
	"time"

	"github.com/goliatone/go-command"
)

type baseTask struct {
	id          string
	description string
	needs       []string
	group       string
	source      string
	handler     TaskFunc
	logger      Logger
}

var _ Task = &baseTask{}

// TaskOption customises tasks created with NewTask.
type TaskOption func(*baseTask)

// WithDescription sets the text printed by `<task> -h`
func WithDescription(description string) TaskOption {
	return func(t *baseTask) {
		t.description = description
	}
}

// WithNeeds declares tasks that must run before this one.
func WithNeeds(needs ...string) TaskOption {
	return func(t *baseTask) {
		for _, need := range needs {
			if need != "" {
				t.needs = append(t.needs, need)
			}
		}
	}
}

// WithGroup sets the CLI group reported through CLIOptions.
func WithGroup(group string) TaskOption {
	return func(t *baseTask) {
		t.group = group
	}
}

// WithSource records where the task was defined, e.g. a taskfile path.
func WithSource(source string) TaskOption {
	return func(t *baseTask) {
		t.source = source
	}
}

// WithTaskLogger sets the logger used to report task execution.
func WithTaskLogger(logger Logger) TaskOption {
	return func(t *baseTask) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTask builds a Task around handler.
func NewTask(id string, handler TaskFunc, opts ...TaskOption) Task {
	task := &baseTask{
		id:      id,
		handler: handler,
		logger:  newStdLoggerProvider().GetLogger("taskrun:task"),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(task)
		}
	}

	return task
}

func (t *baseTask) GetID() string {
	return t.id
}

func (t *baseTask) GetDescription() string {
	return t.description
}

func (t *baseTask) GetNeeds() []string {
	return append([]string(nil), t.needs...)
}

func (t *baseTask) GetPath() string {
	return t.source
}

// CLIOptions exposes the task as go-command CLI metadata.
func (t *baseTask) CLIOptions() command.CLIConfig {
	return command.CLIConfig{
		Path:        []string{t.id},
		Description: t.description,
		Group:       t.group,
	}
}

// SetLogger satisfies LoggerAware.
func (t *baseTask) SetLogger(logger Logger) {
	if logger != nil {
		t.logger = logger
	}
}

func (t *baseTask) Execute(ctx context.Context, inv *Invocation) error {
	if t.handler == nil {
		return nil
	}

	logger := t.taskLogger()
	baseArgs := []any{"task_id", t.id, "args", inv.Args}
	if inv.ID != "" {
		baseArgs = append(baseArgs, "invocation_id", inv.ID)
	}

	logger.Debug("task execution started", baseArgs...)

	start := time.Now()
	err := t.handler(ctx, inv)
	duration := time.Since(start)

	durationArgs := append(append([]any{}, baseArgs...), "duration", duration)

	if err != nil {
		logger.Error("task execution failed", append(durationArgs, "error", err)...)
		return err
	}

	logger.Info("task execution completed", durationArgs...)
	return nil
}

func (t *baseTask) taskLogger() Logger {
	logger := t.logger
	if logger == nil {
		logger = newStdLoggerProvider().GetLogger("taskrun:task")
	}

	fields := map[string]any{
		"task_id": t.id,
	}
	if t.source != "" {
		fields["source"] = t.source
	}

	if fl, ok := logger.(FieldsLogger); ok {
		return fl.WithFields(fields)
	}

	return logger
}
