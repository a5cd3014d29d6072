package taskrun

import (
	"context"
	"io"
)

type Option func(*Dispatcher)

// WithProgramName sets the name shown in the help listing
func WithProgramName(name string) Option {
	return func(d *Dispatcher) {
		if name != "" {
			d.programName = name
		}
	}
}

// WithOutput sets the writer for help, documentation and audit lines
func WithOutput(w io.Writer) Option {
	return func(d *Dispatcher) {
		if w != nil {
			d.out = w
		}
	}
}

// WithShell sets the command helpers handed to tasks. The shell keeps its
// own output writer.
func WithShell(shell *Shell) Option {
	return func(d *Dispatcher) {
		if shell != nil {
			d.shell = shell
		}
	}
}

// WithDefaultAction replaces the action run when no command is given
func WithDefaultAction(action func(ctx context.Context) error) Option {
	return func(d *Dispatcher) {
		if action != nil {
			d.defaultAction = action
		}
	}
}

// WithTasks registers tasks when the dispatcher is built
func WithTasks(tasks ...Task) Option {
	return func(d *Dispatcher) {
		for _, task := range tasks {
			if err := d.register(task); err != nil {
				d.logger.Error("task registration error", "task_id", taskID(task), "error", err)
			}
		}
	}
}

func WithTaskCreator(creators ...TaskCreator) Option {
	return func(d *Dispatcher) {
		for _, creator := range creators {
			if creator == nil {
				continue
			}
			d.attachTaskCreatorOptions(creator)
			d.taskCreators = append(d.taskCreators, creator)
		}
	}
}

func WithErrorHandler(handler func(Task, error)) Option {
	return func(d *Dispatcher) {
		if handler != nil {
			d.errorHandler = handler
		}
	}
}

// WithTaskEventHandler observes task registration results from Load
func WithTaskEventHandler(handler TaskEventHandler) Option {
	return func(d *Dispatcher) {
		if handler != nil {
			d.taskEventHandlers = append(d.taskEventHandlers, handler)
			d.propagateTaskEventHandler(handler)
		}
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(d *Dispatcher) {
		if provider != nil {
			d.loggerProvider = provider
			d.propagateLoggerProvider()
		}
	}
}
