package taskrun

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goliatone/go-command/router"
	"github.com/google/uuid"
)

// Dispatcher resolves the first command line argument to a task and
// invokes it with the remaining arguments.
type Dispatcher struct {
	mx       sync.RWMutex
	registry Registry
	mux      *router.Mux

	programName       string
	out               io.Writer
	shell             *Shell
	defaultAction     func(ctx context.Context) error
	errorHandler      func(Task, error)
	taskCreators      []TaskCreator
	logger            Logger
	loggerProvider    LoggerProvider
	taskEventHandlers []TaskEventHandler
}

func NewDispatcher(opts ...Option) *Dispatcher {
	loggerProvider := newStdLoggerProvider()
	d := &Dispatcher{
		registry:       NewMemoryRegistry(),
		mux:            router.NewMux(),
		programName:    filepath.Base(os.Args[0]),
		out:            os.Stdout,
		loggerProvider: loggerProvider,
		logger:         loggerProvider.GetLogger("taskrun:dispatcher"),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}

	if d.shell == nil {
		d.shell = NewShell(
			WithShellOutput(d.out),
			WithShellLogger(d.loggerProvider.GetLogger("taskrun:shell")),
		)
	}

	if d.defaultAction == nil {
		d.defaultAction = func(context.Context) error {
			d.ShowHelp()
			return nil
		}
	}

	if d.errorHandler == nil {
		d.errorHandler = func(task Task, err error) {
			if task != nil {
				d.logger.Error("task registration error", "task_id", task.GetID(), "error", err)
				return
			}
			d.logger.Error("dispatcher error", "error", err)
		}
	}

	return d
}

// Shell returns the command helpers handed to tasks.
func (d *Dispatcher) Shell() *Shell {
	return d.shell
}

// Register adds tasks in order. A task with an already registered name
// replaces the previous one.
func (d *Dispatcher) Register(tasks ...Task) error {
	d.mx.Lock()
	defer d.mx.Unlock()

	for _, task := range tasks {
		if err := d.register(task); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) register(task Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}

	if _, exists := d.registry.Get(task.GetID()); exists {
		d.logger.Warn("task redefined, last definition wins", "task_id", task.GetID())
	}

	if err := d.registry.Add(task); err != nil {
		return err
	}

	if aware, ok := task.(LoggerAware); ok && d.loggerProvider != nil {
		aware.SetLogger(d.loggerProvider.GetLogger("taskrun:task"))
	}

	RegisterTasksWithMux(d.mux, []Task{task})
	return nil
}

// Load collects tasks from the configured task creators and registers them
// in creator order.
func (d *Dispatcher) Load(ctx context.Context) error {
	for _, creator := range d.taskCreators {
		if err := ctx.Err(); err != nil {
			d.handleContextCancellation(err)
			return err
		}

		tasks, err := creator.CreateTasks(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				d.handleContextCancellation(ctxErr)
				return ctxErr
			}

			d.errorHandler(nil, err)
			d.emitTaskEvent(TaskEvent{
				Type: TaskEventRegistrationFailed,
				Err:  err,
			})
			continue
		}

		for _, task := range tasks {
			if err := d.Register(task); err != nil {
				d.errorHandler(task, err)
				d.emitTaskEvent(TaskEvent{
					Type:   TaskEventRegistrationFailed,
					TaskID: taskID(task),
					Source: taskSource(task),
					Task:   task,
					Err:    err,
				})
				continue
			}

			d.emitTaskEvent(TaskEvent{
				Type:   TaskEventRegistered,
				TaskID: task.GetID(),
				Source: taskSource(task),
				Task:   task,
			})
		}
	}

	return nil
}

// Resolve looks up a task by exact name.
func (d *Dispatcher) Resolve(name string) (Task, bool) {
	d.mx.RLock()
	defer d.mx.RUnlock()
	return d.registry.Get(name)
}

// ListTasks returns the registered task names in registration order.
func (d *Dispatcher) ListTasks() []string {
	d.mx.RLock()
	defer d.mx.RUnlock()

	if named, ok := d.registry.(interface{ Names() []string }); ok {
		return named.Names()
	}

	tasks := d.registry.List()
	names := make([]string, 0, len(tasks))
	for _, task := range tasks {
		names = append(names, task.GetID())
	}
	return names
}

// ShowHelp prints the list of available task names.
func (d *Dispatcher) ShowHelp() {
	names := d.ListTasks()
	parts := append([]string{}, names...)
	parts = append(parts, "<command> "+HelpFlag)
	fmt.Fprintln(d.out, "Command not found, try", d.programName, strings.Join(parts, " | "))
}

// ShowDoc prints the description of task, or a fallback for undocumented tasks.
func (d *Dispatcher) ShowDoc(task Task) {
	doc := dedent(task.GetDescription())
	if doc == "" {
		doc = NoDocumentation
	}
	fmt.Fprintln(d.out, doc)
}

// Run handles one command line. argv excludes the program name.
func (d *Dispatcher) Run(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		d.logger.Debug("no command given, running default action")
		return d.defaultAction(ctx)
	}

	name := argv[0]
	task, found := d.Resolve(name)

	if argv[len(argv)-1] == HelpFlag {
		if !found {
			d.ShowHelp()
			return ErrTaskNotFound
		}
		d.ShowDoc(task)
		return nil
	}

	if !found {
		d.logger.Debug("task not found", "task_id", name)
		d.ShowHelp()
		return ErrTaskNotFound
	}

	return d.execute(ctx, task, argv[1:])
}

// Invoke runs task name and its needs with args, without the help handling
// of Run.
func (d *Dispatcher) Invoke(ctx context.Context, name string, args ...string) error {
	task, ok := d.Resolve(name)
	if !ok {
		return ErrTaskNotFound
	}
	return d.execute(ctx, task, args)
}

func (d *Dispatcher) execute(ctx context.Context, task Task, args []string) error {
	d.mx.RLock()
	plan, err := planNeeds(d.registry, task)
	d.mx.RUnlock()
	if err != nil {
		return err
	}

	id := uuid.NewString()
	logger := d.logger
	if fl, ok := logger.(FieldsLogger); ok {
		logger = fl.WithFields(map[string]any{"invocation_id": id})
	}

	for _, need := range plan {
		logger.Debug("running prerequisite", "task_id", task.GetID(), "need", need.GetID())
		if err := d.invoke(ctx, id, need, nil); err != nil {
			return err
		}
	}

	logger.Debug("running task", "task_id", task.GetID(), "args", args)
	return d.invoke(ctx, id, task, args)
}

func (d *Dispatcher) invoke(ctx context.Context, id string, task Task, args []string) error {
	inv := &Invocation{
		ID:       id,
		TaskName: task.GetID(),
		Args:     append([]string{}, args...),
		Shell:    d.shell,
	}

	d.mx.RLock()
	cmd, ok := commanderFor(d.mux, task.GetID())
	d.mx.RUnlock()
	if !ok {
		cmd = NewTaskCommander(task)
	}

	return cmd.Execute(ctx, inv)
}

func (d *Dispatcher) emitTaskEvent(event TaskEvent) {
	switch event.Type {
	case TaskEventRegistered:
		d.logger.Debug("task registered", "task_id", event.TaskID, "source", event.Source)
	case TaskEventRegistrationFailed:
		args := []any{
			"task_id", event.TaskID,
			"source", event.Source,
		}
		if event.Err != nil {
			args = append(args, "error", event.Err)
		}
		d.logger.Warn("task registration failed", args...)
	}

	for _, handler := range d.taskEventHandlers {
		handler(event)
	}
}

func (d *Dispatcher) handleContextCancellation(err error) {
	if err == nil {
		return
	}
	d.logger.Warn("task loading cancelled", "error", err)
	d.errorHandler(nil, err)
	d.emitTaskEvent(TaskEvent{
		Type: TaskEventRegistrationFailed,
		Err:  err,
	})
}

func (d *Dispatcher) attachTaskCreatorOptions(creator TaskCreator) {
	if creator == nil {
		return
	}

	if d.loggerProvider != nil {
		switch tc := creator.(type) {
		case LoggerProviderAware:
			tc.SetLoggerProvider(d.loggerProvider)
		case LoggerAware:
			tc.SetLogger(d.loggerProvider.GetLogger("taskrun:task_creator"))
		}
	}

	if emitter, ok := creator.(TaskEventEmitter); ok {
		for _, handler := range d.taskEventHandlers {
			emitter.AddTaskEventHandler(handler)
		}
	}
}

func (d *Dispatcher) propagateTaskEventHandler(handler TaskEventHandler) {
	if handler == nil {
		return
	}

	for _, creator := range d.taskCreators {
		if emitter, ok := creator.(TaskEventEmitter); ok {
			emitter.AddTaskEventHandler(handler)
		}
	}
}

func (d *Dispatcher) propagateLoggerProvider() {
	if d.loggerProvider == nil {
		return
	}

	d.logger = d.loggerProvider.GetLogger("taskrun:dispatcher")

	for _, creator := range d.taskCreators {
		if tc, ok := creator.(LoggerProviderAware); ok {
			tc.SetLoggerProvider(d.loggerProvider)
		}
	}
}

func taskID(task Task) string {
	if task == nil {
		return ""
	}
	return task.GetID()
}

func taskSource(task Task) string {
	if task == nil {
		return ""
	}
	type pathAware interface {
		GetPath() string
	}
	if v, ok := task.(pathAware); ok {
		return v.GetPath()
	}
	return ""
}

// dedent removes the common leading whitespace of all non-blank lines and
// trims the result.
func dedent(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\t", "    "), "\n")

	margin := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " "))
		if margin < 0 || indent < margin {
			margin = indent
		}
	}

	if margin > 0 {
		for i, line := range lines {
			if len(line) >= margin {
				lines[i] = line[margin:]
			} else {
				lines[i] = strings.TrimLeft(line, " ")
			}
		}
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}
