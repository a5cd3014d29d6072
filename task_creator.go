package taskrun

import (
	"context"
	"fmt"
)

// scriptTaskCreator turns scripts listed by a SourceProvider into tasks
// that run the script through the shell with the forwarded arguments.
type scriptTaskCreator struct {
	sourceProvider SourceProvider
	parser         MetadataParser
	logger         Logger
	taskIDProvider TaskIDProvider
	eventHandlers  []TaskEventHandler
}

func NewScriptTaskCreator(provider SourceProvider) *scriptTaskCreator {
	return &scriptTaskCreator{
		sourceProvider: provider,
		parser:         NewYAMLMetadataParser(),
		logger:         newStdLoggerProvider().GetLogger("taskrun:scripts"),
		taskIDProvider: DefaultTaskIDProvider,
	}
}

// WithTaskIDProvider sets the strategy used to name scripts.
func (c *scriptTaskCreator) WithTaskIDProvider(provider TaskIDProvider) *scriptTaskCreator {
	if provider != nil {
		c.taskIDProvider = provider
	}
	return c
}

// WithMetadataParser sets a custom header parser
func (c *scriptTaskCreator) WithMetadataParser(parser MetadataParser) *scriptTaskCreator {
	if parser != nil {
		c.parser = parser
	}
	return c
}

// SetLogger satisfies LoggerAware.
func (c *scriptTaskCreator) SetLogger(logger Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// AddTaskEventHandler registers an observer for scripts that fail to parse.
func (c *scriptTaskCreator) AddTaskEventHandler(handler TaskEventHandler) {
	if handler != nil {
		c.eventHandlers = append(c.eventHandlers, handler)
	}
}

func (c *scriptTaskCreator) CreateTasks(ctx context.Context) ([]Task, error) {
	scripts, err := c.sourceProvider.ListScripts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list scripts: %w", err)
	}

	var tasks []Task

	for _, script := range scripts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		id := c.taskIDProvider(script.Path)

		meta, err := c.parser.Parse(script.Content)
		if err != nil {
			regErr := fmt.Errorf("failed to parse task %s: %w", script.Path, err)
			c.logger.Warn("script task skipped", "path", script.Path, "error", err)
			c.emitTaskEvent(TaskEvent{
				Type:   TaskEventRegistrationFailed,
				TaskID: id,
				Source: script.Path,
				Err:    regErr,
			})
			continue
		}

		path := script.Path
		tasks = append(tasks, NewTask(id,
			func(ctx context.Context, inv *Invocation) error {
				return inv.Shell.RunScript(ctx, path, inv.Args...)
			},
			WithDescription(meta.Description),
			WithNeeds(meta.Needs...),
			WithGroup(meta.Group),
			WithSource(path),
			WithTaskLogger(c.logger),
		))
	}

	return tasks, nil
}

func (c *scriptTaskCreator) emitTaskEvent(event TaskEvent) {
	for _, handler := range c.eventHandlers {
		handler(event)
	}
}
