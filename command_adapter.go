package taskrun

import (
	"context"
	"fmt"

	"github.com/goliatone/go-command"
	"github.com/goliatone/go-command/router"
	"github.com/goliatone/go-errors"
)

var _ command.Commander[*Invocation] = &TaskCommander{}

// TaskCommander adapts a Task to the command.Commander interface.
type TaskCommander struct {
	task Task
}

func NewTaskCommander(task Task) *TaskCommander {
	return &TaskCommander{task: task}
}

// Execute runs the underlying Task after validating the invocation.
func (c *TaskCommander) Execute(ctx context.Context, msg *Invocation) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	if c == nil || c.task == nil {
		return errors.New("task not configured", errors.CategoryInternal).
			WithTextCode("TASK_MISSING")
	}
	return c.task.Execute(ctx, msg)
}

// TaskCommandPattern builds a mux pattern for the task commander.
func TaskCommandPattern(task Task) string {
	return TaskNamePattern(task.GetID())
}

// TaskNamePattern builds the mux pattern for a task name.
func TaskNamePattern(name string) string {
	return fmt.Sprintf("%s/%s", Invocation{}.Type(), name)
}

// RegisterTasksWithMux registers tasks as commanders on the provided mux and
// returns subscriptions for later teardown.
func RegisterTasksWithMux(mux *router.Mux, tasks []Task) []router.Subscription {
	if mux == nil {
		return nil
	}
	entries := make([]router.Subscription, 0, len(tasks))
	for _, task := range tasks {
		if task == nil {
			continue
		}
		entry := mux.Add(TaskCommandPattern(task), NewTaskCommander(task))
		entries = append(entries, entry)
	}
	return entries
}

// commanderFor returns the most recently registered commander for name.
func commanderFor(mux *router.Mux, name string) (command.Commander[*Invocation], bool) {
	if mux == nil {
		return nil, false
	}
	entries := mux.Get(TaskNamePattern(name))
	for i := len(entries) - 1; i >= 0; i-- {
		cmd, ok := entries[i].Handler.(*TaskCommander)
		if ok && cmd.task != nil && cmd.task.GetID() == name {
			return cmd, true
		}
	}
	return nil, false
}
