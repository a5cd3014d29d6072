package taskrun

import (
	"fmt"
	"sync"
)

// memoryRegistry keeps tasks in registration order. Registering a name
// twice replaces the task but keeps the position of the first registration.
type memoryRegistry struct {
	mx    sync.RWMutex
	order []string
	tasks map[string]Task
}

func NewMemoryRegistry() *memoryRegistry {
	return &memoryRegistry{
		tasks: make(map[string]Task),
	}
}

func (r *memoryRegistry) Add(task Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}

	id := task.GetID()
	if id == "" {
		return fmt.Errorf("task id required")
	}

	r.mx.Lock()
	defer r.mx.Unlock()

	if _, exists := r.tasks[id]; !exists {
		r.order = append(r.order, id)
	}

	r.tasks[id] = task
	return nil
}

func (r *memoryRegistry) Get(id string) (Task, bool) {
	r.mx.RLock()
	defer r.mx.RUnlock()

	task, ok := r.tasks[id]
	return task, ok
}

func (r *memoryRegistry) List() []Task {
	r.mx.RLock()
	defer r.mx.RUnlock()

	tasks := make([]Task, 0, len(r.order))
	for _, id := range r.order {
		tasks = append(tasks, r.tasks[id])
	}
	return tasks
}

// Names returns the registered task ids in registration order.
func (r *memoryRegistry) Names() []string {
	r.mx.RLock()
	defer r.mx.RUnlock()

	return append([]string(nil), r.order...)
}
