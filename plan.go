package taskrun

import (
	"fmt"

	"github.com/gammazero/toposort"
	"github.com/goliatone/go-errors"
)

// planNeeds returns the prerequisites of root in execution order. root
// itself is not part of the result.
func planNeeds(registry Registry, root Task) ([]Task, error) {
	var edges []toposort.Edge
	seen := map[string]bool{root.GetID(): true}
	queue := []Task{root}

	for len(queue) > 0 {
		task := queue[0]
		queue = queue[1:]

		needs := task.GetNeeds()
		if len(needs) == 0 {
			edges = append(edges, toposort.Edge{nil, task.GetID()})
			continue
		}

		for _, need := range needs {
			dep, ok := registry.Get(need)
			if !ok {
				return nil, errors.New(fmt.Sprintf("task %s needs unknown task %s", task.GetID(), need), errors.CategoryBadInput).
					WithTextCode("TASK_NEED_UNKNOWN").
					WithMetadata(map[string]any{
						"task_id": task.GetID(),
						"need":    need,
					})
			}

			// edge (need, task) means need runs before task
			edges = append(edges, toposort.Edge{need, task.GetID()})

			if !seen[need] {
				seen[need] = true
				queue = append(queue, dep)
			}
		}
	}

	sorted, err := toposort.Toposort(edges)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "task needs contain a cycle").
			WithTextCode("TASK_NEEDS_CYCLE").
			WithMetadata(map[string]any{
				"task_id": root.GetID(),
			})
	}

	plan := make([]Task, 0, len(sorted))
	for _, id := range sorted {
		if id == nil || id == root.GetID() {
			continue
		}
		task, _ := registry.Get(id.(string))
		plan = append(plan, task)
	}

	return plan, nil
}
