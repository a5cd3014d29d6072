package taskrun_test

import (
	"context"
	"sync"
	"testing"

	taskrun "github.com/goliatone/go-taskrun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTask struct {
	mock.Mock
}

func (m *MockTask) GetID() string {
	args := m.Called()
	return args.Get(0).(string)
}

func (m *MockTask) GetDescription() string {
	return ""
}

func (m *MockTask) GetNeeds() []string {
	return nil
}

func (m *MockTask) Execute(ctx context.Context, inv *taskrun.Invocation) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func TestMemoryRegistry_AddAndGet(t *testing.T) {
	registry := taskrun.NewMemoryRegistry()
	mockTask := new(MockTask)
	mockTask.On("GetID").Return("task-1")

	err := registry.Add(mockTask)
	require.NoError(t, err)

	retrieved, found := registry.Get("task-1")
	assert.True(t, found)
	assert.Equal(t, mockTask, retrieved)

	_, found = registry.Get("task-2")
	assert.False(t, found)
}

func TestMemoryRegistry_RejectsEmptyID(t *testing.T) {
	registry := taskrun.NewMemoryRegistry()
	mockTask := new(MockTask)
	mockTask.On("GetID").Return("")

	err := registry.Add(mockTask)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "id required")

	assert.Error(t, registry.Add(nil))
}

func TestMemoryRegistry_ListKeepsInsertionOrder(t *testing.T) {
	registry := taskrun.NewMemoryRegistry()
	for _, id := range []string{"deps", "build", "clean", "test", "run"} {
		require.NoError(t, registry.Add(taskrun.NewTask(id, nil)))
	}

	assert.Equal(t, []string{"deps", "build", "clean", "test", "run"}, registry.Names())

	tasks := registry.List()
	require.Len(t, tasks, 5)
	assert.Equal(t, "deps", tasks[0].GetID())
	assert.Equal(t, "run", tasks[4].GetID())
}

func TestMemoryRegistry_LastRegistrationWins(t *testing.T) {
	registry := taskrun.NewMemoryRegistry()
	first := taskrun.NewTask("build", nil, taskrun.WithDescription("first"))
	other := taskrun.NewTask("clean", nil)
	second := taskrun.NewTask("build", nil, taskrun.WithDescription("second"))

	require.NoError(t, registry.Add(first))
	require.NoError(t, registry.Add(other))
	require.NoError(t, registry.Add(second))

	assert.Equal(t, []string{"build", "clean"}, registry.Names())

	task, ok := registry.Get("build")
	require.True(t, ok)
	assert.Equal(t, "second", task.GetDescription())
}

func TestMemoryRegistry_ConcurrentAccess(t *testing.T) {
	registry := taskrun.NewMemoryRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = registry.Add(taskrun.NewTask("task", nil))
			registry.Get("task")
			registry.List()
		}(i)
	}

	wg.Wait()
	assert.Len(t, registry.List(), 1)
}
