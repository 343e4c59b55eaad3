package service

import (
	"context"
	"strings"
	"testing"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTaskEnv(t *testing.T) (*testEnv, TaskService) {
	t.Helper()
	env := newTestEnv(t)
	repo := repository.NewTaskRepository(env.db)
	svc := NewTaskService(repo, env.users, env.audit)
	return env, svc
}

func TestCreateTaskAssignsToStaffOnly(t *testing.T) {
	env, svc := newTaskEnv(t)
	ctx := context.Background()

	admin := newTestUser(t, env, "admin@example.com", "Admin")
	worker := newTestUser(t, env, "worker@example.com", "Staff")
	guest := newTestUser(t, env, "guest@example.com", "Customer")

	task, err := svc.Create(ctx, ActorFromUser(admin), CreateTaskRequest{
		Title:      "Restock minibar on floor 3",
		AssignedTo: worker.Slug,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(task.UID, "T"))
	assert.Equal(t, model.TaskPending, task.Status)
	assert.Equal(t, "worker@example.com", task.AssignedTo)

	_, err = svc.Create(ctx, ActorFromUser(admin), CreateTaskRequest{
		Title:      "Not allowed",
		AssignedTo: guest.Slug,
	})
	assert.True(t, IsValidation(err))

	_, err = svc.Create(ctx, ActorFromUser(worker), CreateTaskRequest{
		Title:      "Staff cannot assign",
		AssignedTo: worker.Slug,
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateTaskStatusPermissions(t *testing.T) {
	env, svc := newTaskEnv(t)
	ctx := context.Background()

	admin := newTestUser(t, env, "admin@example.com", "Admin")
	worker := newTestUser(t, env, "worker@example.com", "Staff")
	other := newTestUser(t, env, "other@example.com", "Staff")

	task, err := svc.Create(ctx, ActorFromUser(admin), CreateTaskRequest{
		Title:      "Clean lobby",
		AssignedTo: worker.Slug,
	})
	require.NoError(t, err)

	// The assignee can move the task along.
	updated, err := svc.UpdateStatus(ctx, ActorFromUser(worker), task.UID, UpdateTaskStatusRequest{Status: model.TaskInProgress})
	require.NoError(t, err)
	assert.Equal(t, model.TaskInProgress, updated.Status)

	// Another staff member cannot.
	_, err = svc.UpdateStatus(ctx, ActorFromUser(other), task.UID, UpdateTaskStatusRequest{Status: model.TaskCompleted})
	assert.ErrorIs(t, err, ErrForbidden)

	// Admins can.
	_, err = svc.UpdateStatus(ctx, ActorFromUser(admin), task.UID, UpdateTaskStatusRequest{Status: model.TaskCompleted})
	assert.NoError(t, err)

	// Invalid status string.
	_, err = svc.UpdateStatus(ctx, ActorFromUser(worker), task.UID, UpdateTaskStatusRequest{Status: "Paused"})
	assert.True(t, IsValidation(err))

	_, err = svc.UpdateStatus(ctx, ActorFromUser(worker), "Tmissing", UpdateTaskStatusRequest{Status: model.TaskCompleted})
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestMyTasksListsOnlyOwn(t *testing.T) {
	env, svc := newTaskEnv(t)
	ctx := context.Background()

	admin := newTestUser(t, env, "admin@example.com", "Admin")
	worker := newTestUser(t, env, "worker@example.com", "Staff")
	other := newTestUser(t, env, "other@example.com", "Staff")

	for _, assignee := range []string{worker.Slug, worker.Slug, other.Slug} {
		_, err := svc.Create(ctx, ActorFromUser(admin), CreateTaskRequest{
			Title:      "Task for " + assignee,
			AssignedTo: assignee,
		})
		require.NoError(t, err)
	}

	mine, err := svc.MyTasks(ctx, ActorFromUser(worker))
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, total, err := svc.AllTasks(ctx, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, all, 3)
}
