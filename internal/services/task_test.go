package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhub/apiserver/internal/auth"
	"github.com/taskhub/apiserver/internal/store"
	"github.com/taskhub/apiserver/types"
)

func TestCreateTask(t *testing.T) {
	e := newEnv(t)
	admin, member, _, task := e.seed(t)

	assert.Equal(t, "Ship the release", task.Title)
	assert.Equal(t, types.PriorityMedium, task.Priority)
	assert.Equal(t, types.StatusTodo, task.Status)
	assert.Equal(t, admin.ID, task.AuthorID)
	require.NotNil(t, task.AssigneeID)
	assert.Equal(t, member.ID, *task.AssigneeID)
	assert.Equal(t, []string{EventTaskCreated}, e.events.Names())
}

func TestCreateTaskRules(t *testing.T) {
	e := newEnv(t)
	admin, member, _, _ := e.seed(t)

	_, err := e.taskService.Create(anonymous(), CreateTaskInput{Title: "x"})
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)

	_, err = e.taskService.Create(as(member), CreateTaskInput{Title: "x"})
	assert.ErrorIs(t, err, auth.ErrForbidden)

	_, err = e.taskService.Create(as(admin), CreateTaskInput{Title: "  "})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.taskService.Create(as(admin), CreateTaskInput{Title: "x", Priority: "urgent"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.taskService.Create(as(admin), CreateTaskInput{Title: "Ship the release"})
	assert.ErrorIs(t, err, ErrTitleTaken)

	_, err = e.taskService.Create(as(admin), CreateTaskInput{Title: "y", AssigneeEmail: "ghost@example.com"})
	assert.ErrorIs(t, err, ErrAssigneeNotFound)

	created, err := e.taskService.Create(as(admin), CreateTaskInput{Title: "z", Priority: "high", Status: "in_progress"})
	require.NoError(t, err)
	assert.Equal(t, types.PriorityHigh, created.Priority)
	assert.Equal(t, types.StatusInProgress, created.Status)
	assert.Nil(t, created.AssigneeID)
}

func TestListTasks(t *testing.T) {
	e := newEnv(t)
	admin, member, outsider, _ := e.seed(t)
	_, err := e.taskService.Create(as(admin), CreateTaskInput{Title: "Unassigned"})
	require.NoError(t, err)

	all, total, err := e.taskService.List(anonymous(), types.TaskFilter{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, all, 2)

	page, total, err := e.taskService.List(anonymous(), types.TaskFilter{}, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, page, 1)
	assert.Equal(t, "Unassigned", page[0].Title)

	assignee := member.ID
	assigned, total, err := e.taskService.List(anonymous(), types.TaskFilter{AssigneeID: &assignee}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Ship the release", assigned[0].Title)

	mine, total, err := e.taskService.ListMine(as(member), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, mine, 1)

	mine, total, err = e.taskService.ListMine(as(outsider), 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, mine)

	_, _, err = e.taskService.ListMine(anonymous(), 0, 10)
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestUpdateStatusPermissions(t *testing.T) {
	e := newEnv(t)
	admin, member, outsider, task := e.seed(t)

	_, err := e.taskService.UpdateStatus(as(outsider), task.ID, "DONE")
	assert.ErrorIs(t, err, auth.ErrForbidden)

	updated, err := e.taskService.UpdateStatus(as(member), task.ID, "in_progress")
	require.NoError(t, err)
	assert.Equal(t, types.StatusInProgress, updated.Status)

	updated, err = e.taskService.UpdateStatus(as(admin), task.ID, "DONE")
	require.NoError(t, err)
	assert.Equal(t, types.StatusDone, updated.Status)

	_, err = e.taskService.UpdateStatus(as(admin), task.ID, "archived")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.taskService.UpdateStatus(as(admin), 999, "DONE")
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.Equal(t, []string{EventTaskCreated, EventTaskStatusChanged, EventTaskStatusChanged}, e.events.Names())
}

func TestAssignTask(t *testing.T) {
	e := newEnv(t)
	admin, member, outsider, task := e.seed(t)

	_, err := e.taskService.Assign(as(member), task.ID, outsider.Email)
	assert.ErrorIs(t, err, auth.ErrForbidden, "assignees cannot reassign")

	updated, err := e.taskService.Assign(as(admin), task.ID, outsider.Email)
	require.NoError(t, err)
	require.NotNil(t, updated.AssigneeID)
	assert.Equal(t, outsider.ID, *updated.AssigneeID)

	updated, err = e.taskService.Assign(as(admin), task.ID, "")
	require.NoError(t, err)
	assert.Nil(t, updated.AssigneeID)

	_, err = e.taskService.Assign(as(admin), task.ID, "ghost@example.com")
	assert.ErrorIs(t, err, ErrAssigneeNotFound)
}

func TestDeleteTask(t *testing.T) {
	e := newEnv(t)
	admin, member, _, task := e.seed(t)

	assert.ErrorIs(t, e.taskService.Delete(as(member), task.ID), auth.ErrForbidden)
	require.NoError(t, e.taskService.Delete(as(admin), task.ID))

	_, err := e.taskService.Get(anonymous(), task.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, e.taskService.Delete(as(admin), task.ID), store.ErrNotFound)
	assert.Contains(t, e.events.Names(), EventTaskDeleted)
}

func TestEventFailureDoesNotFailWrite(t *testing.T) {
	e := newEnv(t)
	admin, _, _, _ := e.seed(t)
	e.events.Err = assert.AnError

	created, err := e.taskService.Create(as(admin), CreateTaskInput{Title: "Still created"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
}
