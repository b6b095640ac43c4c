package handlers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/peoplehub/hrops/internal/models"
)

func createTask(t *testing.T, env *testEnv, creatorToken string, assigneeID int64) models.Task {
	t.Helper()
	w := env.doJSON(t, http.MethodPost, "/api/tasks", creatorToken, map[string]interface{}{
		"title":          "Quarterly report",
		"description":    "Compile the Q3 numbers",
		"assigned_to_id": assigneeID,
		"deadline":       time.Now().Add(72 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var task models.Task
	decodeData(t, w, &task)
	return task
}

func TestTaskCreateRoleRestricted(t *testing.T) {
	env := newTestEnv(t)
	employee := env.newUser(t, "Sam", "sam@example.com", models.RoleBDA)

	w := env.doJSON(t, http.MethodPost, "/api/tasks", env.token(t, employee), map[string]interface{}{
		"title":          "Self-assigned",
		"assigned_to_id": employee,
		"deadline":       time.Now().Format(time.RFC3339),
	})
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestTaskLifecycle(t *testing.T) {
	env := newTestEnv(t)
	manager := env.newUser(t, "Pat", "pat@example.com", models.RoleHO)
	employee := env.newUser(t, "Sam", "sam@example.com", models.RoleBDA)
	outsider := env.newUser(t, "Lee", "lee@example.com", models.RoleBDA)

	task := createTask(t, env, env.token(t, manager), employee)
	require.Equal(t, models.TaskStatusPending, task.Status)
	require.Equal(t, models.TaskPriorityMedium, task.Priority)

	// outsiders are not parties to the task
	w := env.doJSON(t, http.MethodGet, fmt.Sprintf("/api/tasks/%d", task.ID), env.token(t, outsider), nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	// summary generation requires both reviews
	w = env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/tasks/%d/generate-ai-summary", task.ID),
		env.token(t, manager), nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// only the assignee may self-review
	w = env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/tasks/%d/employee-review", task.ID),
		env.token(t, manager), map[string]string{"review": "went fine"})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/tasks/%d/employee-review", task.ID),
		env.token(t, employee), map[string]string{"review": "finished ahead of schedule"})
	require.Equal(t, http.StatusOK, w.Code)

	var reviewed models.Task
	decodeData(t, w, &reviewed)
	require.Equal(t, models.TaskStatusCompleted, reviewed.Status)
	require.NotNil(t, reviewed.EmployeeReviewedAt)

	// only the assigner may manager-review
	w = env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/tasks/%d/manager-review", task.ID),
		env.token(t, employee), map[string]string{"review": "solid work"})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/tasks/%d/manager-review", task.ID),
		env.token(t, manager), map[string]string{"review": "solid work"})
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &reviewed)
	require.Equal(t, models.TaskStatusReviewed, reviewed.Status)

	// with both reviews present the summary lands on the task and a
	// performance review record is written
	w = env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/tasks/%d/generate-ai-summary", task.ID),
		env.token(t, manager), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	stored, err := env.tasks.GetByID(task.ID)
	require.NoError(t, err)
	require.NotEmpty(t, stored.AISummary)
	require.NotNil(t, stored.AISummaryGeneratedAt)

	records, err := env.reviews.ListByEmployee(employee)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, models.ReviewTypeTaskPerformance, records[0].Type)
	require.NotNil(t, records[0].Rating)
	require.InDelta(t, 4.5, *records[0].Rating, 0.001)
}

func TestTaskSummaryAdapterFailure(t *testing.T) {
	env := newTestEnv(t)
	manager := env.newUser(t, "Pat", "pat@example.com", models.RoleHO)
	employee := env.newUser(t, "Sam", "sam@example.com", models.RoleBDA)

	task := createTask(t, env, env.token(t, manager), employee)

	w := env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/tasks/%d/employee-review", task.ID),
		env.token(t, employee), map[string]string{"review": "done"})
	require.Equal(t, http.StatusOK, w.Code)
	w = env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/tasks/%d/manager-review", task.ID),
		env.token(t, manager), map[string]string{"review": "ok"})
	require.Equal(t, http.StatusOK, w.Code)

	env.gen.err = errStub
	w = env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/tasks/%d/generate-ai-summary", task.ID),
		env.token(t, manager), nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), "adapter unavailable")

	stored, err := env.tasks.GetByID(task.ID)
	require.NoError(t, err)
	require.Empty(t, stored.AISummary)
}

func TestTaskListRoleFiltering(t *testing.T) {
	env := newTestEnv(t)
	manager := env.newUser(t, "Pat", "pat@example.com", models.RoleHO)
	employee := env.newUser(t, "Sam", "sam@example.com", models.RoleBDA)
	outsider := env.newUser(t, "Lee", "lee@example.com", models.RoleBDA)
	hr := env.newUser(t, "Dana", "dana@example.com", models.RoleHR)

	task := createTask(t, env, env.token(t, manager), employee)

	var listing []taskWithNames

	// parties see their tasks, outsiders see nothing
	w := env.doJSON(t, http.MethodGet, "/api/tasks", env.token(t, employee), nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &listing)
	require.Len(t, listing, 1)
	require.Equal(t, "Sam", listing[0].AssignedToName)

	w = env.doJSON(t, http.MethodGet, "/api/tasks", env.token(t, outsider), nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &listing)
	require.Empty(t, listing)

	// hr only sees tasks once a summary exists
	w = env.doJSON(t, http.MethodGet, "/api/tasks", env.token(t, hr), nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &listing)
	require.Empty(t, listing)

	require.NoError(t, env.tasks.SetAISummary(nil, task.ID, `{"summary":"x"}`, time.Now()))

	w = env.doJSON(t, http.MethodGet, "/api/tasks", env.token(t, hr), nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &listing)
	require.Len(t, listing, 1)
}

func TestTaskToday(t *testing.T) {
	env := newTestEnv(t)
	manager := env.newUser(t, "Pat", "pat@example.com", models.RoleHO)
	employee := env.newUser(t, "Sam", "sam@example.com", models.RoleBDA)

	task := createTask(t, env, env.token(t, manager), employee)

	var listing []taskWithNames
	w := env.doJSON(t, http.MethodGet, "/api/tasks/today", env.token(t, employee), nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &listing)
	require.Len(t, listing, 1)
	require.Equal(t, task.ID, listing[0].ID)

	// the assigner's own today view is empty
	w = env.doJSON(t, http.MethodGet, "/api/tasks/today", env.token(t, manager), nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &listing)
	require.Empty(t, listing)
}

func TestTaskStatusUpdate(t *testing.T) {
	env := newTestEnv(t)
	manager := env.newUser(t, "Pat", "pat@example.com", models.RoleHO)
	employee := env.newUser(t, "Sam", "sam@example.com", models.RoleBDA)

	task := createTask(t, env, env.token(t, manager), employee)

	w := env.doJSON(t, http.MethodPut, fmt.Sprintf("/api/tasks/%d", task.ID),
		env.token(t, employee), map[string]string{"status": "in_progress"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.doJSON(t, http.MethodPut, fmt.Sprintf("/api/tasks/%d", task.ID),
		env.token(t, employee), map[string]string{"status": "archived"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}
