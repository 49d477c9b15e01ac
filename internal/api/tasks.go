package api

import (
	"log/slog"
	"net/http"

	"github.com/vetroai/vetro/internal/domain"
	"github.com/vetroai/vetro/internal/events"
)

// ListTasks returns all tasks owned by the caller, newest first.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	tasks, err := h.repo.GetTasksByUserID(r.Context(), userID)
	if err != nil {
		Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	JSON(w, http.StatusOK, tasks)
}

// ListAgentTasks returns one agent's tasks, newest first.
func (h *Handler) ListAgentTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	agent := h.ownedAgent(w, r, userID)
	if agent == nil {
		return
	}

	tasks, err := h.repo.GetTasksByAgentID(r.Context(), agent.ID)
	if err != nil {
		Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	JSON(w, http.StatusOK, tasks)
}

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (req *createTaskRequest) validate() map[string]string {
	fields := make(map[string]string)
	if req.Title == "" {
		fields["title"] = "title is required"
	}
	if req.Description == "" {
		fields["description"] = "description is required"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// CreateTask delegates work to an agent. The response returns immediately
// with the pending task; the simulator advances it later.
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	agent := h.ownedAgent(w, r, userID)
	if agent == nil {
		return
	}

	var req createTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid data")
		return
	}
	if fields := req.validate(); fields != nil {
		fieldErrors(w, fields)
		return
	}

	task, err := h.repo.CreateTask(r.Context(), domain.NewTask{
		AgentID:     agent.ID,
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.sim.Schedule(task)
	slog.Info("Task created", "task_id", task.ID, "agent_id", agent.ID, "user_id", userID)
	JSON(w, http.StatusCreated, task)
}

type updateTaskRequest struct {
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	Status      *domain.TaskStatus `json:"status"`
	Result      *domain.TaskResult `json:"result"`
}

// UpdateTask applies a partial update to a task owned by the caller. This is
// the only path to the failed status; the simulator never sets it.
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	id, err := pathID(r)
	if err != nil {
		Error(w, http.StatusBadRequest, "Invalid task ID")
		return
	}

	task, err := h.repo.GetTaskByID(r.Context(), id)
	if err != nil {
		Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if task == nil {
		Error(w, http.StatusNotFound, "Task not found")
		return
	}
	if task.UserID != userID {
		Error(w, http.StatusForbidden, "Access denied")
		return
	}

	var req updateTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid data")
		return
	}
	if req.Status != nil && !req.Status.Valid() {
		fieldErrors(w, map[string]string{"status": "status must be pending, in_progress, completed, or failed"})
		return
	}

	updated, err := h.repo.UpdateTask(r.Context(), id, domain.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Result:      req.Result,
	})
	if err != nil {
		Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// A status patch supersedes any armed simulator stage.
	if req.Status != nil {
		h.sim.Cancel(id)
	}

	h.bus.Publish(userID, events.Event{
		Type:    events.TypeTaskUpdated,
		TaskID:  id,
		Payload: updated,
	})
	JSON(w, http.StatusOK, updated)
}
