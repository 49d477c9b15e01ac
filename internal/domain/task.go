package domain

import "time"

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted, TaskFailed:
		return true
	}
	return false
}

// TaskResult is the synthesized payload attached when a task completes.
type TaskResult struct {
	Output  string `json:"output"`
	Details string `json:"details"`
}

// Task is a unit of delegated work owned by a user and assigned to one agent.
// CompletedAt and Result stay nil until the task reaches a terminal state.
type Task struct {
	ID          int64       `json:"id"`
	AgentID     int64       `json:"agentId"`
	UserID      int64       `json:"userId"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Status      TaskStatus  `json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
	CompletedAt *time.Time  `json:"completedAt"`
	Result      *TaskResult `json:"result"`
}

// NewTask holds the fields accepted when delegating work to an agent.
type NewTask struct {
	AgentID     int64
	UserID      int64
	Title       string
	Description string
}

// TaskUpdate lists the task fields writable after creation. Nil fields are
// left unchanged.
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *TaskStatus
	CompletedAt *time.Time
	Result      *TaskResult
}
