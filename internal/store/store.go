// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/vetroai/vetro/internal/domain"
)

// Repository defines the interface for persisting users, agents, messages,
// and tasks. Lookups for unknown ids return (nil, nil); errors are reserved
// for backend failures.
type Repository interface {
	// GetUserByID retrieves a user by id.
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)

	// GetUserByUsername retrieves a user by their unique username.
	// The store does not enforce uniqueness itself; registration must
	// pre-check with this method before calling CreateUser.
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)

	// CreateUser assigns the next user id and creation timestamp.
	CreateUser(ctx context.Context, u domain.NewUser) (*domain.User, error)

	// UpdateUser applies the non-nil fields of upd to an existing user.
	// Returns (nil, nil) if the id is unknown.
	UpdateUser(ctx context.Context, id int64, upd domain.UserUpdate) (*domain.User, error)

	// GetAgentByID retrieves an agent by id.
	GetAgentByID(ctx context.Context, id int64) (*domain.Agent, error)

	// GetAgentsByUserID returns all agents owned by the given user.
	GetAgentsByUserID(ctx context.Context, userID int64) ([]*domain.Agent, error)

	// CreateAgent assigns id, createdAt, and lastActive. The caller supplies
	// the initial status.
	CreateAgent(ctx context.Context, a domain.NewAgent) (*domain.Agent, error)

	// UpdateAgent applies the non-nil fields of upd to an existing agent.
	// Returns (nil, nil) if the id is unknown.
	UpdateAgent(ctx context.Context, id int64, upd domain.AgentUpdate) (*domain.Agent, error)

	// DeleteAgent removes an agent. It does not cascade to the agent's
	// messages or tasks. Returns false if the id is unknown.
	DeleteAgent(ctx context.Context, id int64) (bool, error)

	// GetMessagesByAgentID returns the agent's conversation log sorted
	// ascending by timestamp.
	GetMessagesByAgentID(ctx context.Context, agentID int64) ([]*domain.Message, error)

	// CreateMessage assigns id and timestamp. When the sender is "agent",
	// the parent agent's lastActive is advanced to the message timestamp.
	CreateMessage(ctx context.Context, m domain.NewMessage) (*domain.Message, error)

	// GetTaskByID retrieves a task by id.
	GetTaskByID(ctx context.Context, id int64) (*domain.Task, error)

	// GetTasksByAgentID returns the agent's tasks sorted descending by
	// creation time.
	GetTasksByAgentID(ctx context.Context, agentID int64) ([]*domain.Task, error)

	// GetTasksByUserID returns the user's tasks sorted descending by
	// creation time.
	GetTasksByUserID(ctx context.Context, userID int64) ([]*domain.Task, error)

	// CreateTask assigns id and createdAt and initializes the task as
	// pending with nil completedAt and result.
	CreateTask(ctx context.Context, t domain.NewTask) (*domain.Task, error)

	// UpdateTask applies the non-nil fields of upd to an existing task.
	// Returns (nil, nil) if the id is unknown.
	UpdateTask(ctx context.Context, id int64, upd domain.TaskUpdate) (*domain.Task, error)

	// Ping verifies backend connectivity.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
