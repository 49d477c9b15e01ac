package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vetroai/vetro/internal/domain"
)

// MemoryStore implements Repository with in-process maps. A single RWMutex
// serializes access so id assignment and read-your-writes hold under
// concurrent handlers.
type MemoryStore struct {
	mu sync.RWMutex

	users    map[int64]*domain.User
	agents   map[int64]*domain.Agent
	messages map[int64]*domain.Message
	tasks    map[int64]*domain.Task

	nextUserID    int64
	nextAgentID   int64
	nextMessageID int64
	nextTaskID    int64
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		users:         make(map[int64]*domain.User),
		agents:        make(map[int64]*domain.Agent),
		messages:      make(map[int64]*domain.Message),
		tasks:         make(map[int64]*domain.Task),
		nextUserID:    1,
		nextAgentID:   1,
		nextMessageID: 1,
		nextTaskID:    1,
	}
}

// GetUserByID retrieves a user by id.
func (s *MemoryStore) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyUser(s.users[id]), nil
}

// GetUserByUsername retrieves a user by username.
func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

// CreateUser assigns the next user id and creation timestamp.
func (s *MemoryStore) CreateUser(_ context.Context, nu domain.NewUser) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := &domain.User{
		ID:             s.nextUserID,
		Username:       nu.Username,
		Password:       nu.Password,
		Email:          nu.Email,
		FullName:       nu.FullName,
		CompanyName:    nu.CompanyName,
		OnboardingStep: 1,
		CreatedAt:      time.Now(),
	}
	s.nextUserID++
	s.users[u.ID] = u
	return copyUser(u), nil
}

// UpdateUser applies the non-nil fields of upd to an existing user.
func (s *MemoryStore) UpdateUser(_ context.Context, id int64, upd domain.UserUpdate) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.FullName != nil {
		u.FullName = *upd.FullName
	}
	if upd.CompanyName != nil {
		u.CompanyName = *upd.CompanyName
	}
	if upd.Industry != nil {
		u.Industry = *upd.Industry
	}
	if upd.TeamSize != nil {
		u.TeamSize = *upd.TeamSize
	}
	if upd.AIExperienceLevel != nil {
		u.AIExperienceLevel = *upd.AIExperienceLevel
	}
	if upd.OnboardingStep != nil {
		u.OnboardingStep = *upd.OnboardingStep
	}
	if upd.OnboardingCompleted != nil {
		u.OnboardingCompleted = *upd.OnboardingCompleted
	}
	return copyUser(u), nil
}

// GetAgentByID retrieves an agent by id.
func (s *MemoryStore) GetAgentByID(_ context.Context, id int64) (*domain.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyAgent(s.agents[id]), nil
}

// GetAgentsByUserID returns all agents owned by the given user.
func (s *MemoryStore) GetAgentsByUserID(_ context.Context, userID int64) ([]*domain.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Agent
	for _, a := range s.agents {
		if a.UserID == userID {
			out = append(out, copyAgent(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CreateAgent assigns id, createdAt, and lastActive.
func (s *MemoryStore) CreateAgent(_ context.Context, na domain.NewAgent) (*domain.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	a := &domain.Agent{
		ID:                  s.nextAgentID,
		UserID:              na.UserID,
		Name:                na.Name,
		Role:                na.Role,
		Goals:               na.Goals,
		Personality:         na.Personality,
		AutonomyLevel:       na.AutonomyLevel,
		DataAccess:          append([]string(nil), na.DataAccess...),
		SpecialInstructions: na.SpecialInstructions,
		Status:              na.Status,
		CreatedAt:           now,
		LastActive:          now,
	}
	s.nextAgentID++
	s.agents[a.ID] = a
	return copyAgent(a), nil
}

// UpdateAgent applies the non-nil fields of upd to an existing agent.
func (s *MemoryStore) UpdateAgent(_ context.Context, id int64, upd domain.AgentUpdate) (*domain.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.agents[id]
	if !ok {
		return nil, nil
	}
	applyAgentUpdate(a, upd)
	return copyAgent(a), nil
}

// DeleteAgent removes an agent without cascading to messages or tasks.
func (s *MemoryStore) DeleteAgent(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.agents[id]; !ok {
		return false, nil
	}
	delete(s.agents, id)
	return true, nil
}

// GetMessagesByAgentID returns the agent's log sorted ascending by timestamp.
func (s *MemoryStore) GetMessagesByAgentID(_ context.Context, agentID int64) ([]*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Message
	for _, m := range s.messages {
		if m.AgentID == agentID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID < out[j].ID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// CreateMessage assigns id and timestamp, touching the parent agent's
// lastActive for agent-authored messages.
func (s *MemoryStore) CreateMessage(_ context.Context, nm domain.NewMessage) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := &domain.Message{
		ID:        s.nextMessageID,
		AgentID:   nm.AgentID,
		UserID:    nm.UserID,
		Content:   nm.Content,
		Sender:    nm.Sender,
		Timestamp: time.Now(),
	}
	s.nextMessageID++
	s.messages[m.ID] = m

	if nm.Sender == domain.SenderAgent {
		if a, ok := s.agents[nm.AgentID]; ok {
			a.LastActive = time.Now()
		}
	}

	cp := *m
	return &cp, nil
}

// GetTaskByID retrieves a task by id.
func (s *MemoryStore) GetTaskByID(_ context.Context, id int64) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyTask(s.tasks[id]), nil
}

// GetTasksByAgentID returns the agent's tasks, newest first.
func (s *MemoryStore) GetTasksByAgentID(_ context.Context, agentID int64) ([]*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasksWhere(func(t *domain.Task) bool { return t.AgentID == agentID }), nil
}

// GetTasksByUserID returns the user's tasks, newest first.
func (s *MemoryStore) GetTasksByUserID(_ context.Context, userID int64) ([]*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasksWhere(func(t *domain.Task) bool { return t.UserID == userID }), nil
}

// tasksWhere must be called with the lock held.
func (s *MemoryStore) tasksWhere(match func(*domain.Task) bool) []*domain.Task {
	var out []*domain.Task
	for _, t := range s.tasks {
		if match(t) {
			out = append(out, copyTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// CreateTask assigns id and createdAt and initializes the task as pending.
func (s *MemoryStore) CreateTask(_ context.Context, nt domain.NewTask) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &domain.Task{
		ID:          s.nextTaskID,
		AgentID:     nt.AgentID,
		UserID:      nt.UserID,
		Title:       nt.Title,
		Description: nt.Description,
		Status:      domain.TaskPending,
		CreatedAt:   time.Now(),
	}
	s.nextTaskID++
	s.tasks[t.ID] = t
	return copyTask(t), nil
}

// UpdateTask applies the non-nil fields of upd to an existing task.
func (s *MemoryStore) UpdateTask(_ context.Context, id int64, upd domain.TaskUpdate) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, nil
	}
	applyTaskUpdate(t, upd)
	return copyTask(t), nil
}

// Ping always succeeds for the in-memory backend.
func (s *MemoryStore) Ping(_ context.Context) error { return nil }

// Close is a no-op for the in-memory backend.
func (s *MemoryStore) Close() error { return nil }

func applyAgentUpdate(a *domain.Agent, upd domain.AgentUpdate) {
	if upd.Name != nil {
		a.Name = *upd.Name
	}
	if upd.Role != nil {
		a.Role = *upd.Role
	}
	if upd.Goals != nil {
		a.Goals = *upd.Goals
	}
	if upd.Personality != nil {
		a.Personality = *upd.Personality
	}
	if upd.AutonomyLevel != nil {
		a.AutonomyLevel = *upd.AutonomyLevel
	}
	if upd.DataAccess != nil {
		a.DataAccess = append([]string(nil), (*upd.DataAccess)...)
	}
	if upd.SpecialInstructions != nil {
		a.SpecialInstructions = *upd.SpecialInstructions
	}
	if upd.Status != nil {
		a.Status = *upd.Status
	}
	if upd.LastActive != nil {
		a.LastActive = *upd.LastActive
	}
}

func applyTaskUpdate(t *domain.Task, upd domain.TaskUpdate) {
	if upd.Title != nil {
		t.Title = *upd.Title
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.Status != nil {
		t.Status = *upd.Status
	}
	if upd.CompletedAt != nil {
		ts := *upd.CompletedAt
		t.CompletedAt = &ts
	}
	if upd.Result != nil {
		r := *upd.Result
		t.Result = &r
	}
}

func copyUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

func copyAgent(a *domain.Agent) *domain.Agent {
	if a == nil {
		return nil
	}
	cp := *a
	cp.DataAccess = append([]string(nil), a.DataAccess...)
	return &cp
}

func copyTask(t *domain.Task) *domain.Task {
	if t == nil {
		return nil
	}
	cp := *t
	if t.CompletedAt != nil {
		ts := *t.CompletedAt
		cp.CompletedAt = &ts
	}
	if t.Result != nil {
		r := *t.Result
		cp.Result = &r
	}
	return &cp
}
