// Package simulator advances tasks through their lifecycle on timers and
// produces the delayed canned chat replies. No real work is executed.
package simulator

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/vetroai/vetro/internal/domain"
	"github.com/vetroai/vetro/internal/events"
	"github.com/vetroai/vetro/internal/store"
)

// Config holds the simulated delays.
type Config struct {
	// StartDelay is the wait before a pending task moves to in_progress.
	StartDelay time.Duration
	// CompleteDelay is the further wait before an in_progress task
	// completes.
	CompleteDelay time.Duration
	// ReplyDelay is the wait before an agent's canned chat reply lands.
	ReplyDelay time.Duration
}

// DefaultConfig mirrors the product's demo timings.
func DefaultConfig() Config {
	return Config{
		StartDelay:    3 * time.Second,
		CompleteDelay: 10 * time.Second,
		ReplyDelay:    2 * time.Second,
	}
}

// cannedReplies are the non-AI chat responses picked at random.
var cannedReplies = []string{
	"I'm analyzing that information now.",
	"Great question! Let me work on that for you.",
	"I'll handle that task right away.",
	"Based on the data, I'd recommend proceeding with caution.",
	"I've reviewed your request and have some suggestions.",
}

const transitionTimeout = 10 * time.Second

// Simulator owns the deferred state transitions. Each task has at most one
// armed timer at a time, keyed by task id so it can be cancelled when the
// task or its agent goes away.
type Simulator struct {
	repo store.Repository
	bus  *events.Bus
	cfg  Config

	mu      sync.Mutex
	timers  map[int64]*time.Timer // task id -> armed stage timer
	replies map[int64]*time.Timer // agent id -> pending canned reply
	closed  bool
}

// New creates a simulator over the given repository and event bus.
func New(repo store.Repository, bus *events.Bus, cfg Config) *Simulator {
	return &Simulator{
		repo:    repo,
		bus:     bus,
		cfg:     cfg,
		timers:  make(map[int64]*time.Timer),
		replies: make(map[int64]*time.Timer),
	}
}

// Schedule arms the first stage for a freshly created pending task. The
// caller's request returns immediately; both transitions run later on timers.
func (s *Simulator) Schedule(task *domain.Task) {
	s.arm(task.ID, s.cfg.StartDelay, func() {
		s.advance(task.ID, task.UserID, task.AgentID, task.Title)
	})
}

// Cancel stops any pending transition for the task. Returns true if a timer
// was armed.
func (s *Simulator) Cancel(taskID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.timers[taskID]
	if !ok {
		return false
	}
	t.Stop()
	delete(s.timers, taskID)
	return true
}

// CancelAgent stops every pending transition belonging to the agent's tasks
// plus any pending canned reply. Called when the agent is deleted.
func (s *Simulator) CancelAgent(ctx context.Context, agentID int64) error {
	tasks, err := s.repo.GetTasksByAgentID(ctx, agentID)
	if err != nil {
		return fmt.Errorf("list agent tasks: %w", err)
	}
	for _, t := range tasks {
		s.Cancel(t.ID)
	}

	s.mu.Lock()
	if t, ok := s.replies[agentID]; ok {
		t.Stop()
		delete(s.replies, agentID)
	}
	s.mu.Unlock()
	return nil
}

// ScheduleReply flips the agent to typing and arms a canned chat reply. A
// new reply for the same agent replaces any pending one.
func (s *Simulator) ScheduleReply(ctx context.Context, agent *domain.Agent, userID int64) error {
	typing := domain.AgentTyping
	if _, err := s.repo.UpdateAgent(ctx, agent.ID, domain.AgentUpdate{Status: &typing}); err != nil {
		return fmt.Errorf("set agent typing: %w", err)
	}
	s.bus.Publish(userID, events.Event{
		Type:    events.TypeAgentStatus,
		AgentID: agent.ID,
		Payload: domain.AgentTyping,
	})

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	if prev, ok := s.replies[agent.ID]; ok {
		prev.Stop()
	}
	agentID := agent.ID
	s.replies[agentID] = time.AfterFunc(s.cfg.ReplyDelay, func() {
		s.mu.Lock()
		delete(s.replies, agentID)
		s.mu.Unlock()
		s.deliverReply(agentID, userID)
	})
	s.mu.Unlock()
	return nil
}

// Close stops every armed timer. In-flight callbacks may still complete.
func (s *Simulator) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	for id, t := range s.replies {
		t.Stop()
		delete(s.replies, id)
	}
}

// arm registers fn to fire after delay, replacing any previous timer for the
// task.
func (s *Simulator) arm(taskID int64, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if prev, ok := s.timers[taskID]; ok {
		prev.Stop()
	}
	s.timers[taskID] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, taskID)
		s.mu.Unlock()
		fn()
	})
}

// advance moves a still-pending task to in_progress and arms completion.
// Tasks that were patched or cancelled in the meantime are left alone.
func (s *Simulator) advance(taskID, userID, agentID int64, title string) {
	ctx, cancel := context.WithTimeout(context.Background(), transitionTimeout)
	defer cancel()

	task, err := s.repo.GetTaskByID(ctx, taskID)
	if err != nil {
		slog.Error("Simulator failed to load task", "task_id", taskID, "error", err)
		return
	}
	if task == nil || task.Status != domain.TaskPending {
		slog.Debug("Simulator skipping stale task start", "task_id", taskID)
		return
	}

	inProgress := domain.TaskInProgress
	updated, err := s.repo.UpdateTask(ctx, taskID, domain.TaskUpdate{Status: &inProgress})
	if err != nil {
		slog.Error("Simulator failed to start task", "task_id", taskID, "error", err)
		return
	}
	slog.Info("Task started", "task_id", taskID, "agent_id", agentID)
	s.bus.Publish(userID, events.Event{Type: events.TypeTaskUpdated, TaskID: taskID, Payload: updated})

	s.arm(taskID, s.cfg.CompleteDelay, func() {
		s.complete(taskID, userID, agentID, title)
	})
}

// complete finishes an in_progress task: terminal status, completion stamp,
// synthesized result, and exactly one announcement message from the agent.
func (s *Simulator) complete(taskID, userID, agentID int64, title string) {
	ctx, cancel := context.WithTimeout(context.Background(), transitionTimeout)
	defer cancel()

	task, err := s.repo.GetTaskByID(ctx, taskID)
	if err != nil {
		slog.Error("Simulator failed to load task", "task_id", taskID, "error", err)
		return
	}
	if task == nil || task.Status != domain.TaskInProgress {
		slog.Debug("Simulator skipping stale task completion", "task_id", taskID)
		return
	}

	completed := domain.TaskCompleted
	now := time.Now()
	updated, err := s.repo.UpdateTask(ctx, taskID, domain.TaskUpdate{
		Status:      &completed,
		CompletedAt: &now,
		Result: &domain.TaskResult{
			Output:  "Task completed successfully",
			Details: "Generated content here",
		},
	})
	if err != nil {
		slog.Error("Simulator failed to complete task", "task_id", taskID, "error", err)
		return
	}
	slog.Info("Task completed", "task_id", taskID, "agent_id", agentID)
	s.bus.Publish(userID, events.Event{Type: events.TypeTaskUpdated, TaskID: taskID, Payload: updated})

	msg, err := s.repo.CreateMessage(ctx, domain.NewMessage{
		AgentID: agentID,
		UserID:  userID,
		Content: fmt.Sprintf("I've completed the task %q. Would you like me to explain the results?", title),
		Sender:  domain.SenderAgent,
	})
	if err != nil {
		slog.Error("Simulator failed to announce completion", "task_id", taskID, "error", err)
		return
	}
	s.bus.Publish(userID, events.Event{Type: events.TypeMessageCreated, AgentID: agentID, Payload: msg})
}

// deliverReply appends a canned agent message and flips the agent back to
// online. Skipped silently if the agent was deleted while typing.
func (s *Simulator) deliverReply(agentID, userID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), transitionTimeout)
	defer cancel()

	agent, err := s.repo.GetAgentByID(ctx, agentID)
	if err != nil {
		slog.Error("Simulator failed to load agent for reply", "agent_id", agentID, "error", err)
		return
	}
	if agent == nil {
		slog.Debug("Simulator skipping reply for deleted agent", "agent_id", agentID)
		return
	}

	reply := cannedReplies[rand.Intn(len(cannedReplies))]
	msg, err := s.repo.CreateMessage(ctx, domain.NewMessage{
		AgentID: agentID,
		UserID:  userID,
		Content: reply,
		Sender:  domain.SenderAgent,
	})
	if err != nil {
		slog.Error("Simulator failed to create reply", "agent_id", agentID, "error", err)
		return
	}

	online := domain.AgentOnline
	if _, err := s.repo.UpdateAgent(ctx, agentID, domain.AgentUpdate{Status: &online}); err != nil {
		slog.Error("Simulator failed to restore agent status", "agent_id", agentID, "error", err)
	}

	s.bus.Publish(userID, events.Event{Type: events.TypeMessageCreated, AgentID: agentID, Payload: msg})
	s.bus.Publish(userID, events.Event{
		Type:    events.TypeAgentStatus,
		AgentID: agentID,
		Payload: domain.AgentOnline,
	})
}
