package simulator

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/vetroai/vetro/internal/domain"
	"github.com/vetroai/vetro/internal/events"
	"github.com/vetroai/vetro/internal/store"
)

func testConfig() Config {
	return Config{
		StartDelay:    10 * time.Millisecond,
		CompleteDelay: 20 * time.Millisecond,
		ReplyDelay:    10 * time.Millisecond,
	}
}

func setup(t *testing.T) (*Simulator, store.Repository, *domain.Agent) {
	t.Helper()
	repo := store.NewMemory()
	sim := New(repo, events.NewBus(), testConfig())
	t.Cleanup(sim.Close)

	agent, err := repo.CreateAgent(context.Background(), domain.NewAgent{
		UserID:        1,
		Name:          "Aria",
		Role:          "Assistant",
		Goals:         "g",
		Personality:   "friendly",
		AutonomyLevel: "low",
		DataAccess:    []string{},
		Status:        domain.AgentOnline,
	})
	if err != nil {
		t.Fatalf("CreateAgent failed: %v", err)
	}
	return sim, repo, agent
}

func waitForStatus(t *testing.T, repo store.Repository, taskID int64, want domain.TaskStatus) *domain.Task {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		task, err := repo.GetTaskByID(context.Background(), taskID)
		if err != nil {
			t.Fatalf("GetTaskByID failed: %v", err)
		}
		if task != nil && task.Status == want {
			return task
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("Task %d never reached status %s", taskID, want)
	return nil
}

func TestTaskLifecycle(t *testing.T) {
	sim, repo, agent := setup(t)
	ctx := context.Background()

	task, err := repo.CreateTask(ctx, domain.NewTask{
		AgentID: agent.ID, UserID: 1,
		Title: "quarterly report", Description: "compile numbers",
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	sim.Schedule(task)

	waitForStatus(t, repo, task.ID, domain.TaskInProgress)
	done := waitForStatus(t, repo, task.ID, domain.TaskCompleted)

	if done.CompletedAt == nil {
		t.Error("Expected completedAt to be set")
	}
	if done.Result == nil || done.Result.Output != "Task completed successfully" {
		t.Errorf("Expected synthesized result, got %+v", done.Result)
	}

	msgs, err := repo.GetMessagesByAgentID(ctx, agent.ID)
	if err != nil {
		t.Fatalf("GetMessagesByAgentID failed: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("Expected exactly one completion message, got %d", len(msgs))
	}
	if msgs[0].Sender != domain.SenderAgent || !strings.Contains(msgs[0].Content, `"quarterly report"`) {
		t.Errorf("Unexpected completion message: %+v", msgs[0])
	}
}

func TestCancelStopsTransition(t *testing.T) {
	sim, repo, agent := setup(t)
	ctx := context.Background()

	task, err := repo.CreateTask(ctx, domain.NewTask{
		AgentID: agent.ID, UserID: 1, Title: "t", Description: "d",
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	sim.Schedule(task)

	if !sim.Cancel(task.ID) {
		t.Fatal("Expected cancel to find an armed timer")
	}
	if sim.Cancel(task.ID) {
		t.Error("Expected second cancel to report false")
	}

	time.Sleep(50 * time.Millisecond)
	reloaded, err := repo.GetTaskByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTaskByID failed: %v", err)
	}
	if reloaded.Status != domain.TaskPending {
		t.Errorf("Expected task to stay pending after cancel, got %s", reloaded.Status)
	}
}

func TestStalePatchedTaskIsSkipped(t *testing.T) {
	sim, repo, agent := setup(t)
	ctx := context.Background()

	task, err := repo.CreateTask(ctx, domain.NewTask{
		AgentID: agent.ID, UserID: 1, Title: "t", Description: "d",
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	sim.Schedule(task)

	// Patch to failed before the start timer fires.
	failed := domain.TaskFailed
	if _, err := repo.UpdateTask(ctx, task.ID, domain.TaskUpdate{Status: &failed}); err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}

	time.Sleep(60 * time.Millisecond)
	reloaded, err := repo.GetTaskByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTaskByID failed: %v", err)
	}
	if reloaded.Status != domain.TaskFailed {
		t.Errorf("Expected patched status to stick, got %s", reloaded.Status)
	}
	msgs, err := repo.GetMessagesByAgentID(ctx, agent.ID)
	if err != nil {
		t.Fatalf("GetMessagesByAgentID failed: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("Expected no completion message for a patched task, got %d", len(msgs))
	}
}

func TestScheduleReply(t *testing.T) {
	sim, repo, agent := setup(t)
	ctx := context.Background()

	if err := sim.ScheduleReply(ctx, agent, 1); err != nil {
		t.Fatalf("ScheduleReply failed: %v", err)
	}

	// Typing is set synchronously.
	typing, err := repo.GetAgentByID(ctx, agent.ID)
	if err != nil {
		t.Fatalf("GetAgentByID failed: %v", err)
	}
	if typing.Status != domain.AgentTyping {
		t.Errorf("Expected typing status, got %s", typing.Status)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		msgs, err := repo.GetMessagesByAgentID(ctx, agent.ID)
		if err != nil {
			t.Fatalf("GetMessagesByAgentID failed: %v", err)
		}
		if len(msgs) == 1 {
			if msgs[0].Sender != domain.SenderAgent {
				t.Errorf("Expected agent reply, got %+v", msgs[0])
			}
			found := false
			for _, canned := range cannedReplies {
				if msgs[0].Content == canned {
					found = true
				}
			}
			if !found {
				t.Errorf("Reply %q is not a canned response", msgs[0].Content)
			}
			restored := waitForAgentStatus(t, repo, agent.ID, domain.AgentOnline)
			if restored.Status != domain.AgentOnline {
				t.Errorf("Expected agent back online, got %s", restored.Status)
			}
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("Expected a canned reply, got none")
}

func waitForAgentStatus(t *testing.T, repo store.Repository, agentID int64, want domain.AgentStatus) *domain.Agent {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		agent, err := repo.GetAgentByID(context.Background(), agentID)
		if err != nil {
			t.Fatalf("GetAgentByID failed: %v", err)
		}
		if agent != nil && agent.Status == want {
			return agent
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("Agent %d never reached status %s", agentID, want)
	return nil
}

func TestCancelAgentStopsReplyAndTasks(t *testing.T) {
	sim, repo, agent := setup(t)
	ctx := context.Background()

	task, err := repo.CreateTask(ctx, domain.NewTask{
		AgentID: agent.ID, UserID: 1, Title: "t", Description: "d",
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	sim.Schedule(task)
	if err := sim.ScheduleReply(ctx, agent, 1); err != nil {
		t.Fatalf("ScheduleReply failed: %v", err)
	}

	if err := sim.CancelAgent(ctx, agent.ID); err != nil {
		t.Fatalf("CancelAgent failed: %v", err)
	}

	time.Sleep(60 * time.Millisecond)
	reloaded, err := repo.GetTaskByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTaskByID failed: %v", err)
	}
	if reloaded.Status != domain.TaskPending {
		t.Errorf("Expected task untouched after CancelAgent, got %s", reloaded.Status)
	}
	msgs, err := repo.GetMessagesByAgentID(ctx, agent.ID)
	if err != nil {
		t.Fatalf("GetMessagesByAgentID failed: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("Expected no reply after CancelAgent, got %d", len(msgs))
	}
}

func TestCloseStopsTimers(t *testing.T) {
	sim, repo, agent := setup(t)
	ctx := context.Background()

	task, err := repo.CreateTask(ctx, domain.NewTask{
		AgentID: agent.ID, UserID: 1, Title: "t", Description: "d",
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	sim.Schedule(task)
	sim.Close()

	// Schedule after close is a no-op.
	sim.Schedule(task)

	time.Sleep(60 * time.Millisecond)
	reloaded, err := repo.GetTaskByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTaskByID failed: %v", err)
	}
	if reloaded.Status != domain.TaskPending {
		t.Errorf("Expected task to stay pending after close, got %s", reloaded.Status)
	}
}
