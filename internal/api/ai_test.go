package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/vetroai/vetro/internal/domain"
)

func TestAgentMessageExchange(t *testing.T) {
	env := newTestEnv(t)
	aliceID, token := env.loginAs(t, "alice")
	agent := env.createAgent(t, aliceID)

	w := env.do(t, http.MethodPost, fmt.Sprintf("/api/ai/agents/%d/message", agent.ID), token, map[string]string{
		"content": "Can you help me?",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	got := decodeBody(t, w)
	message, ok := got["message"].(map[string]any)
	if !ok {
		t.Fatalf("Expected message object, got %v", got)
	}
	if message["sender"] != "agent" {
		t.Errorf("Expected agent sender, got %v", message["sender"])
	}
	content, _ := message["content"].(string)
	if !strings.Contains(content, "I'm here to help you with") {
		t.Errorf("Expected rule-engine help reply, got %q", content)
	}

	// Both sides of the exchange are persisted.
	msgs, err := env.repo.GetMessagesByAgentID(context.Background(), agent.ID)
	if err != nil {
		t.Fatalf("GetMessagesByAgentID failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("Expected user and agent messages persisted, got %d", len(msgs))
	}
	if msgs[0].Sender != domain.SenderUser || msgs[1].Sender != domain.SenderAgent {
		t.Errorf("Unexpected senders: %s then %s", msgs[0].Sender, msgs[1].Sender)
	}
}

func TestAgentMessageRequiresContent(t *testing.T) {
	env := newTestEnv(t)
	aliceID, token := env.loginAs(t, "alice")
	agent := env.createAgent(t, aliceID)

	w := env.do(t, http.MethodPost, fmt.Sprintf("/api/ai/agents/%d/message", agent.ID), token, map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	if got := decodeBody(t, w); got["message"] != "Message content is required" {
		t.Errorf("Unexpected message: %v", got["message"])
	}
}

func TestAnalyzeTaskEndpoint(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.loginAs(t, "alice")

	w := env.do(t, http.MethodPost, "/api/ai/tasks/analyze", token, map[string]string{
		"description": "Collect customer feedback and summarize it",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	got := decodeBody(t, w)
	analysis, ok := got["analysis"].(map[string]any)
	if !ok {
		t.Fatalf("Expected analysis object, got %v", got)
	}
	if analysis["complexity"] != "simple" {
		t.Errorf("Expected simple complexity, got %v", analysis["complexity"])
	}

	empty := env.do(t, http.MethodPost, "/api/ai/tasks/analyze", token, map[string]string{})
	if empty.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", empty.Code)
	}
	if got := decodeBody(t, empty); got["message"] != "Task description is required" {
		t.Errorf("Unexpected message: %v", got["message"])
	}
}

func TestAgentInsightsEmptyLog(t *testing.T) {
	env := newTestEnv(t)
	aliceID, token := env.loginAs(t, "alice")
	agent := env.createAgent(t, aliceID)

	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/ai/agents/%d/insights", agent.ID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	got := decodeBody(t, w)
	insights, ok := got["insights"].(map[string]any)
	if !ok {
		t.Fatalf("Expected insights object, got %v", got)
	}
	items, ok := insights["actionItems"].([]any)
	if !ok || len(items) != 1 || items[0] != "Start a conversation with the agent to generate insights" {
		t.Errorf("Expected empty-log prompt, got %v", insights["actionItems"])
	}
}

func TestAgentInsightsFromConversation(t *testing.T) {
	env := newTestEnv(t)
	aliceID, token := env.loginAs(t, "alice")
	agent := env.createAgent(t, aliceID)

	if _, err := env.repo.CreateMessage(context.Background(), domain.NewMessage{
		AgentID: agent.ID, UserID: aliceID,
		Content: "let's improve our workflow", Sender: domain.SenderUser,
	}); err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}

	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/ai/agents/%d/insights", agent.ID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	got := decodeBody(t, w)
	insights := got["insights"].(map[string]any)
	themes, ok := insights["keyThemes"].([]any)
	if !ok || len(themes) == 0 || themes[0] != "Productivity" {
		t.Errorf("Expected Productivity theme, got %v", insights["keyThemes"])
	}
}

func TestConnectionStatusIsPublic(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/ai/connection/status", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 without session, got %d", w.Code)
	}
	got := decodeBody(t, w)
	if got["connected"] != true {
		t.Errorf("Expected connected true, got %v", got["connected"])
	}
	caps, ok := got["capabilities"].([]any)
	if !ok || len(caps) != 4 {
		t.Errorf("Expected 4 capabilities, got %v", got["capabilities"])
	}
}

func TestConnectionSetup(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.loginAs(t, "alice")

	denied := env.do(t, http.MethodPost, "/api/ai/connection/setup", "", map[string]string{"appName": "CRM"})
	if denied.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without session, got %d", denied.Code)
	}

	missing := env.do(t, http.MethodPost, "/api/ai/connection/setup", token, map[string]string{})
	if missing.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without app name, got %d", missing.Code)
	}
	if got := decodeBody(t, missing); got["message"] != "App name is required" {
		t.Errorf("Unexpected message: %v", got["message"])
	}

	w := env.do(t, http.MethodPost, "/api/ai/connection/setup", token, map[string]string{"appName": "CRM"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	got := decodeBody(t, w)
	if got["success"] != true {
		t.Errorf("Expected success true, got %v", got["success"])
	}
	id, _ := got["connectionId"].(string)
	if !strings.HasPrefix(id, "conn_") {
		t.Errorf("Expected conn_ prefix, got %q", id)
	}
	if got["message"] != "Successfully connected CRM to Vetro AI" {
		t.Errorf("Unexpected message: %v", got["message"])
	}
}
