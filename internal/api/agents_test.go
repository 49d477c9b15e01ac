package api

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/vetroai/vetro/internal/domain"
)

func TestCreateAgentStartsOnline(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.loginAs(t, "alice")

	w := env.do(t, http.MethodPost, "/api/agents/", token, map[string]any{
		"name":          "Max",
		"role":          "Sales Assistant",
		"goals":         "increase pipeline",
		"personality":   "professional",
		"autonomyLevel": "high",
		"dataAccess":    []string{"crm"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	got := decodeBody(t, w)
	if got["status"] != string(domain.AgentOnline) {
		t.Errorf("Expected new agent online, got %v", got["status"])
	}
	if got["name"] != "Max" {
		t.Errorf("Expected name Max, got %v", got["name"])
	}
}

func TestCreateAgentValidation(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.loginAs(t, "alice")

	w := env.do(t, http.MethodPost, "/api/agents/", token, map[string]any{"name": "Max"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	got := decodeBody(t, w)
	fields, ok := got["errors"].(map[string]any)
	if !ok {
		t.Fatalf("Expected errors map, got %v", got)
	}
	for _, field := range []string{"role", "goals", "personality", "autonomyLevel", "dataAccess"} {
		if fields[field] == nil {
			t.Errorf("Expected per-field error for %s", field)
		}
	}
}

func TestListAgentsScopedToOwner(t *testing.T) {
	env := newTestEnv(t)
	aliceID, aliceToken := env.loginAs(t, "alice")
	_, bobToken := env.loginAs(t, "bob")
	env.createAgent(t, aliceID)

	w := env.do(t, http.MethodGet, "/api/agents/", aliceToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if body := w.Body.String(); body == "[]\n" {
		t.Error("Expected alice's agent in list")
	}

	empty := env.do(t, http.MethodGet, "/api/agents/", bobToken, nil)
	if empty.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", empty.Code)
	}
	if body := empty.Body.String(); body != "[]\n" {
		t.Errorf("Expected empty JSON array for bob, got %q", body)
	}
}

func TestGetAgentErrors(t *testing.T) {
	env := newTestEnv(t)
	aliceID, aliceToken := env.loginAs(t, "alice")
	_, bobToken := env.loginAs(t, "bob")
	agent := env.createAgent(t, aliceID)

	bad := env.do(t, http.MethodGet, "/api/agents/abc/", aliceToken, nil)
	if bad.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for non-numeric id, got %d", bad.Code)
	}
	if got := decodeBody(t, bad); got["message"] != "Invalid agent ID" {
		t.Errorf("Unexpected message: %v", got["message"])
	}

	missing := env.do(t, http.MethodGet, "/api/agents/999/", aliceToken, nil)
	if missing.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown agent, got %d", missing.Code)
	}

	denied := env.do(t, http.MethodGet, fmt.Sprintf("/api/agents/%d/", agent.ID), bobToken, nil)
	if denied.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for foreign agent, got %d", denied.Code)
	}
	if got := decodeBody(t, denied); got["message"] != "Access denied" {
		t.Errorf("Unexpected message: %v", got["message"])
	}
}

func TestUpdateAgentPartial(t *testing.T) {
	env := newTestEnv(t)
	aliceID, token := env.loginAs(t, "alice")
	agent := env.createAgent(t, aliceID)

	w := env.do(t, http.MethodPatch, fmt.Sprintf("/api/agents/%d/", agent.ID), token, map[string]any{
		"status": "offline",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	got := decodeBody(t, w)
	if got["status"] != string(domain.AgentOffline) {
		t.Errorf("Expected offline, got %v", got["status"])
	}
	if got["name"] != agent.Name {
		t.Errorf("Untouched field changed: %v", got["name"])
	}
}

func TestUpdateAgentRejectsBadStatus(t *testing.T) {
	env := newTestEnv(t)
	aliceID, token := env.loginAs(t, "alice")
	agent := env.createAgent(t, aliceID)

	w := env.do(t, http.MethodPatch, fmt.Sprintf("/api/agents/%d/", agent.ID), token, map[string]any{
		"status": "sleeping",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown status, got %d", w.Code)
	}
}

func TestDeleteAgentLeavesOrphans(t *testing.T) {
	env := newTestEnv(t)
	aliceID, token := env.loginAs(t, "alice")
	agent := env.createAgent(t, aliceID)

	if _, err := env.repo.CreateMessage(context.Background(), domain.NewMessage{
		AgentID: agent.ID, UserID: aliceID, Content: "hi", Sender: domain.SenderUser,
	}); err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}

	w := env.do(t, http.MethodDelete, fmt.Sprintf("/api/agents/%d/", agent.ID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if got := decodeBody(t, w); got["message"] != "Agent deleted successfully" {
		t.Errorf("Unexpected message: %v", got["message"])
	}

	// The agent is gone, so its message log is unreachable through the API.
	msgs := env.do(t, http.MethodGet, fmt.Sprintf("/api/agents/%d/messages", agent.ID), token, nil)
	if msgs.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for deleted agent's messages, got %d", msgs.Code)
	}

	// The rows themselves remain at the store level.
	orphans, err := env.repo.GetMessagesByAgentID(context.Background(), agent.ID)
	if err != nil {
		t.Fatalf("GetMessagesByAgentID failed: %v", err)
	}
	if len(orphans) != 1 {
		t.Errorf("Expected orphaned message to remain, got %d", len(orphans))
	}
}
