package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/vetroai/vetro/internal/ai"
	"github.com/vetroai/vetro/internal/domain"
	"github.com/vetroai/vetro/internal/events"
)

// historyWindow caps the conversation context handed to the responder.
const historyWindow = 10

type aiMessageRequest struct {
	Content string `json:"content"`
}

// AgentMessage runs a full chat exchange: the user message is persisted, the
// responder composes a reply from the trailing history, and the agent
// message comes back in the response body.
func (h *Handler) AgentMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req aiMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid data")
		return
	}
	if req.Content == "" {
		Error(w, http.StatusBadRequest, "Message content is required")
		return
	}

	agent := h.ownedAgent(w, r, userID)
	if agent == nil {
		return
	}

	previous, err := h.repo.GetMessagesByAgentID(r.Context(), agent.ID)
	if err != nil {
		Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if len(previous) > historyWindow {
		previous = previous[len(previous)-historyWindow:]
	}
	history := make([]ai.Turn, 0, len(previous))
	for _, m := range previous {
		role := ai.RoleAssistant
		if m.Sender == domain.SenderUser {
			role = ai.RoleUser
		}
		history = append(history, ai.Turn{Role: role, Content: m.Content})
	}

	userMessage, err := h.repo.CreateMessage(r.Context(), domain.NewMessage{
		AgentID: agent.ID,
		UserID:  userID,
		Content: req.Content,
		Sender:  domain.SenderUser,
	})
	if err != nil {
		Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.bus.Publish(userID, events.Event{
		Type:    events.TypeMessageCreated,
		AgentID: agent.ID,
		Payload: userMessage,
	})

	reply, err := h.responder.GenerateResponse(r.Context(), ai.ProfileFromAgent(agent), history, req.Content)
	if err != nil {
		slog.Error("Responder failed", "agent_id", agent.ID, "error", err)
		Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	agentMessage, err := h.repo.CreateMessage(r.Context(), domain.NewMessage{
		AgentID: agent.ID,
		UserID:  userID,
		Content: reply,
		Sender:  domain.SenderAgent,
	})
	if err != nil {
		Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.bus.Publish(userID, events.Event{
		Type:    events.TypeMessageCreated,
		AgentID: agent.ID,
		Payload: agentMessage,
	})

	JSON(w, http.StatusOK, map[string]any{"message": agentMessage})
}

type analyzeTaskRequest struct {
	Description string `json:"description"`
}

// AnalyzeTask breaks a task description into a structured plan.
func (h *Handler) AnalyzeTask(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireUser(w, r); !ok {
		return
	}

	var req analyzeTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid data")
		return
	}
	if req.Description == "" {
		Error(w, http.StatusBadRequest, "Task description is required")
		return
	}

	analysis, err := h.responder.AnalyzeTask(r.Context(), req.Description)
	if err != nil {
		slog.Error("Task analysis failed", "error", err)
		Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	JSON(w, http.StatusOK, map[string]any{"analysis": analysis})
}

// AgentInsights summarizes an agent's conversation log. With no messages a
// default prompt to start chatting is returned.
func (h *Handler) AgentInsights(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	agent := h.ownedAgent(w, r, userID)
	if agent == nil {
		return
	}

	messages, err := h.repo.GetMessagesByAgentID(r.Context(), agent.ID)
	if err != nil {
		Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if len(messages) == 0 {
		JSON(w, http.StatusOK, map[string]any{
			"insights": ai.Insights{
				KeyThemes:     []string{},
				ActionItems:   []string{"Start a conversation with the agent to generate insights"},
				Opportunities: []string{},
			},
		})
		return
	}

	insights, err := h.responder.GenerateInsights(r.Context(), messages)
	if err != nil {
		slog.Error("Insights generation failed", "agent_id", agent.ID, "error", err)
		Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	JSON(w, http.StatusOK, map[string]any{"insights": insights})
}

// ConnectionStatus reports the static capability descriptor. No auth: the
// marketing site polls this before signup.
func (h *Handler) ConnectionStatus(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]any{
		"connected": true,
		"message":   "Your app is connected to our AI services",
		"capabilities": []string{
			"Agent conversations",
			"Task analysis",
			"Conversation insights",
			"Workflow automation",
		},
	})
}

type connectionSetupRequest struct {
	AppName      string   `json:"appName"`
	AppURL       string   `json:"appUrl"`
	Capabilities []string `json:"capabilities"`
}

// ConnectionSetup registers an external application and returns a generated
// connection id.
func (h *Handler) ConnectionSetup(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireUser(w, r); !ok {
		return
	}

	var req connectionSetupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid data")
		return
	}
	if req.AppName == "" {
		Error(w, http.StatusBadRequest, "App name is required")
		return
	}

	connectionID := "conn_" + uuid.NewString()
	slog.Info("External app connected", "app_name", req.AppName, "connection_id", connectionID)
	JSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"connectionId": connectionID,
		"message":      fmt.Sprintf("Successfully connected %s to Vetro AI", req.AppName),
	})
}
