package api

import (
	"log/slog"
	"net/http"

	"github.com/vetroai/vetro/internal/domain"
	"github.com/vetroai/vetro/internal/events"
)

// ListMessages returns the agent's conversation log, oldest first.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
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
	if messages == nil {
		messages = []*domain.Message{}
	}
	JSON(w, http.StatusOK, messages)
}

type createMessageRequest struct {
	Content string `json:"content"`
	Sender  string `json:"sender"`
}

func (req *createMessageRequest) validate() map[string]string {
	fields := make(map[string]string)
	if req.Content == "" {
		fields["content"] = "content is required"
	}
	switch req.Sender {
	case domain.SenderUser, domain.SenderAgent:
	default:
		fields["sender"] = "sender must be user or agent"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// CreateMessage appends a message to the agent's log. User messages flip the
// agent to typing and arm a delayed canned reply.
func (h *Handler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	agent := h.ownedAgent(w, r, userID)
	if agent == nil {
		return
	}

	var req createMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid data")
		return
	}
	if fields := req.validate(); fields != nil {
		fieldErrors(w, fields)
		return
	}

	message, err := h.repo.CreateMessage(r.Context(), domain.NewMessage{
		AgentID: agent.ID,
		UserID:  userID,
		Content: req.Content,
		Sender:  req.Sender,
	})
	if err != nil {
		Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.bus.Publish(userID, events.Event{
		Type:    events.TypeMessageCreated,
		AgentID: agent.ID,
		Payload: message,
	})

	if req.Sender == domain.SenderUser {
		if err := h.sim.ScheduleReply(r.Context(), agent, userID); err != nil {
			slog.Warn("Failed to schedule agent reply", "agent_id", agent.ID, "error", err)
		}
	}

	JSON(w, http.StatusCreated, message)
}
