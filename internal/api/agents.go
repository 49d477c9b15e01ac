package api

import (
	"log/slog"
	"net/http"

	"github.com/vetroai/vetro/internal/domain"
	"github.com/vetroai/vetro/internal/events"
)

// ListAgents returns all agents owned by the caller.
func (h *Handler) ListAgents(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	agents, err := h.repo.GetAgentsByUserID(r.Context(), userID)
	if err != nil {
		Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if agents == nil {
		agents = []*domain.Agent{}
	}
	JSON(w, http.StatusOK, agents)
}

type createAgentRequest struct {
	Name                string   `json:"name"`
	Role                string   `json:"role"`
	Goals               string   `json:"goals"`
	Personality         string   `json:"personality"`
	AutonomyLevel       string   `json:"autonomyLevel"`
	DataAccess          []string `json:"dataAccess"`
	SpecialInstructions string   `json:"specialInstructions"`
}

func (req *createAgentRequest) validate() map[string]string {
	fields := make(map[string]string)
	if req.Name == "" {
		fields["name"] = "name is required"
	}
	if req.Role == "" {
		fields["role"] = "role is required"
	}
	if req.Goals == "" {
		fields["goals"] = "goals is required"
	}
	if req.Personality == "" {
		fields["personality"] = "personality is required"
	}
	if req.AutonomyLevel == "" {
		fields["autonomyLevel"] = "autonomyLevel is required"
	}
	if req.DataAccess == nil {
		fields["dataAccess"] = "dataAccess is required"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// CreateAgent creates an agent for the caller. New agents start online.
func (h *Handler) CreateAgent(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req createAgentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid data")
		return
	}
	if fields := req.validate(); fields != nil {
		fieldErrors(w, fields)
		return
	}

	agent, err := h.repo.CreateAgent(r.Context(), domain.NewAgent{
		UserID:              userID,
		Name:                req.Name,
		Role:                req.Role,
		Goals:               req.Goals,
		Personality:         req.Personality,
		AutonomyLevel:       req.AutonomyLevel,
		DataAccess:          req.DataAccess,
		SpecialInstructions: req.SpecialInstructions,
		Status:              domain.AgentOnline,
	})
	if err != nil {
		Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	slog.Info("Agent created", "agent_id", agent.ID, "user_id", userID)
	JSON(w, http.StatusCreated, agent)
}

// GetAgent returns one agent owned by the caller.
func (h *Handler) GetAgent(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	agent := h.ownedAgent(w, r, userID)
	if agent == nil {
		return
	}
	JSON(w, http.StatusOK, agent)
}

type updateAgentRequest struct {
	Name                *string             `json:"name"`
	Role                *string             `json:"role"`
	Goals               *string             `json:"goals"`
	Personality         *string             `json:"personality"`
	AutonomyLevel       *string             `json:"autonomyLevel"`
	DataAccess          *[]string           `json:"dataAccess"`
	SpecialInstructions *string             `json:"specialInstructions"`
	Status              *domain.AgentStatus `json:"status"`
}

// UpdateAgent applies a partial update to an agent owned by the caller.
func (h *Handler) UpdateAgent(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	agent := h.ownedAgent(w, r, userID)
	if agent == nil {
		return
	}

	var req updateAgentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid data")
		return
	}
	if req.Status != nil && !req.Status.Valid() {
		fieldErrors(w, map[string]string{"status": "status must be offline, online, or typing"})
		return
	}

	updated, err := h.repo.UpdateAgent(r.Context(), agent.ID, domain.AgentUpdate{
		Name:                req.Name,
		Role:                req.Role,
		Goals:               req.Goals,
		Personality:         req.Personality,
		AutonomyLevel:       req.AutonomyLevel,
		DataAccess:          req.DataAccess,
		SpecialInstructions: req.SpecialInstructions,
		Status:              req.Status,
	})
	if err != nil {
		Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if req.Status != nil {
		h.bus.Publish(userID, events.Event{
			Type:    events.TypeAgentStatus,
			AgentID: agent.ID,
			Payload: *req.Status,
		})
	}
	JSON(w, http.StatusOK, updated)
}

// DeleteAgent removes an agent and cancels its in-flight simulator timers.
// Messages and tasks are not cascaded; see the store contract.
func (h *Handler) DeleteAgent(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	agent := h.ownedAgent(w, r, userID)
	if agent == nil {
		return
	}

	if err := h.sim.CancelAgent(r.Context(), agent.ID); err != nil {
		slog.Warn("Failed to cancel agent timers", "agent_id", agent.ID, "error", err)
	}

	if _, err := h.repo.DeleteAgent(r.Context(), agent.ID); err != nil {
		Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	slog.Info("Agent deleted", "agent_id", agent.ID, "user_id", userID)
	JSON(w, http.StatusOK, map[string]string{"message": "Agent deleted successfully"})
}
