// Package api provides HTTP handlers for the Vetro REST API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/vetroai/vetro/internal/ai"
	"github.com/vetroai/vetro/internal/domain"
	"github.com/vetroai/vetro/internal/events"
	"github.com/vetroai/vetro/internal/session"
	"github.com/vetroai/vetro/internal/simulator"
	"github.com/vetroai/vetro/internal/store"
)

// maxRequestBodySize caps request bodies at 1MB.
const maxRequestBodySize = 1 << 20

// Handler carries the dependencies shared by all route handlers.
type Handler struct {
	repo      store.Repository
	sessions  *session.Manager
	responder ai.Responder
	sim       *simulator.Simulator
	bus       *events.Bus
	isDev     bool
}

// NewHandler creates a Handler with its dependencies.
func NewHandler(repo store.Repository, sessions *session.Manager, responder ai.Responder, sim *simulator.Simulator, bus *events.Bus, isDev bool) *Handler {
	return &Handler{
		repo:      repo,
		sessions:  sessions,
		responder: responder,
		sim:       sim,
		bus:       bus,
		isDev:     isDev,
	}
}

// RegisterRoutes mounts the full REST surface on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Get("/me", h.Me)
			r.Post("/logout", h.Logout)
		})

		r.Post("/user/onboarding", h.Onboarding)

		r.Route("/agents", func(r chi.Router) {
			r.Get("/", h.ListAgents)
			r.Post("/", h.CreateAgent)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetAgent)
				r.Patch("/", h.UpdateAgent)
				r.Delete("/", h.DeleteAgent)
				r.Get("/messages", h.ListMessages)
				r.Post("/messages", h.CreateMessage)
				r.Get("/tasks", h.ListAgentTasks)
				r.Post("/tasks", h.CreateTask)
			})
		})

		r.Get("/tasks", h.ListTasks)
		r.Patch("/tasks/{id}", h.UpdateTask)

		r.Route("/ai", func(r chi.Router) {
			r.Post("/agents/{id}/message", h.AgentMessage)
			r.Get("/agents/{id}/insights", h.AgentInsights)
			r.Post("/tasks/analyze", h.AnalyzeTask)
			r.Get("/connection/status", h.ConnectionStatus)
			r.Post("/connection/setup", h.ConnectionSetup)
		})
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"message":"failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response in the {"message": ...} wire shape.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"message": message})
}

// fieldErrors writes the 400 validation shape with per-field detail.
func fieldErrors(w http.ResponseWriter, fields map[string]string) {
	JSON(w, http.StatusBadRequest, map[string]any{
		"message": "Invalid data",
		"errors":  fields,
	})
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return nil
}

// requireUser resolves the session user or writes a 401. The boolean is
// false when the response has already been written.
func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID := session.UserIDFromContext(r.Context())
	if userID == 0 {
		Error(w, http.StatusUnauthorized, "Unauthorized")
		return 0, false
	}
	return userID, true
}

// pathID parses the numeric {id} path parameter.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// ownedAgent loads the {id} agent and verifies the caller owns it, writing
// the appropriate 400/404/403/500 on failure. Returns nil when the response
// has been written.
func (h *Handler) ownedAgent(w http.ResponseWriter, r *http.Request, userID int64) *domain.Agent {
	id, err := pathID(r)
	if err != nil {
		Error(w, http.StatusBadRequest, "Invalid agent ID")
		return nil
	}

	agent, err := h.repo.GetAgentByID(r.Context(), id)
	if err != nil {
		Error(w, http.StatusInternalServerError, "Internal server error")
		return nil
	}
	if agent == nil {
		Error(w, http.StatusNotFound, "Agent not found")
		return nil
	}
	if agent.UserID != userID {
		Error(w, http.StatusForbidden, "Access denied")
		return nil
	}
	return agent
}
