package domain

import "time"

// AgentStatus is the presence state of an agent.
type AgentStatus string

const (
	AgentOffline AgentStatus = "offline"
	AgentOnline  AgentStatus = "online"
	AgentTyping  AgentStatus = "typing"
)

// Valid reports whether s is a known agent status.
func (s AgentStatus) Valid() bool {
	switch s {
	case AgentOffline, AgentOnline, AgentTyping:
		return true
	}
	return false
}

// Agent is a configured conversational persona owned by exactly one user.
type Agent struct {
	ID                  int64       `json:"id"`
	UserID              int64       `json:"userId"`
	Name                string      `json:"name"`
	Role                string      `json:"role"`
	Goals               string      `json:"goals"`
	Personality         string      `json:"personality"`
	AutonomyLevel       string      `json:"autonomyLevel"`
	DataAccess          []string    `json:"dataAccess"`
	SpecialInstructions string      `json:"specialInstructions,omitempty"`
	Status              AgentStatus `json:"status"`
	CreatedAt           time.Time   `json:"createdAt"`
	LastActive          time.Time   `json:"lastActive"`
}

// NewAgent holds the fields accepted when creating an agent. Status must be
// supplied by the caller; the store does not default it.
type NewAgent struct {
	UserID              int64
	Name                string
	Role                string
	Goals               string
	Personality         string
	AutonomyLevel       string
	DataAccess          []string
	SpecialInstructions string
	Status              AgentStatus
}

// AgentUpdate lists the agent fields writable after creation. Nil fields are
// left unchanged; DataAccess replaces the whole set when present.
type AgentUpdate struct {
	Name                *string
	Role                *string
	Goals               *string
	Personality         *string
	AutonomyLevel       *string
	DataAccess          *[]string
	SpecialInstructions *string
	Status              *AgentStatus
	LastActive          *time.Time
}
