// Package ai produces agent replies, task analyses, and conversation
// insights. Two strategies implement the same contract: a deterministic rule
// engine and a delegating client for an OpenAI-compatible completion API.
package ai

import (
	"context"

	"github.com/vetroai/vetro/internal/domain"
)

// Turn roles used in conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Profile is the agent configuration the responder personalizes replies with.
type Profile struct {
	Name          string
	Role          string
	Goals         string
	Personality   string
	AutonomyLevel string
}

// ProfileFromAgent extracts the responder-relevant fields of an agent.
func ProfileFromAgent(a *domain.Agent) Profile {
	return Profile{
		Name:          a.Name,
		Role:          a.Role,
		Goals:         a.Goals,
		Personality:   a.Personality,
		AutonomyLevel: a.AutonomyLevel,
	}
}

// Turn is one prior exchange in a conversation, tagged user or assistant.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TaskAnalysis is a structured plan derived from a task description.
type TaskAnalysis struct {
	Steps              []string `json:"steps"`
	EstimatedTimeHours int      `json:"estimatedTimeHours"`
	Complexity         string   `json:"complexity"`
	KeyConsiderations  []string `json:"keyConsiderations"`
}

// Insights summarizes a conversation log.
type Insights struct {
	KeyThemes     []string `json:"keyThemes"`
	ActionItems   []string `json:"actionItems"`
	Opportunities []string `json:"opportunities"`
}

// Responder produces agent output. Implementations must keep chat usable even
// when a backing service fails: GenerateResponse degrades to an explanatory
// string instead of returning a transport error.
type Responder interface {
	// GenerateResponse composes the agent's next reply. History carries at
	// most the trailing context the caller chose to include.
	GenerateResponse(ctx context.Context, profile Profile, history []Turn, prompt string) (string, error)

	// AnalyzeTask breaks a task description into a structured plan.
	AnalyzeTask(ctx context.Context, description string) (*TaskAnalysis, error)

	// GenerateInsights extracts themes, action items, and opportunities
	// from a conversation log.
	GenerateInsights(ctx context.Context, messages []*domain.Message) (*Insights, error)
}
