package ai

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/vetroai/vetro/internal/domain"
)

// keywordFamilies classify prompts. Scan order is fixed: the first family
// with any keyword present in the prompt wins.
var keywordFamilies = []struct {
	name     string
	keywords []string
}{
	{"help", []string{"help", "assist", "support", "aid"}},
	{"status", []string{"status", "update", "progress", "current"}},
	{"analyze", []string{"analyze", "review", "evaluate", "assess"}},
	{"schedule", []string{"schedule", "calendar", "appointment", "meeting", "time"}},
	{"idea", []string{"idea", "suggest", "recommend", "propose", "concept"}},
}

var sentenceSplit = regexp.MustCompile(`[.!?]|\n`)

// RuleResponder is the deterministic strategy: pure template selection over
// keyword matches, no external calls. Identical inputs always yield identical
// output.
type RuleResponder struct{}

// NewRuleResponder creates the deterministic responder.
func NewRuleResponder() *RuleResponder { return &RuleResponder{} }

// GenerateResponse composes greeting, body, and closing from the agent
// profile and the classified prompt. History is accepted for contract parity
// but does not influence the rule engine.
func (r *RuleResponder) GenerateResponse(_ context.Context, profile Profile, _ []Turn, prompt string) (string, error) {
	var b strings.Builder

	personality := strings.ToLower(profile.Personality)
	switch {
	case strings.Contains(personality, "friendly"):
		fmt.Fprintf(&b, "Hi there! I'm %s, your %s. ", profile.Name, profile.Role)
	case strings.Contains(personality, "professional"):
		fmt.Fprintf(&b, "Greetings. I'm %s, serving as your %s. ", profile.Name, profile.Role)
	default:
		fmt.Fprintf(&b, "I'm %s, your %s. ", profile.Name, profile.Role)
	}

	switch classify(prompt) {
	case "help":
		fmt.Fprintf(&b, "I'm here to help you with %s. What specific assistance do you need today?", profile.Goals)
	case "status":
		fmt.Fprintf(&b, "As part of my role to %s, I can provide you with the latest updates and status reports. Would you like me to prepare a detailed report?", profile.Goals)
	case "analyze":
		fmt.Fprintf(&b, "I can analyze and review information related to %s. Please provide the specific details you'd like me to examine.", profile.Goals)
	case "schedule":
		fmt.Fprintf(&b, "I can help manage your schedule in alignment with our goals to %s. Would you like me to review your upcoming appointments or make new arrangements?", profile.Goals)
	case "idea":
		fmt.Fprintf(&b, "Based on my understanding of your goals to %s, I have several suggestions that might be valuable. Would you like me to share them with you?", profile.Goals)
	default:
		fmt.Fprintf(&b, "I understand you're asking about %q. As your %s, I'll work with you on this in alignment with our goals to %s. What specific information do you need?", prompt, profile.Role, profile.Goals)
	}

	autonomy := strings.ToLower(profile.AutonomyLevel)
	switch {
	case strings.Contains(autonomy, "high"):
		b.WriteString(" I can take initiative on this if you would like me to proceed autonomously.")
	case strings.Contains(autonomy, "medium"):
		b.WriteString(" I will await your guidance on how to proceed with this matter.")
	default:
		b.WriteString(" Please let me know exactly how you would like me to assist with this.")
	}

	return b.String(), nil
}

// classify returns the first keyword family present in the prompt, or empty
// when none match. Matching is case-insensitive substring search.
func classify(prompt string) string {
	text := strings.ToLower(prompt)
	for _, family := range keywordFamilies {
		for _, kw := range family.keywords {
			if strings.Contains(text, kw) {
				return family.name
			}
		}
	}
	return ""
}

// AnalyzeTask derives a plan from the description text alone: complexity from
// length, hours from length/50, steps from sentence fragments.
func (r *RuleResponder) AnalyzeTask(_ context.Context, description string) (*TaskAnalysis, error) {
	complexity := "simple"
	if len(description) > 100 {
		complexity = "complex"
	}
	hours := len(description) / 50
	if hours < 1 {
		hours = 1
	}

	var steps []string
	for _, part := range sentenceSplit.Split(description, -1) {
		trimmed := strings.TrimSpace(part)
		if len(trimmed) > 10 {
			steps = append(steps, fmt.Sprintf("Step %d: %s", len(steps)+1, trimmed))
		}
		if len(steps) == 5 {
			break
		}
	}
	if len(steps) == 0 {
		steps = []string{"Analyze requirements", "Execute task", "Review results"}
	}

	lower := strings.ToLower(description)
	var considerations []string
	if strings.Contains(lower, "deadline") || strings.Contains(lower, "time") {
		considerations = append(considerations, "Consider time constraints and prioritize accordingly")
	}
	if strings.Contains(lower, "quality") || strings.Contains(lower, "accurate") {
		considerations = append(considerations, "Ensure high quality and accuracy in deliverables")
	}
	if strings.Contains(lower, "team") || strings.Contains(lower, "collaborate") {
		considerations = append(considerations, "Coordinate with team members for optimal results")
	}
	if len(considerations) == 0 {
		considerations = append(considerations, "Break down the task into manageable subtasks")
	}

	return &TaskAnalysis{
		Steps:              steps,
		EstimatedTimeHours: hours,
		Complexity:         complexity,
		KeyConsiderations:  considerations,
	}, nil
}

var themeKeywords = []struct {
	theme    string
	keywords []string
}{
	{"Productivity", []string{"efficient", "productivity", "time", "schedule", "workflow"}},
	{"Collaboration", []string{"team", "together", "collaborate", "share", "joint"}},
	{"Innovation", []string{"new", "idea", "creative", "innovative", "solution"}},
	{"Customer Focus", []string{"customer", "client", "user", "satisfaction", "service"}},
	{"Technical", []string{"technical", "technology", "system", "software", "hardware"}},
}

// GenerateInsights scans the concatenated conversation for fixed theme and
// action-item keyword tables.
func (r *RuleResponder) GenerateInsights(_ context.Context, messages []*domain.Message) (*Insights, error) {
	var parts []string
	for _, m := range messages {
		parts = append(parts, m.Content)
	}
	content := strings.ToLower(strings.Join(parts, " "))

	var themes []string
	for _, tk := range themeKeywords {
		for _, kw := range tk.keywords {
			if strings.Contains(content, kw) {
				themes = append(themes, tk.theme)
				break
			}
		}
	}

	var actionItems []string
	if strings.Contains(content, "schedule") || strings.Contains(content, "meeting") {
		actionItems = append(actionItems, "Schedule follow-up meeting to discuss key points")
	}
	if strings.Contains(content, "document") || strings.Contains(content, "write") {
		actionItems = append(actionItems, "Document the discussion outcomes and decisions")
	}
	if strings.Contains(content, "analyze") || strings.Contains(content, "review") {
		actionItems = append(actionItems, "Review and analyze the information discussed")
	}
	if len(actionItems) == 0 {
		actionItems = append(actionItems, "Follow up on the conversation with next steps")
	}

	var opportunities []string
	for _, theme := range themes {
		switch theme {
		case "Productivity":
			opportunities = append(opportunities, "Implement workflow improvements to increase efficiency")
		case "Collaboration":
			opportunities = append(opportunities, "Enhance team collaboration through better communication tools")
		case "Innovation":
			opportunities = append(opportunities, "Explore new approaches to existing challenges")
		}
	}
	if len(opportunities) == 0 {
		opportunities = append(opportunities, "Identify areas for process improvement based on conversation")
	}

	if len(themes) == 0 {
		themes = []string{"General Discussion"}
	}

	return &Insights{
		KeyThemes:     themes,
		ActionItems:   actionItems,
		Opportunities: opportunities,
	}, nil
}
