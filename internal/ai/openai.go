package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vetroai/vetro/internal/domain"
)

const (
	defaultAPIBase = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o"

	// Degraded replies shown to the user when the completion API fails.
	// Chat must stay usable, so these are returned instead of errors.
	authFailureReply      = "⚠️ API key error: Please check your OpenAI API key configuration."
	transientFailureReply = "Sorry, I encountered an error while processing your request. Please try again later."
)

// OpenAIResponder delegates to an OpenAI-compatible chat completion API.
// Upstream failures never propagate to the chat flow: replies degrade to an
// explanatory string, and analysis calls fall back to the rule engine.
type OpenAIResponder struct {
	apiKey     string
	apiBase    string
	model      string
	httpClient *http.Client
	fallback   *RuleResponder
}

// NewOpenAIResponder creates a delegating responder. Empty apiBase and model
// select the OpenAI defaults. The timeout bounds every upstream call.
func NewOpenAIResponder(apiKey, apiBase, model string, timeout time.Duration) *OpenAIResponder {
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIResponder{
		apiKey:     apiKey,
		apiBase:    strings.TrimSuffix(apiBase, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		fallback:   NewRuleResponder(),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// apiError carries the upstream HTTP status so callers can distinguish
// authentication failures from transient ones.
type apiError struct {
	StatusCode int
	Body       string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// GenerateResponse builds a system instruction from the agent profile and
// forwards the trailing history and prompt to the completion API.
func (r *OpenAIResponder) GenerateResponse(ctx context.Context, profile Profile, history []Turn, prompt string) (string, error) {
	system := fmt.Sprintf(`You are %s, an AI assistant with the role of %s.
Your primary goals are: %s
Your personality is: %s
Your autonomy level is: %s

Respond to the user's queries while staying in character and focusing on helping achieve the stated goals.`,
		profile.Name, profile.Role, profile.Goals, profile.Personality, profile.AutonomyLevel)

	messages := make([]chatMessage, 0, len(history)+2)
	messages = append(messages, chatMessage{Role: "system", Content: system})
	for _, turn := range history {
		messages = append(messages, chatMessage{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, chatMessage{Role: RoleUser, Content: prompt})

	content, err := r.complete(ctx, messages, false, 0.7)
	if err != nil {
		slog.Warn("Completion API call failed, degrading chat reply", "error", err)
		var ae *apiError
		if errors.As(err, &ae) && ae.StatusCode == http.StatusUnauthorized {
			return authFailureReply, nil
		}
		return transientFailureReply, nil
	}
	return content, nil
}

// AnalyzeTask asks the API for a JSON plan, falling back to the rule engine
// when the call or decode fails.
func (r *OpenAIResponder) AnalyzeTask(ctx context.Context, description string) (*TaskAnalysis, error) {
	messages := []chatMessage{
		{Role: "system", Content: "You are a task analysis expert. Break down the given task into clear steps and provide insights on how to approach it effectively. Format your response as JSON with the following structure: { steps: string[], estimatedTimeHours: number, complexity: string, keyConsiderations: string[] }"},
		{Role: RoleUser, Content: description},
	}

	content, err := r.complete(ctx, messages, true, 0.5)
	if err != nil {
		slog.Warn("Task analysis API call failed, using rule engine", "error", err)
		return r.fallback.AnalyzeTask(ctx, description)
	}
	var analysis TaskAnalysis
	if err := json.Unmarshal([]byte(content), &analysis); err != nil {
		slog.Warn("Task analysis response was not valid JSON, using rule engine", "error", err)
		return r.fallback.AnalyzeTask(ctx, description)
	}
	return &analysis, nil
}

// GenerateInsights asks the API for JSON insights over the conversation,
// falling back to the rule engine when the call or decode fails.
func (r *OpenAIResponder) GenerateInsights(ctx context.Context, msgs []*domain.Message) (*Insights, error) {
	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "%s: %s", m.Sender, m.Content)
	}

	messages := []chatMessage{
		{Role: "system", Content: "You are an insights analyzer that identifies patterns, key themes, and actionable insights from conversation history. Provide a summary of important points and suggest next steps. Format your response as JSON with the following structure: { keyThemes: string[], actionItems: string[], opportunities: string[] }"},
		{Role: RoleUser, Content: b.String()},
	}

	content, err := r.complete(ctx, messages, true, 0.5)
	if err != nil {
		slog.Warn("Insights API call failed, using rule engine", "error", err)
		return r.fallback.GenerateInsights(ctx, msgs)
	}
	var insights Insights
	if err := json.Unmarshal([]byte(content), &insights); err != nil {
		slog.Warn("Insights response was not valid JSON, using rule engine", "error", err)
		return r.fallback.GenerateInsights(ctx, msgs)
	}
	return &insights, nil
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// complete executes one chat completion request and returns the first
// choice's content.
func (r *OpenAIResponder) complete(ctx context.Context, messages []chatMessage, jsonMode bool, temperature float64) (string, error) {
	body := map[string]any{
		"model":       r.model,
		"messages":    messages,
		"temperature": temperature,
		"max_tokens":  500,
	}
	if jsonMode {
		body["response_format"] = map[string]string{"type": "json_object"}
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.apiBase+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &apiError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var parsed completionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return parsed.Choices[0].Message.Content, nil
}
