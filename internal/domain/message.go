package domain

import "time"

// Message sender values.
const (
	SenderUser  = "user"
	SenderAgent = "agent"
)

// Message is one entry in a per-agent conversation log. UserID is always the
// human party, even for agent-authored messages.
type Message struct {
	ID        int64     `json:"id"`
	AgentID   int64     `json:"agentId"`
	UserID    int64     `json:"userId"`
	Content   string    `json:"content"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage holds the fields accepted when appending to a conversation.
type NewMessage struct {
	AgentID int64
	UserID  int64
	Content string
	Sender  string
}
