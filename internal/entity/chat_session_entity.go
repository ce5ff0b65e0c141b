package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChatSession identifies one continuous conversation. The id is stable for
// the session's lifetime; clearing the conversation produces a fresh session
// rather than mutating this one.
type ChatSession struct {
	Id        uuid.UUID
	CreatedAt time.Time
}

func NewChatSession(now time.Time) *ChatSession {
	return &ChatSession{
		Id:        uuid.New(),
		CreatedAt: now,
	}
}
