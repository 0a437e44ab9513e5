package domain

import (
	"context"
	"time"
)

// MessageType tells who authored a chat message
type MessageType string

const (
	MessageTypeSystem MessageType = "system"
	MessageTypeUser   MessageType = "user"
)

type ChatMessage struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
}

// ChatTranscriptRepository persists one ordered transcript per workspace
type ChatTranscriptRepository interface {
	Load(ctx context.Context, workspaceID int32) ([]ChatMessage, error)
	Save(ctx context.Context, workspaceID int32, messages []ChatMessage) error
	Clear(ctx context.Context, workspaceID int32) error
}
