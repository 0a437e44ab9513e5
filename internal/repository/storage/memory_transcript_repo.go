package storage

import (
	"context"
	"sync"

	"github.com/dafibh/teri/teri-backend/internal/domain"
)

// MemoryTranscriptRepository keeps encoded transcripts in process memory.
// It stands in for S3 when no bucket is reachable and cannot sign exports.
type MemoryTranscriptRepository struct {
	mu    sync.RWMutex
	blobs map[int32][]byte
}

// NewMemoryTranscriptRepository creates an empty in-memory transcript store
func NewMemoryTranscriptRepository() *MemoryTranscriptRepository {
	return &MemoryTranscriptRepository{blobs: make(map[int32][]byte)}
}

// Load returns the transcript of a workspace; an unknown workspace is an empty transcript
func (r *MemoryTranscriptRepository) Load(ctx context.Context, workspaceID int32) ([]domain.ChatMessage, error) {
	r.mu.RLock()
	data := r.blobs[workspaceID]
	r.mu.RUnlock()
	return DecodeTranscript(data)
}

// Save replaces the stored transcript of a workspace
func (r *MemoryTranscriptRepository) Save(ctx context.Context, workspaceID int32, messages []domain.ChatMessage) error {
	data, err := EncodeTranscript(messages)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.blobs[workspaceID] = data
	r.mu.Unlock()
	return nil
}

// Clear removes the stored transcript of a workspace
func (r *MemoryTranscriptRepository) Clear(ctx context.Context, workspaceID int32) error {
	r.mu.Lock()
	delete(r.blobs, workspaceID)
	r.mu.Unlock()
	return nil
}
