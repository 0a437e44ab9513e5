package storage

import (
	"testing"
	"time"

	"github.com/dafibh/teri/teri-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptKey(t *testing.T) {
	assert.Equal(t, "chats/42.json", TranscriptKey(42))
}

func TestEncodeDecodeTranscript_PreservesOrder(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	messages := []domain.ChatMessage{
		{ID: "a", Type: domain.MessageTypeUser, Content: "new lead from Acme", Timestamp: ts},
		{ID: "b", Type: domain.MessageTypeSystem, Content: "✨ Added new lead from Acme", Timestamp: ts.Add(time.Second)},
	}

	data, err := EncodeTranscript(messages)
	require.NoError(t, err)

	decoded, err := DecodeTranscript(data)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, "a", decoded[0].ID)
	assert.Equal(t, domain.MessageTypeSystem, decoded[1].Type)
	assert.True(t, decoded[1].Timestamp.Equal(ts.Add(time.Second)))
}

func TestEncodeTranscript_NilIsEmptyArray(t *testing.T) {
	data, err := EncodeTranscript(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestDecodeTranscript_Empty(t *testing.T) {
	messages, err := DecodeTranscript([]byte("  "))
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestDecodeTranscript_Invalid(t *testing.T) {
	_, err := DecodeTranscript([]byte("{not json"))
	assert.Error(t, err)
}
