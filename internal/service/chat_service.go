package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dafibh/teri/teri-backend/internal/command"
	"github.com/dafibh/teri/teri-backend/internal/domain"
	"github.com/dafibh/teri/teri-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	welcomeMessage      = "Hello! I'm your AI assistant. How can I help you?"
	commandErrorMessage = "⚠️ Error processing request. Please try again."

	// DefaultExportExpiry is how long a transcript download link stays valid
	DefaultExportExpiry = 15 * time.Minute
)

// ErrExportUnavailable is returned when the transcript store cannot sign download links
var ErrExportUnavailable = errors.New("transcript export unavailable")

// TranscriptExporter is implemented by transcript stores that can hand out
// time-limited download links
type TranscriptExporter interface {
	ExportURL(ctx context.Context, workspaceID int32, expiry time.Duration) (string, error)
}

// ChatReply is the outcome of one chat command
type ChatReply struct {
	Recognized bool                 `json:"recognized"`
	Intent     command.Intent       `json:"intent,omitempty"`
	Messages   []domain.ChatMessage `json:"messages"`
	Error      string               `json:"error,omitempty"`
}

// ChatService records chat transcripts and runs recognized commands against
// the workspace's dashboard session
type ChatService struct {
	transcripts    domain.ChatTranscriptRepository
	interpreter    *command.Interpreter
	sessions       *SessionManager
	eventPublisher websocket.EventPublisher
	logger         zerolog.Logger

	mu    sync.Mutex
	locks map[int32]*sync.Mutex
}

// NewChatService creates a new ChatService
func NewChatService(transcripts domain.ChatTranscriptRepository, interpreter *command.Interpreter, sessions *SessionManager, logger zerolog.Logger) *ChatService {
	return &ChatService{
		transcripts: transcripts,
		interpreter: interpreter,
		sessions:    sessions,
		logger:      logger.With().Str("component", "chat_service").Logger(),
		locks:       make(map[int32]*sync.Mutex),
	}
}

// SetEventPublisher sets the WebSocket event publisher
func (s *ChatService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *ChatService) publishEvent(workspaceID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(workspaceID, event)
	}
}

// workspaceLock serializes transcript read-modify-write per workspace
func (s *ChatService) workspaceLock(workspaceID int32) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[workspaceID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[workspaceID] = l
	}
	return l
}

// History returns the workspace transcript, or a welcome message when it is empty
func (s *ChatService) History(ctx context.Context, workspaceID int32) ([]domain.ChatMessage, error) {
	messages, err := s.transcripts.Load(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transcript: %w", err)
	}
	if len(messages) == 0 {
		return []domain.ChatMessage{welcome()}, nil
	}
	return messages, nil
}

// SendCommand records a user message, interprets it, runs the resulting
// action against the dashboard and records the reply. A failed action is
// reported in the reply rather than as an error.
func (s *ChatService) SendCommand(ctx context.Context, workspaceID int32, text string) (*ChatReply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.NewValidationError("message", "is required")
	}
	if len(text) > domain.MaxMessageLength {
		return nil, domain.NewValidationError("message", "is too long")
	}

	lock := s.workspaceLock(workspaceID)
	lock.Lock()
	defer lock.Unlock()

	transcript, err := s.History(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	userMessage := newChatMessage("user", domain.MessageTypeUser, text)
	result := s.interpreter.Parse(text)
	reply := &ChatReply{Recognized: result.Recognized, Intent: result.Intent}

	content := result.Message
	if result.Action != nil {
		if err := s.runAction(ctx, workspaceID, result.Action); err != nil {
			s.logger.Error().
				Err(err).
				Int32("workspace_id", workspaceID).
				Str("intent", string(result.Intent)).
				Msg("Chat command failed")
			content = commandErrorMessage
			reply.Error = err.Error()
		}
	}
	systemMessage := newChatMessage("system", domain.MessageTypeSystem, content)
	reply.Messages = []domain.ChatMessage{userMessage, systemMessage}

	transcript = append(transcript, userMessage, systemMessage)
	if err := s.transcripts.Save(ctx, workspaceID, transcript); err != nil {
		s.logger.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to save chat transcript")
	}

	s.publishEvent(workspaceID, websocket.ChatMessageCreated(userMessage))
	s.publishEvent(workspaceID, websocket.ChatMessageCreated(systemMessage))
	return reply, nil
}

func (s *ChatService) runAction(ctx context.Context, workspaceID int32, action command.Action) error {
	state, err := s.sessions.Get(ctx, workspaceID)
	if err != nil {
		return err
	}
	return action(ctx, state)
}

// ClearHistory deletes the workspace transcript
func (s *ChatService) ClearHistory(ctx context.Context, workspaceID int32) error {
	lock := s.workspaceLock(workspaceID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.transcripts.Clear(ctx, workspaceID); err != nil {
		return fmt.Errorf("failed to clear transcript: %w", err)
	}
	return nil
}

// ExportURL returns a time-limited download link for the workspace transcript
func (s *ChatService) ExportURL(ctx context.Context, workspaceID int32) (string, error) {
	exporter, ok := s.transcripts.(TranscriptExporter)
	if !ok {
		return "", ErrExportUnavailable
	}
	return exporter.ExportURL(ctx, workspaceID, DefaultExportExpiry)
}

func newChatMessage(prefix string, messageType domain.MessageType, content string) domain.ChatMessage {
	return domain.ChatMessage{
		ID:        prefix + "-" + uuid.NewString(),
		Type:      messageType,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

func welcome() domain.ChatMessage {
	return domain.ChatMessage{
		ID:        "welcome",
		Type:      domain.MessageTypeSystem,
		Content:   welcomeMessage,
		Timestamp: time.Now().UTC(),
	}
}
