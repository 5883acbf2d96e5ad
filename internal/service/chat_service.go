package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ImAmyth-II/OllamaChat/internal/constant"
	"github.com/ImAmyth-II/OllamaChat/internal/dto"
	"github.com/ImAmyth-II/OllamaChat/internal/entity"
	"github.com/ImAmyth-II/OllamaChat/internal/pkg/logger"
	"github.com/ImAmyth-II/OllamaChat/internal/repository/memory"
	"github.com/ImAmyth-II/OllamaChat/internal/repository/specification"
	"github.com/ImAmyth-II/OllamaChat/internal/repository/unitofwork"
	"github.com/ImAmyth-II/OllamaChat/pkg/llm"

	"github.com/google/uuid"
)

// IChatService defines the chat service interface
type IChatService interface {
	CreateSession(ctx context.Context) (*dto.SessionResponse, error)
	GetSession(ctx context.Context, sessionId uuid.UUID) (*dto.SessionResponse, error)
	GetAllSessions(ctx context.Context) ([]*dto.SessionResponse, error)
	GetChatHistory(ctx context.Context, sessionId uuid.UUID) ([]*dto.MessageResponse, error)
	RenameSession(ctx context.Context, sessionId uuid.UUID, title string) (*dto.RenameSessionResponse, error)
	DeleteSession(ctx context.Context, sessionId uuid.UUID) (*dto.DeleteSessionResponse, error)
	StreamMessage(ctx context.Context, sessionId uuid.UUID, content string, stream ResponseStream) error
	StopStream(sessionId uuid.UUID) *dto.StopStreamResponse
}

type chatService struct {
	uowFactory unitofwork.RepositoryFactory
	registry   *memory.StreamRegistry
	provider   llm.StreamingProvider
	log        logger.ILogger
	llmOpts    []llm.Option
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	registry *memory.StreamRegistry,
	provider llm.StreamingProvider,
	log logger.ILogger,
	llmOpts ...llm.Option,
) IChatService {
	return &chatService{
		uowFactory: uowFactory,
		registry:   registry,
		provider:   provider,
		log:        log,
		llmOpts:    llmOpts,
	}
}

// CreateSession creates a new empty chat session with the default title.
func (cs *chatService) CreateSession(ctx context.Context) (*dto.SessionResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	session := entity.ChatSession{
		Id:        uuid.New(),
		Title:     constant.DefaultSessionTitle,
		CreatedAt: time.Now(),
	}

	if err := uow.ChatSessionRepository().Create(ctx, &session); err != nil {
		return nil, err
	}

	return &dto.SessionResponse{
		Id:        session.Id,
		Title:     session.Title,
		CreatedAt: session.CreatedAt,
	}, nil
}

func (cs *chatService) GetSession(ctx context.Context, sessionId uuid.UUID) (*dto.SessionResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	return &dto.SessionResponse{
		Id:        session.Id,
		Title:     session.Title,
		CreatedAt: session.CreatedAt,
	}, nil
}

// GetAllSessions lists sessions, newest first.
func (cs *chatService) GetAllSessions(ctx context.Context) ([]*dto.SessionResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		result = append(result, &dto.SessionResponse{
			Id:        session.Id,
			Title:     session.Title,
			CreatedAt: session.CreatedAt,
		})
	}
	return result, nil
}

// GetChatHistory returns the session's messages in chronological order.
func (cs *chatService) GetChatHistory(ctx context.Context, sessionId uuid.UUID) ([]*dto.MessageResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "timestamp", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.MessageResponse, 0, len(messages))
	for _, msg := range messages {
		result = append(result, &dto.MessageResponse{
			Id:        msg.Id,
			Role:      msg.Role,
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
		})
	}
	return result, nil
}

func (cs *chatService) RenameSession(ctx context.Context, sessionId uuid.UUID, title string) (*dto.RenameSessionResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	session.Title = title
	if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
		return nil, err
	}

	return &dto.RenameSessionResponse{
		Message: "Chat renamed successfully",
		ChatId:  sessionId,
		Title:   title,
	}, nil
}

// DeleteSession removes the session and all its messages in one
// transaction, so no orphaned message can survive a partial failure.
func (cs *chatService) DeleteSession(ctx context.Context, sessionId uuid.UUID) (*dto.DeleteSessionResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	if err := uow.ChatMessageRepository().DeleteBySessionId(ctx, sessionId); err != nil {
		_ = uow.Rollback()
		return nil, err
	}
	if err := uow.ChatSessionRepository().Delete(ctx, sessionId); err != nil {
		_ = uow.Rollback()
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	return &dto.DeleteSessionResponse{
		Message: "Chat deleted successfully",
		ChatId:  sessionId,
	}, nil
}

// StreamMessage runs one send-message request end-to-end: persist the user
// turn, stream the reply through the sink while accumulating it, persist
// the assistant turn on completion. On cancellation the partial text is
// discarded; on upstream failure nothing but the user turn is kept. The
// registry entry is released on every exit path.
func (cs *chatService) StreamMessage(ctx context.Context, sessionId uuid.UUID, content string, stream ResponseStream) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}

	userMessage := entity.ChatMessage{
		Id:        uuid.New(),
		SessionId: sessionId,
		Role:      constant.ChatMessageRoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, &userMessage); err != nil {
		return err
	}

	count, err := uow.ChatMessageRepository().Count(ctx, specification.BySessionID{SessionID: sessionId})
	if err != nil {
		return err
	}
	if count == 1 {
		session.Title = deriveTitle(content)
		if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
			return err
		}
	}

	// The handle owns its own context: the relay outlives the HTTP handler
	// that spawned it, and cancellation comes from the stop endpoint or
	// from the client hanging up, never from the request context.
	handle := memory.NewStreamHandle(context.Background())
	cs.registry.Register(sessionId, handle)
	defer cs.registry.Unregister(sessionId, handle)

	var accumulated strings.Builder
	streamErr := cs.provider.GenerateStream(handle.Context(), content, func(chunk llm.Chunk) error {
		if chunk.Text == "" {
			return nil
		}
		accumulated.WriteString(chunk.Text)
		if err := stream.Send(chunk.Text); err != nil {
			// Caller hung up; abort the upstream request too.
			handle.Cancel()
			return err
		}
		return nil
	}, cs.llmOpts...)

	switch {
	case streamErr == nil:
		assistantMessage := entity.ChatMessage{
			Id:        uuid.New(),
			SessionId: sessionId,
			Role:      constant.ChatMessageRoleAssistant,
			Content:   accumulated.String(),
			Timestamp: time.Now(),
		}
		if err := uow.ChatMessageRepository().Create(ctx, &assistantMessage); err != nil {
			// Fragments already reached the client; all we can do is say so.
			cs.log.Error("chat", "Failed to persist assistant message", map[string]interface{}{
				"session_id": sessionId.String(),
				"error":      err.Error(),
			})
			return stream.CloseWithError(err)
		}
		return stream.Close()

	case errors.Is(streamErr, context.Canceled) || handle.Cancelled():
		_ = stream.Send(constant.StreamStoppedMarker)
		return stream.Close()

	default:
		cs.log.Error("chat", "Inference stream failed", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      streamErr.Error(),
		})
		return stream.CloseWithError(streamErr)
	}
}

// StopStream cancels the session's in-flight stream, if any. Safe to call
// when nothing is streaming and safe to race with the relay's own cleanup.
func (cs *chatService) StopStream(sessionId uuid.UUID) *dto.StopStreamResponse {
	if cs.registry.Cancel(sessionId) {
		return &dto.StopStreamResponse{
			Message:   "Stream stopped successfully",
			ChatId:    sessionId,
			Timestamp: time.Now(),
			Status:    "stopped",
		}
	}
	return &dto.StopStreamResponse{
		Message:   "No active stream found for this chat",
		ChatId:    sessionId,
		Timestamp: time.Now(),
		Status:    "no_stream",
	}
}

func deriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) > constant.SessionTitleMaxRunes {
		return string(runes[:constant.SessionTitleMaxRunes]) + "..."
	}
	return content
}
