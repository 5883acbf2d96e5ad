package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ImAmyth-II/OllamaChat/internal/constant"
	"github.com/ImAmyth-II/OllamaChat/internal/dto"
	"github.com/ImAmyth-II/OllamaChat/internal/pkg/serverutils"
	"github.com/ImAmyth-II/OllamaChat/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                 { return nil }

// stubChatService plays back canned responses so the HTTP layer can be
// exercised without a database or an inference server.
type stubChatService struct {
	session         *dto.SessionResponse
	sessionErr      error
	history         []*dto.MessageResponse
	streamFragments []string
	streamErr       error
	streamCalled    bool
	stopStatus      string
}

func (s *stubChatService) CreateSession(ctx context.Context) (*dto.SessionResponse, error) {
	return s.session, s.sessionErr
}

func (s *stubChatService) GetSession(ctx context.Context, sessionId uuid.UUID) (*dto.SessionResponse, error) {
	return s.session, s.sessionErr
}

func (s *stubChatService) GetAllSessions(ctx context.Context) ([]*dto.SessionResponse, error) {
	if s.session == nil {
		return []*dto.SessionResponse{}, nil
	}
	return []*dto.SessionResponse{s.session}, nil
}

func (s *stubChatService) GetChatHistory(ctx context.Context, sessionId uuid.UUID) ([]*dto.MessageResponse, error) {
	if s.sessionErr != nil {
		return nil, s.sessionErr
	}
	return s.history, nil
}

func (s *stubChatService) RenameSession(ctx context.Context, sessionId uuid.UUID, title string) (*dto.RenameSessionResponse, error) {
	if s.sessionErr != nil {
		return nil, s.sessionErr
	}
	return &dto.RenameSessionResponse{Message: "Chat renamed successfully", ChatId: sessionId, Title: title}, nil
}

func (s *stubChatService) DeleteSession(ctx context.Context, sessionId uuid.UUID) (*dto.DeleteSessionResponse, error) {
	if s.sessionErr != nil {
		return nil, s.sessionErr
	}
	return &dto.DeleteSessionResponse{Message: "Chat deleted successfully", ChatId: sessionId}, nil
}

func (s *stubChatService) StreamMessage(ctx context.Context, sessionId uuid.UUID, content string, stream service.ResponseStream) error {
	s.streamCalled = true
	if s.streamErr != nil {
		return s.streamErr
	}
	for _, fragment := range s.streamFragments {
		if err := stream.Send(fragment); err != nil {
			return err
		}
	}
	return stream.Close()
}

func (s *stubChatService) StopStream(sessionId uuid.UUID) *dto.StopStreamResponse {
	return &dto.StopStreamResponse{
		Message:   "Stream stopped successfully",
		ChatId:    sessionId,
		Timestamp: time.Now(),
		Status:    s.stopStatus,
	}
}

func newTestApp(stub *stubChatService) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	NewChatController(stub, nopLogger{}).RegisterRoutes(app)
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, target, body string) (*http.Response, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(raw)
}

func TestHealthEndpoint(t *testing.T) {
	app := newTestApp(&stubChatService{})

	resp, body := doRequest(t, app, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)
}

func TestCreateChatReturnsSession(t *testing.T) {
	sessionId := uuid.New()
	stub := &stubChatService{session: &dto.SessionResponse{
		Id:        sessionId,
		Title:     "New Chat",
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}}
	app := newTestApp(stub)

	resp, body := doRequest(t, app, http.MethodPost, "/chat", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, sessionId.String(), got["id"])
	assert.Equal(t, "New Chat", got["title"])
	assert.Contains(t, got, "created_at")
}

func TestGetHistoryInvalidId(t *testing.T) {
	app := newTestApp(&stubChatService{})

	resp, body := doRequest(t, app, http.MethodGet, "/chat/not-a-uuid", "")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Invalid chat id"}`, body)
}

func TestGetHistoryUnknownSession(t *testing.T) {
	app := newTestApp(&stubChatService{sessionErr: service.ErrSessionNotFound})

	resp, body := doRequest(t, app, http.MethodGet, "/chat/"+uuid.NewString(), "")

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Chat not found"}`, body)
}

func TestGetHistoryReturnsMessages(t *testing.T) {
	stub := &stubChatService{history: []*dto.MessageResponse{
		{Id: uuid.New(), Role: "user", Content: "hi", Timestamp: time.Now()},
		{Id: uuid.New(), Role: "assistant", Content: "hello", Timestamp: time.Now()},
	}}
	app := newTestApp(stub)

	resp, body := doRequest(t, app, http.MethodGet, "/chat/"+uuid.NewString(), "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "user", got[0]["role"])
	assert.Equal(t, "hello", got[1]["content"])
}

func TestSendMessageStreamsPlainText(t *testing.T) {
	stub := &stubChatService{
		session:         &dto.SessionResponse{Id: uuid.New()},
		streamFragments: []string{"Hi", " there"},
	}
	app := newTestApp(stub)

	resp, body := doRequest(t, app, http.MethodPost, "/chat/"+uuid.NewString()+"/message", `{"content":"Hello"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/plain")
	assert.Equal(t, "Hi there", body)
}

func TestSendMessageRelayFailureSurfacedInBand(t *testing.T) {
	stub := &stubChatService{
		session:   &dto.SessionResponse{Id: uuid.New()},
		streamErr: errors.New("persist user message: connection refused"),
	}
	app := newTestApp(stub)

	resp, body := doRequest(t, app, http.MethodPost, "/chat/"+uuid.NewString()+"/message", `{"content":"Hello"}`)

	// The status was committed before the relay ran, so the failure has to
	// reach the client in the body rather than as a 5xx.
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, constant.StreamFailedMarker, body)
}

func TestSendMessageMissingContent(t *testing.T) {
	stub := &stubChatService{session: &dto.SessionResponse{Id: uuid.New()}}
	app := newTestApp(stub)

	resp, _ := doRequest(t, app, http.MethodPost, "/chat/"+uuid.NewString()+"/message", `{}`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, stub.streamCalled)
}

func TestSendMessageUnknownSession(t *testing.T) {
	stub := &stubChatService{sessionErr: service.ErrSessionNotFound}
	app := newTestApp(stub)

	resp, body := doRequest(t, app, http.MethodPost, "/chat/"+uuid.NewString()+"/message", `{"content":"Hello"}`)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Chat not found"}`, body)
	assert.False(t, stub.streamCalled)
}

func TestStopStreamReportsStatus(t *testing.T) {
	sessionId := uuid.New()
	app := newTestApp(&stubChatService{stopStatus: "stopped"})

	resp, body := doRequest(t, app, http.MethodPost, "/chat/"+sessionId.String()+"/stop", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, "stopped", got["status"])
	assert.Equal(t, sessionId.String(), got["chatId"])
}

func TestRenameChatMissingTitle(t *testing.T) {
	app := newTestApp(&stubChatService{})

	resp, _ := doRequest(t, app, http.MethodPut, "/chat/"+uuid.NewString(), `{}`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRenameChat(t *testing.T) {
	sessionId := uuid.New()
	app := newTestApp(&stubChatService{})

	resp, body := doRequest(t, app, http.MethodPut, "/chat/"+sessionId.String(), `{"title":"Project ideas"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got dto.RenameSessionResponse
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, "Project ideas", got.Title)
	assert.Equal(t, sessionId, got.ChatId)
}

func TestDeleteChat(t *testing.T) {
	sessionId := uuid.New()
	app := newTestApp(&stubChatService{})

	resp, body := doRequest(t, app, http.MethodDelete, "/chat/"+sessionId.String(), "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got dto.DeleteSessionResponse
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, "Chat deleted successfully", got.Message)
	assert.Equal(t, sessionId, got.ChatId)
}
