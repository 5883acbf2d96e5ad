package controller

import (
	"bufio"
	"context"
	"errors"

	"github.com/ImAmyth-II/OllamaChat/internal/dto"
	"github.com/ImAmyth-II/OllamaChat/internal/pkg/logger"
	"github.com/ImAmyth-II/OllamaChat/internal/pkg/serverutils"
	"github.com/ImAmyth-II/OllamaChat/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
	CreateChat(ctx *fiber.Ctx) error
	GetChats(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
	StopStream(ctx *fiber.Ctx) error
	RenameChat(ctx *fiber.Ctx) error
	DeleteChat(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
	log     logger.ILogger
}

func NewChatController(service service.IChatService, log logger.ILogger) IChatController {
	return &chatController{service: service, log: log}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Health)
	r.Post("/chat", c.CreateChat)
	r.Get("/chats", c.GetChats)
	r.Get("/chat/:id", c.GetHistory)
	r.Post("/chat/:id/message", c.SendMessage)
	r.Post("/chat/:id/stop", c.StopStream)
	r.Put("/chat/:id", c.RenameChat)
	r.Delete("/chat/:id", c.DeleteChat)
}

func (c *chatController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{"status": "ok"})
}

func (c *chatController) CreateChat(ctx *fiber.Ctx) error {
	res, err := c.service.CreateSession(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *chatController) GetChats(ctx *fiber.Ctx) error {
	res, err := c.service.GetAllSessions(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *chatController) GetHistory(ctx *fiber.Ctx) error {
	sessionId, err := parseSessionId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetChatHistory(ctx.Context(), sessionId)
	if err != nil {
		return mapServiceError(err)
	}
	return ctx.JSON(res)
}

// SendMessage streams the generated reply as a chunked text/plain body.
// Validation and session existence are checked before the response commits;
// anything failing after that is surfaced in-stream.
func (c *chatController) SendMessage(ctx *fiber.Ctx) error {
	sessionId, err := parseSessionId(ctx)
	if err != nil {
		return err
	}

	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if _, err := c.service.GetSession(ctx.Context(), sessionId); err != nil {
		return mapServiceError(err)
	}

	ctx.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")

	// The writer runs after this handler returns, so the relay must not
	// touch the fiber context; it gets a detached context instead.
	content := req.Content
	svc := c.service
	log := c.log
	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		stream := &httpResponseStream{w: w}
		if err := svc.StreamMessage(context.Background(), sessionId, content, stream); err != nil {
			// The status is already committed, so the failure goes in-band.
			log.Error("chat", "Streaming request failed", map[string]interface{}{
				"session_id": sessionId.String(),
				"error":      err.Error(),
			})
			_ = stream.CloseWithError(err)
		}
	}))

	return nil
}

func (c *chatController) StopStream(ctx *fiber.Ctx) error {
	sessionId, err := parseSessionId(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(c.service.StopStream(sessionId))
}

func (c *chatController) RenameChat(ctx *fiber.Ctx) error {
	sessionId, err := parseSessionId(ctx)
	if err != nil {
		return err
	}

	var req dto.RenameSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.RenameSession(ctx.Context(), sessionId, req.Title)
	if err != nil {
		return mapServiceError(err)
	}
	return ctx.JSON(res)
}

func (c *chatController) DeleteChat(ctx *fiber.Ctx) error {
	sessionId, err := parseSessionId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.DeleteSession(ctx.Context(), sessionId)
	if err != nil {
		return mapServiceError(err)
	}
	return ctx.JSON(res)
}

func parseSessionId(ctx *fiber.Ctx) (uuid.UUID, error) {
	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid chat id")
	}
	return sessionId, nil
}

func mapServiceError(err error) error {
	if errors.Is(err, service.ErrSessionNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Chat not found")
	}
	return err
}
