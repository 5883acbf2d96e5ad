package dto

import (
	"time"

	"github.com/google/uuid"
)

type SessionResponse struct {
	Id        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type MessageResponse struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

type RenameSessionRequest struct {
	Title string `json:"title" validate:"required"`
}

type RenameSessionResponse struct {
	Message string    `json:"message"`
	ChatId  uuid.UUID `json:"chatId"`
	Title   string    `json:"title"`
}

type StopStreamResponse struct {
	Message   string    `json:"message"`
	ChatId    uuid.UUID `json:"chatId"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
}

type DeleteSessionResponse struct {
	Message string    `json:"message"`
	ChatId  uuid.UUID `json:"chatId"`
}
