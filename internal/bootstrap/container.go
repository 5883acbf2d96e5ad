package bootstrap

import (
	"github.com/ImAmyth-II/OllamaChat/internal/config"
	"github.com/ImAmyth-II/OllamaChat/internal/controller"
	"github.com/ImAmyth-II/OllamaChat/internal/pkg/logger"
	"github.com/ImAmyth-II/OllamaChat/internal/repository/memory"
	"github.com/ImAmyth-II/OllamaChat/internal/repository/unitofwork"
	"github.com/ImAmyth-II/OllamaChat/internal/service"
	"github.com/ImAmyth-II/OllamaChat/pkg/llm"
	"github.com/ImAmyth-II/OllamaChat/pkg/llm/ollama"

	"gorm.io/gorm"
)

type Container struct {
	ChatController controller.IChatController
	Logger         logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Inference + Stream Tracking
	llmProvider := ollama.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel, sysLogger)
	streamRegistry := memory.NewStreamRegistry()

	// 3. Services
	chatService := service.NewChatService(
		uowFactory,
		streamRegistry,
		llmProvider,
		sysLogger,
		llm.WithTemperature(cfg.Ai.Temperature),
	)

	// 4. Controllers
	return &Container{
		ChatController: controller.NewChatController(chatService, sysLogger),
		Logger:         sysLogger,
	}
}
