package bootstrap

import (
	"log"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"resident-sim-be/internal/config"
	"resident-sim-be/internal/controller"
	"resident-sim-be/internal/pkg/logger"
	"resident-sim-be/internal/repository/memory"
	"resident-sim-be/internal/service"
	"resident-sim-be/pkg/docload"
	"resident-sim-be/pkg/embedding"
	"resident-sim-be/pkg/evidence"
	"resident-sim-be/pkg/evidence/pubmed"
	"resident-sim-be/pkg/evidence/websearch"
	"resident-sim-be/pkg/llm/factory"
	"resident-sim-be/pkg/rag"
	"resident-sim-be/pkg/rag/index"
)

type Container struct {
	// Controllers
	CaseController      controller.ICaseController
	EncounterController controller.IEncounterController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
}

func NewContainer(cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// Initialize Embedding Provider based on Config
	var embeddingProvider embedding.Provider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)
	} else {
		embeddingProvider = embedding.NewOpenAIProvider(cfg.Keys.OpenAI, cfg.Ai.EmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: OPENAI (%s)", cfg.Ai.EmbeddingModel)
	}

	// Initialize LLM Provider based on Config
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.OpenAI,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// Retrieval engine over the in-memory vector store
	retriever := rag.NewRetriever(index.NewStore(), embeddingProvider, docload.NewTextLoader())

	// Evidence aggregation (PubMed + allow-listed web fallback)
	finder := evidence.NewFinder(
		pubmed.NewClient(cfg.Keys.EntrezEmail, cfg.Keys.EntrezTool),
		websearch.NewDuckDuckGoClient(),
		sysLogger,
	)

	// In-Memory Session Storage
	sessionRepo := memory.NewSessionRepository()

	publisherService := service.NewPublisherService(cfg.App.IndexWarmTopic, pubSub)
	caseService := service.NewCaseService(cfg.Cases, publisherService, sysLogger)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.App.IndexWarmTopic,
		caseService,
		retriever,
		sysLogger,
	)

	encounterService := service.NewEncounterService(
		sessionRepo,
		caseService,
		retriever,
		llmProvider,
		finder,
		sysLogger,
	)

	return &Container{
		CaseController:      controller.NewCaseController(caseService),
		EncounterController: controller.NewEncounterController(encounterService),

		ConsumerService: consumerService,
	}
}
