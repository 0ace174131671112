package bootstrap

import (
	"context"
	"log"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/pinecone-io/nvidia-rag/internal/config"
	"github.com/pinecone-io/nvidia-rag/internal/controller"
	"github.com/pinecone-io/nvidia-rag/internal/pkg/logger"
	"github.com/pinecone-io/nvidia-rag/internal/repository/implementation"
	"github.com/pinecone-io/nvidia-rag/internal/repository/memory"
	"github.com/pinecone-io/nvidia-rag/internal/service"
	"github.com/pinecone-io/nvidia-rag/pkg/embedding"
	"github.com/pinecone-io/nvidia-rag/pkg/events"
	"github.com/pinecone-io/nvidia-rag/pkg/llm/factory"
	pktNats "github.com/pinecone-io/nvidia-rag/pkg/nats"
	"github.com/pinecone-io/nvidia-rag/pkg/objectstore"
	"github.com/pinecone-io/nvidia-rag/pkg/rag/decompose"
	"github.com/pinecone-io/nvidia-rag/pkg/rag/response"
	"github.com/pinecone-io/nvidia-rag/pkg/reranker"
	"github.com/pinecone-io/nvidia-rag/pkg/retriever/pgvector"
)

// Container wires the dependency graph once at startup and exposes the
// pieces main.go and the HTTP server need.
type Container struct {
	Logger logger.ILogger

	GenerationController controller.IGenerationController
	CollectionController controller.ICollectionController
	DocumentController   controller.IDocumentController
	HealthController     controller.IHealthController

	// Background services (exposed for main.go to run)
	ConsumerService service.IConsumerService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	chunkRepo := implementation.NewChunkRepository(db)
	collectionRepo := implementation.NewCollectionRepository(db)
	taskRepo := memory.NewTaskRepository()

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Model adapters
	// Asymmetric embedqa models need documents embedded as "passage" and
	// search queries as "query", so ingestion and retrieval get separate
	// provider instances.
	var passageEmbedder, queryEmbedder embedding.Provider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		ollamaEmbedder := embedding.NewOllamaProvider(
			cfg.Ai.EmbeddingBaseURL,
			cfg.Ai.EmbeddingModel,
			cfg.Ai.EmbeddingDimension,
		)
		passageEmbedder = ollamaEmbedder
		queryEmbedder = ollamaEmbedder
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)
	} else {
		passageEmbedder = embedding.NewNIMProvider(
			cfg.Ai.EmbeddingBaseURL,
			cfg.Ai.EmbeddingAPIKey,
			cfg.Ai.EmbeddingModel,
			"passage",
			cfg.Ai.EmbeddingDimension,
		)
		queryEmbedder = embedding.NewNIMProvider(
			cfg.Ai.EmbeddingBaseURL,
			cfg.Ai.EmbeddingAPIKey,
			cfg.Ai.EmbeddingModel,
			"query",
			cfg.Ai.EmbeddingDimension,
		)
		log.Printf("[INFO] Using Embedding Provider: NIM (%s)", cfg.Ai.EmbeddingModel)
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.LLMBaseURL,
		cfg.Ai.LLMAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	var docReranker reranker.Reranker
	if cfg.Retrieval.EnableReranker {
		docReranker = reranker.NewNIMReranker(
			cfg.Ai.RerankerBaseURL,
			cfg.Ai.RerankerAPIKey,
			cfg.Ai.RerankerModel,
			cfg.Retrieval.RerankTopK,
		)
		log.Printf("[INFO] Using Reranker: NIM (%s)", cfg.Ai.RerankerModel)
	}

	// 4. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		natsSub = nil
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}
	objectStore := objectstore.NewRedisStore(rdb)

	// Every published event also lands in the audit log
	if natsSub != nil {
		err := natsSub.Subscribe("events.>", "rag-audit", func(ctx context.Context, evt events.Event) error {
			sysLogger.Info("AUDIT", "Event received", map[string]interface{}{
				"type":    evt.EventType(),
				"payload": evt.Payload(),
			})
			return nil
		})
		if err != nil {
			log.Printf("[WARN] Failed to subscribe audit consumer: %v", err)
		}
	}

	// 5. RAG pipeline
	docRetriever := pgvector.NewVectorRetriever(chunkRepo, collectionRepo, queryEmbedder)
	responder := response.NewGenerator(objectStore, sysLogger)
	engine := decompose.NewEngine(llmProvider, responder, sysLogger)

	// 6. Services
	publisherService := service.NewPublisherService(cfg.Ingestion.IngestTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Ingestion.IngestTopic,
		chunkRepo,
		taskRepo,
		passageEmbedder,
		llmProvider,
		objectStore,
		natsPub,
		cfg.Ingestion.ChunkSize,
		cfg.Ingestion.ChunkOverlap,
		sysLogger,
	)

	generationService := service.NewGenerationService(
		engine,
		responder,
		llmProvider,
		docRetriever,
		docReranker,
		cfg.Retrieval,
		cfg.Ai,
		sysLogger,
	)
	collectionService := service.NewCollectionService(
		collectionRepo,
		chunkRepo,
		objectStore,
		natsPub,
		cfg.Ai.EmbeddingDimension,
		sysLogger,
	)
	documentService := service.NewDocumentService(
		collectionRepo,
		chunkRepo,
		taskRepo,
		publisherService,
		objectStore,
		natsPub,
		sysLogger,
	)
	summaryService := service.NewSummaryService(objectStore, sysLogger)

	// 7. Controllers
	return &Container{
		Logger:               sysLogger,
		GenerationController: controller.NewGenerationController(generationService),
		CollectionController: controller.NewCollectionController(collectionService),
		DocumentController:   controller.NewDocumentController(documentService, summaryService),
		HealthController:     controller.NewHealthController(db, rdb),
		ConsumerService:      consumerService,
	}
}
