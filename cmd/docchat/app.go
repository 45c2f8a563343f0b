package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/docchat/docchat/internal/agent"
	"github.com/docchat/docchat/internal/ai"
	"github.com/docchat/docchat/internal/chat"
	"github.com/docchat/docchat/internal/config"
	"github.com/docchat/docchat/internal/db"
	"github.com/docchat/docchat/internal/files"
	"github.com/docchat/docchat/internal/ingest"
	"github.com/docchat/docchat/internal/retry"
	"github.com/docchat/docchat/internal/store/rabbitmq"
	"github.com/docchat/docchat/internal/vectorstore"
	qdrantstore "github.com/docchat/docchat/internal/vectorstore/qdrant"
)

// app holds the wired components shared by the serve, chat, and reindex
// commands.
type app struct {
	cfg   *config.Config
	log   *logrus.Logger
	store vectorstore.VectorStore

	chatSvc  *chat.Service
	filesSvc *files.Service

	publisher *rabbitmq.Publisher
}

// buildApp wires everything up. withQueue controls whether the message broker
// connection is established; commands that never publish skip it.
func buildApp(ctx context.Context, withQueue bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := newLogger()

	gdb, err := db.Connect(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(gdb); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	var embedCache ai.EmbedCache
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		embedCache = ai.NewRedisEmbedCache(rdb, cfg.Embedding.Model, 0)
		log.WithField("addr", cfg.Redis.Addr).Info("using redis embedding cache")
	} else {
		embedCache = ai.NewMemoryEmbedCache(cfg.Embedding.CacheSize)
	}

	embedder, err := ai.NewEmbedder(cfg.AI.OpenAIAPIKey, cfg.Embedding.Model, embedCache)
	if err != nil {
		return nil, err
	}

	store, err := qdrantstore.New(qdrantstore.Config{
		URL:        cfg.Qdrant.URL,
		APIKey:     cfg.Qdrant.APIKey,
		Collection: cfg.Qdrant.Collection,
		VectorSize: cfg.Qdrant.VectorSize,
	})
	if err != nil {
		return nil, err
	}
	if err := retry.Default.Do(ctx, store.EnsureReady); err != nil {
		return nil, fmt.Errorf("vector store not ready: %w", err)
	}

	reg := ai.NewRegistry()
	reg.Register("openai", func(ctx context.Context, model string) (ai.Provider, error) {
		return ai.NewOpenAIProvider(ai.OpenAIOptions{
			APIKey: cfg.AI.OpenAIAPIKey,
			Model:  model,
		})
	})
	reg.Register("openrouter", func(ctx context.Context, model string) (ai.Provider, error) {
		return ai.NewOpenAIProvider(ai.OpenAIOptions{
			APIKey:  cfg.AI.OpenRouterAPIKey,
			BaseURL: cfg.AI.OpenRouterBaseURL,
			Model:   model,
			SiteURL: cfg.AI.OpenRouterSiteURL,
			AppName: cfg.AI.OpenRouterAppName,
		})
	})
	reg.Register("ollama", func(ctx context.Context, model string) (ai.Provider, error) {
		return ai.NewOllamaProvider(cfg.AI.OllamaBaseURL, model), nil
	})
	router := ai.NewRouter(reg, cfg.AI.Provider, cfg.AI.DefaultModel)

	chatRepo := chat.NewRepo(gdb)
	retriever := agent.NewVectorRetriever(embedder, store)
	factory := agent.NewFactory(router, retriever, chatRepo.RecentMessages,
		cfg.Chat.TopK, cfg.Chat.HistoryWindow, log)
	agents := agent.NewCache(factory, cfg.Chat.CacheMaxAgents,
		time.Duration(cfg.Chat.CacheIdleTTLMin)*time.Minute)

	chatSvc := chat.NewService(chatRepo, agents, log)

	pipeline := ingest.NewPipeline(embedder, store, cfg.Chat.ChunkSize, cfg.Chat.ChunkOverlap, log)

	var publisher *rabbitmq.Publisher
	var jobPublisher files.JobPublisher
	if withQueue {
		publisher, err = rabbitmq.NewPublisher(cfg.Rabbit.URL, cfg.Rabbit.Queue)
		if err != nil {
			log.WithError(err).Warn("message broker unavailable, reindex disabled")
		} else {
			jobPublisher = publisher
		}
	}

	filesSvc := files.NewService(files.NewRepo(gdb), ingest.NewJobRepo(gdb),
		pipeline, jobPublisher, cfg.UploadDir, log)

	return &app{
		cfg:       cfg,
		log:       log,
		store:     store,
		chatSvc:   chatSvc,
		filesSvc:  filesSvc,
		publisher: publisher,
	}, nil
}

func (a *app) close() {
	if a.publisher != nil {
		_ = a.publisher.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
}
