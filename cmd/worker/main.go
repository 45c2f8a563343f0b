package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/docchat/docchat/internal/ai"
	"github.com/docchat/docchat/internal/config"
	"github.com/docchat/docchat/internal/db"
	"github.com/docchat/docchat/internal/ingest"
	"github.com/docchat/docchat/internal/retry"
	"github.com/docchat/docchat/internal/store/rabbitmq"
	qdrantstore "github.com/docchat/docchat/internal/vectorstore/qdrant"
)

type jobMsg struct {
	JobID string `json:"job_id"`
}

func workerConcurrency() int {
	v := os.Getenv("WORKER_CONCURRENCY")
	if v == "" {
		return 2
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 2
	}
	if n > 50 {
		return 50
	}
	return n
}

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	gdb, err := db.Connect(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	jobs := ingest.NewJobRepo(gdb)

	var embedCache ai.EmbedCache
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		embedCache = ai.NewRedisEmbedCache(rdb, cfg.Embedding.Model, 0)
	} else {
		embedCache = ai.NewMemoryEmbedCache(cfg.Embedding.CacheSize)
	}

	embedder, err := ai.NewEmbedder(cfg.AI.OpenAIAPIKey, cfg.Embedding.Model, embedCache)
	if err != nil {
		log.Fatalf("embedder: %v", err)
	}

	store, err := qdrantstore.New(qdrantstore.Config{
		URL:        cfg.Qdrant.URL,
		APIKey:     cfg.Qdrant.APIKey,
		Collection: cfg.Qdrant.Collection,
		VectorSize: cfg.Qdrant.VectorSize,
	})
	if err != nil {
		log.Fatalf("vector store: %v", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := retry.Default.Do(ctx, store.EnsureReady); err != nil {
		log.Fatalf("vector store not ready: %v", err)
	}

	pipeline := ingest.NewPipeline(embedder, store, cfg.Chat.ChunkSize, cfg.Chat.ChunkOverlap, log)

	conn, err := amqp.Dial(cfg.Rabbit.URL)
	if err != nil {
		log.Fatalf("rabbit dial: %v", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("rabbit channel: %v", err)
	}
	defer ch.Close()

	if err := rabbitmq.DeclareTopology(ch, cfg.Rabbit.Queue); err != nil {
		log.Fatalf("declare topology: %v", err)
	}

	concurrency := workerConcurrency()
	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}

	msgs, err := ch.Consume(cfg.Rabbit.Queue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	log.WithFields(logrus.Fields{
		"queue":       cfg.Rabbit.Queue,
		"concurrency": concurrency,
	}).Info("worker started")

	deliveries := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			wlog := log.WithField("worker", workerID)
			for d := range deliveries {
				var m jobMsg
				if err := json.Unmarshal(d.Body, &m); err != nil || m.JobID == "" {
					wlog.WithError(err).Warn("bad message")
					_ = d.Nack(false, false)
					continue
				}

				start := time.Now()
				if err := handleJob(ctx, jobs, pipeline, m.JobID); err != nil {
					wlog.WithFields(logrus.Fields{
						"job_id": m.JobID,
						"cost":   time.Since(start),
						"error":  err,
					}).Error("job failed")
					_ = d.Nack(false, false)
					continue
				}

				wlog.WithFields(logrus.Fields{
					"job_id": m.JobID,
					"cost":   time.Since(start),
				}).Info("job done")
				if err := d.Ack(false); err != nil {
					wlog.WithError(err).Error("ack failed")
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("worker shutting down")
			close(deliveries)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Warn("delivery channel closed")
				time.Sleep(time.Second)
				continue
			}
			deliveries <- d
		}
	}
}

func handleJob(ctx context.Context, jobs *ingest.JobRepo, pipeline *ingest.Pipeline, jobID string) error {
	if err := jobs.MarkRunning(ctx, jobID); err != nil {
		return err
	}

	j, err := jobs.GetByID(ctx, jobID)
	if err != nil {
		return err
	}

	chunks, err := pipeline.Process(ctx, j.Filepath)
	if err != nil {
		if markErr := jobs.MarkFailed(ctx, jobID, err.Error()); markErr != nil {
			return markErr
		}
		return err
	}

	return jobs.MarkSucceeded(ctx, jobID, chunks)
}
