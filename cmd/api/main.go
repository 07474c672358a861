package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"careerpath/db"
	"careerpath/internal/config"
	"careerpath/internal/diagnostics"
	"careerpath/internal/handler"
	"careerpath/internal/repository"
	"careerpath/internal/storage"
	"careerpath/internal/task"
	"careerpath/pkg/llm"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/streadway/amqp"
)

func main() {

	godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx := context.Background()

	generator, err := llm.New(ctx, llm.Options{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.APIKey(),
	})
	if err != nil {
		log.Fatalf("error creating llm client: %v", err)
	}

	sinks := diagnostics.Multi{diagnostics.NewLogSink(slog.Default())}

	var usage task.UsageRecorder
	var failureStore handler.FailureStore
	var usageStore handler.UsageStore
	if cfg.Database.URL != "" {
		err = db.Connect(cfg.Database.URL)
		if err != nil {
			log.Fatalf("error connecting to DB: %v", err)
		}
		defer db.Close()

		err = db.Migrate(db.DB)
		if err != nil {
			log.Fatalf("error migrating DB: %v", err)
		}

		usageRepo := repository.NewUsageRepository(db.DB)
		usage = usageRepo
		usageStore = usageRepo
		failureStore = repository.NewFailureRepository(db.DB)
	}

	if cfg.Redis.URL != "" {
		err = db.ConnectRedis(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatalf("error connecting to Redis: %v", err)
		}
		defer db.CloseRedis()

		sinks = append(sinks, diagnostics.NewRedisSink(db.Redis, db.FailureQueueKey))
	}

	if cfg.RabbitMQ.URL != "" {
		conn, err := amqp.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			log.Fatalf("error connecting to RabbitMQ: %v", err)
		}
		defer conn.Close()

		ch, err := conn.Channel()
		if err != nil {
			log.Fatalf("error opening RabbitMQ channel: %v", err)
		}
		defer ch.Close()

		err = diagnostics.DeclareExchange(ch, diagnostics.FailureExchange)
		if err != nil {
			log.Fatalf("error declaring exchange: %v", err)
		}
		sinks = append(sinks, diagnostics.NewAMQPSink(ch, diagnostics.FailureExchange))
	}

	var archive handler.ResumeArchiver
	if cfg.R2Enabled() {
		client, err := storage.NewR2Client(ctx, storage.R2Config{
			AccountID: cfg.R2.AccountID,
			Bucket:    cfg.R2.Bucket,
			AccessKey: cfg.R2.AccessKey,
			SecretKey: cfg.R2.SecretKey,
		})
		if err != nil {
			log.Fatalf("error creating R2 client: %v", err)
		}
		archive = storage.NewResumeArchive(client, cfg.R2.Bucket)
	}

	service := task.NewService(generator, sinks, usage, task.Options{
		Timeout:        cfg.LLM.Timeout,
		MaxRetries:     cfg.LLM.MaxRetries,
		RetryBackoff:   cfg.LLM.RetryBackoff,
		RepairAttempts: cfg.LLM.RepairAttempts,
	})

	guidanceHandler := handler.NewGuidanceHandler(service, archive, cfg.HTTP.MaxUpload)
	failureHandler := handler.NewFailureHandler(failureStore, usageStore)
	if cfg.Redis.URL != "" {
		failureHandler.WithQueue(func(ctx context.Context) (int64, error) {
			return db.GetQueueLength(ctx, db.FailureQueueKey)
		})
	}

	r := gin.Default()
	r.Use(handler.RequestID())

	slog.Info("AllowOrigins URL:", "urls", cfg.HTTP.AllowOrigins)

	r.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.HTTP.AllowOrigins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", handler.RequestIDHeader},
		ExposeHeaders: []string{handler.RequestIDHeader, handler.ResumeObjectKeyHeader},
	}))

	api := r.Group("/api")
	guidanceHandler.Register(api)
	if failureStore != nil {
		api.GET("/failures", failureHandler.GetFailures)
		api.GET("/usage", failureHandler.GetUsage)
	}
	r.GET("/health", failureHandler.GetHealth)

	slog.Info("starting server", "port", cfg.HTTP.Port, "provider", cfg.LLM.Provider, "model", generator.Model())

	err = r.Run(":" + cfg.HTTP.Port)
	if err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}
