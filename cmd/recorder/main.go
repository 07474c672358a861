package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"careerpath/db"
	"careerpath/internal/config"
	"careerpath/internal/diagnostics"
	"careerpath/internal/repository"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

// queuedEvent is a diagnostics event plus the number of failed save attempts.
type queuedEvent struct {
	diagnostics.Event
	Attempts int `json:"attempts,omitempty"`
}

func main() {

	godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = db.ConnectRedis(ctx, cfg.Redis.URL)
	if err != nil {
		log.Fatalf("error connecting to Redis: %v", err)
	}
	defer db.CloseRedis()

	err = db.Connect(cfg.Database.URL)
	if err != nil {
		log.Fatalf("error connecting to DB: %v", err)
	}
	defer db.Close()

	err = db.Migrate(db.DB)
	if err != nil {
		log.Fatalf("error migrating DB: %v", err)
	}

	failureRepository := repository.NewFailureRepository(db.DB)
	maxAttempts := cfg.Recorder.MaxSaveAttempts

	for {
		data, err := db.PopFromQueue(ctx, db.FailureQueueKey, 5*time.Second)
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("recorder stopping")
				return
			}
			slog.Error("error popping from Redis queue", "error", err)
			time.Sleep(time.Second)
			continue
		}

		var event queuedEvent
		err = json.Unmarshal([]byte(data), &event)
		if err != nil {
			slog.Error("invalid failure event in queue, moving to dead letter", "error", err)
			db.PushToQueue(ctx, db.DeadLetterKey, data)
			continue
		}

		failure := event.Failure()
		err = failureRepository.SaveFailure(&failure)
		if err != nil {
			event.Attempts++
			slog.Error("error saving failure event", "error", err, "event_id", event.ID, "attempts", event.Attempts)

			retryData, _ := json.Marshal(event)
			if event.Attempts >= maxAttempts {
				slog.Warn("failure event exceeded max attempts, moving to dead letter", "event_id", event.ID)
				db.PushToQueue(ctx, db.DeadLetterKey, string(retryData))
			} else {
				db.PushToQueue(ctx, db.FailureQueueKey, string(retryData))
			}

			time.Sleep(5 * time.Second)
			continue
		}

		slog.Info("failure event recorded", "event_id", event.ID, "task", event.Task, "kind", event.Kind)
	}
}
