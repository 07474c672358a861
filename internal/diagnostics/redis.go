package diagnostics

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type ListPusher interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// RedisSink queues events on a Redis list for the recorder to persist.
type RedisSink struct {
	client ListPusher
	key    string
}

func NewRedisSink(client ListPusher, key string) *RedisSink {
	return &RedisSink{client: client, key: key}
}

func (s *RedisSink) Record(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := s.client.LPush(ctx, s.key, data).Err(); err != nil {
		return fmt.Errorf("queue failure event: %w", err)
	}
	return nil
}
