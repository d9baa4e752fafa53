package endpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"proctor/internal/message"
	"proctor/pkg/logging"
)

// Redis exchanges messages through a Redis stream. Each stream entry holds
// the JSON encoded message in its "message" field.
type Redis struct {
	name   string
	stream string
	rdb    *redis.Client

	mu     sync.Mutex
	lastID string
}

// NewRedis creates a Redis stream endpoint. With cfg.Reset the stream is
// deleted on the first use so earlier runs cannot leak messages in.
func NewRedis(cfg Config) (*Redis, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis endpoint %s: address is required", cfg.Name)
	}
	stream := cfg.Stream
	if stream == "" {
		stream = "proctor:" + cfg.Name
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return newRedisWithClient(cfg.Name, stream, rdb, cfg.Reset), nil
}

func newRedisWithClient(name, stream string, rdb *redis.Client, reset bool) *Redis {
	r := &Redis{name: name, stream: stream, rdb: rdb, lastID: "0-0"}
	if reset {
		r.lastID = ""
	}
	return r
}

func (r *Redis) Name() string { return r.name }

// Stream returns the stream key.
func (r *Redis) Stream() string { return r.stream }

func (r *Redis) ensureReset(ctx context.Context) error {
	if r.lastID != "" {
		return nil
	}
	if err := r.rdb.Del(ctx, r.stream).Err(); err != nil {
		return fmt.Errorf("DEL %s: %w", r.stream, err)
	}
	r.lastID = "0-0"
	return nil
}

func (r *Redis) Send(ctx context.Context, msg *message.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureReset(ctx); err != nil {
		return err
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := r.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		Values: map[string]interface{}{"message": string(data)},
	}).Err(); err != nil {
		return fmt.Errorf("XADD %s: %w", r.stream, err)
	}

	logging.Debug(subsystem, "Sent message %s to stream %s", msg.ID, r.stream)
	return nil
}

func (r *Redis) Receive(ctx context.Context, timeout time.Duration) (*message.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureReset(ctx); err != nil {
		return nil, err
	}

	deadline := receiveTimeout(timeout)
	readCtx, cancel := context.WithTimeout(ctx, deadline+time.Second)
	defer cancel()

	for {
		streams, err := r.rdb.XRead(readCtx, &redis.XReadArgs{
			Streams: []string{r.stream, r.lastID},
			Count:   1,
			Block:   deadline,
		}).Result()
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: no message on stream %s", ErrTimeout, r.stream)
		}
		if err != nil {
			return nil, fmt.Errorf("XREAD %s: %w", r.stream, err)
		}

		for _, stream := range streams {
			for _, entry := range stream.Messages {
				r.lastID = entry.ID

				raw, ok := entry.Values["message"].(string)
				if !ok {
					continue
				}
				return decodeMessage([]byte(raw)), nil
			}
		}
	}
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

// decodeMessage turns a wire frame into a message. Frames that are not
// JSON encoded messages become the payload of a new message.
func decodeMessage(data []byte) *message.Message {
	var msg message.Message
	if err := json.Unmarshal(data, &msg); err != nil || msg.ID == "" {
		return message.New(string(data))
	}
	if msg.Headers == nil {
		msg.Headers = make(map[string]string)
	}
	return &msg
}
