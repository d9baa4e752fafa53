package endpoint

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"proctor/internal/message"
)

// newUnreachableRedis points at an address nothing listens on, so every
// command fails fast.
func newUnreachableRedis(reset bool) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		ReadTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	return newRedisWithClient("queue", "proctor:queue", rdb, reset)
}

func TestRedis_SendFailsWhenUnreachable(t *testing.T) {
	r := newUnreachableRedis(false)
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := r.Send(ctx, message.New("payload"))
	assert.ErrorContains(t, err, "XADD proctor:queue")
}

func TestRedis_ReceiveFailsWhenUnreachable(t *testing.T) {
	r := newUnreachableRedis(false)
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := r.Receive(ctx, 100*time.Millisecond)
	assert.ErrorContains(t, err, "XREAD proctor:queue")
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestRedis_ResetRunsBeforeFirstUse(t *testing.T) {
	r := newUnreachableRedis(true)
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := r.Send(ctx, message.New("payload"))
	assert.ErrorContains(t, err, "DEL proctor:queue")
	assert.Equal(t, "", r.lastID)
}
