package endpoint

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"proctor/internal/message"
)

const defaultChannelCapacity = 100

// Channel is an in-memory endpoint. Messages sent to it are received from
// it in FIFO order, which makes it useful for loopback tests.
type Channel struct {
	name  string
	queue chan *message.Message

	closeOnce sync.Once
	closed    chan struct{}
}

// NewChannel creates a channel endpoint buffering up to capacity messages.
func NewChannel(name string, capacity int) *Channel {
	if capacity <= 0 {
		capacity = defaultChannelCapacity
	}
	return &Channel{
		name:   name,
		queue:  make(chan *message.Message, capacity),
		closed: make(chan struct{}),
	}
}

func (c *Channel) Name() string { return c.name }

// Send enqueues a copy of msg. It blocks while the buffer is full.
func (c *Channel) Send(ctx context.Context, msg *message.Message) error {
	select {
	case <-c.closed:
		return fmt.Errorf("channel %s is closed", c.name)
	default:
	}

	select {
	case c.queue <- msg.Copy():
		return nil
	case <-c.closed:
		return fmt.Errorf("channel %s is closed", c.name)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Channel) Receive(ctx context.Context, timeout time.Duration) (*message.Message, error) {
	timer := time.NewTimer(receiveTimeout(timeout))
	defer timer.Stop()

	select {
	case msg := <-c.queue:
		return msg, nil
	case <-timer.C:
		return nil, fmt.Errorf("%w: no message on channel %s", ErrTimeout, c.name)
	case <-c.closed:
		return nil, errors.New("channel " + c.name + " is closed")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len returns the number of queued messages.
func (c *Channel) Len() int {
	return len(c.queue)
}

func (c *Channel) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}
