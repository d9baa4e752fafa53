// Package endpoint provides the transports test actions send messages to
// and receive messages from.
package endpoint

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"proctor/internal/message"
	"proctor/pkg/logging"
)

const subsystem = "Endpoint"

// DefaultReceiveTimeout is used when a receive action does not set one.
const DefaultReceiveTimeout = 5 * time.Second

// ErrTimeout is returned when no message arrives within the receive timeout.
var ErrTimeout = errors.New("receive timeout")

// ErrUnknownEndpoint is returned by the registry for unregistered names.
var ErrUnknownEndpoint = errors.New("unknown endpoint")

// Endpoint sends and receives messages.
type Endpoint interface {
	Name() string
	Send(ctx context.Context, msg *message.Message) error
	Receive(ctx context.Context, timeout time.Duration) (*message.Message, error)
	Close() error
}

// Type names an endpoint implementation.
type Type string

const (
	TypeChannel   Type = "channel"
	TypeRedis     Type = "redis"
	TypeWebSocket Type = "websocket"
)

// Config describes an endpoint in proctor.yaml.
type Config struct {
	Name string `json:"name"`
	Type Type   `json:"type"`

	// channel
	Capacity int `json:"capacity,omitempty"`

	// redis
	Address  string `json:"address,omitempty"`
	Password string `json:"password,omitempty"`
	DB       int    `json:"db,omitempty"`
	Stream   string `json:"stream,omitempty"`
	Reset    bool   `json:"reset,omitempty"`

	// websocket
	URL string `json:"url,omitempty"`
}

// New creates an endpoint from its configuration.
func New(cfg Config) (Endpoint, error) {
	switch cfg.Type {
	case TypeChannel, "":
		return NewChannel(cfg.Name, cfg.Capacity), nil
	case TypeRedis:
		return NewRedis(cfg)
	case TypeWebSocket:
		return NewWebSocket(cfg.Name, cfg.URL)
	default:
		return nil, fmt.Errorf("unsupported endpoint type %q for endpoint %s", cfg.Type, cfg.Name)
	}
}

// Registry holds the endpoints of a run by name.
type Registry struct {
	mu        sync.RWMutex
	endpoints map[string]Endpoint
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{endpoints: make(map[string]Endpoint)}
}

// Register adds an endpoint, replacing one with the same name.
func (r *Registry) Register(ep Endpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endpoints[ep.Name()] = ep
	logging.Debug(subsystem, "Registered endpoint %s", ep.Name())
}

// Get returns the endpoint registered under name.
func (r *Registry) Get(name string) (Endpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ep, ok := r.endpoints[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEndpoint, name)
	}
	return ep, nil
}

// Names returns the sorted endpoint names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.endpoints))
	for name := range r.endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes all endpoints and returns the joined errors.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for name, ep := range r.endpoints {
		if err := ep.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close endpoint %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func receiveTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return DefaultReceiveTimeout
	}
	return timeout
}
