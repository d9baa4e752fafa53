// Package message defines the unit exchanged with endpoints: a text payload
// plus string headers.
package message

import (
	"maps"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Reserved header names that expose message metadata to header validation
// and extraction.
const (
	HeaderID        = "proctor_message_id"
	HeaderTimestamp = "proctor_message_timestamp"
)

// Message is a payload with headers.
type Message struct {
	ID        string            `json:"id"`
	Payload   string            `json:"payload"`
	Headers   map[string]string `json:"headers,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// New creates a message with a fresh ID.
func New(payload string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Payload:   payload,
		Headers:   make(map[string]string),
		Timestamp: time.Now().UTC(),
	}
}

// SetHeader sets a header and returns the message for chaining.
func (m *Message) SetHeader(name, value string) *Message {
	if m.Headers == nil {
		m.Headers = make(map[string]string)
	}
	m.Headers[name] = value
	return m
}

// Header returns the value of a header. The reserved names HeaderID and
// HeaderTimestamp resolve to the message metadata.
func (m *Message) Header(name string) (string, bool) {
	switch name {
	case HeaderID:
		return m.ID, m.ID != ""
	case HeaderTimestamp:
		if m.Timestamp.IsZero() {
			return "", false
		}
		return m.Timestamp.Format(time.RFC3339Nano), true
	}
	v, ok := m.Headers[name]
	return v, ok
}

// AllHeaders returns the user headers together with the reserved metadata
// headers.
func (m *Message) AllHeaders() map[string]string {
	all := make(map[string]string, len(m.Headers)+2)
	maps.Copy(all, m.Headers)
	if v, ok := m.Header(HeaderID); ok {
		all[HeaderID] = v
	}
	if v, ok := m.Header(HeaderTimestamp); ok {
		all[HeaderTimestamp] = v
	}
	return all
}

// HeaderNames returns the sorted user header names.
func (m *Message) HeaderNames() []string {
	names := make([]string, 0, len(m.Headers))
	for name := range m.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Copy returns a deep copy of the message.
func (m *Message) Copy() *Message {
	c := *m
	c.Headers = maps.Clone(m.Headers)
	if c.Headers == nil {
		c.Headers = make(map[string]string)
	}
	return &c
}
