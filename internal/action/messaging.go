package action

import (
	"context"
	"fmt"
	"time"

	"proctor/internal/endpoint"
	"proctor/internal/message"
	"proctor/internal/testcontext"
	"proctor/pkg/logging"
)

// Send builds a message and sends it through an endpoint. The payload has
// its dynamic content resolved, then MessageValues overwrite payload nodes.
type Send struct {
	Endpoint      string
	Payload       string
	MessageValues map[string]any
	Headers       map[string]string
	Endpoints     EndpointLookup
}

func (a *Send) Name() string { return "send" }

func (a *Send) Execute(ctx context.Context, tc *testcontext.Context) error {
	ep, err := lookupEndpoint(a.Endpoints, a.Endpoint)
	if err != nil {
		return err
	}

	payload, err := tc.ReplaceDynamicContentInString(a.Payload, false)
	if err != nil {
		return fmt.Errorf("resolve payload: %w", err)
	}
	if len(a.MessageValues) > 0 {
		if payload, err = tc.ReplaceMessageValues(a.MessageValues, payload); err != nil {
			return err
		}
	}

	msg := message.New(payload)
	headers, err := tc.Templates().ReplaceStrings(a.Headers)
	if err != nil {
		return fmt.Errorf("resolve headers: %w", err)
	}
	for name, value := range headers {
		msg.SetHeader(name, value)
	}

	logging.Debug(subsystem, "Sending message %s to endpoint %s", msg.ID, a.Endpoint)
	return ep.Send(ctx, msg)
}

// Receive waits for a message on an endpoint, validates it and extracts
// values from it into variables.
type Receive struct {
	Endpoint string
	Timeout  time.Duration

	// Payload, when set, must equal the resolved received payload or
	// satisfy it as a matcher expression.
	Payload         string
	Validate        map[string]string
	ValidateHeaders map[string]string
	Extract         map[string]string
	ExtractHeaders  map[string]string

	Endpoints EndpointLookup
}

func (a *Receive) Name() string { return "receive" }

func (a *Receive) Execute(ctx context.Context, tc *testcontext.Context) error {
	ep, err := lookupEndpoint(a.Endpoints, a.Endpoint)
	if err != nil {
		return err
	}

	msg, err := ep.Receive(ctx, a.Timeout)
	if err != nil {
		return err
	}
	logging.Debug(subsystem, "Received message %s on endpoint %s", msg.ID, a.Endpoint)

	if a.Payload != "" {
		if err := validateValue(tc, "payload", msg.Payload, a.Payload); err != nil {
			return err
		}
	}
	if err := validatePayload(tc, msg.Payload, a.Validate); err != nil {
		return err
	}
	if err := validateHeaders(tc, msg.AllHeaders(), a.ValidateHeaders); err != nil {
		return err
	}

	if err := tc.CreateVariablesFromMessageValues(a.Extract, msg); err != nil {
		return err
	}
	return tc.CreateVariablesFromHeaderValues(a.ExtractHeaders, msg.AllHeaders())
}

func lookupEndpoint(endpoints EndpointLookup, name string) (endpoint.Endpoint, error) {
	if endpoints == nil {
		return nil, fmt.Errorf("no endpoints configured, cannot use endpoint %s", name)
	}
	return endpoints.Get(name)
}
