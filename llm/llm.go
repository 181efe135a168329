// Package llm defines the generation backend capability consumed by every
// pipeline: free-text completion plus a schema-constrained structured mode.
package llm

import (
	"context"

	"github.com/sweetpotato0/ragalytics/message"
)

// Client is the minimal completion surface. Implementations must treat every
// call as fallible and latent; callers pass a context and handle the error.
type Client interface {
	// Complete sends the conversation and returns the assistant text verbatim.
	Complete(ctx context.Context, msgs []*message.Message) (string, error)
}

// Schema describes the JSON shape requested from a structured completion.
type Schema struct {
	Name        string
	Description string
	// Raw is a JSON-schema object ({"type":"object","properties":...}).
	Raw map[string]any
}

// StructuredClient extends Client with a mode that returns a value conforming
// to a schema. Providers without native structured output emulate it by
// instructing the model to emit JSON and decoding the reply.
type StructuredClient interface {
	Client

	// CompleteStructured unmarshals the model reply into out.
	CompleteStructured(ctx context.Context, msgs []*message.Message, schema *Schema, out any) error
}

// ClientFunc adapts a plain function into a Client; used by tests and small
// adapters.
type ClientFunc func(ctx context.Context, msgs []*message.Message) (string, error)

// Complete implements Client.
func (f ClientFunc) Complete(ctx context.Context, msgs []*message.Message) (string, error) {
	return f(ctx, msgs)
}
