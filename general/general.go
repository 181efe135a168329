// Package general handles questions that fit neither pipeline: greetings,
// small talk, and off-platform questions answered by a direct completion.
package general

import (
	"context"
	"fmt"
	"strings"

	"github.com/sweetpotato0/ragalytics/llm"
	"github.com/sweetpotato0/ragalytics/message"
	"github.com/sweetpotato0/ragalytics/persona"
	"github.com/sweetpotato0/ragalytics/pkg/telemetry"
)

// Pipeline answers general questions with a single completion.
type Pipeline struct {
	client llm.Client
}

// New creates a general pipeline.
func New(client llm.Client) *Pipeline {
	return &Pipeline{client: client}
}

// Run answers the question directly in the persona's voice.
func (p *Pipeline) Run(ctx context.Context, question string, voice persona.Persona) (string, error) {
	ctx, span := telemetry.Tracer("general").Start(ctx, "general.run")
	var err error
	defer func() { telemetry.End(span, err) }()

	question = strings.TrimSpace(question)
	if question == "" {
		err = fmt.Errorf("question cannot be empty")
		return "", err
	}

	system := persona.ShortPrompt(voice) + " Answer helpfully and concisely."
	msgs := []*message.Message{
		message.System(system),
		message.User(question),
	}
	answer, err := p.client.Complete(ctx, msgs)
	if err != nil {
		err = fmt.Errorf("generate answer: %w", err)
		return "", err
	}
	return strings.TrimSpace(answer), nil
}
