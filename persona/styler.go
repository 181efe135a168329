package persona

import (
	"context"
	"fmt"
	"strings"

	"github.com/sweetpotato0/ragalytics/llm"
	"github.com/sweetpotato0/ragalytics/message"
	"github.com/sweetpotato0/ragalytics/pkg/telemetry"
)

// Styler rewrites finished answers into a persona's voice. Styling is a
// post-processing step; pipelines that bake the persona into generation
// (retrieval) skip it.
type Styler struct {
	client llm.Client
}

// NewStyler creates a styler backed by a completion client.
func NewStyler(client llm.Client) *Styler {
	return &Styler{client: client}
}

// Style rewrites answer for the persona, keeping facts and numbers intact.
// The original question is included so the rewrite keeps its framing.
func (s *Styler) Style(ctx context.Context, answer string, p Persona, question string) (string, error) {
	ctx, span := telemetry.Tracer("persona").Start(ctx, "persona.style")
	var err error
	defer func() { telemetry.End(span, err) }()

	answer = strings.TrimSpace(answer)
	if answer == "" {
		err = fmt.Errorf("answer cannot be empty")
		return "", err
	}

	msgs := []*message.Message{
		message.System(RewritePrompt(p)),
		message.User(fmt.Sprintf("Question: %s\n\nAnswer to rewrite:\n%s", question, answer)),
	}
	styled, err := s.client.Complete(ctx, msgs)
	if err != nil {
		err = fmt.Errorf("style answer: %w", err)
		return "", err
	}

	styled = strings.TrimSpace(styled)
	if styled == "" {
		// A model that returns nothing must not blank the answer.
		return answer, nil
	}
	return styled, nil
}
