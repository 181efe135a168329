package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/sweetpotato0/ragalytics/llm"
	"github.com/sweetpotato0/ragalytics/message"
	"github.com/sweetpotato0/ragalytics/persona"
	"github.com/sweetpotato0/ragalytics/pkg/logging"
	"github.com/sweetpotato0/ragalytics/pkg/telemetry"
)

// DefaultContextBudget caps the token count of the assembled context block.
const DefaultContextBudget = 3000

const contextEncoding = "cl100k_base"

// Result is a retrieval pipeline outcome: the answer plus the passages it was
// grounded on, in similarity order.
type Result struct {
	Answer   string
	Passages []Passage
}

// Pipeline answers documentation questions from retrieved passages. The
// persona is baked into generation here, so orchestration applies no separate
// styling pass to retrieval answers.
type Pipeline struct {
	client llm.Client
	index  *Index
	topK   int
	budget int
	logger interface {
		Debug(msg string, args ...any)
		Warn(msg string, args ...any)
	}
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTopK overrides the retrieval depth.
func WithTopK(topK int) Option {
	return func(p *Pipeline) { p.topK = topK }
}

// WithContextBudget overrides the token budget for the context block.
func WithContextBudget(tokens int) Option {
	return func(p *Pipeline) { p.budget = tokens }
}

// New creates a retrieval pipeline.
func New(client llm.Client, index *Index, opts ...Option) *Pipeline {
	p := &Pipeline{
		client: client,
		index:  index,
		topK:   DefaultTopK,
		budget: DefaultContextBudget,
		logger: logging.WithComponent("retrieval"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run retrieves context for the question and generates a grounded answer in
// the persona's voice.
func (p *Pipeline) Run(ctx context.Context, question string, voice persona.Persona) (*Result, error) {
	ctx, span := telemetry.Tracer("retrieval").Start(ctx, "retrieval.run")
	var err error
	defer func() { telemetry.End(span, err) }()

	question = strings.TrimSpace(question)
	if question == "" {
		err = fmt.Errorf("question cannot be empty")
		return nil, err
	}

	passages, err := p.index.Search(ctx, question, p.topK)
	if err != nil {
		err = fmt.Errorf("retrieve context: %w", err)
		return nil, err
	}

	kept, contextBlock := p.buildContext(passages)
	p.logger.Debug("retrieved context", "requested", p.topK, "kept", len(kept))

	msgs := []*message.Message{
		message.System(persona.GroundedPrompt(voice)),
		message.User(fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextBlock, question)),
	}
	answer, err := p.client.Complete(ctx, msgs)
	if err != nil {
		err = fmt.Errorf("generate grounded answer: %w", err)
		return nil, err
	}

	return &Result{
		Answer:   strings.TrimSpace(answer),
		Passages: kept,
	}, nil
}

// buildContext renders passages as "Source: <title>" blocks joined by
// dividers, dropping tail passages once the token budget is exhausted. The
// first passage is always kept even if it alone exceeds the budget.
func (p *Pipeline) buildContext(passages []Passage) ([]Passage, string) {
	if len(passages) == 0 {
		return nil, "(no matching documentation found)"
	}

	enc, err := tiktoken.GetEncoding(contextEncoding)
	if err != nil {
		p.logger.Warn("token encoding unavailable, using character heuristic", "error", err)
		enc = nil
	}
	countTokens := func(s string) int {
		if enc != nil {
			return len(enc.Encode(s, nil, nil))
		}
		return len(s) / 4
	}

	var blocks []string
	var kept []Passage
	used := 0
	for i, passage := range passages {
		block := fmt.Sprintf("Source: %s\n%s", passage.Title, passage.Body)
		tokens := countTokens(block)
		if i > 0 && used+tokens > p.budget {
			break
		}
		used += tokens
		blocks = append(blocks, block)
		kept = append(kept, passage)
	}
	return kept, strings.Join(blocks, "\n\n---\n\n")
}
