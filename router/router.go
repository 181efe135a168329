// Package router classifies incoming questions into exactly one pipeline
// category using a schema-constrained LLM completion.
package router

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sweetpotato0/ragalytics/llm"
	"github.com/sweetpotato0/ragalytics/message"
	"github.com/sweetpotato0/ragalytics/pkg/logging"
	"github.com/sweetpotato0/ragalytics/pkg/telemetry"
)

// Category identifies which pipeline handles a question.
type Category string

const (
	// CategoryAnalytics routes to the SQL pipeline over the structured store.
	CategoryAnalytics Category = "analytics"
	// CategorySemantic routes to the retrieval pipeline over the passage index.
	CategorySemantic Category = "semantic"
	// CategoryGeneral routes to the direct completion pipeline.
	CategoryGeneral Category = "general"
)

// Valid reports whether c is one of the three known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryAnalytics, CategorySemantic, CategoryGeneral:
		return true
	}
	return false
}

// Classification is the routing decision for one question.
type Classification struct {
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
}

// Record is one classification event handed to a diagnostic sink.
type Record struct {
	Question   string    `bson:"question" json:"question"`
	Category   Category  `bson:"category" json:"category"`
	Confidence float64   `bson:"confidence" json:"confidence"`
	Reasoning  string    `bson:"reasoning" json:"reasoning"`
	Elapsed    string    `bson:"elapsed" json:"elapsed"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

// DiagnosticSink receives classification records for offline analysis. Sink
// failures never fail a request.
type DiagnosticSink interface {
	Record(ctx context.Context, rec Record) error
}

// SlogSink is the default sink: it writes each decision to the structured
// log instead of persisting it.
type SlogSink struct{}

var _ DiagnosticSink = SlogSink{}

func (SlogSink) Record(ctx context.Context, rec Record) error {
	logging.WithComponent("router").Info("classification",
		"question", rec.Question,
		"category", rec.Category,
		"confidence", rec.Confidence,
		"reasoning", rec.Reasoning,
		"elapsed", rec.Elapsed)
	return nil
}

const systemPrompt = `You are a query classifier for a gaming platform assistant.
Classify the user's question into exactly one category:

- "analytics": questions about product data, numbers, aggregations, comparisons,
  turnover, launch dates, countries, or market segments. These are answered by
  querying a database. Examples: "What is the total turnover in Belgium?",
  "Which game launched most recently?", "How many high-segment products are there?"

- "semantic": questions about game rules, features, how games work, or anything
  answered from product documentation. Examples: "How does Lucky 7 Slots work?",
  "What bonus rounds does Star Burst have?", "Explain the roulette side bets."

- "general": greetings, small talk, and questions unrelated to the platform's
  data or documentation. Examples: "Hello!", "What can you do?", "Tell me a joke."

Report your confidence between 0 and 1 and a one-sentence reasoning.`

var classificationSchema = &llm.Schema{
	Name:        "query_classification",
	Description: "Routing decision for a user question",
	Raw: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"category": map[string]any{
				"type": "string",
				"enum": []string{"analytics", "semantic", "general"},
			},
			"confidence": map[string]any{
				"type":    "number",
				"minimum": 0,
				"maximum": 1,
			},
			"reasoning": map[string]any{
				"type": "string",
			},
		},
		"required":             []string{"category", "confidence", "reasoning"},
		"additionalProperties": false,
	},
}

// Classifier routes questions to pipelines. The LLM backend is the single
// source of truth; there is no keyword fallback, and a backend failure is a
// classification failure.
type Classifier struct {
	client llm.StructuredClient
	sink   DiagnosticSink
	logger interface {
		Debug(msg string, args ...any)
		Warn(msg string, args ...any)
	}
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithSink attaches a diagnostic sink.
func WithSink(sink DiagnosticSink) Option {
	return func(c *Classifier) { c.sink = sink }
}

// New creates a classifier backed by a structured-output client. Decisions
// go to the slog sink unless WithSink replaces it.
func New(client llm.StructuredClient, opts ...Option) *Classifier {
	c := &Classifier{
		client: client,
		sink:   SlogSink{},
		logger: logging.WithComponent("router"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify assigns the question to exactly one category. The decision is
// recorded to the diagnostic sink when one is configured.
func (c *Classifier) Classify(ctx context.Context, question string) (*Classification, error) {
	ctx, span := telemetry.Tracer("router").Start(ctx, "router.classify")
	var err error
	defer func() { telemetry.End(span, err) }()

	question = strings.TrimSpace(question)
	if question == "" {
		err = fmt.Errorf("question cannot be empty")
		return nil, err
	}

	msgs := []*message.Message{
		message.System(systemPrompt),
		message.User(question),
	}

	start := time.Now()
	var result Classification
	if err = c.client.CompleteStructured(ctx, msgs, classificationSchema, &result); err != nil {
		err = fmt.Errorf("classify question: %w", err)
		return nil, err
	}
	if !result.Category.Valid() {
		err = fmt.Errorf("classifier returned unknown category %q", result.Category)
		return nil, err
	}

	c.logger.Debug("classified question",
		"category", result.Category,
		"confidence", result.Confidence,
		"elapsed", time.Since(start))

	if c.sink != nil {
		rec := Record{
			Question:   question,
			Category:   result.Category,
			Confidence: result.Confidence,
			Reasoning:  result.Reasoning,
			Elapsed:    time.Since(start).String(),
			CreatedAt:  time.Now().UTC(),
		}
		if sinkErr := c.sink.Record(ctx, rec); sinkErr != nil {
			c.logger.Warn("diagnostic sink failed", "error", sinkErr)
		}
	}

	return &result, nil
}
