// Package analytics implements the SQL pipeline: plan, generate a query,
// execute it against the structured store, and phrase the result.
package analytics

import (
	"context"
	"fmt"
	"strings"

	"github.com/sweetpotato0/ragalytics/llm"
	"github.com/sweetpotato0/ragalytics/message"
	"github.com/sweetpotato0/ragalytics/pkg/logging"
	"github.com/sweetpotato0/ragalytics/pkg/telemetry"
	"github.com/sweetpotato0/ragalytics/store"
)

// State carries a question through the pipeline stages. Stages mutate it in
// order; a failed execution leaves Err set and the answer stage phrases the
// failure instead of a result.
type State struct {
	Question       string
	Analysis       string
	GeneratedQuery string
	RawResult      string
	Answer         string
	Repaired       bool
	Err            error
}

// recoverableSignatures is the closed set of execution error substrings that
// trigger the single repair attempt. Matching is case-insensitive.
var recoverableSignatures = []string{
	"no such column",
}

func isRecoverable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range recoverableSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

// Pipeline answers analytics questions by generating and executing SQL.
type Pipeline struct {
	client   llm.Client
	executor store.Executor
	dialect  string
	logger   interface {
		Debug(msg string, args ...any)
		Warn(msg string, args ...any)
	}
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDialect overrides the SQL dialect named in the generation prompt.
func WithDialect(dialect string) Option {
	return func(p *Pipeline) { p.dialect = dialect }
}

// New creates an analytics pipeline.
func New(client llm.Client, executor store.Executor, opts ...Option) *Pipeline {
	p := &Pipeline{
		client:   client,
		executor: executor,
		dialect:  "SQLite",
		logger:   logging.WithComponent("analytics"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the full pipeline for one question and returns the final
// state. Only infrastructure failures (the generation backend itself) return
// an error; SQL execution failures are absorbed into a phrased answer.
func (p *Pipeline) Run(ctx context.Context, question string) (*State, error) {
	ctx, span := telemetry.Tracer("analytics").Start(ctx, "analytics.run")
	var err error
	defer func() { telemetry.End(span, err) }()

	state := &State{Question: strings.TrimSpace(question)}
	if state.Question == "" {
		err = fmt.Errorf("question cannot be empty")
		return nil, err
	}

	stages := []func(context.Context, *State) error{
		p.analyze,
		p.generateQuery,
		p.execute,
		p.generateAnswer,
	}
	for _, stage := range stages {
		if err = stage(ctx, state); err != nil {
			return nil, err
		}
	}
	return state, nil
}

// analyze produces a short plan for the question. The plan is advisory: it
// is logged for debugging but not fed into later stages.
func (p *Pipeline) analyze(ctx context.Context, state *State) error {
	msgs := []*message.Message{
		message.System(analyzePrompt),
		message.User(state.Question),
	}
	analysis, err := p.client.Complete(ctx, msgs)
	if err != nil {
		return fmt.Errorf("analyze question: %w", err)
	}
	state.Analysis = strings.TrimSpace(analysis)
	p.logger.Debug("analyzed question", "analysis", state.Analysis)
	return nil
}

func (p *Pipeline) generateQuery(ctx context.Context, state *State) error {
	msgs := []*message.Message{
		message.System(fmt.Sprintf(generatePrompt, p.dialect, store.Schema)),
		message.User(state.Question),
	}
	raw, err := p.client.Complete(ctx, msgs)
	if err != nil {
		return fmt.Errorf("generate query: %w", err)
	}
	state.GeneratedQuery = llm.StripFences(raw)
	p.logger.Debug("generated query", "query", state.GeneratedQuery)
	return nil
}

// execute runs the generated query. On a recoverable failure it asks the
// model to repair the query once, feeding back the error text; any further
// failure, or a non-recoverable one, is recorded in state.Err.
func (p *Pipeline) execute(ctx context.Context, state *State) error {
	result, execErr := p.executor.Execute(ctx, state.GeneratedQuery)
	if execErr == nil {
		state.RawResult = result
		return nil
	}
	if !isRecoverable(execErr) {
		state.Err = execErr
		return nil
	}

	p.logger.Warn("query failed, attempting repair", "error", execErr)
	repaired, err := p.repairQuery(ctx, state, execErr)
	if err != nil {
		return err
	}
	state.GeneratedQuery = repaired
	state.Repaired = true

	result, execErr = p.executor.Execute(ctx, state.GeneratedQuery)
	if execErr != nil {
		state.Err = execErr
		return nil
	}
	state.RawResult = result
	return nil
}

func (p *Pipeline) repairQuery(ctx context.Context, state *State, execErr error) (string, error) {
	msgs := []*message.Message{
		message.System(fmt.Sprintf(repairPrompt, p.dialect, store.Schema)),
		message.User(fmt.Sprintf("Question: %s\n\nFailed query:\n%s\n\nError:\n%s",
			state.Question, state.GeneratedQuery, execErr.Error())),
	}
	raw, err := p.client.Complete(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("repair query: %w", err)
	}
	return llm.StripFences(raw), nil
}

func (p *Pipeline) generateAnswer(ctx context.Context, state *State) error {
	if state.Err != nil {
		state.Answer = fmt.Sprintf("I encountered an error while processing your query: %s", state.Err.Error())
		return nil
	}

	msgs := []*message.Message{
		message.System(answerPrompt),
		message.User(fmt.Sprintf("Question: %s\n\nSQL Query:\n%s\n\nQuery results:\n%s",
			state.Question, state.GeneratedQuery, state.RawResult)),
	}
	answer, err := p.client.Complete(ctx, msgs)
	if err != nil {
		return fmt.Errorf("generate answer: %w", err)
	}
	state.Answer = strings.TrimSpace(answer)
	return nil
}
