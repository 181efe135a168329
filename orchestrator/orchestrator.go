// Package orchestrator ties the classifier and the three pipelines into a
// single Ask entry point producing one uniform response shape.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sweetpotato0/ragalytics/analytics"
	"github.com/sweetpotato0/ragalytics/cache"
	"github.com/sweetpotato0/ragalytics/general"
	"github.com/sweetpotato0/ragalytics/persona"
	"github.com/sweetpotato0/ragalytics/pkg/logging"
	"github.com/sweetpotato0/ragalytics/pkg/telemetry"
	"github.com/sweetpotato0/ragalytics/retrieval"
	"github.com/sweetpotato0/ragalytics/router"
)

// Request is one question with an optional persona.
type Request struct {
	Question string `json:"question"`
	Persona  string `json:"persona,omitempty"`
}

// PassageRef points a response at a supporting passage. Excerpts are
// truncated so responses stay small; the full passage lives in the index.
type PassageRef struct {
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
}

// Response is the uniform answer shape for every category. Category-specific
// fields are empty for the categories that do not produce them.
type Response struct {
	Question       string              `json:"question"`
	Category       router.Category     `json:"category"`
	Persona        string              `json:"persona"`
	Answer         string              `json:"answer"`
	GeneratedQuery string              `json:"generated_query,omitempty"`
	ResultRows     []map[string]string `json:"result_rows,omitempty"`
	Passages       []PassageRef        `json:"passages,omitempty"`
	ErrorDetail    string              `json:"error_detail,omitempty"`
	Cached         bool                `json:"cached,omitempty"`
}

const (
	maxPassageRefs = 3
	excerptRunes   = 200
)

// Classifier is the routing capability the orchestrator depends on.
type Classifier interface {
	Classify(ctx context.Context, question string) (*router.Classification, error)
}

// Engine runs the full ask flow: cache lookup, classification, dispatch, and
// persona styling for the pipelines that do not bake the persona into
// generation.
type Engine struct {
	classifier Classifier
	analytics  *analytics.Pipeline
	retrieval  *retrieval.Pipeline
	general    *general.Pipeline
	styler     *persona.Styler
	cache      cache.ResponseCache
	cacheTTL   time.Duration
	logger     interface {
		Info(msg string, args ...any)
		Warn(msg string, args ...any)
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache enables response caching with the given TTL.
func WithCache(c cache.ResponseCache, ttl time.Duration) Option {
	return func(e *Engine) {
		e.cache = c
		e.cacheTTL = ttl
	}
}

// New wires an engine from its pipelines. All dependencies are required
// except the cache, which defaults to a no-op.
func New(classifier Classifier, a *analytics.Pipeline, r *retrieval.Pipeline, g *general.Pipeline, styler *persona.Styler, opts ...Option) *Engine {
	e := &Engine{
		classifier: classifier,
		analytics:  a,
		retrieval:  r,
		general:    g,
		styler:     styler,
		cache:      cache.Noop{},
		logger:     logging.WithComponent("orchestrator"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ask answers one question. Pipeline-internal failures that already produced
// a phrased answer (failed SQL) come back as a Response with ErrorDetail set;
// only infrastructure failures return an error.
func (e *Engine) Ask(ctx context.Context, req Request) (*Response, error) {
	ctx, span := telemetry.Tracer("orchestrator").Start(ctx, "orchestrator.ask")
	var err error
	defer func() { telemetry.End(span, err) }()

	question := strings.TrimSpace(req.Question)
	if question == "" {
		err = fmt.Errorf("question cannot be empty")
		return nil, err
	}
	voice := persona.Normalize(req.Persona)

	key := cache.Key(question, voice.String())
	if cached, ok := e.lookupCache(ctx, key); ok {
		return cached, nil
	}

	classification, err := e.classifier.Classify(ctx, question)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		Question: question,
		Category: classification.Category,
		Persona:  voice.String(),
	}

	start := time.Now()
	switch classification.Category {
	case router.CategoryAnalytics:
		err = e.runAnalytics(ctx, question, voice, resp)
	case router.CategorySemantic:
		err = e.runRetrieval(ctx, question, voice, resp)
	case router.CategoryGeneral:
		err = e.runGeneral(ctx, question, voice, resp)
	default:
		err = fmt.Errorf("unknown category %q", classification.Category)
	}
	if err != nil {
		return nil, err
	}

	e.logger.Info("answered question",
		"category", resp.Category,
		"persona", resp.Persona,
		"failed", resp.ErrorDetail != "",
		"elapsed", time.Since(start))

	e.storeCache(ctx, key, resp)
	return resp, nil
}

func (e *Engine) runAnalytics(ctx context.Context, question string, voice persona.Persona, resp *Response) error {
	state, err := e.analytics.Run(ctx, question)
	if err != nil {
		return err
	}
	resp.GeneratedQuery = state.GeneratedQuery
	resp.Answer = state.Answer
	if state.Err != nil {
		// The answer already phrases the failure; styling would paraphrase an
		// error message, so it is skipped.
		resp.ErrorDetail = state.Err.Error()
		return nil
	}
	resp.ResultRows = analytics.ParseRows(state.RawResult)
	return e.style(ctx, question, voice, resp)
}

func (e *Engine) runRetrieval(ctx context.Context, question string, voice persona.Persona, resp *Response) error {
	result, err := e.retrieval.Run(ctx, question, voice)
	if err != nil {
		return err
	}
	// Persona is baked into the grounded generation; no styling pass.
	resp.Answer = result.Answer
	resp.Passages = passageRefs(result.Passages)
	return nil
}

func (e *Engine) runGeneral(ctx context.Context, question string, voice persona.Persona, resp *Response) error {
	answer, err := e.general.Run(ctx, question, voice)
	if err != nil {
		return err
	}
	resp.Answer = answer
	return e.style(ctx, question, voice, resp)
}

// style rewrites the answer in the persona's voice. A styling failure fails
// the whole request; there is no retry and the raw answer is discarded.
func (e *Engine) style(ctx context.Context, question string, voice persona.Persona, resp *Response) error {
	styled, err := e.styler.Style(ctx, resp.Answer, voice, question)
	if err != nil {
		return fmt.Errorf("style answer: %w", err)
	}
	resp.Answer = styled
	return nil
}

func (e *Engine) lookupCache(ctx context.Context, key string) (*Response, bool) {
	raw, hit, err := e.cache.Get(ctx, key)
	if err != nil {
		e.logger.Warn("cache lookup failed", "error", err)
		return nil, false
	}
	if !hit {
		return nil, false
	}
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		e.logger.Warn("cache entry corrupt, ignoring", "error", err)
		return nil, false
	}
	resp.Cached = true
	return &resp, true
}

func (e *Engine) storeCache(ctx context.Context, key string, resp *Response) {
	// Failed answers are not cached; the failure may be transient.
	if resp.ErrorDetail != "" {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := e.cache.Set(ctx, key, raw, e.cacheTTL); err != nil {
		e.logger.Warn("cache store failed", "error", err)
	}
}

// passageRefs keeps the first maxPassageRefs passages and truncates each
// body to excerptRunes runes.
func passageRefs(passages []retrieval.Passage) []PassageRef {
	limit := len(passages)
	if limit > maxPassageRefs {
		limit = maxPassageRefs
	}
	refs := make([]PassageRef, 0, limit)
	for _, p := range passages[:limit] {
		refs = append(refs, PassageRef{
			Title:   p.Title,
			Excerpt: truncate(p.Body, excerptRunes),
		})
	}
	return refs
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
