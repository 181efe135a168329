package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sweetpotato0/ragalytics/analytics"
	"github.com/sweetpotato0/ragalytics/general"
	"github.com/sweetpotato0/ragalytics/message"
	"github.com/sweetpotato0/ragalytics/persona"
	"github.com/sweetpotato0/ragalytics/retrieval"
	"github.com/sweetpotato0/ragalytics/router"
	"github.com/sweetpotato0/ragalytics/vector"
)

type stubClassifier struct {
	category router.Category
	err      error
	calls    int
}

func (s *stubClassifier) Classify(ctx context.Context, question string) (*router.Classification, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &router.Classification{Category: s.category, Confidence: 0.9, Reasoning: "stub"}, nil
}

// queueClient replays replies in call order across whatever pipeline calls it.
type queueClient struct {
	mu      sync.Mutex
	replies []string
	err     error
}

func (q *queueClient) Complete(ctx context.Context, msgs []*message.Message) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return "", q.err
	}
	if len(q.replies) == 0 {
		return "", errors.New("queue client out of replies")
	}
	reply := q.replies[0]
	q.replies = q.replies[1:]
	return reply, nil
}

type fixedExecutor struct {
	result string
	err    error
}

func (f *fixedExecutor) Execute(ctx context.Context, query string) (string, error) {
	return f.result, f.err
}

type fixedStore struct {
	hits []*vector.Embedding
}

func (f *fixedStore) Add(ctx context.Context, embeddings ...*vector.Embedding) error { return nil }
func (f *fixedStore) Search(ctx context.Context, queryVector []float32, topK int) ([]*vector.Embedding, error) {
	if topK < len(f.hits) {
		return f.hits[:topK], nil
	}
	return f.hits, nil
}
func (f *fixedStore) Clear(ctx context.Context) error        { return nil }
func (f *fixedStore) Count(ctx context.Context) (int, error) { return len(f.hits), nil }

type fixedEmbedder struct{}

func (fixedEmbedder) Dimension() int { return 4 }
func (fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0, 0}, nil
}
func (f fixedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0, 0}
	}
	return out, nil
}

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (m *memoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	return val, ok, nil
}

func (m *memoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func hit(title, body string) *vector.Embedding {
	return &vector.Embedding{
		ID:       title,
		Text:     body,
		Vector:   []float32{1, 0, 0, 0},
		Metadata: map[string]string{"title": title, "provenance": "test"},
	}
}

// newEngine builds an engine where analytics/general share one scripted
// client, retrieval and styling each get their own.
func newEngine(classifier Classifier, pipelineClient, stylerClient *queueClient, executor *fixedExecutor, store *fixedStore, opts ...Option) *Engine {
	idx := retrieval.NewIndex(store, fixedEmbedder{})
	return New(
		classifier,
		analytics.New(pipelineClient, executor),
		retrieval.New(pipelineClient, idx),
		general.New(pipelineClient),
		persona.NewStyler(stylerClient),
		opts...,
	)
}

func TestAskAnalyticsFlowStylesAnswer(t *testing.T) {
	classifier := &stubClassifier{category: router.CategoryAnalytics}
	pipelineClient := &queueClient{replies: []string{
		"plan",
		"SELECT SUM(turnover) AS total FROM products WHERE country = 'Belgium'",
		"Total turnover in Belgium is 4.05.",
	}}
	stylerClient := &queueClient{replies: []string{"Belgium delivered a solid 4.05 in turnover."}}
	executor := &fixedExecutor{result: "total\n4.05"}

	e := newEngine(classifier, pipelineClient, stylerClient, executor, &fixedStore{})

	resp, err := e.Ask(context.Background(), Request{Question: "Total turnover in Belgium?", Persona: "marketing"})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if resp.Category != router.CategoryAnalytics {
		t.Errorf("category: %q", resp.Category)
	}
	if resp.GeneratedQuery == "" {
		t.Error("analytics responses must expose the generated query")
	}
	if resp.Passages != nil {
		t.Error("analytics responses must not carry passages")
	}
	if len(resp.ResultRows) != 1 || resp.ResultRows[0]["total"] != "4.05" {
		t.Errorf("result rows: %v", resp.ResultRows)
	}
	if resp.Answer != "Belgium delivered a solid 4.05 in turnover." {
		t.Errorf("answer must be the styled text: %q", resp.Answer)
	}
	if resp.ErrorDetail != "" {
		t.Errorf("unexpected error detail: %q", resp.ErrorDetail)
	}
}

func TestAskAnalyticsFailurePhrasedNotStyled(t *testing.T) {
	classifier := &stubClassifier{category: router.CategoryAnalytics}
	pipelineClient := &queueClient{replies: []string{
		"plan",
		"SELECT name FROM products",
	}}
	stylerClient := &queueClient{} // must never be called
	executor := &fixedExecutor{err: errors.New("database is locked")}

	e := newEngine(classifier, pipelineClient, stylerClient, executor, &fixedStore{})

	resp, err := e.Ask(context.Background(), Request{Question: "names?"})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if resp.ErrorDetail != "database is locked" {
		t.Errorf("error detail: %q", resp.ErrorDetail)
	}
	if !strings.Contains(resp.Answer, "I encountered an error while processing your query") {
		t.Errorf("failure must be phrased in the answer: %q", resp.Answer)
	}
	if resp.ResultRows != nil {
		t.Error("failed execution must not carry rows")
	}
}

func TestAskSemanticFlowSkipsStylingAndTruncatesExcerpts(t *testing.T) {
	classifier := &stubClassifier{category: router.CategorySemantic}
	longBody := strings.Repeat("x", 250)
	store := &fixedStore{hits: []*vector.Embedding{
		hit("Lucky 7 Slots", longBody),
		hit("Star Burst", "short body"),
		hit("Roulette Pro", "another"),
		hit("Blackjack Royale", "fourth"),
	}}
	pipelineClient := &queueClient{replies: []string{"Grounded answer in persona voice."}}
	stylerClient := &queueClient{} // empty: a styling call would error

	e := newEngine(classifier, pipelineClient, stylerClient, &fixedExecutor{}, store)

	resp, err := e.Ask(context.Background(), Request{Question: "How does Lucky 7 Slots work?"})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if resp.Answer != "Grounded answer in persona voice." {
		t.Errorf("retrieval answers must pass through unstyled: %q", resp.Answer)
	}
	if len(resp.Passages) != 3 {
		t.Fatalf("passage refs capped at 3, got %d", len(resp.Passages))
	}
	if resp.GeneratedQuery != "" {
		t.Error("semantic responses must not carry a generated query")
	}
	first := resp.Passages[0]
	if first.Title != "Lucky 7 Slots" {
		t.Errorf("first passage: %q", first.Title)
	}
	if len([]rune(first.Excerpt)) != 203 || !strings.HasSuffix(first.Excerpt, "...") {
		t.Errorf("long excerpt must be truncated to 200 runes plus ellipsis, got %d runes", len([]rune(first.Excerpt)))
	}
	if resp.Passages[1].Excerpt != "short body" {
		t.Errorf("short excerpt must pass through untouched: %q", resp.Passages[1].Excerpt)
	}
}

func TestAskGeneralFlowStyled(t *testing.T) {
	classifier := &stubClassifier{category: router.CategoryGeneral}
	pipelineClient := &queueClient{replies: []string{"Hello! Ask me about your games."}}
	stylerClient := &queueClient{replies: []string{"Hi there! Ask me anything about your games."}}

	e := newEngine(classifier, pipelineClient, stylerClient, &fixedExecutor{}, &fixedStore{})

	resp, err := e.Ask(context.Background(), Request{Question: "Hello!"})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if resp.Answer != "Hi there! Ask me anything about your games." {
		t.Errorf("general answers are styled: %q", resp.Answer)
	}
	if resp.Persona != persona.Default.String() {
		t.Errorf("missing persona must normalize to the default: %q", resp.Persona)
	}
}

func TestAskStylingFailureFailsRequest(t *testing.T) {
	classifier := &stubClassifier{category: router.CategoryGeneral}
	pipelineClient := &queueClient{replies: []string{"Plain answer."}}
	stylerClient := &queueClient{err: errors.New("styler down")}

	e := newEngine(classifier, pipelineClient, stylerClient, &fixedExecutor{}, &fixedStore{})

	resp, err := e.Ask(context.Background(), Request{Question: "Hello!"})
	if err == nil {
		t.Fatal("a styling failure must fail the whole request")
	}
	if !strings.Contains(err.Error(), "styler down") {
		t.Errorf("styler error must be wrapped: %v", err)
	}
	if resp != nil {
		t.Error("no partial response on styling failure")
	}
}

func TestAskClassifierFailureIsFatal(t *testing.T) {
	classifier := &stubClassifier{err: errors.New("backend down")}
	e := newEngine(classifier, &queueClient{}, &queueClient{}, &fixedExecutor{}, &fixedStore{})

	if _, err := e.Ask(context.Background(), Request{Question: "hi"}); err == nil {
		t.Fatal("classification failure must surface as an error")
	}
}

func TestAskRejectsEmptyQuestion(t *testing.T) {
	e := newEngine(&stubClassifier{}, &queueClient{}, &queueClient{}, &fixedExecutor{}, &fixedStore{})
	if _, err := e.Ask(context.Background(), Request{Question: "   "}); err == nil {
		t.Fatal("expected error for blank question")
	}
}

func TestAskCacheHitSkipsClassification(t *testing.T) {
	classifier := &stubClassifier{category: router.CategoryGeneral}
	pipelineClient := &queueClient{replies: []string{"First answer."}}
	stylerClient := &queueClient{replies: []string{"First answer, styled."}}
	mem := newMemoryCache()

	e := newEngine(classifier, pipelineClient, stylerClient, &fixedExecutor{}, &fixedStore{},
		WithCache(mem, time.Minute))

	first, err := e.Ask(context.Background(), Request{Question: "Hello!"})
	if err != nil {
		t.Fatalf("first Ask: %v", err)
	}
	if first.Cached {
		t.Error("first response must not be marked cached")
	}

	second, err := e.Ask(context.Background(), Request{Question: "Hello!"})
	if err != nil {
		t.Fatalf("second Ask: %v", err)
	}
	if !second.Cached {
		t.Error("second response must come from the cache")
	}
	if second.Answer != first.Answer {
		t.Errorf("cached answer mismatch: %q vs %q", second.Answer, first.Answer)
	}
	if classifier.calls != 1 {
		t.Errorf("cache hit must skip classification, classifier called %d times", classifier.calls)
	}
}

func TestAskCacheKeyIncludesPersona(t *testing.T) {
	classifier := &stubClassifier{category: router.CategoryGeneral}
	pipelineClient := &queueClient{replies: []string{"a1", "a2"}}
	stylerClient := &queueClient{replies: []string{"s1", "s2"}}
	mem := newMemoryCache()

	e := newEngine(classifier, pipelineClient, stylerClient, &fixedExecutor{}, &fixedStore{},
		WithCache(mem, time.Minute))

	if _, err := e.Ask(context.Background(), Request{Question: "Hello!", Persona: "product_owner"}); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	resp, err := e.Ask(context.Background(), Request{Question: "Hello!", Persona: "marketing"})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if resp.Cached {
		t.Error("a different persona must not hit the other persona's cache entry")
	}
	if classifier.calls != 2 {
		t.Errorf("expected two classifications, got %d", classifier.calls)
	}
}

func TestAskFailedAnswersNotCached(t *testing.T) {
	classifier := &stubClassifier{category: router.CategoryAnalytics}
	pipelineClient := &queueClient{replies: []string{
		"plan", "SELECT name FROM products",
		"plan", "SELECT name FROM products",
	}}
	executor := &fixedExecutor{err: errors.New("database is locked")}
	mem := newMemoryCache()

	e := newEngine(classifier, pipelineClient, &queueClient{}, executor, &fixedStore{},
		WithCache(mem, time.Minute))

	if _, err := e.Ask(context.Background(), Request{Question: "names?"}); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if len(mem.data) != 0 {
		t.Error("failed answers must not be cached")
	}

	resp, err := e.Ask(context.Background(), Request{Question: "names?"})
	if err != nil {
		t.Fatalf("second Ask: %v", err)
	}
	if resp.Cached {
		t.Error("second failed ask must re-run, not hit the cache")
	}
}

func TestResponseJSONOmitsEmptyCategoryFields(t *testing.T) {
	resp := Response{
		Question: "Hello!",
		Category: router.CategoryGeneral,
		Persona:  "product_owner",
		Answer:   "Hi.",
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, field := range []string{"generated_query", "result_rows", "passages", "error_detail"} {
		if strings.Contains(string(raw), field) {
			t.Errorf("empty field %q must be omitted: %s", field, raw)
		}
	}
}
