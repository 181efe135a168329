package router

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/sweetpotato0/ragalytics/llm"
	"github.com/sweetpotato0/ragalytics/message"
)

type stubStructured struct {
	response string
	err      error
	gotMsgs  []*message.Message
	schema   *llm.Schema
}

func (s *stubStructured) Complete(ctx context.Context, msgs []*message.Message) (string, error) {
	return s.response, s.err
}

func (s *stubStructured) CompleteStructured(ctx context.Context, msgs []*message.Message, schema *llm.Schema, out any) error {
	s.gotMsgs = msgs
	s.schema = schema
	if s.err != nil {
		return s.err
	}
	return json.Unmarshal([]byte(s.response), out)
}

type captureSink struct {
	records []Record
	err     error
}

func (c *captureSink) Record(ctx context.Context, rec Record) error {
	c.records = append(c.records, rec)
	return c.err
}

func TestClassifyReturnsSingleCategory(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     Category
	}{
		{"analytics", `{"category":"analytics","confidence":0.94,"reasoning":"asks for aggregated turnover"}`, CategoryAnalytics},
		{"semantic", `{"category":"semantic","confidence":0.88,"reasoning":"asks how a game works"}`, CategorySemantic},
		{"general", `{"category":"general","confidence":0.99,"reasoning":"greeting"}`, CategoryGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubStructured{response: tt.response}
			c := New(stub)

			got, err := c.Classify(context.Background(), "some question")
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if got.Category != tt.want {
				t.Errorf("category: got %q, want %q", got.Category, tt.want)
			}
			if got.Confidence <= 0 || got.Confidence > 1 {
				t.Errorf("confidence out of range: %v", got.Confidence)
			}
		})
	}
}

func TestClassifySendsSchemaAndQuestion(t *testing.T) {
	stub := &stubStructured{response: `{"category":"general","confidence":1,"reasoning":"x"}`}
	c := New(stub)

	if _, err := c.Classify(context.Background(), "What is the total turnover in Belgium?"); err != nil {
		t.Fatalf("Classify: %v", err)
	}

	if stub.schema == nil || stub.schema.Name != "query_classification" {
		t.Fatal("expected the classification schema to be passed through")
	}
	if len(stub.gotMsgs) != 2 {
		t.Fatalf("expected system + user message, got %d", len(stub.gotMsgs))
	}
	if stub.gotMsgs[0].Role != message.RoleSystem {
		t.Error("first message must be the system prompt")
	}
	if stub.gotMsgs[1].Content != "What is the total turnover in Belgium?" {
		t.Errorf("user message mangled: %q", stub.gotMsgs[1].Content)
	}
}

func TestClassifyDeterministicBackendIsIdempotent(t *testing.T) {
	stub := &stubStructured{response: `{"category":"analytics","confidence":0.9,"reasoning":"aggregation"}`}
	c := New(stub)

	first, err := c.Classify(context.Background(), "Total turnover by country?")
	if err != nil {
		t.Fatalf("first Classify: %v", err)
	}
	second, err := c.Classify(context.Background(), "Total turnover by country?")
	if err != nil {
		t.Fatalf("second Classify: %v", err)
	}
	if first.Category != second.Category {
		t.Errorf("deterministic backend must classify consistently: %q vs %q", first.Category, second.Category)
	}
}

func TestClassifyBackendFailureIsFatal(t *testing.T) {
	stub := &stubStructured{err: errors.New("rate limited")}
	c := New(stub)

	_, err := c.Classify(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error when the backend fails; no keyword fallback exists")
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("backend error should be wrapped, got %q", err)
	}
}

func TestClassifyRejectsUnknownCategory(t *testing.T) {
	stub := &stubStructured{response: `{"category":"hybrid","confidence":0.5,"reasoning":"?"}`}
	c := New(stub)

	if _, err := c.Classify(context.Background(), "hello"); err == nil {
		t.Fatal("expected error for category outside the closed set")
	}
}

func TestClassifyRejectsEmptyQuestion(t *testing.T) {
	c := New(&stubStructured{})
	if _, err := c.Classify(context.Background(), "   "); err == nil {
		t.Fatal("expected error for blank question")
	}
}

func TestClassifyRecordsToSink(t *testing.T) {
	stub := &stubStructured{response: `{"category":"semantic","confidence":0.8,"reasoning":"docs question"}`}
	sink := &captureSink{}
	c := New(stub, WithSink(sink))

	if _, err := c.Classify(context.Background(), "How does Star Burst work?"); err != nil {
		t.Fatalf("Classify: %v", err)
	}

	if len(sink.records) != 1 {
		t.Fatalf("expected one record, got %d", len(sink.records))
	}
	rec := sink.records[0]
	if rec.Category != CategorySemantic || rec.Question != "How does Star Burst work?" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("record must carry a timestamp")
	}
}

func TestClassifySinkFailureDoesNotFailRequest(t *testing.T) {
	stub := &stubStructured{response: `{"category":"general","confidence":1,"reasoning":"hi"}`}
	sink := &captureSink{err: errors.New("mongo down")}
	c := New(stub, WithSink(sink))

	if _, err := c.Classify(context.Background(), "hi"); err != nil {
		t.Fatalf("sink failure must not surface: %v", err)
	}
}
