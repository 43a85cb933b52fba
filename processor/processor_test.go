package processor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/nkoval/mailbrief/gmail"
)

// fakeGenerator is a scripted stand-in for the inference endpoint.
type fakeGenerator struct {
	replies map[string]string // keyed on a substring of the prompt
	err     error
	errOn   string // substring of the prompt that triggers err
	prompts []string
}

func (f *fakeGenerator) generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.errOn != "" && strings.Contains(prompt, f.errOn) {
		return "", f.err
	}
	if f.err != nil && f.errOn == "" {
		return "", f.err
	}
	for key, reply := range f.replies {
		if strings.Contains(prompt, key) {
			return reply, nil
		}
	}
	return "", nil
}

func newTestProcessor(gen generator, bodyLimit int) *Processor {
	return &Processor{gen: gen, bodyLimit: bodyLimit, logger: zap.NewNop().Sugar()}
}

func TestProcessEmptyBatch(t *testing.T) {
	gen := &fakeGenerator{}
	p := newTestProcessor(gen, 0)

	results := p.Process(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("Process(nil) returned %d results, want 0", len(results))
	}
	if len(gen.prompts) != 0 {
		t.Errorf("no inference calls expected for an empty batch, got %d", len(gen.prompts))
	}
}

func TestProcessSingleMessage(t *testing.T) {
	gen := &fakeGenerator{
		replies: map[string]string{
			"YoYoExpert": `Category: Work
Priority: Medium
Summary: Your yoyo order has shipped.
Action Items:
- Track the package`,
		},
	}
	p := newTestProcessor(gen, 0)

	msg := gmail.Message{
		ID:      "msg-1",
		Subject: "Order Shipped - YoYoExpert.com",
		From:    "orders@yoyoexpert.com",
		Date:    "Fri, 15 Mar 2024 10:00:00 -0400",
		Body:    "Your order has shipped and is on its way!",
	}
	results := p.Process(context.Background(), []gmail.Message{msg})
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if len(gen.prompts) != 1 {
		t.Fatalf("got %d inference calls, want 1", len(gen.prompts))
	}

	prompt := gen.prompts[0]
	for _, embedded := range []string{msg.Subject, msg.From, msg.Body} {
		if !strings.Contains(prompt, embedded) {
			t.Errorf("prompt is missing %q", embedded)
		}
	}

	r := results[0]
	if r.Subject != msg.Subject || r.Sender != msg.From || r.Date != msg.Date {
		t.Errorf("message fields not carried over: %+v", r)
	}
	if r.Category != "Work" || r.Priority != "Medium" {
		t.Errorf("Category/Priority = %q/%q, want Work/Medium", r.Category, r.Priority)
	}
	if r.Summary != "Your yoyo order has shipped." {
		t.Errorf("Summary = %q", r.Summary)
	}
	if len(r.ActionItems) != 1 || r.ActionItems[0] != "Track the package" {
		t.Errorf("ActionItems = %v", r.ActionItems)
	}
}

func TestProcessOrderPreserved(t *testing.T) {
	gen := &fakeGenerator{
		replies: map[string]string{
			"first":  "Summary: one",
			"second": "Summary: two",
			"third":  "Summary: three",
		},
	}
	p := newTestProcessor(gen, 0)

	msgs := []gmail.Message{
		{ID: "a", Subject: "first"},
		{ID: "b", Subject: "second"},
		{ID: "c", Subject: "third"},
	}
	results := p.Process(context.Background(), msgs)
	if len(results) != len(msgs) {
		t.Fatalf("got %d results, want %d", len(results), len(msgs))
	}
	for i, r := range results {
		if r.ID != msgs[i].ID {
			t.Errorf("results[%d].ID = %q, want %q", i, r.ID, msgs[i].ID)
		}
	}
	if want := []string{"one", "two", "three"}; results[0].Summary != want[0] ||
		results[1].Summary != want[1] || results[2].Summary != want[2] {
		t.Errorf("summaries out of order: %q %q %q", results[0].Summary, results[1].Summary, results[2].Summary)
	}
}

func TestProcessInferenceFailureDegradesOneMessage(t *testing.T) {
	gen := &fakeGenerator{
		replies: map[string]string{
			"first": "Category: Personal\nPriority: Low\nSummary: ok",
			"third": "Category: Work\nPriority: High\nSummary: fine",
		},
		err:   errors.New("connection refused"),
		errOn: "second",
	}
	p := newTestProcessor(gen, 0)

	msgs := []gmail.Message{
		{ID: "a", Subject: "first"},
		{ID: "b", Subject: "second"},
		{ID: "c", Subject: "third"},
	}
	results := p.Process(context.Background(), msgs)
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	failed := results[1]
	if failed.Summary != FailedSummary {
		t.Errorf("failed Summary = %q, want %q", failed.Summary, FailedSummary)
	}
	if failed.Category != DefaultCategory || failed.Priority != DefaultPriority {
		t.Errorf("failed Category/Priority = %q/%q, want defaults", failed.Category, failed.Priority)
	}

	if results[0].Summary != "ok" || results[2].Summary != "fine" {
		t.Errorf("surrounding messages were not processed normally: %q / %q",
			results[0].Summary, results[2].Summary)
	}
	if results[0].ID != "a" || results[2].ID != "c" {
		t.Errorf("order not preserved around the failure")
	}
}

func TestProcessBoundsBodyExcerpt(t *testing.T) {
	gen := &fakeGenerator{}
	p := newTestProcessor(gen, 10)

	long := strings.Repeat("x", 100)
	p.Process(context.Background(), []gmail.Message{{ID: "a", Body: long}})
	if len(gen.prompts) != 1 {
		t.Fatal("expected one inference call")
	}
	if strings.Contains(gen.prompts[0], strings.Repeat("x", 11)) {
		t.Error("prompt embeds more of the body than the configured bound")
	}
	if !strings.Contains(gen.prompts[0], strings.Repeat("x", 10)) {
		t.Error("prompt should embed the bounded excerpt")
	}
}

func TestNewRejectsBadHost(t *testing.T) {
	_, err := New(Options{Host: "://not-a-url", Model: "test"})
	if err == nil {
		t.Fatal("New() with a malformed host should error")
	}
}
