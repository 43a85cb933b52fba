package processor

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"

	"github.com/nkoval/mailbrief/gmail"
)

const promptTemplate = `Analyze the following email and reply with exactly these labeled sections, in this order:

Category: a single word such as Work, Personal, Newsletter, Spam, Important, or Urgent
Priority: High, Medium, or Low
Summary: a brief summary in 2-3 sentences
Action Items:
- one action item per line, or "- None" if there are none

Email details:
Subject: %s
From: %s
Date: %s
Body: %s`

// generator is the seam between the processor and the inference
// endpoint; tests supply a fake.
type generator interface {
	generate(ctx context.Context, prompt string) (string, error)
}

// ollamaGenerator sends non-streaming generate requests to Ollama.
type ollamaGenerator struct {
	client *api.Client
	model  string
}

func (g *ollamaGenerator) generate(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:  g.model,
		Prompt: prompt,
		Stream: &stream,
	}
	var sb strings.Builder
	err := g.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return sb.String(), nil
}

// Processor analyzes normalized messages through a local language model.
type Processor struct {
	gen       generator
	bodyLimit int
	logger    *zap.SugaredLogger
}

// Options configures a Processor.
type Options struct {
	// Host is the base URL of the Ollama endpoint. Empty means resolve
	// from the OLLAMA_HOST environment, falling back to
	// http://localhost:11434.
	Host string

	// Model is the Ollama model name.
	Model string

	// BodyLimit bounds the body excerpt embedded in each prompt, in
	// runes. Zero means no bound.
	BodyLimit int

	Logger *zap.SugaredLogger
}

// New builds a Processor talking to the configured Ollama endpoint.
func New(opts Options) (*Processor, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}

	var client *api.Client
	if opts.Host == "" {
		c, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("creating ollama client: %w", err)
		}
		client = c
	} else {
		base, err := url.Parse(opts.Host)
		if err != nil {
			return nil, fmt.Errorf("parsing ollama host %q: %w", opts.Host, err)
		}
		client = api.NewClient(base, http.DefaultClient)
	}

	return &Processor{
		gen:       &ollamaGenerator{client: client, model: opts.Model},
		bodyLimit: opts.BodyLimit,
		logger:    opts.Logger,
	}, nil
}

// Process analyzes messages one at a time, in order. The result slice is
// one-to-one with the input: an inference failure for one message yields
// a placeholder result for it and the batch continues.
func (p *Processor) Process(ctx context.Context, messages []gmail.Message) []Result {
	results := make([]Result, 0, len(messages))
	for _, m := range messages {
		results = append(results, p.processOne(ctx, m))
	}
	return results
}

func (p *Processor) processOne(ctx context.Context, m gmail.Message) Result {
	res := Result{
		ID:      m.ID,
		Subject: m.Subject,
		Sender:  m.From,
		Date:    m.Date,
	}

	prompt := fmt.Sprintf(promptTemplate, m.Subject, m.From, m.Date, excerpt(m.Body, p.bodyLimit))
	p.logger.Infow("analyzing message", "id", m.ID, "subject", m.Subject)

	reply, err := p.gen.generate(ctx, prompt)
	if err != nil {
		p.logger.Warnw("inference call failed", "id", m.ID, "error", err)
		res.Category = DefaultCategory
		res.Priority = DefaultPriority
		res.Summary = FailedSummary
		return res
	}

	a := parseReply(reply)
	res.Category = a.category
	res.Priority = a.priority
	res.Summary = a.summary
	res.ActionItems = a.actionItems
	return res
}

func excerpt(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
