package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nkoval/mailbrief/config"
	"github.com/nkoval/mailbrief/gmail"
	"github.com/nkoval/mailbrief/processor"
	"github.com/nkoval/mailbrief/report"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "mailbrief: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogFile)
	if err != nil {
		return err
	}
	defer logger.Sync()
	logger.Infow("starting run", "model", cfg.Model, "days", cfg.Days)

	ctx := context.Background()

	tokens, err := newTokenStore(cfg)
	if err != nil {
		return err
	}
	client, err := gmail.NewClient(ctx, gmail.Options{
		CredentialsFile: cfg.CredentialsFile,
		Tokens:          tokens,
		Auth:            &gmail.ConsoleAuthorizer{In: os.Stdin, Out: os.Stderr},
		BodyLimit:       cfg.FetchBodyLimit,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Fetching unread messages from the last %d day(s)...\n", cfg.Days)
	messages, err := client.GetUnreadMessages(ctx, cfg.Days)
	if err != nil {
		return err
	}
	logger.Infow("fetched messages", "count", len(messages))

	proc, err := processor.New(processor.Options{
		Host:      cfg.OllamaHost,
		Model:     cfg.Model,
		BodyLimit: cfg.PromptBodyLimit,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Processing %d message(s)...\n", len(messages))
	results := proc.Process(ctx, messages)
	report.Render(os.Stdout, results)
	logger.Infow("run complete", "processed", len(results))
	return nil
}

func newTokenStore(cfg *config.Config) (gmail.TokenStore, error) {
	if cfg.TokenBackend == "keyring" {
		return gmail.NewKeyringTokenStore("oauth-token")
	}
	return &gmail.FileTokenStore{Path: cfg.TokenFile}, nil
}

// newLogger writes diagnostics to the log file so stdout stays clean for
// the report.
func newLogger(path string) (*zap.SugaredLogger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.OutputPaths = []string{path}
	zcfg.ErrorOutputPaths = []string{path}
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return logger.Sugar(), nil
}
