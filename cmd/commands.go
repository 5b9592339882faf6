package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"jinasum/internal/bot"
	"jinasum/internal/config"
	"jinasum/internal/domain"
	"jinasum/internal/pipeline"
	"jinasum/internal/reader"
	"jinasum/internal/summarizer"
	"jinasum/internal/urlfilter"
)

var (
	errNotAccepted = errors.New("input is not an accepted URL")
	errSummarize   = errors.New("failed to summarize")
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "jinasum",
		Short:        "Summarize web pages with Jina Reader and an LLM",
		SilenceUsage: true,
	}

	root.AddCommand(newServeCmd(), newSummarizeCmd())

	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return reportConfigError(err)
			}

			return serve(cmd.Context(), &cfg, newLogger(os.Stdout, cfg.LogLevel))
		},
	}
}

func newSummarizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summarize <url>",
		Short: "Summarize a single URL and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return reportConfigError(err)
			}

			return summarizeOnce(
				cmd.Context(),
				&cfg,
				args[0],
				cmd.OutOrStdout(),
				cmd.ErrOrStderr(),
				newLogger(cmd.ErrOrStderr(), cfg.LogLevel),
			)
		},
	}
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	log := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	return log
}

func reportConfigError(err error) error {
	slog.Error("Failed to load config",
		"error", err)

	return err
}

func newPipeline(
	ctx context.Context,
	cfg *config.Config,
	log *slog.Logger,
) (*pipeline.Pipeline, *summarizer.Selector, error) {
	selector, err := summarizer.NewSelector(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("select backend: %w", err)
	}

	log.InfoContext(ctx, "Summarizer is initialized",
		"selectedBackend", selector.Selected(),
		"availableBackends", selector.Available())

	p := pipeline.New(
		urlfilter.New(cfg.WhiteURLList, cfg.BlackURLList),
		reader.New(cfg.ReaderBase, cfg.MaxWords, log, reader.WithHTMLExtraction(cfg.ReaderExtractHTML)),
		selector,
		pipeline.Texts{Ack: cfg.AckText, Error: cfg.ErrorText},
		log,
	)

	return p, selector, nil
}

func serve(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	start := time.Now()

	if cfg.Token == "" {
		log.ErrorContext(ctx, "TOKEN is required",
			"envVar", "TOKEN")

		return errors.New("TOKEN is required")
	}

	p, selector, err := newPipeline(ctx, cfg, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize pipeline",
			"error", err)

		return err
	}

	available := make([]string, 0, len(selector.Available()))
	for _, backend := range selector.Available() {
		available = append(available, string(backend))
	}

	botInst, err := bot.New(
		cfg.Token,
		p,
		cfg.AllowedUsers,
		bot.HelpInfo{Selected: string(selector.Selected()), Available: available},
		log,
	)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize bot",
			"error", err,
			"allowedUsersCount", len(cfg.AllowedUsers))

		return err
	}
	defer botInst.Stop()
	log.InfoContext(ctx, "Bot is initialized",
		"allowedUsersCount", len(cfg.AllowedUsers))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.InfoContext(ctx, "Bot is started")
	botInst.Start(ctx)

	log.InfoContext(ctx, "Exiting...",
		"uptimeSeconds", time.Since(start).Seconds())

	return nil
}

func summarizeOnce(
	ctx context.Context,
	cfg *config.Config,
	rawURL string,
	stdout io.Writer,
	stderr io.Writer,
	log *slog.Logger,
) error {
	p, _, err := newPipeline(ctx, cfg, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize pipeline",
			"error", err)

		return err
	}

	notifier := pipeline.NotifierFunc(func(_ context.Context, reply domain.Reply) error {
		_, writeErr := fmt.Fprintln(stderr, reply.Content)
		return writeErr
	})

	reply, ok := p.Handle(ctx, domain.Message{Kind: domain.KindSharing, Content: rawURL}, notifier)
	if !ok {
		return fmt.Errorf("%w: %s", errNotAccepted, rawURL)
	}

	if reply.Kind == domain.ReplyError {
		_, _ = fmt.Fprintln(stderr, reply.Content)

		return errSummarize
	}

	if _, err = fmt.Fprintln(stdout, reply.Content); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	return nil
}
