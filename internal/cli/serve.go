package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fmuoria/career-bot/internal/agent"
	"github.com/fmuoria/career-bot/internal/api"
	"github.com/fmuoria/career-bot/internal/config"
	"github.com/fmuoria/career-bot/internal/ingestion"
	"github.com/fmuoria/career-bot/internal/llm"
	"github.com/fmuoria/career-bot/internal/prompts"
	"github.com/fmuoria/career-bot/internal/session"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web application",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.ListenAddr = addr
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8501)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	creds, err := a.openCredentials(ctx)
	if err != nil {
		return err
	}
	defer creds.Close()

	provider, err := llm.New(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create completion provider: %w", err)
	}
	defer provider.Close()

	samples, err := a.sampleLibrary(ctx)
	if err != nil {
		return err
	}

	careerAgent := agent.NewCareerAgent(agent.Options{
		Credentials: creds,
		Dispatcher:  prompts.NewDispatcher(provider, a.cfg.Temperature),
		Samples:     samples,
		Sessions:    session.NewStoreWithTTL(a.cfg.SessionTTL),
		Logger:      a.logger,
	})

	server, err := api.NewServer(careerAgent, api.Options{
		Logger:         a.logger,
		MaxUploadBytes: a.cfg.MaxUploadBytes,
		SecureCookies:  a.cfg.SecureCookies,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              a.cfg.ListenAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		// Completions can take most of the request timeout.
		WriteTimeout: a.cfg.RequestTimeout + 30*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting career bot",
			"addr", a.cfg.ListenAddr,
			"provider", a.cfg.LLMProvider,
			"credentials_backend", a.cfg.CredentialsBackend,
		)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

// sampleLibrary returns the bucket-backed library when a bucket is
// configured, otherwise the local directory
func (a *app) sampleLibrary(ctx context.Context) (ingestion.SampleLibrary, error) {
	if a.cfg.SamplesBucket == "" {
		return ingestion.NewDirLibrary(a.cfg.SamplesDir), nil
	}

	lib, err := ingestion.NewS3Library(ctx, samplesS3Options(a.cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open sample bucket: %w", err)
	}
	return lib, nil
}

func samplesS3Options(cfg *config.Config) ingestion.S3Options {
	return ingestion.S3Options{
		Bucket:   cfg.SamplesBucket,
		Prefix:   cfg.SamplesPrefix,
		Region:   cfg.SamplesRegion,
		Endpoint: cfg.SamplesEndpoint,
		KeyID:    cfg.SamplesKeyID,
		Secret:   cfg.SamplesSecret,
	}
}
