// Package cli wires configuration and the application components into the
// career-bot command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/fmuoria/career-bot/internal/config"
	"github.com/fmuoria/career-bot/internal/credentials"
)

// app carries state shared by every subcommand
type app struct {
	logger     *slog.Logger
	configPath string
	cfg        *config.Config

	backend  string
	credPath string
	provider string
	model    string
}

// NewRootCommand builds the command tree
func NewRootCommand(logger *slog.Logger) *cobra.Command {
	if logger == nil {
		logger = slog.Default()
	}
	a := &app{logger: logger}

	root := &cobra.Command{
		Use:           "career-bot",
		Short:         "Resume assistant: summaries, interview prep, job suggestions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to config.json (default ~/.config/CareerBot/config.json)")
	flags.StringVar(&a.backend, "credentials-backend", "", "Credential store: csv, xlsx or sqlite")
	flags.StringVar(&a.credPath, "credentials-path", "", "Credential store location")
	flags.StringVar(&a.provider, "provider", "", "Completion provider: openai, vertexai or gemini")
	flags.StringVar(&a.model, "model", "", "Model name for the completion provider")

	root.AddCommand(
		newServeCommand(a),
		newUsersCommand(a),
		newExtractCommand(a),
		newSuggestCommand(a),
		newEvaluateCommand(a),
	)
	return root
}

// Execute runs the command tree with the process arguments
func Execute(ctx context.Context, logger *slog.Logger) error {
	return NewRootCommand(logger).ExecuteContext(ctx)
}

// loadConfig reads the config file and environment, then applies any flags
// given on the command line
func (a *app) loadConfig(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("credentials-backend") {
		cfg.CredentialsBackend = a.backend
	}
	if flags.Changed("credentials-path") {
		cfg.CredentialsPath = a.credPath
	}
	if flags.Changed("provider") {
		cfg.LLMProvider = a.provider
	}
	if flags.Changed("model") {
		cfg.Model = a.model
	}

	a.cfg = cfg
	return nil
}

// openCredentials opens the configured credential store
func (a *app) openCredentials(ctx context.Context) (*credentials.Service, error) {
	store, err := credentials.Open(ctx, a.cfg.CredentialsBackend, a.cfg.CredentialsPath)
	if err != nil {
		return nil, err
	}
	return credentials.NewService(store, a.logger), nil
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
