package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/fmuoria/career-bot/internal/agent"
	"github.com/fmuoria/career-bot/internal/export"
	"github.com/fmuoria/career-bot/internal/jobs"
	"github.com/fmuoria/career-bot/internal/llm"
	"github.com/fmuoria/career-bot/internal/models"
	"github.com/fmuoria/career-bot/internal/prompts"
	"github.com/fmuoria/career-bot/internal/scoring"
)

func newExtractCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file>",
		Short: "Print the plain text of a PDF or DOCX resume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.extractFile(args[0])
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "%s\n", text)
			return nil
		},
	}
}

func newSuggestCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <file>",
		Short: "Suggest job roles for a resume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.extractFile(args[0])
			if err != nil {
				return err
			}
			for _, s := range jobs.NewSuggester(nil).Suggest(text) {
				printf(cmd.OutOrStdout(), "%s\t%s\n", s.Role, s.URL)
			}
			return nil
		},
	}
}

func newEvaluateCommand(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "evaluate <file>",
		Short: "Score a resume with the configured model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.evaluate(cmd, args[0], out)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Also write an Excel report to this path")
	return cmd
}

func (a *app) evaluate(cmd *cobra.Command, path, out string) error {
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	text, err := a.extractFile(path)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.RequestTimeout)
	defer cancel()

	provider, err := llm.New(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create completion provider: %w", err)
	}
	defer provider.Close()

	scorer := scoring.NewScorer(prompts.NewDispatcher(provider, a.cfg.Temperature), a.logger)
	eval, err := scorer.ScoreResume(ctx, text)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if eval.Scorecard != nil {
		printf(w, "Score: %.0f / 100 (%s)\n\n", eval.Scorecard.OverallScore, eval.Scorecard.Rating())
	}
	printf(w, "%s\n", eval.Raw)

	if out == "" {
		return nil
	}

	now := time.Now()
	written, err := export.ExportToFile(models.SessionReport{
		ResumeName: filepath.Base(path),
		Outputs: []models.FeatureOutput{
			{Feature: models.FeatureEvaluation, Text: eval.Raw, GeneratedAt: now},
		},
		Scorecard:   eval.Scorecard,
		GeneratedAt: now,
	}, out)
	if err != nil {
		return err
	}
	printf(w, "\nReport written to %s\n", written)
	return nil
}

// extractFile reads a resume from disk the same way uploads are read
func (a *app) extractFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return agent.NewCareerAgent(agent.Options{Logger: a.logger}).ExtractDocument(filepath.Base(path), data)
}
