// Package llm holds the completion providers behind a single narrow
// interface: one prompt in, one block of generated text out.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fmuoria/career-bot/internal/config"
)

// Completer sends one prompt to a text-generation model
type Completer interface {
	Complete(ctx context.Context, prompt string, temperature float32) (string, error)
}

// ErrEmptyCompletion is returned when the provider answers without any text
var ErrEmptyCompletion = errors.New("no completion returned")

// Default model per provider, used when the configuration leaves it empty
const (
	DefaultOpenAIModel   = "gpt-3.5-turbo"
	DefaultVertexAIModel = "gemini-1.5-flash"
	DefaultGeminiModel   = "gemini-2.5-flash"
)

// Provider is a Completer that holds client resources
type Provider interface {
	Completer
	Close() error
}

// New builds the provider selected by cfg.LLMProvider
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return NewOpenAIClient(OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.Model,
			Timeout: cfg.RequestTimeout,
		}, logger), nil
	case config.ProviderVertexAI:
		return NewVertexAIClient(ctx, VertexAIConfig{
			ProjectID:       cfg.GoogleCloudProject,
			Location:        cfg.GoogleCloudLocation,
			CredentialsFile: cfg.GoogleCredentialsPath,
			Model:           cfg.Model,
		}, logger)
	case config.ProviderGemini:
		return NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.Model, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}
