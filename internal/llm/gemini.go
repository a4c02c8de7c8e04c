package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

// GeminiClient calls the Gemini API with an API key
type GeminiClient struct {
	client    *genai.Client
	modelName string
	log       *slog.Logger
}

// NewGeminiClient creates a Gemini API client
func NewGeminiClient(ctx context.Context, apiKey, model string, logger *slog.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is not set")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiClient{client: client, modelName: model, log: logger}, nil
}

// Complete sends prompt as a single user turn
func (g *GeminiClient) Complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	rid := uuid.New().String()
	start := time.Now()
	g.log.Info("llm.complete.start",
		"req_id", rid,
		"provider", "gemini",
		"model", g.modelName,
		"temp", temperature,
		"prompt_len", len(prompt),
	)

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temperature),
	})
	if err != nil {
		g.log.Error("llm.complete.error", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini: %w", ErrEmptyCompletion)
	}

	g.log.Info("llm.complete.ok",
		"req_id", rid,
		"completion_len", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

// Close is a no-op; the genai client has nothing to release
func (g *GeminiClient) Close() error {
	return nil
}
