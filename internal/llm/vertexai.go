package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"github.com/google/uuid"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// VertexAIConfig configures the Vertex AI Gemini client. CredentialsFile is
// an optional service-account key; without it Application Default
// Credentials are used.
type VertexAIConfig struct {
	ProjectID       string
	Location        string
	CredentialsFile string
	Model           string
}

// VertexAIClient wraps the Vertex AI Gemini API
type VertexAIClient struct {
	client    *genai.Client
	modelName string
	projectID string
	location  string
	log       *slog.Logger
}

// NewVertexAIClient creates a new Vertex AI client
func NewVertexAIClient(ctx context.Context, cfg VertexAIConfig, logger *slog.Logger) (*VertexAIClient, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("google cloud project is not set")
	}
	if cfg.Location == "" {
		cfg.Location = "us-central1"
	}
	if cfg.Model == "" {
		cfg.Model = DefaultVertexAIModel
	}
	if logger == nil {
		logger = slog.Default()
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, cloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("failed to parse credentials file: %w", err)
		}
		opts = append(opts, option.WithCredentials(creds))
	}

	client, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Location, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}

	return &VertexAIClient{
		client:    client,
		modelName: cfg.Model,
		projectID: cfg.ProjectID,
		location:  cfg.Location,
		log:       logger,
	}, nil
}

// Complete sends a prompt to the model and returns the response text.
// A model handle is built per call so temperature stays request-scoped.
func (v *VertexAIClient) Complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	rid := uuid.New().String()
	start := time.Now()
	v.log.Info("llm.complete.start",
		"req_id", rid,
		"provider", "vertexai",
		"model", v.modelName,
		"temp", temperature,
		"prompt_len", len(prompt),
	)

	model := v.client.GenerativeModel(v.modelName)
	model.SetTemperature(temperature)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		v.log.Error("llm.complete.error", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("vertexai: %w", ErrEmptyCompletion)
	}

	var result strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			result.WriteString(string(text))
		}
	}

	v.log.Info("llm.complete.ok",
		"req_id", rid,
		"completion_len", result.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return result.String(), nil
}

// Close closes the Vertex AI client
func (v *VertexAIClient) Close() error {
	return v.client.Close()
}
