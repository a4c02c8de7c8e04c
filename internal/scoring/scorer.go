// Package scoring turns the evaluate-résumé reply into a structured
// scorecard.
package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/fmuoria/career-bot/internal/models"
)

// ErrNoScorecard is returned when the reply carries no JSON object
var ErrNoScorecard = errors.New("no JSON scorecard found in response")

const scorecardSchemaJSON = `{
  "type": "object",
  "required": ["overall_score", "summary"],
  "properties": {
    "overall_score": {"type": "number", "minimum": 0, "maximum": 100},
    "strengths":     {"type": "array", "items": {"type": "string"}},
    "weaknesses":    {"type": "array", "items": {"type": "string"}},
    "suggestions":   {"type": "array", "items": {"type": "string"}},
    "summary":       {"type": "string"}
  }
}`

var scorecardSchema = jsonschema.MustCompileString("scorecard.json", scorecardSchemaJSON)

// Evaluator produces the raw evaluation reply for a résumé
type Evaluator interface {
	Evaluate(ctx context.Context, resume string) (string, error)
}

// Scorer evaluates résumés and parses the reply
type Scorer struct {
	evaluator Evaluator
	logger    *slog.Logger
}

// NewScorer creates a new scorer instance
func NewScorer(evaluator Evaluator, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{evaluator: evaluator, logger: logger}
}

// ScoreResume asks for an evaluation and parses its scorecard. A reply that
// cannot be parsed is not an error: the raw text is returned with a nil
// Scorecard.
func (s *Scorer) ScoreResume(ctx context.Context, resume string) (models.Evaluation, error) {
	raw, err := s.evaluator.Evaluate(ctx, resume)
	if err != nil {
		return models.Evaluation{}, err
	}

	eval := models.Evaluation{Raw: raw}
	card, err := ParseScorecard(raw)
	if err != nil {
		s.logger.Warn("scorecard not parsed", "error", err, "reply", truncate(raw, 200))
		return eval, nil
	}
	eval.Scorecard = &card
	return eval, nil
}

// ParseScorecard extracts the outermost JSON object in response, validates
// it and decodes it
func ParseScorecard(response string) (models.Scorecard, error) {
	response = sanitizeUTF8(response)

	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")
	if startIdx == -1 || endIdx == -1 || endIdx < startIdx {
		return models.Scorecard{}, ErrNoScorecard
	}

	jsonStr := response[startIdx : endIdx+1]

	var doc any
	if err := json.Unmarshal([]byte(jsonStr), &doc); err != nil {
		return models.Scorecard{}, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	if err := scorecardSchema.Validate(doc); err != nil {
		return models.Scorecard{}, fmt.Errorf("json does not match scorecard schema: %w", err)
	}

	var card models.Scorecard
	if err := json.Unmarshal([]byte(jsonStr), &card); err != nil {
		return models.Scorecard{}, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return card, nil
}

// sanitizeUTF8 replaces invalid byte sequences with U+FFFD
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "�")
}

// truncate shortens s to maxLen runes, marking the cut with "..."
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen]) + "..."
}
