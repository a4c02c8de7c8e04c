package scoring

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

// TestSanitizeUTF8_ValidString tests that valid UTF-8 strings are returned unchanged
func TestSanitizeUTF8_ValidString(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "Simple ASCII text", input: "Hello, World!"},
		{name: "UTF-8 with special characters", input: "José González - Data Analyst with 5+ years in SQL and Excel."},
		{name: "UTF-8 with emoji", input: "Project manager 🚀 with strong communication skills 💻"},
		{name: "Multi-language text", input: "Software Engineer - 软件工程师 - مهندس برمجيات"},
		{name: "Empty string", input: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sanitizeUTF8(tt.input)
			if result != tt.input {
				t.Errorf("sanitizeUTF8() changed valid UTF-8 string: got %q, want %q", result, tt.input)
			}
		})
	}
}

// TestSanitizeUTF8_ReplacementCharacter tests that invalid sequences are replaced with �
func TestSanitizeUTF8_ReplacementCharacter(t *testing.T) {
	input := "Before" + string([]byte{0xFF}) + "After"

	result := sanitizeUTF8(input)

	if !utf8.ValidString(result) {
		t.Errorf("sanitizeUTF8() returned invalid UTF-8 string")
	}
	if result != "Before�After" {
		t.Errorf("sanitizeUTF8() = %q, want %q", result, "Before�After")
	}
}

// TestTruncate tests the truncate helper function
func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "Short string not truncated", input: "Hello", maxLen: 10, want: "Hello"},
		{name: "Exact length not truncated", input: "Hello", maxLen: 5, want: "Hello"},
		{name: "Long string truncated", input: "This is a very long string that should be truncated", maxLen: 20, want: "This is a very long ..."},
		{name: "Runes counted, not bytes", input: "résumé review", maxLen: 6, want: "résumé..."},
		{name: "Empty string", input: "", maxLen: 10, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := truncate(tt.input, tt.maxLen)
			if result != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, result, tt.want)
			}
		})
	}
}

// TestParseScorecard_DirectJSON tests parsing of pure JSON responses
func TestParseScorecard_DirectJSON(t *testing.T) {
	validJSON := `{
		"overall_score": 78.5,
		"strengths": ["Clear structure", "Quantified impact"],
		"weaknesses": ["No summary section"],
		"suggestions": ["Add a short profile"],
		"summary": "Solid mid-level resume"
	}`

	card, err := ParseScorecard(validJSON)
	if err != nil {
		t.Fatalf("ParseScorecard() failed: %v", err)
	}

	if card.OverallScore != 78.5 {
		t.Errorf("OverallScore = %v, want 78.5", card.OverallScore)
	}
	if len(card.Strengths) != 2 {
		t.Errorf("Strengths = %v, want 2 items", card.Strengths)
	}
	if card.Summary != "Solid mid-level resume" {
		t.Errorf("Summary = %q", card.Summary)
	}
	if card.Rating() != "Good" {
		t.Errorf("Rating() = %q, want Good", card.Rating())
	}
}

// TestParseScorecard_JSONWithExtraText tests parsing of JSON with surrounding text
func TestParseScorecard_JSONWithExtraText(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		wantScore float64
		wantErr   bool
	}{
		{
			name: "Prose before JSON",
			response: `The resume is concise but lacks metrics.

{"overall_score": 62, "strengths": [], "weaknesses": ["No metrics"], "suggestions": [], "summary": "Fair"}`,
			wantScore: 62,
		},
		{
			name:      "Fenced JSON with text after",
			response:  "```json\n{\"overall_score\": 91, \"summary\": \"Excellent\"}\n```\nGood luck!",
			wantScore: 91,
		},
		{
			name:     "No JSON at all",
			response: "I could not evaluate this resume.",
			wantErr:  true,
		},
		{
			name:     "Broken JSON",
			response: `{"overall_score": 50, "summary": }`,
			wantErr:  true,
		},
		{
			name:     "Score out of range",
			response: `{"overall_score": 150, "summary": "Too high"}`,
			wantErr:  true,
		},
		{
			name:     "Missing summary",
			response: `{"overall_score": 70}`,
			wantErr:  true,
		},
		{
			name:     "Strengths not strings",
			response: `{"overall_score": 70, "summary": "x", "strengths": [1, 2]}`,
			wantErr:  true,
		},
		{
			name:     "Closing brace before opening brace",
			response: `} nothing {`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card, err := ParseScorecard(tt.response)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseScorecard() expected error, got %+v", card)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseScorecard() failed: %v", err)
			}
			if card.OverallScore != tt.wantScore {
				t.Errorf("OverallScore = %v, want %v", card.OverallScore, tt.wantScore)
			}
		})
	}
}

type stubEvaluator struct {
	reply string
	err   error
}

func (s stubEvaluator) Evaluate(ctx context.Context, resume string) (string, error) {
	return s.reply, s.err
}

// TestScoreResume_KeepsRawReplyWhenUnparseable tests that a free-form reply is still returned
func TestScoreResume_KeepsRawReplyWhenUnparseable(t *testing.T) {
	scorer := NewScorer(stubEvaluator{reply: "Great resume, no notes."}, nil)

	eval, err := scorer.ScoreResume(context.Background(), "cv")
	if err != nil {
		t.Fatalf("ScoreResume() failed: %v", err)
	}
	if eval.Raw != "Great resume, no notes." {
		t.Errorf("Raw = %q", eval.Raw)
	}
	if eval.Scorecard != nil {
		t.Errorf("Scorecard = %+v, want nil", eval.Scorecard)
	}
}

// TestScoreResume_ParsesScorecard tests the happy path
func TestScoreResume_ParsesScorecard(t *testing.T) {
	reply := "Review text.\n" + `{"overall_score": 45, "summary": "Needs restructuring"}`
	scorer := NewScorer(stubEvaluator{reply: reply}, nil)

	eval, err := scorer.ScoreResume(context.Background(), "cv")
	if err != nil {
		t.Fatalf("ScoreResume() failed: %v", err)
	}
	if eval.Scorecard == nil {
		t.Fatal("expected a scorecard")
	}
	if eval.Scorecard.Rating() != "Needs Work" {
		t.Errorf("Rating() = %q, want Needs Work", eval.Scorecard.Rating())
	}
	if !strings.HasPrefix(eval.Raw, "Review text.") {
		t.Errorf("Raw = %q", eval.Raw)
	}
}

// TestScoreResume_PropagatesEvaluatorError tests that completion failures are returned
func TestScoreResume_PropagatesEvaluatorError(t *testing.T) {
	boom := errors.New("openai status 500")
	scorer := NewScorer(stubEvaluator{err: boom}, nil)

	_, err := scorer.ScoreResume(context.Background(), "cv")
	if !errors.Is(err, boom) {
		t.Errorf("ScoreResume() error = %v, want %v", err, boom)
	}
}
