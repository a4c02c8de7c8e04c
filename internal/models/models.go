package models

import "time"

// Credential is one login record. Identifier is an email address or phone
// number and is unique within a store. Password is kept as entered.
type Credential struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// Feature names a user-facing action that produces generated text
type Feature string

const (
	FeatureLinkedInSummary    Feature = "linkedin-summary"
	FeatureInterviewQuestions Feature = "interview-questions"
	FeatureDescriptionPrep    Feature = "questions-from-description"
	FeatureEvaluation         Feature = "evaluate-resume"
	FeatureCoverLetter        Feature = "cover-letter"
)

// Features lists every feature in display order
var Features = []Feature{
	FeatureLinkedInSummary,
	FeatureInterviewQuestions,
	FeatureDescriptionPrep,
	FeatureEvaluation,
	FeatureCoverLetter,
}

// Title returns a human readable label for the feature
func (f Feature) Title() string {
	switch f {
	case FeatureLinkedInSummary:
		return "LinkedIn Summary"
	case FeatureInterviewQuestions:
		return "Mock Interview Q&A"
	case FeatureDescriptionPrep:
		return "Interview Prep using JD"
	case FeatureEvaluation:
		return "Resume Evaluation"
	case FeatureCoverLetter:
		return "Cover Letter"
	default:
		return string(f)
	}
}

// Interview levels offered by the mock interview form
var InterviewLevels = []string{"Entry Level", "Mid Level", "Senior Level"}

// IsInterviewLevel reports whether level is one of InterviewLevels
func IsInterviewLevel(level string) bool {
	for _, l := range InterviewLevels {
		if l == level {
			return true
		}
	}
	return false
}

// Scorecard is the structured form of a résumé evaluation
type Scorecard struct {
	OverallScore float64  `json:"overall_score"` // 0-100
	Strengths    []string `json:"strengths"`
	Weaknesses   []string `json:"weaknesses"`
	Suggestions  []string `json:"suggestions"`
	Summary      string   `json:"summary"`
}

// Rating buckets the overall score the same way the report does
func (s Scorecard) Rating() string {
	switch {
	case s.OverallScore >= 90:
		return "Excellent"
	case s.OverallScore >= 70:
		return "Good"
	case s.OverallScore >= 50:
		return "Fair"
	default:
		return "Needs Work"
	}
}

// JobSuggestion is one suggested role with a job-search link
type JobSuggestion struct {
	Role string `json:"role"`
	URL  string `json:"url"`
}

// Evaluation pairs the raw evaluation reply with its parsed scorecard.
// Scorecard is nil when the reply could not be parsed.
type Evaluation struct {
	Raw       string     `json:"raw"`
	Scorecard *Scorecard `json:"scorecard,omitempty"`
}

// SampleDocument describes a downloadable example résumé
type SampleDocument struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// IsPDF reports whether the sample is a PDF file
func (d SampleDocument) IsPDF() bool {
	return len(d.Name) >= 4 && d.Name[len(d.Name)-4:] == ".pdf"
}

// FeatureOutput is one generated text kept for the session report
type FeatureOutput struct {
	Feature     Feature   `json:"feature"`
	Text        string    `json:"text"`
	GeneratedAt time.Time `json:"generated_at"`
}

// SessionReport is everything the workbook export needs
type SessionReport struct {
	Identifier  string          `json:"identifier"`
	ResumeName  string          `json:"resume_name"`
	Outputs     []FeatureOutput `json:"outputs"`
	Suggestions []JobSuggestion `json:"suggestions"`
	Scorecard   *Scorecard      `json:"scorecard,omitempty"`
	GeneratedAt time.Time       `json:"generated_at"`
}
