// Package prompts fills the fixed prompt templates with résumé text and
// user input, and sends each one to a completion provider.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/fmuoria/career-bot/internal/llm"
	"github.com/fmuoria/career-bot/internal/models"
)

// DefaultTemperature is the sampling temperature used for every feature
const DefaultTemperature float32 = 0.7

// Dispatcher issues one completion request per feature call. It never
// retries; provider errors are returned to the caller.
type Dispatcher struct {
	completer   llm.Completer
	temperature float32
}

// NewDispatcher creates a dispatcher using the given sampling temperature
func NewDispatcher(completer llm.Completer, temperature float32) *Dispatcher {
	return &Dispatcher{completer: completer, temperature: temperature}
}

// Temperature returns the sampling temperature sent with each request
func (d *Dispatcher) Temperature() float32 {
	return d.temperature
}

// LinkedInSummaries asks for ten short LinkedIn summary variations
func (d *Dispatcher) LinkedInSummaries(ctx context.Context, resume string) (string, error) {
	return d.complete(ctx, models.FeatureLinkedInSummary, linkedInSummaryPrompt(resume))
}

// InterviewQuestions asks for thirty questions with answers for role at level
func (d *Dispatcher) InterviewQuestions(ctx context.Context, resume, role, level string) (string, error) {
	return d.complete(ctx, models.FeatureInterviewQuestions, interviewQuestionsPrompt(resume, role, level))
}

// QuestionsFromDescription asks for fifteen questions tailored to a job description
func (d *Dispatcher) QuestionsFromDescription(ctx context.Context, resume, jobDescription string) (string, error) {
	return d.complete(ctx, models.FeatureDescriptionPrep, descriptionQuestionsPrompt(resume, jobDescription))
}

// Evaluate asks for a review of the résumé ending in a JSON scorecard
func (d *Dispatcher) Evaluate(ctx context.Context, resume string) (string, error) {
	return d.complete(ctx, models.FeatureEvaluation, evaluationPrompt(resume))
}

// CoverLetter asks for a cover letter matching a job description
func (d *Dispatcher) CoverLetter(ctx context.Context, resume, jobDescription string) (string, error) {
	return d.complete(ctx, models.FeatureCoverLetter, coverLetterPrompt(resume, jobDescription))
}

func (d *Dispatcher) complete(ctx context.Context, feature models.Feature, prompt string) (string, error) {
	text, err := d.completer.Complete(ctx, prompt, d.temperature)
	if err != nil {
		return "", fmt.Errorf("%s: %w", feature, err)
	}
	return strings.TrimSpace(text), nil
}
