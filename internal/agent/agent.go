// Package agent maps each user action to the components that serve it:
// credentials, extraction, prompt dispatch, job suggestions and samples.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fmuoria/career-bot/internal/credentials"
	"github.com/fmuoria/career-bot/internal/ingestion"
	"github.com/fmuoria/career-bot/internal/jobs"
	"github.com/fmuoria/career-bot/internal/models"
	"github.com/fmuoria/career-bot/internal/prompts"
	"github.com/fmuoria/career-bot/internal/scoring"
	"github.com/fmuoria/career-bot/internal/session"
)

var (
	// ErrNotAuthenticated is returned for feature actions on a session that
	// has not signed in
	ErrNotAuthenticated = errors.New("please log in first")
	// ErrNoResume is returned for feature actions before a résumé upload
	ErrNoResume = errors.New("please upload your resume to proceed")
	// ErrUnsupportedFormat is returned for uploads that are not PDF or DOCX
	ErrUnsupportedFormat = ingestion.ErrUnsupportedFormat
	// ErrInvalidCredentials is returned when login does not match a record
	ErrInvalidCredentials = errors.New("invalid email/phone or password")
	// ErrUnknownIdentifier is returned by ForgotPassword for unknown users
	ErrUnknownIdentifier = errors.New("no account found for that email/phone")
	// ErrMissingInput is returned when a required form value is empty
	ErrMissingInput = errors.New("missing required input")
	// ErrInvalidLevel is returned for interview levels outside the fixed set
	ErrInvalidLevel = errors.New("invalid interview level")
	// ErrCompletionFailed wraps provider errors so callers can tell them
	// apart from input problems
	ErrCompletionFailed = errors.New("text generation failed")
)

// Options holds the collaborators of a CareerAgent
type Options struct {
	Credentials *credentials.Service
	Dispatcher  *prompts.Dispatcher
	Suggester   *jobs.Suggester
	Samples     ingestion.SampleLibrary
	Sessions    *session.Store
	Logger      *slog.Logger
}

// CareerAgent orchestrates every user-facing action
type CareerAgent struct {
	credentials *credentials.Service
	dispatcher  *prompts.Dispatcher
	scorer      *scoring.Scorer
	suggester   *jobs.Suggester
	samples     ingestion.SampleLibrary
	sessions    *session.Store
	logger      *slog.Logger
	now         func() time.Time
}

// NewCareerAgent creates a new agent
func NewCareerAgent(opts Options) *CareerAgent {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sessions := opts.Sessions
	if sessions == nil {
		sessions = session.NewStore()
	}
	suggester := opts.Suggester
	if suggester == nil {
		suggester = jobs.NewSuggester(nil)
	}

	return &CareerAgent{
		credentials: opts.Credentials,
		dispatcher:  opts.Dispatcher,
		scorer:      scoring.NewScorer(opts.Dispatcher, logger),
		suggester:   suggester,
		samples:     opts.Samples,
		sessions:    sessions,
		logger:      logger,
		now:         time.Now,
	}
}

// NewSession starts an anonymous session
func (a *CareerAgent) NewSession() session.Session {
	return a.sessions.Create()
}

// Session returns a copy of the session with id
func (a *CareerAgent) Session(id string) (session.Session, bool) {
	return a.sessions.Get(id)
}

// Login signs the session in when identifier and password match a record
// exactly and returns the session's new ID. The ID changes on every
// successful login. A failed attempt leaves the session unchanged.
func (a *CareerAgent) Login(ctx context.Context, sessionID, identifier, password string) (string, error) {
	ok, err := a.credentials.Authenticate(ctx, identifier, password)
	if err != nil {
		return "", fmt.Errorf("failed to check credentials: %w", err)
	}
	if !ok {
		a.logger.Info("login rejected", "identifier", identifier)
		return "", ErrInvalidCredentials
	}

	s, found := a.sessions.Rotate(sessionID, func(s *session.Session) {
		s.SignIn(identifier)
	})
	if !found {
		return "", ErrNotAuthenticated
	}
	a.logger.Info("login", "identifier", identifier)
	return s.ID, nil
}

// Register stores a new credential and signs the session in as that user,
// returning the session's new ID. An identifier that already exists keeps
// its original password, and the session is only signed in if the given
// password matches it.
func (a *CareerAgent) Register(ctx context.Context, sessionID, identifier, password string) (string, error) {
	if identifier == "" || password == "" {
		return "", fmt.Errorf("%w: email/phone and password are required", ErrMissingInput)
	}
	if err := a.credentials.Register(ctx, identifier, password); err != nil {
		return "", fmt.Errorf("failed to register: %w", err)
	}
	return a.Login(ctx, sessionID, identifier, password)
}

// ForgotPassword returns the stored password for identifier
func (a *CareerAgent) ForgotPassword(ctx context.Context, identifier string) (string, error) {
	password, found, err := a.credentials.LookupPassword(ctx, identifier)
	if err != nil {
		return "", fmt.Errorf("failed to look up password: %w", err)
	}
	if !found {
		return "", ErrUnknownIdentifier
	}
	return password, nil
}

// Logout forgets the session entirely
func (a *CareerAgent) Logout(sessionID string) {
	a.sessions.Delete(sessionID)
}

// ExtractDocument converts an uploaded file to text. Unsupported extensions
// are rejected; a document that cannot be decoded yields empty text and a
// warning.
func (a *CareerAgent) ExtractDocument(filename string, data []byte) (string, error) {
	format, err := ingestion.FormatFromFilename(filename)
	if err != nil {
		return "", err
	}

	if sniffed := ingestion.SniffFormat(data); sniffed != "" && sniffed != format {
		a.logger.Warn("upload content does not match its extension",
			"file", filename, "extension", format, "content", sniffed)
	}

	text, err := ingestion.ExtractText(format, data)
	if err != nil {
		a.logger.Warn("could not read document, continuing with empty text",
			"file", filename, "error", err)
		return "", nil
	}
	return text, nil
}

// Upload extracts the résumé and stores its text in the session, replacing
// any earlier résumé and its outputs
func (a *CareerAgent) Upload(ctx context.Context, sessionID, filename string, data []byte) (string, error) {
	if _, err := a.authenticated(sessionID); err != nil {
		return "", err
	}

	text, err := a.ExtractDocument(filename, data)
	if err != nil {
		return "", err
	}

	if _, found := a.sessions.Update(sessionID, func(s *session.Session) {
		s.SetResume(filename, text)
	}); !found {
		return "", ErrNotAuthenticated
	}

	a.logger.Info("resume uploaded", "file", filename, "bytes", len(data), "text_len", len(text))
	return text, nil
}

// GenerateSummary returns ten LinkedIn summary variations
func (a *CareerAgent) GenerateSummary(ctx context.Context, sessionID string) (string, error) {
	s, err := a.withResume(sessionID)
	if err != nil {
		return "", err
	}
	return a.generate(sessionID, models.FeatureLinkedInSummary, func() (string, error) {
		return a.dispatcher.LinkedInSummaries(ctx, s.ResumeText)
	})
}

// GenerateInterviewQuestions returns mock interview questions for a role
func (a *CareerAgent) GenerateInterviewQuestions(ctx context.Context, sessionID, role, level string) (string, error) {
	role = strings.TrimSpace(role)
	if role == "" {
		return "", fmt.Errorf("%w: target role", ErrMissingInput)
	}
	if !models.IsInterviewLevel(level) {
		return "", fmt.Errorf("%w: %q", ErrInvalidLevel, level)
	}

	s, err := a.withResume(sessionID)
	if err != nil {
		return "", err
	}
	return a.generate(sessionID, models.FeatureInterviewQuestions, func() (string, error) {
		return a.dispatcher.InterviewQuestions(ctx, s.ResumeText, role, level)
	})
}

// GenerateQuestionsFromDescription returns interview questions tailored to
// a pasted job description
func (a *CareerAgent) GenerateQuestionsFromDescription(ctx context.Context, sessionID, jobDescription string) (string, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return "", fmt.Errorf("%w: job description", ErrMissingInput)
	}

	s, err := a.withResume(sessionID)
	if err != nil {
		return "", err
	}
	return a.generate(sessionID, models.FeatureDescriptionPrep, func() (string, error) {
		return a.dispatcher.QuestionsFromDescription(ctx, s.ResumeText, jobDescription)
	})
}

// GenerateCoverLetter returns a cover letter for a pasted job description
func (a *CareerAgent) GenerateCoverLetter(ctx context.Context, sessionID, jobDescription string) (string, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return "", fmt.Errorf("%w: job description", ErrMissingInput)
	}

	s, err := a.withResume(sessionID)
	if err != nil {
		return "", err
	}
	return a.generate(sessionID, models.FeatureCoverLetter, func() (string, error) {
		return a.dispatcher.CoverLetter(ctx, s.ResumeText, jobDescription)
	})
}

// SuggestJobs returns role suggestions with job-search links
func (a *CareerAgent) SuggestJobs(ctx context.Context, sessionID string) ([]models.JobSuggestion, error) {
	s, err := a.withResume(sessionID)
	if err != nil {
		return nil, err
	}

	suggestions := a.suggester.Suggest(s.ResumeText)
	a.sessions.Update(sessionID, func(s *session.Session) {
		s.Suggestions = suggestions
	})
	return suggestions, nil
}

// EvaluateResume returns the evaluation reply and, when it parses, its
// scorecard
func (a *CareerAgent) EvaluateResume(ctx context.Context, sessionID string) (models.Evaluation, error) {
	s, err := a.withResume(sessionID)
	if err != nil {
		return models.Evaluation{}, err
	}

	eval, err := a.scorer.ScoreResume(ctx, s.ResumeText)
	if err != nil {
		a.logger.Error("generation failed", "feature", models.FeatureEvaluation, "error", err)
		return models.Evaluation{}, fmt.Errorf("%w: %w", ErrCompletionFailed, err)
	}

	at := a.now()
	a.sessions.Update(sessionID, func(s *session.Session) {
		s.Record(models.FeatureEvaluation, eval.Raw, at)
		s.Scorecard = eval.Scorecard
	})
	return eval, nil
}

// ListSamples returns the downloadable sample résumés
func (a *CareerAgent) ListSamples(ctx context.Context) ([]models.SampleDocument, error) {
	return a.samples.List(ctx)
}

// OpenSample returns the content of one sample résumé
func (a *CareerAgent) OpenSample(ctx context.Context, name string) ([]byte, error) {
	return a.samples.Open(ctx, name)
}

// Report returns everything generated in the session so far
func (a *CareerAgent) Report(sessionID string) (models.SessionReport, error) {
	s, err := a.authenticated(sessionID)
	if err != nil {
		return models.SessionReport{}, err
	}
	return s.Report(a.now()), nil
}

func (a *CareerAgent) authenticated(sessionID string) (session.Session, error) {
	s, ok := a.sessions.Get(sessionID)
	if !ok || !s.Authenticated {
		return session.Session{}, ErrNotAuthenticated
	}
	return s, nil
}

func (a *CareerAgent) withResume(sessionID string) (session.Session, error) {
	s, err := a.authenticated(sessionID)
	if err != nil {
		return session.Session{}, err
	}
	if !s.HasResume {
		return session.Session{}, ErrNoResume
	}
	return s, nil
}

// generate runs one dispatcher call and records its output in the session
func (a *CareerAgent) generate(sessionID string, feature models.Feature, call func() (string, error)) (string, error) {
	start := a.now()
	text, err := call()
	if err != nil {
		a.logger.Error("generation failed", "feature", feature, "error", err)
		return "", fmt.Errorf("%w: %w", ErrCompletionFailed, err)
	}

	a.sessions.Update(sessionID, func(s *session.Session) {
		s.Record(feature, text, a.now())
	})
	a.logger.Info("generated", "feature", feature, "chars", len(text), "elapsed", a.now().Sub(start))
	return text, nil
}
