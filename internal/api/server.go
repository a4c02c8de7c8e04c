// Package api serves the career bot over HTTP: an HTML form application
// with a JSON variant of every action for clients that send
// "Accept: application/json".
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/fmuoria/career-bot/internal/agent"
	"github.com/fmuoria/career-bot/internal/credentials"
	"github.com/fmuoria/career-bot/internal/export"
	"github.com/fmuoria/career-bot/internal/ingestion"
	"github.com/fmuoria/career-bot/internal/models"
)

const sessionCookieName = "careerbot_session"

// formOverhead is allowed on top of the upload limit for the other fields
const formOverhead = 1 << 20

// Options configures a Server
type Options struct {
	Logger         *slog.Logger
	MaxUploadBytes int64
	SecureCookies  bool
}

// Server handles HTTP requests
type Server struct {
	agent          *agent.CareerAgent
	logger         *slog.Logger
	tmpl           *template.Template
	maxUploadBytes int64
	secureCookies  bool
}

// NewServer creates a new server
func NewServer(a *agent.CareerAgent, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"markdown": newMarkdownRenderer().Render,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Server{
		agent:          a,
		logger:         logger,
		tmpl:           tmpl,
		maxUploadBytes: opts.MaxUploadBytes,
		secureCookies:  opts.SecureCookies,
	}, nil
}

// Router returns the HTTP router
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /login", s.protect(s.handleLogin))
	mux.HandleFunc("POST /register", s.protect(s.handleRegister))
	mux.HandleFunc("POST /forgot", s.protect(s.handleForgot))
	mux.HandleFunc("POST /logout", s.protect(s.handleLogout))
	mux.HandleFunc("POST /upload", s.protect(s.handleUpload))

	mux.HandleFunc("POST /summary", s.protect(s.handleSummary))
	mux.HandleFunc("POST /interview", s.protect(s.handleInterview))
	mux.HandleFunc("POST /jd-questions", s.protect(s.handleDescriptionQuestions))
	mux.HandleFunc("POST /cover-letter", s.protect(s.handleCoverLetter))
	mux.HandleFunc("POST /jobs", s.protect(s.handleJobs))
	mux.HandleFunc("POST /evaluate", s.protect(s.handleEvaluate))

	mux.HandleFunc("GET /samples", s.handleSamples)
	mux.HandleFunc("GET /samples/{name}", s.handleSampleDownload)
	mux.HandleFunc("GET /report.xlsx", s.handleReport)

	return s.withRequestLog(s.withRecovery(mux))
}

// pageData is everything the index template renders
type pageData struct {
	CSRFToken     string
	Authenticated bool
	Identifier    string
	HasResume     bool
	ResumeName    string
	ResumeChars   int
	Levels        []string
	Error         string
	Notice        string
	Result        *resultView
	Suggestions   []models.JobSuggestion
	Scorecard     *models.Scorecard
	Samples       []models.SampleDocument
	SamplesListed bool
}

type resultView struct {
	Title string
	Text  string
}

// handleHealth provides a health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, s.page(w, r, s.sessionID(r)))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	identifier := r.FormValue("identifier")

	id, err := s.signIn(r, func(sessionID string) (string, error) {
		return s.agent.Login(r.Context(), sessionID, identifier, r.FormValue("password"))
	})
	if err != nil {
		s.fail(w, r, s.sessionID(r), err)
		return
	}
	s.setSessionCookie(w, id)

	page := s.page(w, r, id)
	page.Notice = "Logged in successfully."
	s.respond(w, r, page, map[string]string{"status": "ok", "identifier": identifier})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	identifier := r.FormValue("identifier")

	id, err := s.signIn(r, func(sessionID string) (string, error) {
		return s.agent.Register(r.Context(), sessionID, identifier, r.FormValue("password"))
	})
	if err != nil {
		if errors.Is(err, agent.ErrInvalidCredentials) {
			err = fmt.Errorf("%w: this email/phone is already registered", agent.ErrInvalidCredentials)
		}
		s.fail(w, r, s.sessionID(r), err)
		return
	}
	s.setSessionCookie(w, id)

	page := s.page(w, r, id)
	page.Notice = "Registration successful."
	s.respond(w, r, page, map[string]string{"status": "ok", "identifier": identifier})
}

func (s *Server) handleForgot(w http.ResponseWriter, r *http.Request) {
	sessionID := s.sessionID(r)
	identifier := r.FormValue("identifier")

	password, err := s.agent.ForgotPassword(r.Context(), identifier)
	if err != nil {
		s.fail(w, r, sessionID, err)
		return
	}

	page := s.page(w, r, sessionID)
	page.Notice = fmt.Sprintf("Your password is: %s", password)
	s.respond(w, r, page, map[string]string{"identifier": identifier, "password": password})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		s.agent.Logout(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.secureCookies,
	})

	if wantsJSON(r) {
		s.respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sessionID := s.sessionID(r)

	file, header, err := r.FormFile("resume")
	if err != nil {
		s.fail(w, r, sessionID, fmt.Errorf("%w: resume file", agent.ErrMissingInput))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.fail(w, r, sessionID, fmt.Errorf("failed to read upload: %w", err))
		return
	}

	text, err := s.agent.Upload(r.Context(), sessionID, header.Filename, data)
	if err != nil {
		s.fail(w, r, sessionID, err)
		return
	}

	page := s.page(w, r, sessionID)
	if text == "" {
		page.Notice = "No text could be extracted from this file; features will run on an empty resume."
	} else {
		page.Notice = "Resume uploaded."
	}
	s.respond(w, r, page, map[string]any{"resume": header.Filename, "chars": len([]rune(text))})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sessionID := s.sessionID(r)
	text, err := s.agent.GenerateSummary(r.Context(), sessionID)
	s.respondFeature(w, r, sessionID, models.FeatureLinkedInSummary, text, err)
}

func (s *Server) handleInterview(w http.ResponseWriter, r *http.Request) {
	sessionID := s.sessionID(r)
	text, err := s.agent.GenerateInterviewQuestions(r.Context(), sessionID, r.FormValue("role"), r.FormValue("level"))
	s.respondFeature(w, r, sessionID, models.FeatureInterviewQuestions, text, err)
}

func (s *Server) handleDescriptionQuestions(w http.ResponseWriter, r *http.Request) {
	sessionID := s.sessionID(r)
	text, err := s.agent.GenerateQuestionsFromDescription(r.Context(), sessionID, r.FormValue("job_description"))
	s.respondFeature(w, r, sessionID, models.FeatureDescriptionPrep, text, err)
}

func (s *Server) handleCoverLetter(w http.ResponseWriter, r *http.Request) {
	sessionID := s.sessionID(r)
	text, err := s.agent.GenerateCoverLetter(r.Context(), sessionID, r.FormValue("job_description"))
	s.respondFeature(w, r, sessionID, models.FeatureCoverLetter, text, err)
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	sessionID := s.sessionID(r)

	suggestions, err := s.agent.SuggestJobs(r.Context(), sessionID)
	if err != nil {
		s.fail(w, r, sessionID, err)
		return
	}

	page := s.page(w, r, sessionID)
	page.Suggestions = suggestions
	s.respond(w, r, page, map[string]any{"suggestions": suggestions})
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	sessionID := s.sessionID(r)

	eval, err := s.agent.EvaluateResume(r.Context(), sessionID)
	if err != nil {
		s.fail(w, r, sessionID, err)
		return
	}

	page := s.page(w, r, sessionID)
	page.Result = &resultView{Title: models.FeatureEvaluation.Title(), Text: eval.Raw}
	page.Scorecard = eval.Scorecard
	s.respond(w, r, page, eval)
}

func (s *Server) handleSamples(w http.ResponseWriter, r *http.Request) {
	sessionID := s.sessionID(r)

	samples, err := s.agent.ListSamples(r.Context())
	if err != nil {
		s.fail(w, r, sessionID, err)
		return
	}

	page := s.page(w, r, sessionID)
	page.Samples = samples
	page.SamplesListed = true
	s.respond(w, r, page, map[string]any{"samples": samples})
}

func (s *Server) handleSampleDownload(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	data, err := s.agent.OpenSample(r.Context(), name)
	if err != nil {
		status := statusFor(err)
		s.logError(r, status, err)
		s.respondError(w, status, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("failed to write sample", "name", name, "error", err)
	}
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.agent.Report(s.sessionID(r))
	if err != nil {
		status := statusFor(err)
		s.respondError(w, status, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="career-bot-report.xlsx"`)
	if err := export.WriteSessionReport(w, report); err != nil {
		s.logger.Error("failed to write report", "error", err)
	}
}

// protect parses the form within the upload limit and rejects requests
// whose CSRF token does not match the cookie
func (s *Server) protect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+formOverhead)

		var err error
		if ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); ct == "multipart/form-data" {
			err = r.ParseMultipartForm(s.maxUploadBytes)
		} else {
			err = r.ParseForm()
		}
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				s.respondError(w, http.StatusRequestEntityTooLarge, "upload is too large")
				return
			}
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse form: %v", err))
			return
		}

		if !validateCSRF(r) {
			s.logger.Warn("csrf check failed", "path", r.URL.Path)
			s.respondError(w, http.StatusForbidden, "invalid CSRF token")
			return
		}

		next(w, r)
	}
}

// sessionID returns the live session named by the request cookie, or ""
// for anonymous visitors. Reading never starts a session.
func (s *Server) sessionID(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	if _, ok := s.agent.Session(cookie.Value); !ok {
		return ""
	}
	return cookie.Value
}

// signIn runs a login or registration against the visitor's session. A
// visitor without one gets a fresh session, which is dropped again if the
// attempt fails. On success the session ID has been replaced and the new
// one is returned.
func (s *Server) signIn(r *http.Request, attempt func(sessionID string) (string, error)) (string, error) {
	current := s.sessionID(r)
	fresh := current == ""
	if fresh {
		current = s.agent.NewSession().ID
	}

	id, err := attempt(current)
	if err != nil && fresh {
		s.agent.Logout(current)
	}
	return id, err
}

func (s *Server) setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.secureCookies,
	})
}

// page builds the template data from the session's current state
func (s *Server) page(w http.ResponseWriter, r *http.Request, sessionID string) pageData {
	data := pageData{
		CSRFToken: csrfToken(w, r, s.secureCookies),
		Levels:    models.InterviewLevels,
	}

	sess, ok := s.agent.Session(sessionID)
	if !ok {
		return data
	}
	data.Authenticated = sess.Authenticated
	data.Identifier = sess.Identifier
	data.HasResume = sess.HasResume
	data.ResumeName = sess.ResumeName
	data.ResumeChars = len([]rune(sess.ResumeText))
	return data
}

func (s *Server) respondFeature(w http.ResponseWriter, r *http.Request, sessionID string, feature models.Feature, text string, err error) {
	if err != nil {
		s.fail(w, r, sessionID, err)
		return
	}

	page := s.page(w, r, sessionID)
	page.Result = &resultView{Title: feature.Title(), Text: text}
	s.respond(w, r, page, map[string]string{"feature": string(feature), "text": text})
}

// respond renders page for browsers or payload for JSON clients
func (s *Server) respond(w http.ResponseWriter, r *http.Request, page pageData, payload any) {
	if wantsJSON(r) {
		s.respondJSON(w, http.StatusOK, payload)
		return
	}
	s.renderPage(w, r, http.StatusOK, page)
}

// fail reports err with the status its kind maps to
func (s *Server) fail(w http.ResponseWriter, r *http.Request, sessionID string, err error) {
	status := statusFor(err)
	s.logError(r, status, err)

	if wantsJSON(r) {
		s.respondError(w, status, err.Error())
		return
	}
	page := s.page(w, r, sessionID)
	page.Error = err.Error()
	s.renderPage(w, r, status, page)
}

func (s *Server) logError(r *http.Request, status int, err error) {
	logger := s.logger.With("request_id", requestID(r.Context()), "path", r.URL.Path, "status", status)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
		return
	}
	logger.Info("request rejected", "error", err)
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		s.logger.Error("failed to render page", "path", r.URL.Path, "error", err)
	}
}

// respondJSON sends a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", "error", err)
	}
}

// respondError sends an error response
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{
		"error": message,
	})
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// statusFor maps agent and library errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, agent.ErrNotAuthenticated), errors.Is(err, agent.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, agent.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, agent.ErrNoResume), errors.Is(err, agent.ErrMissingInput),
		errors.Is(err, agent.ErrInvalidLevel), errors.Is(err, ingestion.ErrInvalidSampleName),
		errors.Is(err, credentials.ErrControlCharacter):
		return http.StatusBadRequest
	case errors.Is(err, agent.ErrUnknownIdentifier), errors.Is(err, ingestion.ErrSampleNotFound):
		return http.StatusNotFound
	case errors.Is(err, agent.ErrCompletionFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
