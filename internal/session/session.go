// Package session keeps per-browser state: who is signed in, the uploaded
// résumé text and the outputs generated so far.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fmuoria/career-bot/internal/models"
)

// Session is one browser's context. Callers get copies from Store and
// write them back with Save.
type Session struct {
	ID            string
	Identifier    string
	Authenticated bool
	ResumeName    string
	ResumeText    string
	HasResume     bool
	Outputs       map[models.Feature]models.FeatureOutput
	Suggestions   []models.JobSuggestion
	Scorecard     *models.Scorecard
	CreatedAt     time.Time
	LastSeen      time.Time
}

// SignIn marks the session as belonging to identifier
func (s *Session) SignIn(identifier string) {
	s.Identifier = identifier
	s.Authenticated = true
}

// SetResume replaces the résumé and clears outputs derived from the old one
func (s *Session) SetResume(name, text string) {
	s.ResumeName = name
	s.ResumeText = text
	s.HasResume = true
	s.Outputs = make(map[models.Feature]models.FeatureOutput)
	s.Suggestions = nil
	s.Scorecard = nil
}

// Record stores generated text for a feature, replacing any earlier output
func (s *Session) Record(feature models.Feature, text string, at time.Time) {
	if s.Outputs == nil {
		s.Outputs = make(map[models.Feature]models.FeatureOutput)
	}
	s.Outputs[feature] = models.FeatureOutput{Feature: feature, Text: text, GeneratedAt: at}
}

// Report assembles the session's outputs in a stable feature order
func (s *Session) Report(at time.Time) models.SessionReport {
	report := models.SessionReport{
		Identifier:  s.Identifier,
		ResumeName:  s.ResumeName,
		Suggestions: s.Suggestions,
		Scorecard:   s.Scorecard,
		GeneratedAt: at,
	}
	for _, f := range models.Features {
		if out, ok := s.Outputs[f]; ok {
			report.Outputs = append(report.Outputs, out)
		}
	}
	return report
}

func (s Session) clone() Session {
	c := s
	if s.Outputs != nil {
		c.Outputs = make(map[models.Feature]models.FeatureOutput, len(s.Outputs))
		for k, v := range s.Outputs {
			c.Outputs[k] = v
		}
	}
	if s.Suggestions != nil {
		c.Suggestions = append([]models.JobSuggestion(nil), s.Suggestions...)
	}
	if s.Scorecard != nil {
		card := *s.Scorecard
		c.Scorecard = &card
	}
	return c
}

// DefaultTTL is how long an idle session is kept
const DefaultTTL = 2 * time.Hour

// sweepInterval bounds how often Create scans for idle sessions
const sweepInterval = time.Minute

// Store is an in-memory session table safe for concurrent use. Sessions
// idle for longer than the TTL are treated as gone and are dropped on
// access or by the sweep in Create.
type Store struct {
	mu        sync.Mutex
	sessions  map[string]Session
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

// NewStore creates an empty store with DefaultTTL
func NewStore() *Store {
	return NewStoreWithTTL(DefaultTTL)
}

// NewStoreWithTTL creates an empty store. A ttl of zero or less keeps
// sessions until they are deleted.
func NewStoreWithTTL(ttl time.Duration) *Store {
	return &Store{sessions: make(map[string]Session), ttl: ttl, now: time.Now}
}

// Create starts a new anonymous session
func (st *Store) Create() Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	st.sweepLocked(now)

	s := Session{
		ID:        uuid.New().String(),
		Outputs:   make(map[models.Feature]models.FeatureOutput),
		CreatedAt: now,
		LastSeen:  now,
	}
	st.sessions[s.ID] = s
	return s.clone()
}

// Get returns a copy of the session with id and marks it as seen
func (st *Store) Get(id string) (Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.liveLocked(id)
	if !ok {
		return Session{}, false
	}
	s.LastSeen = st.now()
	st.sessions[id] = s
	return s.clone(), true
}

// Save stores s under its ID
func (st *Store) Save(s Session) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s = s.clone()
	s.LastSeen = st.now()
	st.sessions[s.ID] = s
}

// Update applies fn to the stored session under the write lock. It reports
// false when no live session has id.
func (st *Store) Update(id string, fn func(*Session)) (Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.liveLocked(id)
	if !ok {
		return Session{}, false
	}
	fn(&s)
	s.LastSeen = st.now()
	st.sessions[id] = s
	return s.clone(), true
}

// Rotate moves the session to a fresh ID, applies fn and drops the old ID.
// Used on sign-in so an ID handed out before login never becomes
// authenticated.
func (st *Store) Rotate(id string, fn func(*Session)) (Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.liveLocked(id)
	if !ok {
		return Session{}, false
	}
	delete(st.sessions, id)

	s.ID = uuid.New().String()
	fn(&s)
	s.LastSeen = st.now()
	st.sessions[s.ID] = s
	return s.clone(), true
}

// Delete drops the session with id
func (st *Store) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Len returns the number of stored sessions
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// liveLocked returns the session with id, deleting it if it has expired
func (st *Store) liveLocked(id string) (Session, bool) {
	s, ok := st.sessions[id]
	if !ok {
		return Session{}, false
	}
	if st.expired(s, st.now()) {
		delete(st.sessions, id)
		return Session{}, false
	}
	return s, true
}

func (st *Store) sweepLocked(now time.Time) {
	if st.ttl <= 0 || now.Sub(st.lastSweep) < min(st.ttl, sweepInterval) {
		return
	}
	st.lastSweep = now
	for id, s := range st.sessions {
		if st.expired(s, now) {
			delete(st.sessions, id)
		}
	}
}

func (st *Store) expired(s Session, now time.Time) bool {
	return st.ttl > 0 && now.Sub(s.LastSeen) > st.ttl
}
