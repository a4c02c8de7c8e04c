package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fmuoria/career-bot/internal/models"
)

func TestStore_CreateGetSaveDelete(t *testing.T) {
	st := NewStore()

	s := st.Create()
	require.NotEmpty(t, s.ID)
	assert.False(t, s.Authenticated)

	s.SignIn("a@x.com")
	st.Save(s)

	got, ok := st.Get(s.ID)
	require.True(t, ok)
	assert.True(t, got.Authenticated)
	assert.Equal(t, "a@x.com", got.Identifier)

	st.Delete(s.ID)
	_, ok = st.Get(s.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, st.Len())
}

func TestStore_IDsAreUnique(t *testing.T) {
	st := NewStore()
	a := st.Create()
	b := st.Create()
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, st.Len())
}

func TestStore_GetReturnsCopy(t *testing.T) {
	st := NewStore()
	s := st.Create()
	s.Record(models.FeatureLinkedInSummary, "v1", time.Now())
	st.Save(s)

	got, _ := st.Get(s.ID)
	got.Record(models.FeatureLinkedInSummary, "changed", time.Now())

	again, _ := st.Get(s.ID)
	assert.Equal(t, "v1", again.Outputs[models.FeatureLinkedInSummary].Text)
}

func TestSession_SetResumeClearsDerivedOutputs(t *testing.T) {
	var s Session
	s.Record(models.FeatureEvaluation, "old review", time.Now())
	s.Suggestions = []models.JobSuggestion{{Role: "Data Analyst"}}
	s.Scorecard = &models.Scorecard{OverallScore: 80}

	s.SetResume("cv.pdf", "new text")

	assert.True(t, s.HasResume)
	assert.Equal(t, "cv.pdf", s.ResumeName)
	assert.Equal(t, "new text", s.ResumeText)
	assert.Empty(t, s.Outputs)
	assert.Nil(t, s.Suggestions)
	assert.Nil(t, s.Scorecard)
}

func TestSession_SetResumeAcceptsEmptyText(t *testing.T) {
	var s Session
	s.SetResume("scan.pdf", "")
	assert.True(t, s.HasResume)
	assert.Empty(t, s.ResumeText)
}

func TestSession_ReportOrdersOutputs(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := Session{Identifier: "a@x.com", ResumeName: "cv.docx"}
	s.Record(models.FeatureCoverLetter, "letter", at)
	s.Record(models.FeatureLinkedInSummary, "summary", at)

	report := s.Report(at)
	require.Len(t, report.Outputs, 2)
	assert.Equal(t, models.FeatureLinkedInSummary, report.Outputs[0].Feature)
	assert.Equal(t, models.FeatureCoverLetter, report.Outputs[1].Feature)
	assert.Equal(t, "a@x.com", report.Identifier)
	assert.Equal(t, at, report.GeneratedAt)
}

func TestStore_Update(t *testing.T) {
	st := NewStore()
	s := st.Create()

	got, ok := st.Update(s.ID, func(s *Session) { s.SignIn("b@x.com") })
	require.True(t, ok)
	assert.Equal(t, "b@x.com", got.Identifier)

	_, ok = st.Update("missing", func(s *Session) { t.Fatal("must not run") })
	assert.False(t, ok)
}

func TestStore_ConcurrentUpdatesAreNotLost(t *testing.T) {
	st := NewStore()
	s := st.Create()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.Update(s.ID, func(s *Session) {
				s.Suggestions = append(s.Suggestions, models.JobSuggestion{Role: "Data Analyst"})
			})
		}()
	}
	wg.Wait()

	got, _ := st.Get(s.ID)
	assert.Len(t, got.Suggestions, 50)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	st := NewStore()
	s := st.Create()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			cur, _ := st.Get(s.ID)
			cur.Record(models.FeatureLinkedInSummary, "x", time.Now())
			st.Save(cur)
		}()
		go func() {
			defer wg.Done()
			_, _ = st.Get(s.ID)
		}()
	}
	wg.Wait()

	got, ok := st.Get(s.ID)
	require.True(t, ok)
	assert.Equal(t, "x", got.Outputs[models.FeatureLinkedInSummary].Text)
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClockedStore(ttl time.Duration) (*Store, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	st := NewStoreWithTTL(ttl)
	st.now = clock.now
	return st, clock
}

func TestStore_IdleSessionsExpire(t *testing.T) {
	st, clock := newClockedStore(30 * time.Minute)
	s := st.Create()

	clock.advance(20 * time.Minute)
	_, ok := st.Get(s.ID)
	require.True(t, ok, "access within the ttl keeps the session")

	clock.advance(20 * time.Minute)
	_, ok = st.Get(s.ID)
	require.True(t, ok, "ttl counts from the last access")

	clock.advance(31 * time.Minute)
	_, ok = st.Get(s.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, st.Len())

	_, ok = st.Update(s.ID, func(*Session) { t.Fatal("expired session must not be updated") })
	assert.False(t, ok)
}

func TestStore_CreateSweepsIdleSessions(t *testing.T) {
	st, clock := newClockedStore(time.Hour)
	for i := 0; i < 5000; i++ {
		st.Create()
	}
	require.Equal(t, 5000, st.Len())

	clock.advance(2 * time.Hour)
	fresh := st.Create()

	assert.Equal(t, 1, st.Len())
	_, ok := st.Get(fresh.ID)
	assert.True(t, ok)
}

func TestStore_ZeroTTLKeepsSessions(t *testing.T) {
	st, clock := newClockedStore(0)
	s := st.Create()

	clock.advance(1000 * time.Hour)
	st.Create()

	_, ok := st.Get(s.ID)
	assert.True(t, ok)
}

func TestStore_RotateIssuesNewID(t *testing.T) {
	st := NewStore()
	s := st.Create()
	s.SetResume("cv.docx", "text")
	st.Save(s)

	rotated, ok := st.Rotate(s.ID, func(s *Session) { s.SignIn("a@x.com") })
	require.True(t, ok)
	assert.NotEqual(t, s.ID, rotated.ID)
	assert.True(t, rotated.Authenticated)
	assert.Equal(t, "text", rotated.ResumeText, "state carries over to the new id")

	_, ok = st.Get(s.ID)
	assert.False(t, ok, "old id is no longer valid")
	assert.Equal(t, 1, st.Len())

	_, ok = st.Rotate("missing", func(*Session) {})
	assert.False(t, ok)
}
