package prompts

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompleter struct {
	reply        string
	err          error
	prompts      []string
	temperatures []float32
}

func (s *stubCompleter) Complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	s.prompts = append(s.prompts, prompt)
	s.temperatures = append(s.temperatures, temperature)
	return s.reply, s.err
}

func TestDispatcher_TrimsReplyAndPassesTemperature(t *testing.T) {
	stub := &stubCompleter{reply: "\n  ten summaries  \n\n"}
	d := NewDispatcher(stub, DefaultTemperature)

	out, err := d.LinkedInSummaries(context.Background(), "Jane Doe, data analyst")
	require.NoError(t, err)
	assert.Equal(t, "ten summaries", out)
	require.Len(t, stub.temperatures, 1)
	assert.Equal(t, float32(0.7), stub.temperatures[0])
	assert.Contains(t, stub.prompts[0], "write 10 short LinkedIn summary variations")
	assert.Contains(t, stub.prompts[0], "Jane Doe, data analyst")
}

func TestDispatcher_ResumeBudgets(t *testing.T) {
	resume := strings.Repeat("r", 2500) + "TAIL"
	jd := strings.Repeat("j", 1600) + "JDTAIL"

	tests := []struct {
		name      string
		call      func(d *Dispatcher) (string, error)
		resumeLen int
		jdLen     int
	}{
		{
			name:      "LinkedIn summary",
			call:      func(d *Dispatcher) (string, error) { return d.LinkedInSummaries(context.Background(), resume) },
			resumeLen: 2000,
		},
		{
			name: "Interview questions",
			call: func(d *Dispatcher) (string, error) {
				return d.InterviewQuestions(context.Background(), resume, "Data Analyst", "Mid Level")
			},
			resumeLen: 2000,
		},
		{
			name:      "Evaluation",
			call:      func(d *Dispatcher) (string, error) { return d.Evaluate(context.Background(), resume) },
			resumeLen: 2000,
		},
		{
			name: "Questions from description",
			call: func(d *Dispatcher) (string, error) {
				return d.QuestionsFromDescription(context.Background(), resume, jd)
			},
			resumeLen: 1500,
			jdLen:     1500,
		},
		{
			name:      "Cover letter",
			call:      func(d *Dispatcher) (string, error) { return d.CoverLetter(context.Background(), resume, jd) },
			resumeLen: 1500,
			jdLen:     1500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubCompleter{reply: "ok"}
			_, err := tt.call(NewDispatcher(stub, DefaultTemperature))
			require.NoError(t, err)
			require.Len(t, stub.prompts, 1)

			prompt := stub.prompts[0]
			assert.Contains(t, prompt, strings.Repeat("r", tt.resumeLen))
			assert.NotContains(t, prompt, strings.Repeat("r", tt.resumeLen+1))
			assert.NotContains(t, prompt, "TAIL")
			if tt.jdLen > 0 {
				assert.Contains(t, prompt, "Job Description:\n"+strings.Repeat("j", tt.jdLen)+"\n")
			}
		})
	}
}

func TestDispatcher_InterviewQuestionsPrompt(t *testing.T) {
	stub := &stubCompleter{reply: "q"}
	_, err := NewDispatcher(stub, 0.2).InterviewQuestions(context.Background(), "cv", "Project Manager", "Senior Level")
	require.NoError(t, err)

	assert.Contains(t, stub.prompts[0], "the role of Project Manager, generate 30 interview questions with answers for a Senior Level level role")
	assert.Equal(t, float32(0.2), stub.temperatures[0])
}

func TestDispatcher_ShortResumeUnchanged(t *testing.T) {
	stub := &stubCompleter{reply: "ok"}
	_, err := NewDispatcher(stub, DefaultTemperature).LinkedInSummaries(context.Background(), "short")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(stub.prompts[0], "Resume:\nshort\n"))
}

func TestDispatcher_PropagatesErrors(t *testing.T) {
	boom := errors.New("connection refused")
	stub := &stubCompleter{err: boom}

	_, err := NewDispatcher(stub, DefaultTemperature).Evaluate(context.Background(), "cv")
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), "evaluate-resume")
	assert.Len(t, stub.prompts, 1, "no retries")
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{name: "Shorter than budget", in: "abc", n: 5, want: "abc"},
		{name: "Exactly budget", in: "abcde", n: 5, want: "abcde"},
		{name: "Longer than budget", in: "abcdef", n: 5, want: "abcde"},
		{name: "Multibyte runes", in: "résumé", n: 3, want: "rés"},
		{name: "Zero budget", in: "abc", n: 0, want: ""},
		{name: "Empty input", in: "", n: 10, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.in, tt.n))
		})
	}
}
