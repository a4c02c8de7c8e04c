// Package jobs suggests job-search roles from résumé text using a fixed
// keyword list.
package jobs

import (
	"math/rand/v2"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/fmuoria/career-bot/internal/models"
)

// Roles is the fixed keyword list, in match order
var Roles = []string{
	"data analyst",
	"project manager",
	"software engineer",
	"business analyst",
	"healthcare consultant",
}

// FallbackCount is how many random roles are suggested when nothing matches
const FallbackCount = 2

const searchURL = "https://www.linkedin.com/jobs/search/"

// Suggester matches roles against résumé text. It is safe for concurrent use.
type Suggester struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSuggester creates a suggester. A nil rng uses the global source.
func NewSuggester(rng *rand.Rand) *Suggester {
	return &Suggester{rng: rng}
}

// Suggest returns every role found as a substring of the lower-cased text,
// in list order. With no match it returns FallbackCount distinct roles
// chosen uniformly at random.
func (s *Suggester) Suggest(text string) []models.JobSuggestion {
	lower := strings.ToLower(text)

	var matched []string
	for _, role := range Roles {
		if strings.Contains(lower, role) {
			matched = append(matched, role)
		}
	}
	if len(matched) == 0 {
		matched = s.sample(FallbackCount)
	}

	// A Caser carries state, so each call gets its own.
	caser := cases.Title(language.English)
	suggestions := make([]models.JobSuggestion, 0, len(matched))
	for _, role := range matched {
		title := caser.String(role)
		suggestions = append(suggestions, models.JobSuggestion{
			Role: title,
			URL:  SearchURL(title),
		})
	}
	return suggestions
}

// sample picks n distinct roles without replacement
func (s *Suggester) sample(n int) []string {
	perm := s.perm(len(Roles))
	picked := make([]string, 0, n)
	for _, i := range perm[:n] {
		picked = append(picked, Roles[i])
	}
	return picked
}

func (s *Suggester) perm(n int) []int {
	if s.rng != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.rng.Perm(n)
	}
	return rand.Perm(n)
}

// SearchURL builds the LinkedIn job-search link for role
func SearchURL(role string) string {
	return searchURL + "?keywords=" + url.PathEscape(role)
}
