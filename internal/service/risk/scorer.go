// Package risk turns transcripts into scam-risk verdicts.
//
// Scoring is literal keyword containment over a fixed ordered keyword list. The
// confidence is one of two fixed levels, never a probability estimate.
package risk

import (
	"strings"
	"time"

	"github.com/Pavankumar07s/Pict-call/internal/models"
)

// Confidence levels.
const (
	ConfidenceSuspicious = 0.85
	ConfidenceClean      = 0.15
)

// Option configures a Scorer.
type Option func(*Scorer)

// WithMatchMode sets how keywords are matched. Defaults to MatchSubstring.
func WithMatchMode(m MatchMode) Option {
	return func(s *Scorer) { s.mode = m }
}

// WithExtraKeywords appends keywords after the default list. Duplicates of an
// existing keyword are ignored.
func WithExtraKeywords(keywords ...Keyword) Option {
	return func(s *Scorer) {
		for _, k := range keywords {
			k.Text = strings.ToLower(strings.TrimSpace(k.Text))
			if k.Text == "" || s.has(k.Text) {
				continue
			}
			s.keywords = append(s.keywords, k)
		}
	}
}

// WithClock sets the time source for result timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) { s.now = now }
}

// Scorer is a pure function from transcript to verdict. It is immutable after
// construction and safe for concurrent use.
type Scorer struct {
	keywords []Keyword
	tokens   [][]string
	category map[string]models.KeywordCategory
	mode     MatchMode
	now      func() time.Time
}

// NewScorer creates a scorer over DefaultKeywords.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{
		keywords: append([]Keyword(nil), DefaultKeywords...),
		mode:     MatchSubstring,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}

	s.tokens = make([][]string, len(s.keywords))
	s.category = make(map[string]models.KeywordCategory, len(s.keywords))
	for i, k := range s.keywords {
		s.tokens[i] = tokenize(k.Text)
		s.category[k.Text] = k.Category
	}
	return s
}

func (s *Scorer) has(text string) bool {
	for _, k := range s.keywords {
		if k.Text == text {
			return true
		}
	}
	return false
}

// Keywords returns the configured keyword list in match order.
func (s *Scorer) Keywords() []Keyword {
	return append([]Keyword(nil), s.keywords...)
}

// Mode returns the configured match mode.
func (s *Scorer) Mode() MatchMode {
	return s.mode
}

// Score returns the verdict for a transcript. An empty transcript is a clean verdict.
func (s *Scorer) Score(t models.Transcript) models.AnalysisResult {
	lower := strings.ToLower(t.Text)
	var words []string
	if s.mode == MatchToken {
		words = tokenize(lower)
	}

	detected := []string{}
	hit := make(map[models.KeywordCategory]bool)
	for i, k := range s.keywords {
		var ok bool
		if s.mode == MatchToken {
			ok = containsTokens(words, s.tokens[i])
		} else {
			ok = strings.Contains(lower, k.Text)
		}
		if ok {
			detected = append(detected, k.Text)
			hit[k.Category] = true
		}
	}

	reasons := []string{}
	for _, c := range categoryOrder {
		if hit[c] {
			reasons = append(reasons, Reason(c))
		}
	}

	confidence := ConfidenceClean
	if len(detected) > 0 {
		confidence = ConfidenceSuspicious
	}

	return models.AnalysisResult{
		Suspicious:       len(detected) > 0,
		Confidence:       confidence,
		Reasons:          reasons,
		DetectedKeywords: detected,
		Timestamp:        s.now(),
	}
}
