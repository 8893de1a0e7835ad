package risk

import (
	"strings"

	"github.com/Pavankumar07s/Pict-call/internal/models"
)

// EstimatedWordSpan is the width, in seconds, given to every word when the engine
// supplies no alignment. Word i is placed at [i*span, (i+1)*span).
const EstimatedWordSpan = 2.0

// span is one word with its start and end in seconds.
type span struct {
	text       string
	norm       []string
	start, end float64
}

// Segments locates the detected keywords inside the transcript. When the engine
// returned word timings they are used as is; otherwise each word gets a synthetic
// two-second slot by position and the result is flagged approximate. The synthetic
// slots say nothing about real speech timing.
func (s *Scorer) Segments(t models.Transcript, detected []string) (segments []models.SegmentTimestamp, approximate bool) {
	segments = []models.SegmentTimestamp{}
	if len(detected) == 0 {
		return segments, !t.Aligned()
	}

	var spans []span
	if t.Aligned() {
		for _, w := range t.Words {
			spans = append(spans, span{text: w.Text, norm: tokenize(w.Text), start: w.Start.Seconds(), end: w.End.Seconds()})
		}
	} else {
		approximate = true
		for i, w := range strings.Fields(t.Text) {
			start := float64(i) * EstimatedWordSpan
			spans = append(spans, span{text: w, norm: tokenize(w), start: start, end: start + EstimatedWordSpan})
		}
	}

	for i := 0; i < len(spans); {
		n, category := s.matchAt(spans, i, detected)
		if n == 0 {
			i++
			continue
		}

		texts := make([]string, n)
		for j := range n {
			texts[j] = spans[i+j].text
		}
		segments = append(segments, models.SegmentTimestamp{
			Start: spans[i].start,
			End:   spans[i+n-1].end,
			Text:  strings.Join(texts, " "),
			Type:  category,
		})
		i += n
	}

	return segments, approximate
}

// matchAt returns how many words starting at i form the first detected keyword that
// matches there, and that keyword's category.
func (s *Scorer) matchAt(spans []span, i int, detected []string) (int, models.KeywordCategory) {
	for _, kw := range detected {
		needle := tokenize(kw)
		switch {
		case len(needle) == 0:
			continue
		case len(needle) == 1:
			if s.wordMatches(spans[i], kw) {
				return 1, s.category[kw]
			}
		default:
			if i+len(needle) > len(spans) {
				continue
			}
			if s.windowMatches(spans[i:i+len(needle)], kw, needle) {
				return len(needle), s.category[kw]
			}
		}
	}
	return 0, ""
}

// windowMatches checks a multi-word keyword against consecutive words. Substring
// mode matches the joined words, so "verification codes" holds "verification code".
func (s *Scorer) windowMatches(window []span, keyword string, needle []string) bool {
	if s.mode == MatchToken {
		for j, n := range needle {
			if strings.Join(window[j].norm, " ") != n {
				return false
			}
		}
		return true
	}
	texts := make([]string, len(window))
	for j, w := range window {
		texts[j] = w.text
	}
	return strings.Contains(strings.ToLower(strings.Join(texts, " ")), keyword)
}

func (s *Scorer) wordMatches(w span, keyword string) bool {
	if s.mode == MatchToken {
		for _, n := range w.norm {
			if n == keyword {
				return true
			}
		}
		return false
	}
	return strings.Contains(strings.ToLower(w.text), keyword)
}
