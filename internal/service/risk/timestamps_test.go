package risk

import (
	"testing"
	"time"

	"github.com/Pavankumar07s/Pict-call/internal/models"
)

func TestSegments_Estimated(t *testing.T) {
	s := newTestScorer()
	tr := models.Transcript{Text: "hello please read the verification code and your OTP, urgently"}
	result := s.Score(tr)

	segments, approximate := s.Segments(tr, result.DetectedKeywords)
	if !approximate {
		t.Error("expected estimated segments to be flagged approximate")
	}

	want := []models.SegmentTimestamp{
		{Start: 8, End: 12, Text: "verification code", Type: models.CategoryOTPRequest},
		{Start: 16, End: 18, Text: "OTP,", Type: models.CategoryOTPRequest},
		{Start: 18, End: 20, Text: "urgently", Type: models.CategoryUrgency},
	}
	if len(segments) != len(want) {
		t.Fatalf("expected %d segments, got %+v", len(want), segments)
	}
	for i := range want {
		if segments[i] != want[i] {
			t.Errorf("segment %d: expected %+v, got %+v", i, want[i], segments[i])
		}
	}
}

func TestSegments_WordPositions(t *testing.T) {
	s := newTestScorer()
	tr := models.Transcript{Text: "otp"}
	segments, _ := s.Segments(tr, []string{"otp"})
	if len(segments) != 1 || segments[0].Start != 0 || segments[0].End != 2 {
		t.Errorf("first word should span [0, 2), got %+v", segments)
	}
}

func TestSegments_Aligned(t *testing.T) {
	s := newTestScorer()
	tr := models.Transcript{
		Text: "install teamviewer please",
		Words: []models.Word{
			{Text: "install", Start: 500 * time.Millisecond, End: 900 * time.Millisecond},
			{Text: "teamviewer", Start: time.Second, End: 1700 * time.Millisecond},
			{Text: "please", Start: 1800 * time.Millisecond, End: 2 * time.Second},
		},
	}
	result := s.Score(tr)

	segments, approximate := s.Segments(tr, result.DetectedKeywords)
	if approximate {
		t.Error("engine-aligned segments should not be flagged approximate")
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %+v", segments)
	}
	if segments[0].Text != "install" || segments[0].Start != 0.5 || segments[0].Type != models.CategoryInstallationRequest {
		t.Errorf("unexpected first segment: %+v", segments[0])
	}
	if segments[1].Text != "teamviewer" || segments[1].Start != 1 || segments[1].Type != models.CategoryRemoteAccess {
		t.Errorf("unexpected second segment: %+v", segments[1])
	}
}

func TestSegments_NoKeywords(t *testing.T) {
	s := newTestScorer()
	segments, approximate := s.Segments(models.Transcript{Text: "nothing to see"}, nil)
	if segments == nil || len(segments) != 0 {
		t.Errorf("expected empty non-nil segments, got %#v", segments)
	}
	if !approximate {
		t.Error("unaligned transcript should report approximate timing")
	}
}

func TestSegments_MultiWordKeywordInflected(t *testing.T) {
	tests := []struct {
		name     string
		mode     MatchMode
		wantSegs int
	}{
		{"substring matches inflected form", MatchSubstring, 1},
		{"token requires exact words", MatchToken, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScorer(WithMatchMode(tt.mode))
			tr := models.Transcript{Text: "send the verification codes now"}

			segments, _ := s.Segments(tr, []string{"verification code"})
			if len(segments) != tt.wantSegs {
				t.Fatalf("expected %d segments, got %+v", tt.wantSegs, segments)
			}
			if tt.wantSegs == 0 {
				return
			}
			want := models.SegmentTimestamp{Start: 4, End: 8, Text: "verification codes", Type: models.CategoryOTPRequest}
			if segments[0] != want {
				t.Errorf("expected %+v, got %+v", want, segments[0])
			}
		})
	}
}

func TestSegments_EveryDetectedKeywordLocated(t *testing.T) {
	s := NewScorer()
	tr := models.Transcript{Text: "call our Support Teams about the security codes"}
	result := s.Score(tr)

	segments, _ := s.Segments(tr, result.DetectedKeywords)
	found := map[string]bool{}
	for _, seg := range segments {
		found[seg.Text] = true
	}
	for _, text := range []string{"Support Teams", "security codes"} {
		if !found[text] {
			t.Errorf("expected segment %q, got %+v", text, segments)
		}
	}
}
