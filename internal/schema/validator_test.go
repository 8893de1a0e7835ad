package schema

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Pavankumar07s/Pict-call/internal/models"
	"github.com/Pavankumar07s/Pict-call/internal/service/risk"
)

func suspiciousEvent() models.AnalysisEvent {
	r := models.AnalysisResult{
		Suspicious:       true,
		Confidence:       0.85,
		Reasons:          []string{"Potential OTP/password request detected"},
		DetectedKeywords: []string{"otp"},
		Timestamp:        time.UnixMilli(1700000000000),
	}
	ev := r.Event(models.EventTypeStreamAnalysis, "share your otp", false)
	ev.SessionID = "s1"
	ev.ChunkID = "s1-chunk-1"
	return ev
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.AnalysisEvent)
		wantErr string
	}{
		{"valid stream", func(*models.AnalysisEvent) {}, ""},
		{"valid batch", func(ev *models.AnalysisEvent) {
			ev.EventType = models.EventTypeBatchAnalysis
			ev.SessionID, ev.ChunkID, ev.RequestID = "", "", "req-1"
		}, ""},
		{"valid clean", func(ev *models.AnalysisEvent) {
			ev.Suspicious, ev.Confidence = false, 0.15
			ev.Reasons, ev.DetectedKeywords = []string{}, []string{}
		}, ""},
		{"valid degraded", func(ev *models.AnalysisEvent) {
			ev.Degraded, ev.Suspicious, ev.Confidence = true, false, 0
			ev.Reasons, ev.DetectedKeywords = []string{"Error: decode error: boom"}, []string{}
		}, ""},
		{"unknown type", func(ev *models.AnalysisEvent) { ev.EventType = "x" }, "unknown eventType"},
		{"missing session", func(ev *models.AnalysisEvent) { ev.SessionID = "" }, "sessionId"},
		{"missing request", func(ev *models.AnalysisEvent) {
			ev.EventType = models.EventTypeBatchAnalysis
		}, "requestId"},
		{"zero timestamp", func(ev *models.AnalysisEvent) { ev.Timestamp = 0 }, "timestamp"},
		{"suspicious without keywords", func(ev *models.AnalysisEvent) { ev.DetectedKeywords = nil }, "disagrees with 0 detected keywords"},
		{"interpolated confidence", func(ev *models.AnalysisEvent) { ev.Confidence = 0.5 }, "confidence must be 0.85"},
		{"degraded suspicious", func(ev *models.AnalysisEvent) { ev.Degraded = true }, "must not be suspicious"},
		{"degraded without error reason", func(ev *models.AnalysisEvent) {
			ev.Degraded, ev.Suspicious, ev.Confidence = true, false, 0
			ev.Reasons, ev.DetectedKeywords = []string{"oops"}, nil
		}, "exactly one error reason"},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := suspiciousEvent()
			tt.mutate(&ev)
			err := v.Validate(ev)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateResult_ScorerOutput(t *testing.T) {
	s := risk.NewScorer()
	v := New()

	for _, text := range []string{
		"",
		"hello, how are you",
		"Please share your OTP now",
		"install anydesk now, this is urgent",
		"this is the technical support team",
	} {
		if err := v.ValidateResult(s.Score(models.Transcript{Text: text}), false); err != nil {
			t.Errorf("score(%q): %v", text, err)
		}
	}
}
