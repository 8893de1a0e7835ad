package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestStreamResponse_EmptySlicesEncodeAsArrays(t *testing.T) {
	r := AnalysisResult{Confidence: 0.15, Timestamp: time.Unix(1700000000, 500_000_000)}

	data, err := json.Marshal(r.StreamResponse())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(data)
	if !strings.Contains(body, `"reasons":[]`) {
		t.Errorf("expected empty reasons array, got %s", body)
	}
	if !strings.Contains(body, `"detected_keywords":[]`) {
		t.Errorf("expected empty detected_keywords array, got %s", body)
	}
	if !strings.Contains(body, `"current_timestamp":1700000000.5`) {
		t.Errorf("expected fractional unix timestamp, got %s", body)
	}
}

func TestBatchResponse_CarriesSegments(t *testing.T) {
	r := AnalysisResult{
		Suspicious:          true,
		Confidence:          0.85,
		Reasons:             []string{"Potential OTP/password request detected"},
		DetectedKeywords:    []string{"otp"},
		Segments:            []SegmentTimestamp{{Start: 6, End: 8, Text: "otp", Type: CategoryOTPRequest}},
		SegmentsApproximate: true,
	}

	resp := r.BatchResponse()
	if len(resp.Timestamps) != 1 || resp.Timestamps[0].Type != CategoryOTPRequest {
		t.Fatalf("unexpected timestamps: %+v", resp.Timestamps)
	}
	if !resp.TimestampsApproximate {
		t.Error("expected approximate flag to be carried over")
	}
}

func TestPcmBuffer_Duration(t *testing.T) {
	b := PcmBuffer{SampleRate: 16000, Channels: 1, Samples: make([]int16, 8000)}
	if got := b.Duration(); got != 500*time.Millisecond {
		t.Errorf("Duration() = %v, want 500ms", got)
	}
	if (PcmBuffer{}).Duration() != 0 {
		t.Error("zero buffer should have zero duration")
	}
}
