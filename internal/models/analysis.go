package models

import "time"

// KeywordCategory groups raw keywords into the reason they contribute to.
type KeywordCategory string

const (
	CategoryOTPRequest          KeywordCategory = "otp_request"
	CategoryRemoteAccess        KeywordCategory = "remote_access"
	CategoryInstallationRequest KeywordCategory = "installation_request"
	CategoryUrgency             KeywordCategory = "urgency"
	CategoryGeneric             KeywordCategory = "generic"
)

// SegmentTimestamp locates a matched keyword inside a batch upload.
type SegmentTimestamp struct {
	Start float64         `json:"start"`
	End   float64         `json:"end"`
	Text  string          `json:"text"`
	Type  KeywordCategory `json:"type"`
}

// AnalysisResult is the verdict for one chunk or one uploaded file.
// Suspicious is true exactly when DetectedKeywords is non-empty.
type AnalysisResult struct {
	Suspicious       bool
	Confidence       float64
	Reasons          []string
	DetectedKeywords []string
	Timestamp        time.Time

	// Batch mode only.
	Segments            []SegmentTimestamp
	SegmentsApproximate bool
}

// StreamResponse is the JSON shape emitted once per streamed chunk.
type StreamResponse struct {
	Suspicious       bool     `json:"suspicious"`
	Confidence       float64  `json:"confidence"`
	Reasons          []string `json:"reasons"`
	CurrentTimestamp float64  `json:"current_timestamp"`
	DetectedKeywords []string `json:"detected_keywords"`
}

// BatchResponse is the JSON shape returned by the upload endpoint.
type BatchResponse struct {
	Suspicious            bool               `json:"suspicious"`
	Confidence            float64            `json:"confidence"`
	Reasons               []string           `json:"reasons"`
	DetectedKeywords      []string           `json:"detected_keywords"`
	Timestamps            []SegmentTimestamp `json:"timestamps"`
	TimestampsApproximate bool               `json:"timestamps_approximate"`
}

// StreamResponse converts the result to its streaming wire shape.
func (r AnalysisResult) StreamResponse() StreamResponse {
	return StreamResponse{
		Suspicious:       r.Suspicious,
		Confidence:       r.Confidence,
		Reasons:          nonNil(r.Reasons),
		CurrentTimestamp: unixSeconds(r.Timestamp),
		DetectedKeywords: nonNil(r.DetectedKeywords),
	}
}

// BatchResponse converts the result to its upload wire shape.
func (r AnalysisResult) BatchResponse() BatchResponse {
	segments := r.Segments
	if segments == nil {
		segments = []SegmentTimestamp{}
	}
	return BatchResponse{
		Suspicious:            r.Suspicious,
		Confidence:            r.Confidence,
		Reasons:               nonNil(r.Reasons),
		DetectedKeywords:      nonNil(r.DetectedKeywords),
		Timestamps:            segments,
		TimestampsApproximate: r.SegmentsApproximate,
	}
}

func unixSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.Unix()) + float64(t.Nanosecond())/float64(time.Second)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
