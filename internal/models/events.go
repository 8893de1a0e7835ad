package models

// Event types published to Kafka.
const (
	EventTypeStreamAnalysis = "call.analysis.stream"
	EventTypeBatchAnalysis  = "call.analysis.batch"
)

// AnalysisEvent is the record published for every produced verdict.
type AnalysisEvent struct {
	EventType        string   `json:"eventType"`
	SessionID        string   `json:"sessionId,omitempty"`
	ChunkID          string   `json:"chunkId,omitempty"`
	RequestID        string   `json:"requestId,omitempty"`
	Transcript       string   `json:"transcript"`
	Suspicious       bool     `json:"suspicious"`
	Confidence       float64  `json:"confidence"`
	Reasons          []string `json:"reasons"`
	DetectedKeywords []string `json:"detectedKeywords"`
	Degraded         bool     `json:"degraded"`
	Timestamp        int64    `json:"timestamp"`
}

// Event builds the published record for a result. Identifiers are filled in by the caller.
func (r AnalysisResult) Event(eventType, transcript string, degraded bool) AnalysisEvent {
	return AnalysisEvent{
		EventType:        eventType,
		Transcript:       transcript,
		Suspicious:       r.Suspicious,
		Confidence:       r.Confidence,
		Reasons:          nonNil(r.Reasons),
		DetectedKeywords: nonNil(r.DetectedKeywords),
		Degraded:         degraded,
		Timestamp:        r.Timestamp.UnixMilli(),
	}
}
