// Package schema checks analysis records against the invariants every consumer
// relies on before they leave the service.
package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Pavankumar07s/Pict-call/internal/models"
	"github.com/Pavankumar07s/Pict-call/internal/service/risk"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("schema validation failed")

// Validator is stateless and safe for concurrent use.
type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// Validate checks a published event: its identifiers for the event type and the
// verdict it carries.
func (v *Validator) Validate(ev models.AnalysisEvent) error {
	var errs []error

	switch ev.EventType {
	case models.EventTypeStreamAnalysis:
		if ev.SessionID == "" {
			errs = append(errs, errors.New("sessionId is required for stream events"))
		}
		if ev.ChunkID == "" {
			errs = append(errs, errors.New("chunkId is required for stream events"))
		}
	case models.EventTypeBatchAnalysis:
		if ev.RequestID == "" {
			errs = append(errs, errors.New("requestId is required for batch events"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown eventType %q", ev.EventType))
	}
	if ev.Timestamp <= 0 {
		errs = append(errs, fmt.Errorf("timestamp must be positive, got %d", ev.Timestamp))
	}

	errs = append(errs, verdict(ev.Suspicious, ev.Confidence, ev.Reasons, ev.DetectedKeywords, ev.Degraded)...)
	return wrap(errs)
}

// ValidateResult checks the verdict fields of a result.
func (v *Validator) ValidateResult(r models.AnalysisResult, degraded bool) error {
	return wrap(verdict(r.Suspicious, r.Confidence, r.Reasons, r.DetectedKeywords, degraded))
}

func verdict(suspicious bool, confidence float64, reasons, keywords []string, degraded bool) []error {
	var errs []error

	if confidence < 0 || confidence > 1 {
		errs = append(errs, fmt.Errorf("confidence %v outside [0,1]", confidence))
	}

	if degraded {
		if suspicious {
			errs = append(errs, errors.New("degraded result must not be suspicious"))
		}
		if confidence != 0 {
			errs = append(errs, fmt.Errorf("degraded result confidence must be 0, got %v", confidence))
		}
		if len(keywords) != 0 {
			errs = append(errs, errors.New("degraded result must carry no keywords"))
		}
		if len(reasons) != 1 || !strings.HasPrefix(reasons[0], "Error: ") {
			errs = append(errs, fmt.Errorf("degraded result must carry exactly one error reason, got %q", reasons))
		}
		return errs
	}

	if suspicious != (len(keywords) > 0) {
		errs = append(errs, fmt.Errorf("suspicious=%v disagrees with %d detected keywords", suspicious, len(keywords)))
	}
	want := risk.ConfidenceClean
	if suspicious {
		want = risk.ConfidenceSuspicious
	}
	if confidence != want {
		errs = append(errs, fmt.Errorf("confidence must be %v, got %v", want, confidence))
	}
	if suspicious != (len(reasons) > 0) {
		errs = append(errs, fmt.Errorf("suspicious=%v disagrees with %d reasons", suspicious, len(reasons)))
	}
	return errs
}

func wrap(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}
