// Package decode turns arbitrary audio bytes into mono 16-bit PCM.
//
// Decoding is an ordered list of strategies tried until one yields samples:
//
//	wav    -> self-describing container at its native sample rate
//	ffmpeg -> external conversion to 16 kHz mono s16le from an explicit input format
//	raw    -> the original bytes read as s16le at the configured input rate
//
// The first non-empty result is resampled to the output rate, peak-normalized and
// returned. When every strategy fails the caller receives a models.ErrDecode
// carrying each strategy's cause.
package decode

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/Pavankumar07s/Pict-call/internal/models"
	"github.com/Pavankumar07s/Pict-call/internal/observability/logging"
	"github.com/Pavankumar07s/Pict-call/internal/observability/metrics"
	"github.com/Pavankumar07s/Pict-call/internal/scratch"
)

// DefaultReferencePeak is 90% of 16-bit full scale.
const DefaultReferencePeak int16 = 29491

var (
	errEmptyInput   = errors.New("empty audio buffer")
	errEmptyOutput  = errors.New("strategy produced zero samples")
	errNoStrategies = errors.New("no decode strategies configured")
)

// Strategy is one way of turning bytes into samples.
type Strategy interface {
	Name() string
	Decode(ctx context.Context, chunk models.AudioChunk) (models.PcmBuffer, error)
}

// Config holds the decoder settings. The input sample rate and channel count describe
// headerless chunks and are fixed per deployment; they are never negotiated per chunk.
type Config struct {
	FFmpegPath       string
	OutputSampleRate int
	InputSampleRate  int
	InputChannels    int
	ReferencePeak    int16
	ProcessTimeout   time.Duration
}

// DefaultConfig returns the settings used for live-stream chunks.
func DefaultConfig() Config {
	return Config{
		FFmpegPath:       "ffmpeg",
		OutputSampleRate: 16000,
		InputSampleRate:  24000,
		InputChannels:    1,
		ReferencePeak:    DefaultReferencePeak,
		ProcessTimeout:   30 * time.Second,
	}
}

// Validate reports a configuration error when headerless chunks could not be interpreted.
func (c Config) Validate() error {
	var errs []error
	if c.InputSampleRate <= 0 {
		errs = append(errs, fmt.Errorf("input sample rate must be positive, got %d", c.InputSampleRate))
	}
	if c.InputChannels <= 0 {
		errs = append(errs, fmt.Errorf("input channel count must be positive, got %d", c.InputChannels))
	}
	if c.OutputSampleRate <= 0 {
		errs = append(errs, fmt.Errorf("output sample rate must be positive, got %d", c.OutputSampleRate))
	}
	if c.ReferencePeak <= 0 {
		errs = append(errs, fmt.Errorf("reference peak must be positive, got %d", c.ReferencePeak))
	}
	if c.FFmpegPath == "" {
		errs = append(errs, errors.New("ffmpeg path must not be empty"))
	}
	if len(errs) > 0 {
		return models.NewConfigurationError(errors.Join(errs...))
	}
	return nil
}

// Decoder runs the strategy chain. It holds no per-call state and is safe for
// concurrent use.
type Decoder struct {
	strategies []Strategy
	peak       int16
	rate       int
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

// New builds the default wav -> ffmpeg -> raw chain.
func New(cfg Config, dir *scratch.Dir) (*Decoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := NewWithStrategies(cfg.ReferencePeak,
		NewWAVStrategy(),
		NewFFmpegStrategy(cfg, dir, ExecRunner{}),
		NewRawStrategy(cfg.InputSampleRate, cfg.InputChannels),
	)
	return d.WithOutputRate(cfg.OutputSampleRate), nil
}

// NewWithStrategies builds a decoder from an explicit chain. Its output keeps the
// sample rate of whichever strategy succeeded until WithOutputRate is set.
func NewWithStrategies(peak int16, strategies ...Strategy) *Decoder {
	return &Decoder{
		strategies: strategies,
		peak:       peak,
		logger:     logging.WithComponent("decoder"),
		metrics:    metrics.DefaultMetrics,
	}
}

// WithOutputRate makes every decoded buffer come out at rate.
func (d *Decoder) WithOutputRate(rate int) *Decoder {
	d.rate = rate
	return d
}

// OutputRate returns the fixed output sample rate, or 0 when buffers keep their
// decoded rate.
func (d *Decoder) OutputRate() int {
	return d.rate
}

// Strategies returns the names of the configured strategies in order.
func (d *Decoder) Strategies() []string {
	names := make([]string, len(d.strategies))
	for i, s := range d.strategies {
		names[i] = s.Name()
	}
	return names
}

// Decode runs the chain and returns the first non-empty, normalized buffer.
func (d *Decoder) Decode(ctx context.Context, chunk models.AudioChunk) (models.PcmBuffer, error) {
	start := time.Now()
	defer func() { d.metrics.RecordDecodeLatency(time.Since(start).Seconds()) }()

	if len(chunk.Data) == 0 {
		return models.PcmBuffer{}, models.NewDecodeError(errEmptyInput)
	}
	if len(d.strategies) == 0 {
		return models.PcmBuffer{}, models.NewDecodeError(errNoStrategies)
	}

	var result *multierror.Error
	for _, s := range d.strategies {
		pcm, err := s.Decode(ctx, chunk)
		if err == nil && pcm.Empty() {
			err = errEmptyOutput
		}
		d.metrics.RecordDecodeAttempt(s.Name(), err)

		if err == nil {
			d.logger.Debug().
				Str("strategy", s.Name()).
				Int("sampleRate", pcm.SampleRate).
				Int("samples", len(pcm.Samples)).
				Msg("Audio decoded")
			return Normalize(Resample(pcm, d.rate), d.peak), nil
		}

		d.logger.Debug().Err(err).Str("strategy", s.Name()).Msg("Decode strategy failed, trying next")
		result = multierror.Append(result, fmt.Errorf("%s: %w", s.Name(), err))
		result.ErrorFormat = joinErrors
	}

	return models.PcmBuffer{}, models.NewDecodeError(result.ErrorOrNil())
}

func joinErrors(errs []error) string {
	parts := make([]string, len(errs))
	for i, err := range errs {
		parts[i] = err.Error()
	}
	return strings.Join(parts, "; ")
}
