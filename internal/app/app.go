package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Pavankumar07s/Pict-call/internal/config"
	"github.com/Pavankumar07s/Pict-call/internal/events"
	"github.com/Pavankumar07s/Pict-call/internal/models"
	"github.com/Pavankumar07s/Pict-call/internal/observability/logging"
	"github.com/Pavankumar07s/Pict-call/internal/scratch"
	"github.com/Pavankumar07s/Pict-call/internal/service/batch"
	"github.com/Pavankumar07s/Pict-call/internal/service/decode"
	"github.com/Pavankumar07s/Pict-call/internal/service/pipeline"
	"github.com/Pavankumar07s/Pict-call/internal/service/risk"
	"github.com/Pavankumar07s/Pict-call/internal/service/session"
	"github.com/Pavankumar07s/Pict-call/internal/service/stt"
	"github.com/Pavankumar07s/Pict-call/internal/service/stt/google"
	"github.com/Pavankumar07s/Pict-call/internal/service/stt/mock"
	"github.com/Pavankumar07s/Pict-call/internal/service/stt/whisper"
)

// Application holds process-wide state for the service: the configuration and the
// single shared pipeline every transport feeds.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Config

	Scratch   *scratch.Dir
	Pipeline  *pipeline.Pipeline
	Publisher *events.Publisher
	Sessions  *session.Controller
	Batch     *batch.Controller

	engine stt.Engine
	ready  atomic.Bool
}

// New constructs a new Application from the provided configuration.
func New(cfg *config.Config) *Application {
	a := &Application{
		Cfg: cfg,
	}
	a.setupLogger()

	a.Logger.Info().
		Str("method", "New").
		Msg("Pict-call application created")
	return a
}

// setupLogger configures zerolog for the service.
func (a *Application) setupLogger() {
	format := a.Cfg.Observability.LogFormat
	if a.Cfg.Service.Environment == "dev" {
		format = "console"
	}
	logging.Init(logging.Config{
		Level:      strings.ToLower(a.Cfg.Observability.LogLevel),
		Format:     format,
		TimeFormat: time.RFC3339,
	})

	a.Logger = logging.WithComponent("application").With().
		Str("service", "pict-call").
		Logger()

	a.Logger.Info().
		Str("logLevel", zerolog.GlobalLevel().String()).
		Str("environment", a.Cfg.Service.Environment).
		Msg("Logger setup completed")
}

// Build validates the configuration and constructs every component. Any
// returned error is a models.ErrConfiguration and is fatal.
func (a *Application) Build(ctx context.Context) error {
	if err := a.Cfg.Validate(); err != nil {
		return err
	}

	a.Scratch = scratch.New(a.Cfg.Decoder.TempDir)

	decoder, err := decode.New(decoderConfig(a.Cfg.Decoder), a.Scratch)
	if err != nil {
		return err
	}

	engine, err := NewEngine(ctx, a.Cfg.STT)
	if err != nil {
		return err
	}
	a.engine = engine

	scorer, err := newScorer(a.Cfg.Risk)
	if err != nil {
		return err
	}

	a.Pipeline = pipeline.New(
		decoder,
		stt.New(engine, a.Scratch),
		scorer,
		pipeline.Limits{MaxChunkBytes: a.Cfg.Limits.MaxChunkBytes},
	)

	a.Publisher = events.New(&events.Config{
		Enabled:     a.Cfg.Kafka.Enabled,
		Brokers:     a.Cfg.Kafka.Brokers,
		TopicStream: a.Cfg.Kafka.TopicStream,
		TopicBatch:  a.Cfg.Kafka.TopicBatch,
		Principal:   a.Cfg.Kafka.Principal,
	})

	a.Sessions = session.NewController(a.Pipeline, a.Publisher)
	a.Batch = batch.NewController(a.Pipeline, a.Publisher)

	a.Logger.Info().
		Str("method", "Build").
		Str("provider", engine.Name()).
		Strs("decodeStrategies", decoder.Strategies()).
		Str("matchMode", string(scorer.Mode())).
		Int("keywords", len(scorer.Keywords())).
		Msg("Pipeline assembled")
	return nil
}

// Start performs any startup work required before serving traffic.
func (a *Application) Start() error {
	if a.Pipeline == nil {
		return errors.New("application not built")
	}
	a.StartupTime = time.Now().UTC()
	a.ready.Store(true)

	a.Logger.Info().
		Str("method", "Start").
		Time("startupTime", a.StartupTime).
		Msg("Pict-call service starting")
	return nil
}

// Ready reports whether the service accepts traffic.
func (a *Application) Ready() bool {
	return a.ready.Load()
}

// Shutdown marks the service not ready and releases the engine and publisher.
func (a *Application) Shutdown() {
	logger := a.Logger.With().Str("method", "Shutdown").Logger()
	a.ready.Store(false)

	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close event publisher")
		}
	}
	if c, ok := a.engine.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close STT engine")
		}
	}
	if a.Scratch != nil && a.Scratch.Live() > 0 {
		logger.Warn().Int64("liveTempFiles", a.Scratch.Live()).Msg("Temporary files still live at shutdown")
	}

	logger.Info().Msg("Pict-call service shutting down")
}

// NewEngine creates the shared speech-to-text engine for the configured provider.
func NewEngine(ctx context.Context, cfg config.STTConfig) (stt.Engine, error) {
	switch cfg.Provider {
	case "mock":
		return mock.New(), nil
	case "google":
		gcfg := google.DefaultConfig()
		if cfg.LanguageCode != "" {
			gcfg.LanguageCode = cfg.LanguageCode
		}
		gcfg.Model = cfg.Model
		e, err := google.New(ctx, gcfg)
		if err != nil {
			return nil, models.NewConfigurationError(err)
		}
		return e, nil
	case "whisper":
		e, err := whisper.NewServer(cfg.WhisperURL,
			whisper.WithModel(cfg.Model),
			whisper.WithLanguage(language(cfg.LanguageCode)),
		)
		if err != nil {
			return nil, models.NewConfigurationError(err)
		}
		return e, nil
	case "whisper-native":
		e, err := whisper.NewNative(cfg.WhisperModelPath, language(cfg.LanguageCode))
		if err != nil {
			return nil, models.NewConfigurationError(err)
		}
		return e, nil
	default:
		return nil, models.NewConfigurationError(fmt.Errorf("unknown STT provider %q", cfg.Provider))
	}
}

// language reduces a BCP-47 tag to the two-letter code whisper expects.
func language(code string) string {
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	return strings.ToLower(code)
}

func decoderConfig(c config.DecoderConfig) decode.Config {
	return decode.Config{
		FFmpegPath:       c.FFmpegPath,
		OutputSampleRate: c.OutputSampleRate,
		InputSampleRate:  c.InputSampleRate,
		InputChannels:    c.InputChannels,
		ReferencePeak:    int16(c.ReferencePeak),
		ProcessTimeout:   c.ProcessTimeout,
	}
}

// newScorer builds the scorer. Extra keywords are "phrase" or "phrase:category";
// an omitted category is generic.
func newScorer(c config.RiskConfig) (*risk.Scorer, error) {
	mode, err := risk.ParseMatchMode(c.MatchMode)
	if err != nil {
		return nil, models.NewConfigurationError(err)
	}

	extra := make([]risk.Keyword, 0, len(c.ExtraKeywords))
	for _, entry := range c.ExtraKeywords {
		text, category := entry, models.CategoryGeneric
		if i := strings.LastIndex(entry, ":"); i >= 0 {
			parsed, err := risk.ParseCategory(strings.TrimSpace(entry[i+1:]))
			if err != nil {
				return nil, models.NewConfigurationError(fmt.Errorf("extra keyword %q: %w", entry, err))
			}
			text, category = entry[:i], parsed
		}
		extra = append(extra, risk.Keyword{Text: text, Category: category})
	}

	return risk.NewScorer(risk.WithMatchMode(mode), risk.WithExtraKeywords(extra...)), nil
}
