package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Pavankumar07s/Pict-call/internal/models"
)

// Providers lists the accepted STT provider names.
var Providers = []string{"mock", "google", "whisper", "whisper-native"}

// MatchModes lists the accepted keyword matching policies.
var MatchModes = []string{"substring", "token"}

// Config holds all service configuration.
type Config struct {
	Service       ServiceConfig       `yaml:"service"`
	Decoder       DecoderConfig       `yaml:"decoder"`
	STT           STTConfig           `yaml:"stt"`
	Risk          RiskConfig          `yaml:"risk"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	Limits        LimitsConfig        `yaml:"limits"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServiceConfig holds service identity and listener configuration.
type ServiceConfig struct {
	Principal   string `yaml:"principal"`
	HTTPAddr    string `yaml:"http_addr"`
	GRPCPort    string `yaml:"grpc_port"`
	MetricsAddr string `yaml:"metrics_addr"`
	Environment string `yaml:"environment"`
}

// DecoderConfig describes the external converter and the expected format of
// headerless stream chunks.
type DecoderConfig struct {
	FFmpegPath       string        `yaml:"ffmpeg_path"`
	OutputSampleRate int           `yaml:"output_sample_rate"`
	InputSampleRate  int           `yaml:"input_sample_rate"`
	InputChannels    int           `yaml:"input_channels"`
	ReferencePeak    int           `yaml:"reference_peak"`
	TempDir          string        `yaml:"temp_dir"`
	ProcessTimeout   time.Duration `yaml:"process_timeout"`
}

// STTConfig holds speech-to-text configuration.
type STTConfig struct {
	Provider         string `yaml:"provider"` // mock, google, whisper, whisper-native
	LanguageCode     string `yaml:"language_code"`
	Model            string `yaml:"model"`
	WhisperURL       string `yaml:"whisper_url"`
	WhisperModelPath string `yaml:"whisper_model_path"`
}

// RiskConfig holds keyword scoring policy.
type RiskConfig struct {
	MatchMode     string   `yaml:"match_mode"` // substring, token
	ExtraKeywords []string `yaml:"extra_keywords"`
}

// KafkaConfig holds Kafka publisher configuration.
type KafkaConfig struct {
	Enabled     bool     `yaml:"enabled"`
	Brokers     []string `yaml:"brokers"`
	TopicStream string   `yaml:"topic_stream"`
	TopicBatch  string   `yaml:"topic_batch"`
	Principal   string   `yaml:"principal"`
}

// LimitsConfig bounds request sizes.
type LimitsConfig struct {
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
	MaxChunkBytes  int64 `yaml:"max_chunk_bytes"`
}

// ObservabilityConfig holds logging configuration.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the configuration used when neither a file nor env vars override it.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			Principal:   "svc-pict-call",
			HTTPAddr:    ":8000",
			GRPCPort:    "50051",
			MetricsAddr: ":9090",
			Environment: "prod",
		},
		Decoder: DecoderConfig{
			FFmpegPath:       "ffmpeg",
			OutputSampleRate: 16000,
			InputSampleRate:  24000,
			InputChannels:    1,
			ReferencePeak:    29491,
			TempDir:          os.TempDir(),
			ProcessTimeout:   30 * time.Second,
		},
		STT: STTConfig{
			Provider:     "mock",
			LanguageCode: "en-US",
			WhisperURL:   "http://localhost:8080",
		},
		Risk: RiskConfig{
			MatchMode: "substring",
		},
		Kafka: KafkaConfig{
			Brokers:     []string{"localhost:9092"},
			TopicStream: "pict-call.analysis.stream",
			TopicBatch:  "pict-call.analysis.batch",
		},
		Limits: LimitsConfig{
			MaxUploadBytes: 25 * 1024 * 1024,
			MaxChunkBytes:  10 * 1024 * 1024,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file named by
// CONFIG_FILE, and environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("config: decode %q: %w", path, err)
	}
	return nil
}

// applyEnv overlays environment variables. Malformed values for the stream
// input format are rejected; other malformed values keep the current setting.
func applyEnv(cfg *Config) error {
	var errs []error

	cfg.Service.Principal = envOrDefault("SERVICE_PRINCIPAL", cfg.Service.Principal)
	cfg.Service.HTTPAddr = envOrDefault("HTTP_ADDR", cfg.Service.HTTPAddr)
	cfg.Service.GRPCPort = envOrDefault("GRPC_PORT", cfg.Service.GRPCPort)
	cfg.Service.MetricsAddr = envOrDefault("METRICS_ADDR", cfg.Service.MetricsAddr)
	cfg.Service.Environment = envOrDefault("ENV", cfg.Service.Environment)

	cfg.Decoder.FFmpegPath = envOrDefault("FFMPEG_PATH", cfg.Decoder.FFmpegPath)
	cfg.Decoder.OutputSampleRate = envInt("DECODER_OUTPUT_SAMPLE_RATE", cfg.Decoder.OutputSampleRate, &errs)
	cfg.Decoder.InputSampleRate = envInt("DECODER_INPUT_SAMPLE_RATE", cfg.Decoder.InputSampleRate, &errs)
	cfg.Decoder.InputChannels = envInt("DECODER_INPUT_CHANNELS", cfg.Decoder.InputChannels, &errs)
	cfg.Decoder.ReferencePeak = envInt("DECODER_REFERENCE_PEAK", cfg.Decoder.ReferencePeak, &errs)
	cfg.Decoder.TempDir = envOrDefault("DECODER_TEMP_DIR", cfg.Decoder.TempDir)
	cfg.Decoder.ProcessTimeout = envOrDefaultDuration("DECODER_PROCESS_TIMEOUT", cfg.Decoder.ProcessTimeout)

	cfg.STT.Provider = envOrDefault("STT_PROVIDER", cfg.STT.Provider)
	cfg.STT.LanguageCode = envOrDefault("STT_LANGUAGE_CODE", cfg.STT.LanguageCode)
	cfg.STT.Model = envOrDefault("STT_MODEL", cfg.STT.Model)
	cfg.STT.WhisperURL = envOrDefault("STT_WHISPER_URL", cfg.STT.WhisperURL)
	cfg.STT.WhisperModelPath = envOrDefault("STT_WHISPER_MODEL_PATH", cfg.STT.WhisperModelPath)

	cfg.Risk.MatchMode = envOrDefault("RISK_MATCH_MODE", cfg.Risk.MatchMode)
	cfg.Risk.ExtraKeywords = envOrDefaultList("RISK_EXTRA_KEYWORDS", cfg.Risk.ExtraKeywords)

	cfg.Kafka.Enabled = envOrDefaultBool("KAFKA_ENABLED", cfg.Kafka.Enabled)
	cfg.Kafka.Brokers = envOrDefaultList("KAFKA_BROKERS", cfg.Kafka.Brokers)
	cfg.Kafka.TopicStream = envOrDefault("KAFKA_TOPIC_STREAM", cfg.Kafka.TopicStream)
	cfg.Kafka.TopicBatch = envOrDefault("KAFKA_TOPIC_BATCH", cfg.Kafka.TopicBatch)
	cfg.Kafka.Principal = envOrDefault("KAFKA_PRINCIPAL", cfg.Kafka.Principal)
	if cfg.Kafka.Principal == "" {
		cfg.Kafka.Principal = cfg.Service.Principal
	}

	cfg.Limits.MaxUploadBytes = envOrDefaultInt64("MAX_UPLOAD_BYTES", cfg.Limits.MaxUploadBytes)
	cfg.Limits.MaxChunkBytes = envOrDefaultInt64("MAX_CHUNK_BYTES", cfg.Limits.MaxChunkBytes)

	cfg.Observability.LogLevel = envOrDefault("LOG_LEVEL", cfg.Observability.LogLevel)
	cfg.Observability.LogFormat = envOrDefault("LOG_FORMAT", cfg.Observability.LogFormat)

	if len(errs) > 0 {
		return models.NewConfigurationError(errors.Join(errs...))
	}
	return nil
}

// Validate checks the configuration. Any failure is a models.ErrConfiguration
// listing every problem found.
func (c *Config) Validate() error {
	var errs []error

	if c.Decoder.InputSampleRate <= 0 {
		errs = append(errs, fmt.Errorf("decoder.input_sample_rate must be positive, got %d", c.Decoder.InputSampleRate))
	}
	if c.Decoder.InputChannels <= 0 {
		errs = append(errs, fmt.Errorf("decoder.input_channels must be positive, got %d", c.Decoder.InputChannels))
	}
	if c.Decoder.OutputSampleRate <= 0 {
		errs = append(errs, fmt.Errorf("decoder.output_sample_rate must be positive, got %d", c.Decoder.OutputSampleRate))
	}
	if c.Decoder.ReferencePeak <= 0 || c.Decoder.ReferencePeak > 32767 {
		errs = append(errs, fmt.Errorf("decoder.reference_peak must be in (0, 32767], got %d", c.Decoder.ReferencePeak))
	}
	if !slices.Contains(Providers, c.STT.Provider) {
		errs = append(errs, fmt.Errorf("stt.provider %q is invalid; valid values: %s", c.STT.Provider, strings.Join(Providers, ", ")))
	}
	if c.STT.Provider == "whisper" && c.STT.WhisperURL == "" {
		errs = append(errs, errors.New("stt.whisper_url is required for provider whisper"))
	}
	if c.STT.Provider == "whisper-native" && c.STT.WhisperModelPath == "" {
		errs = append(errs, errors.New("stt.whisper_model_path is required for provider whisper-native"))
	}
	if !slices.Contains(MatchModes, c.Risk.MatchMode) {
		errs = append(errs, fmt.Errorf("risk.match_mode %q is invalid; valid values: %s", c.Risk.MatchMode, strings.Join(MatchModes, ", ")))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("kafka.brokers must not be empty when kafka is enabled"))
	}
	if c.Limits.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("limits.max_upload_bytes must be positive, got %d", c.Limits.MaxUploadBytes))
	}
	if c.Limits.MaxChunkBytes <= 0 {
		errs = append(errs, fmt.Errorf("limits.max_chunk_bytes must be positive, got %d", c.Limits.MaxChunkBytes))
	}

	if len(errs) > 0 {
		return models.NewConfigurationError(errors.Join(errs...))
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envInt reads an integer setting that must not silently fall back to def when
// malformed.
func envInt(key string, def int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return def
	}
	return i
}

func envOrDefaultInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// envOrDefaultList splits a comma-separated value, dropping empty entries.
func envOrDefaultList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
