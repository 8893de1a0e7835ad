package decode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/Pavankumar07s/Pict-call/internal/models"
	"github.com/Pavankumar07s/Pict-call/internal/scratch"
)

const maxStderrTail = 512

// Runner executes an external program. It exists so tests can stand in for ffmpeg.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs programs with os/exec.
type ExecRunner struct{}

// Run executes name and returns an error carrying the tail of stderr on failure.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > maxStderrTail {
			msg = msg[len(msg)-maxStderrTail:]
		}
		if msg == "" {
			return fmt.Errorf("%s: %w", name, err)
		}
		return fmt.Errorf("%s: %w: %s", name, err, msg)
	}
	return nil
}

// containerFormats maps declared content types to ffmpeg demuxer names.
var containerFormats = map[string]string{
	"audio/wav":    "wav",
	"audio/x-wav":  "wav",
	"audio/wave":   "wav",
	"audio/mpeg":   "mp3",
	"audio/mp3":    "mp3",
	"audio/ogg":    "ogg",
	"audio/flac":   "flac",
	"audio/x-flac": "flac",
	"audio/webm":   "webm",
	"audio/mp4":    "mov",
	"audio/m4a":    "mov",
	"audio/x-m4a":  "mov",
}

// FFmpegStrategy converts the input with an external ffmpeg process. The input format is
// always given explicitly: a container demuxer when the content type names one, otherwise
// raw interleaved s16le at the configured input rate and channel count.
type FFmpegStrategy struct {
	path          string
	outputRate    int
	inputRate     int
	inputChannels int
	timeout       time.Duration
	scratch       *scratch.Dir
	runner        Runner
}

// NewFFmpegStrategy returns the external conversion strategy.
func NewFFmpegStrategy(cfg Config, dir *scratch.Dir, runner Runner) *FFmpegStrategy {
	return &FFmpegStrategy{
		path:          cfg.FFmpegPath,
		outputRate:    cfg.OutputSampleRate,
		inputRate:     cfg.InputSampleRate,
		inputChannels: cfg.InputChannels,
		timeout:       cfg.ProcessTimeout,
		scratch:       dir,
		runner:        runner,
	}
}

func (s *FFmpegStrategy) Name() string { return "ffmpeg" }

// Decode writes the chunk to a scoped temp file, converts it to 16-bit mono PCM at the
// output rate, and reads the result back. Both temp files are removed before returning.
func (s *FFmpegStrategy) Decode(ctx context.Context, chunk models.AudioChunk) (models.PcmBuffer, error) {
	scope := s.scratch.Scope("decode")
	defer scope.Release()

	inPath, err := scope.WriteFile(".in", chunk.Data)
	if err != nil {
		return models.PcmBuffer{}, err
	}
	outPath, err := scope.Reserve(".pcm")
	if err != nil {
		return models.PcmBuffer{}, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := s.runner.Run(ctx, s.path, s.Args(chunk.ContentType, inPath, outPath)...); err != nil {
		return models.PcmBuffer{}, err
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return models.PcmBuffer{}, fmt.Errorf("read ffmpeg output: %w", err)
	}
	if len(data) == 0 {
		return models.PcmBuffer{}, errors.New("ffmpeg produced no output")
	}
	if len(data)%2 != 0 {
		return models.PcmBuffer{}, fmt.Errorf("ffmpeg output is not whole s16 samples (%d bytes)", len(data))
	}

	return models.PcmBuffer{
		SampleRate: s.outputRate,
		Channels:   1,
		Samples:    bytesToSamples(data),
	}, nil
}

// Args builds the ffmpeg command line. Output format flags are always explicit.
func (s *FFmpegStrategy) Args(contentType, inPath, outPath string) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-nostdin", "-y"}

	if format, ok := containerFormats[normalizeContentType(contentType)]; ok {
		args = append(args, "-f", format)
	} else {
		args = append(args,
			"-f", "s16le",
			"-ar", strconv.Itoa(s.inputRate),
			"-ac", strconv.Itoa(s.inputChannels),
		)
	}

	return append(args,
		"-i", inPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(s.outputRate),
		"-ac", "1",
		"-f", "s16le",
		outPath,
	)
}

func normalizeContentType(contentType string) string {
	ct, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(ct))
}
