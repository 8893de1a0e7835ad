package grpcapi

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/Pavankumar07s/Pict-call/internal/models"
	"github.com/Pavankumar07s/Pict-call/internal/observability"
	"github.com/Pavankumar07s/Pict-call/internal/observability/metrics"
	"github.com/Pavankumar07s/Pict-call/internal/service/risk"
	"github.com/Pavankumar07s/Pict-call/internal/service/session"
)

// textAnalyzer treats the chunk bytes as the transcript. "bad" fails to decode.
type textAnalyzer struct {
	scorer *risk.Scorer

	mu           sync.Mutex
	contentTypes []string
}

func (a *textAnalyzer) Analyze(_ context.Context, chunk models.AudioChunk) (models.AnalysisResult, models.Transcript, error) {
	a.mu.Lock()
	a.contentTypes = append(a.contentTypes, chunk.ContentType)
	a.mu.Unlock()

	if string(chunk.Data) == "bad" {
		return models.AnalysisResult{}, models.Transcript{}, models.NewDecodeError(errors.New("no strategy succeeded"))
	}
	t := models.Transcript{Text: string(chunk.Data)}
	return a.scorer.Score(t), t, nil
}

type failingRunner struct{ err error }

func (r failingRunner) Run(context.Context, string, session.Transport) (session.Summary, error) {
	return session.Summary{}, r.err
}

func startServer(t *testing.T, sessions Runner) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(
		grpc.StreamInterceptor(observability.StreamServerInterceptor(metrics.DefaultMetrics)),
	)
	Register(srv, sessions)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	cc, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { cc.Close() })
	return cc
}

func TestAnalyze_OneResultPerChunk(t *testing.T) {
	a := &textAnalyzer{scorer: risk.NewScorer()}
	cc := startServer(t, session.NewController(a, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := OpenStream(ctx, cc, "audio/pcm", "grpc-session")
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}

	chunks := []string{"hello", "bad", "share your otp", "fine", "thanks"}
	var results []models.StreamResponse
	for _, c := range chunks {
		if err := stream.SendMsg(wrapperspb.Bytes([]byte(c))); err != nil {
			t.Fatalf("send: %v", err)
		}
		frame := new(structpb.Struct)
		if err := stream.RecvMsg(frame); err != nil {
			t.Fatalf("recv: %v", err)
		}
		results = append(results, FromStruct(frame))
	}
	if err := stream.CloseSend(); err != nil {
		t.Fatalf("close send: %v", err)
	}
	if err := stream.RecvMsg(new(structpb.Struct)); !errors.Is(err, io.EOF) {
		t.Fatalf("expected clean end of stream, got %v", err)
	}

	if len(results) != len(chunks) {
		t.Fatalf("expected %d results, got %d", len(chunks), len(results))
	}
	if results[1].Confidence != 0 || len(results[1].Reasons) != 1 || !strings.HasPrefix(results[1].Reasons[0], "Error: ") {
		t.Errorf("chunk 2: expected degraded result, got %+v", results[1])
	}
	if !results[2].Suspicious || results[2].DetectedKeywords[0] != "otp" {
		t.Errorf("chunk 3: expected otp verdict, got %+v", results[2])
	}
	for _, i := range []int{0, 3, 4} {
		if results[i].Suspicious || results[i].Confidence != 0.15 {
			t.Errorf("chunk %d: expected clean verdict, got %+v", i+1, results[i])
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, ct := range a.contentTypes {
		if ct != "audio/pcm" {
			t.Errorf("expected metadata content type, got %q", ct)
		}
	}
}

func TestAnalyze_ErrorCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"protocol violation", session.ErrProtocolViolation, codes.InvalidArgument},
		{"configuration", models.NewConfigurationError(errors.New("no engine")), codes.Internal},
		{"transport", errors.New("reset"), codes.Unavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cc := startServer(t, failingRunner{err: tt.err})
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			stream, err := OpenStream(ctx, cc, "audio/wav", "")
			if err != nil {
				t.Fatalf("open stream: %v", err)
			}
			err = stream.RecvMsg(new(structpb.Struct))
			if got := status.Code(err); got != tt.want {
				t.Errorf("expected %s, got %s (%v)", tt.want, got, err)
			}
		})
	}
}

func TestToStruct(t *testing.T) {
	in := models.StreamResponse{
		Suspicious:       true,
		Confidence:       0.85,
		Reasons:          []string{"Remote access software mentioned", "Urgency indicators detected"},
		CurrentTimestamp: 1700000000.5,
		DetectedKeywords: []string{"remote", "urgent"},
	}

	s, err := ToStruct(in)
	if err != nil {
		t.Fatalf("ToStruct: %v", err)
	}
	out := FromStruct(s)

	if out.Suspicious != in.Suspicious || out.Confidence != in.Confidence || out.CurrentTimestamp != in.CurrentTimestamp {
		t.Errorf("scalar fields differ: %+v", out)
	}
	if strings.Join(out.Reasons, "|") != strings.Join(in.Reasons, "|") {
		t.Errorf("reasons differ: %v", out.Reasons)
	}
	if strings.Join(out.DetectedKeywords, "|") != "remote|urgent" {
		t.Errorf("keywords differ: %v", out.DetectedKeywords)
	}
}
