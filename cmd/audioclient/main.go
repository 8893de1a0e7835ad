// Command audioclient streams a WAV file to the service in fixed-length chunks over
// WebSocket or gRPC and prints one verdict per chunk.
package main

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	grpcapi "github.com/Pavankumar07s/Pict-call/internal/api/grpc"
	"github.com/Pavankumar07s/Pict-call/internal/models"
	"github.com/Pavankumar07s/Pict-call/internal/scratch"
	"github.com/Pavankumar07s/Pict-call/internal/service/decode"
)

// streamer sends one chunk and waits for its verdict.
type streamer interface {
	Send(ctx context.Context, payload []byte) (models.StreamResponse, error)
	Close() error
}

func main() {
	audioFile := flag.String("audio", "testdata/call.wav", "Path to a PCM WAV file")
	transport := flag.String("transport", "ws", "ws or grpc")
	addr := flag.String("addr", "", "Server address (default localhost:8000 for ws, localhost:50051 for grpc)")
	chunkLen := flag.Duration("chunk", 3*time.Second, "Audio per chunk")
	raw := flag.Bool("raw", false, "Send headerless s16le instead of one WAV per chunk")
	realtime := flag.Bool("realtime", false, "Pace chunks at their audio duration")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	data, err := os.ReadFile(*audioFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read audio file")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pcm, err := decode.NewWAVStrategy().Decode(ctx, models.AudioChunk{Data: data, ContentType: models.ContentTypeWAV})
	if err != nil {
		log.Fatal().Err(err).Msg("Not a PCM WAV file")
	}
	log.Info().
		Int("sampleRate", pcm.SampleRate).
		Dur("duration", pcm.Duration()).
		Msg("Loaded audio")

	contentType := models.ContentTypeWAV
	if *raw {
		contentType = models.ContentTypePCM
	}

	var s streamer
	switch *transport {
	case "ws":
		s, err = dialWS(orDefault(*addr, "localhost:8000"), contentType)
	case "grpc":
		s, err = dialGRPC(ctx, orDefault(*addr, "localhost:50051"), contentType)
	default:
		err = fmt.Errorf("unknown transport %q", *transport)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect")
	}
	defer s.Close()

	dir := scratch.New("")
	perChunk := int(chunkLen.Seconds() * float64(pcm.SampleRate))
	if perChunk <= 0 {
		log.Fatal().Dur("chunk", *chunkLen).Msg("Chunk length too short")
	}

	suspicious := 0
	for n, start := 1, 0; start < len(pcm.Samples); n, start = n+1, start+perChunk {
		end := min(start+perChunk, len(pcm.Samples))
		part := models.PcmBuffer{SampleRate: pcm.SampleRate, Channels: 1, Samples: pcm.Samples[start:end]}

		var payload []byte
		if *raw {
			payload = s16le(part.Samples)
		} else if payload, err = wavBytes(dir, part); err != nil {
			log.Fatal().Err(err).Msg("Failed to encode chunk")
		}

		sent := time.Now()
		resp, err := s.Send(ctx, payload)
		if err != nil {
			log.Fatal().Err(err).Int("chunk", n).Msg("Stream failed")
		}
		if resp.Suspicious {
			suspicious++
		}
		log.Info().
			Int("chunk", n).
			Bool("suspicious", resp.Suspicious).
			Float64("confidence", resp.Confidence).
			Strs("reasons", resp.Reasons).
			Strs("keywords", resp.DetectedKeywords).
			Dur("latency", time.Since(sent)).
			Msg("Verdict")

		if *realtime {
			time.Sleep(part.Duration() - time.Since(sent))
		}
	}

	log.Info().Int("suspiciousChunks", suspicious).Msg("Finished streaming")
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func s16le(samples []int16) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(s))
	}
	return out
}

// wavBytes encodes a chunk as a standalone WAV file. The encoder needs to seek
// back to patch the header, so it goes through a scratch file.
func wavBytes(dir *scratch.Dir, pcm models.PcmBuffer) ([]byte, error) {
	scope := dir.Scope("audioclient")
	defer scope.Release()

	f, err := scope.Create(".wav")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := decode.WriteWAV(f, pcm); err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return io.ReadAll(f)
}

type wsStreamer struct {
	conn *websocket.Conn
}

func dialWS(addr, contentType string) (*wsStreamer, error) {
	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws", RawQuery: url.Values{"content_type": {contentType}}.Encode()}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, err
	}
	log.Info().Str("url", u.String()).Msg("Connected")
	return &wsStreamer{conn: conn}, nil
}

func (w *wsStreamer) Send(_ context.Context, payload []byte) (models.StreamResponse, error) {
	text := base64.StdEncoding.EncodeToString(payload)
	if err := w.conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		return models.StreamResponse{}, err
	}
	var resp models.StreamResponse
	err := w.conn.ReadJSON(&resp)
	return resp, err
}

func (w *wsStreamer) Close() error {
	_ = w.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return w.conn.Close()
}

type grpcStreamer struct {
	conn   *grpc.ClientConn
	stream grpc.ClientStream
}

func dialGRPC(ctx context.Context, addr, contentType string) (*grpcStreamer, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	stream, err := grpcapi.OpenStream(ctx, conn, contentType, "")
	if err != nil {
		conn.Close()
		return nil, err
	}
	log.Info().Str("addr", addr).Msg("Connected")
	return &grpcStreamer{conn: conn, stream: stream}, nil
}

func (g *grpcStreamer) Send(_ context.Context, payload []byte) (models.StreamResponse, error) {
	if err := g.stream.SendMsg(wrapperspb.Bytes(payload)); err != nil {
		return models.StreamResponse{}, err
	}
	frame := new(structpb.Struct)
	if err := g.stream.RecvMsg(frame); err != nil {
		return models.StreamResponse{}, err
	}
	return grpcapi.FromStruct(frame), nil
}

func (g *grpcStreamer) Close() error {
	_ = g.stream.CloseSend()
	return g.conn.Close()
}
