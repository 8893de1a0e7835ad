// Package grpcapi exposes the session controller as a bidirectional gRPC stream.
//
// The service has no generated stubs. Each inbound frame is a BytesValue holding
// one raw audio chunk and each outbound frame is a Struct with the streaming
// result fields:
//
//	service RiskStream {
//	  rpc Analyze(stream google.protobuf.BytesValue) returns (stream google.protobuf.Struct);
//	}
//
// The chunk content type and an optional session id travel as request metadata.
package grpcapi

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/Pavankumar07s/Pict-call/internal/models"
	"github.com/Pavankumar07s/Pict-call/internal/service/session"
)

const (
	ServiceName = "pictcall.v1.RiskStream"
	MethodName  = "Analyze"

	// FullMethod is the path clients open streams on.
	FullMethod = "/" + ServiceName + "/" + MethodName

	// Metadata keys.
	ContentTypeKey = "x-audio-content-type"
	SessionIDKey   = "x-session-id"
)

// StreamServer is implemented by Server; it exists for the service descriptor.
type StreamServer interface {
	Analyze(stream grpc.ServerStream) error
}

// ServiceDesc describes the RiskStream service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StreamServer)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    MethodName,
			Handler:       analyzeHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "pictcall/v1/risk_stream.proto",
}

func analyzeHandler(srv any, stream grpc.ServerStream) error {
	return srv.(StreamServer).Analyze(stream)
}

// Runner runs one session over a transport.
type Runner interface {
	Run(ctx context.Context, sessionID string, t session.Transport) (session.Summary, error)
}

type Server struct {
	sessions Runner
}

// Register adds the RiskStream service to g.
func Register(g *grpc.Server, sessions Runner) {
	g.RegisterService(&ServiceDesc, &Server{sessions: sessions})
}

// Analyze serves one stream as one session.
func (s *Server) Analyze(stream grpc.ServerStream) error {
	md, _ := metadata.FromIncomingContext(stream.Context())
	sessionID := first(md, SessionIDKey)
	if sessionID == "" {
		sessionID = session.NewID()
	}

	t := &transport{stream: stream, contentType: first(md, ContentTypeKey)}
	_, err := s.sessions.Run(stream.Context(), sessionID, t)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, session.ErrProtocolViolation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, models.ErrConfiguration):
		return status.Error(codes.Internal, err.Error())
	default:
		return status.Error(codes.Unavailable, err.Error())
	}
}

func first(md metadata.MD, key string) string {
	if v := md.Get(key); len(v) > 0 {
		return v[0]
	}
	return ""
}

// transport adapts a server stream to session.Transport. RecvMsg and SendMsg are
// each called from the session goroutine only.
type transport struct {
	stream      grpc.ServerStream
	contentType string
}

func (t *transport) Name() string { return "grpc" }

func (t *transport) Receive(_ context.Context) (session.Message, error) {
	frame := new(wrapperspb.BytesValue)
	if err := t.stream.RecvMsg(frame); err != nil {
		if errors.Is(err, io.EOF) {
			return session.Message{}, io.EOF
		}
		return session.Message{}, err
	}
	return session.Message{
		Payload:     frame.GetValue(),
		Encoding:    session.EncodingRaw,
		ContentType: t.contentType,
	}, nil
}

func (t *transport) Send(_ context.Context, result models.AnalysisResult) error {
	frame, err := ToStruct(result.StreamResponse())
	if err != nil {
		return err
	}
	return t.stream.SendMsg(frame)
}

func (t *transport) Done() <-chan struct{} {
	return t.stream.Context().Done()
}

// ToStruct converts a streaming result to its wire frame.
func ToStruct(r models.StreamResponse) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"suspicious":        r.Suspicious,
		"confidence":        r.Confidence,
		"reasons":           toList(r.Reasons),
		"current_timestamp": r.CurrentTimestamp,
		"detected_keywords": toList(r.DetectedKeywords),
	})
}

// FromStruct converts a wire frame back to a streaming result.
func FromStruct(s *structpb.Struct) models.StreamResponse {
	f := s.GetFields()
	return models.StreamResponse{
		Suspicious:       f["suspicious"].GetBoolValue(),
		Confidence:       f["confidence"].GetNumberValue(),
		Reasons:          fromList(f["reasons"]),
		CurrentTimestamp: f["current_timestamp"].GetNumberValue(),
		DetectedKeywords: fromList(f["detected_keywords"]),
	}
}

func toList(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

func fromList(v *structpb.Value) []string {
	values := v.GetListValue().GetValues()
	out := make([]string, 0, len(values))
	for _, item := range values {
		out = append(out, item.GetStringValue())
	}
	return out
}

// OpenStream opens an Analyze stream on cc. Each chunk is sent as a BytesValue and
// each result arrives as a Struct.
func OpenStream(ctx context.Context, cc grpc.ClientConnInterface, contentType, sessionID string) (grpc.ClientStream, error) {
	pairs := []string{ContentTypeKey, contentType}
	if sessionID != "" {
		pairs = append(pairs, SessionIDKey, sessionID)
	}
	ctx = metadata.AppendToOutgoingContext(ctx, pairs...)
	return cc.NewStream(ctx, &ServiceDesc.Streams[0], FullMethod)
}
