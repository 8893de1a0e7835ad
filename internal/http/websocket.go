package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Pavankumar07s/Pict-call/internal/models"
	"github.com/Pavankumar07s/Pict-call/internal/service/session"
)

const (
	pongWait   = 70 * time.Second
	pingPeriod = 25 * time.Second
	writeWait  = 10 * time.Second

	// maxCloseText keeps close frames within the 125-byte control frame limit.
	maxCloseText = 120

	// defaultStreamContentType describes binary frames sent without a content_type.
	defaultStreamContentType = "audio/pcm"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// stream handles GET /ws. Text frames carry base64 audio, binary frames carry raw
// bytes described by the content_type query parameter.
func (h *handlers) stream(w http.ResponseWriter, r *http.Request) {
	contentType := r.URL.Query().Get("content_type")
	if contentType == "" {
		contentType = defaultStreamContentType
	}
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		sessionID = session.NewID()
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	// base64 inflates payloads by 4/3.
	t := newWSTransport(conn, contentType, h.maxChunkBytes*4/3+1024)
	defer t.Close()

	_, err = h.sessions.Run(r.Context(), sessionID, t)
	switch {
	case err == nil:
		t.closeWith(websocket.CloseNormalClosure, "")
	case errors.Is(err, session.ErrProtocolViolation):
		t.closeWith(websocket.CloseProtocolError, err.Error())
	case errors.Is(err, models.ErrConfiguration):
		t.closeWith(websocket.CloseInternalServerErr, "service misconfigured")
	}
}

// wsTransport adapts a WebSocket connection to session.Transport. A reader
// goroutine keeps consuming frames so close frames and pongs are seen while a
// chunk is being processed and the inbox is empty. While one chunk is in the
// pipeline the reader can pull up to two more off the socket: one waiting in the
// inbox and one blocked on the send into it. The controller still processes
// chunks one at a time, and the blocked reader pushes back on the peer through
// TCP flow control.
type wsTransport struct {
	conn        *websocket.Conn
	contentType string

	inbox   chan session.Message
	done    chan struct{}
	readErr error

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func newWSTransport(conn *websocket.Conn, contentType string, readLimit int64) *wsTransport {
	t := &wsTransport{
		conn:        conn,
		contentType: contentType,
		inbox:       make(chan session.Message, 1),
		done:        make(chan struct{}),
	}

	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go t.readLoop()
	go t.pingLoop()
	return t
}

func (t *wsTransport) Name() string { return "websocket" }

func (t *wsTransport) readLoop() {
	defer close(t.inbox)
	for {
		kind, payload, err := t.conn.ReadMessage()
		if err != nil {
			t.readErr = classifyReadError(err)
			t.shutdown()
			return
		}

		msg := session.Message{Payload: payload, Encoding: session.EncodingRaw, ContentType: t.contentType}
		if kind == websocket.TextMessage {
			msg.Encoding = session.EncodingBase64
		}

		select {
		case t.inbox <- msg:
		case <-t.done:
			return
		}
	}
}

func classifyReadError(err error) error {
	switch {
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
		return io.EOF
	case errors.Is(err, websocket.ErrReadLimit):
		return fmt.Errorf("%w: %w", session.ErrProtocolViolation, err)
	default:
		return err
	}
}

func (t *wsTransport) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			t.writeMu.Lock()
			err := t.conn.WriteControl(websocket.PingMessage, []byte("keepalive"), time.Now().Add(writeWait))
			t.writeMu.Unlock()
			if err != nil {
				t.shutdown()
				return
			}
		case <-t.done:
			return
		}
	}
}

// Receive returns queued messages first; once the reader stopped it reports why.
// readErr is written before inbox is closed, so reading it afterwards is safe.
func (t *wsTransport) Receive(ctx context.Context) (session.Message, error) {
	select {
	case msg, ok := <-t.inbox:
		if !ok {
			if t.readErr != nil {
				return session.Message{}, t.readErr
			}
			return session.Message{}, io.EOF
		}
		return msg, nil
	case <-ctx.Done():
		return session.Message{}, ctx.Err()
	}
}

func (t *wsTransport) Send(_ context.Context, result models.AnalysisResult) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return t.conn.WriteJSON(result.StreamResponse())
}

func (t *wsTransport) Done() <-chan struct{} {
	return t.done
}

func (t *wsTransport) shutdown() {
	t.closeOnce.Do(func() { close(t.done) })
}

// closeWith sends a close frame. Errors are ignored; the peer may already be gone.
func (t *wsTransport) closeWith(code int, text string) {
	if len(text) > maxCloseText {
		text = text[:maxCloseText]
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	_ = t.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(writeWait))
}

// Close stops the helper goroutines and closes the connection.
func (t *wsTransport) Close() error {
	t.shutdown()
	return t.conn.Close()
}
