// Package realtime implements a duplex session with the GLM realtime
// WebSocket API.
//
// A Session has one receive loop, started by ListenForEvents, and any number
// of concurrent senders; writes are serialized. There is no automatic
// reconnect: after a transport failure the caller builds a new Session.
package realtime

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/petal-labs/zai-go/core"
	"github.com/petal-labs/zai-go/protocol"
)

// DefaultURL is the realtime endpoint.
const DefaultURL = "wss://open.bigmodel.cn/api/paas/v4/realtime"

const (
	defaultHandshakeTimeout = 15 * time.Second
	closeGracePeriod        = 2 * time.Second
)

var (
	// ErrNotConnected is returned by sends and ListenForEvents before Connect
	// succeeds or after Close.
	ErrNotConnected = errors.New("realtime: not connected")
	// ErrAlreadyListening is returned when a second receive loop is started.
	ErrAlreadyListening = errors.New("realtime: event loop already running")
	// ErrAlreadyConnected is returned by Connect on an active session.
	ErrAlreadyConnected = errors.New("realtime: already connected")
)

// ServerError is an `error` event received from the service.
type ServerError struct {
	Detail protocol.ErrorDetail
}

func (e *ServerError) Error() string {
	if e.Detail.Code != "" {
		return fmt.Sprintf("realtime: server error %s: %s", e.Detail.Code, e.Detail.Message)
	}
	return "realtime: server error: " + e.Detail.Message
}

// Option configures a Session.
type Option func(*Session)

// WithURL overrides the endpoint.
func WithURL(url string) Option {
	return func(s *Session) { s.url = url }
}

// WithAPIKey sends the key as a Bearer token.
func WithAPIKey(key core.Secret) Option {
	return func(s *Session) {
		if !key.IsEmpty() {
			s.header.Set("Authorization", "Bearer "+key.Expose())
		}
	}
}

// WithHeader adds a handshake header.
func WithHeader(key, value string) Option {
	return func(s *Session) { s.header.Add(key, value) }
}

// WithModel sets the model used when Connect is given a session without one.
func WithModel(model string) Option {
	return func(s *Session) { s.model = model }
}

// WithDialer replaces the WebSocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(s *Session) {
		if d != nil {
			s.dialer = d
		}
	}
}

// WithHandshakeTimeout bounds Connect when its context has no deadline.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.handshakeTimeout = d
		}
	}
}

// WithLogger sets the logger for connection lifecycle and frame tracing.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// Session is a realtime conversation over one WebSocket connection.
type Session struct {
	url              string
	header           http.Header
	model            string
	dialer           *websocket.Dialer
	handshakeTimeout time.Duration
	logger           *slog.Logger
	newID            func() string
	now              func() time.Time

	state     atomic.Int32
	listening atomic.Bool

	mu      sync.RWMutex
	conn    *websocket.Conn
	closed  bool
	session protocol.Session
	pending []protocol.ServerEvent

	writeMu sync.Mutex
}

// NewSession returns a disconnected Session.
func NewSession(opts ...Option) *Session {
	s := &Session{
		url:              DefaultURL,
		header:           make(http.Header),
		dialer:           websocket.DefaultDialer,
		handshakeTimeout: defaultHandshakeTimeout,
		logger:           slog.New(slog.DiscardHandler),
		newID:            func() string { return uuid.NewString() },
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

func (s *Session) setState(st State) {
	prev := State(s.state.Swap(int32(st)))
	if prev != st {
		s.logger.Debug("realtime state changed", "from", prev.String(), "to", st.String())
	}
}

// Session returns the configuration last acknowledged by the server.
func (s *Session) Session() protocol.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Connect dials the endpoint, sends session.update with cfg and waits for
// the server to acknowledge it with session.created or session.updated.
// Events received before the acknowledgement, and the acknowledgement
// itself, are handed to the Handler when ListenForEvents starts.
//
// An `error` event during the handshake returns a *ServerError.
func (s *Session) Connect(ctx context.Context, cfg protocol.Session) error {
	if st := s.State(); st != StateDisconnected && st != StateError {
		return ErrAlreadyConnected
	}
	s.setState(StateConnecting)

	deadline := time.Now().Add(s.handshakeTimeout)
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	dialCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	conn, resp, err := s.dialer.DialContext(dialCtx, s.url, s.header)
	if err != nil {
		s.setState(StateError)
		if resp != nil {
			return &core.TransportError{Op: "dial", URL: s.url, Err: fmt.Errorf("websocket handshake failed (status %d): %w", resp.StatusCode, err)}
		}
		return &core.TransportError{Op: "dial", URL: s.url, Err: err}
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	s.mu.Lock()
	prev := s.conn
	s.conn = conn
	s.closed = false
	s.pending = nil
	s.mu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}

	fail := func(err error) error {
		s.setState(StateError)
		s.dropConn()
		if ctx.Err() != nil {
			return core.ContextError(ctx)
		}
		return err
	}

	if cfg.Model == "" {
		cfg.Model = s.model
	}
	if err := s.Send(&protocol.SessionUpdateEvent{Session: cfg}); err != nil {
		return fail(err)
	}

	_ = conn.SetReadDeadline(deadline)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fail(&core.TransportError{Op: "read handshake", URL: s.url, Err: err})
		}
		ev, err := protocol.DecodeServerEvent(data)
		if err != nil {
			return fail(err)
		}

		switch e := ev.(type) {
		case protocol.SessionCreatedEvent:
			s.ack(e.Session, ev)
		case protocol.SessionUpdatedEvent:
			s.ack(e.Session, ev)
		case protocol.ErrorEvent:
			return fail(&ServerError{Detail: e.Error})
		default:
			s.mu.Lock()
			s.pending = append(s.pending, ev)
			s.mu.Unlock()
			continue
		}

		_ = conn.SetReadDeadline(time.Time{})
		s.setState(StateConnected)
		s.logger.Info("realtime session connected", "url", s.url, "session_id", s.Session().ID)
		return nil
	}
}

func (s *Session) ack(cfg protocol.Session, ev protocol.ServerEvent) {
	s.mu.Lock()
	s.session = cfg
	s.pending = append(s.pending, ev)
	s.mu.Unlock()
}

func (s *Session) currentConn() *websocket.Conn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil
	}
	return s.conn
}

// dropConn closes the socket without a close frame.
func (s *Session) dropConn() {
	s.mu.Lock()
	conn := s.conn
	s.closed = true
	s.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

// Send stamps e with an event_id and client_timestamp where unset, encodes
// it and writes it as one text frame.
func (s *Session) Send(e protocol.ClientEvent) error {
	conn := s.currentConn()
	if conn == nil {
		return ErrNotConnected
	}
	protocol.Stamp(e, s.newID, s.now().UnixMilli())
	data, err := protocol.EncodeClientEvent(e)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, data)
	s.writeMu.Unlock()
	if err != nil {
		return &core.TransportError{Op: "write", URL: s.url, Err: err}
	}
	s.logger.Debug("realtime event sent", "type", string(e.ClientEventType()))
	return nil
}

// UpdateSession changes the session configuration.
func (s *Session) UpdateSession(cfg protocol.Session) error {
	return s.Send(&protocol.SessionUpdateEvent{Session: cfg})
}

// UpdateTranscriptionSession configures a transcription session.
func (s *Session) UpdateTranscriptionSession(cfg protocol.TranscriptionSession) error {
	return s.Send(&protocol.TranscriptionSessionUpdateEvent{Session: cfg})
}

// SendAudio appends raw audio bytes to the input buffer.
func (s *Session) SendAudio(audio []byte) error {
	return s.Send(&protocol.InputAudioAppendEvent{Audio: base64.StdEncoding.EncodeToString(audio)})
}

// SendVideoFrame appends one encoded video frame (for example a JPEG).
func (s *Session) SendVideoFrame(frame []byte) error {
	return s.Send(&protocol.InputVideoFrameAppendEvent{VideoFrame: base64.StdEncoding.EncodeToString(frame)})
}

// CommitAudioBuffer commits buffered audio as a user turn.
func (s *Session) CommitAudioBuffer() error {
	return s.Send(&protocol.InputAudioCommitEvent{})
}

// ClearAudioBuffer discards buffered audio.
func (s *Session) ClearAudioBuffer() error {
	return s.Send(&protocol.InputAudioClearEvent{})
}

// CreateResponse asks the model to respond. cfg may be nil.
func (s *Session) CreateResponse(cfg *protocol.ResponseConfig) error {
	return s.Send(&protocol.ResponseCreateEvent{Response: cfg})
}

// CancelResponse cancels the in-progress response.
func (s *Session) CancelResponse() error {
	return s.Send(&protocol.ResponseCancelEvent{})
}

// CreateConversationItem adds item to the conversation.
func (s *Session) CreateConversationItem(item protocol.ConversationItem) error {
	return s.Send(&protocol.ConversationItemCreateEvent{Item: item})
}

// DeleteConversationItem removes the item with the given id.
func (s *Session) DeleteConversationItem(itemID string) error {
	return s.Send(&protocol.ConversationItemDeleteEvent{ItemID: itemID})
}

// RetrieveConversationItem asks the server to return the item.
func (s *Session) RetrieveConversationItem(itemID string) error {
	return s.Send(&protocol.ConversationItemRetrieveEvent{ItemID: itemID})
}

// ListenForEvents runs the receive loop until the connection closes or ctx
// ends, dispatching each event to h. Only one loop may run at a time.
//
// A normal close returns nil. A transport failure returns an error matching
// core.ErrNetwork and a malformed frame one matching core.ErrDecode; both
// leave the session in StateError with the socket closed. When ctx ends the
// socket is closed and ctx.Err() is returned, matching core.ErrTimeout for a
// passed deadline.
func (s *Session) ListenForEvents(ctx context.Context, h Handler) error {
	if !s.listening.CompareAndSwap(false, true) {
		return ErrAlreadyListening
	}
	defer s.listening.Store(false)

	conn := s.currentConn()
	if conn == nil {
		return ErrNotConnected
	}
	stop := context.AfterFunc(ctx, s.dropConn)
	defer stop()

	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, ev := range pending {
		Dispatch(h, ev)
	}

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return s.readFailed(ctx, err)
		}
		if mt != websocket.TextMessage {
			s.logger.Debug("realtime ignoring non-text frame", "message_type", mt)
			continue
		}

		ev, err := protocol.DecodeServerEvent(data)
		if err != nil {
			s.setState(StateError)
			s.dropConn()
			s.logger.Warn("realtime dropped malformed frame", "url", s.url, "error", err)
			return err
		}
		s.observe(ev)
		Dispatch(h, ev)
	}
}

func (s *Session) readFailed(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		s.setState(StateDisconnected)
		return core.ContextError(ctx)
	}
	s.mu.RLock()
	closedLocally := s.closed
	s.mu.RUnlock()
	if closedLocally || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		s.setState(StateDisconnected)
		s.logger.Info("realtime session closed", "url", s.url)
		return nil
	}
	s.setState(StateError)
	s.logger.Warn("realtime read failed", "url", s.url, "error", err)
	return &core.TransportError{Op: "read", URL: s.url, Err: err}
}

// observe applies the state transitions implied by ev.
func (s *Session) observe(ev protocol.ServerEvent) {
	var next State
	switch e := ev.(type) {
	case protocol.SessionCreatedEvent:
		s.mu.Lock()
		s.session = e.Session
		s.mu.Unlock()
		return
	case protocol.SessionUpdatedEvent:
		s.mu.Lock()
		s.session = e.Session
		s.mu.Unlock()
		return
	case protocol.SpeechStartedEvent:
		next = StateListening
	case protocol.SpeechStoppedEvent, protocol.InputAudioCommittedEvent:
		next = StateProcessing
	case protocol.TextDeltaEvent, protocol.AudioDeltaEvent, protocol.AudioTranscriptDeltaEvent:
		next = StateSpeaking
	case protocol.ResponseDoneEvent, protocol.ResponseCancelledEvent:
		next = StateConnected
	default:
		return
	}
	if s.State().Active() {
		s.setState(next)
	}
}

// Close sends a close frame and closes the connection. It is safe to call
// more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	conn := s.conn
	already := s.closed
	s.closed = true
	s.mu.Unlock()

	if conn == nil || already {
		if s.State() != StateError {
			s.setState(StateDisconnected)
		}
		return nil
	}

	s.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(closeGracePeriod))
	s.writeMu.Unlock()
	err := conn.Close()
	s.setState(StateDisconnected)
	return err
}
