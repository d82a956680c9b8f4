package live

import (
	"bytes"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/recera/kgcanvas/pkg/interact"
	"github.com/recera/kgcanvas/pkg/scene"
)

// ErrSessionClosed is returned when work is submitted to a closed session.
var ErrSessionClosed = errors.New("session closed")

// Factory creates the engine of a new session. The engine must be built
// with the given hooks; they route engine output to the client.
type Factory func(sessionID string, hooks interact.Hooks) (*interact.Engine, error)

// NewEngineFactory returns a Factory that builds every session from seed.
func NewEngineFactory(seed func() (*scene.Scene, error), cfg interact.Config, opts ...interact.Option) Factory {
	return func(_ string, hooks interact.Hooks) (*interact.Engine, error) {
		var sc *scene.Scene
		if seed != nil {
			var err error
			if sc, err = seed(); err != nil {
				return nil, err
			}
		}
		opts := append(append([]interact.Option(nil), opts...), interact.WithHooks(hooks))
		return interact.New(sc, cfg, opts...), nil
	}
}

// Options configures a Server.
type Options struct {
	Factory Factory
	Logger  *zap.Logger
	Metrics *Collector
	// IdleTimeout is how long a detached session keeps its canvas for a
	// reconnect with the same id.
	IdleTimeout time.Duration
	SendBuffer  int
	PingPeriod  time.Duration
	ReadTimeout time.Duration
	CheckOrigin func(r *http.Request) bool
}

func (o Options) withDefaults() Options {
	if o.Factory == nil {
		o.Factory = NewEngineFactory(nil, interact.DefaultConfig())
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Metrics == nil {
		o.Metrics = NewCollector("kgcanvas")
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = 5 * time.Minute
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 256
	}
	if o.PingPeriod <= 0 {
		o.PingPeriod = 54 * time.Second
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = 300 * time.Second
	}
	return o
}

// Server handles WebSocket connections for live canvases. Each session owns
// one engine driven by one goroutine.
type Server struct {
	opts     Options
	log      *zap.Logger
	upgrader websocket.Upgrader
	sessions map[string]*Session
	closed   bool
	mu       sync.RWMutex
}

// NewServer creates a new live protocol server
func NewServer(opts Options) *Server {
	opts = opts.withDefaults()
	checkOrigin := opts.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Server{
		opts: opts,
		log:  opts.Logger.Named("live"),
		upgrader: websocket.Upgrader{
			CheckOrigin:     checkOrigin,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		sessions: make(map[string]*Session),
	}
}

// Metrics returns the server's collector.
func (s *Server) Metrics() *Collector { return s.opts.Metrics }

// Routes returns a router serving GET /live/{session}.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/live/{session}", s.HandleWebSocket)
	return r
}

// HandleWebSocket handles WebSocket upgrade and session management
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session")
	if sessionID == "" {
		sessionID = r.URL.Query().Get("session")
	}
	if sessionID == "" {
		http.Error(w, "Session ID required", http.StatusBadRequest)
		return
	}

	session, err := s.getOrCreateSession(sessionID)
	if err != nil {
		s.log.Error("failed to create session", zap.String("session", sessionID), zap.Error(err))
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("failed to upgrade connection", zap.Error(err))
		return
	}

	go session.handleConnection(conn)
}

// getOrCreateSession gets an existing session or creates a new one
func (s *Server) getOrCreateSession(sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	if session, exists := s.sessions[sessionID]; exists {
		return session, nil
	}
	session, err := newSession(s, sessionID)
	if err != nil {
		return nil, err
	}
	s.sessions[sessionID] = session
	s.log.Debug("session created", zap.String("session", sessionID))
	return session, nil
}

// GetSession retrieves a session by ID
func (s *Server) GetSession(sessionID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, exists := s.sessions[sessionID]
	return session, exists
}

// Sessions returns the number of live sessions, attached or not.
func (s *Server) Sessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// RemoveSession closes and forgets a session
func (s *Server) RemoveSession(sessionID string) {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if ok {
		session.close()
	}
}

// expire removes session if it is still registered and detached.
func (s *Server) expire(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[session.ID] != session || session.attached() {
		return
	}
	delete(s.sessions, session.ID)
	session.close()
	s.log.Debug("session expired", zap.String("session", session.ID))
}

// Reload replaces the scene of every session with a fresh one from build.
// It returns the number of sessions that were sent a new scene.
func (s *Server) Reload(build func() (*scene.Scene, error)) int {
	s.mu.RLock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.mu.RUnlock()

	n := 0
	for _, session := range sessions {
		sc, err := build()
		if err != nil {
			s.log.Error("failed to build scene for reload", zap.String("session", session.ID), zap.Error(err))
			continue
		}
		err = session.Submit(func(e *interact.Engine) {
			e.ReplaceScene(sc)
			session.sendStatus("Graph reloaded", interact.StatusInfo)
			session.pushFrame()
		})
		if err == nil {
			n++
		}
	}
	s.log.Info("scene reloaded", zap.Int("sessions", n))
	return n
}

// Close closes every session.
func (s *Server) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.closed = true
	s.mu.Unlock()
	for _, session := range sessions {
		session.close()
	}
}

type outbound struct {
	binary bool
	data   []byte
}

// handleConnection manages one WebSocket connection of a session
func (s *Session) handleConnection(conn *websocket.Conn) {
	out := s.attach(conn)
	s.metrics.Sessions.Inc()
	defer s.metrics.Sessions.Dec()

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.writer(conn, out, stop)
	}()
	defer func() {
		close(stop)
		wg.Wait()
		conn.Close()
		s.detach(conn)
	}()

	s.enqueue(outbound{binary: true, data: encodeControl("HELLO", s.seq.Load())})
	s.log.Debug("sent server HELLO")
	if err := s.Submit(func(*interact.Engine) { s.pushFrame() }); err != nil {
		return
	}

	readTimeout := s.server.opts.ReadTimeout
	conn.SetReadLimit(64 << 10)
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Info("unexpected close", zap.Error(err))
			} else {
				s.log.Debug("read ended", zap.Error(err))
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		switch messageType {
		case websocket.BinaryMessage:
			s.handleBinaryMessage(data)
		case websocket.TextMessage:
			s.log.Debug("ignoring text message", zap.Int("bytes", len(data)))
		}
	}
}

// writer handles writing messages to the WebSocket
func (s *Session) writer(conn *websocket.Conn, out <-chan outbound, stop <-chan struct{}) {
	ticker := time.NewTicker(s.server.opts.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message := <-out:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			kind := websocket.TextMessage
			if message.binary {
				kind = websocket.BinaryMessage
			}
			if err := conn.WriteMessage(kind, message.data); err != nil {
				s.log.Debug("failed to write message", zap.Error(err))
				conn.Close()
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}

		case <-s.done:
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
				time.Now().Add(time.Second))
			conn.Close()
			return

		case <-stop:
			return
		}
	}
}

// handleBinaryMessage processes binary protocol messages
func (s *Session) handleBinaryMessage(data []byte) {
	if len(data) == 0 {
		return
	}

	switch MessageType(data[0]) {
	case FrameEvent:
		ev, err := DecodeEvent(data)
		if err != nil {
			s.metrics.Rejected.WithLabelValues("decode").Inc()
			s.log.Debug("failed to decode event", zap.Error(err))
			s.sendMessage(Message{Type: MessageError, Error: err.Error()})
			return
		}
		if err := s.Submit(func(*interact.Engine) { s.apply(ev) }); err != nil {
			s.log.Debug("failed to submit event", zap.String("event", ev.Name()), zap.Error(err))
		}

	case FrameControl:
		decoder := NewDecoder(bytes.NewReader(data[1:]))
		msgType, err := decoder.ReadString()
		if err != nil {
			s.log.Debug("failed to decode control message", zap.Error(err))
			return
		}

		switch msgType {
		case "HELLO":
			resumable, err1 := decoder.ReadUvarint()
			lastSeq, err2 := decoder.ReadUvarint()
			if err1 != nil || err2 != nil {
				s.log.Debug("failed to decode HELLO params", zap.NamedError("resumable", err1), zap.NamedError("lastSeq", err2))
				return
			}
			s.log.Debug("client hello", zap.Bool("resumable", resumable > 0), zap.Uint64("lastSeq", lastSeq))
		case "PING":
			s.enqueue(outbound{binary: true, data: encodeControl("PONG")})
		}
	}
}
