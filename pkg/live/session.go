package live

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/recera/kgcanvas/pkg/interact"
	"github.com/recera/kgcanvas/pkg/scene"
)

// Session is one live canvas. Its engine is touched only by the session's
// loop goroutine; everything else reaches it through Submit.
type Session struct {
	ID      string
	server  *Server
	log     *zap.Logger
	metrics *Collector

	inbox     chan func()
	done      chan struct{}
	closeOnce sync.Once
	seq       atomic.Uint64

	// Loop-owned.
	engine    *interact.Engine
	pending   map[uint64]func(bool)
	nextToken uint64

	mu   sync.Mutex
	conn *websocket.Conn
	out  chan outbound
	idle *time.Timer
}

func newSession(srv *Server, id string) (*Session, error) {
	s := &Session{
		ID:      id,
		server:  srv,
		log:     srv.log.With(zap.String("session", id)),
		metrics: srv.opts.Metrics,
		inbox:   make(chan func(), 64),
		done:    make(chan struct{}),
		pending: make(map[uint64]func(bool)),
	}
	engine, err := srv.opts.Factory(id, interact.Hooks{
		OnStatus:        s.sendStatus,
		OnNodeActivated: s.sendActivated,
		RequestConfirm:  s.requestConfirm,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create engine for session %s: %w", id, err)
	}
	s.engine = engine
	go s.loop()
	return s, nil
}

func (s *Session) loop() {
	for {
		select {
		case fn := <-s.inbox:
			fn()
		case <-s.done:
			return
		}
	}
}

// Submit queues fn to run on the session loop.
func (s *Session) Submit(fn func(*interact.Engine)) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case s.inbox <- func() { fn(s.engine) }:
		return nil
	case <-s.done:
		return ErrSessionClosed
	}
}

// Do runs fn on the session loop and waits for it to finish.
func (s *Session) Do(fn func(*interact.Engine)) error {
	finished := make(chan struct{})
	if err := s.Submit(func(e *interact.Engine) {
		defer close(finished)
		fn(e)
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-s.done:
		return ErrSessionClosed
	}
}

// apply runs one decoded client event. Called on the loop.
func (s *Session) apply(ev interact.Event) {
	if ans, ok := ev.(ConfirmAnswer); ok {
		decide, found := s.pending[ans.Token]
		if !found {
			s.metrics.Rejected.WithLabelValues("token").Inc()
			s.sendMessage(Message{Type: MessageError, Error: fmt.Sprintf("unknown confirm token %d", ans.Token)})
			return
		}
		delete(s.pending, ans.Token)
		decide(ans.OK)
		s.metrics.Events.WithLabelValues(ev.Name()).Inc()
		s.pushFrame()
		return
	}

	if err := s.engine.Handle(ev); err != nil {
		s.metrics.Rejected.WithLabelValues(rejectReason(err)).Inc()
		s.log.Debug("event rejected", zap.String("event", ev.Name()), zap.Error(err))
		s.sendMessage(Message{Type: MessageError, Error: err.Error()})
	} else {
		s.metrics.Events.WithLabelValues(ev.Name()).Inc()
	}
	s.pushFrame()
}

func rejectReason(err error) string {
	var ve *interact.ValidationError
	switch {
	case errors.Is(err, interact.ErrInvalidTransition):
		return "transition"
	case errors.As(err, &ve):
		return "validation"
	}
	return "apply"
}

// pushFrame sends the current frame. Called on the loop.
func (s *Session) pushFrame() {
	f := s.engine.Frame()
	s.sendMessage(Message{Type: MessageFrame, Frame: &f})
}

func (s *Session) sendStatus(message string, kind interact.StatusKind) {
	s.sendMessage(Message{Type: MessageStatus, Status: &Status{Message: message, Kind: kind}})
}

func (s *Session) sendActivated(id scene.NodeID) {
	s.sendMessage(Message{Type: MessageActivated, Node: id})
}

// requestConfirm parks decide under a fresh token until the client answers.
// Called on the loop.
func (s *Session) requestConfirm(prompt string, decide func(bool)) {
	s.nextToken++
	s.pending[s.nextToken] = decide
	s.sendMessage(Message{Type: MessageConfirm, Confirm: &Confirm{Token: s.nextToken, Prompt: prompt}})
}

func (s *Session) sendMessage(m Message) {
	m.Seq = s.seq.Add(1)
	data, err := json.Marshal(m)
	if err != nil {
		s.log.Error("failed to marshal message", zap.String("type", m.Type), zap.Error(err))
		return
	}
	s.metrics.FrameBytes.Observe(float64(len(data)))
	s.enqueue(outbound{data: data})
}

// enqueue hands o to the writer of the attached connection. Messages for a
// detached session are dropped; a reconnect starts with a fresh frame.
func (s *Session) enqueue(o outbound) {
	s.mu.Lock()
	out := s.out
	s.mu.Unlock()
	if out == nil {
		return
	}
	select {
	case out <- o:
	default:
		s.metrics.DroppedFrames.Inc()
		s.log.Warn("send buffer full, dropping message")
	}
}

// attach makes conn the session's connection, closing any previous one. It
// returns the send queue of the new connection.
func (s *Session) attach(conn *websocket.Conn) chan outbound {
	out := make(chan outbound, s.server.opts.SendBuffer)
	s.mu.Lock()
	old := s.conn
	s.conn = conn
	s.out = out
	if s.idle != nil {
		s.idle.Stop()
		s.idle = nil
	}
	s.mu.Unlock()
	if old != nil {
		old.Close()
	}
	s.log.Debug("connection attached")
	return out
}

// detach forgets conn and starts the idle timer if no newer connection took
// its place.
func (s *Session) detach(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != conn {
		return
	}
	s.conn = nil
	s.out = nil
	s.idle = time.AfterFunc(s.server.opts.IdleTimeout, func() { s.server.expire(s) })
	s.log.Debug("connection detached")
}

func (s *Session) attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.mu.Lock()
		if s.idle != nil {
			s.idle.Stop()
		}
		conn := s.conn
		s.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
	})
}
