package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/healthybites/healthybites/gateway"
	"github.com/healthybites/healthybites/protocol"
	"github.com/healthybites/healthybites/utils/log"
)

// socketSession is the server side of one websocket connection: a read loop
// dispatching request frames, plus one forwarder goroutine per active
// subscription. All writes to the socket go through writeMu; gorilla allows
// a single concurrent writer.
type socketSession struct {
	conn    *websocket.Conn
	backend gateway.Gateway

	writeMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	subs map[string]context.CancelFunc
}

func newSocketSession(conn *websocket.Conn, backend gateway.Gateway) *socketSession {
	ctx, cancel := context.WithCancel(context.Background())
	return &socketSession{
		conn:    conn,
		backend: backend,
		ctx:     ctx,
		cancel:  cancel,
		subs:    map[string]context.CancelFunc{},
	}
}

// close detaches every live subscription before the socket goes away, so no
// forwarder ever writes to a closed connection.
func (s *socketSession) close() {
	s.cancel()

	s.mu.Lock()
	for _, cancelSub := range s.subs {
		cancelSub()
	}
	s.subs = map[string]context.CancelFunc{}
	s.mu.Unlock()

	s.conn.Close()
}

func (s *socketSession) readLoop() {
	for {
		var msg protocol.ClientMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			// Normal closure and dropped clients both land here.
			log.Log.WithError(err).Debug("socket read ended")
			return
		}
		s.dispatch(msg)
	}
}

func (s *socketSession) dispatch(msg protocol.ClientMessage) {
	switch msg.Op {
	case protocol.OpAuth:
		uid, err := s.backend.Authenticate(s.ctx, msg.Email, msg.Password)
		s.ack(msg.ID, uid, err)
	case protocol.OpSignUp:
		uid, err := s.backend.SignUp(s.ctx, msg.Email, msg.Password)
		s.ack(msg.ID, uid, err)
	case protocol.OpSubscribe:
		s.subscribe(msg)
	case protocol.OpUnsubscribe:
		s.unsubscribe(msg)
	case protocol.OpWrite:
		var value interface{}
		if len(msg.Value) > 0 {
			if err := json.Unmarshal(msg.Value, &value); err != nil {
				s.ack(msg.ID, "", err)
				return
			}
		}
		s.ack(msg.ID, "", s.backend.Write(s.ctx, msg.Path, value))
	case protocol.OpIncrement:
		s.ack(msg.ID, "", s.backend.AtomicIncrement(s.ctx, msg.Path, msg.Delta))
	default:
		s.write(protocol.ServerMessage{ID: msg.ID, Op: protocol.OpAck, Error: "unknown op: " + string(msg.Op)})
	}
}

func (s *socketSession) subscribe(msg protocol.ClientMessage) {
	subCtx, cancelSub := context.WithCancel(s.ctx)

	ch, err := s.backend.Subscribe(subCtx, msg.Path)
	if err != nil {
		cancelSub()
		s.ack(msg.ID, "", err)
		return
	}

	s.mu.Lock()
	if _, exists := s.subs[msg.Sub]; exists {
		s.mu.Unlock()
		cancelSub()
		s.write(protocol.ServerMessage{ID: msg.ID, Op: protocol.OpAck, Error: "duplicate subscription id: " + msg.Sub})
		return
	}
	s.subs[msg.Sub] = cancelSub
	s.mu.Unlock()

	s.ack(msg.ID, "", nil)

	go func() {
		for snap := range ch {
			value, err := json.Marshal(snap.Value)
			if err != nil {
				log.Log.WithError(err).WithField("path", snap.Path).Error("encode push")
				continue
			}
			s.write(protocol.ServerMessage{
				Op:    protocol.OpPush,
				Sub:   msg.Sub,
				Path:  snap.Path,
				Value: value,
				Keys:  snap.Keys,
			})
		}
	}()
}

func (s *socketSession) unsubscribe(msg protocol.ClientMessage) {
	s.mu.Lock()
	cancelSub, ok := s.subs[msg.Sub]
	delete(s.subs, msg.Sub)
	s.mu.Unlock()

	if ok {
		cancelSub()
	}
	s.ack(msg.ID, "", nil)
}

func (s *socketSession) ack(id, uid string, err error) {
	msg := protocol.ServerMessage{ID: id, Op: protocol.OpAck, OK: err == nil, UID: uid}
	if err != nil {
		msg.Error = err.Error()
		var authErr *gateway.AuthError
		if errors.As(err, &authErr) {
			msg.AuthFailure = true
		}
	}
	s.write(msg)
}

func (s *socketSession) write(msg protocol.ServerMessage) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(msg); err != nil {
		log.Log.WithError(err).Debug("socket write failed")
	}
}
