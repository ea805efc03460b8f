// Package remote implements the gateway contract over a websocket to the
// sync server. This is the implementation a device build wires: every call
// becomes a request frame acked by id, and subscriptions become push frames
// routed by subscription id.
package remote

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/healthybites/healthybites/gateway"
	"github.com/healthybites/healthybites/protocol"
	"github.com/healthybites/healthybites/utils/log"
)

const callTimeout = 15 * time.Second

type Gateway struct {
	conn *websocket.Conn

	// writeMu serializes frame writes; gorilla allows one concurrent writer.
	writeMu sync.Mutex

	mu       sync.Mutex
	pending  map[string]chan protocol.ServerMessage
	subs     map[string]chan gateway.Snapshot
	uid      string
	signedIn bool
	closed   bool

	done chan struct{}
}

// Dial connects to the sync server's /ws endpoint (ws:// or wss:// URL) and
// starts the read loop.
func Dial(ctx context.Context, url string) (*Gateway, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", url)
	}

	g := &Gateway{
		conn:    conn,
		pending: map[string]chan protocol.ServerMessage{},
		subs:    map[string]chan gateway.Snapshot{},
		done:    make(chan struct{}),
	}
	go g.readLoop()
	return g, nil
}

// Close tears the connection down. Every subscription channel closes and
// in-flight calls fail.
func (g *Gateway) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	g.mu.Unlock()

	err := g.conn.Close()
	<-g.done
	return err
}

func (g *Gateway) readLoop() {
	defer close(g.done)
	for {
		var msg protocol.ServerMessage
		if err := g.conn.ReadJSON(&msg); err != nil {
			g.failAll(err)
			return
		}

		switch msg.Op {
		case protocol.OpPush:
			g.deliverPush(msg)
		case protocol.OpAck:
			g.mu.Lock()
			ch, ok := g.pending[msg.ID]
			delete(g.pending, msg.ID)
			g.mu.Unlock()
			if ok {
				ch <- msg
			}
		default:
			log.Log.WithField("op", msg.Op).Warn("unexpected frame")
		}
	}
}

func (g *Gateway) deliverPush(msg protocol.ServerMessage) {
	g.mu.Lock()
	ch, ok := g.subs[msg.Sub]
	g.mu.Unlock()
	if !ok {
		// Push raced an unsubscribe; discard.
		return
	}

	var value interface{}
	if len(msg.Value) > 0 {
		if err := json.Unmarshal(msg.Value, &value); err != nil {
			log.Log.WithError(err).WithField("path", msg.Path).Error("decode push")
			return
		}
	}
	gateway.CoalescedSend(ch, gateway.Snapshot{Path: msg.Path, Value: value, Keys: msg.Keys})
}

// failAll unblocks every pending call and closes every subscription channel
// after the connection dies.
func (g *Gateway) failAll(cause error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.closed {
		log.Log.WithError(cause).Error("connection lost")
		g.closed = true
	}
	for id, ch := range g.pending {
		delete(g.pending, id)
		close(ch)
	}
	for id, ch := range g.subs {
		delete(g.subs, id)
		close(ch)
	}
}

func (g *Gateway) call(ctx context.Context, msg protocol.ClientMessage) (protocol.ServerMessage, error) {
	msg.ID = uuid.New().String()
	respCh := make(chan protocol.ServerMessage, 1)

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return protocol.ServerMessage{}, errors.New("connection closed")
	}
	g.pending[msg.ID] = respCh
	g.mu.Unlock()

	if err := g.writeFrame(msg); err != nil {
		g.mu.Lock()
		delete(g.pending, msg.ID)
		g.mu.Unlock()
		return protocol.ServerMessage{}, err
	}

	timer := time.NewTimer(callTimeout)
	defer timer.Stop()

	select {
	case resp, ok := <-respCh:
		if !ok {
			return protocol.ServerMessage{}, errors.New("connection closed")
		}
		return resp, nil
	case <-ctx.Done():
		return protocol.ServerMessage{}, ctx.Err()
	case <-timer.C:
		return protocol.ServerMessage{}, errors.Errorf("%s timed out", msg.Op)
	}
}

func (g *Gateway) writeFrame(msg protocol.ClientMessage) error {
	g.writeMu.Lock()
	defer g.writeMu.Unlock()
	return errors.Wrap(g.conn.WriteJSON(msg), "write frame")
}

func ackError(resp protocol.ServerMessage) error {
	if resp.OK {
		return nil
	}
	if resp.AuthFailure {
		return &gateway.AuthError{Message: resp.Error}
	}
	return errors.New(resp.Error)
}

func (g *Gateway) Authenticate(ctx context.Context, email, password string) (string, error) {
	resp, err := g.call(ctx, protocol.ClientMessage{Op: protocol.OpAuth, Email: email, Password: password})
	if err != nil {
		return "", err
	}
	if err := ackError(resp); err != nil {
		return "", err
	}

	g.mu.Lock()
	g.uid = resp.UID
	g.signedIn = true
	g.mu.Unlock()
	return resp.UID, nil
}

func (g *Gateway) SignUp(ctx context.Context, email, password string) (string, error) {
	resp, err := g.call(ctx, protocol.ClientMessage{Op: protocol.OpSignUp, Email: email, Password: password})
	if err != nil {
		return "", err
	}
	if err := ackError(resp); err != nil {
		return "", err
	}
	return resp.UID, nil
}

func (g *Gateway) CurrentUserID() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.uid, g.signedIn
}

func (g *Gateway) TerminateSession() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.uid = ""
	g.signedIn = false
}

func (g *Gateway) Subscribe(ctx context.Context, path string) (<-chan gateway.Snapshot, error) {
	subID := "sub_" + uuid.New().String()
	ch := make(chan gateway.Snapshot, 1)

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil, errors.New("connection closed")
	}
	g.subs[subID] = ch
	g.mu.Unlock()

	resp, err := g.call(ctx, protocol.ClientMessage{Op: protocol.OpSubscribe, Path: path, Sub: subID})
	if err == nil {
		err = ackError(resp)
	}
	if err != nil {
		g.mu.Lock()
		delete(g.subs, subID)
		g.mu.Unlock()
		return nil, err
	}

	go func() {
		<-ctx.Done()

		g.mu.Lock()
		sub, live := g.subs[subID]
		delete(g.subs, subID)
		closed := g.closed
		g.mu.Unlock()
		if !live {
			return
		}
		close(sub)

		if closed {
			return
		}
		// Detach server-side too; best effort with its own deadline since
		// the subscriber's context is already gone.
		detachCtx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		if _, err := g.call(detachCtx, protocol.ClientMessage{Op: protocol.OpUnsubscribe, Sub: subID}); err != nil {
			log.Log.WithError(err).Debug("unsubscribe failed")
		}
	}()

	return ch, nil
}

func (g *Gateway) Write(ctx context.Context, path string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "encode value")
	}
	resp, err := g.call(ctx, protocol.ClientMessage{Op: protocol.OpWrite, Path: path, Value: raw})
	if err != nil {
		return err
	}
	return ackError(resp)
}

func (g *Gateway) AtomicIncrement(ctx context.Context, path string, delta int64) error {
	resp, err := g.call(ctx, protocol.ClientMessage{Op: protocol.OpIncrement, Path: path, Delta: delta})
	if err != nil {
		return err
	}
	return ackError(resp)
}
