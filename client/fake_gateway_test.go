package client

import (
	"context"
	"sync"

	"github.com/healthybites/healthybites/gateway"
)

// fakeGateway records every call so tests can assert on exact network
// traffic (e.g. that a validation failure makes zero calls).
type fakeGateway struct {
	mu         sync.Mutex
	writes     []fakeWrite
	increments []fakeIncrement

	incrementErr error
	writeErr     error

	uid      string
	signedIn bool
}

type fakeWrite struct {
	path  string
	value interface{}
}

type fakeIncrement struct {
	path  string
	delta int64
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{uid: "uid_test", signedIn: true}
}

func (g *fakeGateway) Authenticate(ctx context.Context, email, password string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.signedIn = true
	return g.uid, nil
}

func (g *fakeGateway) SignUp(ctx context.Context, email, password string) (string, error) {
	return g.uid, nil
}

func (g *fakeGateway) CurrentUserID() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.uid, g.signedIn
}

func (g *fakeGateway) TerminateSession() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.signedIn = false
}

func (g *fakeGateway) Subscribe(ctx context.Context, path string) (<-chan gateway.Snapshot, error) {
	ch := make(chan gateway.Snapshot, 1)
	ch <- gateway.Snapshot{Path: gateway.NormalizePath(path)}
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func (g *fakeGateway) Write(ctx context.Context, path string, value interface{}) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.writeErr != nil {
		return g.writeErr
	}
	g.writes = append(g.writes, fakeWrite{path: gateway.NormalizePath(path), value: value})
	return nil
}

func (g *fakeGateway) AtomicIncrement(ctx context.Context, path string, delta int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.incrementErr != nil {
		return g.incrementErr
	}
	g.increments = append(g.increments, fakeIncrement{path: gateway.NormalizePath(path), delta: delta})
	return nil
}

func (g *fakeGateway) writeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.writes)
}

func (g *fakeGateway) incrementCalls() []fakeIncrement {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]fakeIncrement(nil), g.increments...)
}
