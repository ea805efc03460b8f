// Package gateway defines the contract of the remote realtime backend: an
// authenticated, path-addressed mutable JSON tree with subscription pushes
// and a single-field atomic increment. Everything the app renders flows
// through this interface; the concrete implementations live in the
// subpackages (memory for tests and the dev server, redisgw for a
// Redis-backed deployment, remote for the websocket client).
package gateway

import (
	"context"
)

// Snapshot is one subscription push: the full current value at Path, never a
// diff. Value is nil when the node is absent. For container nodes Keys
// carries the child keys in the backend's enumeration order, which is the
// order feed consumers must preserve.
type Snapshot struct {
	Path  string      `json:"path"`
	Value interface{} `json:"value"`
	Keys  []string    `json:"keys,omitempty"`
}

// Gateway is the remote data backend. All blocking calls take a context;
// cancelling the context passed to Subscribe detaches the subscription,
// which every screen must do on teardown.
//
// Per-path pushes arrive in commit order. There is no ordering guarantee
// across subscriptions on different paths.
type Gateway interface {
	// Authenticate verifies email/password credentials and establishes the
	// session. Failure is an *AuthError whose message is surfaced to the
	// user verbatim.
	Authenticate(ctx context.Context, email, password string) (string, error)

	// SignUp creates credentials for a new user and returns the assigned
	// uid. The caller is responsible for seeding /users/{uid} afterwards.
	SignUp(ctx context.Context, email, password string) (string, error)

	// CurrentUserID returns the authenticated user's id, if any.
	CurrentUserID() (string, bool)

	// TerminateSession ends the session. Fire-and-forget, never fails.
	TerminateSession()

	// Subscribe registers a persistent listener on path. The current value
	// is delivered first, then every committed change, until ctx is
	// cancelled. Consumers own draining the channel; a slow consumer may
	// have intermediate snapshots coalesced away, never reordered.
	Subscribe(ctx context.Context, path string) (<-chan Snapshot, error)

	// Write replaces the entire subtree at path with value.
	Write(ctx context.Context, path string, value interface{}) error

	// AtomicIncrement adjusts the numeric leaf at path by delta as a single
	// server-side atomic operation. An absent leaf counts as zero. This is
	// the only safe way to mutate the like counter: concurrent likers from
	// different clients would lose updates under read-modify-write.
	AtomicIncrement(ctx context.Context, path string, delta int64) error
}

// AuthError is a credential failure reported by the backend. Its message is
// shown to the user unchanged.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
