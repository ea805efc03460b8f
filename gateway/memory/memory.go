// Package memory implements the gateway contract as an in-process JSON tree.
// It backs the unit tests and the development sync server: same subscription
// semantics as the hosted backend (full-value pushes in commit order,
// coalescing under a slow consumer), without the network.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/healthybites/healthybites/gateway"
)

const (
	msgUserNotFound    = "There is no user record corresponding to this identifier. The user may have been deleted."
	msgInvalidPassword = "The password is invalid or the user does not have a password."
	msgEmailTaken      = "The email address is already in use by another account."
)

// node is one vertex of the tree. A node is either a leaf carrying a scalar
// value or a container carrying ordered children, never both.
type node struct {
	value    interface{}
	children map[string]*node
	order    []string
}

func (n *node) isContainer() bool {
	return n.children != nil
}

type credential struct {
	hash []byte
	uid  string
}

// Gateway is the in-memory backend. The zero value is not usable; construct
// with New.
type Gateway struct {
	// mu guards the tree, the credential table, the session, and the
	// subscriber map together. Holding one lock across mutation and fanout
	// is what keeps per-path pushes in commit order.
	mu   sync.Mutex
	root *node

	// subs maps a normalized path to that path's active subscriber channels,
	// keyed by a uuid so detaching is O(1). Entries are removed by a
	// per-subscription cleanup goroutine when its context terminates.
	subs map[string]map[string]chan gateway.Snapshot

	creds    map[string]credential
	uid      string
	signedIn bool
}

func New() *Gateway {
	return &Gateway{
		root:  &node{children: map[string]*node{}},
		subs:  map[string]map[string]chan gateway.Snapshot{},
		creds: map[string]credential{},
	}
}

func (g *Gateway) Authenticate(ctx context.Context, email, password string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	cred, ok := g.creds[email]
	if !ok {
		return "", &gateway.AuthError{Message: msgUserNotFound}
	}
	if bcrypt.CompareHashAndPassword(cred.hash, []byte(password)) != nil {
		return "", &gateway.AuthError{Message: msgInvalidPassword}
	}

	g.uid = cred.uid
	g.signedIn = true
	return cred.uid, nil
}

func (g *Gateway) SignUp(ctx context.Context, email, password string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.creds[email]; ok {
		return "", &gateway.AuthError{Message: msgEmailTaken}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	uid := uuid.New().String()
	g.creds[email] = credential{hash: hash, uid: uid}
	return uid, nil
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
	path = gateway.NormalizePath(path)
	ch := make(chan gateway.Snapshot, 1)
	chID := uuid.New().String()

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.subs[path]; !ok {
		g.subs[path] = map[string]chan gateway.Snapshot{}
	}
	g.subs[path][chID] = ch

	// The registration-time value is the first push.
	ch <- g.snapshotLocked(path)

	go g.cleanUp(ctx, path, chID)

	return ch, nil
}

// cleanUp detaches a single subscription when its context terminates. When a
// path's last subscriber detaches, the path's top-level entry goes too.
func (g *Gateway) cleanUp(ctx context.Context, path, chID string) {
	<-ctx.Done()

	g.mu.Lock()
	defer g.mu.Unlock()

	ch, ok := g.subs[path][chID]
	if !ok {
		return
	}
	delete(g.subs[path], chID)
	if len(g.subs[path]) == 0 {
		delete(g.subs, path)
	}
	close(ch)
}

func (g *Gateway) Write(ctx context.Context, path string, value interface{}) error {
	path = gateway.NormalizePath(path)

	g.mu.Lock()
	defer g.mu.Unlock()

	segments := gateway.SplitPath(path)
	if len(segments) == 0 {
		if value == nil {
			g.root = &node{children: map[string]*node{}}
		} else {
			g.root = buildNode(value)
		}
	} else {
		g.setLocked(segments, value)
	}

	g.notifyLocked(path)
	return nil
}

func (g *Gateway) AtomicIncrement(ctx context.Context, path string, delta int64) error {
	path = gateway.NormalizePath(path)

	g.mu.Lock()
	defer g.mu.Unlock()

	segments := gateway.SplitPath(path)
	current := numericValue(g.lookupLocked(segments))
	g.setLocked(segments, current+delta)

	g.notifyLocked(path)
	return nil
}

// ActiveSubscriptionCount reports the number of attached subscriber channels
// across all paths. Used by tests and the dev server's health endpoint.
func (g *Gateway) ActiveSubscriptionCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	count := 0
	for _, chans := range g.subs {
		count += len(chans)
	}
	return count
}

// setLocked replaces the subtree at segments, creating intermediate
// containers as needed. A nil value deletes the node, matching the hosted
// backend's write-null-to-remove semantics.
func (g *Gateway) setLocked(segments []string, value interface{}) {
	parent := g.root
	for _, seg := range segments[:len(segments)-1] {
		child, ok := parent.children[seg]
		if !ok || !child.isContainer() {
			child = &node{children: map[string]*node{}}
			if !ok {
				parent.order = append(parent.order, seg)
			}
			parent.children[seg] = child
		}
		parent = child
	}

	last := segments[len(segments)-1]
	_, existed := parent.children[last]
	if value == nil {
		if existed {
			delete(parent.children, last)
			parent.order = removeString(parent.order, last)
		}
		return
	}
	if !existed {
		// New children append to the enumeration order; replacing an
		// existing child keeps its position.
		parent.order = append(parent.order, last)
	}
	parent.children[last] = buildNode(value)
}

func (g *Gateway) lookupLocked(segments []string) *node {
	n := g.root
	for _, seg := range segments {
		if n == nil || !n.isContainer() {
			return nil
		}
		n = n.children[seg]
	}
	return n
}

func (g *Gateway) snapshotLocked(path string) gateway.Snapshot {
	n := g.lookupLocked(gateway.SplitPath(path))
	snap := gateway.Snapshot{Path: path, Value: materialize(n)}
	if n != nil && n.isContainer() {
		snap.Keys = append([]string(nil), n.order...)
	}
	return snap
}

// notifyLocked pushes fresh snapshots to every subscription whose path
// overlaps the changed one: ancestors see the containing value change,
// descendants see their own value change.
func (g *Gateway) notifyLocked(changed string) {
	for path, chans := range g.subs {
		if !gateway.PathsOverlap(path, changed) {
			continue
		}
		snap := g.snapshotLocked(path)
		for _, ch := range chans {
			gateway.CoalescedSend(ch, snap)
		}
	}
}

// buildNode converts a JSON-shaped value into a subtree. Map keys sort
// lexically so a record's field enumeration is deterministic; list-level
// insertion order (the feed) is owned by setLocked, not here.
func buildNode(value interface{}) *node {
	m, ok := value.(map[string]interface{})
	if !ok {
		return &node{value: value}
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	n := &node{children: map[string]*node{}}
	for _, k := range keys {
		if m[k] == nil {
			continue
		}
		n.children[k] = buildNode(m[k])
		n.order = append(n.order, k)
	}
	return n
}

func materialize(n *node) interface{} {
	if n == nil {
		return nil
	}
	if !n.isContainer() {
		return n.value
	}
	m := map[string]interface{}{}
	for key, child := range n.children {
		m[key] = materialize(child)
	}
	return m
}

func numericValue(n *node) int64 {
	if n == nil || n.isContainer() {
		return 0
	}
	switch v := n.value.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
