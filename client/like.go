package client

import (
	"context"
	"sync"

	"github.com/healthybites/healthybites/gateway"
	"github.com/healthybites/healthybites/utils/log"
)

// LikeState is the viewer's client-local like state for one recipe. IsLiked
// is not derived from server data: no per-user like ledger exists backend
// side, so it seeds to false on every mount. A user can therefore like the
// same recipe again in a later session; whether that is intended product
// behavior is an open product question, flagged rather than silently fixed.
type LikeState struct {
	IsLiked bool
	Likes   int
}

// LikeController is a strict two-state machine (not-liked <-> liked) driving
// the like button of one recipe card. Each transition applies the local
// change first, then issues exactly one atomic ±1 on the backend counter.
// The increment must stay a single server-side atomic operation: concurrent
// likers from other devices would lose updates under read-modify-write.
type LikeController struct {
	gw      gateway.Gateway
	postKey string

	mu    sync.Mutex
	state LikeState
}

// NewLikeController seeds from the like count the feed projection delivered
// for this recipe; the viewer always starts not-liked.
func NewLikeController(gw gateway.Gateway, postKey string, initialLikes int) *LikeController {
	return &LikeController{
		gw:      gw,
		postKey: postKey,
		state:   LikeState{Likes: initialLikes},
	}
}

func (c *LikeController) State() LikeState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Like transitions not-liked -> liked. A repeated Like without an
// intervening Unlike is a state-gated no-op: it must not double-increment
// either the local count or the backend counter.
func (c *LikeController) Like(ctx context.Context) (LikeState, error) {
	return c.transition(ctx, true)
}

// Unlike transitions liked -> not-liked, symmetric to Like.
func (c *LikeController) Unlike(ctx context.Context) (LikeState, error) {
	return c.transition(ctx, false)
}

// Toggle flips to the other state, the tap handler of the like button.
func (c *LikeController) Toggle(ctx context.Context) (LikeState, error) {
	c.mu.Lock()
	liked := c.state.IsLiked
	c.mu.Unlock()
	return c.transition(ctx, !liked)
}

func (c *LikeController) transition(ctx context.Context, toLiked bool) (LikeState, error) {
	c.mu.Lock()
	if c.state.IsLiked == toLiked {
		state := c.state
		c.mu.Unlock()
		return state, nil
	}

	delta := int64(1)
	if !toLiked {
		delta = -1
	}

	// Optimistic: the local state changes before the network leg resolves.
	c.state.IsLiked = toLiked
	c.state.Likes += int(delta)
	optimistic := c.state
	c.mu.Unlock()

	if err := c.gw.AtomicIncrement(ctx, gateway.PostLikesPath(c.postKey), delta); err != nil {
		// The original client dropped this failure on the floor, letting the
		// local count drift forever. Here the optimistic change is rolled
		// back and the failure logged.
		log.Log.WithError(err).WithField("post", c.postKey).Error("like increment failed, rolling back")

		c.mu.Lock()
		c.state.IsLiked = !toLiked
		c.state.Likes -= int(delta)
		rolledBack := c.state
		c.mu.Unlock()
		return rolledBack, err
	}

	return optimistic, nil
}
