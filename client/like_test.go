package client

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikeToggleIsStrictTwoStateMachine(t *testing.T) {
	gw := newFakeGateway()
	ctrl := NewLikeController(gw, "abc123", 5)
	ctx := context.Background()

	state, err := ctrl.Like(ctx)
	require.NoError(t, err)
	assert.Equal(t, LikeState{IsLiked: true, Likes: 6}, state)

	// Repeated like without an intervening unlike is state-gated: no local
	// double-increment and no second network call.
	state, err = ctrl.Like(ctx)
	require.NoError(t, err)
	assert.Equal(t, LikeState{IsLiked: true, Likes: 6}, state)
	require.Len(t, gw.incrementCalls(), 1)
	assert.Equal(t, fakeIncrement{path: "/posts/abc123/likes", delta: 1}, gw.incrementCalls()[0])

	state, err = ctrl.Unlike(ctx)
	require.NoError(t, err)
	assert.Equal(t, LikeState{IsLiked: false, Likes: 5}, state)

	calls := gw.incrementCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, fakeIncrement{path: "/posts/abc123/likes", delta: -1}, calls[1])
}

func TestLikeToggleAlternates(t *testing.T) {
	gw := newFakeGateway()
	ctrl := NewLikeController(gw, "abc123", 0)
	ctx := context.Background()

	state, err := ctrl.Toggle(ctx)
	require.NoError(t, err)
	assert.Equal(t, LikeState{IsLiked: true, Likes: 1}, state)

	state, err = ctrl.Toggle(ctx)
	require.NoError(t, err)
	assert.Equal(t, LikeState{IsLiked: false, Likes: 0}, state)

	assert.Len(t, gw.incrementCalls(), 2)
}

func TestLikeRollsBackOnWriteFailure(t *testing.T) {
	gw := newFakeGateway()
	gw.incrementErr = errors.New("backend unavailable")
	ctrl := NewLikeController(gw, "abc123", 3)

	state, err := ctrl.Like(context.Background())
	require.Error(t, err)
	assert.Equal(t, LikeState{IsLiked: false, Likes: 3}, state)
	assert.Equal(t, LikeState{IsLiked: false, Likes: 3}, ctrl.State())
	assert.Empty(t, gw.incrementCalls())
}
