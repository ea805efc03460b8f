package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthybites/healthybites/gateway"
	"github.com/healthybites/healthybites/gateway/memory"
	"github.com/healthybites/healthybites/model"
)

func TestProjectFeedEmptyNode(t *testing.T) {
	snap := gateway.Snapshot{Path: "/posts"}

	projected := ProjectFeed(snap)
	assert.Len(t, projected, 0)
	assert.True(t, projected.Empty())
}

func TestProjectFeedSingleRecord(t *testing.T) {
	snap := gateway.Snapshot{
		Path: "/posts",
		Value: map[string]interface{}{
			"abc123": map[string]interface{}{
				"preview_image": "image_1",
				"title":         "Soup",
				"description":   "A soup",
				"recipe":        "Boil water.",
				"author":        "Jane Doe",
				"author_uid":    "uid_1",
				"created_on":    "Mon Jun 05 2023 10:00:00",
				"likes":         float64(5),
			},
		},
		Keys: []string{"abc123"},
	}

	projected := ProjectFeed(snap)
	require.Len(t, projected, 1)
	assert.Equal(t, "abc123", projected[0].Key)
	assert.Equal(t, "Soup", projected[0].Post.Title)
	assert.Equal(t, 5, projected[0].Post.Likes)
	assert.Equal(t, model.PreviewImage1, projected[0].Post.PreviewImage)
	assert.Equal(t, "uid_1", projected[0].Post.AuthorUID)
}

func TestProjectFeedPreservesEnumerationOrder(t *testing.T) {
	records := map[string]interface{}{
		"zzz": map[string]interface{}{"title": "Last inserted first"},
		"aaa": map[string]interface{}{"title": "First inserted last"},
	}
	snap := gateway.Snapshot{Path: "/posts", Value: records, Keys: []string{"zzz", "aaa"}}

	projected := ProjectFeed(snap)
	require.Len(t, projected, 2)
	assert.Equal(t, "zzz", projected[0].Key)
	assert.Equal(t, "aaa", projected[1].Key)
}

func TestProjectFeedSkipsUndecodableRecord(t *testing.T) {
	snap := gateway.Snapshot{
		Path: "/posts",
		Value: map[string]interface{}{
			"good": map[string]interface{}{"title": "Soup"},
			"bad":  "not a record",
		},
		Keys: []string{"good", "bad"},
	}

	projected := ProjectFeed(snap)
	require.Len(t, projected, 1)
	assert.Equal(t, "good", projected[0].Key)
}

func TestFeedViewEndToEnd(t *testing.T) {
	gw := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewSignalBus()
	view := NewFeedView(nil)
	require.NoError(t, view.Attach(ctx, NewProjector(gw), bus))

	// Zero records in, zero-length sequence out: the empty-state signal.
	assert.Eventually(t, func() bool { return view.Empty() }, 2*time.Second, 10*time.Millisecond)

	post := map[string]interface{}{
		"preview_image": "image_2",
		"title":         "Pasta",
		"description":   "Dinner",
		"recipe":        "Cook pasta.",
		"author":        "Jane Doe",
		"author_uid":    "uid_1",
		"created_on":    "Mon Jun 05 2023 10:00:00",
		"likes":         float64(0),
	}
	require.NoError(t, gw.Write(ctx, "/posts/abc123", post))

	assert.Eventually(t, func() bool {
		snap := view.Snapshot()
		return len(snap) == 1 && snap[0].Key == "abc123" && snap[0].Post.Title == "Pasta"
	}, 2*time.Second, 10*time.Millisecond)

	// A stale signal marks the view until the next push replaces it.
	bus.Publish(&model.Signal{SignalType: model.SignalTypeFeedStale})
	assert.Eventually(t, func() bool { return view.Stale() }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, gw.Write(ctx, "/posts/def456", map[string]interface{}{"title": "Soup"}))
	assert.Eventually(t, func() bool {
		return len(view.Snapshot()) == 2 && !view.Stale()
	}, 2*time.Second, 10*time.Millisecond)

	// Insertion order, not lexical order.
	snap := view.Snapshot()
	assert.Equal(t, "abc123", snap[0].Key)
	assert.Equal(t, "def456", snap[1].Key)
}

func TestFeedViewSnapshotIsACopy(t *testing.T) {
	gw := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	view := NewFeedView(nil)
	require.NoError(t, view.Attach(ctx, NewProjector(gw), NewSignalBus()))

	require.NoError(t, gw.Write(ctx, "/posts/abc123", map[string]interface{}{"title": "Soup"}))
	assert.Eventually(t, func() bool { return len(view.Snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)

	mutated := view.Snapshot()
	mutated[0].Post.Title = "Tampered"
	assert.Equal(t, "Soup", view.Snapshot()[0].Post.Title)
}

func TestFeedViewRoundTripFidelity(t *testing.T) {
	gw := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	keys := []string{"k1", "k2", "k3"}
	for i, key := range keys {
		require.NoError(t, gw.Write(ctx, gateway.PostPath(key), map[string]interface{}{
			"preview_image": "image_1",
			"title":         key + " title",
			"description":   key + " description",
			"recipe":        key + " body",
			"author":        "Jane Doe",
			"author_uid":    "uid_1",
			"created_on":    "Mon Jun 05 2023 10:00:00",
			"likes":         float64(i),
		}))
	}

	view := NewFeedView(nil)
	require.NoError(t, view.Attach(ctx, NewProjector(gw), NewSignalBus()))

	assert.Eventually(t, func() bool { return len(view.Snapshot()) == len(keys) }, 2*time.Second, 10*time.Millisecond)

	snap := view.Snapshot()
	for i, key := range keys {
		assert.Equal(t, key, snap[i].Key)
		assert.Equal(t, key+" title", snap[i].Post.Title)
		assert.Equal(t, key+" description", snap[i].Post.Description)
		assert.Equal(t, key+" body", snap[i].Post.Recipe)
		assert.Equal(t, i, snap[i].Post.Likes)
	}
}
