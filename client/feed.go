package client

import (
	"context"
	"sort"
	"sync"

	"github.com/jinzhu/copier"

	"github.com/healthybites/healthybites/gateway"
	"github.com/healthybites/healthybites/model"
	"github.com/healthybites/healthybites/utils/log"
)

// FeedView is the render state behind the feed screen: the latest projected
// snapshot of /posts/, plus the staleness flag raised by FEED_STALE signals
// between pushes.
type FeedView struct {
	mu       sync.RWMutex
	snapshot model.FeedSnapshot
	stale    bool
	onChange func(model.FeedSnapshot)
}

// NewFeedView creates a detached view. onChange, if non-nil, is invoked with
// each replaced snapshot (the render hook); it must not call back into the
// view.
func NewFeedView(onChange func(model.FeedSnapshot)) *FeedView {
	return &FeedView{onChange: onChange}
}

// Attach opens the /posts/ projection and the signal subscription. Both
// detach when ctx is cancelled, i.e. when the feed screen unmounts.
func (f *FeedView) Attach(ctx context.Context, projector *Projector, bus *SignalBus) error {
	signals := bus.Subscribe(ctx)
	go func() {
		for sig := range signals {
			if sig.SignalType == model.SignalTypeFeedStale {
				f.MarkStale()
			}
		}
	}()

	return projector.Project(ctx, gateway.PostsRoot, f.apply)
}

func (f *FeedView) apply(snap gateway.Snapshot) {
	projected := ProjectFeed(snap)

	f.mu.Lock()
	f.snapshot = projected
	f.stale = false
	f.mu.Unlock()

	if f.onChange != nil {
		f.onChange(projected)
	}
}

// Snapshot returns a deep copy of the current feed state, so render code can
// never alias the view's internal slice.
func (f *FeedView) Snapshot() model.FeedSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var out model.FeedSnapshot
	if err := copier.CopyWithOption(&out, &f.snapshot, copier.Option{DeepCopy: true}); err != nil {
		log.Log.WithError(err).Error("copy feed snapshot")
		return nil
	}
	return out
}

// Empty reports whether the feed has no recipes, the state the UI renders as
// "No Recipes Available".
func (f *FeedView) Empty() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snapshot.Empty()
}

// Stale reports whether a FEED_STALE signal arrived after the last push.
func (f *FeedView) Stale() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.stale
}

func (f *FeedView) MarkStale() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stale = true
}

// ProjectFeed turns one /posts/ push into the ordered {key, value} sequence
// the feed renders. Each push replaces the previous snapshot wholesale; an
// absent or empty node projects to an empty sequence. Ordering follows the
// gateway's child enumeration; records that fail to decode are logged and
// skipped rather than poisoning the rest of the feed.
func ProjectFeed(snap gateway.Snapshot) model.FeedSnapshot {
	projected := model.FeedSnapshot{}
	if snap.Value == nil {
		return projected
	}

	records, ok := snap.Value.(map[string]interface{})
	if !ok {
		log.Log.WithField("path", snap.Path).Error("feed node is not a container")
		return projected
	}

	keys := snap.Keys
	if len(keys) == 0 {
		// Gateways that cannot report enumeration order fall back to a
		// deterministic one.
		for key := range records {
			keys = append(keys, key)
		}
		sort.Strings(keys)
	}

	for _, key := range keys {
		raw, ok := records[key]
		if !ok {
			continue
		}
		var post model.RecipePost
		if err := model.FromTree(raw, &post); err != nil {
			log.Log.WithError(err).WithField("key", key).Error("skip undecodable post")
			continue
		}
		projected = append(projected, model.FeedItem{Key: key, Post: post})
	}
	return projected
}
