package client

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/healthybites/healthybites/model"
)

// SignalBus fans in-process signals out to the views of this client
// instance. All internal state should not be handled directly by hand but
// managed by its public receivers.
type SignalBus struct {
	// subscribers maps channel id (uuid) to the actual channel, so that
	// deletion of a channel is O(1). Each entry is removed once its owning
	// view's context terminates.
	subscribers map[string]chan *model.Signal

	// Adding/Removing a subscription must grab WriteLock, while pushing a
	// new Signal grabs a ReadLock.
	mu sync.RWMutex
}

func NewSignalBus() *SignalBus {
	return &SignalBus{
		subscribers: make(map[string]chan *model.Signal),
	}
}

// cleanUp a single subscription when the context terminates.
func (b *SignalBus) cleanUp(ctx context.Context, chID string) {
	<-ctx.Done()

	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[chID]; ok {
		delete(b.subscribers, chID)
		close(ch)
	}
}

// Thread-safe
func (b *SignalBus) Subscribe(ctx context.Context) <-chan *model.Signal {
	chID := "signal_" + uuid.New().String()
	ch := make(chan *model.Signal, 1)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.subscribers[chID] = ch

	// Spin up a background garbage collector.
	go b.cleanUp(ctx, chID)

	return ch
}

// Thread-safe
func (b *SignalBus) ActiveSubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subscribers)
}

// Publish pushes the signal to every subscriber. A subscriber that has not
// drained its previous signal is skipped: an undelivered signal of the same
// kind already carries the information.
//
// Thread-safe
func (b *SignalBus) Publish(signal *model.Signal) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- signal:
		default:
		}
	}
}
