package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/healthybites/healthybites/model"
)

func TestSignalBusSubscription(t *testing.T) {
	bus := NewSignalBus()
	ctx, cancel := context.WithCancel(context.Background())

	ch := bus.Subscribe(ctx)
	assert.Equal(t, 1, bus.ActiveSubscriberCount())

	done := make(chan interface{})
	go func() {
		sig := <-ch
		assert.Equal(t, &model.Signal{SignalType: model.SignalTypeFeedStale}, sig)
		done <- 0
	}()

	bus.Publish(&model.Signal{SignalType: model.SignalTypeFeedStale})
	<-done

	cancel()

	assert.Eventually(t, func() bool { return bus.ActiveSubscriberCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	_, open := <-ch
	assert.False(t, open)
}

func TestSignalBusMultipleSubscribers(t *testing.T) {
	bus := NewSignalBus()
	ctx1, cancel1 := context.WithCancel(context.Background())
	ctx2, cancel2 := context.WithCancel(context.Background())

	ch1 := bus.Subscribe(ctx1)
	ch2 := bus.Subscribe(ctx2)
	assert.Equal(t, 2, bus.ActiveSubscriberCount())

	bus.Publish(&model.Signal{SignalType: model.SignalTypeFeedStale})
	assert.Equal(t, model.SignalTypeFeedStale, (<-ch1).SignalType)
	assert.Equal(t, model.SignalTypeFeedStale, (<-ch2).SignalType)

	cancel1()
	cancel2()
	assert.Eventually(t, func() bool { return bus.ActiveSubscriberCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestSignalBusDoesNotBlockOnUndrainedSubscriber(t *testing.T) {
	bus := NewSignalBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := bus.Subscribe(ctx)

	// Two publishes with nobody draining: the second is dropped, and the
	// pending one still carries the staleness information.
	bus.Publish(&model.Signal{SignalType: model.SignalTypeFeedStale})
	bus.Publish(&model.Signal{SignalType: model.SignalTypeFeedStale})

	assert.Equal(t, model.SignalTypeFeedStale, (<-ch).SignalType)
	select {
	case sig := <-ch:
		t.Fatalf("unexpected second signal: %v", sig)
	default:
	}
}
