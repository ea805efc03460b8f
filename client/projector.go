package client

import (
	"context"
	"reflect"

	"github.com/pkg/errors"

	"github.com/healthybites/healthybites/gateway"
	"github.com/healthybites/healthybites/utils/log"
)

// Projector binds live gateway subscriptions to local render state. One
// projector serves any number of independent projections; there is no
// ordering guarantee between them.
type Projector struct {
	gw gateway.Gateway
}

func NewProjector(gw gateway.Gateway) *Projector {
	return &Projector{gw: gw}
}

// Project subscribes to path and invokes onUpdate with every distinct pushed
// snapshot, the registration-time value included, until ctx is cancelled.
// Pushes deep-equal to the previously delivered one are dropped, so
// downstream state is only touched when the value actually changed.
//
// Project returns once the subscription is registered; delivery runs on a
// background goroutine, which terminates when the gateway closes the
// channel after ctx cancellation. Cancelling is mandatory on screen
// teardown, otherwise the subscription leaks.
func (p *Projector) Project(ctx context.Context, path string, onUpdate func(gateway.Snapshot)) error {
	ch, err := p.gw.Subscribe(ctx, path)
	if err != nil {
		return errors.Wrapf(err, "subscribe %s", path)
	}

	go func() {
		var last gateway.Snapshot
		seen := false
		for snap := range ch {
			if seen && reflect.DeepEqual(last, snap) {
				continue
			}
			last = snap
			seen = true
			onUpdate(snap)
		}
		log.Log.WithField("path", path).Debug("projection detached")
	}()

	return nil
}
