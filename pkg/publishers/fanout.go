package publishers

import (
	"context"
	"errors"
	"fmt"
)

// Fanout delivers each acquired-episode event to every configured sink.
// Delivery failures are independent: one sink rejecting an event never
// stops the others from receiving it.
type Fanout struct {
	publishers []Publisher
}

// NewFanout builds a fan-out over the given publishers, dropping nils.
func NewFanout(pubs []Publisher) *Fanout {
	kept := make([]Publisher, 0, len(pubs))
	for _, p := range pubs {
		if p != nil {
			kept = append(kept, p)
		}
	}
	return &Fanout{publishers: kept}
}

// Publish hands the event to every sink and returns how many accepted it,
// with the per-sink failures joined into one error.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	if f == nil || len(f.publishers) == 0 {
		return 0, nil
	}

	var errs []error
	delivered := 0
	for _, p := range f.publishers {
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, fmt.Errorf("%s publisher[%s]: %w", p.Type(), p.ID(), err))
			continue
		}
		delivered++
	}
	return delivered, errors.Join(errs...)
}

// Size returns the number of active sinks.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.publishers)
}
