package events

import (
	"context"
	"errors"
)

var ErrBusFull = errors.New("event bus buffer full")

// LocalBus fans events out inside one process.
type LocalBus struct {
	ch chan Event
}

func NewLocalBus(buffer int) *LocalBus {
	return &LocalBus{ch: make(chan Event, buffer)}
}

// Publish never blocks; events are dropped when the buffer is full.
func (b *LocalBus) Publish(ctx context.Context, e Event) error {
	select {
	case b.ch <- e:
		return nil
	default:
		return ErrBusFull
	}
}

func (b *LocalBus) Run(ctx context.Context, handle func(Event)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-b.ch:
			handle(e)
		}
	}
}
