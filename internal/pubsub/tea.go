package pubsub

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// ListenCmd creates a Bubble Tea command that waits for the next event on ch.
// Returns nil if the context is cancelled or the channel is closed.
func ListenCmd[T any](ctx context.Context, ch <-chan Event[T]) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-ch:
			if !ok {
				return nil
			}
			return event
		}
	}
}

// LatestCmd waits for one event and then drains anything already buffered,
// returning only the newest. Progress streams use it so a slow update loop
// never replays stale progress.
func LatestCmd[T any](ctx context.Context, ch <-chan Event[T]) tea.Cmd {
	return func() tea.Msg {
		var latest Event[T]
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-ch:
			if !ok {
				return nil
			}
			latest = event
		}
		for {
			select {
			case event, ok := <-ch:
				if !ok {
					return latest
				}
				latest = event
			default:
				return latest
			}
		}
	}
}

// ContinuousListener keeps a broker subscription alive across update cycles.
type ContinuousListener[T any] struct {
	ctx    context.Context
	ch     <-chan Event[T]
	latest bool
}

// NewContinuousListener creates a listener subscribed to broker.
// The subscription is cleaned up when the context is cancelled.
func NewContinuousListener[T any](ctx context.Context, broker *Broker[T]) *ContinuousListener[T] {
	return &ContinuousListener[T]{
		ctx: ctx,
		ch:  broker.Subscribe(ctx),
	}
}

// NewCoalescingListener is like NewContinuousListener but each Listen
// delivers only the newest buffered event.
func NewCoalescingListener[T any](ctx context.Context, broker *Broker[T]) *ContinuousListener[T] {
	l := NewContinuousListener(ctx, broker)
	l.latest = true
	return l
}

// Listen returns a tea.Cmd that waits for the next event.
// Call it again from Update after handling each event.
func (l *ContinuousListener[T]) Listen() tea.Cmd {
	if l.latest {
		return LatestCmd(l.ctx, l.ch)
	}
	return ListenCmd(l.ctx, l.ch)
}
