// Package prompt implements timeout-bounded requests for a single human
// response: yes/no confirmations answered by one designated user, and quorum
// votes answered by reactions. Waiting is cooperative — a suspended prompt
// never blocks other command invocations — and every prompt resolves exactly
// once: with a response or with ErrTimeout, never both.
package prompt

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

// ErrTimeout is returned when no qualifying response arrives before the
// deadline. Callers treat it as "cancelled", not as an operational error.
var ErrTimeout = errors.New("prompt: timed out waiting for a response")

// Kind discriminates gateway events routed through the broker.
type Kind int

const (
	KindComponent Kind = iota // button click
	KindReaction              // message reaction
	KindMessage               // free-text message
)

// Event is one user interaction delivered from the gateway.
type Event struct {
	Kind      Kind
	UserID    string
	ChannelID string
	MessageID string
	CustomID  string // component custom id
	Emoji     string // reaction emoji API name
	Content   string // message content

	// Interaction is set for component events so the resolver can acknowledge
	// the click.
	Interaction *discordgo.InteractionCreate
}

// Broker fans gateway events out to registered waiters. The gateway publishes
// every component click, reaction, and message; a waiter receives the events
// its predicate matches, while it is registered.
type Broker struct {
	mu      sync.Mutex
	nextID  uint64
	waiters map[uint64]*waiter
}

type waiter struct {
	match func(Event) bool
	ch    chan Event
}

// NewBroker returns an empty broker.
func NewBroker() *Broker {
	return &Broker{waiters: make(map[uint64]*waiter)}
}

// Publish offers evt to every registered waiter whose predicate matches and
// reports whether at least one consumed it. Delivery is non-blocking: a
// waiter that already holds an undelivered event is skipped, which is fine —
// it is about to resolve and deregister anyway.
func (b *Broker) Publish(evt Event) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	consumed := false
	for _, w := range b.waiters {
		if !w.match(evt) {
			continue
		}
		select {
		case w.ch <- evt:
			consumed = true
		default:
		}
	}
	return consumed
}

// Await suspends until an event matching match arrives, the timeout lapses,
// or ctx is cancelled. The waiter is deregistered on every path, so a late
// duplicate response finds nobody and cannot resolve anything twice.
func (b *Broker) Await(ctx context.Context, match func(Event) bool, timeout time.Duration) (Event, error) {
	w := &waiter{match: match, ch: make(chan Event, 1)}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.waiters[id] = w
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.waiters, id)
		b.mu.Unlock()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case evt := <-w.ch:
		return evt, nil
	case <-timer.C:
		return Event{}, ErrTimeout
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// Waiting reports the number of registered waiters. Used by admin status and
// tests.
func (b *Broker) Waiting() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.waiters)
}
