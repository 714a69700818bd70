// Package session tracks long-lived interactive flows — trades, raids,
// pending confirmations with state — as named in-process sessions. A session
// occupies its (kind, key) slot for its whole lifetime; starting a duplicate
// fails fast instead of queueing, so a user cannot stack two trades and a
// guild cannot stack two raids.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"ashenrealm/internal/game"
)

// Session is one running flow.
type Session struct {
	Kind    string // "trade", "raid", ...
	Key     string // user ID or guild ID, depending on kind
	Value   any    // flow state, owned by the flow goroutine
	Started time.Time

	cancel context.CancelFunc
}

// Registry tracks running sessions. Safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	logger   *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		logger:   logger.Named("Session"),
	}
}

func slot(kind, key string) string { return kind + ":" + key }

// Start claims the (kind, key) slot and runs the flow in its own goroutine.
// If the slot is taken the call returns the user-facing "already busy" error
// and runs nothing. The slot is released when run returns, however it ends.
func (r *Registry) Start(kind, key string, value any, run func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{Kind: kind, Key: key, Value: value, Started: time.Now(), cancel: cancel}

	r.mu.Lock()
	if _, exists := r.sessions[slot(kind, key)]; exists {
		r.mu.Unlock()
		cancel()
		return game.SessionActive(kind)
	}
	r.sessions[slot(kind, key)] = s
	r.mu.Unlock()

	r.logger.Info("session started", zap.String("kind", kind), zap.String("key", key))

	go func() {
		defer cancel()
		if err := run(ctx); err != nil {
			r.logger.Warn("session ended with error",
				zap.String("kind", kind), zap.String("key", key), zap.Error(err))
		}

		r.mu.Lock()
		delete(r.sessions, slot(kind, key))
		r.mu.Unlock()
	}()

	return nil
}

// Stop cancels a running session and reports whether one was found. The slot
// is released by the flow goroutine once it observes the cancellation.
func (r *Registry) Stop(kind, key string) bool {
	r.mu.Lock()
	s, ok := r.sessions[slot(kind, key)]
	r.mu.Unlock()

	if !ok {
		return false
	}
	s.cancel()
	r.logger.Info("session stopped", zap.String("kind", kind), zap.String("key", key))
	return true
}

// Get returns the session occupying (kind, key), if any.
func (r *Registry) Get(kind, key string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[slot(kind, key)]
	return s, ok
}

// List snapshots all running sessions.
func (r *Registry) List() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}
