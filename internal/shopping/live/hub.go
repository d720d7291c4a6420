// Package live implements observable queries: a subscriber registers a loader
// and the tables it reads, receives the current snapshot, and then a fresh
// snapshot after every committed write that touches one of those tables.
package live

import (
	"context"
	"log/slog"
	"sync"
)

// Table names a record family that queries depend on.
type Table = string

const (
	TablePhotos Table = "photos"
	TableLists  Table = "lists"
	TableItems  Table = "items"
)

// Hub fans committed-write notifications out to live subscriptions.
type Hub struct {
	mu     sync.Mutex
	subs   map[uint64]*subscription
	nextID uint64
	logger *slog.Logger
}

type Option func(*Hub)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) {
		h.logger = logger
	}
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{subs: make(map[uint64]*subscription), logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type subscription struct {
	ctx     context.Context
	tables  map[Table]struct{}
	refresh func(ctx context.Context) error
}

func (s *subscription) watches(tables []Table) bool {
	for _, t := range tables {
		if _, ok := s.tables[t]; ok {
			return true
		}
	}
	return false
}

// Notify refreshes every subscription reading any of tables. It returns once
// each affected subscriber holds the new snapshot, so callers that notify
// while still holding their writer lock guarantee ordering against the next
// write.
func (h *Hub) Notify(ctx context.Context, tables ...Table) {
	if len(tables) == 0 {
		return
	}
	h.mu.Lock()
	affected := make([]*subscription, 0, len(h.subs))
	for _, s := range h.subs {
		if s.watches(tables) {
			affected = append(affected, s)
		}
	}
	h.mu.Unlock()

	for _, s := range affected {
		if s.ctx.Err() != nil {
			continue
		}
		if err := s.refresh(s.ctx); err != nil && s.ctx.Err() == nil {
			h.logger.WarnContext(ctx, "live query refresh failed", "tables", tables, "error", err)
		}
	}
}

// Len returns the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) add(s *subscription) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	h.subs[h.nextID] = s
	return h.nextID
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, id)
}

// Watch subscribes load to changes on tables. The returned channel first
// yields the current snapshot and afterwards the latest snapshot after each
// relevant commit; a reader that falls behind only ever sees the newest
// value. Cancelling ctx unsubscribes and closes the channel.
func Watch[T any](ctx context.Context, h *Hub, load func(ctx context.Context) (T, error), tables ...Table) (<-chan T, error) {
	out := &latest[T]{ch: make(chan T, 1)}

	// Loads are serialized per subscription so a snapshot taken before a
	// commit can never overwrite one taken after it.
	var loadMu sync.Mutex
	refresh := func(ctx context.Context) error {
		loadMu.Lock()
		defer loadMu.Unlock()
		snapshot, err := load(ctx)
		if err != nil {
			return err
		}
		out.put(snapshot)
		return nil
	}

	set := make(map[Table]struct{}, len(tables))
	for _, t := range tables {
		set[t] = struct{}{}
	}
	id := h.add(&subscription{ctx: ctx, tables: set, refresh: refresh})

	if err := refresh(ctx); err != nil {
		h.remove(id)
		return nil, err
	}

	go func() {
		<-ctx.Done()
		h.remove(id)
		out.close()
	}()
	return out.ch, nil
}

// latest is a one-slot channel where a new value replaces an unread one.
type latest[T any] struct {
	mu     sync.Mutex
	ch     chan T
	closed bool
}

func (l *latest[T]) put(v T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	for {
		select {
		case l.ch <- v:
			return
		default:
		}
		select {
		case <-l.ch:
		default:
		}
	}
}

func (l *latest[T]) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.closed = true
		close(l.ch)
	}
}
