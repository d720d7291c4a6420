// Package repository is the boundary the HTTP layer and workers talk to. Every
// method returns either its value or a *dErrors.Error; driver errors never
// leave this package. Collection reads are live: Watch methods push a fresh
// snapshot after each committed write that affects them.
package repository

import (
	"context"
	"errors"
	"log/slog"

	"listsnap/internal/shopping/live"
	"listsnap/internal/shopping/store"
	dErrors "listsnap/pkg/domain-errors"
	"listsnap/pkg/platform/sentinel"
)

// Store is the data store as seen by repositories.
type Store interface {
	store.Stores
	store.TxRunner
}

type Option func(*base)

func WithLogger(logger *slog.Logger) Option {
	return func(b *base) {
		b.logger = logger
	}
}

type base struct {
	store  Store
	hub    *live.Hub
	logger *slog.Logger
}

func newBase(st Store, hub *live.Hub, opts []Option) base {
	b := base{store: st, hub: hub, logger: slog.Default()}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// normalize converts a store failure into a *dErrors.Error. entity names the
// record in user-facing messages.
func (b *base) normalize(ctx context.Context, err error, entity, op string) error {
	if err == nil {
		return nil
	}
	if de, ok := dErrors.As(err); ok {
		return de
	}

	var out *dErrors.Error
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, entity+" not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, entity+" conflicts with existing data")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeInvalidState, entity+" is not in a valid state for this change")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		out = dErrors.Wrap(err, dErrors.CodeTimeout, "the request took too long")
	case errors.Is(err, sentinel.ErrUnavailable):
		out = dErrors.Wrap(err, dErrors.CodeUnavailable, "storage is temporarily unavailable")
	default:
		out = dErrors.Wrap(err, dErrors.CodeInternal, "could not "+op+" "+entity)
	}
	b.logger.ErrorContext(ctx, "repository operation failed", "entity", entity, "op", op, "error", err)
	return out
}

// absent maps a not-found lookup to (nil, nil).
func absent[T any](v *T, err error) (*T, error) {
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	return v, err
}
