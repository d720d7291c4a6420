// Package orchestrator turns recognized text into a persisted shopping list.
package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"listsnap/internal/parser"
	"listsnap/internal/platform/metrics"
	"listsnap/internal/shopping/models"
	"listsnap/internal/shopping/store"
	id "listsnap/pkg/domain"
	dErrors "listsnap/pkg/domain-errors"
	"listsnap/pkg/requestcontext"
)

const (
	msgNoItemsDetected = "no items were detected in the recognized text"
	msgCreationFailed  = "the shopping list could not be created"
)

// Store is the transactional boundary the orchestrator writes through.
type Store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, stores store.Stores) error) error
}

// Orchestrator creates a list and all of its items in one transaction.
type Orchestrator struct {
	store   Store
	now     func(ctx context.Context) time.Time
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithClock replaces the request-scoped clock used to name new lists.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = func(context.Context) time.Time { return now() }
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(o *Orchestrator) {
		o.tracer = tracer
	}
}

func New(st Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:  st,
		now:    requestcontext.Now,
		logger: slog.Default(),
		tracer: otel.Tracer("listsnap/orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.metrics == nil {
		o.metrics = metrics.NewNoop()
	}
	return o
}

// CreateListFromText parses text and stores one list holding every parsed
// item, linked to photoID when it is non-nil. Text without items fails with
// CodeNoItemsDetected before the store is touched; any store failure fails
// with CodeCreationFailed and leaves no partial rows.
func (o *Orchestrator) CreateListFromText(ctx context.Context, photoID *id.PhotoID, text string) (id.ListID, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.CreateListFromText")
	defer span.End()
	start := time.Now()

	candidates := parser.Parse(text)
	span.SetAttributes(attribute.Int("listsnap.candidates", len(candidates)))
	if len(candidates) == 0 {
		o.metrics.ObserveListCreationFailed(string(dErrors.CodeNoItemsDetected))
		span.SetStatus(codes.Error, string(dErrors.CodeNoItemsDetected))
		return id.ListID{}, dErrors.New(dErrors.CodeNoItemsDetected, msgNoItemsDetected)
	}

	list := models.NewShoppingList(photoID, o.now(ctx))
	list.ID = id.NewListID()

	err := o.store.RunInTx(ctx, func(ctx context.Context, stores store.Stores) error {
		listID, err := stores.Lists().Insert(ctx, list)
		if err != nil {
			return err
		}
		_, err = stores.Items().InsertMany(ctx, models.ItemsFromCandidates(listID, candidates))
		return err
	})
	if err != nil {
		o.logger.ErrorContext(ctx, "list creation failed",
			"request_id", requestcontext.RequestID(ctx),
			"candidates", len(candidates),
			"error", err,
		)
		o.metrics.ObserveListCreationFailed(string(dErrors.CodeCreationFailed))
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeCreationFailed))
		return id.ListID{}, dErrors.Wrap(err, dErrors.CodeCreationFailed, msgCreationFailed)
	}

	o.metrics.ObserveListCreated(len(candidates), time.Since(start).Seconds())
	span.SetAttributes(attribute.String("listsnap.list_id", list.ID.String()))
	o.logger.InfoContext(ctx, "list created",
		"list_id", list.ID.String(),
		"items", len(candidates),
	)
	return list.ID, nil
}
