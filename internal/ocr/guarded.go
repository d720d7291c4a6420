package ocr

import (
	"context"
	"errors"
	"log/slog"

	"listsnap/internal/shopping/models"
	"listsnap/pkg/platform/circuit"
)

// ErrCircuitOpen is returned while the engine is considered unhealthy.
var ErrCircuitOpen = errors.New("ocr engine circuit open")

// Guarded stops calling an engine after repeated failures until the breaker's
// cooldown lets a probe through.
type Guarded struct {
	engine  Engine
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewGuarded(engine Engine, breaker *circuit.Breaker, logger *slog.Logger) *Guarded {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guarded{engine: engine, breaker: breaker, logger: logger}
}

func (g *Guarded) Recognize(ctx context.Context, imageRef string) (Recognition, error) {
	if !g.breaker.Allow() {
		return Recognition{Status: models.OCRFailed}, ErrCircuitOpen
	}
	rec, err := g.engine.Recognize(ctx, imageRef)
	if err != nil {
		// caller cancellation says nothing about engine health
		if ctx.Err() != nil {
			return rec, err
		}
		if _, change := g.breaker.RecordFailure(); change.Opened {
			g.logger.WarnContext(ctx, "ocr circuit opened", "breaker", g.breaker.Name(), "error", err)
		}
		return rec, err
	}
	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.InfoContext(ctx, "ocr circuit closed", "breaker", g.breaker.Name())
	}
	return rec, nil
}
