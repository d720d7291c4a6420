// Package scan runs a stored photo through OCR and turns the recognized text
// into a shopping list, tracking progress in the photo's OCR status.
package scan

import (
	"context"
	"errors"
	"log/slog"

	"listsnap/internal/ocr"
	"listsnap/internal/shopping/models"
	id "listsnap/pkg/domain"
	dErrors "listsnap/pkg/domain-errors"
)

type Photos interface {
	ClaimForRecognition(ctx context.Context, photoID id.PhotoID) (*models.Photo, error)
	UpdateOCRStatus(ctx context.Context, photoID id.PhotoID, status models.OCRStatus) error
}

type ListCreator interface {
	CreateListFromText(ctx context.Context, photoID *id.PhotoID, text string) (id.ListID, error)
}

// Processor drives PENDING/FAILED -> PROCESSING -> COMPLETED|FAILED.
type Processor struct {
	photos  Photos
	engine  ocr.Engine
	creator ListCreator
	logger  *slog.Logger
}

type Option func(*Processor)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

func New(photos Photos, engine ocr.Engine, creator ListCreator, opts ...Option) *Processor {
	p := &Processor{photos: photos, engine: engine, creator: creator, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process recognizes the photo and creates a list from its text. A photo
// whose text yields no items ends FAILED so the scan can be retried.
func (p *Processor) Process(ctx context.Context, photoID id.PhotoID) (id.ListID, error) {
	photo, err := p.photos.ClaimForRecognition(ctx, photoID)
	if err != nil {
		return id.ListID{}, err
	}

	rec, err := p.engine.Recognize(ctx, photo.FilePath)
	if err != nil || rec.Status != models.OCRCompleted {
		p.fail(ctx, photoID)
		if errors.Is(err, ocr.ErrEngineDisabled) {
			return id.ListID{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "text recognition is not configured")
		}
		if errors.Is(err, ocr.ErrCircuitOpen) {
			return id.ListID{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "text recognition is temporarily unavailable")
		}
		if err != nil {
			p.logger.ErrorContext(ctx, "text recognition failed", "photo_id", photoID.String(), "error", err)
			return id.ListID{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "text recognition failed")
		}
		return id.ListID{}, dErrors.New(dErrors.CodeNoItemsDetected, "no text was recognized in the photo")
	}

	listID, err := p.creator.CreateListFromText(ctx, &photoID, rec.Text)
	if err != nil {
		p.fail(ctx, photoID)
		return id.ListID{}, err
	}
	if err := p.photos.UpdateOCRStatus(ctx, photoID, models.OCRCompleted); err != nil {
		return id.ListID{}, err
	}
	p.logger.InfoContext(ctx, "photo scanned", "photo_id", photoID.String(), "list_id", listID.String())
	return listID, nil
}

func (p *Processor) fail(ctx context.Context, photoID id.PhotoID) {
	if err := p.photos.UpdateOCRStatus(ctx, photoID, models.OCRFailed); err != nil {
		p.logger.WarnContext(ctx, "could not mark photo failed", "photo_id", photoID.String(), "error", err)
	}
}
