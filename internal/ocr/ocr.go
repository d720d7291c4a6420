// Package ocr is the boundary to text recognition engines. An engine takes a
// reference to a stored image and returns the text it found together with
// the resulting OCR status.
package ocr

import (
	"context"
	"errors"

	"listsnap/internal/shopping/models"
)

// ErrEngineDisabled is returned when no engine is configured.
var ErrEngineDisabled = errors.New("ocr engine disabled")

// Recognition is the outcome of one recognition call. Status is either
// OCRCompleted or OCRFailed.
type Recognition struct {
	Text   string
	Status models.OCRStatus
}

type Engine interface {
	Recognize(ctx context.Context, imageRef string) (Recognition, error)
}

// Disabled rejects every call.
type Disabled struct{}

func (Disabled) Recognize(context.Context, string) (Recognition, error) {
	return Recognition{Status: models.OCRFailed}, ErrEngineDisabled
}
