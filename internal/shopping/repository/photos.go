package repository

import (
	"context"
	"fmt"
	"strings"

	"listsnap/internal/platform/metrics"
	"listsnap/internal/shopping/live"
	"listsnap/internal/shopping/models"
	"listsnap/internal/shopping/store"
	id "listsnap/pkg/domain"
	dErrors "listsnap/pkg/domain-errors"
	"listsnap/pkg/platform/sentinel"
)

const entityPhoto = "photo"

type PhotoRepository struct {
	base
	metrics *metrics.Metrics
}

func NewPhotoRepository(st Store, hub *live.Hub, m *metrics.Metrics, opts ...Option) *PhotoRepository {
	if m == nil {
		m = metrics.NewNoop()
	}
	return &PhotoRepository{base: newBase(st, hub, opts), metrics: m}
}

// Watch streams all photos, newest first.
func (r *PhotoRepository) Watch(ctx context.Context) (<-chan []*models.Photo, error) {
	ch, err := live.Watch(ctx, r.hub, r.store.Photos().ListAll, live.TablePhotos)
	return ch, r.normalize(ctx, err, entityPhoto, "load")
}

func (r *PhotoRepository) List(ctx context.Context) ([]*models.Photo, error) {
	photos, err := r.store.Photos().ListAll(ctx)
	return photos, r.normalize(ctx, err, entityPhoto, "load")
}

// FindByID returns nil without error when the photo does not exist.
func (r *PhotoRepository) FindByID(ctx context.Context, photoID id.PhotoID) (*models.Photo, error) {
	photo, err := r.store.Photos().FindByID(ctx, photoID)
	photo, err = absent(photo, err)
	return photo, r.normalize(ctx, err, entityPhoto, "load")
}

func (r *PhotoRepository) Insert(ctx context.Context, photo *models.Photo) (id.PhotoID, error) {
	if err := validatePhoto(photo); err != nil {
		return id.PhotoID{}, err
	}
	photoID, err := r.store.Photos().Insert(ctx, photo)
	return photoID, r.normalize(ctx, err, entityPhoto, "save")
}

// Update saves the photo. A changed OCR status must be a valid transition
// from the stored one.
func (r *PhotoRepository) Update(ctx context.Context, photo *models.Photo) error {
	if err := validatePhoto(photo); err != nil {
		return err
	}
	var from models.OCRStatus
	changed := false
	err := r.store.RunInTx(ctx, func(ctx context.Context, stores store.Stores) error {
		current, err := stores.Photos().FindByID(ctx, photo.ID)
		if err != nil {
			return err
		}
		from = current.OCRStatus
		if from != photo.OCRStatus {
			if !from.CanTransitionTo(photo.OCRStatus) {
				return fmt.Errorf("ocr status %s -> %s: %w", from, photo.OCRStatus, sentinel.ErrInvalidState)
			}
			changed = true
		}
		return stores.Photos().Update(ctx, photo)
	})
	if err != nil {
		return r.normalize(ctx, err, entityPhoto, "update")
	}
	if changed {
		r.metrics.ObserveOCRStatus(photo.OCRStatus.String())
	}
	return nil
}

// Delete removes the photo. Lists created from it remain, unlinked.
func (r *PhotoRepository) Delete(ctx context.Context, photoID id.PhotoID) error {
	return r.normalize(ctx, r.store.Photos().Delete(ctx, photoID), entityPhoto, "delete")
}

// UpdateOCRStatus moves the photo to status if the transition is allowed.
// Setting the current status again is a no-op.
func (r *PhotoRepository) UpdateOCRStatus(ctx context.Context, photoID id.PhotoID, status models.OCRStatus) error {
	changed := false
	err := r.store.RunInTx(ctx, func(ctx context.Context, stores store.Stores) error {
		photo, err := stores.Photos().FindByID(ctx, photoID)
		if err != nil {
			return err
		}
		if photo.OCRStatus == status {
			return nil
		}
		if !photo.OCRStatus.CanTransitionTo(status) {
			return fmt.Errorf("ocr status %s -> %s: %w", photo.OCRStatus, status, sentinel.ErrInvalidState)
		}
		changed = true
		return stores.Photos().TransitionOCRStatus(ctx, photoID, status, photo.OCRStatus)
	})
	if err != nil {
		return r.normalize(ctx, err, entityPhoto, "update")
	}
	if changed {
		r.metrics.ObserveOCRStatus(status.String())
	}
	return nil
}

// ClaimForRecognition moves a PENDING or FAILED photo to PROCESSING in one
// conditional write and returns it. Of several concurrent callers exactly one
// succeeds; the others get CodeInvalidState.
func (r *PhotoRepository) ClaimForRecognition(ctx context.Context, photoID id.PhotoID) (*models.Photo, error) {
	var photo *models.Photo
	err := r.store.RunInTx(ctx, func(ctx context.Context, stores store.Stores) error {
		err := stores.Photos().TransitionOCRStatus(ctx, photoID, models.OCRProcessing, models.OCRPending, models.OCRFailed)
		if err != nil {
			return err
		}
		photo, err = stores.Photos().FindByID(ctx, photoID)
		return err
	})
	if err != nil {
		return nil, r.normalize(ctx, err, entityPhoto, "claim")
	}
	r.metrics.ObserveOCRStatus(models.OCRProcessing.String())
	return photo, nil
}

func validatePhoto(photo *models.Photo) error {
	if photo == nil || strings.TrimSpace(photo.FilePath) == "" {
		return dErrors.New(dErrors.CodeValidation, "photo file path is required")
	}
	return nil
}
