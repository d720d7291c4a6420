package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"listsnap/internal/shopping/live"
	"listsnap/internal/shopping/models"
	id "listsnap/pkg/domain"
	"listsnap/pkg/platform/sentinel"
)

type photoStore struct {
	d *DB
}

const photoColumns = `id, file_path, taken_at, ocr_status`

// Insert upserts photo by id, generating one when it is nil.
func (s *photoStore) Insert(ctx context.Context, photo *models.Photo) (id.PhotoID, error) {
	if photo.ID.IsNil() {
		photo.ID = id.NewPhotoID()
	}
	err := s.d.write(ctx, []string{live.TablePhotos}, func(ctx context.Context, q querier) error {
		_, err := s.d.exec(ctx, q, `
			INSERT INTO photos (`+photoColumns+`) VALUES (?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				file_path = excluded.file_path,
				taken_at = excluded.taken_at,
				ocr_status = excluded.ocr_status`,
			photo.ID.String(), photo.FilePath, toMillis(photo.Timestamp), photo.OCRStatus.String())
		return err
	})
	if err != nil {
		return id.PhotoID{}, fmt.Errorf("insert photo: %w", err)
	}
	return photo.ID, nil
}

func (s *photoStore) Update(ctx context.Context, photo *models.Photo) error {
	return s.d.write(ctx, []string{live.TablePhotos}, func(ctx context.Context, q querier) error {
		res, err := s.d.exec(ctx, q,
			`UPDATE photos SET file_path = ?, taken_at = ?, ocr_status = ? WHERE id = ?`,
			photo.FilePath, toMillis(photo.Timestamp), photo.OCRStatus.String(), photo.ID.String())
		if err != nil {
			return fmt.Errorf("update photo: %w", err)
		}
		return expectAffected(res, "update photo")
	})
}

func (s *photoStore) UpdateOCRStatus(ctx context.Context, photoID id.PhotoID, status models.OCRStatus) error {
	return s.d.write(ctx, []string{live.TablePhotos}, func(ctx context.Context, q querier) error {
		res, err := s.d.exec(ctx, q, `UPDATE photos SET ocr_status = ? WHERE id = ?`, status.String(), photoID.String())
		if err != nil {
			return fmt.Errorf("update photo ocr status: %w", err)
		}
		return expectAffected(res, "update photo ocr status")
	})
}

func (s *photoStore) TransitionOCRStatus(ctx context.Context, photoID id.PhotoID, to models.OCRStatus, from ...models.OCRStatus) error {
	if len(from) == 0 {
		return fmt.Errorf("transition photo ocr status: no source status: %w", sentinel.ErrInvalidState)
	}
	args := []any{to.String(), photoID.String()}
	marks := make([]string, len(from))
	for i, status := range from {
		marks[i] = "?"
		args = append(args, status.String())
	}
	return s.d.write(ctx, []string{live.TablePhotos}, func(ctx context.Context, q querier) error {
		res, err := s.d.exec(ctx, q,
			`UPDATE photos SET ocr_status = ? WHERE id = ? AND ocr_status IN (`+strings.Join(marks, ", ")+`)`,
			args...)
		if err != nil {
			return fmt.Errorf("transition photo ocr status: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("transition photo ocr status: rows affected: %w", err)
		}
		if n > 0 {
			return nil
		}
		var one int
		err = q.QueryRowContext(ctx, s.d.dialect.Rebind(`SELECT 1 FROM photos WHERE id = ?`), photoID.String()).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("transition photo ocr status: %w", sentinel.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("transition photo ocr status: %w", s.d.classify(err))
		}
		return fmt.Errorf("transition photo ocr status to %s: %w", to, sentinel.ErrInvalidState)
	})
}

// Delete removes the photo; lists that referenced it keep existing with a
// null photo_id.
func (s *photoStore) Delete(ctx context.Context, photoID id.PhotoID) error {
	return s.d.write(ctx, []string{live.TablePhotos, live.TableLists}, func(ctx context.Context, q querier) error {
		res, err := s.d.exec(ctx, q, `DELETE FROM photos WHERE id = ?`, photoID.String())
		if err != nil {
			return fmt.Errorf("delete photo: %w", err)
		}
		return expectAffected(res, "delete photo")
	})
}

func (s *photoStore) FindByID(ctx context.Context, photoID id.PhotoID) (*models.Photo, error) {
	photo, err := scanPhoto(s.d.queryRow(ctx, `SELECT `+photoColumns+` FROM photos WHERE id = ?`, photoID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find photo by id: %w", err)
	}
	return photo, nil
}

// ListAll returns photos newest first.
func (s *photoStore) ListAll(ctx context.Context) ([]*models.Photo, error) {
	rows, err := s.d.query(ctx, `SELECT `+photoColumns+` FROM photos ORDER BY taken_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	defer rows.Close()

	photos := []*models.Photo{}
	for rows.Next() {
		photo, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		photos = append(photos, photo)
	}
	return photos, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPhoto(row rowScanner) (*models.Photo, error) {
	var (
		rawID, filePath, status string
		takenAt                 int64
	)
	if err := row.Scan(&rawID, &filePath, &takenAt, &status); err != nil {
		return nil, err
	}
	photoID, err := id.ParsePhotoID(rawID)
	if err != nil {
		return nil, err
	}
	ocrStatus, err := models.ParseOCRStatus(status)
	if err != nil {
		return nil, err
	}
	return &models.Photo{
		ID:        photoID,
		FilePath:  filePath,
		Timestamp: fromMillis(takenAt),
		OCRStatus: ocrStatus,
	}, nil
}
