package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"listsnap/internal/shopping/live"
	"listsnap/internal/shopping/models"
	id "listsnap/pkg/domain"
	"listsnap/pkg/platform/sentinel"
)

type listStore struct {
	d *DB
}

const listColumns = `id, photo_id, name, created_date`

// Insert upserts list by id, generating one when it is nil. A photo id that
// does not exist fails with sentinel.ErrConflict.
func (s *listStore) Insert(ctx context.Context, list *models.ShoppingList) (id.ListID, error) {
	if list.ID.IsNil() {
		list.ID = id.NewListID()
	}
	err := s.d.write(ctx, []string{live.TableLists}, func(ctx context.Context, q querier) error {
		_, err := s.d.exec(ctx, q, `
			INSERT INTO lists (`+listColumns+`) VALUES (?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				photo_id = excluded.photo_id,
				name = excluded.name,
				created_date = excluded.created_date`,
			list.ID.String(), nullablePhotoID(list.PhotoID), list.Name, toMillis(list.CreatedDate))
		return err
	})
	if err != nil {
		return id.ListID{}, fmt.Errorf("insert list: %w", err)
	}
	return list.ID, nil
}

func (s *listStore) Update(ctx context.Context, list *models.ShoppingList) error {
	return s.d.write(ctx, []string{live.TableLists}, func(ctx context.Context, q querier) error {
		res, err := s.d.exec(ctx, q,
			`UPDATE lists SET photo_id = ?, name = ?, created_date = ? WHERE id = ?`,
			nullablePhotoID(list.PhotoID), list.Name, toMillis(list.CreatedDate), list.ID.String())
		if err != nil {
			return fmt.Errorf("update list: %w", err)
		}
		return expectAffected(res, "update list")
	})
}

// Delete removes the list together with its items.
func (s *listStore) Delete(ctx context.Context, listID id.ListID) error {
	return s.d.write(ctx, []string{live.TableLists, live.TableItems}, func(ctx context.Context, q querier) error {
		res, err := s.d.exec(ctx, q, `DELETE FROM lists WHERE id = ?`, listID.String())
		if err != nil {
			return fmt.Errorf("delete list: %w", err)
		}
		return expectAffected(res, "delete list")
	})
}

func (s *listStore) FindByID(ctx context.Context, listID id.ListID) (*models.ShoppingList, error) {
	list, err := scanList(s.d.queryRow(ctx, `SELECT `+listColumns+` FROM lists WHERE id = ?`, listID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find list by id: %w", err)
	}
	return list, nil
}

// ListAll returns lists newest first.
func (s *listStore) ListAll(ctx context.Context) ([]*models.ShoppingList, error) {
	rows, err := s.d.query(ctx, `SELECT `+listColumns+` FROM lists ORDER BY created_date DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	defer rows.Close()

	lists := []*models.ShoppingList{}
	for rows.Next() {
		list, err := scanList(rows)
		if err != nil {
			return nil, fmt.Errorf("scan list: %w", err)
		}
		lists = append(lists, list)
	}
	return lists, rows.Err()
}

// Summaries joins every list with its item counts and the file path of its
// source photo, newest first.
func (s *listStore) Summaries(ctx context.Context) ([]models.ListSummary, error) {
	rows, err := s.d.query(ctx, `
		SELECT l.id, l.photo_id, l.name, l.created_date,
			(SELECT COUNT(*) FROM items i WHERE i.list_id = l.id),
			(SELECT COUNT(*) FROM items i WHERE i.list_id = l.id AND i.is_checked = ?),
			p.file_path
		FROM lists l
		LEFT JOIN photos p ON p.id = l.photo_id
		ORDER BY l.created_date DESC, l.id`, true)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer rows.Close()

	summaries := []models.ListSummary{}
	for rows.Next() {
		var (
			rawID, name  string
			rawPhotoID   sql.NullString
			created      int64
			total, check int
			filePath     sql.NullString
		)
		if err := rows.Scan(&rawID, &rawPhotoID, &name, &created, &total, &check, &filePath); err != nil {
			return nil, fmt.Errorf("scan list summary: %w", err)
		}
		list, err := buildList(rawID, rawPhotoID, name, created)
		if err != nil {
			return nil, fmt.Errorf("scan list summary: %w", err)
		}
		summary := models.ListSummary{List: *list, ItemCount: total, CheckedCount: check}
		if filePath.Valid {
			path := filePath.String
			summary.PhotoFilePath = &path
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

func scanList(row rowScanner) (*models.ShoppingList, error) {
	var (
		rawID, name string
		rawPhotoID  sql.NullString
		created     int64
	)
	if err := row.Scan(&rawID, &rawPhotoID, &name, &created); err != nil {
		return nil, err
	}
	return buildList(rawID, rawPhotoID, name, created)
}

func buildList(rawID string, rawPhotoID sql.NullString, name string, created int64) (*models.ShoppingList, error) {
	listID, err := id.ParseListID(rawID)
	if err != nil {
		return nil, err
	}
	list := &models.ShoppingList{ID: listID, Name: name, CreatedDate: fromMillis(created)}
	if rawPhotoID.Valid {
		photoID, err := id.ParsePhotoID(rawPhotoID.String)
		if err != nil {
			return nil, err
		}
		list.PhotoID = &photoID
	}
	return list, nil
}

func nullablePhotoID(photoID *id.PhotoID) sql.NullString {
	if photoID == nil || photoID.IsNil() {
		return sql.NullString{}
	}
	return sql.NullString{String: photoID.String(), Valid: true}
}
