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

type itemStore struct {
	d *DB
}

const itemColumns = `id, list_id, text, is_checked, position`

var itemsTouched = []string{live.TableItems}

// Insert upserts item by id, generating one when it is nil. An unknown list
// id fails with sentinel.ErrConflict.
func (s *itemStore) Insert(ctx context.Context, item *models.Item) (id.ItemID, error) {
	if item.ID.IsNil() {
		item.ID = id.NewItemID()
	}
	err := s.d.write(ctx, itemsTouched, func(ctx context.Context, q querier) error {
		return s.upsert(ctx, q, item)
	})
	if err != nil {
		return id.ItemID{}, fmt.Errorf("insert item: %w", err)
	}
	return item.ID, nil
}

// InsertMany upserts items in order within one transaction. Either every
// item is stored or none is.
func (s *itemStore) InsertMany(ctx context.Context, items []*models.Item) ([]id.ItemID, error) {
	ids := make([]id.ItemID, len(items))
	if len(items) == 0 {
		return ids, nil
	}
	err := s.d.write(ctx, itemsTouched, func(ctx context.Context, q querier) error {
		for i, item := range items {
			if item.ID.IsNil() {
				item.ID = id.NewItemID()
			}
			if err := s.upsert(ctx, q, item); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
			ids[i] = item.ID
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("insert items: %w", err)
	}
	return ids, nil
}

func (s *itemStore) upsert(ctx context.Context, q querier, item *models.Item) error {
	_, err := s.d.exec(ctx, q, `
		INSERT INTO items (`+itemColumns+`) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			list_id = excluded.list_id,
			text = excluded.text,
			is_checked = excluded.is_checked,
			position = excluded.position`,
		item.ID.String(), item.ListID.String(), item.Text, item.IsChecked, item.Position)
	return err
}

func (s *itemStore) Update(ctx context.Context, item *models.Item) error {
	return s.updateOne(ctx, "update item",
		`UPDATE items SET list_id = ?, text = ?, is_checked = ?, position = ? WHERE id = ?`,
		item.ListID.String(), item.Text, item.IsChecked, item.Position, item.ID.String())
}

func (s *itemStore) Delete(ctx context.Context, itemID id.ItemID) error {
	return s.updateOne(ctx, "delete item", `DELETE FROM items WHERE id = ?`, itemID.String())
}

func (s *itemStore) SetChecked(ctx context.Context, itemID id.ItemID, checked bool) error {
	return s.updateOne(ctx, "set item checked", `UPDATE items SET is_checked = ? WHERE id = ?`, checked, itemID.String())
}

func (s *itemStore) UpdateText(ctx context.Context, itemID id.ItemID, text string) error {
	return s.updateOne(ctx, "update item text", `UPDATE items SET text = ? WHERE id = ?`, text, itemID.String())
}

func (s *itemStore) UpdatePosition(ctx context.Context, itemID id.ItemID, position int) error {
	return s.updateOne(ctx, "update item position", `UPDATE items SET position = ? WHERE id = ?`, position, itemID.String())
}

// Reorder assigns positions 0..n-1 following itemIDs. Every id must belong
// to listID.
func (s *itemStore) Reorder(ctx context.Context, listID id.ListID, itemIDs []id.ItemID) error {
	return s.d.write(ctx, itemsTouched, func(ctx context.Context, q querier) error {
		for position, itemID := range itemIDs {
			res, err := s.d.exec(ctx, q,
				`UPDATE items SET position = ? WHERE id = ? AND list_id = ?`,
				position, itemID.String(), listID.String())
			if err != nil {
				return fmt.Errorf("reorder items: %w", err)
			}
			if err := expectAffected(res, "reorder item "+itemID.String()); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *itemStore) updateOne(ctx context.Context, what, query string, args ...any) error {
	return s.d.write(ctx, itemsTouched, func(ctx context.Context, q querier) error {
		res, err := s.d.exec(ctx, q, query, args...)
		if err != nil {
			return fmt.Errorf("%s: %w", what, err)
		}
		return expectAffected(res, what)
	})
}

func (s *itemStore) FindByID(ctx context.Context, itemID id.ItemID) (*models.Item, error) {
	item, err := scanItem(s.d.queryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, itemID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find item by id: %w", err)
	}
	return item, nil
}

// ListByList returns the items of listID by ascending position.
func (s *itemStore) ListByList(ctx context.Context, listID id.ListID) ([]*models.Item, error) {
	rows, err := s.d.query(ctx,
		`SELECT `+itemColumns+` FROM items WHERE list_id = ? ORDER BY position ASC, id`, listID.String())
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := []*models.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanItem(row rowScanner) (*models.Item, error) {
	var (
		rawID, rawListID, text string
		checked                bool
		position               int
	)
	if err := row.Scan(&rawID, &rawListID, &text, &checked, &position); err != nil {
		return nil, err
	}
	itemID, err := id.ParseItemID(rawID)
	if err != nil {
		return nil, err
	}
	listID, err := id.ParseListID(rawListID)
	if err != nil {
		return nil, err
	}
	return &models.Item{ID: itemID, ListID: listID, Text: text, IsChecked: checked, Position: position}, nil
}
