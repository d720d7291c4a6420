package repository

import (
	"context"
	"errors"

	"listsnap/internal/shopping/live"
	"listsnap/internal/shopping/models"
	"listsnap/internal/shopping/store"
	id "listsnap/pkg/domain"
	dErrors "listsnap/pkg/domain-errors"
	"listsnap/pkg/platform/sentinel"
)

const entityItem = "item"

type ItemRepository struct {
	base
}

func NewItemRepository(st Store, hub *live.Hub, opts ...Option) *ItemRepository {
	return &ItemRepository{base: newBase(st, hub, opts)}
}

// WatchByList streams the items of listID by ascending position. Deleting
// the list yields an empty snapshot.
func (r *ItemRepository) WatchByList(ctx context.Context, listID id.ListID) (<-chan []*models.Item, error) {
	load := func(ctx context.Context) ([]*models.Item, error) {
		return r.store.Items().ListByList(ctx, listID)
	}
	ch, err := live.Watch(ctx, r.hub, load, live.TableItems)
	return ch, r.normalize(ctx, err, entityItem, "load")
}

func (r *ItemRepository) ListByList(ctx context.Context, listID id.ListID) ([]*models.Item, error) {
	items, err := r.store.Items().ListByList(ctx, listID)
	return items, r.normalize(ctx, err, entityItem, "load")
}

// FindByID returns nil without error when the item does not exist.
func (r *ItemRepository) FindByID(ctx context.Context, itemID id.ItemID) (*models.Item, error) {
	item, err := r.store.Items().FindByID(ctx, itemID)
	item, err = absent(item, err)
	return item, r.normalize(ctx, err, entityItem, "load")
}

func (r *ItemRepository) Insert(ctx context.Context, item *models.Item) (id.ItemID, error) {
	if err := validateItem(item); err != nil {
		return id.ItemID{}, err
	}
	itemID, err := r.store.Items().Insert(ctx, item)
	return itemID, r.normalize(ctx, err, entityItem, "save")
}

// Append adds an unchecked item after the last item of listID.
func (r *ItemRepository) Append(ctx context.Context, listID id.ListID, text string) (*models.Item, error) {
	var created *models.Item
	err := r.store.RunInTx(ctx, func(ctx context.Context, stores store.Stores) error {
		if _, err := stores.Lists().FindByID(ctx, listID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Wrap(err, dErrors.CodeNotFound, entityList+" not found")
			}
			return err
		}
		existing, err := stores.Items().ListByList(ctx, listID)
		if err != nil {
			return err
		}
		position := 0
		if n := len(existing); n > 0 {
			position = existing[n-1].Position + 1
		}
		item, err := models.NewItem(listID, text, position)
		if err != nil {
			return err
		}
		if _, err := stores.Items().Insert(ctx, item); err != nil {
			return err
		}
		created = item
		return nil
	})
	if err != nil {
		return nil, r.normalize(ctx, err, entityItem, "add")
	}
	return created, nil
}

func (r *ItemRepository) Update(ctx context.Context, item *models.Item) error {
	if err := validateItem(item); err != nil {
		return err
	}
	return r.normalize(ctx, r.store.Items().Update(ctx, item), entityItem, "update")
}

// Delete removes the item. Remaining positions are left as they are.
func (r *ItemRepository) Delete(ctx context.Context, itemID id.ItemID) error {
	return r.normalize(ctx, r.store.Items().Delete(ctx, itemID), entityItem, "delete")
}

// ToggleChecked flips the checked state and returns the updated item.
func (r *ItemRepository) ToggleChecked(ctx context.Context, itemID id.ItemID) (*models.Item, error) {
	var toggled *models.Item
	err := r.store.RunInTx(ctx, func(ctx context.Context, stores store.Stores) error {
		item, err := stores.Items().FindByID(ctx, itemID)
		if err != nil {
			return err
		}
		item.IsChecked = !item.IsChecked
		if err := stores.Items().SetChecked(ctx, itemID, item.IsChecked); err != nil {
			return err
		}
		toggled = item
		return nil
	})
	if err != nil {
		return nil, r.normalize(ctx, err, entityItem, "update")
	}
	return toggled, nil
}

func (r *ItemRepository) SetChecked(ctx context.Context, itemID id.ItemID, checked bool) error {
	return r.normalize(ctx, r.store.Items().SetChecked(ctx, itemID, checked), entityItem, "update")
}

func (r *ItemRepository) UpdateText(ctx context.Context, itemID id.ItemID, text string) error {
	text, err := models.NormalizeItemText(text)
	if err != nil {
		return err
	}
	return r.normalize(ctx, r.store.Items().UpdateText(ctx, itemID, text), entityItem, "update")
}

func (r *ItemRepository) UpdatePosition(ctx context.Context, itemID id.ItemID, position int) error {
	if err := models.ValidatePosition(position); err != nil {
		return err
	}
	return r.normalize(ctx, r.store.Items().UpdatePosition(ctx, itemID, position), entityItem, "update")
}

// Reorder sets positions 0..n-1 in the order of itemIDs, which must name
// every item of listID exactly once.
func (r *ItemRepository) Reorder(ctx context.Context, listID id.ListID, itemIDs []id.ItemID) ([]*models.Item, error) {
	seen := make(map[id.ItemID]struct{}, len(itemIDs))
	for _, itemID := range itemIDs {
		if _, dup := seen[itemID]; dup {
			return nil, dErrors.New(dErrors.CodeValidation, "item ids must not repeat")
		}
		seen[itemID] = struct{}{}
	}

	var reordered []*models.Item
	err := r.store.RunInTx(ctx, func(ctx context.Context, stores store.Stores) error {
		current, err := stores.Items().ListByList(ctx, listID)
		if err != nil {
			return err
		}
		if len(current) != len(itemIDs) {
			return dErrors.New(dErrors.CodeValidation, "order must list every item of the list")
		}
		for _, item := range current {
			if _, ok := seen[item.ID]; !ok {
				return dErrors.New(dErrors.CodeValidation, "order must list every item of the list")
			}
		}
		if err := stores.Items().Reorder(ctx, listID, itemIDs); err != nil {
			return err
		}
		reordered, err = stores.Items().ListByList(ctx, listID)
		return err
	})
	if err != nil {
		return nil, r.normalize(ctx, err, entityItem, "reorder")
	}
	return reordered, nil
}

func validateItem(item *models.Item) error {
	if item == nil {
		return dErrors.New(dErrors.CodeValidation, "item is required")
	}
	text, err := models.NormalizeItemText(item.Text)
	if err != nil {
		return err
	}
	if err := models.ValidatePosition(item.Position); err != nil {
		return err
	}
	item.Text = text
	return nil
}
