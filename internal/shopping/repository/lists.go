package repository

import (
	"context"
	"strings"
	"unicode/utf8"

	"listsnap/internal/shopping/live"
	"listsnap/internal/shopping/models"
	"listsnap/internal/shopping/store"
	id "listsnap/pkg/domain"
	dErrors "listsnap/pkg/domain-errors"
)

const (
	entityList = "shopping list"

	MaxListNameLength = 100
)

type ListRepository struct {
	base
}

func NewListRepository(st Store, hub *live.Hub, opts ...Option) *ListRepository {
	return &ListRepository{base: newBase(st, hub, opts)}
}

// Watch streams all lists, newest first.
func (r *ListRepository) Watch(ctx context.Context) (<-chan []*models.ShoppingList, error) {
	ch, err := live.Watch(ctx, r.hub, r.store.Lists().ListAll, live.TableLists)
	return ch, r.normalize(ctx, err, entityList, "load")
}

// WatchSummaries streams every list with its item counts and photo path.
func (r *ListRepository) WatchSummaries(ctx context.Context) (<-chan []models.ListSummary, error) {
	ch, err := live.Watch(ctx, r.hub, r.store.Lists().Summaries, live.TableLists, live.TableItems, live.TablePhotos)
	return ch, r.normalize(ctx, err, entityList, "load")
}

func (r *ListRepository) Summaries(ctx context.Context) ([]models.ListSummary, error) {
	summaries, err := r.store.Lists().Summaries(ctx)
	return summaries, r.normalize(ctx, err, entityList, "load")
}

// FindByID returns nil without error when the list does not exist.
func (r *ListRepository) FindByID(ctx context.Context, listID id.ListID) (*models.ShoppingList, error) {
	list, err := r.store.Lists().FindByID(ctx, listID)
	list, err = absent(list, err)
	return list, r.normalize(ctx, err, entityList, "load")
}

func (r *ListRepository) Insert(ctx context.Context, list *models.ShoppingList) (id.ListID, error) {
	if err := validateList(list); err != nil {
		return id.ListID{}, err
	}
	listID, err := r.store.Lists().Insert(ctx, list)
	return listID, r.normalize(ctx, err, entityList, "save")
}

func (r *ListRepository) Update(ctx context.Context, list *models.ShoppingList) error {
	if err := validateList(list); err != nil {
		return err
	}
	return r.normalize(ctx, r.store.Lists().Update(ctx, list), entityList, "update")
}

// Rename changes only the list name, reading and writing the list in one
// transaction so concurrent changes to its other fields are not undone.
func (r *ListRepository) Rename(ctx context.Context, listID id.ListID, name string) (*models.ShoppingList, error) {
	name, err := normalizeListName(name)
	if err != nil {
		return nil, err
	}
	var list *models.ShoppingList
	err = r.store.RunInTx(ctx, func(ctx context.Context, stores store.Stores) error {
		list, err = stores.Lists().FindByID(ctx, listID)
		if err != nil {
			return err
		}
		list.Name = name
		return stores.Lists().Update(ctx, list)
	})
	if err != nil {
		return nil, r.normalize(ctx, err, entityList, "rename")
	}
	return list, nil
}

// Delete removes the list and all of its items.
func (r *ListRepository) Delete(ctx context.Context, listID id.ListID) error {
	return r.normalize(ctx, r.store.Lists().Delete(ctx, listID), entityList, "delete")
}

func validateList(list *models.ShoppingList) error {
	if list == nil {
		return dErrors.New(dErrors.CodeValidation, "list is required")
	}
	name, err := normalizeListName(list.Name)
	if err != nil {
		return err
	}
	list.Name = name
	return nil
}

func normalizeListName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", dErrors.New(dErrors.CodeValidation, "list name is required")
	}
	if utf8.RuneCountInString(name) > MaxListNameLength {
		return "", dErrors.New(dErrors.CodeValidation, "list name is too long")
	}
	return name, nil
}
