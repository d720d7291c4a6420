// Package store persists photos, shopping lists and items in a relational
// database. Writes are serialized through RunInTx; every committed write
// reports the tables it touched to the registered commit hooks so live
// queries can refresh.
package store

import (
	"context"

	"listsnap/internal/shopping/models"
	id "listsnap/pkg/domain"
)

// PhotoStore is pure I/O over the photos table.
type PhotoStore interface {
	Insert(ctx context.Context, photo *models.Photo) (id.PhotoID, error)
	Update(ctx context.Context, photo *models.Photo) error
	UpdateOCRStatus(ctx context.Context, photoID id.PhotoID, status models.OCRStatus) error
	// TransitionOCRStatus sets status to only when the stored status is one of
	// from; otherwise it returns sentinel.ErrInvalidState.
	TransitionOCRStatus(ctx context.Context, photoID id.PhotoID, to models.OCRStatus, from ...models.OCRStatus) error
	Delete(ctx context.Context, photoID id.PhotoID) error
	FindByID(ctx context.Context, photoID id.PhotoID) (*models.Photo, error)
	ListAll(ctx context.Context) ([]*models.Photo, error)
}

// ListStore is pure I/O over the lists table plus the summary aggregate.
type ListStore interface {
	Insert(ctx context.Context, list *models.ShoppingList) (id.ListID, error)
	Update(ctx context.Context, list *models.ShoppingList) error
	Delete(ctx context.Context, listID id.ListID) error
	FindByID(ctx context.Context, listID id.ListID) (*models.ShoppingList, error)
	ListAll(ctx context.Context) ([]*models.ShoppingList, error)
	Summaries(ctx context.Context) ([]models.ListSummary, error)
}

// ItemStore is pure I/O over the items table.
type ItemStore interface {
	Insert(ctx context.Context, item *models.Item) (id.ItemID, error)
	InsertMany(ctx context.Context, items []*models.Item) ([]id.ItemID, error)
	Update(ctx context.Context, item *models.Item) error
	Delete(ctx context.Context, itemID id.ItemID) error
	FindByID(ctx context.Context, itemID id.ItemID) (*models.Item, error)
	ListByList(ctx context.Context, listID id.ListID) ([]*models.Item, error)
	SetChecked(ctx context.Context, itemID id.ItemID, checked bool) error
	UpdateText(ctx context.Context, itemID id.ItemID, text string) error
	UpdatePosition(ctx context.Context, itemID id.ItemID, position int) error
	Reorder(ctx context.Context, listID id.ListID, itemIDs []id.ItemID) error
}

// Stores groups the record families reachable inside one unit of work.
type Stores interface {
	Photos() PhotoStore
	Lists() ListStore
	Items() ItemStore
}

// TxRunner provides the transactional boundary for store mutations.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error
}
