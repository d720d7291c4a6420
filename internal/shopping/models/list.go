package models

import (
	"time"

	id "listsnap/pkg/domain"
)

// ListNameLayout formats the default list name from its creation time.
const ListNameLayout = "2006-01-02 15:04"

// ShoppingList owns its items; deleting it deletes them. PhotoID is cleared,
// not cascaded, when the source photo is deleted.
type ShoppingList struct {
	ID          id.ListID   `json:"id"`
	PhotoID     *id.PhotoID `json:"photo_id"`
	Name        string      `json:"name"`
	CreatedDate time.Time   `json:"created_date"`
}

// DefaultListName renders t in local time, e.g. "2024-03-15 09:30".
func DefaultListName(t time.Time) string {
	return t.Local().Format(ListNameLayout)
}

// NewShoppingList creates a list for photoID (which may be nil) named after
// its creation time.
func NewShoppingList(photoID *id.PhotoID, now time.Time) *ShoppingList {
	return &ShoppingList{
		PhotoID:     photoID,
		Name:        DefaultListName(now),
		CreatedDate: now,
	}
}

// ListSummary is a list joined with its item counts and source photo path.
type ListSummary struct {
	List          ShoppingList `json:"list"`
	ItemCount     int          `json:"item_count"`
	CheckedCount  int          `json:"checked_count"`
	PhotoFilePath *string      `json:"photo_file_path"`
}

// UncheckedCount is derived, never stored.
func (s ListSummary) UncheckedCount() int {
	return s.ItemCount - s.CheckedCount
}
