// Package domain holds the typed identifiers shared across layers. Each record
// family gets its own id type so a list id can never be passed where an item id
// is expected.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "listsnap/pkg/domain-errors"
)

type (
	PhotoID uuid.UUID
	ListID  uuid.UUID
	ItemID  uuid.UUID
)

func NewPhotoID() PhotoID { return PhotoID(uuid.New()) }
func NewListID() ListID   { return ListID(uuid.New()) }
func NewItemID() ItemID   { return ItemID(uuid.New()) }

func (id PhotoID) String() string { return uuid.UUID(id).String() }
func (id ListID) String() string  { return uuid.UUID(id).String() }
func (id ItemID) String() string  { return uuid.UUID(id).String() }

func (id PhotoID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ListID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id ItemID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

func (id PhotoID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id ListID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id ItemID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }

func (id *PhotoID) UnmarshalText(b []byte) error { return unmarshalID(b, "photo", (*uuid.UUID)(id)) }
func (id *ListID) UnmarshalText(b []byte) error  { return unmarshalID(b, "list", (*uuid.UUID)(id)) }
func (id *ItemID) UnmarshalText(b []byte) error  { return unmarshalID(b, "item", (*uuid.UUID)(id)) }

func ParsePhotoID(s string) (PhotoID, error) {
	u, err := parseUUID(s, "photo")
	return PhotoID(u), err
}

func ParseListID(s string) (ListID, error) {
	u, err := parseUUID(s, "list")
	return ListID(u), err
}

func ParseItemID(s string) (ItemID, error) {
	u, err := parseUUID(s, "item")
	return ItemID(u), err
}

func parseUUID(s, kind string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id must not be nil")
	}
	return u, nil
}

func unmarshalID(b []byte, kind string, dst *uuid.UUID) error {
	u, err := parseUUID(string(b), kind)
	if err != nil {
		return err
	}
	*dst = u
	return nil
}
