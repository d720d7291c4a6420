package models

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"listsnap/internal/parser"
	id "listsnap/pkg/domain"
	dErrors "listsnap/pkg/domain-errors"
)

// Item is one line of a shopping list. Position orders items within their
// list; values need not be contiguous.
type Item struct {
	ID        id.ItemID `json:"id"`
	ListID    id.ListID `json:"list_id"`
	Text      string    `json:"text"`
	IsChecked bool      `json:"is_checked"`
	Position  int       `json:"position"`
}

// NormalizeItemText trims text and checks the 2-200 character bound.
func NormalizeItemText(text string) (string, error) {
	text = strings.TrimSpace(text)
	n := utf8.RuneCountInString(text)
	if n < parser.MinItemLength || n > parser.MaxItemLength {
		return "", dErrors.New(dErrors.CodeValidation,
			"item text must be between "+strconv.Itoa(parser.MinItemLength)+" and "+strconv.Itoa(parser.MaxItemLength)+" characters")
	}
	return text, nil
}

// ValidatePosition rejects negative positions.
func ValidatePosition(position int) error {
	if position < 0 {
		return dErrors.New(dErrors.CodeValidation, "item position must not be negative")
	}
	return nil
}

// NewItem builds an unchecked item for listID.
func NewItem(listID id.ListID, text string, position int) (*Item, error) {
	text, err := NormalizeItemText(text)
	if err != nil {
		return nil, err
	}
	if err := ValidatePosition(position); err != nil {
		return nil, err
	}
	return &Item{ListID: listID, Text: text, Position: position}, nil
}

// ItemsFromCandidates converts parsed candidates into items. Candidates are
// already normalized by the parser so no validation is repeated.
func ItemsFromCandidates(listID id.ListID, candidates []parser.Candidate) []*Item {
	items := make([]*Item, len(candidates))
	for i, c := range candidates {
		items[i] = &Item{ListID: listID, Text: c.Text, Position: c.Position}
	}
	return items
}
