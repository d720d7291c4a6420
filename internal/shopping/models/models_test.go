package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listsnap/internal/parser"
	id "listsnap/pkg/domain"
	dErrors "listsnap/pkg/domain-errors"
)

func TestOCRStatusMapping(t *testing.T) {
	for status, name := range ocrStatusNames {
		parsed, err := ParseOCRStatus(name)
		require.NoError(t, err)
		assert.Equal(t, status, parsed)
		assert.Equal(t, name, status.String())
	}

	_, err := ParseOCRStatus("DONE")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestOCRStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to OCRStatus
		allowed  bool
	}{
		{OCRPending, OCRProcessing, true},
		{OCRProcessing, OCRCompleted, true},
		{OCRProcessing, OCRFailed, true},
		{OCRFailed, OCRProcessing, true},
		{OCRCompleted, OCRCompleted, true},
		{OCRPending, OCRCompleted, false},
		{OCRCompleted, OCRProcessing, false},
		{OCRFailed, OCRCompleted, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
	assert.True(t, OCRFailed.Terminal())
	assert.False(t, OCRProcessing.Terminal())
}

func TestOCRStatusJSON(t *testing.T) {
	raw, err := json.Marshal(Photo{OCRStatus: OCRProcessing})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"ocr_status":"PROCESSING"`)

	var p Photo
	require.NoError(t, json.Unmarshal([]byte(`{"ocr_status":"FAILED"}`), &p))
	assert.Equal(t, OCRFailed, p.OCRStatus)
}

func TestNewPhoto(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

	p, err := NewPhoto("  /photos/a.jpg ", now)
	require.NoError(t, err)
	assert.Equal(t, "/photos/a.jpg", p.FilePath)
	assert.Equal(t, now, p.Timestamp)
	assert.Equal(t, OCRPending, p.OCRStatus)

	_, err = NewPhoto("  ", now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestNewShoppingListName(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 30, 12, 0, time.Local)
	photo := id.NewPhotoID()

	l := NewShoppingList(&photo, now)
	assert.Equal(t, "2024-03-15 09:30", l.Name)
	assert.Equal(t, &photo, l.PhotoID)
	assert.Equal(t, now, l.CreatedDate)

	assert.Nil(t, NewShoppingList(nil, now).PhotoID)
}

func TestNewItem(t *testing.T) {
	listID := id.NewListID()

	item, err := NewItem(listID, "  milk ", 3)
	require.NoError(t, err)
	assert.Equal(t, "milk", item.Text)
	assert.Equal(t, 3, item.Position)
	assert.False(t, item.IsChecked)

	_, err = NewItem(listID, "m", 0)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	_, err = NewItem(listID, strings.Repeat("m", 201), 0)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	_, err = NewItem(listID, "milk", -1)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestItemsFromCandidates(t *testing.T) {
	listID := id.NewListID()
	items := ItemsFromCandidates(listID, parser.Parse("milk\neggs"))

	require.Len(t, items, 2)
	for i, it := range items {
		assert.Equal(t, listID, it.ListID)
		assert.Equal(t, i, it.Position)
		assert.True(t, it.ID.IsNil())
	}
}

func TestListSummaryUncheckedCount(t *testing.T) {
	s := ListSummary{ItemCount: 5, CheckedCount: 2}
	assert.Equal(t, 3, s.UncheckedCount())
}
