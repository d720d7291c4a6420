package handler

import (
	"time"

	"listsnap/internal/shopping/models"
	id "listsnap/pkg/domain"
	dErrors "listsnap/pkg/domain-errors"
)

type CreatePhotoRequest struct {
	FilePath  string     `json:"file_path" validate:"required,max=1024"`
	Timestamp *time.Time `json:"timestamp"`
}

type UpdateOCRStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING PROCESSING COMPLETED FAILED"`

	status models.OCRStatus
}

func (r *UpdateOCRStatusRequest) Validate() error {
	status, err := models.ParseOCRStatus(r.Status)
	if err != nil {
		return err
	}
	r.status = status
	return nil
}

type CreateListRequest struct {
	Text    string  `json:"text" validate:"max=65536"`
	PhotoID *string `json:"photo_id" validate:"omitempty,uuid"`

	photoID *id.PhotoID
}

func (r *CreateListRequest) Validate() error {
	if r.PhotoID == nil {
		return nil
	}
	photoID, err := id.ParsePhotoID(*r.PhotoID)
	if err != nil {
		return err
	}
	r.photoID = &photoID
	return nil
}

type RenameListRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type AddItemRequest struct {
	Text string `json:"text" validate:"required"`
}

type UpdateItemRequest struct {
	Text      *string `json:"text"`
	IsChecked *bool   `json:"is_checked"`
	Position  *int    `json:"position" validate:"omitempty,min=0"`
}

func (r *UpdateItemRequest) Validate() error {
	if r.Text == nil && r.IsChecked == nil && r.Position == nil {
		return dErrors.New(dErrors.CodeValidation, "at least one of text, is_checked or position is required")
	}
	return nil
}

type ReorderItemsRequest struct {
	ItemIDs []string `json:"item_ids" validate:"dive,uuid"`

	itemIDs []id.ItemID
}

func (r *ReorderItemsRequest) Validate() error {
	r.itemIDs = make([]id.ItemID, len(r.ItemIDs))
	for i, raw := range r.ItemIDs {
		itemID, err := id.ParseItemID(raw)
		if err != nil {
			return err
		}
		r.itemIDs[i] = itemID
	}
	return nil
}

type CreatedListResponse struct {
	ListID id.ListID `json:"list_id"`
}

type CreatedPhotoResponse struct {
	PhotoID id.PhotoID `json:"photo_id"`
}

type ListSummaryResponse struct {
	ID             id.ListID   `json:"id"`
	Name           string      `json:"name"`
	PhotoID        *id.PhotoID `json:"photo_id"`
	CreatedDate    time.Time   `json:"created_date"`
	ItemCount      int         `json:"item_count"`
	CheckedCount   int         `json:"checked_count"`
	UncheckedCount int         `json:"unchecked_count"`
	PhotoFilePath  *string     `json:"photo_file_path"`
}

func toSummaryResponses(summaries []models.ListSummary) []ListSummaryResponse {
	out := make([]ListSummaryResponse, len(summaries))
	for i, s := range summaries {
		out[i] = ListSummaryResponse{
			ID:             s.List.ID,
			Name:           s.List.Name,
			PhotoID:        s.List.PhotoID,
			CreatedDate:    s.List.CreatedDate,
			ItemCount:      s.ItemCount,
			CheckedCount:   s.CheckedCount,
			UncheckedCount: s.UncheckedCount(),
			PhotoFilePath:  s.PhotoFilePath,
		}
	}
	return out
}

type ListDetailResponse struct {
	*models.ShoppingList
	Items []*models.Item `json:"items"`
}
