package handler

import (
	"net/http"

	dErrors "listsnap/pkg/domain-errors"
	"listsnap/pkg/platform/httputil"
)

func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	listID, err := listIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	list, err := h.lists.FindByID(ctx, listID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if list == nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeNotFound, "shopping list not found"))
		return
	}
	items, err := h.items.ListByList(ctx, listID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	listID, err := listIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[AddItemRequest](w, r, h.logger)
	if !ok {
		return
	}
	item, err := h.items.Append(r.Context(), listID, req.Text)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, item)
}

func (h *Handler) handleReorderItems(w http.ResponseWriter, r *http.Request) {
	listID, err := listIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[ReorderItemsRequest](w, r, h.logger)
	if !ok {
		return
	}
	items, err := h.items.Reorder(r.Context(), listID, req.itemIDs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

// handleUpdateItem applies whichever of text, is_checked and position are
// present, in that order.
func (h *Handler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID, err := itemIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateItemRequest](w, r, h.logger)
	if !ok {
		return
	}
	if req.Text != nil {
		if err := h.items.UpdateText(ctx, itemID, *req.Text); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	if req.IsChecked != nil {
		if err := h.items.SetChecked(ctx, itemID, *req.IsChecked); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	if req.Position != nil {
		if err := h.items.UpdatePosition(ctx, itemID, *req.Position); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	item, err := h.items.FindByID(ctx, itemID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if item == nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeNotFound, "item not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := itemIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.items.Delete(r.Context(), itemID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleToggleItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := itemIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	item, err := h.items.ToggleChecked(r.Context(), itemID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, item)
}
