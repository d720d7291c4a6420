package handler

import (
	"net/http"

	dErrors "listsnap/pkg/domain-errors"
	"listsnap/pkg/platform/httputil"
)

// handleCreateList turns recognized text into a list. Text without any
// usable line is rejected with 422.
func (h *Handler) handleCreateList(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[CreateListRequest](w, r, h.logger)
	if !ok {
		return
	}
	listID, err := h.creator.CreateListFromText(r.Context(), req.photoID, req.Text)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, CreatedListResponse{ListID: listID})
}

func (h *Handler) handleListSummaries(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.lists.Summaries(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSummaryResponses(summaries))
}

func (h *Handler) handleGetList(w http.ResponseWriter, r *http.Request) {
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
	httputil.WriteJSON(w, http.StatusOK, ListDetailResponse{ShoppingList: list, Items: items})
}

func (h *Handler) handleRenameList(w http.ResponseWriter, r *http.Request) {
	listID, err := listIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[RenameListRequest](w, r, h.logger)
	if !ok {
		return
	}
	list, err := h.lists.Rename(r.Context(), listID, req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	listID, err := listIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.lists.Delete(r.Context(), listID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
