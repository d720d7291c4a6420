package handler

import (
	"net/http"

	"listsnap/internal/shopping/models"
	dErrors "listsnap/pkg/domain-errors"
	"listsnap/pkg/platform/httputil"
	"listsnap/pkg/requestcontext"
)

func (h *Handler) handleListPhotos(w http.ResponseWriter, r *http.Request) {
	photos, err := h.photos.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, photos)
}

func (h *Handler) handleCreatePhoto(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreatePhotoRequest](w, r, h.logger)
	if !ok {
		return
	}
	takenAt := requestcontext.Now(ctx)
	if req.Timestamp != nil {
		takenAt = *req.Timestamp
	}
	photo, err := models.NewPhoto(req.FilePath, takenAt)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	photoID, err := h.photos.Insert(ctx, photo)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, CreatedPhotoResponse{PhotoID: photoID})
}

func (h *Handler) handleGetPhoto(w http.ResponseWriter, r *http.Request) {
	photoID, err := photoIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	photo, err := h.photos.FindByID(r.Context(), photoID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if photo == nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeNotFound, "photo not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, photo)
}

func (h *Handler) handleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	photoID, err := photoIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.photos.Delete(r.Context(), photoID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUpdateOCRStatus(w http.ResponseWriter, r *http.Request) {
	photoID, err := photoIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateOCRStatusRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := h.photos.UpdateOCRStatus(r.Context(), photoID, req.status); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleScanPhoto(w http.ResponseWriter, r *http.Request) {
	photoID, err := photoIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	listID, err := h.scanner.Process(r.Context(), photoID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, CreatedListResponse{ListID: listID})
}
