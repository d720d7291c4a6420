// Package handler exposes photos, lists and items over HTTP, plus websocket
// streams that push live list snapshots.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"listsnap/internal/platform/metrics"
	"listsnap/internal/shopping/models"
	id "listsnap/pkg/domain"
	dErrors "listsnap/pkg/domain-errors"
	"listsnap/pkg/platform/httputil"
	"listsnap/pkg/platform/middleware/requesttime"
)

type Photos interface {
	List(ctx context.Context) ([]*models.Photo, error)
	FindByID(ctx context.Context, photoID id.PhotoID) (*models.Photo, error)
	Insert(ctx context.Context, photo *models.Photo) (id.PhotoID, error)
	Delete(ctx context.Context, photoID id.PhotoID) error
	UpdateOCRStatus(ctx context.Context, photoID id.PhotoID, status models.OCRStatus) error
}

type Lists interface {
	Summaries(ctx context.Context) ([]models.ListSummary, error)
	WatchSummaries(ctx context.Context) (<-chan []models.ListSummary, error)
	FindByID(ctx context.Context, listID id.ListID) (*models.ShoppingList, error)
	Rename(ctx context.Context, listID id.ListID, name string) (*models.ShoppingList, error)
	Delete(ctx context.Context, listID id.ListID) error
}

type Items interface {
	ListByList(ctx context.Context, listID id.ListID) ([]*models.Item, error)
	WatchByList(ctx context.Context, listID id.ListID) (<-chan []*models.Item, error)
	FindByID(ctx context.Context, itemID id.ItemID) (*models.Item, error)
	Append(ctx context.Context, listID id.ListID, text string) (*models.Item, error)
	Delete(ctx context.Context, itemID id.ItemID) error
	ToggleChecked(ctx context.Context, itemID id.ItemID) (*models.Item, error)
	SetChecked(ctx context.Context, itemID id.ItemID, checked bool) error
	UpdateText(ctx context.Context, itemID id.ItemID, text string) error
	UpdatePosition(ctx context.Context, itemID id.ItemID, position int) error
	Reorder(ctx context.Context, listID id.ListID, itemIDs []id.ItemID) ([]*models.Item, error)
}

type ListCreator interface {
	CreateListFromText(ctx context.Context, photoID *id.PhotoID, text string) (id.ListID, error)
}

type Scanner interface {
	Process(ctx context.Context, photoID id.PhotoID) (id.ListID, error)
}

// Handler serves the shopping list API.
type Handler struct {
	photos  Photos
	lists   Lists
	items   Items
	creator ListCreator
	scanner Scanner
	logger  *slog.Logger
	metrics *metrics.Metrics
	timeout time.Duration
}

type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithTimeout bounds non-streaming requests.
func WithTimeout(d time.Duration) Option {
	return func(h *Handler) {
		h.timeout = d
	}
}

func New(photos Photos, lists Lists, items Items, creator ListCreator, scanner Scanner, opts ...Option) *Handler {
	h := &Handler{
		photos:  photos,
		lists:   lists,
		items:   items,
		creator: creator,
		scanner: scanner,
		logger:  slog.Default(),
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.metrics == nil {
		h.metrics = metrics.NewNoop()
	}
	return h
}

// Register registers the shopping routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(requesttime.Middleware)
		r.Get("/lists/stream", h.handleStreamSummaries)
		r.Get("/lists/{listID}/items/stream", h.handleStreamItems)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(h.timeout))
		r.Use(requesttime.Middleware)

		r.Get("/photos", h.handleListPhotos)
		r.Post("/photos", h.handleCreatePhoto)
		r.Get("/photos/{photoID}", h.handleGetPhoto)
		r.Delete("/photos/{photoID}", h.handleDeletePhoto)
		r.Put("/photos/{photoID}/ocr-status", h.handleUpdateOCRStatus)
		r.Post("/photos/{photoID}/scan", h.handleScanPhoto)

		r.Get("/lists", h.handleListSummaries)
		r.Post("/lists", h.handleCreateList)
		r.Get("/lists/{listID}", h.handleGetList)
		r.Patch("/lists/{listID}", h.handleRenameList)
		r.Delete("/lists/{listID}", h.handleDeleteList)
		r.Get("/lists/{listID}/items", h.handleListItems)
		r.Post("/lists/{listID}/items", h.handleAddItem)
		r.Put("/lists/{listID}/items/order", h.handleReorderItems)

		r.Patch("/items/{itemID}", h.handleUpdateItem)
		r.Delete("/items/{itemID}", h.handleDeleteItem)
		r.Post("/items/{itemID}/toggle", h.handleToggleItem)
	})
}

// writeError logs unexpected failures before rendering err.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if status := httputil.ToHTTPStatus(dErrors.CodeOf(err)); status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	httputil.WriteError(w, err)
}

func photoIDParam(r *http.Request) (id.PhotoID, error) {
	return id.ParsePhotoID(chi.URLParam(r, "photoID"))
}

func listIDParam(r *http.Request) (id.ListID, error) {
	return id.ParseListID(chi.URLParam(r, "listID"))
}

func itemIDParam(r *http.Request) (id.ItemID, error) {
	return id.ParseItemID(chi.URLParam(r, "itemID"))
}
