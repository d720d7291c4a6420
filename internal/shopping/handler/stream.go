package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"listsnap/internal/shopping/models"
	dErrors "listsnap/pkg/domain-errors"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// streamMessage is the envelope for every frame sent to stream clients.
type streamMessage struct {
	Type    string `json:"type"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func (h *Handler) handleStreamSummaries(w http.ResponseWriter, r *http.Request) {
	serveStream(h, w, r, h.lists.WatchSummaries, func(s []models.ListSummary) any {
		return toSummaryResponses(s)
	})
}

func (h *Handler) handleStreamItems(w http.ResponseWriter, r *http.Request) {
	listID, err := listIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	list, err := h.lists.FindByID(r.Context(), listID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if list == nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeNotFound, "shopping list not found"))
		return
	}
	watch := func(ctx context.Context) (<-chan []*models.Item, error) {
		return h.items.WatchByList(ctx, listID)
	}
	serveStream(h, w, r, watch, func(items []*models.Item) any { return items })
}

// serveStream upgrades the connection and writes one "snapshot" frame per
// value from watch until either side goes away.
func serveStream[T any](h *Handler, w http.ResponseWriter, r *http.Request, watch func(context.Context) (<-chan T, error), render func(T) any) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "websocket upgrade failed", "path", r.URL.Path, "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	h.metrics.LiveSubscriptions.Inc()
	defer h.metrics.LiveSubscriptions.Dec()

	snapshots, err := watch(ctx)
	if err != nil {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = conn.WriteJSON(streamMessage{Type: "error", Message: dErrors.UserMessage(err)})
		return
	}

	// Client frames are discarded; a read error means the peer left.
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(streamMessage{Type: "snapshot", Data: render(snap)}); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
