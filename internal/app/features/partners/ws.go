// internal/app/features/partners/ws.go
package partners

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/linguahub/internal/app/notify"
	"github.com/dalemusser/linguahub/internal/app/system/httpjson"
	"github.com/dalemusser/linguahub/internal/app/system/timeouts"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	// Must be shorter than wsPongWait so the peer answers before the
	// read deadline fires.
	wsPingPeriod = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// ServeWS handles GET /partners/ws: the live notification stream.
//
// The subscription is registered before the catch-up query runs, so a
// request submitted in between arrives twice rather than never; clients
// deduplicate on request_id. After catch-up the socket carries hub events
// until either side closes.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := currentProfileID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, httpjson.CodeUnauthorized, "sign in required")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.Log.Debug("partners: ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sub := h.Hub.Subscribe(viewerID.Hex())
	defer sub.Close()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	pending, err := h.Requests.PendingIncoming(ctx, viewerID)
	cancel()
	if err != nil {
		h.Log.Error("partners: ws catch-up query", zap.Error(err))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "catch-up failed"),
			time.Now().Add(wsWriteWait))
		return
	}
	for _, item := range pending {
		ev := notify.Event{
			Type:      notify.EventRequestCreated,
			RequestID: item.ID.Hex(),
			Sender: notify.SenderSummary{
				ID:        item.SenderID.Hex(),
				FullName:  item.SenderName,
				AvatarURL: item.SenderAvatarURL,
			},
			CreatedAt: item.CreatedAt,
		}
		if err := writeEvent(conn, ev); err != nil {
			return
		}
	}

	// Reader: we never expect data frames, but reading drives pong
	// handling and detects the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, open := <-sub.C:
			if !open {
				return
			}
			if err := writeEvent(conn, ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, ev notify.Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(ev)
}
