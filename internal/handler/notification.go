package handler

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
	"github.com/aryan0dhankhar/rentdesk/internal/service"
)

const (
	wsPingInterval = 15 * time.Second
	wsWriteTimeout = 5 * time.Second
)

// NotificationHandler serves the caller's inbox and its live stream
type NotificationHandler struct {
	notifications  *service.NotificationService
	pages          Pagination
	allowedOrigins []string
	logger         *slog.Logger
}

// NewNotificationHandler creates the inbox handler. allowedOrigins gates
// websocket upgrades; "*" accepts any origin.
func NewNotificationHandler(notifications *service.NotificationService, pages Pagination, allowedOrigins []string, logger *slog.Logger) *NotificationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationHandler{
		notifications:  notifications,
		pages:          pages,
		allowedOrigins: allowedOrigins,
		logger:         logger,
	}
}

type NotificationIDsRequest struct {
	IDs []string `json:"ids"`
	All bool     `json:"all"`
}

type NotificationResponse struct {
	ID        string                  `json:"id"`
	Type      domain.NotificationType `json:"type"`
	EntityID  *string                 `json:"entityId,omitempty"`
	Message   string                  `json:"message"`
	IsRead    bool                    `json:"isRead"`
	CreatedAt time.Time               `json:"createdAt"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

func toNotificationResponse(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		EntityID:  n.EntityID,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

// List handles GET /api/notifications?isRead=
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	isRead, err := queryBool(r, "isRead")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	page, err := h.pages.page(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.notifications.List(r.Context(), a, isRead, page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(res, toNotificationResponse))
}

// UnreadCount handles GET /api/notifications/unread-count
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	n, err := h.notifications.UnreadCount(r.Context(), a)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: int64(n)})
}

// MarkRead handles POST /api/notifications/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req NotificationIDsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	n, err := h.notifications.MarkRead(r.Context(), a, req.IDs)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

// MarkAllRead handles POST /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	n, err := h.notifications.MarkAllRead(r.Context(), a)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

// Delete handles DELETE /api/notifications with {"ids": [...]} or {"all": true}
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req NotificationIDsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var n int64
	if req.All {
		n, err = h.notifications.DeleteAll(r.Context(), a)
	} else {
		n, err = h.notifications.Delete(r.Context(), a, req.IDs)
	}
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

func (h *NotificationHandler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			// non-browser clients send no origin
			if origin == "" || slices.Contains(h.allowedOrigins, origin) {
				return true
			}
			h.logger.Warn("websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}
}

// Stream handles GET /ws/notifications. Each notification created for the
// caller after the upgrade is pushed as a JSON text frame.
func (h *NotificationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	// subscribe before the handshake completes so nothing published after
	// the client sees 101 is missed
	events, cancel := h.notifications.Subscribe(a)
	defer cancel()

	up := h.upgrader()
	ws, err := up.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	// The read loop only exists to notice the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-gone:
			h.logger.Debug("notification stream closed by client", slog.String("user_id", a.UserID))
			return
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		case n, ok := <-events:
			if !ok {
				return
			}
			_ = ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := ws.WriteJSON(toNotificationResponse(n)); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.logger.Debug("notification stream write failed", slog.String("error", err.Error()))
				}
				return
			}
		}
	}
}
