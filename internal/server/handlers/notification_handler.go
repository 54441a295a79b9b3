package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/salonpos/internal/domain/models"
)

// NotificationFeed is the locally cached notification feed.
type NotificationFeed interface {
	List() []models.Notification
	UnreadCount() int
	MarkRead(ctx context.Context, id int64) error
	RefreshedAt() time.Time
}

type notificationsResponse struct {
	Data        []models.Notification `json:"data"`
	Unread      int                   `json:"unread"`
	RefreshedAt *time.Time            `json:"refreshed_at,omitempty"`
}

// NotificationHandler serves the notification bell.
type NotificationHandler struct {
	feed   NotificationFeed
	logger *zap.Logger
}

// NewNotificationHandler constructs the notification HTTP adapter.
func NewNotificationHandler(feed NotificationFeed, logger *zap.Logger) *NotificationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationHandler{feed: feed, logger: logger}
}

// List returns the cached feed, its unread count and when it was last refreshed.
// refreshed_at is omitted until the first successful poll.
func (h *NotificationHandler) List(c *gin.Context) {
	items := h.feed.List()
	if items == nil {
		items = []models.Notification{}
	}
	resp := notificationsResponse{Data: items, Unread: h.feed.UnreadCount()}
	if at := h.feed.RefreshedAt(); !at.IsZero() {
		resp.RefreshedAt = &at
	}
	c.JSON(http.StatusOK, resp)
}

// MarkRead flags one notification as read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	if err := h.feed.MarkRead(c.Request.Context(), id); err != nil {
		renderError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
