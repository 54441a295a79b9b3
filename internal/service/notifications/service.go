// Package notifications keeps the local copy of the backend notification feed.
package notifications

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/salonpos/internal/apperror"
	"github.com/mamadbah2/salonpos/internal/domain/models"
)

// Gateway is the backend notification API.
type Gateway interface {
	ListNotifications(ctx context.Context) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64) error
}

// Service holds the last fetched feed.
type Service struct {
	gateway Gateway
	logger  *zap.Logger
	now     func() time.Time

	mu          sync.RWMutex
	items       []models.Notification
	refreshedAt time.Time
}

// NewService wires a notification feed.
func NewService(gateway Gateway, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{gateway: gateway, logger: logger, now: time.Now}
}

// Refresh replaces the local feed with the backend one. On error the previous feed is kept.
func (s *Service) Refresh(ctx context.Context) error {
	items, err := s.gateway.ListNotifications(ctx)
	if err != nil {
		return fmt.Errorf("refresh notifications: %w", err)
	}

	s.mu.Lock()
	s.items = items
	s.refreshedAt = s.now()
	s.mu.Unlock()

	s.logger.Debug("notifications refreshed", zap.Int("count", len(items)))
	return nil
}

// List returns a copy of the feed, newest first as sent by the backend.
func (s *Service) List() []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Notification, len(s.items))
	copy(out, s.items)
	return out
}

// UnreadCount returns the number of unread notifications.
func (s *Service) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, item := range s.items {
		if !item.Read {
			n++
		}
	}
	return n
}

// RefreshedAt returns the time of the last successful refresh.
func (s *Service) RefreshedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshedAt
}

// MarkRead flags a notification on the backend, then locally.
func (s *Service) MarkRead(ctx context.Context, id int64) error {
	if err := s.gateway.MarkNotificationRead(ctx, id); err != nil {
		return apperror.NewGateway("mark_notification_read", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Read = true
		}
	}
	return nil
}

// Reset forgets the feed, called when the session ends.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.refreshedAt = time.Time{}
}
