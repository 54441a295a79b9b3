package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/salonpos/internal/apperror"
	"github.com/mamadbah2/salonpos/internal/domain/models"
)

type fakeGateway struct {
	items   []models.Notification
	listErr error
	markErr error
	marked  []int64
}

func (f *fakeGateway) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	return f.items, f.listErr
}

func (f *fakeGateway) MarkNotificationRead(ctx context.Context, id int64) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.marked = append(f.marked, id)
	return nil
}

func TestRefreshAndUnreadCount(t *testing.T) {
	gw := &fakeGateway{items: []models.Notification{
		{ID: 1, Title: "Stock critique", Read: false},
		{ID: 2, Title: "RDV", Read: true},
		{ID: 3, Title: "Stock bas", Read: false},
	}}
	svc := NewService(gw, nil)

	require.NoError(t, svc.Refresh(context.Background()))

	assert.Len(t, svc.List(), 3)
	assert.Equal(t, 2, svc.UnreadCount())
	assert.False(t, svc.RefreshedAt().IsZero())
}

func TestRefresh_ErrorKeepsPreviousFeed(t *testing.T) {
	gw := &fakeGateway{items: []models.Notification{{ID: 1}}}
	svc := NewService(gw, nil)
	require.NoError(t, svc.Refresh(context.Background()))

	gw.listErr = errors.New("502")
	assert.Error(t, svc.Refresh(context.Background()))
	assert.Len(t, svc.List(), 1)
}

func TestMarkRead(t *testing.T) {
	gw := &fakeGateway{items: []models.Notification{{ID: 1}, {ID: 2}}}
	svc := NewService(gw, nil)
	require.NoError(t, svc.Refresh(context.Background()))

	require.NoError(t, svc.MarkRead(context.Background(), 2))
	assert.Equal(t, []int64{2}, gw.marked)
	assert.Equal(t, 1, svc.UnreadCount())

	gw.markErr = errors.New("timeout")
	err := svc.MarkRead(context.Background(), 1)
	assert.True(t, apperror.HasCode(err, apperror.CodeGateway))
	assert.Equal(t, 1, svc.UnreadCount())
}

func TestListReturnsCopyAndReset(t *testing.T) {
	gw := &fakeGateway{items: []models.Notification{{ID: 1}}}
	svc := NewService(gw, nil)
	require.NoError(t, svc.Refresh(context.Background()))

	list := svc.List()
	list[0].Read = true
	assert.Equal(t, 1, svc.UnreadCount())

	svc.Reset()
	assert.Empty(t, svc.List())
	assert.True(t, svc.RefreshedAt().IsZero())
}
