package stock

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mamadbah2/salonpos/internal/apperror"
	"github.com/mamadbah2/salonpos/internal/domain/models"
)

// fakeGateway stores absolute quantities like the backend does.
type fakeGateway struct {
	mu      sync.Mutex
	product models.Product
	calls   []models.StockUpdate
	err     error
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeGateway) SetStock(ctx context.Context, productID int64, update models.StockUpdate) (*models.Product, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, update)
	if f.err != nil {
		return nil, f.err
	}
	f.product = withQuantity(f.product, update.Channel, update.Quantity)
	snapshot := f.product
	return &snapshot, nil
}

func withQuantity(p models.Product, channel models.Channel, quantity int) models.Product {
	if channel == models.ChannelUtilisation {
		p.StockUtilisation = quantity
	} else {
		p.StockVente = quantity
	}
	return p
}

func testProduct() models.Product {
	return models.Product{
		ID:                 1,
		Name:               "Cire",
		StockVente:         8,
		SeuilAlerteVente:   10,
		SeuilCritiqueVente: 5,
		StockUtilisation:   4,
	}
}

func TestReconciler_SendsAbsoluteQuantity(t *testing.T) {
	gw := &fakeGateway{product: testProduct()}
	r := NewReconciler(gw, zaptest.NewLogger(t))

	got, err := r.Adjust(context.Background(), testProduct(), models.StockAdjustmentRequest{
		ProductID: 1, Channel: models.ChannelVente, Mode: models.ModeRemove, Amount: 5, Reason: "casse",
	})

	require.NoError(t, err)
	require.Len(t, gw.calls, 1)
	assert.Equal(t, models.StockUpdate{Channel: models.ChannelVente, Quantity: 3, Reason: "casse"}, gw.calls[0])
	assert.Equal(t, 3, got.StockVente)
	assert.Equal(t, 4, got.StockUtilisation)
}

func TestReconciler_ReplayConverges(t *testing.T) {
	gw := &fakeGateway{product: testProduct()}
	r := NewReconciler(gw, nil)
	baseline := testProduct()
	req := models.StockAdjustmentRequest{ProductID: 1, Channel: models.ChannelUtilisation, Mode: models.ModeAdd, Amount: 6}

	first, err := r.Adjust(context.Background(), baseline, req)
	require.NoError(t, err)
	// a retry after a lost acknowledgment reuses the same baseline and therefore the same target
	second, err := r.Adjust(context.Background(), baseline, req)
	require.NoError(t, err)

	assert.Equal(t, 10, first.StockUtilisation)
	assert.Equal(t, first, second)
	assert.Equal(t, gw.calls[0], gw.calls[1])
}

func TestReconciler_FailureKeepsBaseline(t *testing.T) {
	gw := &fakeGateway{product: testProduct(), err: errors.New("timeout")}
	r := NewReconciler(gw, nil)
	baseline := testProduct()

	got, err := r.Adjust(context.Background(), baseline, models.StockAdjustmentRequest{
		ProductID: 1, Channel: models.ChannelVente, Mode: models.ModeSet, Amount: 20,
	})

	assert.True(t, apperror.HasCode(err, apperror.CodeGateway))
	assert.Equal(t, baseline, got)
}

func TestReconciler_ValidationSkipsNetwork(t *testing.T) {
	gw := &fakeGateway{product: testProduct()}
	r := NewReconciler(gw, nil)

	_, err := r.Adjust(context.Background(), testProduct(), models.StockAdjustmentRequest{
		ProductID: 1, Channel: models.ChannelVente, Mode: models.ModeAdd, Amount: 0,
	})

	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	assert.Empty(t, gw.calls)
}

func TestReconciler_RejectsConcurrentAdjustment(t *testing.T) {
	gw := &fakeGateway{
		product: testProduct(),
		block:   make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	r := NewReconciler(gw, nil)
	req := models.StockAdjustmentRequest{ProductID: 1, Channel: models.ChannelVente, Mode: models.ModeAdd, Amount: 1}

	done := make(chan error, 1)
	go func() {
		_, err := r.Adjust(context.Background(), testProduct(), req)
		done <- err
	}()
	<-gw.entered

	_, err := r.Adjust(context.Background(), testProduct(), req)
	assert.True(t, apperror.HasCode(err, apperror.CodeConcurrentSubmission))

	// the other channel is independent
	gw.entered = nil
	other := req
	other.Channel = models.ChannelUtilisation
	otherDone := make(chan error, 1)
	go func() {
		_, err := r.Adjust(context.Background(), testProduct(), other)
		otherDone <- err
	}()

	close(gw.block)
	require.NoError(t, <-done)
	require.NoError(t, <-otherDone)
	assert.Len(t, gw.calls, 2)
}
