package stock

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mamadbah2/salonpos/internal/apperror"
	"github.com/mamadbah2/salonpos/internal/domain/models"
)

// Gateway is the backend call used to write stock.
type Gateway interface {
	SetStock(ctx context.Context, productID int64, update models.StockUpdate) (*models.Product, error)
}

// Reconciler sends confirmed adjustments to the backend as absolute quantities.
// The backend snapshot it returns is the only value callers should display afterwards.
type Reconciler struct {
	gateway Gateway
	logger  *zap.Logger

	mu       sync.Mutex
	inFlight map[inFlightKey]struct{}
}

type inFlightKey struct {
	productID int64
	channel   models.Channel
}

// NewReconciler wires a reconciler on top of the backend gateway.
func NewReconciler(gateway Gateway, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		gateway:  gateway,
		logger:   logger,
		inFlight: make(map[inFlightKey]struct{}),
	}
}

// Adjust validates req, translates it against the baseline quantity and writes the
// resulting absolute value. On failure the baseline is returned unchanged with the error.
func (r *Reconciler) Adjust(ctx context.Context, baseline models.Product, req models.StockAdjustmentRequest) (models.Product, error) {
	if err := Validate(req); err != nil {
		return baseline, err
	}
	if req.ProductID != baseline.ID {
		return baseline, apperror.NewValidation("adjustment does not match product").
			WithDetail("product_id", req.ProductID)
	}

	key := inFlightKey{productID: req.ProductID, channel: req.Channel}
	if !r.acquire(key) {
		return baseline, apperror.NewConcurrentSubmission("stock_adjustment").
			WithDetail("product_id", req.ProductID).
			WithDetail("channel", req.Channel)
	}
	defer r.release(key)

	current := baseline.Level(req.Channel).Quantity
	target := Apply(current, req.Mode, req.Amount)

	update := models.StockUpdate{Channel: req.Channel, Quantity: target, Reason: req.Reason}
	snapshot, err := r.gateway.SetStock(ctx, req.ProductID, update)
	if err != nil {
		r.logger.Warn("stock adjustment failed",
			zap.Int64("product_id", req.ProductID),
			zap.String("channel", string(req.Channel)),
			zap.Int("target", target),
			zap.Error(err))
		return baseline, apperror.NewGateway("stock_adjustment", err)
	}
	if snapshot == nil {
		return baseline, apperror.NewGateway("stock_adjustment", fmt.Errorf("empty product snapshot"))
	}

	r.logger.Info("stock adjusted",
		zap.Int64("product_id", req.ProductID),
		zap.String("channel", string(req.Channel)),
		zap.String("mode", string(req.Mode)),
		zap.Int("from", current),
		zap.Int("to", snapshot.Level(req.Channel).Quantity))

	return *snapshot, nil
}

func (r *Reconciler) acquire(key inFlightKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.inFlight[key]; busy {
		return false
	}
	r.inFlight[key] = struct{}{}
	return true
}

func (r *Reconciler) release(key inFlightKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, key)
}
