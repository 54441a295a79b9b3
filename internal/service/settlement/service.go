// Package settlement records a finalized cart as a sale in the backend.
package settlement

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/salonpos/internal/apperror"
	"github.com/mamadbah2/salonpos/internal/cart"
	"github.com/mamadbah2/salonpos/internal/domain/models"
)

// State is the settlement state of one cart.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateSettled    State = "settled"
	StateFailed     State = "failed"
)

// Gateway records sales in the backend.
type Gateway interface {
	CreateSale(ctx context.Context, req models.SaleRequest, idempotencyKey string) (*models.SaleReceipt, error)
}

// Notifier receives operator-facing messages.
type Notifier interface {
	Publish(notice models.Notice)
}

// Payment carries the branch-specific data of the selected payment method.
type Payment struct {
	Method         models.PaymentMethod `json:"payment_method"`
	AmountTendered *decimal.Decimal     `json:"amount_tendered,omitempty"`
	Reference      string               `json:"reference,omitempty"`
}

// Result describes a settled sale.
type Result struct {
	Receipt models.SaleReceipt   `json:"receipt"`
	Totals  cart.Totals          `json:"totals"`
	Method  models.PaymentMethod `json:"payment_method"`
	Change  decimal.Decimal      `json:"change"`
}

// Service drives Idle -> Submitting -> Settled|Failed for a single cart.
// The cart is cleared only after the backend acknowledged the sale.
type Service struct {
	cart     *cart.Cart
	gateway  Gateway
	notifier Notifier
	logger   *zap.Logger
	newKey   func() string
	now      func() time.Time

	mu         sync.Mutex
	state      State
	lastErr    error
	pendingKey string
	pendingRev uint64
	pendingPay string
	hasKey     bool
}

// NewService binds a settlement state machine to c.
func NewService(c *cart.Cart, gateway Gateway, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cart:     c,
		gateway:  gateway,
		notifier: notifier,
		logger:   logger,
		newKey:   func() string { return uuid.NewString() },
		now:      time.Now,
		state:    StateIdle,
	}
}

// State returns the current state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastError returns the error of the last failed attempt, if any.
func (s *Service) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Guard runs fn unless a submission is in flight. Cart edits go through it so the
// cart cannot change between the snapshot sent to the backend and the clear.
func (s *Service) Guard(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSubmitting {
		return apperror.NewConcurrentSubmission("cart_update")
	}
	return fn()
}

// Submit sends the cart as one sale. A second call while the first is in flight
// is rejected without any network call.
func (s *Service) Submit(ctx context.Context, payment Payment) (*Result, error) {
	s.mu.Lock()
	if s.state == StateSubmitting {
		s.mu.Unlock()
		return nil, apperror.NewConcurrentSubmission("settlement")
	}

	snap := s.cart.Snapshot()
	if snap.Empty() {
		s.mu.Unlock()
		return nil, apperror.NewEmptyCart()
	}

	change, err := validatePayment(payment, snap)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	key := s.keyFor(snap.Revision, payment)
	s.state = StateSubmitting
	s.mu.Unlock()

	req := buildRequest(snap, payment)
	s.logger.Info("submitting sale",
		zap.String("idempotency_key", key),
		zap.String("payment_method", string(payment.Method)),
		zap.Int("lines", len(req.Lines)),
		zap.String("total", req.Total.String()))

	receipt, err := s.gateway.CreateSale(ctx, req, key)
	if err == nil && receipt == nil {
		err = fmt.Errorf("empty sale receipt")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		appErr := apperror.NewGateway("settlement", err)
		s.state = StateFailed
		s.lastErr = appErr
		s.logger.Warn("sale submission failed, cart kept for retry",
			zap.String("idempotency_key", key),
			zap.Error(err))
		if s.notifier != nil {
			s.notifier.Publish(models.Notice{
				Level:     models.NoticeError,
				Message:   "Sale not recorded, cart kept for retry",
				CreatedAt: s.now(),
			})
		}
		return nil, appErr
	}

	s.cart.Clear()
	s.state = StateSettled
	s.lastErr = nil
	s.hasKey = false

	result := &Result{
		Receipt: *receipt,
		Totals:  snap.Totals,
		Method:  payment.Method,
		Change:  change,
	}

	s.logger.Info("sale settled",
		zap.Int64("sale_id", receipt.SaleID),
		zap.String("invoice_number", receipt.InvoiceNumber))

	if s.notifier != nil {
		s.notifier.Publish(models.Notice{
			Level:     models.NoticeSuccess,
			Message:   fmt.Sprintf("Sale %s recorded", receipt.InvoiceNumber),
			CreatedAt: s.now(),
		})
	}

	return result, nil
}

// keyFor reuses the key of a failed attempt while the cart and the payment are
// unchanged, so a retry after a lost acknowledgment is recognised by the backend
// as the same sale. A different payment is a different sale request.
func (s *Service) keyFor(rev uint64, payment Payment) string {
	fp := payment.fingerprint()
	if s.hasKey && s.pendingRev == rev && s.pendingPay == fp {
		return s.pendingKey
	}
	s.pendingKey = s.newKey()
	s.pendingRev = rev
	s.pendingPay = fp
	s.hasKey = true
	return s.pendingKey
}

func (p Payment) fingerprint() string {
	tendered := ""
	if p.AmountTendered != nil {
		tendered = p.AmountTendered.String()
	}
	return string(p.Method) + "|" + tendered + "|" + p.Reference
}

func validatePayment(payment Payment, snap cart.Snapshot) (decimal.Decimal, error) {
	total := snap.Totals.Total

	switch payment.Method {
	case models.PaymentCash:
		if payment.AmountTendered == nil {
			return decimal.Zero, apperror.NewValidation("amount tendered is required for cash payments")
		}
		if payment.AmountTendered.LessThan(total) {
			return decimal.Zero, apperror.NewValidation("amount tendered is lower than the total").
				WithDetail("total", total.String()).
				WithDetail("amount_tendered", payment.AmountTendered.String())
		}
		return payment.AmountTendered.Sub(total), nil
	case models.PaymentCard:
		return decimal.Zero, nil
	case models.PaymentMobileMoney:
		if payment.Reference == "" {
			return decimal.Zero, apperror.NewValidation("transaction reference is required for mobile money")
		}
		return decimal.Zero, nil
	case models.PaymentCredit:
		if snap.CustomerID == nil {
			return decimal.Zero, apperror.NewValidation("a customer must be selected for credit sales")
		}
		return decimal.Zero, nil
	default:
		return decimal.Zero, apperror.NewValidation(fmt.Sprintf("unsupported payment method %q", payment.Method)).
			WithDetail("payment_method", payment.Method)
	}
}

func buildRequest(snap cart.Snapshot, payment Payment) models.SaleRequest {
	req := models.SaleRequest{
		Lines:            snap.SaleLines(),
		Discount:         snap.Discount,
		Subtotal:         snap.Totals.Subtotal,
		DiscountAmount:   snap.Totals.DiscountAmount,
		Total:            snap.Totals.Total,
		PaymentMethod:    payment.Method,
		CustomerID:       snap.CustomerID,
		PaymentReference: payment.Reference,
	}
	if payment.Method == models.PaymentCash {
		req.AmountTendered = payment.AmountTendered
	}
	return req
}
