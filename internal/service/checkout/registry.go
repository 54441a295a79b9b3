// Package checkout owns the checkout session of each terminal: its cart, its
// settlement state machine and the notices shown to the operator.
package checkout

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/salonpos/internal/apperror"
	"github.com/mamadbah2/salonpos/internal/cart"
	"github.com/mamadbah2/salonpos/internal/domain/models"
	"github.com/mamadbah2/salonpos/internal/service/settlement"
)

const maxNotices = 20

// MaxAddQuantity bounds the units added by a single request.
const MaxAddQuantity = 999

// View is what the checkout screen renders.
type View struct {
	Terminal  string           `json:"terminal"`
	Cart      cart.Snapshot    `json:"cart"`
	State     settlement.State `json:"state"`
	LastError string           `json:"last_error,omitempty"`
}

// Terminal is the checkout session of one terminal. It lives in memory only.
type Terminal struct {
	id         string
	cart       *cart.Cart
	settlement *settlement.Service

	mu      sync.Mutex
	notices []models.Notice
}

// ID returns the terminal identifier.
func (t *Terminal) ID() string { return t.id }

// AddItem adds one unit of a product.
func (t *Terminal) AddItem(productID int64, unitPrice decimal.Decimal, name string) error {
	return t.AddQuantity(productID, unitPrice, name, 1)
}

// AddQuantity adds quantity units of a product. All units land in the cart
// together or not at all.
func (t *Terminal) AddQuantity(productID int64, unitPrice decimal.Decimal, name string, quantity int) error {
	if productID <= 0 {
		return apperror.NewValidation("product id is required")
	}
	if unitPrice.IsNegative() {
		return apperror.NewValidation("unit price must not be negative").WithDetail("unit_price", unitPrice.String())
	}
	if quantity < 1 || quantity > MaxAddQuantity {
		return apperror.NewValidation(fmt.Sprintf("quantity must be between 1 and %d", MaxAddQuantity)).
			WithDetail("quantity", quantity)
	}
	return t.settlement.Guard(func() error {
		t.cart.AddItems(productID, unitPrice, name, quantity)
		return nil
	})
}

// RemoveItem drops the line of a product.
func (t *Terminal) RemoveItem(productID int64) error {
	return t.settlement.Guard(func() error {
		t.cart.RemoveItem(productID)
		return nil
	})
}

// SetDiscount sets the discount percentage.
func (t *Terminal) SetDiscount(percent decimal.Decimal) error {
	return t.settlement.Guard(func() error {
		return t.cart.SetDiscount(percent)
	})
}

// SetCustomer selects or clears the customer.
func (t *Terminal) SetCustomer(customerID *int64) error {
	return t.settlement.Guard(func() error {
		t.cart.SetCustomer(customerID)
		return nil
	})
}

// Cancel empties the cart. Rejected while a settlement is in flight.
func (t *Terminal) Cancel() error {
	return t.settlement.Guard(func() error {
		t.cart.Clear()
		return nil
	})
}

// Settle submits the cart with the chosen payment.
func (t *Terminal) Settle(ctx context.Context, payment settlement.Payment) (*settlement.Result, error) {
	return t.settlement.Submit(ctx, payment)
}

// View returns the current screen state.
func (t *Terminal) View() View {
	v := View{
		Terminal: t.id,
		Cart:     t.cart.Snapshot(),
		State:    t.settlement.State(),
	}
	if err := t.settlement.LastError(); err != nil && v.State == settlement.StateFailed {
		v.LastError = err.Error()
	}
	return v
}

// Publish implements settlement.Notifier.
func (t *Terminal) Publish(notice models.Notice) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notices = append(t.notices, notice)
	if len(t.notices) > maxNotices {
		t.notices = t.notices[len(t.notices)-maxNotices:]
	}
}

// DrainNotices returns pending notices and forgets them.
func (t *Terminal) DrainNotices() []models.Notice {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.notices
	t.notices = nil
	return out
}

// Registry keeps one Terminal per terminal id.
type Registry struct {
	gateway settlement.Gateway
	logger  *zap.Logger

	mu        sync.Mutex
	terminals map[string]*Terminal
}

// NewRegistry creates an empty registry whose terminals settle through gateway.
func NewRegistry(gateway settlement.Gateway, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		gateway:   gateway,
		logger:    logger,
		terminals: make(map[string]*Terminal),
	}
}

// Open returns the terminal session, creating an empty one on first use.
func (r *Registry) Open(terminalID string) (*Terminal, error) {
	terminalID = strings.TrimSpace(terminalID)
	if terminalID == "" {
		return nil, apperror.NewValidation("terminal id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.terminals[terminalID]; ok {
		return t, nil
	}

	t := &Terminal{id: terminalID, cart: cart.New()}
	t.settlement = settlement.NewService(t.cart, r.gateway, t, r.logger.With(zap.String("terminal", terminalID)))
	r.terminals[terminalID] = t
	r.logger.Info("checkout opened", zap.String("terminal", terminalID))
	return t, nil
}

// Close cancels and forgets a terminal session. Unknown terminals are ignored.
func (r *Registry) Close(terminalID string) error {
	terminalID = strings.TrimSpace(terminalID)

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.terminals[terminalID]
	if !ok {
		return nil
	}
	if err := t.Cancel(); err != nil {
		return err
	}
	delete(r.terminals, terminalID)
	r.logger.Info("checkout closed", zap.String("terminal", terminalID))
	return nil
}

// CloseAll drops every idle terminal, used when the operator logs out.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, t := range r.terminals {
		if err := t.Cancel(); err != nil {
			r.logger.Warn("checkout kept, settlement in flight", zap.String("terminal", id))
			continue
		}
		delete(r.terminals, id)
	}
}
