// Package cart keeps the in-memory checkout cart of one terminal.
// Nothing here touches the network; settlement is the only step that can fail remotely.
package cart

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/salonpos/internal/apperror"
	"github.com/mamadbah2/salonpos/internal/domain/models"
)

var hundred = decimal.NewFromInt(100)

// Line is one product of the cart. Quantity is always positive.
type Line struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// Amount is UnitPrice x Quantity.
func (l Line) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Totals are derived on demand, never stored.
type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Total          decimal.Decimal `json:"total"`
}

// Snapshot is a consistent copy of the cart at one revision.
type Snapshot struct {
	Lines      []Line          `json:"lines"`
	Discount   decimal.Decimal `json:"discount"`
	CustomerID *int64          `json:"customer_id,omitempty"`
	Totals     Totals          `json:"totals"`
	Revision   uint64          `json:"revision"`
}

// Empty reports whether the snapshot has no lines.
func (s Snapshot) Empty() bool {
	return len(s.Lines) == 0
}

// SaleLines converts the snapshot lines to the sale payload shape.
func (s Snapshot) SaleLines() []models.SaleLine {
	out := make([]models.SaleLine, 0, len(s.Lines))
	for _, l := range s.Lines {
		out = append(out, models.SaleLine{
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
		})
	}
	return out
}

// Cart holds at most one line per product, a discount percentage and an optional customer.
type Cart struct {
	mu       sync.Mutex
	lines    []Line
	index    map[int64]int
	discount decimal.Decimal
	customer *int64
	revision uint64
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{index: make(map[int64]int)}
}

// AddItem increments the line of productID or appends a new one with quantity 1.
func (c *Cart) AddItem(productID int64, unitPrice decimal.Decimal, name string) {
	c.AddItems(productID, unitPrice, name, 1)
}

// AddItems adds quantity units of productID in one step. Non-positive quantities are ignored.
func (c *Cart) AddItems(productID int64, unitPrice decimal.Decimal, name string, quantity int) {
	if quantity <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if i, ok := c.index[productID]; ok {
		c.lines[i].Quantity += quantity
	} else {
		c.index[productID] = len(c.lines)
		c.lines = append(c.lines, Line{ProductID: productID, Name: name, UnitPrice: unitPrice, Quantity: quantity})
	}
	c.revision++
}

// RemoveItem deletes the line of productID. Absent products are ignored.
func (c *Cart) RemoveItem(productID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index[productID]
	if !ok {
		return
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	delete(c.index, productID)
	for j := i; j < len(c.lines); j++ {
		c.index[c.lines[j].ProductID] = j
	}
	c.revision++
}

// SetDiscount sets the discount percentage. Values outside [0, 100] are rejected, not clamped.
func (c *Cart) SetDiscount(percent decimal.Decimal) error {
	if percent.IsNegative() || percent.GreaterThan(hundred) {
		return apperror.NewValidation(fmt.Sprintf("discount must be between 0 and 100, got %s", percent.String())).
			WithDetail("discount", percent.String())
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.discount.Equal(percent) {
		c.discount = percent
		c.revision++
	}
	return nil
}

// SetCustomer selects the customer the sale is attached to. nil clears it.
func (c *Cart) SetCustomer(customerID *int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if customerID != nil {
		id := *customerID
		customerID = &id
	}
	c.customer = customerID
	c.revision++
}

// Totals computes subtotal, discount amount and total without rounding.
func (c *Cart) Totals() Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return computeTotals(c.lines, c.discount)
}

// Snapshot copies the current state.
func (c *Cart) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines := make([]Line, len(c.lines))
	copy(lines, c.lines)
	var customer *int64
	if c.customer != nil {
		id := *c.customer
		customer = &id
	}
	return Snapshot{
		Lines:      lines,
		Discount:   c.discount,
		CustomerID: customer,
		Totals:     computeTotals(c.lines, c.discount),
		Revision:   c.revision,
	}
}

// Clear empties the cart, resets the discount and the customer.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
	c.index = make(map[int64]int)
	c.discount = decimal.Zero
	c.customer = nil
	c.revision++
}

func computeTotals(lines []Line, discount decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Amount())
	}
	discountAmount := subtotal.Mul(discount).Div(hundred)
	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		Total:          subtotal.Sub(discountAmount),
	}
}
