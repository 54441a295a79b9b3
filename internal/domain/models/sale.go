package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod selects the settlement branch.
type PaymentMethod string

const (
	PaymentCash        PaymentMethod = "cash"
	PaymentCard        PaymentMethod = "card"
	PaymentMobileMoney PaymentMethod = "mobile_money"
	PaymentCredit      PaymentMethod = "credit"
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentMobileMoney, PaymentCredit:
		return true
	}
	return false
}

// SaleLine is one product line of a sale.
type SaleLine struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// SaleRequest is the body of POST /sales.
type SaleRequest struct {
	Lines            []SaleLine       `json:"items"`
	Discount         decimal.Decimal  `json:"discount"`
	Subtotal         decimal.Decimal  `json:"subtotal"`
	DiscountAmount   decimal.Decimal  `json:"discount_amount"`
	Total            decimal.Decimal  `json:"total"`
	PaymentMethod    PaymentMethod    `json:"payment_method"`
	CustomerID       *int64           `json:"customer_id,omitempty"`
	AmountTendered   *decimal.Decimal `json:"amount_tendered,omitempty"`
	PaymentReference string           `json:"payment_reference,omitempty"`
}

// SaleReceipt is the backend acknowledgment of a recorded sale.
type SaleReceipt struct {
	SaleID        int64           `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	Total         decimal.Decimal `json:"total"`
}

// Sale is a recorded sale as returned by the sales listing.
type Sale struct {
	ID            int64           `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	CreatedAt     time.Time       `json:"created_at"`
	Lines         []SaleLine      `json:"items"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
}
