package models

// AdjustmentMode is how an operator expresses a stock change.
type AdjustmentMode string

const (
	ModeAdd    AdjustmentMode = "add"
	ModeRemove AdjustmentMode = "remove"
	ModeSet    AdjustmentMode = "set"
)

// Valid reports whether m is a known mode.
func (m AdjustmentMode) Valid() bool {
	return m == ModeAdd || m == ModeRemove || m == ModeSet
}

// StockAdjustmentRequest is one operator-confirmed stock edit.
type StockAdjustmentRequest struct {
	ProductID int64          `json:"product_id"`
	Channel   Channel        `json:"channel"`
	Mode      AdjustmentMode `json:"mode"`
	Amount    int            `json:"amount"`
	Reason    string         `json:"reason,omitempty"`
}

// StockUpdate is the body of PATCH /products/{id}/stock. Quantity is absolute.
type StockUpdate struct {
	Channel  Channel `json:"channel"`
	Quantity int     `json:"quantity"`
	Reason   string  `json:"reason,omitempty"`
}
