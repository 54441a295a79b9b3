package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyRates maps currency codes to the value of one unit of Base.
type CurrencyRates struct {
	Base      string                     `json:"base"`
	Rates     map[string]decimal.Decimal `json:"rates"`
	UpdatedAt time.Time                  `json:"updated_at"`
}
