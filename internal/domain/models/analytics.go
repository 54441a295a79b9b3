package models

import "github.com/shopspring/decimal"

// TopProduct is one row of the best-sellers ranking.
type TopProduct struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}
