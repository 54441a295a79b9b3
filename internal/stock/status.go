// Package stock holds the stock status rules, the adjustment preview and the
// reconciliation of confirmed adjustments with the backend.
package stock

// Status is the alert state of a stock level.
type Status string

const (
	StatusOK       Status = "ok"
	StatusLow      Status = "low"
	StatusCritical Status = "critical"
)

// Classify maps a quantity to its status. Thresholds are inclusive and the
// critical check wins ties. Callers guarantee critical <= alert.
func Classify(quantity, alert, critical int) Status {
	switch {
	case quantity <= critical:
		return StatusCritical
	case quantity <= alert:
		return StatusLow
	default:
		return StatusOK
	}
}

// Severity is the presentation weight used to sort and highlight products.
func (s Status) Severity() int {
	switch s {
	case StatusCritical:
		return 2
	case StatusLow:
		return 1
	default:
		return 0
	}
}
