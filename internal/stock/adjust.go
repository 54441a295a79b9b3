package stock

import (
	"fmt"

	"github.com/mamadbah2/salonpos/internal/apperror"
	"github.com/mamadbah2/salonpos/internal/domain/models"
)

// Apply computes the absolute quantity an adjustment leads to.
// Removal floors at zero.
func Apply(current int, mode models.AdjustmentMode, amount int) int {
	switch mode {
	case models.ModeAdd:
		return current + amount
	case models.ModeRemove:
		if amount >= current {
			return 0
		}
		return current - amount
	case models.ModeSet:
		return amount
	default:
		return current
	}
}

// PreviewResult is what the stock modal shows while the operator types.
type PreviewResult struct {
	Current int    `json:"current"`
	Next    int    `json:"next"`
	Status  Status `json:"status"`
}

// Preview applies an adjustment to a level without touching the network.
func Preview(level models.StockLevel, mode models.AdjustmentMode, amount int) PreviewResult {
	next := Apply(level.Quantity, mode, amount)
	return PreviewResult{
		Current: level.Quantity,
		Next:    next,
		Status:  Classify(next, level.Alert, level.Critical),
	}
}

// Validate rejects malformed adjustments before anything is sent.
func Validate(req models.StockAdjustmentRequest) error {
	if req.ProductID <= 0 {
		return apperror.NewValidation("product id is required")
	}
	if !req.Channel.Valid() {
		return apperror.NewValidation(fmt.Sprintf("unknown stock channel %q", req.Channel)).
			WithDetail("channel", req.Channel)
	}
	if !req.Mode.Valid() {
		return apperror.NewValidation(fmt.Sprintf("unknown adjustment mode %q", req.Mode)).
			WithDetail("mode", req.Mode)
	}
	if req.Amount < 0 {
		return apperror.NewValidation("amount must not be negative").WithDetail("amount", req.Amount)
	}
	if req.Amount == 0 && req.Mode != models.ModeSet {
		return apperror.NewValidation("amount must be positive").WithDetail("amount", req.Amount)
	}
	return nil
}
