package stock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/salonpos/internal/apperror"
	"github.com/mamadbah2/salonpos/internal/domain/models"
)

func TestApply(t *testing.T) {
	assert.Equal(t, 13, Apply(8, models.ModeAdd, 5))
	assert.Equal(t, 3, Apply(8, models.ModeRemove, 5))
	assert.Equal(t, 0, Apply(8, models.ModeRemove, 8))
	assert.Equal(t, 0, Apply(8, models.ModeRemove, 50))
	assert.Equal(t, 42, Apply(8, models.ModeSet, 42))
	assert.Equal(t, 0, Apply(8, models.ModeSet, 0))
}

func TestApply_RemoveNeverNegative(t *testing.T) {
	for current := 0; current <= 30; current++ {
		for amount := 0; amount <= 30; amount++ {
			got := Apply(current, models.ModeRemove, amount)
			want := current - amount
			if want < 0 {
				want = 0
			}
			require.Equal(t, want, got, "current=%d amount=%d", current, amount)
		}
	}
}

func TestApply_SetIgnoresCurrent(t *testing.T) {
	for current := 0; current <= 20; current++ {
		assert.Equal(t, 7, Apply(current, models.ModeSet, 7))
	}
}

func TestPreview_RemoveIntoCritical(t *testing.T) {
	level := models.StockLevel{Quantity: 8, Alert: 10, Critical: 5}

	got := Preview(level, models.ModeRemove, 5)

	assert.Equal(t, PreviewResult{Current: 8, Next: 3, Status: StatusCritical}, got)
}

func TestValidate(t *testing.T) {
	valid := models.StockAdjustmentRequest{ProductID: 1, Channel: models.ChannelVente, Mode: models.ModeAdd, Amount: 2}
	require.NoError(t, Validate(valid))

	setZero := valid
	setZero.Mode = models.ModeSet
	setZero.Amount = 0
	require.NoError(t, Validate(setZero))

	tests := []struct {
		name   string
		mutate func(*models.StockAdjustmentRequest)
	}{
		{name: "missing product", mutate: func(r *models.StockAdjustmentRequest) { r.ProductID = 0 }},
		{name: "unknown channel", mutate: func(r *models.StockAdjustmentRequest) { r.Channel = "reserve" }},
		{name: "unknown mode", mutate: func(r *models.StockAdjustmentRequest) { r.Mode = "multiply" }},
		{name: "negative amount", mutate: func(r *models.StockAdjustmentRequest) { r.Amount = -1 }},
		{name: "zero add", mutate: func(r *models.StockAdjustmentRequest) { r.Amount = 0 }},
		{name: "zero remove", mutate: func(r *models.StockAdjustmentRequest) { r.Mode = models.ModeRemove; r.Amount = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := Validate(req)
			assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "got %v", err)
		})
	}
}
