// Package currency converts and formats amounts for display. Amounts are
// rounded here and nowhere else.
package currency

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/salonpos/internal/apperror"
	"github.com/mamadbah2/salonpos/internal/domain/models"
)

// zeroDecimal lists currencies displayed without minor units.
var zeroDecimal = map[string]bool{
	"XOF": true,
	"XAF": true,
	"GNF": true,
	"JPY": true,
}

// Gateway is the currency-rate provider.
type Gateway interface {
	CurrencyRates(ctx context.Context) (*models.CurrencyRates, error)
}

// Service holds the last known rates.
type Service struct {
	gateway Gateway
	base    string
	logger  *zap.Logger

	mu    sync.RWMutex
	rates *models.CurrencyRates
}

// NewService creates a currency service whose amounts are expressed in base.
func NewService(gateway Gateway, base string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{gateway: gateway, base: strings.ToUpper(base), logger: logger}
}

// Base returns the currency amounts are stored in.
func (s *Service) Base() string { return s.base }

// Refresh fetches the latest rates. Previous rates are kept on error.
func (s *Service) Refresh(ctx context.Context) error {
	rates, err := s.gateway.CurrencyRates(ctx)
	if err != nil {
		return fmt.Errorf("refresh currency rates: %w", err)
	}
	if rates == nil || rates.Base == "" {
		return fmt.Errorf("refresh currency rates: empty payload")
	}

	s.mu.Lock()
	s.rates = rates
	s.mu.Unlock()

	s.logger.Debug("currency rates refreshed", zap.String("base", rates.Base), zap.Int("count", len(rates.Rates)))
	return nil
}

// Convert expresses amount (in the base currency) in the target currency.
func (s *Service) Convert(amount decimal.Decimal, to string) (decimal.Decimal, error) {
	to = strings.ToUpper(to)
	if to == s.base {
		return amount, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.rates == nil {
		return decimal.Zero, apperror.NewValidation("currency rates are not available yet")
	}
	from, ok := s.rateOf(s.base)
	if !ok {
		return decimal.Zero, apperror.NewValidation(fmt.Sprintf("unknown currency %s", s.base))
	}
	target, ok := s.rateOf(to)
	if !ok {
		return decimal.Zero, apperror.NewValidation(fmt.Sprintf("unknown currency %s", to))
	}
	return amount.Div(from).Mul(target), nil
}

func (s *Service) rateOf(code string) (decimal.Decimal, bool) {
	if code == strings.ToUpper(s.rates.Base) {
		return decimal.NewFromInt(1), true
	}
	rate, ok := s.rates.Rates[code]
	if !ok || !rate.IsPositive() {
		return decimal.Zero, false
	}
	return rate, true
}

// DecimalPlaces returns the number of minor digits displayed for code.
func DecimalPlaces(code string) int32 {
	if zeroDecimal[strings.ToUpper(code)] {
		return 0
	}
	return 2
}

// Format rounds amount to the display precision of code and groups thousands.
func Format(amount decimal.Decimal, code string) string {
	code = strings.ToUpper(code)
	fixed := amount.StringFixed(DecimalPlaces(code))

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}

	intPart, frac, hasFrac := strings.Cut(fixed, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}

	out := sign + b.String()
	if hasFrac {
		out += "." + frac
	}
	return out + " " + code
}
