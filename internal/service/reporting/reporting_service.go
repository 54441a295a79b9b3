package reporting

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/salonpos/internal/apperror"
	"github.com/mamadbah2/salonpos/internal/domain/models"
)

const (
	defaultTopLimit = 5
	maxTopLimit     = 50
	maxPeriod       = 366 * 24 * time.Hour
)

// SalesSource lists recorded sales.
type SalesSource interface {
	ListSales(ctx context.Context, from, to time.Time) ([]models.Sale, error)
}

// Summary aggregates the sales of a period.
type Summary struct {
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	SalesCount    int             `json:"sales_count"`
	ItemsSold     int             `json:"items_sold"`
	Revenue       decimal.Decimal `json:"revenue"`
	AverageBasket decimal.Decimal `json:"average_basket"`
}

// Service computes sales analytics from the backend sales feed.
type Service struct {
	source SalesSource
	logger *zap.Logger
}

// NewService wires a new reporting service instance.
func NewService(source SalesSource, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, logger: logger}
}

// TopProducts ranks products by revenue over the period, then by quantity, then by name.
func (s *Service) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]models.TopProduct, error) {
	if err := validatePeriod(from, to); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultTopLimit
	}
	if limit > maxTopLimit {
		limit = maxTopLimit
	}

	sales, err := s.source.ListSales(ctx, from, to)
	if err != nil {
		return nil, apperror.NewGateway("list_sales", err)
	}

	byProduct := make(map[int64]*models.TopProduct)
	for _, sale := range sales {
		for _, line := range sale.Lines {
			if line.Quantity <= 0 {
				s.logger.Debug("skip sale line with invalid quantity",
					zap.Int64("sale_id", sale.ID),
					zap.Int64("product_id", line.ProductID))
				continue
			}
			entry, ok := byProduct[line.ProductID]
			if !ok {
				entry = &models.TopProduct{ProductID: line.ProductID, Name: line.Name, Revenue: decimal.Zero}
				byProduct[line.ProductID] = entry
			}
			if entry.Name == "" {
				entry.Name = line.Name
			}
			entry.Quantity += line.Quantity
			entry.Revenue = entry.Revenue.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
	}

	ranking := make([]models.TopProduct, 0, len(byProduct))
	for _, entry := range byProduct {
		ranking = append(ranking, *entry)
	}
	sort.Slice(ranking, func(i, j int) bool {
		if c := ranking[i].Revenue.Cmp(ranking[j].Revenue); c != 0 {
			return c > 0
		}
		if ranking[i].Quantity != ranking[j].Quantity {
			return ranking[i].Quantity > ranking[j].Quantity
		}
		if ranking[i].Name != ranking[j].Name {
			return ranking[i].Name < ranking[j].Name
		}
		return ranking[i].ProductID < ranking[j].ProductID
	})

	if len(ranking) > limit {
		ranking = ranking[:limit]
	}
	return ranking, nil
}

// SalesSummary totals the sales recorded over the period.
func (s *Service) SalesSummary(ctx context.Context, from, to time.Time) (*Summary, error) {
	if err := validatePeriod(from, to); err != nil {
		return nil, err
	}

	sales, err := s.source.ListSales(ctx, from, to)
	if err != nil {
		return nil, apperror.NewGateway("list_sales", err)
	}

	summary := &Summary{From: from, To: to, Revenue: decimal.Zero, AverageBasket: decimal.Zero}
	for _, sale := range sales {
		summary.SalesCount++
		summary.Revenue = summary.Revenue.Add(sale.Total)
		for _, line := range sale.Lines {
			if line.Quantity > 0 {
				summary.ItemsSold += line.Quantity
			}
		}
	}
	if summary.SalesCount > 0 {
		summary.AverageBasket = summary.Revenue.Div(decimal.NewFromInt(int64(summary.SalesCount)))
	}
	return summary, nil
}

func validatePeriod(from, to time.Time) error {
	if from.IsZero() || to.IsZero() {
		return apperror.NewValidation("period bounds are required")
	}
	if to.Before(from) {
		return apperror.NewValidation("period end is before its start")
	}
	if to.Sub(from) > maxPeriod {
		return apperror.NewValidation("period must not exceed one year")
	}
	return nil
}
