package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/salonpos/internal/apperror"
	"github.com/mamadbah2/salonpos/internal/domain/models"
	"github.com/mamadbah2/salonpos/internal/service/reporting"
)

const dateLayout = "2006-01-02"

// Reports computes sales analytics.
type Reports interface {
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]models.TopProduct, error)
	SalesSummary(ctx context.Context, from, to time.Time) (*reporting.Summary, error)
}

type topProductsResponse struct {
	From string              `json:"from"`
	To   string              `json:"to"`
	Data []models.TopProduct `json:"data"`
}

// ReportHandler serves dashboard analytics.
type ReportHandler struct {
	reports  Reports
	location *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// NewReportHandler constructs the reporting HTTP adapter. Dates are read in location.
func NewReportHandler(reports Reports, location *time.Location, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.Local
	}
	return &ReportHandler{reports: reports, location: location, logger: logger, now: time.Now}
}

// TopProducts ranks products by revenue over ?from=&to= (YYYY-MM-DD, default: month to date).
func (h *ReportHandler) TopProducts(c *gin.Context) {
	from, to, err := h.period(c)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			renderError(c, h.logger, apperror.NewValidation("limit must be an integer").WithDetail("limit", raw))
			return
		}
	}

	items, err := h.reports.TopProducts(c.Request.Context(), from, to, limit)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	if items == nil {
		items = []models.TopProduct{}
	}
	c.JSON(http.StatusOK, topProductsResponse{
		From: from.Format(dateLayout),
		To:   to.Format(dateLayout),
		Data: items,
	})
}

// Summary returns sales count, revenue and average basket over the period.
func (h *ReportHandler) Summary(c *gin.Context) {
	from, to, err := h.period(c)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	summary, err := h.reports.SalesSummary(c.Request.Context(), from, to)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *ReportHandler) period(c *gin.Context) (time.Time, time.Time, error) {
	now := h.now().In(h.location)
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, h.location)
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, h.location)

	if raw := c.Query("from"); raw != "" {
		t, err := time.ParseInLocation(dateLayout, raw, h.location)
		if err != nil {
			return from, to, apperror.NewValidation("from must be a YYYY-MM-DD date").WithDetail("from", raw)
		}
		from = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.ParseInLocation(dateLayout, raw, h.location)
		if err != nil {
			return from, to, apperror.NewValidation("to must be a YYYY-MM-DD date").WithDetail("to", raw)
		}
		to = t
	}
	return from, to, nil
}
