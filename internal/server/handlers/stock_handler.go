package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/salonpos/internal/domain/models"
	"github.com/mamadbah2/salonpos/internal/stock"
)

// StockAdjuster writes confirmed stock adjustments.
type StockAdjuster interface {
	Adjust(ctx context.Context, baseline models.Product, req models.StockAdjustmentRequest) (models.Product, error)
}

type stockAdjustmentBody struct {
	Channel models.Channel        `json:"channel"`
	Mode    models.AdjustmentMode `json:"mode"`
	Amount  int                   `json:"amount"`
	Reason  string                `json:"reason"`
}

type previewResponse struct {
	ProductID int64          `json:"product_id"`
	Channel   models.Channel `json:"channel"`
	stock.PreviewResult
}

type adjustResponse struct {
	Product  models.Product `json:"product"`
	Channel  models.Channel `json:"channel"`
	Quantity int            `json:"quantity"`
	Status   stock.Status   `json:"status"`
}

// StockHandler previews and applies stock adjustments.
type StockHandler struct {
	catalog  ProductCatalog
	adjuster StockAdjuster
	logger   *zap.Logger
}

// NewStockHandler constructs the stock HTTP adapter.
func NewStockHandler(catalog ProductCatalog, adjuster StockAdjuster, logger *zap.Logger) *StockHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockHandler{catalog: catalog, adjuster: adjuster, logger: logger}
}

// Preview computes the quantity and status an adjustment would lead to. Nothing is written.
func (h *StockHandler) Preview(c *gin.Context) {
	req, product, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, previewResponse{
		ProductID:     product.ID,
		Channel:       req.Channel,
		PreviewResult: stock.Preview(product.Level(req.Channel), req.Mode, req.Amount),
	})
}

// Adjust writes the adjustment as an absolute quantity and returns the backend snapshot.
func (h *StockHandler) Adjust(c *gin.Context) {
	req, product, ok := h.load(c)
	if !ok {
		return
	}

	// the write is not abandoned when the client goes away
	updated, err := h.adjuster.Adjust(context.WithoutCancel(c.Request.Context()), *product, req)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}

	level := updated.Level(req.Channel)
	c.JSON(http.StatusOK, adjustResponse{
		Product:  updated,
		Channel:  req.Channel,
		Quantity: level.Quantity,
		Status:   stock.Classify(level.Quantity, level.Alert, level.Critical),
	})
}

// load validates the body and fetches the server-confirmed baseline.
func (h *StockHandler) load(c *gin.Context) (models.StockAdjustmentRequest, *models.Product, bool) {
	productID, err := int64Param(c, "id")
	if err != nil {
		renderError(c, h.logger, err)
		return models.StockAdjustmentRequest{}, nil, false
	}

	var body stockAdjustmentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		renderError(c, h.logger, bindError(err))
		return models.StockAdjustmentRequest{}, nil, false
	}

	req := models.StockAdjustmentRequest{
		ProductID: productID,
		Channel:   body.Channel,
		Mode:      body.Mode,
		Amount:    body.Amount,
		Reason:    body.Reason,
	}
	if err := stock.Validate(req); err != nil {
		renderError(c, h.logger, err)
		return req, nil, false
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), productID)
	if err != nil {
		renderError(c, h.logger, backendError("get_product", "product", productID, err))
		return req, nil, false
	}
	return req, product, true
}
