package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/salonpos/internal/apperror"
	"github.com/mamadbah2/salonpos/internal/domain/models"
	"github.com/mamadbah2/salonpos/internal/service/checkout"
	"github.com/mamadbah2/salonpos/internal/service/settlement"
)

type addItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity"`
}

type discountRequest struct {
	Discount decimal.Decimal `json:"discount"`
}

type customerRequest struct {
	CustomerID *int64 `json:"customer_id"`
}

type checkoutResponse struct {
	checkout.View
	Notices []models.Notice `json:"notices,omitempty"`
}

type settleResponse struct {
	*settlement.Result
	Notices []models.Notice `json:"notices,omitempty"`
}

// CheckoutHandler exposes the cart and settlement of each terminal.
type CheckoutHandler struct {
	registry *checkout.Registry
	catalog  ProductCatalog
	logger   *zap.Logger
	now      func() time.Time
}

// NewCheckoutHandler constructs the checkout HTTP adapter.
func NewCheckoutHandler(registry *checkout.Registry, catalog ProductCatalog, logger *zap.Logger) *CheckoutHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckoutHandler{registry: registry, catalog: catalog, logger: logger, now: time.Now}
}

// Get returns the cart of a terminal and the notices raised since the last call.
func (h *CheckoutHandler) Get(c *gin.Context) {
	t, ok := h.terminal(c)
	if !ok {
		return
	}
	h.respond(c, http.StatusOK, t)
}

// Cancel empties the cart and forgets the terminal session.
func (h *CheckoutHandler) Cancel(c *gin.Context) {
	if err := h.registry.Close(c.Param("terminal")); err != nil {
		renderError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddItem adds a product at its current effective price.
func (h *CheckoutHandler) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, h.logger, bindError(err))
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 || req.Quantity > checkout.MaxAddQuantity {
		renderError(c, h.logger, apperror.NewValidation(fmt.Sprintf("quantity must be between 1 and %d", checkout.MaxAddQuantity)).
			WithDetail("quantity", req.Quantity))
		return
	}

	t, ok := h.terminal(c)
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), req.ProductID)
	if err != nil {
		renderError(c, h.logger, backendError("get_product", "product", req.ProductID, err))
		return
	}

	if err := t.AddQuantity(product.ID, product.EffectivePrice(h.now()), product.Name, req.Quantity); err != nil {
		renderError(c, h.logger, err)
		return
	}
	h.respond(c, http.StatusOK, t)
}

// RemoveItem drops a product line.
func (h *CheckoutHandler) RemoveItem(c *gin.Context) {
	productID, err := int64Param(c, "productID")
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	t, ok := h.terminal(c)
	if !ok {
		return
	}
	if err := t.RemoveItem(productID); err != nil {
		renderError(c, h.logger, err)
		return
	}
	h.respond(c, http.StatusOK, t)
}

// SetDiscount sets the cart discount percentage.
func (h *CheckoutHandler) SetDiscount(c *gin.Context) {
	var req discountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, h.logger, bindError(err))
		return
	}
	t, ok := h.terminal(c)
	if !ok {
		return
	}
	if err := t.SetDiscount(req.Discount); err != nil {
		renderError(c, h.logger, err)
		return
	}
	h.respond(c, http.StatusOK, t)
}

// SetCustomer selects or clears the customer.
func (h *CheckoutHandler) SetCustomer(c *gin.Context) {
	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, h.logger, bindError(err))
		return
	}
	t, ok := h.terminal(c)
	if !ok {
		return
	}
	if err := t.SetCustomer(req.CustomerID); err != nil {
		renderError(c, h.logger, err)
		return
	}
	h.respond(c, http.StatusOK, t)
}

// Settle records the cart as a sale. A client disconnect does not abort the
// backend call; the gateway timeout bounds it.
func (h *CheckoutHandler) Settle(c *gin.Context) {
	var payment settlement.Payment
	if err := c.ShouldBindJSON(&payment); err != nil {
		renderError(c, h.logger, bindError(err))
		return
	}
	t, ok := h.terminal(c)
	if !ok {
		return
	}

	result, err := t.Settle(context.WithoutCancel(c.Request.Context()), payment)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, settleResponse{Result: result, Notices: t.DrainNotices()})
}

func (h *CheckoutHandler) terminal(c *gin.Context) (*checkout.Terminal, bool) {
	t, err := h.registry.Open(c.Param("terminal"))
	if err != nil {
		renderError(c, h.logger, err)
		return nil, false
	}
	return t, true
}

func (h *CheckoutHandler) respond(c *gin.Context, status int, t *checkout.Terminal) {
	c.JSON(status, checkoutResponse{View: t.View(), Notices: t.DrainNotices()})
}
