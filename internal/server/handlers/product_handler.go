package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/salonpos/internal/apperror"
	"github.com/mamadbah2/salonpos/internal/domain/models"
	"github.com/mamadbah2/salonpos/internal/service/currency"
	"github.com/mamadbah2/salonpos/internal/stock"
)

// PriceConverter expresses base-currency amounts in a display currency.
type PriceConverter interface {
	Base() string
	Convert(amount decimal.Decimal, to string) (decimal.Decimal, error)
}

// productView is a product as listed on the terminal, with derived badges.
type productView struct {
	models.Product
	EffectivePrice      decimal.Decimal `json:"effective_price"`
	DisplayPrice        string          `json:"display_price,omitempty"`
	StatusVente         stock.Status    `json:"status_vente"`
	StatusUtilisation   stock.Status    `json:"status_utilisation"`
	SeverityVente       int             `json:"severity_vente"`
	SeverityUtilisation int             `json:"severity_utilisation"`
}

type productPageResponse struct {
	Data       []productView `json:"data"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	Total      int           `json:"total"`
	Currency   string        `json:"currency,omitempty"`
}

// ProductHandler proxies the backend product listing.
type ProductHandler struct {
	catalog   ProductCatalog
	converter PriceConverter
	logger    *zap.Logger
	now       func() time.Time
}

// NewProductHandler constructs the product HTTP adapter. Without a converter,
// prices are returned without display strings.
func NewProductHandler(catalog ProductCatalog, converter PriceConverter, logger *zap.Logger) *ProductHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductHandler{catalog: catalog, converter: converter, logger: logger, now: time.Now}
}

// List returns one page of products matching the search term. ?currency= selects
// the display currency, the base currency by default.
func (h *ProductHandler) List(c *gin.Context) {
	page := 1
	if raw := c.Query("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p < 1 {
			renderError(c, h.logger, apperror.NewValidation("page must be a positive integer").WithDetail("page", raw))
			return
		}
		page = p
	}
	search := strings.TrimSpace(c.Query("search"))

	code := strings.ToUpper(strings.TrimSpace(c.Query("currency")))
	if h.converter != nil && code == "" {
		code = h.converter.Base()
	}
	if h.converter == nil && code != "" {
		renderError(c, h.logger, apperror.NewValidation("currency conversion is not available").WithDetail("currency", code))
		return
	}

	result, err := h.catalog.ListProducts(c.Request.Context(), search, page)
	if err != nil {
		renderError(c, h.logger, backendError("list_products", "products", search, err))
		return
	}

	now := h.now()
	resp := productPageResponse{
		Data:       make([]productView, 0, len(result.Items)),
		Page:       result.Page,
		TotalPages: result.TotalPages,
		Total:      result.Total,
		Currency:   code,
	}
	for _, p := range result.Items {
		v, err := h.view(p, now, code)
		if err != nil {
			renderError(c, h.logger, err)
			return
		}
		resp.Data = append(resp.Data, v)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductHandler) view(p models.Product, now time.Time, code string) (productView, error) {
	vente := p.Level(models.ChannelVente)
	usage := p.Level(models.ChannelUtilisation)
	v := productView{
		Product:           p,
		EffectivePrice:    p.EffectivePrice(now),
		StatusVente:       stock.Classify(vente.Quantity, vente.Alert, vente.Critical),
		StatusUtilisation: stock.Classify(usage.Quantity, usage.Alert, usage.Critical),
	}
	v.SeverityVente = v.StatusVente.Severity()
	v.SeverityUtilisation = v.StatusUtilisation.Severity()

	if h.converter != nil {
		amount, err := h.converter.Convert(v.EffectivePrice, code)
		if err != nil {
			return v, err
		}
		v.DisplayPrice = currency.Format(amount, code)
	}
	return v, nil
}
