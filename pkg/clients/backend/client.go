package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/salonpos/internal/config"
	"github.com/mamadbah2/salonpos/internal/domain/models"
)

// HeaderIdempotencyKey lets the backend deduplicate replayed sale submissions.
const HeaderIdempotencyKey = "X-Idempotency-Key"

const dateLayout = "2006-01-02"

// APIError is a non-2xx answer of the backend.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend api error: status=%d, code=%s, message=%s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("backend api error: status=%d, message=%s", e.StatusCode, e.Message)
}

// StatusOf returns the HTTP status carried by err, or 0 when err is not an APIError.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// apiErrorBody is the error payload returned by the backend.
type apiErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Error   string `json:"error"`
}

type listEnvelope[T any] struct {
	Data []T `json:"data"`
}

// APIClient is a resty-backed client of the salon backend REST API.
type APIClient struct {
	httpClient *resty.Client

	mu    sync.RWMutex
	token string
}

// NewClient builds a backend client from configuration.
func NewClient(cfg config.BackendConfig) *APIClient {
	c := &APIClient{}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.Timeout).
		OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			if token := c.Token(); token != "" {
				req.SetAuthToken(token)
			}
			return nil
		})

	c.httpClient = restyClient
	return c
}

// SetToken sets the bearer token sent with every request. Empty clears it.
func (c *APIClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token returns the current bearer token.
func (c *APIClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// ListProducts fetches one page of the product catalogue.
func (c *APIClient) ListProducts(ctx context.Context, search string, page int) (*models.ProductPage, error) {
	if page < 1 {
		page = 1
	}
	result := new(models.ProductPage)
	req := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("page", strconv.Itoa(page)).
		SetResult(result)
	if search != "" {
		req.SetQueryParam("search", search)
	}
	if err := c.do(req, http.MethodGet, "/products", "list products"); err != nil {
		return nil, err
	}
	return result, nil
}

// GetProduct fetches the server-confirmed state of one product.
func (c *APIClient) GetProduct(ctx context.Context, productID int64) (*models.Product, error) {
	result := new(models.Product)
	req := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("id", strconv.FormatInt(productID, 10)).
		SetResult(result)
	if err := c.do(req, http.MethodGet, "/products/{id}", "get product"); err != nil {
		return nil, err
	}
	return result, nil
}

// SetStock writes an absolute stock quantity and returns the updated product.
func (c *APIClient) SetStock(ctx context.Context, productID int64, update models.StockUpdate) (*models.Product, error) {
	result := new(models.Product)
	req := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("id", strconv.FormatInt(productID, 10)).
		SetBody(update).
		SetResult(result)
	if err := c.do(req, http.MethodPatch, "/products/{id}/stock", "set stock"); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateSale records a sale. The idempotency key is forwarded unchanged.
func (c *APIClient) CreateSale(ctx context.Context, sale models.SaleRequest, idempotencyKey string) (*models.SaleReceipt, error) {
	result := new(models.SaleReceipt)
	req := c.httpClient.R().
		SetContext(ctx).
		SetBody(sale).
		SetResult(result)
	if idempotencyKey != "" {
		req.SetHeader(HeaderIdempotencyKey, idempotencyKey)
	}
	if err := c.do(req, http.MethodPost, "/sales", "create sale"); err != nil {
		return nil, err
	}
	return result, nil
}

// ListSales returns the sales recorded between from and to (inclusive days).
func (c *APIClient) ListSales(ctx context.Context, from, to time.Time) ([]models.Sale, error) {
	result := new(listEnvelope[models.Sale])
	req := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"from": from.Format(dateLayout),
			"to":   to.Format(dateLayout),
		}).
		SetResult(result)
	if err := c.do(req, http.MethodGet, "/sales", "list sales"); err != nil {
		return nil, err
	}
	return result.Data, nil
}

// Login exchanges credentials for a session token.
func (c *APIClient) Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error) {
	result := new(models.AuthResponse)
	req := c.httpClient.R().
		SetContext(ctx).
		SetBody(creds).
		SetResult(result)
	if err := c.do(req, http.MethodPost, "/auth/login", "login"); err != nil {
		return nil, err
	}
	return result, nil
}

// Logout revokes the current token on the backend.
func (c *APIClient) Logout(ctx context.Context) error {
	req := c.httpClient.R().SetContext(ctx)
	return c.do(req, http.MethodPost, "/auth/logout", "logout")
}

// ListNotifications fetches the notification feed of the authenticated user.
func (c *APIClient) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	result := new(listEnvelope[models.Notification])
	req := c.httpClient.R().
		SetContext(ctx).
		SetResult(result)
	if err := c.do(req, http.MethodGet, "/notifications", "list notifications"); err != nil {
		return nil, err
	}
	return result.Data, nil
}

// MarkNotificationRead flags a notification as read.
func (c *APIClient) MarkNotificationRead(ctx context.Context, id int64) error {
	req := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("id", strconv.FormatInt(id, 10))
	return c.do(req, http.MethodPost, "/notifications/{id}/read", "mark notification read")
}

// CurrencyRates fetches the current exchange rates.
func (c *APIClient) CurrencyRates(ctx context.Context) (*models.CurrencyRates, error) {
	result := new(models.CurrencyRates)
	req := c.httpClient.R().
		SetContext(ctx).
		SetResult(result)
	if err := c.do(req, http.MethodGet, "/currencies/rates", "currency rates"); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *APIClient) do(req *resty.Request, method, path, operation string) error {
	apiErr := new(apiErrorBody)
	resp, err := req.SetError(apiErr).Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		message := apiErr.Message
		if message == "" {
			message = apiErr.Error
		}
		if message == "" {
			message = http.StatusText(resp.StatusCode())
		}
		return fmt.Errorf("%s: %w", operation, &APIError{
			StatusCode: resp.StatusCode(),
			Code:       apiErr.Code,
			Message:    message,
		})
	}

	return nil
}
