package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/salonpos/internal/config"
	"github.com/mamadbah2/salonpos/internal/domain/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *APIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.BackendConfig{BaseURL: srv.URL + "/", Timeout: 2 * time.Second})
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestCreateSale_SendsIdempotencyKeyAndToken(t *testing.T) {
	var got models.SaleRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/sales", r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get(HeaderIdempotencyKey))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		writeJSON(t, w, http.StatusCreated, map[string]any{"id": 12, "invoice_number": "FAC-0012", "total": "6300"})
	})
	client.SetToken("tok")

	receipt, err := client.CreateSale(context.Background(), models.SaleRequest{
		Lines:         []models.SaleLine{{ProductID: 1, UnitPrice: decimal.NewFromInt(3500), Quantity: 2}},
		Discount:      decimal.NewFromInt(10),
		Total:         decimal.NewFromInt(6300),
		PaymentMethod: models.PaymentCard,
	}, "key-1")

	require.NoError(t, err)
	assert.Equal(t, int64(12), receipt.SaleID)
	assert.Equal(t, "FAC-0012", receipt.InvoiceNumber)
	assert.True(t, receipt.Total.Equal(decimal.NewFromInt(6300)))
	require.Len(t, got.Lines, 1)
	assert.Equal(t, 2, got.Lines[0].Quantity)
	assert.Equal(t, models.PaymentCard, got.PaymentMethod)
}

func TestSetStock_SendsAbsoluteQuantity(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/products/5/stock", r.URL.Path)
		var update models.StockUpdate
		require.NoError(t, json.NewDecoder(r.Body).Decode(&update))
		assert.Equal(t, models.StockUpdate{Channel: models.ChannelUtilisation, Quantity: 3, Reason: "inventaire"}, update)
		writeJSON(t, w, http.StatusOK, map[string]any{"id": 5, "name": "Cire", "stock_utilisation": 3})
	})

	product, err := client.SetStock(context.Background(), 5, models.StockUpdate{
		Channel: models.ChannelUtilisation, Quantity: 3, Reason: "inventaire",
	})

	require.NoError(t, err)
	assert.Equal(t, 3, product.StockUtilisation)
}

func TestListProducts_QueryParams(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products", r.URL.Path)
		assert.Equal(t, "cire", r.URL.Query().Get("search"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(t, w, http.StatusOK, map[string]any{
			"data":        []map[string]any{{"id": 1, "name": "Cire", "sale_price": "3500"}},
			"page":        2,
			"total_pages": 3,
			"total":       21,
		})
	})

	page, err := client.ListProducts(context.Background(), "cire", 2)

	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.True(t, page.Items[0].SalePrice.Equal(decimal.NewFromInt(3500)))
	assert.Equal(t, 3, page.TotalPages)
}

func TestListSales_DateRange(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2026-10-01", r.URL.Query().Get("from"))
		assert.Equal(t, "2026-10-17", r.URL.Query().Get("to"))
		writeJSON(t, w, http.StatusOK, map[string]any{"data": []map[string]any{{"id": 1, "total": "100"}}})
	})

	sales, err := client.ListSales(context.Background(),
		time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	assert.Len(t, sales, 1)
}

func TestAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnprocessableEntity, map[string]any{"code": "INSUFFICIENT_STOCK", "message": "Stock insuffisant"})
	})

	_, err := client.GetProduct(context.Background(), 9)

	require.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, StatusOf(err))
	assert.Contains(t, err.Error(), "Stock insuffisant")
	assert.Contains(t, err.Error(), "get product")
}

func TestAPIError_WithoutBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	err := client.Logout(context.Background())

	assert.Equal(t, http.StatusServiceUnavailable, StatusOf(err))
	assert.Contains(t, err.Error(), "Service Unavailable")
}

func TestTimeoutIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()
	client := NewClient(config.BackendConfig{BaseURL: srv.URL, Timeout: 20 * time.Millisecond})

	_, err := client.CreateSale(context.Background(), models.SaleRequest{}, "k")

	require.Error(t, err)
	assert.Zero(t, StatusOf(err))
}

func TestNotificationsAndRates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/notifications":
			writeJSON(t, w, http.StatusOK, map[string]any{"data": []map[string]any{{"id": 1, "title": "Stock bas"}}})
		case "/notifications/1/read":
			assert.Equal(t, http.MethodPost, r.Method)
			w.WriteHeader(http.StatusNoContent)
		case "/currencies/rates":
			writeJSON(t, w, http.StatusOK, map[string]any{"base": "XOF", "rates": map[string]string{"EUR": "0.0015"}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	items, err := client.ListNotifications(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Stock bas", items[0].Title)

	require.NoError(t, client.MarkNotificationRead(context.Background(), 1))

	rates, err := client.CurrencyRates(context.Background())
	require.NoError(t, err)
	assert.True(t, rates.Rates["EUR"].Equal(decimal.RequireFromString("0.0015")))
}
