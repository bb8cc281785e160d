package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ledgerdesk/internal/repository"
	"ledgerdesk/internal/service"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedEvent struct {
	name string
	data interface{}
}

type recorder struct{ events []recordedEvent }

func (r *recorder) Publish(event string, data interface{}) {
	r.events = append(r.events, recordedEvent{event, data})
}

type failingPuts struct{ *repository.MemoryKVStore }

func (failingPuts) Put(context.Context, string, []byte) error { return errors.New("read-only") }

type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	Warning    string          `json:"warning"`
}

type testServer struct {
	router *gin.Engine
	events *recorder
}

func newTestServer(t *testing.T, kv repository.KVStore) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	inventory := service.NewInventoryService(ctx, repository.NewProductRepository(kv), nil, nil, zerolog.Nop())
	for _, d := range service.SampleCatalog() {
		// P001 matches the worked example: 5 in stock at 10.00
		if d.SKU == "P001" {
			d.Stock = 5
			d.Price = decimal.RequireFromString("10.00")
		}
		if _, err := inventory.AddProduct(ctx, d); err != nil {
			require.ErrorIs(t, err, repository.ErrPersistence)
		}
	}

	pipeline, err := service.NewTaxPipeline(service.DefaultTaxRates())
	require.NoError(t, err)
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	builder := service.NewLedgerBuilder(ctx, inventory, pipeline, repository.NewInvoiceRepository(kv),
		repository.NewLocalTransactionManager(), node, service.DefaultLineCount, zerolog.Nop())

	events := &recorder{}
	r := gin.New()
	api := r.Group("/api")
	NewInventoryHandler(inventory, events).RegisterRoutes(api)
	NewInvoiceHandler(builder, events).RegisterRoutes(api)
	NewTaxHandler(service.NewTaxService(ctx, repository.NewTaxRuleRepository(kv), builder, zerolog.Nop()), events).RegisterRoutes(api)
	NewReportHandler(service.NewReportService(inventory, builder, 5)).RegisterRoutes(api)
	return &testServer{router: r, events: events}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func TestProductRoutes(t *testing.T) {
	s := newTestServer(t, repository.NewMemoryKVStore())

	code, env := s.do(t, http.MethodGet, "/api/products?search=widget&limit=1", nil)
	require.Equal(t, http.StatusOK, code)
	var page struct {
		Items []struct{ SKU string } `json:"items"`
		Total int                    `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 2, page.Total)
	assert.Len(t, page.Items, 1)

	code, env = s.do(t, http.MethodPost, "/api/products", map[string]interface{}{"name": "Sprocket", "stock": 3, "price": "2.50"})
	require.Equal(t, http.StatusCreated, code)
	var created struct{ SKU string }
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Len(t, created.SKU, service.DefaultSKULength)

	code, _ = s.do(t, http.MethodPost, "/api/products", map[string]interface{}{"sku": "P002", "name": "Dup", "price": "1"})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(t, http.MethodPost, "/api/products", map[string]interface{}{"stock": 1})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, http.MethodPost, "/api/products/P003/stock", map[string]int{"delta": -1000})
	require.Equal(t, http.StatusOK, code)
	var adjusted struct{ Stock int }
	require.NoError(t, json.Unmarshal(env.Data, &adjusted))
	assert.Equal(t, 0, adjusted.Stock)

	code, _ = s.do(t, http.MethodDelete, "/api/products/NOPE", nil)
	assert.Equal(t, http.StatusNotFound, code)

	assert.NotEmpty(t, s.events.events)
}

func TestInvoiceWorkedExample(t *testing.T) {
	s := newTestServer(t, repository.NewMemoryKVStore())

	code, env := s.do(t, http.MethodPut, "/api/invoice/lines/0/product", map[string]string{"sku": "P001"})
	require.Equal(t, http.StatusOK, code, env.Error)

	code, env = s.do(t, http.MethodPut, "/api/invoice/lines/0/quantity", map[string]string{"quantity": "3"})
	require.Equal(t, http.StatusOK, code, env.Error)
	var view struct {
		Totals struct {
			GrandTotal string `json:"grandTotal"`
		} `json:"totals"`
		BoundSKUs []string `json:"boundSKUs"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "29.57", view.Totals.GrandTotal)
	assert.Equal(t, []string{"P001"}, view.BoundSKUs)

	code, env = s.do(t, http.MethodPut, "/api/invoice/lines/0/quantity", map[string]string{"quantity": "6"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, env.Error, "P001")

	code, _ = s.do(t, http.MethodPut, "/api/invoice/lines/1/product", map[string]string{"sku": "P001"})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(t, http.MethodPut, "/api/invoice/lines/99/field", map[string]string{"field": "unit", "value": "x"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, http.MethodPost, "/api/invoice/save", nil)
	require.Equal(t, http.StatusCreated, code)
	assert.Empty(t, env.Warning)

	code, env = s.do(t, http.MethodGet, "/api/invoices", nil)
	require.Equal(t, http.StatusOK, code)
	var page struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 1, page.Total)

	code, _ = s.do(t, http.MethodPost, "/api/invoice/clear", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = s.do(t, http.MethodPost, "/api/invoice/clear?confirm=true", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestBindUnknownSKUReportsNotBound(t *testing.T) {
	s := newTestServer(t, repository.NewMemoryKVStore())

	code, env := s.do(t, http.MethodPut, "/api/invoice/lines/2/product", map[string]string{"sku": "GHOST"})
	require.Equal(t, http.StatusOK, code)
	var res struct {
		Bound bool `json:"bound"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.False(t, res.Bound)
}

func TestPersistenceFailureIsAWarning(t *testing.T) {
	s := newTestServer(t, failingPuts{repository.NewMemoryKVStore()})

	code, env := s.do(t, http.MethodPost, "/api/invoice/save", nil)
	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "success", env.Status)
	assert.Contains(t, env.Warning, "persist")
}

func TestTaxRoutes(t *testing.T) {
	s := newTestServer(t, repository.NewMemoryKVStore())

	code, _ := s.do(t, http.MethodPut, "/api/tax", map[string]string{"formula": "flat", "withholdingRate": "0.12", "vatRate": "0.12"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPut, "/api/tax", map[string]string{"formula": "embedded-vat", "withholdingRate": "0.12", "vatRate": "0.12"})
	require.Equal(t, http.StatusOK, code)
	code, env := s.do(t, http.MethodGet, "/api/tax", nil)
	require.Equal(t, http.StatusOK, code)
	var rates struct{ Formula string }
	require.NoError(t, json.Unmarshal(env.Data, &rates))
	assert.Equal(t, "embedded-vat", rates.Formula)

	code, env = s.do(t, http.MethodGet, "/api/tax/history", nil)
	require.Equal(t, http.StatusOK, code)
	var history []struct{ Formula string }
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 1)
	assert.Equal(t, "embedded-vat", history[0].Formula)
}

func TestMissingBodyFieldsAreRejected(t *testing.T) {
	s := newTestServer(t, repository.NewMemoryKVStore())

	code, _ := s.do(t, http.MethodPut, "/api/tax", map[string]string{"formula": "embedded-vat"})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = s.do(t, http.MethodPut, "/api/tax", map[string]string{"formula": "embedded-vat", "vatRate": "0.12"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env := s.do(t, http.MethodGet, "/api/tax", nil)
	require.Equal(t, http.StatusOK, code)
	var rates struct {
		Formula         string `json:"formula"`
		WithholdingRate string `json:"withholdingRate"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &rates))
	assert.Equal(t, "withholding-then-vat", rates.Formula)
	assert.Equal(t, "0.12", rates.WithholdingRate)

	code, _ = s.do(t, http.MethodPut, "/api/invoice/lines/0/quantity", map[string]string{"quantity": "2"})
	require.Equal(t, http.StatusOK, code)
	code, _ = s.do(t, http.MethodPut, "/api/invoice/lines/0/quantity", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, http.MethodGet, "/api/invoice", nil)
	require.Equal(t, http.StatusOK, code)
	var view struct {
		Items []struct {
			Quantity string `json:"quantity"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	require.NotEmpty(t, view.Items)
	assert.Equal(t, "2", view.Items[0].Quantity)
}

func TestReportRoutes(t *testing.T) {
	s := newTestServer(t, repository.NewMemoryKVStore())

	code, _ := s.do(t, http.MethodGet, "/api/reports/sales?from=2026-13-01", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodGet, "/api/reports/sales?from=2026-10-17&to=2026-10-01", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env := s.do(t, http.MethodGet, "/api/reports/inventory", nil)
	require.Equal(t, http.StatusOK, code)
	var report struct {
		LowStockSKUs []string `json:"lowStockSKUs"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, []string{"P001"}, report.LowStockSKUs)
}
