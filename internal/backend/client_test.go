package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fashionstock-dashboard/internal/models"
	"fashionstock-dashboard/internal/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL + "/", Timeout: 2 * time.Second})
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestProducts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/products", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"success": true, "data": [
			{"_id": "p1", "name": "Tee", "price": "20", "costPrice": 8, "stockQuantity": 3},
			{"id": "p2", "productName": "Jeans", "price": 80, "stock_quantity": "0", "minStockLevel": 2}
		]}`)
	})

	products, err := c.Products(context.Background())

	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "p1", products[0].ID)
	assert.Equal(t, 20.0, products[0].Price)
	assert.Equal(t, models.DefaultMinStockLevel, products[0].MinStockLevel)
	assert.Equal(t, "Jeans", products[1].Name)
	assert.Equal(t, 2, products[1].MinStockLevel)
}

func TestErrorStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"success": false, "message": "Product not found"}`)
	})

	err := c.DeleteProduct(context.Background(), "missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsuccessful)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Product not found", apiErr.Message)
}

func TestUnsuccessfulEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success": false, "message": "nope"}`)
	})

	_, err := c.Sales(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "nope", apiErr.Message)
}

func TestMissingData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success": true, "data": null}`)
	})

	_, err := c.Users(context.Background())

	assert.ErrorIs(t, err, ErrMissingData)
}

func TestUndecodableBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `<html>`)
	})

	_, err := c.Products(context.Background())

	assert.ErrorIs(t, err, ErrUnsuccessful)
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := NewClient(Config{BaseURL: srv.URL, Timeout: time.Second})

	_, err := c.Products(context.Background())

	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestMutationWithoutData(t *testing.T) {
	var got models.ProductInput
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/products/p%201", r.URL.EscapedPath())
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, `{"success": true}`)
	})

	err := c.UpdateProduct(context.Background(), "p 1", models.ProductInput{Name: "Tee", Price: 25})

	require.NoError(t, err)
	assert.Equal(t, "Tee", got.Name)
	assert.Equal(t, 25.0, got.Price)
}

func TestReport(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reports/weekly", r.URL.Path)
		assert.Equal(t, "month", r.URL.Query().Get("period"))
		writeJSON(w, http.StatusOK, `{"success": true, "data": {"totals": {"revenue": 10}}}`)
	})

	raw, err := c.Report(context.Background(), report.KindWeekly, "month")

	require.NoError(t, err)
	assert.JSONEq(t, `{"totals": {"revenue": 10}}`, string(raw))
}

func TestCreateSale(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-1", r.Header.Get("Idempotency-Key"))
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "card", body["paymentMethod"])
		items := body["items"].([]any)
		assert.Equal(t, map[string]any{"productId": "p1", "quantity": float64(2)}, items[0])
		writeJSON(w, http.StatusCreated, `{"success": true, "data": {"_id": "s1", "saleNumber": 1001, "total": "36"}}`)
	})

	sale, err := c.CreateSale(context.Background(), models.SaleRequest{
		Items:         []models.SaleRequestItem{{ProductID: "p1", Quantity: 2}},
		Discount:      10,
		PaymentMethod: "card",
	}, "key-1")

	require.NoError(t, err)
	assert.Equal(t, "s1", sale.ID)
	assert.Equal(t, "1001", sale.SaleNumber)
	assert.Equal(t, 36.0, sale.Total)
}

func TestQuickStats(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success": true, "data": {
			"totalProducts": 156, "productsTrend": "+5%",
			"todaySales": "2450", "lowStockItems": 8, "stockTrend": "-2"
		}}`)
	})

	stats, err := c.QuickStats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, models.Stat{Value: 156, Trend: "+5%", TrendUp: true}, stats.TotalProducts)
	assert.Equal(t, models.Stat{Value: 2450, Trend: "+0%", TrendUp: true}, stats.TodaySales)
	assert.Equal(t, models.Stat{Value: 8, Trend: "-2", TrendUp: false}, stats.LowStockItems)
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantName string
		want     string
	}{
		{"user object", `{"success": true, "user": {"name": "Ada", "email": "ada@shop.io", "role": "admin"}}`, "Ada", "ada@shop.io"},
		{"top-level email", `{"success": true, "email": "bo@shop.io"}`, "", "bo@shop.io"},
		{"data string", `{"success": true, "data": "cy@shop.io"}`, "", "cy@shop.io"},
		{"bare success", `{"success": true}`, "", "req@shop.io"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, tt.body)
			})

			user, err := c.Login(context.Background(), models.LoginRequest{Email: "req@shop.io", Password: "secret", Role: "admin"})

			require.NoError(t, err)
			assert.Equal(t, tt.want, user.Email)
			assert.Equal(t, tt.wantName, user.Name)
			assert.Equal(t, "admin", user.Role)
		})
	}
}

func TestLoginRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success": false, "message": "Invalid credentials"}`)
	})

	_, err := c.Login(context.Background(), models.LoginRequest{Email: "a@b.co", Password: "x", Role: "staff"})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
}

func TestExportReport(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reports/export/pdf", r.URL.Path)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "daily", body["report_type"])
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="daily-2026-03-14.pdf"`)
		_, _ = w.Write([]byte("%PDF-1.4"))
	})

	f, err := c.ExportReport(context.Background(), "pdf", ReportExportRequest{ReportType: "daily", DateRange: "today"})

	require.NoError(t, err)
	assert.Equal(t, "daily-2026-03-14.pdf", f.Name)
	assert.Equal(t, "application/pdf", f.ContentType)
	assert.Equal(t, []byte("%PDF-1.4"), f.Data)
}

func TestExportSales(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reports/sales/export/excel", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "custom", q.Get("exportType"))
		assert.Equal(t, "2026-03-01", q.Get("startDate"))
		assert.Equal(t, "2026-03-14", q.Get("endDate"))
		_, _ = w.Write([]byte("xlsx"))
	})

	f, err := c.ExportSales(context.Background(), "excel", SalesExportQuery{ExportType: "custom", StartDate: "2026-03-01", EndDate: "2026-03-14"})

	require.NoError(t, err)
	assert.Empty(t, f.Name)
	assert.Equal(t, []byte("xlsx"), f.Data)
}

func TestExportTooLarge(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		chunk := make([]byte, 1<<20)
		for written := 0; written <= maxBodyBytes; written += len(chunk) {
			if _, err := w.Write(chunk); err != nil {
				return
			}
		}
	})

	f, err := c.ExportSales(context.Background(), "excel", SalesExportQuery{ExportType: "today"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsuccessful)
	assert.Nil(t, f)
}

func TestFilenameFromDisposition(t *testing.T) {
	tests := map[string]string{
		``:                                     "",
		`attachment; filename="report.pdf"`:    "report.pdf",
		`attachment; filename=sales.xlsx`:      "sales.xlsx",
		`attachment; filename="a b.pdf"; x=1`:  "a b.pdf",
		`inline`:                               "",
		`garbage;; filename="weird name.xlsx`:  "weird name.xlsx",
	}
	for header, want := range tests {
		assert.Equal(t, want, FilenameFromDisposition(header), header)
	}
}
