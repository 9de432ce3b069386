package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"fashionstock-dashboard/internal/models"
	"fashionstock-dashboard/internal/normalize"
	"fashionstock-dashboard/internal/report"
)

// Products lists every product.
func (c *Client) Products(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	err := c.fetch(ctx, request{method: http.MethodGet, endpoint: "products.list", path: "/products"}, &out)
	return out, err
}

// LowStockProducts lists products at or under their minimum stock.
func (c *Client) LowStockProducts(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	err := c.fetch(ctx, request{method: http.MethodGet, endpoint: "products.low_stock", path: "/products/alerts/low-stock"}, &out)
	return out, err
}

func (c *Client) CreateProduct(ctx context.Context, in models.ProductInput) error {
	_, err := c.do(ctx, request{method: http.MethodPost, endpoint: "products.create", path: "/products", body: in})
	return err
}

func (c *Client) UpdateProduct(ctx context.Context, id string, in models.ProductInput) error {
	_, err := c.do(ctx, request{
		method:   http.MethodPut,
		endpoint: "products.update",
		path:     "/products/" + url.PathEscape(id),
		body:     in,
	})
	return err
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	_, err := c.do(ctx, request{method: http.MethodDelete, endpoint: "products.delete", path: "/products/" + url.PathEscape(id)})
	return err
}

// Sales lists recorded sales.
func (c *Client) Sales(ctx context.Context) ([]models.Sale, error) {
	var out []models.Sale
	err := c.fetch(ctx, request{method: http.MethodGet, endpoint: "sales.list", path: "/sales"}, &out)
	return out, err
}

// CreateSale records a sale. The backend may answer without echoing the sale,
// in which case the zero Sale is returned. idempotencyKey is sent as the
// Idempotency-Key header when not empty.
func (c *Client) CreateSale(ctx context.Context, in models.SaleRequest, idempotencyKey string) (models.Sale, error) {
	r := request{method: http.MethodPost, endpoint: "sales.create", path: "/sales", body: in}
	if idempotencyKey != "" {
		r.header = http.Header{"Idempotency-Key": []string{idempotencyKey}}
	}

	env, err := c.do(ctx, r)
	if err != nil {
		return models.Sale{}, err
	}

	var sale models.Sale
	if env.HasData() {
		// a non-object echo is not an error, the sale was recorded
		_ = json.Unmarshal(env.Data, &sale)
	}
	return sale, nil
}

// Report returns the raw data member of a report endpoint.
func (c *Client) Report(ctx context.Context, kind report.Kind, period string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.fetch(ctx, request{
		method:   http.MethodGet,
		endpoint: "reports." + string(kind),
		path:     "/reports/" + string(kind),
		query:    url.Values{"period": []string{period}},
	}, &raw)
	return raw, err
}

// QuickStats returns the dashboard counters.
func (c *Client) QuickStats(ctx context.Context) (models.QuickStats, error) {
	var raw map[string]any
	if err := c.fetch(ctx, request{method: http.MethodGet, endpoint: "dashboard.stats", path: "/dashboard/stats"}, &raw); err != nil {
		return models.QuickStats{}, err
	}

	stat := func(valueKey, trendKey, defaultTrend string) models.Stat {
		trend := normalize.String(raw[trendKey], defaultTrend)
		return models.Stat{
			Value:   normalize.Number(raw[valueKey]),
			Trend:   trend,
			TrendUp: !strings.HasPrefix(trend, "-"),
		}
	}
	return models.QuickStats{
		TotalProducts: stat("totalProducts", "productsTrend", "+0%"),
		TodaySales:    stat("todaySales", "salesTrend", "+0%"),
		LowStockItems: stat("lowStockItems", "stockTrend", "-0"),
	}, nil
}

func (c *Client) Users(ctx context.Context) ([]models.User, error) {
	var out []models.User
	err := c.fetch(ctx, request{method: http.MethodGet, endpoint: "users.list", path: "/users"}, &out)
	return out, err
}

func (c *Client) CreateUser(ctx context.Context, in models.UserInput) error {
	_, err := c.do(ctx, request{method: http.MethodPost, endpoint: "users.create", path: "/users", body: in})
	return err
}

// Login establishes a session with the backend. The identity is taken from
// the user object, a top-level email, or the data member, in that order.
func (c *Client) Login(ctx context.Context, in models.LoginRequest) (models.User, error) {
	_, data, err := c.send(ctx, request{method: http.MethodPost, endpoint: "auth.login", path: "/auth/login", body: in})
	if err != nil {
		return models.User{}, err
	}

	var resp struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		User    *models.User    `json:"user"`
		Email   string          `json:"email"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return models.User{}, &APIError{Status: http.StatusOK, Message: "malformed login response"}
	}
	if !resp.Success {
		return models.User{}, &APIError{Status: http.StatusUnauthorized, Message: resp.Message}
	}

	var user models.User
	switch {
	case resp.User != nil:
		user = *resp.User
	case resp.Email != "":
		user.Email = resp.Email
	case len(resp.Data) > 0:
		var email string
		if json.Unmarshal(resp.Data, &email) == nil {
			user.Email = email
		} else {
			_ = json.Unmarshal(resp.Data, &user)
		}
	}
	if user.Email == "" {
		user.Email = in.Email
	}
	if user.Role == "" {
		user.Role = in.Role
	}
	return user, nil
}
