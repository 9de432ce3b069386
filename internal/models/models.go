package models

import (
	"encoding/json"
	"time"

	"fashionstock-dashboard/internal/normalize"
)

// DefaultMinStockLevel applies when a product carries no minimum of its own.
const DefaultMinStockLevel = 5

// Product represents a catalog item as the backend reports it
type Product struct {
	ID            string    `json:"_id"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	Size          string    `json:"size"`
	Color         string    `json:"color"`
	Brand         string    `json:"brand"`
	Price         float64   `json:"price"`
	CostPrice     float64   `json:"costPrice"`
	StockQuantity int       `json:"stockQuantity"`
	MinStockLevel int       `json:"minStockLevel"`
	Description   string    `json:"description,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Profit is the per-unit profit.
func (p Product) Profit() float64 {
	return p.Price - p.CostPrice
}

// Margin is profit as a fraction of price; zero when the price is zero.
func (p Product) Margin() float64 {
	if p.Price == 0 {
		return 0
	}
	return p.Profit() / p.Price
}

// UnmarshalJSON decodes a product tolerantly: alternate key spellings are
// accepted and malformed scalars degrade to zero values instead of failing
// the whole list.
func (p *Product) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = Product{
		ID:            normalize.String(first(raw, "_id", "id"), ""),
		Name:          normalize.String(first(raw, "name", "productName", "product_name"), ""),
		Category:      normalize.String(raw["category"], ""),
		Size:          normalize.String(raw["size"], ""),
		Color:         normalize.String(raw["color"], ""),
		Brand:         normalize.String(raw["brand"], ""),
		Price:         normalize.Number(raw["price"]),
		CostPrice:     normalize.Number(first(raw, "costPrice", "cost_price")),
		StockQuantity: normalize.Int(first(raw, "stockQuantity", "stock_quantity", "current_stock")),
		MinStockLevel: normalize.Int(first(raw, "minStockLevel", "min_stock"), DefaultMinStockLevel),
		Description:   normalize.String(raw["description"], ""),
		UpdatedAt:     parseTime(first(raw, "updatedAt", "updated_at")),
	}
	if p.MinStockLevel <= 0 {
		p.MinStockLevel = DefaultMinStockLevel
	}
	return nil
}

// ProductInput is the body sent to create or update a product
type ProductInput struct {
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Size          string  `json:"size"`
	Color         string  `json:"color"`
	Brand         string  `json:"brand"`
	Price         float64 `json:"price"`
	CostPrice     float64 `json:"costPrice"`
	StockQuantity int     `json:"stockQuantity"`
	MinStockLevel int     `json:"minStockLevel"`
	Description   string  `json:"description,omitempty"`
}

// User represents a back-office account
type User struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*u = User{
		ID:        normalize.String(first(raw, "_id", "id"), ""),
		Name:      normalize.String(raw["name"], ""),
		Email:     normalize.String(raw["email"], ""),
		Role:      normalize.String(raw["role"], ""),
		CreatedAt: parseTime(first(raw, "createdAt", "created_at")),
	}
	return nil
}

// UserInput is the body sent to create a user
type UserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role"`
}

// SaleItem is one persisted line of a completed sale
type SaleItem struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	CostPrice   float64 `json:"costPrice"`
	Total       float64 `json:"total"`
	Profit      float64 `json:"profit"`
}

// Sale is a completed sale as recorded by the backend
type Sale struct {
	ID             string     `json:"_id"`
	SaleNumber     string     `json:"saleNumber"`
	Items          []SaleItem `json:"items"`
	Subtotal       float64    `json:"subtotal"`
	Discount       float64    `json:"discount"`
	DiscountAmount float64    `json:"discountAmount"`
	Total          float64    `json:"total"`
	TotalProfit    float64    `json:"totalProfit"`
	TotalItems     int        `json:"totalItems"`
	PaymentMethod  string     `json:"paymentMethod"`
	CreatedAt      time.Time  `json:"createdAt"`
}

func (s *Sale) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = Sale{
		ID:             normalize.String(first(raw, "_id", "id"), ""),
		SaleNumber:     normalize.String(first(raw, "saleNumber", "sale_number"), ""),
		Subtotal:       normalize.Number(raw["subtotal"]),
		Discount:       normalize.Number(raw["discount"]),
		DiscountAmount: normalize.Number(first(raw, "discountAmount", "discount_amount")),
		Total:          normalize.Number(first(raw, "total", "amount")),
		TotalProfit:    normalize.Number(first(raw, "totalProfit", "total_profit")),
		TotalItems:     normalize.Int(first(raw, "totalItems", "quantity")),
		PaymentMethod:  normalize.String(raw["paymentMethod"], ""),
		CreatedAt:      parseTime(first(raw, "createdAt", "created_at")),
	}

	items, _ := raw["items"].([]any)
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		s.Items = append(s.Items, SaleItem{
			ProductID:   normalize.String(first(m, "productId", "product"), ""),
			ProductName: normalize.String(first(m, "productName", "name"), ""),
			Quantity:    normalize.Int(m["quantity"]),
			Price:       normalize.Number(m["price"]),
			CostPrice:   normalize.Number(m["costPrice"]),
			Total:       normalize.Number(m["total"]),
			Profit:      normalize.Number(m["profit"]),
		})
	}
	return nil
}

// SaleRequest is what the point of sale submits; prices are revalidated server-side
type SaleRequest struct {
	Items         []SaleRequestItem `json:"items"`
	Discount      float64           `json:"discount"`
	PaymentMethod string            `json:"paymentMethod"`
}

// SaleRequestItem references a product and a quantity only
type SaleRequestItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// QuickStats is the sidebar summary served by /dashboard/stats
type QuickStats struct {
	TotalProducts Stat `json:"totalProducts"`
	TodaySales    Stat `json:"todaySales"`
	LowStockItems Stat `json:"lowStockItems"`
}

// Stat is one dashboard counter with its trend label
type Stat struct {
	Value   float64 `json:"value"`
	Trend   string  `json:"trend"`
	TrendUp bool    `json:"trendUp"`
}

// LoginRequest is the body of /auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Envelope is the response shape shared by every backend endpoint
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// HasData reports whether the envelope carries a non-null data member.
func (e Envelope) HasData() bool {
	return len(e.Data) > 0 && string(e.Data) != "null"
}

func first(raw map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := raw[k]; ok && normalize.Present(v) {
			return v
		}
	}
	return nil
}

func parseTime(v any) time.Time {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
