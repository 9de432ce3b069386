package listview

import (
	"cmp"
	"strings"
	"time"

	"fashionstock-dashboard/internal/models"
)

// Sort keys
const (
	SortName   = "name"
	SortPrice  = "price"
	SortStock  = "stock"
	SortProfit = "profit"
	SortRole   = "role"
	SortNewest = "newest"
	SortTotal  = "total"
)

// Products searches name, color and brand, filters on category.
var Products = Schema[models.Product]{
	SearchFields: func(p models.Product) []string {
		return []string{p.Name, p.Color, p.Brand}
	},
	Matches: func(p models.Product, category string) bool {
		return p.Category == category
	},
	Sorts: map[string]func(a, b models.Product) int{
		SortName:   func(a, b models.Product) int { return compareFold(a.Name, b.Name) },
		SortPrice:  func(a, b models.Product) int { return desc(a.Price, b.Price) },
		SortStock:  func(a, b models.Product) int { return cmp.Compare(a.StockQuantity, b.StockQuantity) },
		SortProfit: func(a, b models.Product) int { return desc(a.Margin(), b.Margin()) },
	},
}

// Users searches name and email, filters on role.
var Users = Schema[models.User]{
	SearchFields: func(u models.User) []string {
		return []string{u.Name, u.Email}
	},
	Matches: func(u models.User, role string) bool {
		return u.Role == role
	},
	Sorts: map[string]func(a, b models.User) int{
		SortName: func(a, b models.User) int { return compareFold(a.Name, b.Name) },
		SortRole: func(a, b models.User) int { return compareFold(a.Role, b.Role) },
	},
}

// Sales searches sale number and id; the category is a YYYY-MM-DD day.
var Sales = Schema[models.Sale]{
	SearchFields: func(s models.Sale) []string {
		return []string{s.SaleNumber, s.ID}
	},
	Matches: func(s models.Sale, day string) bool {
		return !s.CreatedAt.IsZero() && s.CreatedAt.UTC().Format(time.DateOnly) == strings.TrimSpace(day)
	},
	Sorts: map[string]func(a, b models.Sale) int{
		SortNewest: func(a, b models.Sale) int { return b.CreatedAt.Compare(a.CreatedAt) },
		SortTotal:  func(a, b models.Sale) int { return desc(a.Total, b.Total) },
	},
}

// Stock statuses
const (
	StockOut = "Out of Stock"
	StockLow = "Low Stock"
	StockIn  = "In Stock"
)

// StockStatus classifies a product against its minimum stock level.
func StockStatus(p models.Product) string {
	switch {
	case p.StockQuantity <= 0:
		return StockOut
	case p.StockQuantity <= p.MinStockLevel:
		return StockLow
	default:
		return StockIn
	}
}

// InventoryStats summarizes a product list
type InventoryStats struct {
	TotalProducts   int     `json:"totalProducts"`
	LowStockCount   int     `json:"lowStockCount"`
	OutOfStockCount int     `json:"outOfStockCount"`
	InventoryValue  float64 `json:"inventoryValue"`
}

// Inventory counts low and out-of-stock products and values stock at cost.
func Inventory(products []models.Product) InventoryStats {
	stats := InventoryStats{TotalProducts: len(products)}
	for _, p := range products {
		switch StockStatus(p) {
		case StockOut:
			stats.OutOfStockCount++
		case StockLow:
			stats.LowStockCount++
		}
		stats.InventoryValue += float64(p.StockQuantity) * p.CostPrice
	}
	return stats
}
