package listview

import (
	"testing"
	"time"

	"fashionstock-dashboard/internal/models"

	"github.com/stretchr/testify/assert"
)

func catalog() []models.Product {
	return []models.Product{
		{ID: "1", Name: "Cotton Tee", Category: "T-Shirts", Color: "White", Brand: "Basics", Price: 20, CostPrice: 8, StockQuantity: 12, MinStockLevel: 5},
		{ID: "2", Name: "denim jeans", Category: "Pants", Color: "Blue", Brand: "Levi", Price: 80, CostPrice: 50, StockQuantity: 3, MinStockLevel: 5},
		{ID: "3", Name: "Summer Dress", Category: "Dresses", Color: "Red", Brand: "Basics", Price: 60, CostPrice: 20, StockQuantity: 0, MinStockLevel: 5},
		{ID: "4", Name: "Blue Shirt", Category: "Shirts", Color: "Blue", Brand: "Oxford", Price: 40, CostPrice: 24, StockQuantity: 7, MinStockLevel: 5},
		{ID: "5", Name: "Graphic Tee", Category: "T-Shirts", Color: "Black", Brand: "Basics", Price: 20, CostPrice: 10, StockQuantity: 3, MinStockLevel: 5},
	}
}

func ids(products []models.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestApplySearchIsCaseInsensitive(t *testing.T) {
	got := Apply(catalog(), Query{Search: "BLUE"}, Products)
	assert.Equal(t, []string{"2", "4"}, ids(got))

	got = Apply(catalog(), Query{Search: "basics"}, Products)
	assert.Equal(t, []string{"1", "3", "5"}, ids(got))
}

func TestApplyCategory(t *testing.T) {
	got := Apply(catalog(), Query{Category: "T-Shirts"}, Products)
	assert.Equal(t, []string{"1", "5"}, ids(got))

	assert.Len(t, Apply(catalog(), Query{Category: All}, Products), 5)
	assert.Len(t, Apply(catalog(), Query{Category: ""}, Products), 5)
	assert.Empty(t, Apply(catalog(), Query{Category: "Hats"}, Products))
}

func TestApplySorts(t *testing.T) {
	tests := []struct {
		key  string
		want []string
	}{
		{SortName, []string{"4", "1", "2", "5", "3"}},
		{SortPrice, []string{"2", "3", "4", "1", "5"}},
		{SortStock, []string{"3", "2", "5", "4", "1"}},
		{SortProfit, []string{"3", "1", "5", "4", "2"}},
		{"unknown", []string{"1", "2", "3", "4", "5"}},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got := Apply(catalog(), Query{SortKey: tt.key}, Products)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestApplyIsStable(t *testing.T) {
	src := catalog()
	src[0].Price, src[3].Price, src[4].Price = 10, 10, 10

	got := Apply(src, Query{SortKey: SortPrice}, Products)
	assert.Equal(t, []string{"2", "3", "1", "4", "5"}, ids(got))
}

func TestApplyDoesNotMutateSource(t *testing.T) {
	src := catalog()
	_ = Apply(src, Query{Search: "tee", SortKey: SortStock}, Products)
	assert.Equal(t, catalog(), src)
}

func TestApplyIdempotent(t *testing.T) {
	q := Query{Search: "e", Category: "T-Shirts", SortKey: SortPrice}
	once := Apply(catalog(), q, Products)
	twice := Apply(once, q, Products)
	assert.Equal(t, once, twice)
}

func TestApplyReflectsSourceChanges(t *testing.T) {
	q := Query{Category: "T-Shirts"}
	src := catalog()
	assert.Len(t, Apply(src, q, Products), 2)

	src = src[1:]
	assert.Equal(t, []string{"5"}, ids(Apply(src, q, Products)))
}

func TestUsersView(t *testing.T) {
	users := []models.User{
		{ID: "u1", Name: "Zoe", Email: "zoe@shop.io", Role: "staff"},
		{ID: "u2", Name: "adam", Email: "adam@shop.io", Role: "admin"},
		{ID: "u3", Name: "Mia", Email: "mia@corp.io", Role: "manager"},
	}

	got := Apply(users, Query{Search: "shop", SortKey: SortName}, Users)
	assert.Equal(t, "u2", got[0].ID)
	assert.Equal(t, "u1", got[1].ID)

	got = Apply(users, Query{Category: "manager"}, Users)
	assert.Len(t, got, 1)

	got = Apply(users, Query{SortKey: SortRole}, Users)
	assert.Equal(t, []string{"admin", "manager", "staff"}, []string{got[0].Role, got[1].Role, got[2].Role})

	assert.Equal(t, []string{All, "staff", "admin", "manager"}, Distinct(users, func(u models.User) string { return u.Role }))
}

func TestSalesView(t *testing.T) {
	day := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	sales := []models.Sale{
		{ID: "a1", SaleNumber: "1001", Total: 50, CreatedAt: day},
		{ID: "b2", SaleNumber: "1002", Total: 80, CreatedAt: day.Add(2 * time.Hour)},
		{ID: "c3", SaleNumber: "1003", Total: 20, CreatedAt: day.AddDate(0, 0, 1)},
	}

	got := Apply(sales, Query{Search: "100"}, Sales)
	assert.Len(t, got, 3)

	got = Apply(sales, Query{Search: "b2"}, Sales)
	assert.Len(t, got, 1)

	got = Apply(sales, Query{Category: "2026-03-14", SortKey: SortNewest}, Sales)
	assert.Equal(t, []string{"b2", "a1"}, []string{got[0].ID, got[1].ID})

	got = Apply(sales, Query{SortKey: SortTotal}, Sales)
	assert.Equal(t, "b2", got[0].ID)
}

func TestInventoryStats(t *testing.T) {
	products := []models.Product{
		{StockQuantity: 0, MinStockLevel: 5},
		{StockQuantity: 3, MinStockLevel: 5},
		{StockQuantity: 10, MinStockLevel: 5},
	}

	stats := Inventory(products)
	assert.Equal(t, 1, stats.LowStockCount)
	assert.Equal(t, 1, stats.OutOfStockCount)
	assert.Equal(t, 3, stats.TotalProducts)

	assert.Equal(t, StockOut, StockStatus(products[0]))
	assert.Equal(t, StockLow, StockStatus(products[1]))
	assert.Equal(t, StockIn, StockStatus(products[2]))

	assert.InDelta(t, 12*8+3*50+0*20+7*24+3*10, Inventory(catalog()).InventoryValue, 1e-9)
}
