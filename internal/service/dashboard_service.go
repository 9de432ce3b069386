package service

import (
	"context"
	"math"
	"strconv"
	"time"

	"fashionstock-dashboard/internal/listview"
	"fashionstock-dashboard/internal/models"
	"fashionstock-dashboard/internal/normalize"
	"fashionstock-dashboard/internal/report"
	"fashionstock-dashboard/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	recentSalesLimit  = 5
	highUrgencyStock  = 2
	dashboardSource   = "dashboard"
	dashboardReport   = "dashboard:report"
	multipleItemsName = "Multiple Items"
	uncategorized     = "Uncategorized"
)

// Urgency levels of a low stock alert
const (
	UrgencyHigh   = "high"
	UrgencyMedium = "medium"
)

// DashboardStats are the headline counters
type DashboardStats struct {
	TotalProducts  models.Stat `json:"totalProducts"`
	LowStockItems  models.Stat `json:"lowStockItems"`
	TodaySales     models.Stat `json:"todaySales"`
	MonthlyProfit  models.Stat `json:"monthlyProfit"`
	InventoryValue models.Stat `json:"inventoryValue"`
}

// RecentSale is one row of the recent transactions table
type RecentSale struct {
	ID        string    `json:"id"`
	Product   string    `json:"product"`
	Quantity  int       `json:"quantity"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// LowStockAlert is a product at or under its minimum
type LowStockAlert struct {
	Product  string `json:"product"`
	Category string `json:"category"`
	Current  int    `json:"current"`
	Min      int    `json:"min"`
	Urgency  string `json:"urgency"`
}

// PerformanceMetrics are derived from the daily report
type PerformanceMetrics struct {
	SalesGrowth       float64 `json:"salesGrowth"`
	ProfitMargin      float64 `json:"profitMargin"`
	InventoryTurnover float64 `json:"inventoryTurnover"`
	AverageOrderValue float64 `json:"averageOrderValue"`
}

// Dashboard is the landing page summary. Sources records, per input, where
// its data came from.
type Dashboard struct {
	Stats       DashboardStats     `json:"stats"`
	RecentSales []RecentSale       `json:"recentSales"`
	LowStock    []LowStockAlert    `json:"lowStock"`
	Metrics     PerformanceMetrics `json:"metrics"`
	Sources     map[string]string  `json:"sources"`
	Live        bool               `json:"live"`
	RefreshedAt time.Time          `json:"refreshedAt"`
}

// DashboardService assembles the dashboard summary
type DashboardService struct {
	backend  DashboardBackend
	cache    SnapshotCache
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewDashboardService(backend DashboardBackend, cache SnapshotCache, cacheTTL time.Duration) *DashboardService {
	return &DashboardService{
		backend:  backend,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   util.GetLogger(),
		now:      time.Now,
	}
}

// Summary returns the last refreshed dashboard, refreshing when there is
// none or when forced.
func (s *DashboardService) Summary(ctx context.Context, force bool) *Dashboard {
	if !force && s.cache != nil {
		var d Dashboard
		if err := s.cache.GetJSON(ctx, CacheDashboard, &d); err == nil {
			return &d
		}
	}
	return s.Refresh(ctx)
}

// Refresh fetches the daily report, products and sales together. A failed
// source never cancels its siblings; when all three fail the mock dashboard
// is returned.
func (s *DashboardService) Refresh(ctx context.Context) *Dashboard {
	ctx, span := util.StartSpan(ctx, "DashboardService.Refresh")
	defer span.End()
	start := time.Now()

	var (
		payload   map[string]any
		products  []models.Product
		sales     []models.Sale
		reportSrc string
		prodSrc   string
		salesSrc  string
	)

	var g errgroup.Group
	g.Go(func() error {
		payload, reportSrc, _ = cachedFetch(ctx, s.cache, s.cacheTTL, s.logger, dashboardReport, s.dailyReport)
		return nil
	})
	g.Go(func() error {
		products, prodSrc, _ = cachedFetch(ctx, s.cache, s.cacheTTL, s.logger, CacheProducts, s.backend.Products)
		return nil
	})
	g.Go(func() error {
		sales, salesSrc, _ = cachedFetch(ctx, s.cache, s.cacheTTL, s.logger, CacheSales, s.backend.Sales)
		return nil
	})
	_ = g.Wait()

	util.DashboardRefreshLatency.Observe(time.Since(start).Seconds())

	sources := map[string]string{"report": reportSrc, "products": prodSrc, "sales": salesSrc}
	if reportSrc == SourceEmpty && prodSrc == SourceEmpty && salesSrc == SourceEmpty {
		util.DashboardRefreshTotal.WithLabelValues("mock").Inc()
		util.FallbackServedTotal.WithLabelValues(SourceFallback, dashboardSource).Inc()
		s.logger.Warn("All dashboard sources failed, serving demo data")
		d := MockDashboard()
		d.RefreshedAt = s.now()
		return d
	}

	d := Assemble(payload, products, sales)
	d.Sources = sources
	d.Live = reportSrc == SourceLive && prodSrc == SourceLive && salesSrc == SourceLive
	d.RefreshedAt = s.now()

	outcome := "partial"
	if d.Live {
		outcome = "live"
	}
	util.DashboardRefreshTotal.WithLabelValues(outcome).Inc()

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, CacheDashboard, d, s.cacheTTL); err != nil {
			s.logger.Warn("Failed to cache dashboard", zap.Error(err))
		}
	}
	return d
}

func (s *DashboardService) dailyReport(ctx context.Context) (map[string]any, error) {
	raw, err := s.backend.Report(ctx, report.KindDaily, report.PeriodToday)
	if err != nil {
		return nil, err
	}
	return report.Decode(raw)
}

// Assemble computes the dashboard from whatever sources are available; a nil
// input contributes nothing.
func Assemble(payload map[string]any, products []models.Product, sales []models.Sale) *Dashboard {
	d := &Dashboard{
		RecentSales: []RecentSale{},
		LowStock:    []LowStockAlert{},
	}

	if payload != nil {
		snap := report.Transform(report.KindDaily, payload)
		d.Stats.TodaySales = models.Stat{Value: snap.Revenue, TrendUp: true}
		d.Stats.MonthlyProfit = models.Stat{Value: snap.Profit, TrendUp: true}
		d.Metrics = PerformanceMetrics{
			SalesGrowth:       snap.Growth,
			InventoryTurnover: snap.TurnoverRate,
			AverageOrderValue: snap.AverageOrder,
		}
		if snap.Revenue > 0 {
			d.Metrics.ProfitMargin = math.Round(snap.Profit/snap.Revenue*1000) / 10
		}
		if alerts, ok := reportAlerts(payload); ok {
			d.LowStock = alerts
		}
	}

	if products != nil {
		inv := listview.Inventory(products)
		d.Stats.TotalProducts = models.Stat{Value: float64(len(products)), TrendUp: true}
		d.Stats.InventoryValue = models.Stat{Value: math.Round(inv.InventoryValue*100) / 100, TrendUp: true}
		if len(d.LowStock) == 0 {
			d.LowStock = productAlerts(products)
		}
	}
	d.Stats.LowStockItems = models.Stat{Value: float64(len(d.LowStock))}

	for i, sale := range sales {
		if i == recentSalesLimit {
			break
		}
		d.RecentSales = append(d.RecentSales, recentSale(sale))
	}
	return d
}

// reportAlerts reads the low stock list some daily reports carry.
func reportAlerts(payload map[string]any) ([]LowStockAlert, bool) {
	items, ok := payload["lowStockItems"].([]any)
	if !ok {
		return nil, false
	}

	alerts := make([]LowStockAlert, 0, len(items))
	for i, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		name, _ := report.Lookup(m, []string{"name", "product_name"})
		category, _ := report.Lookup(m, []string{"category"})
		current, _ := report.Lookup(m, []string{"stockQuantity", "current_stock"})
		minimum, _ := report.Lookup(m, []string{"minStockLevel", "min_stock"})
		alerts = append(alerts, alert(
			normalize.String(name, "Product "+strconv.Itoa(i+1)),
			normalize.String(category, uncategorized),
			normalize.Int(current),
			normalize.Int(minimum, models.DefaultMinStockLevel),
		))
	}
	return alerts, true
}

func productAlerts(products []models.Product) []LowStockAlert {
	alerts := []LowStockAlert{}
	for _, p := range products {
		if p.StockQuantity > p.MinStockLevel {
			continue
		}
		name := p.Name
		if name == "" {
			name = "Product " + p.ID
		}
		category := p.Category
		if category == "" {
			category = uncategorized
		}
		alerts = append(alerts, alert(name, category, p.StockQuantity, p.MinStockLevel))
	}
	return alerts
}

func alert(name, category string, current, minimum int) LowStockAlert {
	if minimum <= 0 {
		minimum = models.DefaultMinStockLevel
	}
	urgency := UrgencyMedium
	if current <= highUrgencyStock {
		urgency = UrgencyHigh
	}
	return LowStockAlert{Product: name, Category: category, Current: current, Min: minimum, Urgency: urgency}
}

func recentSale(sale models.Sale) RecentSale {
	product := multipleItemsName
	if len(sale.Items) > 0 && sale.Items[0].ProductName != "" {
		product = sale.Items[0].ProductName
	}
	qty := sale.TotalItems
	if qty <= 0 {
		qty = 1
	}
	return RecentSale{
		ID:        sale.ID,
		Product:   product,
		Quantity:  qty,
		Amount:    sale.Total,
		Status:    "completed",
		CreatedAt: sale.CreatedAt,
	}
}

// MockDashboard is the documented demo dashboard shown when no source is
// reachable.
func MockDashboard() *Dashboard {
	return &Dashboard{
		Stats: DashboardStats{
			TotalProducts:  models.Stat{Value: 156, Trend: "+5%", TrendUp: true},
			LowStockItems:  models.Stat{Value: 8, Trend: "-2%", TrendUp: false},
			TodaySales:     models.Stat{Value: 2450, Trend: "+12%", TrendUp: true},
			MonthlyProfit:  models.Stat{Value: 18450, Trend: "+8%", TrendUp: true},
			InventoryValue: models.Stat{Value: 28450, Trend: "+3%", TrendUp: true},
		},
		RecentSales: []RecentSale{
			{ID: "1", Product: "Premium T-Shirt", Quantity: 2, Amount: 89.98, Status: "completed"},
			{ID: "2", Product: "Designer Jeans", Quantity: 1, Amount: 129.99, Status: "completed"},
			{ID: "3", Product: "Summer Dress", Quantity: 1, Amount: 79.99, Status: "completed"},
		},
		LowStock: []LowStockAlert{
			{Product: "Limited Edition Sneakers", Category: "Footwear", Current: 2, Min: 5, Urgency: UrgencyHigh},
			{Product: "Winter Jacket", Category: "Outerwear", Current: 3, Min: 5, Urgency: UrgencyHigh},
			{Product: "Silk Scarf", Category: "Accessories", Current: 4, Min: 8, Urgency: UrgencyMedium},
		},
		Metrics: PerformanceMetrics{
			SalesGrowth:       12.5,
			ProfitMargin:      42.3,
			InventoryTurnover: 3.2,
			AverageOrderValue: 68.5,
		},
		Sources: map[string]string{"report": SourceFallback, "products": SourceFallback, "sales": SourceFallback},
		Live:    false,
	}
}
