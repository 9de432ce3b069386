package report

// Field is a canonical report field
type Field string

const (
	FieldRevenue       Field = "revenue"
	FieldProfit        Field = "profit"
	FieldTransactions  Field = "transactions"
	FieldAverageOrder  Field = "averageOrder"
	FieldGrowth        Field = "growth"
	FieldTotalValue    Field = "totalValue"
	FieldLowStockItems Field = "lowStockItems"
	FieldOutOfStock    Field = "outOfStock"
	FieldTurnoverRate  Field = "turnoverRate"
)

// Sources lists, per canonical field, the payload paths accepted for it in
// priority order. Dotted paths descend into nested objects.
var Sources = map[Field][]string{
	FieldRevenue:       {"totals.revenue", "totals.total_revenue", "totals.sales", "totals.income"},
	FieldProfit:        {"totals.profit", "totals.net_profit", "totals.earnings", "totals.net_income"},
	FieldTransactions:  {"totals.transactions", "totals.total_transactions", "totals.orders_count", "totals.orders"},
	FieldAverageOrder:  {"totals.averageOrder", "totals.avg_order_value", "totals.average_order", "totals.avg_transaction"},
	FieldGrowth:        {"totals.growth", "totals.growth_rate", "growth", "percentage_growth"},
	FieldTotalValue:    {"totals.totalValue", "totals.total_value", "totals.inventory_value", "totalValue"},
	FieldLowStockItems: {"lowStockItems", "low_stock_count", "low_stock", "low_inventory"},
	FieldOutOfStock:    {"outOfStock", "out_of_stock_count", "out_of_stock", "zero_stock"},
	FieldTurnoverRate:  {"totals.turnoverRate", "totals.turnover_rate", "turnoverRate", "turnover"},
}

var (
	topProductsSources = []string{"topProducts", "top_products", "products", "best_sellers", "popular_items"}
	productNameSources = []string{"name", "product_name", "productName"}
	productSalesSrcs   = []string{"sales", "units_sold", "quantity_sold", "total_sales"}
	productRevenueSrcs = []string{"revenue", "total_revenue", "sales_revenue", "total_income"}

	trendSources        = []string{"sales", "salesTrend", "daily_sales", "sales_trend", "trend", "daily_data"}
	trendDaySources     = []string{"day", "date", "label"}
	trendSalesSources   = []string{"sales", "sales_count", "count", "quantity"}
	trendRevenueSources = []string{"revenue", "amount", "total"}
)
