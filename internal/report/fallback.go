package report

// Fallback returns the documented offline snapshot for kind. It is always
// flagged as not live.
func Fallback(kind Kind) Snapshot {
	var s Snapshot
	switch kind {
	case KindDaily:
		s = Snapshot{
			Revenue:      2450,
			Profit:       856,
			Transactions: 42,
			AverageOrder: 58.33,
			TopProducts: []TopProduct{
				{Name: "Premium T-Shirt", Sales: 15, Revenue: 450},
				{Name: "Designer Jeans", Sales: 8, Revenue: 720},
				{Name: "Summer Dress", Sales: 6, Revenue: 390},
				{Name: "Casual Shirt", Sales: 5, Revenue: 275},
			},
			SalesTrend: []TrendPoint{
				{Day: "Mon", Sales: 45, Revenue: 1200},
				{Day: "Tue", Sales: 52, Revenue: 1450},
				{Day: "Wed", Sales: 48, Revenue: 1350},
				{Day: "Thu", Sales: 61, Revenue: 1850},
				{Day: "Fri", Sales: 55, Revenue: 1650},
				{Day: "Sat", Sales: 72, Revenue: 2450},
				{Day: "Sun", Sales: 68, Revenue: 2250},
			},
		}
	case KindWeekly:
		s = Snapshot{Revenue: 15200, Profit: 5320, Transactions: 210, AverageOrder: 72.38, Growth: 12.5}
	case KindMonthly:
		s = Snapshot{Revenue: 58400, Profit: 20440, Transactions: 890, AverageOrder: 65.62, Growth: 8.3}
	case KindInventory:
		s = Snapshot{TotalValue: 28450, LowStockItems: 8, OutOfStock: 2, TurnoverRate: 3.2}
	}

	s.Kind = kind
	if s.TopProducts == nil {
		s.TopProducts = []TopProduct{}
	}
	s.Live = false
	return s
}
