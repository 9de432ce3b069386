// Package report maps backend report payloads of varying shape onto one
// canonical snapshot.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"fashionstock-dashboard/internal/normalize"
)

// Kind selects a report endpoint
type Kind string

const (
	KindDaily     Kind = "daily"
	KindWeekly    Kind = "weekly"
	KindMonthly   Kind = "monthly"
	KindInventory Kind = "inventory"
)

// Kinds lists every report kind.
var Kinds = []Kind{KindDaily, KindWeekly, KindMonthly, KindInventory}

// Periods accepted by the report endpoints
const (
	PeriodToday   = "today"
	PeriodWeek    = "week"
	PeriodMonth   = "month"
	PeriodQuarter = "quarter"
)

var (
	ErrUnknownKind = errors.New("unknown report kind")
	ErrInvalidData = errors.New("report data is not an object")
)

const (
	unknownProduct  = "Unknown Product"
	defaultTrendDay = "Day"
)

// ParseKind validates a report kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// NormalizePeriod maps unknown periods to today.
func NormalizePeriod(p string) string {
	switch p = strings.ToLower(strings.TrimSpace(p)); p {
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodQuarter:
		return p
	default:
		return PeriodToday
	}
}

// TopProduct is one best seller within a report period
type TopProduct struct {
	Name    string  `json:"name"`
	Sales   float64 `json:"sales"`
	Revenue float64 `json:"revenue"`
}

// TrendPoint is one day of the sales trend chart
type TrendPoint struct {
	Day     string  `json:"day"`
	Sales   float64 `json:"sales"`
	Revenue float64 `json:"revenue"`
}

// Snapshot is the canonical summary of one reporting period. Live is false
// when the snapshot is the local fallback rather than backend data.
type Snapshot struct {
	Kind          Kind         `json:"kind"`
	Revenue       float64      `json:"revenue"`
	Profit        float64      `json:"profit"`
	Transactions  float64      `json:"transactions"`
	AverageOrder  float64      `json:"averageOrder"`
	Growth        float64      `json:"growth"`
	TotalValue    float64      `json:"totalValue"`
	LowStockItems float64      `json:"lowStockItems"`
	OutOfStock    float64      `json:"outOfStock"`
	TurnoverRate  float64      `json:"turnoverRate"`
	TopProducts   []TopProduct `json:"topProducts"`
	SalesTrend    []TrendPoint `json:"salesTrend,omitempty"`
	Live          bool         `json:"live"`
}

// Decode validates the data member of a report response.
func Decode(data json.RawMessage) (map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	if payload == nil {
		return nil, ErrInvalidData
	}
	return payload, nil
}

// Transform maps a raw payload onto a live Snapshot. The same payload always
// yields the same snapshot.
func Transform(kind Kind, payload map[string]any) Snapshot {
	s := Snapshot{
		Kind:          kind,
		Revenue:       number(payload, FieldRevenue),
		Profit:        number(payload, FieldProfit),
		Transactions:  number(payload, FieldTransactions),
		Growth:        number(payload, FieldGrowth),
		TotalValue:    number(payload, FieldTotalValue),
		LowStockItems: number(payload, FieldLowStockItems),
		OutOfStock:    number(payload, FieldOutOfStock),
		TurnoverRate:  number(payload, FieldTurnoverRate),
		TopProducts:   topProducts(payload),
		Live:          true,
	}

	if v, ok := Lookup(payload, Sources[FieldAverageOrder]); ok {
		s.AverageOrder = normalize.Number(v)
	} else if s.Transactions > 0 {
		s.AverageOrder = round2(s.Revenue / s.Transactions)
	}

	if kind == KindDaily {
		s.SalesTrend = salesTrend(payload)
	}
	return s
}

// Lookup returns the first present value among paths.
func Lookup(payload map[string]any, paths []string) (any, bool) {
	for _, path := range paths {
		if v, ok := resolve(payload, path); ok && normalize.Present(v) {
			return v, true
		}
	}
	return nil, false
}

func resolve(payload map[string]any, path string) (any, bool) {
	var cur any = payload
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func number(payload map[string]any, f Field) float64 {
	v, _ := Lookup(payload, Sources[f])
	return normalize.Number(v)
}

func list(payload map[string]any, paths []string) []map[string]any {
	for _, path := range paths {
		v, ok := resolve(payload, path)
		if !ok {
			continue
		}
		items, ok := v.([]any)
		if !ok {
			continue
		}
		out := make([]map[string]any, 0, len(items))
		for _, it := range items {
			if m, ok := it.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

func topProducts(payload map[string]any) []TopProduct {
	raw := list(payload, topProductsSources)
	out := make([]TopProduct, 0, len(raw))
	for _, m := range raw {
		name, _ := Lookup(m, productNameSources)
		sales, _ := Lookup(m, productSalesSrcs)
		revenue, _ := Lookup(m, productRevenueSrcs)
		out = append(out, TopProduct{
			Name:    normalize.String(name, unknownProduct),
			Sales:   normalize.Number(sales),
			Revenue: normalize.Number(revenue),
		})
	}
	return out
}

func salesTrend(payload map[string]any) []TrendPoint {
	raw := list(payload, trendSources)
	out := make([]TrendPoint, 0, len(raw))
	for _, m := range raw {
		day, _ := Lookup(m, trendDaySources)
		sales, _ := Lookup(m, trendSalesSources)
		revenue, _ := Lookup(m, trendRevenueSources)
		out = append(out, TrendPoint{
			Day:     normalize.String(day, defaultTrendDay),
			Sales:   normalize.Number(sales),
			Revenue: normalize.Number(revenue),
		})
	}
	return out
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
