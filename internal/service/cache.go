package service

import (
	"context"
	"time"

	"fashionstock-dashboard/internal/report"

	"go.uber.org/zap"
)

// Data sources reported alongside every degraded-capable read
const (
	SourceLive     = "live"
	SourceCache    = "cache"
	SourceFallback = "fallback"
	SourceEmpty    = "empty"
)

// Snapshot cache names
const (
	CacheDashboard  = "dashboard"
	CacheProducts   = "products"
	CacheSales      = "sales"
	CacheUsers      = "users"
	CacheQuickStats = "quick-stats"
)

// ReportCacheName is the cache name of one report snapshot.
func ReportCacheName(kind report.Kind, period string) string {
	return "report:" + string(kind) + ":" + period
}

// ReportCacheNames lists every report snapshot name.
func ReportCacheNames() []string {
	periods := []string{report.PeriodToday, report.PeriodWeek, report.PeriodMonth, report.PeriodQuarter}
	names := make([]string, 0, len(report.Kinds)*len(periods))
	for _, k := range report.Kinds {
		for _, p := range periods {
			names = append(names, ReportCacheName(k, p))
		}
	}
	return names
}

// cachedFetch runs fetch and remembers the result under name. When fetch
// fails the remembered value is returned instead, with SourceCache. The
// error is returned only when neither is available.
func cachedFetch[T any](ctx context.Context, cache SnapshotCache, ttl time.Duration, logger *zap.Logger,
	name string, fetch func(context.Context) (T, error)) (T, string, error) {
	v, err := fetch(ctx)
	if err == nil {
		if cache != nil {
			if cerr := cache.SetJSON(ctx, name, v, ttl); cerr != nil {
				logger.Warn("Failed to cache snapshot", zap.String("name", name), zap.Error(cerr))
			}
		}
		return v, SourceLive, nil
	}

	logger.Warn("Live fetch failed", zap.String("name", name), zap.Error(err))
	if cache != nil {
		var cached T
		if cerr := cache.GetJSON(ctx, name, &cached); cerr == nil {
			return cached, SourceCache, nil
		}
	}

	var zero T
	return zero, SourceEmpty, err
}

func invalidate(ctx context.Context, cache SnapshotCache, logger *zap.Logger, names ...string) {
	if cache == nil {
		return
	}
	if err := cache.Delete(ctx, names...); err != nil {
		logger.Warn("Failed to invalidate snapshots", zap.Strings("names", names), zap.Error(err))
	}
}
