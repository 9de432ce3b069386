package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"fashionstock-dashboard/internal/backend"
	"fashionstock-dashboard/internal/models"
	"fashionstock-dashboard/internal/report"
	"fashionstock-dashboard/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Export formats and the file extensions they produce
var exportExtensions = map[string]string{
	"pdf":   "pdf",
	"excel": "xlsx",
}

// ReportService serves report snapshots. Requests for the same kind and
// period carry a generation number; a response whose request has been
// superseded by a newer, already answered one is discarded.
type ReportService struct {
	backend  ReportBackend
	cache    SnapshotCache
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	issued   map[string]uint64
	answered map[string]uint64
	latest   map[string]report.Snapshot
}

func NewReportService(backend ReportBackend, cache SnapshotCache, cacheTTL time.Duration) *ReportService {
	return &ReportService{
		backend:  backend,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   util.GetLogger(),
		now:      time.Now,
		issued:   make(map[string]uint64),
		answered: make(map[string]uint64),
		latest:   make(map[string]report.Snapshot),
	}
}

// Snapshot returns the report for kind and period. It never fails on backend
// errors: the cached snapshot or the documented fallback is returned, with
// Live false.
func (s *ReportService) Snapshot(ctx context.Context, kind report.Kind, period string) (report.Snapshot, error) {
	kind, err := report.ParseKind(string(kind))
	if err != nil {
		return report.Snapshot{}, &ValidationError{Fields: map[string]string{"kind": err.Error()}}
	}
	period = report.NormalizePeriod(period)

	ctx, span := util.StartSpan(ctx, "ReportService.Snapshot",
		attribute.String("kind", string(kind)),
		attribute.String("period", period))
	defer span.End()

	name := ReportCacheName(kind, period)
	gen := s.begin(name)
	snap := s.load(ctx, kind, period, name)
	return s.settle(name, gen, kind, snap), nil
}

func (s *ReportService) begin(name string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued[name]++
	return s.issued[name]
}

// settle records snap as the answer for generation gen unless a newer
// generation has already answered, in which case the newer snapshot wins.
func (s *ReportService) settle(name string, gen uint64, kind report.Kind, snap report.Snapshot) report.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen < s.answered[name] {
		util.StaleResponsesDiscarded.WithLabelValues(string(kind)).Inc()
		s.logger.Debug("Discarding superseded report response",
			zap.String("report", name),
			zap.Uint64("generation", gen),
			zap.Uint64("answered", s.answered[name]))
		return s.latest[name]
	}
	s.answered[name] = gen
	s.latest[name] = snap
	return snap
}

func (s *ReportService) load(ctx context.Context, kind report.Kind, period, name string) report.Snapshot {
	snap, err := s.fetch(ctx, kind, period)
	if err == nil {
		if s.cache != nil {
			if cerr := s.cache.SetJSON(ctx, name, snap, s.cacheTTL); cerr != nil {
				s.logger.Warn("Failed to cache snapshot", zap.String("name", name), zap.Error(cerr))
			}
		}
		return snap
	}

	s.logger.Warn("Report unavailable, degrading",
		zap.String("kind", string(kind)),
		zap.String("period", period),
		zap.Error(err))

	if s.cache != nil {
		var cached report.Snapshot
		if cerr := s.cache.GetJSON(ctx, name, &cached); cerr == nil {
			cached.Live = false
			util.FallbackServedTotal.WithLabelValues(SourceCache, string(kind)).Inc()
			return cached
		}
	}

	util.FallbackServedTotal.WithLabelValues(SourceFallback, string(kind)).Inc()
	return report.Fallback(kind)
}

func (s *ReportService) fetch(ctx context.Context, kind report.Kind, period string) (report.Snapshot, error) {
	raw, err := s.backend.Report(ctx, kind, period)
	if err != nil {
		return report.Snapshot{}, err
	}
	payload, err := report.Decode(raw)
	if err != nil {
		return report.Snapshot{}, err
	}
	return report.Transform(kind, payload), nil
}

// QuickStatsView is the sidebar counters with their liveness
type QuickStatsView struct {
	models.QuickStats
	Live bool `json:"live"`
}

// FallbackQuickStats are shown while the stats endpoint is unreachable
func FallbackQuickStats() models.QuickStats {
	return models.QuickStats{
		TotalProducts: models.Stat{Value: 156, Trend: "+5%", TrendUp: true},
		TodaySales:    models.Stat{Value: 2450, Trend: "+12%", TrendUp: true},
		LowStockItems: models.Stat{Value: 8, Trend: "-2", TrendUp: false},
	}
}

// QuickStats returns the dashboard counters, degrading to the cached or
// fallback counters.
func (s *ReportService) QuickStats(ctx context.Context) QuickStatsView {
	ctx, span := util.StartSpan(ctx, "ReportService.QuickStats")
	defer span.End()

	stats, source, err := cachedFetch(ctx, s.cache, s.cacheTTL, s.logger, CacheQuickStats, s.backend.QuickStats)
	if err != nil {
		util.FallbackServedTotal.WithLabelValues(SourceFallback, CacheQuickStats).Inc()
		return QuickStatsView{QuickStats: FallbackQuickStats()}
	}
	return QuickStatsView{QuickStats: stats, Live: source == SourceLive}
}

// Export renders the current snapshot of kind through the backend. The
// filename defaults to <kind>-report-<date>.<ext> when the backend gives none.
func (s *ReportService) Export(ctx context.Context, kind report.Kind, format, period string) (*backend.File, error) {
	var v validator
	k, kerr := report.ParseKind(string(kind))
	v.check(kerr == nil, "kind", "Unknown report kind")
	format = strings.ToLower(strings.TrimSpace(format))
	ext, ok := exportExtensions[format]
	v.check(ok, "format", "Format must be pdf or excel")
	if err := v.err(); err != nil {
		return nil, err
	}

	ctx, span := util.StartSpan(ctx, "ReportService.Export",
		attribute.String("kind", string(k)),
		attribute.String("format", format))
	defer span.End()

	snap, err := s.Snapshot(ctx, k, period)
	if err != nil {
		return nil, err
	}

	file, err := s.backend.ExportReport(ctx, format, backend.ReportExportRequest{
		ReportType: string(k),
		DateRange:  report.NormalizePeriod(period),
		Data:       snap,
	})
	if err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to export %s report: %w", k, err)
	}

	if file.Name == "" {
		file.Name = fmt.Sprintf("%s-report-%s.%s", k, s.now().Format(time.DateOnly), ext)
	}
	return file, nil
}
