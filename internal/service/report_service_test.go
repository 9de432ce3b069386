package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"fashionstock-dashboard/internal/backend"
	"fashionstock-dashboard/internal/models"
	"fashionstock-dashboard/internal/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportService_Snapshot(t *testing.T) {
	fb := &fakeBackend{reports: map[report.Kind]string{
		report.KindWeekly: `{"totals":{"total_revenue":"1200","net_profit":300,"orders_count":12,"growth_rate":4.5}}`,
	}}
	svc := NewReportService(fb, nil, 0)

	snap, err := svc.Snapshot(context.Background(), report.KindWeekly, "week")

	require.NoError(t, err)
	assert.True(t, snap.Live)
	assert.Equal(t, 1200.0, snap.Revenue)
	assert.Equal(t, 300.0, snap.Profit)
	assert.Equal(t, 100.0, snap.AverageOrder)
	assert.Equal(t, 4.5, snap.Growth)
}

func TestReportService_FallbackWhenUnreachable(t *testing.T) {
	for _, kind := range report.Kinds {
		t.Run(string(kind), func(t *testing.T) {
			svc := NewReportService(&fakeBackend{reportErr: errDown}, nil, 0)

			snap, err := svc.Snapshot(context.Background(), kind, "")

			require.NoError(t, err)
			assert.False(t, snap.Live)
			assert.Equal(t, report.Fallback(kind), snap)
		})
	}
}

func TestReportService_MalformedDataFallsBack(t *testing.T) {
	fb := &fakeBackend{reports: map[report.Kind]string{report.KindDaily: `[1,2,3]`}}
	svc := NewReportService(fb, nil, 0)

	snap, err := svc.Snapshot(context.Background(), report.KindDaily, report.PeriodToday)

	require.NoError(t, err)
	assert.Equal(t, report.Fallback(report.KindDaily), snap)
}

func TestReportService_DegradesToCachedSnapshot(t *testing.T) {
	fb := &fakeBackend{reports: map[report.Kind]string{
		report.KindMonthly: `{"totals":{"revenue":5000,"transactions":50}}`,
	}}
	svc := NewReportService(fb, newMemCache(), 0)

	live, err := svc.Snapshot(context.Background(), report.KindMonthly, report.PeriodMonth)
	require.NoError(t, err)
	require.True(t, live.Live)

	fb.reportErr = errDown
	cached, err := svc.Snapshot(context.Background(), report.KindMonthly, report.PeriodMonth)

	require.NoError(t, err)
	assert.False(t, cached.Live)
	assert.Equal(t, 5000.0, cached.Revenue)
	assert.Equal(t, 100.0, cached.AverageOrder)
}

func TestReportService_UnknownKind(t *testing.T) {
	fb := &fakeBackend{}
	svc := NewReportService(fb, nil, 0)

	_, err := svc.Snapshot(context.Background(), report.Kind("yearly"), "")

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Zero(t, fb.reportCalls)
}

func TestReportService_SupersededResponseIsDiscarded(t *testing.T) {
	fb := &fakeBackend{reports: map[report.Kind]string{
		report.KindDaily: `{"totals":{"revenue":100}}`,
	}}
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int32
	fb.reportHook = func(report.Kind, string) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
			<-release
		}
	}
	svc := NewReportService(fb, nil, 0)

	slow := make(chan report.Snapshot, 1)
	go func() {
		snap, _ := svc.Snapshot(context.Background(), report.KindDaily, report.PeriodToday)
		slow <- snap
	}()
	<-started

	newer, err := svc.Snapshot(context.Background(), report.KindDaily, report.PeriodToday)
	require.NoError(t, err)
	assert.Equal(t, 100.0, newer.Revenue)

	// the first request now resolves with different data
	fb.reports[report.KindDaily] = `{"totals":{"revenue":999}}`
	close(release)

	select {
	case stale := <-slow:
		assert.Equal(t, 100.0, stale.Revenue)
	case <-time.After(2 * time.Second):
		t.Fatal("superseded request did not return")
	}

	again, err := svc.Snapshot(context.Background(), report.KindDaily, report.PeriodToday)
	require.NoError(t, err)
	assert.Equal(t, 999.0, again.Revenue, "a new request is answered normally")
}

func TestReportService_QuickStats(t *testing.T) {
	stats := models.QuickStats{TotalProducts: models.Stat{Value: 40, Trend: "+1%", TrendUp: true}}
	svc := NewReportService(&fakeBackend{stats: stats}, nil, 0)

	view := svc.QuickStats(context.Background())
	assert.True(t, view.Live)
	assert.Equal(t, 40.0, view.TotalProducts.Value)

	svc = NewReportService(&fakeBackend{statsErr: errDown}, nil, 0)
	view = svc.QuickStats(context.Background())
	assert.False(t, view.Live)
	assert.Equal(t, FallbackQuickStats(), view.QuickStats)
	assert.False(t, view.LowStockItems.TrendUp)
}

func TestReportService_Export(t *testing.T) {
	fb := &fakeBackend{
		reportErr: errDown,
		file:      &backend.File{ContentType: "application/pdf", Data: []byte("%PDF")},
	}
	svc := NewReportService(fb, nil, 0)
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }

	file, err := svc.Export(context.Background(), report.KindDaily, "PDF", "week")

	require.NoError(t, err)
	assert.Equal(t, "daily-report-2026-03-14.pdf", file.Name)
	assert.Equal(t, []string{"pdf"}, fb.exportFormats)
	require.Len(t, fb.reportExports, 1)
	assert.Equal(t, "daily", fb.reportExports[0].ReportType)
	assert.Equal(t, report.PeriodWeek, fb.reportExports[0].DateRange)
	assert.Equal(t, report.Fallback(report.KindDaily), fb.reportExports[0].Data)
}

func TestReportService_ExportKeepsBackendFilename(t *testing.T) {
	fb := &fakeBackend{
		reports: map[report.Kind]string{report.KindInventory: `{"totalValue":10}`},
		file:    &backend.File{Name: "inventory.xlsx"},
	}
	svc := NewReportService(fb, nil, 0)

	file, err := svc.Export(context.Background(), report.KindInventory, "excel", "")

	require.NoError(t, err)
	assert.Equal(t, "inventory.xlsx", file.Name)
}

func TestReportService_ExportValidation(t *testing.T) {
	fb := &fakeBackend{file: &backend.File{}}
	svc := NewReportService(fb, nil, 0)

	_, err := svc.Export(context.Background(), report.KindDaily, "csv", "")

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "format")
	assert.Empty(t, fb.exportFormats)
}
