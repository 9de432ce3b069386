package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fashionstock-dashboard/internal/broker"
	"fashionstock-dashboard/internal/models"
	"fashionstock-dashboard/internal/service"
	"fashionstock-dashboard/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Consumer delivers messages from the events topic
type Consumer interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// Invalidator drops cached snapshots
type Invalidator interface {
	Delete(ctx context.Context, names ...string) error
}

// Deduper remembers which events were already applied
type Deduper interface {
	GetIdempotencyKey(ctx context.Context, key string) (string, error)
	SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CacheWorker consumes domain events and drops the snapshots they make
// stale, so every replica serves fresh data after a write made anywhere.
type CacheWorker struct {
	consumer  Consumer
	handler   *broker.EventHandler
	cache     Invalidator
	dashboard Refresher
	dedup     Deduper
	dedupTTL  time.Duration
	logger    *zap.Logger
}

// NewCacheWorker creates a new cache worker. dashboard and dedup may be nil.
func NewCacheWorker(consumer Consumer, cache Invalidator, dashboard Refresher, dedup Deduper, dedupTTL time.Duration) *CacheWorker {
	w := &CacheWorker{
		consumer:  consumer,
		cache:     cache,
		dashboard: dashboard,
		dedup:     dedup,
		dedupTTL:  dedupTTL,
		logger:    util.GetLogger(),
	}

	handler := broker.NewEventHandler()
	handler.OnSaleCompleted(w.onSaleCompleted)
	handler.OnProductChanged(w.onProductChanged)
	handler.OnUserCreated(w.onUserCreated)
	w.handler = handler
	return w
}

// Start consumes until ctx is cancelled
func (w *CacheWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting cache worker")
	return w.consumer.StartConsuming(ctx, w.handle)
}

// Stop closes the consumer
func (w *CacheWorker) Stop() error {
	w.logger.Info("Stopping cache worker")
	return w.consumer.Close()
}

func (w *CacheWorker) handle(ctx context.Context, msg kafka.Message) error {
	var base models.BaseEvent
	if err := json.Unmarshal(msg.Value, &base); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	key := "event:" + base.EventID
	if w.dedup != nil && base.EventID != "" {
		seen, err := w.dedup.GetIdempotencyKey(ctx, key)
		if err != nil {
			w.logger.Warn("Event dedup lookup failed", zap.String("event_id", base.EventID), zap.Error(err))
		} else if seen != "" {
			w.logger.Debug("Skipping already applied event", zap.String("event_id", base.EventID))
			return nil
		}
	}

	if err := w.handler.HandleMessage(ctx, msg); err != nil {
		return err
	}

	if w.dedup != nil && base.EventID != "" {
		if err := w.dedup.SetIdempotencyKey(ctx, key, base.EventType, w.dedupTTL); err != nil {
			w.logger.Warn("Failed to remember event", zap.String("event_id", base.EventID), zap.Error(err))
		}
	}
	return nil
}

func (w *CacheWorker) onSaleCompleted(ctx context.Context, e *models.SaleCompletedEvent) error {
	w.logger.Info("Sale completed elsewhere, refreshing snapshots",
		zap.String("cart_id", e.CartID),
		zap.String("sale_id", e.SaleID))

	names := append([]string{service.CacheSales, service.CacheProducts, service.CacheDashboard, service.CacheQuickStats},
		service.ReportCacheNames()...)
	if err := w.cache.Delete(ctx, names...); err != nil {
		return fmt.Errorf("invalidate sale snapshots: %w", err)
	}
	w.refreshDashboard(ctx)
	return nil
}

func (w *CacheWorker) onProductChanged(ctx context.Context, e *models.ProductChangedEvent) error {
	w.logger.Debug("Product changed",
		zap.String("product_id", e.ProductID),
		zap.String("action", e.Action))

	if err := w.cache.Delete(ctx, service.CacheProducts, service.CacheDashboard, service.CacheQuickStats); err != nil {
		return fmt.Errorf("invalidate product snapshots: %w", err)
	}
	w.refreshDashboard(ctx)
	return nil
}

func (w *CacheWorker) onUserCreated(ctx context.Context, e *models.UserCreatedEvent) error {
	w.logger.Debug("User created", zap.String("email", e.Email))
	if err := w.cache.Delete(ctx, service.CacheUsers); err != nil {
		return fmt.Errorf("invalidate user snapshots: %w", err)
	}
	return nil
}

func (w *CacheWorker) refreshDashboard(ctx context.Context) {
	if w.dashboard == nil {
		return
	}
	w.dashboard.Refresh(ctx)
}
