package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fashionstock-dashboard/internal/broker"
	"fashionstock-dashboard/internal/listview"
	"fashionstock-dashboard/internal/models"
	"fashionstock-dashboard/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ProductService backs the product management page
type ProductService struct {
	backend  ProductBackend
	cache    SnapshotCache
	events   EventPublisher
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewProductService creates a new product service. cache and events may be nil.
func NewProductService(backend ProductBackend, cache SnapshotCache, events EventPublisher, cacheTTL time.Duration) *ProductService {
	return &ProductService{
		backend:  backend,
		cache:    cache,
		events:   events,
		cacheTTL: cacheTTL,
		logger:   util.GetLogger(),
	}
}

// ProductView is the filtered catalog with its summary
type ProductView struct {
	Products   []models.Product        `json:"products"`
	Categories []string                `json:"categories"`
	Stats      listview.InventoryStats `json:"stats"`
	Source     string                  `json:"source"`
	Live       bool                    `json:"live"`
}

// List fetches the catalog and applies q. A failed fetch degrades to the
// cached catalog, then to an empty one.
func (s *ProductService) List(ctx context.Context, q listview.Query) (*ProductView, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.List")
	defer span.End()

	products, source, err := cachedFetch(ctx, s.cache, s.cacheTTL, s.logger, CacheProducts, s.backend.Products)
	if err != nil {
		util.FallbackServedTotal.WithLabelValues(SourceEmpty, CacheProducts).Inc()
	} else if source == SourceCache {
		util.FallbackServedTotal.WithLabelValues(SourceCache, CacheProducts).Inc()
	}
	return s.view(products, q, source), nil
}

func (s *ProductService) view(products []models.Product, q listview.Query, source string) *ProductView {
	if products == nil {
		products = []models.Product{}
	}
	return &ProductView{
		Products:   listview.Apply(products, q, listview.Products),
		Categories: listview.Distinct(products, func(p models.Product) string { return p.Category }),
		Stats:      listview.Inventory(products),
		Source:     source,
		Live:       source == SourceLive,
	}
}

// LowStock lists products under their minimum. Failures yield an empty list.
func (s *ProductService) LowStock(ctx context.Context) []models.Product {
	ctx, span := util.StartSpan(ctx, "ProductService.LowStock")
	defer span.End()

	products, err := s.backend.LowStockProducts(ctx)
	if err != nil {
		s.logger.Warn("Low stock alerts unavailable", zap.Error(err))
		return []models.Product{}
	}
	if products == nil {
		products = []models.Product{}
	}
	return products
}

// Create validates and submits a new product, then returns the re-fetched catalog.
func (s *ProductService) Create(ctx context.Context, in models.ProductInput, q listview.Query) (*ProductView, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.Create")
	defer span.End()

	in = normalizeProductInput(in)
	if err := validateProduct(in); err != nil {
		return nil, err
	}

	if err := s.backend.CreateProduct(ctx, in); err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Product created", zap.String("name", in.Name))
	s.afterMutation(ctx, "", models.ProductActionCreated)
	return s.refresh(ctx, q)
}

// Update validates and submits changes to product id.
func (s *ProductService) Update(ctx context.Context, id string, in models.ProductInput, q listview.Query) (*ProductView, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.Update", attribute.String("product_id", id))
	defer span.End()

	in = normalizeProductInput(in)
	if err := validateProduct(in); err != nil {
		return nil, err
	}

	if err := s.backend.UpdateProduct(ctx, id, in); err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to update product %s: %w", id, err)
	}

	s.logger.Info("Product updated", zap.String("product_id", id))
	s.afterMutation(ctx, id, models.ProductActionUpdated)
	return s.refresh(ctx, q)
}

// Delete removes product id.
func (s *ProductService) Delete(ctx context.Context, id string, q listview.Query) (*ProductView, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.Delete", attribute.String("product_id", id))
	defer span.End()

	if strings.TrimSpace(id) == "" {
		return nil, &ValidationError{Fields: map[string]string{"id": "Product id is required"}}
	}

	if err := s.backend.DeleteProduct(ctx, id); err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to delete product %s: %w", id, err)
	}

	s.logger.Info("Product deleted", zap.String("product_id", id))
	s.afterMutation(ctx, id, models.ProductActionDeleted)
	return s.refresh(ctx, q)
}

func (s *ProductService) afterMutation(ctx context.Context, id, action string) {
	invalidate(ctx, s.cache, s.logger, CacheProducts, CacheDashboard)
	if s.events == nil {
		return
	}

	event := &models.ProductChangedEvent{
		BaseEvent: broker.NewBaseEvent(models.EventTypeProductChanged),
		ProductID: id,
		Action:    action,
	}
	if err := s.events.PublishProductChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish ProductChanged event", zap.String("product_id", id), zap.Error(err))
	}
}

// refresh re-reads the catalog after a confirmed write. The write already
// succeeded, so a failed re-read is reported through the view source.
func (s *ProductService) refresh(ctx context.Context, q listview.Query) (*ProductView, error) {
	products, err := s.backend.Products(ctx)
	if err != nil {
		s.logger.Warn("Catalog re-fetch after write failed", zap.Error(err))
		return s.view(nil, q, SourceEmpty), nil
	}
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, CacheProducts, products, s.cacheTTL); err != nil {
			s.logger.Warn("Failed to cache snapshot", zap.String("name", CacheProducts), zap.Error(err))
		}
	}
	return s.view(products, q, SourceLive), nil
}

func normalizeProductInput(in models.ProductInput) models.ProductInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	in.Size = strings.TrimSpace(in.Size)
	in.Color = strings.TrimSpace(in.Color)
	in.Brand = strings.TrimSpace(in.Brand)
	if in.MinStockLevel <= 0 {
		in.MinStockLevel = models.DefaultMinStockLevel
	}
	return in
}

func validateProduct(in models.ProductInput) error {
	var v validator
	v.check(in.Name != "", "name", "Name is required")
	v.check(in.Category != "", "category", "Category is required")
	v.check(in.Size != "", "size", "Size is required")
	v.check(in.Color != "", "color", "Color is required")
	v.check(in.Price >= 0, "price", "Price cannot be negative")
	v.check(in.CostPrice >= 0, "costPrice", "Cost price cannot be negative")
	v.check(in.StockQuantity >= 0, "stockQuantity", "Stock cannot be negative")
	return v.err()
}
