package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fashionstock-dashboard/internal/backend"
	"fashionstock-dashboard/internal/broker"
	"fashionstock-dashboard/internal/cart"
	"fashionstock-dashboard/internal/listview"
	"fashionstock-dashboard/internal/models"
	"fashionstock-dashboard/internal/session"
	"fashionstock-dashboard/internal/store"
	"fashionstock-dashboard/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Sales export ranges
const (
	ExportToday  = "today"
	ExportWeek   = "week"
	ExportMonth  = "month"
	ExportCustom = "custom"
)

// SalesService backs the point of sale and the sales history
type SalesService struct {
	backend  SalesBackend
	cache    SnapshotCache
	journal  SaleJournal
	events   EventPublisher
	carts    *CartRegistry
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewSalesService creates a new sales service. cache, journal and events may be nil.
func NewSalesService(
	backend SalesBackend,
	cache SnapshotCache,
	journal SaleJournal,
	events EventPublisher,
	carts *CartRegistry,
	cacheTTL time.Duration,
) *SalesService {
	return &SalesService{
		backend:  backend,
		cache:    cache,
		journal:  journal,
		events:   events,
		carts:    carts,
		cacheTTL: cacheTTL,
		logger:   util.GetLogger(),
		now:      time.Now,
	}
}

// SalesView is the filtered sales history
type SalesView struct {
	Sales  []models.Sale `json:"sales"`
	Total  int           `json:"total"`
	Source string        `json:"source"`
	Live   bool          `json:"live"`
}

// History lists recorded sales matching q. The category filter of q is a
// YYYY-MM-DD date.
func (s *SalesService) History(ctx context.Context, q listview.Query) (*SalesView, error) {
	ctx, span := util.StartSpan(ctx, "SalesService.History")
	defer span.End()

	sales, source, err := cachedFetch(ctx, s.cache, s.cacheTTL, s.logger, CacheSales, s.backend.Sales)
	if err != nil || source == SourceCache {
		util.FallbackServedTotal.WithLabelValues(source, CacheSales).Inc()
	}
	if sales == nil {
		sales = []models.Sale{}
	}
	return &SalesView{
		Sales:  listview.Apply(sales, q, listview.Sales),
		Total:  len(sales),
		Source: source,
		Live:   source == SourceLive,
	}, nil
}

// OpenCart starts a new sale
func (s *SalesService) OpenCart() cart.View {
	id := s.carts.Open()
	var view cart.View
	_ = s.carts.With(id, func(c *cart.Cart) error {
		view = c.View()
		return nil
	})
	s.logger.Debug("Cart opened", zap.String("cart_id", id))
	return view
}

// Cart returns the current state of cart id
func (s *SalesService) Cart(id string) (cart.View, error) {
	var view cart.View
	err := s.carts.With(id, func(c *cart.Cart) error {
		view = c.View()
		return nil
	})
	return view, err
}

// AddItem adds qty units of productID, checked against the product's
// current stock.
func (s *SalesService) AddItem(ctx context.Context, cartID, productID string, qty int) (cart.View, error) {
	ctx, span := util.StartSpan(ctx, "SalesService.AddItem",
		attribute.String("cart_id", cartID),
		attribute.String("product_id", productID))
	defer span.End()

	product, err := s.product(ctx, productID)
	if err != nil {
		return cart.View{}, err
	}

	return s.mutate(cartID, "add", func(c *cart.Cart) error {
		return c.Add(*product, qty)
	})
}

// UpdateItem sets the quantity of an existing line, checked against the
// product's current stock.
func (s *SalesService) UpdateItem(ctx context.Context, cartID, productID string, qty int) (cart.View, error) {
	ctx, span := util.StartSpan(ctx, "SalesService.UpdateItem",
		attribute.String("cart_id", cartID),
		attribute.String("product_id", productID))
	defer span.End()

	stock := 0
	if qty > 0 {
		product, err := s.product(ctx, productID)
		if err != nil {
			return cart.View{}, err
		}
		stock = product.StockQuantity
	}

	return s.mutate(cartID, "update", func(c *cart.Cart) error {
		return c.UpdateQuantity(productID, qty, stock)
	})
}

func (s *SalesService) RemoveItem(cartID, productID string) (cart.View, error) {
	return s.mutate(cartID, "remove", func(c *cart.Cart) error {
		c.Remove(productID)
		return nil
	})
}

func (s *SalesService) SetDiscount(cartID string, pct float64) (cart.View, error) {
	return s.mutate(cartID, "discount", func(c *cart.Cart) error {
		return c.SetDiscount(pct)
	})
}

func (s *SalesService) SetPaymentMethod(cartID, method string) (cart.View, error) {
	return s.mutate(cartID, "payment_method", func(c *cart.Cart) error {
		return c.SetPaymentMethod(method)
	})
}

// ClearCart empties cart id and resets discount and payment method.
func (s *SalesService) ClearCart(cartID string) (cart.View, error) {
	return s.mutate(cartID, "clear", func(c *cart.Cart) error {
		c.Clear()
		return nil
	})
}

func (s *SalesService) mutate(cartID, op string, fn func(*cart.Cart) error) (cart.View, error) {
	var view cart.View
	err := s.carts.With(cartID, func(c *cart.Cart) error {
		if err := fn(c); err != nil {
			return err
		}
		view = c.View()
		return nil
	})
	if err != nil {
		util.CartRejectionsTotal.WithLabelValues(rejectionReason(err)).Inc()
		s.logger.Debug("Cart operation rejected",
			zap.String("cart_id", cartID),
			zap.String("op", op),
			zap.Error(err))
		return cart.View{}, err
	}
	return view, nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, cart.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, cart.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, cart.ErrInvalidDiscount):
		return "invalid_discount"
	case errors.Is(err, cart.ErrInvalidPaymentMethod):
		return "invalid_payment_method"
	case errors.Is(err, cart.ErrItemNotFound):
		return "item_not_found"
	case errors.Is(err, ErrNotFound):
		return "cart_not_found"
	default:
		return "other"
	}
}

// product looks up productID in the live catalog, falling back to the cached one.
func (s *SalesService) product(ctx context.Context, productID string) (*models.Product, error) {
	products, _, err := cachedFetch(ctx, s.cache, s.cacheTTL, s.logger, CacheProducts, s.backend.Products)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	for i := range products {
		if products[i].ID == productID {
			return &products[i], nil
		}
	}
	return nil, fmt.Errorf("product %s: %w", productID, ErrNotFound)
}

// CheckoutResult is the outcome of a completed sale
type CheckoutResult struct {
	Sale    models.Sale          `json:"sale"`
	Receipt cart.View            `json:"receipt"`
	Journal *models.JournalEntry `json:"journal,omitempty"`
}

// Complete submits cart id to the backend. Only after the backend confirms
// is the cart cleared, the sale journaled and announced, and the cart closed.
// A failed submission leaves the cart untouched.
func (s *SalesService) Complete(ctx context.Context, cartID string) (*CheckoutResult, error) {
	ctx, span := util.StartSpan(ctx, "SalesService.Complete", attribute.String("cart_id", cartID))
	defer span.End()

	if s.journal != nil {
		existing, err := s.journal.GetSaleByCartID(ctx, cartID)
		if err != nil {
			s.logger.Warn("Journal lookup failed", zap.String("cart_id", cartID), zap.Error(err))
		} else if existing != nil {
			s.logger.Info("Duplicate checkout detected", zap.String("cart_id", cartID))
			return &CheckoutResult{Sale: models.Sale{ID: existing.SaleID}, Journal: existing}, nil
		}
	}

	var result *CheckoutResult
	err := s.carts.With(cartID, func(c *cart.Cart) error {
		req, err := c.Checkout()
		if err != nil {
			return err
		}

		sale, err := s.backend.CreateSale(ctx, req, cartID)
		if err != nil {
			return fmt.Errorf("failed to record sale: %w", err)
		}

		result = &CheckoutResult{Sale: sale, Receipt: c.View()}
		c.Clear()
		return nil
	})
	if err != nil {
		util.SalesFailedTotal.WithLabelValues(checkoutFailureReason(err)).Inc()
		util.RecordError(span, err)
		return nil, err
	}
	s.carts.Close(cartID)

	util.SalesCompletedTotal.Inc()
	s.logger.Info("Sale completed",
		zap.String("cart_id", cartID),
		zap.String("sale_id", result.Sale.ID),
		zap.String("total", result.Receipt.Totals.Total.StringFixed(2)))

	result.Journal = s.record(ctx, cartID, result)
	s.announce(ctx, cartID, result)
	invalidate(ctx, s.cache, s.logger, append([]string{CacheSales, CacheProducts, CacheDashboard, CacheQuickStats}, ReportCacheNames()...)...)
	return result, nil
}

func checkoutFailureReason(err error) string {
	switch {
	case errors.Is(err, cart.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, ErrNotFound):
		return "cart_not_found"
	default:
		return "backend"
	}
}

func (s *SalesService) record(ctx context.Context, cartID string, result *CheckoutResult) *models.JournalEntry {
	if s.journal == nil {
		return nil
	}

	r := result.Receipt
	entry := &models.JournalEntry{
		CartID:         cartID,
		SaleID:         result.Sale.ID,
		Operator:       session.Operator(ctx),
		PaymentMethod:  r.PaymentMethod,
		Discount:       r.Discount,
		Subtotal:       r.Totals.Subtotal,
		DiscountAmount: r.Totals.DiscountAmount,
		Total:          r.Totals.Total,
		TotalProfit:    r.Totals.TotalProfit,
		TotalItems:     r.Totals.TotalItems,
	}
	for _, it := range r.Items {
		entry.Items = append(entry.Items, models.JournalItem{
			ProductID:   it.ProductID,
			ProductName: it.Name,
			Quantity:    it.Quantity,
			UnitPrice:   it.Price,
			CostPrice:   it.CostPrice,
		})
	}

	if err := s.journal.RecordSale(ctx, entry); err != nil {
		if !errors.Is(err, store.ErrAlreadyRecorded) {
			s.logger.Error("Failed to journal sale", zap.String("cart_id", cartID), zap.Error(err))
		}
		return nil
	}
	return entry
}

func (s *SalesService) announce(ctx context.Context, cartID string, result *CheckoutResult) {
	if s.events == nil {
		return
	}

	r := result.Receipt
	event := &models.SaleCompletedEvent{
		BaseEvent:     broker.NewBaseEvent(models.EventTypeSaleCompleted),
		CartID:        cartID,
		SaleID:        result.Sale.ID,
		Operator:      session.Operator(ctx),
		PaymentMethod: r.PaymentMethod,
		Subtotal:      r.Totals.Subtotal.StringFixed(2),
		Discount:      r.Discount.String(),
		Total:         r.Totals.Total.StringFixed(2),
		TotalProfit:   r.Totals.TotalProfit.StringFixed(2),
	}
	for _, it := range r.Items {
		event.Items = append(event.Items, models.SaleItemData{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.Price.StringFixed(2),
		})
	}

	if err := s.events.PublishSaleCompleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish SaleCompleted event", zap.String("cart_id", cartID), zap.Error(err))
	}
}

// Journal returns the newest locally journaled checkouts.
func (s *SalesService) Journal(ctx context.Context, limit int) ([]models.JournalEntry, error) {
	if s.journal == nil {
		return []models.JournalEntry{}, nil
	}
	entries, err := s.journal.RecentSales(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	return entries, nil
}

// Export downloads the sales export. A custom range needs both dates.
func (s *SalesService) Export(ctx context.Context, format string, q backend.SalesExportQuery) (*backend.File, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	q.ExportType = strings.ToLower(strings.TrimSpace(q.ExportType))
	if q.ExportType == "" {
		q.ExportType = ExportToday
	}

	var v validator
	ext, ok := exportExtensions[format]
	v.check(ok, "format", "Format must be pdf or excel")
	switch q.ExportType {
	case ExportToday, ExportWeek, ExportMonth:
		q.StartDate, q.EndDate = "", ""
	case ExportCustom:
		v.check(q.StartDate != "" && q.EndDate != "", "dateRange", "Please select both start and end dates for custom range")
		start, serr := time.Parse(time.DateOnly, q.StartDate)
		end, eerr := time.Parse(time.DateOnly, q.EndDate)
		if q.StartDate != "" && q.EndDate != "" {
			v.check(serr == nil, "startDate", "Start date must be YYYY-MM-DD")
			v.check(eerr == nil, "endDate", "End date must be YYYY-MM-DD")
			v.check(serr != nil || eerr != nil || !end.Before(start), "dateRange", "End date is before start date")
		}
	default:
		v.check(false, "exportType", "Export type must be today, week, month or custom")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	ctx, span := util.StartSpan(ctx, "SalesService.Export",
		attribute.String("format", format),
		attribute.String("export_type", q.ExportType))
	defer span.End()

	file, err := s.backend.ExportSales(ctx, format, q)
	if err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to export sales: %w", err)
	}
	if file.Name == "" {
		file.Name = fmt.Sprintf("sales-%s-%s.%s", q.ExportType, s.now().Format(time.DateOnly), ext)
	}
	return file, nil
}
