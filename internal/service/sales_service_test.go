package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fashionstock-dashboard/internal/backend"
	"fashionstock-dashboard/internal/cart"
	"fashionstock-dashboard/internal/listview"
	"fashionstock-dashboard/internal/models"
	"fashionstock-dashboard/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type salesFixture struct {
	backend *fakeBackend
	cache   *memCache
	journal *fakeJournal
	events  *fakeEvents
	carts   *CartRegistry
	svc     *SalesService
}

func newSalesFixture() *salesFixture {
	f := &salesFixture{
		backend: &fakeBackend{products: catalog()},
		cache:   newMemCache(),
		journal: &fakeJournal{},
		events:  &fakeEvents{},
		carts:   NewCartRegistry(),
	}
	f.svc = NewSalesService(f.backend, f.cache, f.journal, f.events, f.carts, 0)
	f.svc.now = func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) }
	return f
}

func TestSalesService_History(t *testing.T) {
	f := newSalesFixture()
	f.backend.sales = []models.Sale{
		{ID: "s1", SaleNumber: "1001", Total: 50, CreatedAt: time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)},
		{ID: "s2", SaleNumber: "1002", Total: 120, CreatedAt: time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)},
	}

	view, err := f.svc.History(context.Background(), listview.Query{SortKey: listview.SortNewest})
	require.NoError(t, err)
	assert.Equal(t, "s2", view.Sales[0].ID)
	assert.Equal(t, 2, view.Total)

	view, err = f.svc.History(context.Background(), listview.Query{Category: "2026-04-01"})
	require.NoError(t, err)
	require.Len(t, view.Sales, 1)
	assert.Equal(t, "s1", view.Sales[0].ID)
}

func TestSalesService_AddItemRejectsOverStock(t *testing.T) {
	f := newSalesFixture()
	c := f.svc.OpenCart()

	view, err := f.svc.AddItem(context.Background(), c.ID, "p3", 2)
	require.NoError(t, err)
	assert.Equal(t, "120.00", view.Totals.Subtotal.StringFixed(2))

	_, err = f.svc.AddItem(context.Background(), c.ID, "p3", 9)
	assert.ErrorIs(t, err, cart.ErrInsufficientStock)

	view, err = f.svc.Cart(c.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Quantity)
}

func TestSalesService_AddUnknownProduct(t *testing.T) {
	f := newSalesFixture()
	c := f.svc.OpenCart()

	_, err := f.svc.AddItem(context.Background(), c.ID, "missing", 1)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSalesService_UnknownCart(t *testing.T) {
	f := newSalesFixture()

	_, err := f.svc.SetDiscount("nope", 10)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSalesService_UpdateItem(t *testing.T) {
	f := newSalesFixture()
	c := f.svc.OpenCart()
	_, err := f.svc.AddItem(context.Background(), c.ID, "p2", 1)
	require.NoError(t, err)

	view, err := f.svc.UpdateItem(context.Background(), c.ID, "p2", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, view.Totals.TotalItems)

	_, err = f.svc.UpdateItem(context.Background(), c.ID, "p2", 4)
	assert.ErrorIs(t, err, cart.ErrInsufficientStock)

	_, err = f.svc.UpdateItem(context.Background(), c.ID, "p2", 0)
	assert.ErrorIs(t, err, cart.ErrInvalidQuantity)

	view, err = f.svc.RemoveItem(c.ID, "p2")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestSalesService_Complete(t *testing.T) {
	f := newSalesFixture()
	ctx := session.WithSession(context.Background(), session.Session{Email: "clerk@shop.io", Role: "staff"})
	require.NoError(t, f.cache.SetJSON(ctx, CacheDashboard, "stale", 0))

	c := f.svc.OpenCart()
	_, err := f.svc.AddItem(ctx, c.ID, "p3", 2)
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, c.ID, "p2", 1)
	require.NoError(t, err)
	_, err = f.svc.SetDiscount(c.ID, 10)
	require.NoError(t, err)
	_, err = f.svc.SetPaymentMethod(c.ID, "card")
	require.NoError(t, err)

	res, err := f.svc.Complete(ctx, c.ID)
	require.NoError(t, err)

	assert.Equal(t, "sale-1", res.Sale.ID)
	assert.Equal(t, "200.00", res.Receipt.Totals.Subtotal.StringFixed(2))
	assert.Equal(t, "180.00", res.Receipt.Totals.Total.StringFixed(2))

	require.Len(t, f.backend.saleRequests, 1)
	req := f.backend.saleRequests[0]
	assert.Equal(t, []models.SaleRequestItem{{ProductID: "p3", Quantity: 2}, {ProductID: "p2", Quantity: 1}}, req.Items)
	assert.Equal(t, 10.0, req.Discount)
	assert.Equal(t, "card", req.PaymentMethod)
	assert.Equal(t, []string{c.ID}, f.backend.saleKeys)

	require.NotNil(t, res.Journal)
	assert.Equal(t, "clerk@shop.io", res.Journal.Operator)
	assert.Len(t, res.Journal.Items, 2)

	require.Len(t, f.events.sales, 1)
	assert.Equal(t, "180.00", f.events.sales[0].Total)
	assert.Equal(t, "clerk@shop.io", f.events.sales[0].Operator)

	assert.False(t, f.cache.has(CacheDashboard))
	assert.Contains(t, f.cache.deleted, CacheQuickStats)

	_, err = f.svc.Cart(c.ID)
	assert.ErrorIs(t, err, ErrNotFound, "completed carts are closed")
	assert.Zero(t, f.carts.Len())
}

func TestSalesService_CompleteFailureKeepsCart(t *testing.T) {
	f := newSalesFixture()
	f.backend.saleErr = errDown

	c := f.svc.OpenCart()
	_, err := f.svc.AddItem(context.Background(), c.ID, "p3", 1)
	require.NoError(t, err)

	_, err = f.svc.Complete(context.Background(), c.ID)
	assert.ErrorIs(t, err, errDown)

	view, err := f.svc.Cart(c.ID)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)
	assert.Empty(t, f.journal.entries)
	assert.Empty(t, f.events.sales)
}

func TestSalesService_CompleteEmptyCart(t *testing.T) {
	f := newSalesFixture()
	c := f.svc.OpenCart()

	_, err := f.svc.Complete(context.Background(), c.ID)

	assert.ErrorIs(t, err, cart.ErrEmptyCart)
	assert.Empty(t, f.backend.saleRequests)
}

func TestSalesService_CompleteIsIdempotent(t *testing.T) {
	f := newSalesFixture()
	c := f.svc.OpenCart()
	_, err := f.svc.AddItem(context.Background(), c.ID, "p3", 1)
	require.NoError(t, err)

	first, err := f.svc.Complete(context.Background(), c.ID)
	require.NoError(t, err)

	second, err := f.svc.Complete(context.Background(), c.ID)
	require.NoError(t, err)

	assert.Len(t, f.backend.saleRequests, 1)
	assert.Equal(t, first.Sale.ID, second.Sale.ID)
	assert.Equal(t, first.Journal.ID, second.Journal.ID)
}

func TestSalesService_CompleteWithoutJournal(t *testing.T) {
	f := newSalesFixture()
	f.svc = NewSalesService(f.backend, nil, nil, nil, f.carts, 0)
	c := f.svc.OpenCart()
	_, err := f.svc.AddItem(context.Background(), c.ID, "p1", 1)
	assert.ErrorIs(t, err, cart.ErrInsufficientStock, "p1 is out of stock")
	_, err = f.svc.AddItem(context.Background(), c.ID, "p2", 1)
	require.NoError(t, err)

	res, err := f.svc.Complete(context.Background(), c.ID)

	require.NoError(t, err)
	assert.Nil(t, res.Journal)
}

func TestSalesService_Journal(t *testing.T) {
	f := newSalesFixture()
	f.journal.entries = []*models.JournalEntry{{ID: 1, CartID: "a"}, {ID: 2, CartID: "b"}}

	entries, err := f.svc.Journal(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b", entries[0].CartID)
}

func TestSalesService_Export(t *testing.T) {
	f := newSalesFixture()
	f.backend.file = &backend.File{Data: []byte("xlsx")}

	file, err := f.svc.Export(context.Background(), "excel", backend.SalesExportQuery{StartDate: "2026-01-01"})

	require.NoError(t, err)
	assert.Equal(t, "sales-today-2026-05-01.xlsx", file.Name)
	require.Len(t, f.backend.salesExports, 1)
	assert.Equal(t, backend.SalesExportQuery{ExportType: ExportToday}, f.backend.salesExports[0])
}

func TestSalesService_ExportCustomRange(t *testing.T) {
	f := newSalesFixture()
	f.backend.file = &backend.File{Name: "range.pdf"}

	q := backend.SalesExportQuery{ExportType: "custom", StartDate: "2026-01-01", EndDate: "2026-01-31"}
	file, err := f.svc.Export(context.Background(), "pdf", q)

	require.NoError(t, err)
	assert.Equal(t, "range.pdf", file.Name)
	assert.Equal(t, q, f.backend.salesExports[0])
}

func TestSalesService_ExportValidation(t *testing.T) {
	tests := []struct {
		name   string
		format string
		q      backend.SalesExportQuery
		field  string
	}{
		{"unknown format", "csv", backend.SalesExportQuery{}, "format"},
		{"unknown range", "pdf", backend.SalesExportQuery{ExportType: "year"}, "exportType"},
		{"custom missing end", "pdf", backend.SalesExportQuery{ExportType: ExportCustom, StartDate: "2026-01-01"}, "dateRange"},
		{"custom reversed", "pdf", backend.SalesExportQuery{ExportType: ExportCustom, StartDate: "2026-02-01", EndDate: "2026-01-01"}, "dateRange"},
		{"custom malformed", "pdf", backend.SalesExportQuery{ExportType: ExportCustom, StartDate: "01/02/2026", EndDate: "2026-01-01"}, "startDate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSalesFixture()
			f.backend.file = &backend.File{}

			_, err := f.svc.Export(context.Background(), tt.format, tt.q)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Fields, tt.field)
			assert.Empty(t, f.backend.salesExports)
		})
	}
}
