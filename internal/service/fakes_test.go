package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"fashionstock-dashboard/internal/backend"
	"fashionstock-dashboard/internal/models"
	"fashionstock-dashboard/internal/redisclient"
	"fashionstock-dashboard/internal/report"
	"fashionstock-dashboard/internal/store"
)

var errDown = &backend.APIError{Status: 503, Message: "down"}

type fakeBackend struct {
	mu sync.Mutex

	products    []models.Product
	productsErr error
	lowStock    []models.Product
	lowStockErr error
	sales       []models.Sale
	salesErr    error
	users       []models.User
	usersErr    error
	reports     map[report.Kind]string
	reportErr   error
	reportHook  func(kind report.Kind, period string)
	stats       models.QuickStats
	statsErr    error
	mutateErr   error
	saleErr     error
	loginUser   models.User
	loginErr    error
	file        *backend.File
	exportErr   error

	created        []models.ProductInput
	updated        map[string]models.ProductInput
	deleted        []string
	createdUsers   []models.UserInput
	saleRequests   []models.SaleRequest
	saleKeys       []string
	reportCalls    int
	reportExports  []backend.ReportExportRequest
	salesExports   []backend.SalesExportQuery
	exportFormats  []string
}

func (f *fakeBackend) Products(context.Context) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.productsErr != nil {
		return nil, f.productsErr
	}
	return append([]models.Product(nil), f.products...), nil
}

func (f *fakeBackend) LowStockProducts(context.Context) ([]models.Product, error) {
	return f.lowStock, f.lowStockErr
}

func (f *fakeBackend) CreateProduct(_ context.Context, in models.ProductInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return f.mutateErr
	}
	f.created = append(f.created, in)
	f.products = append(f.products, models.Product{ID: "new", Name: in.Name, Category: in.Category,
		Price: in.Price, CostPrice: in.CostPrice, StockQuantity: in.StockQuantity, MinStockLevel: in.MinStockLevel})
	return nil
}

func (f *fakeBackend) UpdateProduct(_ context.Context, id string, in models.ProductInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return f.mutateErr
	}
	if f.updated == nil {
		f.updated = make(map[string]models.ProductInput)
	}
	f.updated[id] = in
	return nil
}

func (f *fakeBackend) DeleteProduct(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return f.mutateErr
	}
	f.deleted = append(f.deleted, id)
	kept := f.products[:0:0]
	for _, p := range f.products {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	f.products = kept
	return nil
}

func (f *fakeBackend) Sales(context.Context) ([]models.Sale, error) {
	return f.sales, f.salesErr
}

func (f *fakeBackend) CreateSale(_ context.Context, in models.SaleRequest, key string) (models.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saleErr != nil {
		return models.Sale{}, f.saleErr
	}
	f.saleRequests = append(f.saleRequests, in)
	f.saleKeys = append(f.saleKeys, key)
	return models.Sale{ID: "sale-1", SaleNumber: "1001"}, nil
}

func (f *fakeBackend) Report(_ context.Context, kind report.Kind, period string) (json.RawMessage, error) {
	f.mu.Lock()
	f.reportCalls++
	hook := f.reportHook
	f.mu.Unlock()
	if hook != nil {
		hook(kind, period)
	}
	if f.reportErr != nil {
		return nil, f.reportErr
	}
	body, ok := f.reports[kind]
	if !ok {
		return nil, errDown
	}
	return json.RawMessage(body), nil
}

func (f *fakeBackend) QuickStats(context.Context) (models.QuickStats, error) {
	return f.stats, f.statsErr
}

func (f *fakeBackend) ExportReport(_ context.Context, format string, in backend.ReportExportRequest) (*backend.File, error) {
	f.exportFormats = append(f.exportFormats, format)
	f.reportExports = append(f.reportExports, in)
	if f.exportErr != nil {
		return nil, f.exportErr
	}
	file := *f.file
	return &file, nil
}

func (f *fakeBackend) ExportSales(_ context.Context, format string, q backend.SalesExportQuery) (*backend.File, error) {
	f.exportFormats = append(f.exportFormats, format)
	f.salesExports = append(f.salesExports, q)
	if f.exportErr != nil {
		return nil, f.exportErr
	}
	file := *f.file
	return &file, nil
}

func (f *fakeBackend) Users(context.Context) ([]models.User, error) {
	return f.users, f.usersErr
}

func (f *fakeBackend) CreateUser(_ context.Context, in models.UserInput) error {
	if f.mutateErr != nil {
		return f.mutateErr
	}
	f.createdUsers = append(f.createdUsers, in)
	f.users = append(f.users, models.User{Name: in.Name, Email: in.Email, Role: in.Role})
	return nil
}

func (f *fakeBackend) Login(_ context.Context, in models.LoginRequest) (models.User, error) {
	if f.loginErr != nil {
		return models.User{}, f.loginErr
	}
	return f.loginUser, nil
}

// memCache is an in-memory SnapshotCache
type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (m *memCache) SetJSON(_ context.Context, name string, v interface{}, _ time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[name] = b
	return nil
}

func (m *memCache) GetJSON(_ context.Context, name string, v interface{}) error {
	m.mu.Lock()
	b, ok := m.data[name]
	m.mu.Unlock()
	if !ok {
		return redisclient.ErrCacheMiss
	}
	return json.Unmarshal(b, v)
}

func (m *memCache) Delete(_ context.Context, names ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range names {
		delete(m.data, n)
		m.deleted = append(m.deleted, n)
	}
	return nil
}

func (m *memCache) has(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[name]
	return ok
}

type fakeJournal struct {
	entries []*models.JournalEntry
	err     error
}

func (j *fakeJournal) RecordSale(_ context.Context, e *models.JournalEntry) error {
	if j.err != nil {
		return j.err
	}
	for _, existing := range j.entries {
		if existing.CartID == e.CartID {
			return store.ErrAlreadyRecorded
		}
	}
	e.ID = int64(len(j.entries) + 1)
	j.entries = append(j.entries, e)
	return nil
}

func (j *fakeJournal) GetSaleByCartID(_ context.Context, cartID string) (*models.JournalEntry, error) {
	for _, e := range j.entries {
		if e.CartID == cartID {
			return e, nil
		}
	}
	return nil, nil
}

func (j *fakeJournal) RecentSales(_ context.Context, limit int) ([]models.JournalEntry, error) {
	out := []models.JournalEntry{}
	for i := len(j.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *j.entries[i])
	}
	return out, nil
}

type fakeEvents struct {
	sales    []*models.SaleCompletedEvent
	products []*models.ProductChangedEvent
	users    []*models.UserCreatedEvent
	err      error
}

func (e *fakeEvents) PublishSaleCompleted(_ context.Context, ev *models.SaleCompletedEvent) error {
	e.sales = append(e.sales, ev)
	return e.err
}

func (e *fakeEvents) PublishProductChanged(_ context.Context, ev *models.ProductChangedEvent) error {
	e.products = append(e.products, ev)
	return e.err
}

func (e *fakeEvents) PublishUserCreated(_ context.Context, ev *models.UserCreatedEvent) error {
	e.users = append(e.users, ev)
	return e.err
}

var errJournalDown = errors.New("journal down")
