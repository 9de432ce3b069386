package service

import (
	"context"
	"encoding/json"
	"time"

	"fashionstock-dashboard/internal/backend"
	"fashionstock-dashboard/internal/models"
	"fashionstock-dashboard/internal/report"
)

// ProductBackend is the catalog surface of the backend
type ProductBackend interface {
	Products(ctx context.Context) ([]models.Product, error)
	LowStockProducts(ctx context.Context) ([]models.Product, error)
	CreateProduct(ctx context.Context, in models.ProductInput) error
	UpdateProduct(ctx context.Context, id string, in models.ProductInput) error
	DeleteProduct(ctx context.Context, id string) error
}

// SalesBackend is the sales surface of the backend
type SalesBackend interface {
	Products(ctx context.Context) ([]models.Product, error)
	Sales(ctx context.Context) ([]models.Sale, error)
	CreateSale(ctx context.Context, in models.SaleRequest, idempotencyKey string) (models.Sale, error)
	ExportSales(ctx context.Context, format string, q backend.SalesExportQuery) (*backend.File, error)
}

// ReportBackend is the reporting surface of the backend
type ReportBackend interface {
	Report(ctx context.Context, kind report.Kind, period string) (json.RawMessage, error)
	QuickStats(ctx context.Context) (models.QuickStats, error)
	ExportReport(ctx context.Context, format string, in backend.ReportExportRequest) (*backend.File, error)
}

// DashboardBackend is what the dashboard summary reads
type DashboardBackend interface {
	Report(ctx context.Context, kind report.Kind, period string) (json.RawMessage, error)
	Products(ctx context.Context) ([]models.Product, error)
	Sales(ctx context.Context) ([]models.Sale, error)
}

// UserBackend is the account surface of the backend
type UserBackend interface {
	Users(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, in models.UserInput) error
}

// AuthBackend establishes sessions
type AuthBackend interface {
	Login(ctx context.Context, in models.LoginRequest) (models.User, error)
}

// SnapshotCache stores the last good value of each list and report
type SnapshotCache interface {
	SetJSON(ctx context.Context, name string, v interface{}, ttl time.Duration) error
	GetJSON(ctx context.Context, name string, v interface{}) error
	Delete(ctx context.Context, names ...string) error
}

// SaleJournal records confirmed checkouts
type SaleJournal interface {
	RecordSale(ctx context.Context, entry *models.JournalEntry) error
	GetSaleByCartID(ctx context.Context, cartID string) (*models.JournalEntry, error)
	RecentSales(ctx context.Context, limit int) ([]models.JournalEntry, error)
}

// EventPublisher announces confirmed mutations
type EventPublisher interface {
	PublishSaleCompleted(ctx context.Context, event *models.SaleCompletedEvent) error
	PublishProductChanged(ctx context.Context, event *models.ProductChangedEvent) error
	PublishUserCreated(ctx context.Context, event *models.UserCreatedEvent) error
}
