package models

import "time"

// Event types
const (
	EventTypeSaleCompleted  = "SALE_COMPLETED"
	EventTypeProductChanged = "PRODUCT_CHANGED"
	EventTypeUserCreated    = "USER_CREATED"
)

// Product change actions
const (
	ProductActionCreated = "created"
	ProductActionUpdated = "updated"
	ProductActionDeleted = "deleted"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// SaleCompletedEvent published after the backend confirms a point-of-sale checkout
type SaleCompletedEvent struct {
	BaseEvent
	CartID        string         `json:"cart_id"`
	SaleID        string         `json:"sale_id,omitempty"`
	Operator      string         `json:"operator,omitempty"`
	PaymentMethod string         `json:"payment_method"`
	Subtotal      string         `json:"subtotal"`
	Discount      string         `json:"discount"`
	Total         string         `json:"total"`
	TotalProfit   string         `json:"total_profit"`
	Items         []SaleItemData `json:"items"`
}

// ProductChangedEvent published after a confirmed product create, update or delete
type ProductChangedEvent struct {
	BaseEvent
	ProductID string `json:"product_id"`
	Action    string `json:"action"`
}

// UserCreatedEvent published after a confirmed user creation
type UserCreatedEvent struct {
	BaseEvent
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// SaleItemData represents a line item in events
type SaleItemData struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}
