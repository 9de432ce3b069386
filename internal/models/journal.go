package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalEntry is a point-of-sale checkout recorded locally once the backend
// has confirmed it, with the totals the dashboard computed
type JournalEntry struct {
	ID             int64           `db:"id" json:"id"`
	CartID         string          `db:"cart_id" json:"cartId"`
	SaleID         string          `db:"sale_id" json:"saleId"`
	Operator       string          `db:"operator" json:"operator"`
	PaymentMethod  string          `db:"payment_method" json:"paymentMethod"`
	Discount       decimal.Decimal `db:"discount" json:"discount"`
	Subtotal       decimal.Decimal `db:"subtotal" json:"subtotal"`
	DiscountAmount decimal.Decimal `db:"discount_amount" json:"discountAmount"`
	Total          decimal.Decimal `db:"total" json:"total"`
	TotalProfit    decimal.Decimal `db:"total_profit" json:"totalProfit"`
	TotalItems     int             `db:"total_items" json:"totalItems"`
	CreatedAt      time.Time       `db:"created_at" json:"createdAt"`
	Items          []JournalItem   `db:"-" json:"items"`
}

// JournalItem is one line of a journal entry
type JournalItem struct {
	ID          int64           `db:"id" json:"-"`
	EntryID     int64           `db:"entry_id" json:"-"`
	ProductID   string          `db:"product_id" json:"productId"`
	ProductName string          `db:"product_name" json:"productName"`
	Quantity    int             `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unitPrice"`
	CostPrice   decimal.Decimal `db:"cost_price" json:"costPrice"`
}
