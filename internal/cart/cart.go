// Package cart implements the point-of-sale cart: line items, discount and the
// totals derived from them.
package cart

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fashionstock-dashboard/internal/models"

	"github.com/shopspring/decimal"
)

// Payment methods offered at the till
const (
	PaymentCash     = "cash"
	PaymentCard     = "card"
	PaymentTransfer = "transfer"
	PaymentDigital  = "digital"
)

var paymentMethods = []string{PaymentCash, PaymentCard, PaymentTransfer, PaymentDigital}

var (
	ErrInvalidQuantity      = errors.New("quantity must be at least 1")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrItemNotFound         = errors.New("item not in cart")
	ErrInvalidProduct       = errors.New("product has no identifier")
	ErrInvalidDiscount      = errors.New("discount must be between 0 and 100")
	ErrInvalidPaymentMethod = errors.New("unsupported payment method")
	ErrEmptyCart            = errors.New("cart is empty")
)

var hundred = decimal.NewFromInt(100)

// StockError reports a quantity the product cannot cover.
type StockError struct {
	ProductID string
	Available int
	Requested int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("only %d items available in stock for product %s (requested %d)",
		e.Available, e.ProductID, e.Requested)
}

func (e *StockError) Unwrap() error {
	return ErrInsufficientStock
}

// LineItem is one product entry in an in-progress sale
type LineItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
	Price     decimal.Decimal `json:"price"`
	CostPrice decimal.Decimal `json:"costPrice"`
	Quantity  int             `json:"quantity"`
	Stock     int             `json:"stock"`
}

// Total is quantity x price.
func (l LineItem) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Profit is quantity x (price - cost).
func (l LineItem) Profit() decimal.Decimal {
	return l.Price.Sub(l.CostPrice).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Totals are derived from the current cart state on every call
type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	Total          decimal.Decimal `json:"total"`
	TotalProfit    decimal.Decimal `json:"totalProfit"`
	TotalItems     int             `json:"totalItems"`
}

// Cart holds the line items of one sale. It is not safe for concurrent use.
type Cart struct {
	ID            string
	CreatedAt     time.Time
	items         []LineItem
	discount      decimal.Decimal
	paymentMethod string
}

// New creates an empty cart
func New(id string) *Cart {
	return &Cart{
		ID:            id,
		CreatedAt:     time.Now(),
		discount:      decimal.Zero,
		paymentMethod: PaymentCash,
	}
}

// Add puts qty units of p in the cart, merging with an existing line for the
// same product. The merged quantity must not exceed p's current stock.
func (c *Cart) Add(p models.Product, qty int) error {
	if p.ID == "" {
		return ErrInvalidProduct
	}
	if qty < 1 {
		return ErrInvalidQuantity
	}

	idx := c.indexOf(p.ID)
	merged := qty
	if idx >= 0 {
		merged += c.items[idx].Quantity
	}
	if merged > p.StockQuantity {
		return &StockError{ProductID: p.ID, Available: p.StockQuantity, Requested: merged}
	}

	line := LineItem{
		ProductID: p.ID,
		Name:      p.Name,
		Size:      p.Size,
		Color:     p.Color,
		Price:     decimal.NewFromFloat(p.Price),
		CostPrice: decimal.NewFromFloat(p.CostPrice),
		Quantity:  merged,
		Stock:     p.StockQuantity,
	}

	if idx >= 0 {
		c.items[idx] = line
		return nil
	}
	c.items = append(c.items, line)
	return nil
}

// UpdateQuantity sets the quantity of an existing line. stock is the
// product's current stock quantity.
func (c *Cart) UpdateQuantity(productID string, qty, stock int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	idx := c.indexOf(productID)
	if idx < 0 {
		return ErrItemNotFound
	}
	if qty > stock {
		return &StockError{ProductID: productID, Available: stock, Requested: qty}
	}

	c.items[idx].Quantity = qty
	c.items[idx].Stock = stock
	return nil
}

// Remove deletes the line for productID if there is one.
func (c *Cart) Remove(productID string) {
	if idx := c.indexOf(productID); idx >= 0 {
		c.items = append(c.items[:idx], c.items[idx+1:]...)
	}
}

// SetDiscount sets the discount percentage, 0 to 100 inclusive.
func (c *Cart) SetDiscount(pct float64) error {
	if pct < 0 || pct > 100 {
		return ErrInvalidDiscount
	}
	c.discount = decimal.NewFromFloat(pct)
	return nil
}

// SetPaymentMethod selects how the customer pays.
func (c *Cart) SetPaymentMethod(method string) error {
	method = strings.ToLower(strings.TrimSpace(method))
	for _, m := range paymentMethods {
		if m == method {
			c.paymentMethod = method
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, method)
}

// Clear resets items, discount and payment method.
func (c *Cart) Clear() {
	c.items = nil
	c.discount = decimal.Zero
	c.paymentMethod = PaymentCash
}

// Items returns a copy of the line items in insertion order.
func (c *Cart) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Discount() decimal.Decimal {
	return c.discount
}

func (c *Cart) PaymentMethod() string {
	return c.paymentMethod
}

func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// Totals computes subtotal, discount, grand total, profit and item count.
func (c *Cart) Totals() Totals {
	t := Totals{
		Subtotal:    decimal.Zero,
		TotalProfit: decimal.Zero,
	}
	for _, item := range c.items {
		t.Subtotal = t.Subtotal.Add(item.Total())
		t.TotalProfit = t.TotalProfit.Add(item.Profit())
		t.TotalItems += item.Quantity
	}
	t.DiscountAmount = t.Subtotal.Mul(c.discount).Div(hundred)
	t.Total = t.Subtotal.Sub(t.DiscountAmount)
	return t
}

// Checkout builds the submission for the backend: product references and
// quantities only, plus discount and payment method.
func (c *Cart) Checkout() (models.SaleRequest, error) {
	if c.IsEmpty() {
		return models.SaleRequest{}, ErrEmptyCart
	}

	req := models.SaleRequest{
		Items:         make([]models.SaleRequestItem, 0, len(c.items)),
		Discount:      c.discount.InexactFloat64(),
		PaymentMethod: c.paymentMethod,
	}
	for _, item := range c.items {
		req.Items = append(req.Items, models.SaleRequestItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return req, nil
}

// View is the JSON-friendly projection of a cart and its totals
type View struct {
	ID            string          `json:"id"`
	Items         []LineItemView  `json:"items"`
	Discount      decimal.Decimal `json:"discount"`
	PaymentMethod string          `json:"paymentMethod"`
	Totals        Totals          `json:"totals"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// LineItemView adds the computed line total and profit
type LineItemView struct {
	LineItem
	Total  decimal.Decimal `json:"total"`
	Profit decimal.Decimal `json:"profit"`
}

func (c *Cart) View() View {
	v := View{
		ID:            c.ID,
		Items:         make([]LineItemView, 0, len(c.items)),
		Discount:      c.discount,
		PaymentMethod: c.paymentMethod,
		Totals:        c.Totals(),
		CreatedAt:     c.CreatedAt,
	}
	for _, item := range c.items {
		v.Items = append(v.Items, LineItemView{LineItem: item, Total: item.Total(), Profit: item.Profit()})
	}
	return v
}

func (c *Cart) indexOf(productID string) int {
	for i, item := range c.items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}
