package service

import (
	"fmt"
	"sync"
	"time"

	"fashionstock-dashboard/internal/cart"

	"github.com/google/uuid"
)

type cartEntry struct {
	mu      sync.Mutex
	cart    *cart.Cart
	touched time.Time
}

// CartRegistry holds the in-progress carts. Each cart has its own lock so
// operations on different carts never contend.
type CartRegistry struct {
	mu    sync.RWMutex
	carts map[string]*cartEntry
	now   func() time.Time
}

func NewCartRegistry() *CartRegistry {
	return &CartRegistry{carts: make(map[string]*cartEntry), now: time.Now}
}

// Open starts an empty cart
func (r *CartRegistry) Open() string {
	id := uuid.New().String()
	c := cart.New(id)

	r.mu.Lock()
	r.carts[id] = &cartEntry{cart: c, touched: r.now()}
	r.mu.Unlock()
	return id
}

// With runs fn while holding the lock of cart id.
func (r *CartRegistry) With(id string, fn func(*cart.Cart) error) error {
	r.mu.RLock()
	e, ok := r.carts[id]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("cart %s: %w", id, ErrNotFound)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	// a concurrent Close may have won the race for this entry
	if e.cart == nil {
		return fmt.Errorf("cart %s: %w", id, ErrNotFound)
	}
	e.touched = r.now()
	return fn(e.cart)
}

// Close forgets cart id. The caller must not hold its lock.
func (r *CartRegistry) Close(id string) {
	r.mu.Lock()
	e, ok := r.carts[id]
	delete(r.carts, id)
	r.mu.Unlock()

	if ok {
		e.mu.Lock()
		e.cart = nil
		e.mu.Unlock()
	}
}

// Len reports the number of open carts
func (r *CartRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.carts)
}

// Sweep closes carts untouched for longer than maxIdle and returns how many
// were closed. A cart whose lock is held is in use and is skipped.
func (r *CartRegistry) Sweep(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.RLock()
	entries := make(map[string]*cartEntry, len(r.carts))
	for id, e := range r.carts {
		entries[id] = e
	}
	r.mu.RUnlock()

	closed := 0
	for id, e := range entries {
		if !e.mu.TryLock() {
			continue
		}
		stale := e.cart != nil && e.touched.Before(cutoff)
		if stale {
			e.cart = nil
		}
		e.mu.Unlock()
		if !stale {
			continue
		}

		r.mu.Lock()
		if r.carts[id] == e {
			delete(r.carts, id)
		}
		r.mu.Unlock()
		closed++
	}
	return closed
}
