package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fashionstock-dashboard/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ErrAlreadyRecorded is returned when a cart has been journaled before
var ErrAlreadyRecorded = errors.New("sale already recorded for cart")

const uniqueViolation = "23505"

// RecordSale journals a completed checkout and its lines in one transaction
func (s *Store) RecordSale(ctx context.Context, entry *models.JournalEntry) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO pos_sales (cart_id, sale_id, operator, payment_method, discount,
			subtotal, discount_amount, total, total_profit, total_items)
		VALUES (:cart_id, :sale_id, :operator, :payment_method, :discount,
			:subtotal, :discount_amount, :total, :total_profit, :total_items)
		RETURNING id, created_at`

	stmt, err := tx.PrepareNamedContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare journal insert: %w", err)
	}
	defer stmt.Close()

	if err := stmt.QueryRowxContext(ctx, entry).Scan(&entry.ID, &entry.CreatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrAlreadyRecorded, entry.CartID)
		}
		return fmt.Errorf("failed to insert journal entry: %w", err)
	}

	for i := range entry.Items {
		item := &entry.Items[i]
		item.EntryID = entry.ID
		err := tx.GetContext(ctx, &item.ID, `
			INSERT INTO pos_sale_items (entry_id, product_id, product_name, quantity, unit_price, cost_price)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			item.EntryID, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice, item.CostPrice)
		if err != nil {
			return fmt.Errorf("failed to insert journal item: %w", err)
		}
	}

	return tx.Commit()
}

// GetSaleByCartID returns the journal entry of a cart, or nil when none exists
func (s *Store) GetSaleByCartID(ctx context.Context, cartID string) (*models.JournalEntry, error) {
	var entry models.JournalEntry
	err := s.db.GetContext(ctx, &entry, "SELECT * FROM pos_sales WHERE cart_id = $1", cartID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	entries := []models.JournalEntry{entry}
	if err := s.attachItems(ctx, entries); err != nil {
		return nil, err
	}
	return &entries[0], nil
}

// RecentSales returns the newest journal entries with their lines
func (s *Store) RecentSales(ctx context.Context, limit int) ([]models.JournalEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	var entries []models.JournalEntry
	err := s.db.SelectContext(ctx, &entries,
		"SELECT * FROM pos_sales ORDER BY created_at DESC, id DESC LIMIT $1", limit)
	if err != nil {
		return nil, err
	}
	if err := s.attachItems(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) attachItems(ctx context.Context, entries []models.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}

	ids := make([]int64, len(entries))
	byID := make(map[int64]int, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
		byID[e.ID] = i
	}

	query, args, err := sqlx.In("SELECT * FROM pos_sale_items WHERE entry_id IN (?) ORDER BY id", ids)
	if err != nil {
		return err
	}
	query = s.db.Rebind(query)

	var items []models.JournalItem
	if err := s.db.SelectContext(ctx, &items, query, args...); err != nil {
		return fmt.Errorf("failed to load journal items: %w", err)
	}

	for _, item := range items {
		i := byID[item.EntryID]
		entries[i].Items = append(entries[i].Items, item)
	}
	return nil
}
