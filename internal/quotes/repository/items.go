package repository

import (
	"context"
	"errors"
	"fmt"

	"linkos_backend/internal/quotes/domain"
	"linkos_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const itemColumns = `id, quote_id, item_type, inventory_id, plan_id, quantity, unit_price, subtotal, created_at`

func scanItem(row rowScanner) (*domain.QuoteItem, error) {
	var it domain.QuoteItem
	var itemType string
	if err := row.Scan(
		&it.ID, &it.QuoteID, &itemType, &it.InventoryID, &it.PlanID,
		&it.Quantity, &it.UnitPrice, &it.Subtotal, &it.CreatedAt,
	); err != nil {
		return nil, err
	}
	it.ItemType = domain.ItemType(itemType)
	return &it, nil
}

// InsertItem persists a new quote item
func (r *Repository) InsertItem(ctx context.Context, it *domain.QuoteItem) error {
	query := `
		INSERT INTO quote_items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		it.ID, it.QuoteID, string(it.ItemType), it.InventoryID, it.PlanID,
		it.Quantity, it.UnitPrice, it.Subtotal, it.CreatedAt,
	)
	if err != nil {
		if isPgError(err, pgForeignKeyViolation) {
			return apperr.NotFound(quoteNotFoundMsg)
		}
		return fmt.Errorf("failed to insert quote item: %w", err)
	}
	return nil
}

// GetItem retrieves a quote item by its ID
func (r *Repository) GetItem(ctx context.Context, id uuid.UUID) (*domain.QuoteItem, error) {
	query := `SELECT ` + itemColumns + ` FROM quote_items WHERE id = $1`
	it, err := scanItem(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(itemNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get quote item: %w", err)
	}
	return it, nil
}

// DeleteItem removes a quote item
func (r *Repository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM quote_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete quote item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(itemNotFoundMsg)
	}
	return nil
}

// ListItems retrieves all items for a quote in insertion order
func (r *Repository) ListItems(ctx context.Context, quoteID uuid.UUID) ([]domain.QuoteItem, error) {
	query := `SELECT ` + itemColumns + ` FROM quote_items WHERE quote_id = $1 ORDER BY created_at ASC, id ASC`

	rows, err := r.db.Query(ctx, query, quoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query quote items: %w", err)
	}
	defer rows.Close()

	var items []domain.QuoteItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote item: %w", err)
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate quote items: %w", err)
	}
	return items, nil
}
