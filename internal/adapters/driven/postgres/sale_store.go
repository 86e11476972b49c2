package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/saron-retail/saron-core/internal/core/domain"
	"github.com/saron-retail/saron-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SaleStore = (*SaleStore)(nil)

// SaleStore implements driven.SaleStore using PostgreSQL.
type SaleStore struct {
	db *DB
}

// NewSaleStore creates a new SaleStore
func NewSaleStore(db *DB) *SaleStore {
	return &SaleStore{db: db}
}

// DeleteSalesByPeriod removes every sale of the store dated inside the window.
// Items go with their sale through ON DELETE CASCADE.
func (s *SaleStore) DeleteSalesByPeriod(ctx context.Context, store domain.StoreID, window domain.DateWindow) (int64, error) {
	from, until := window.Bounds()

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM sales
		WHERE store_id = $1 AND sale_date >= $2 AND sale_date < $3
	`, store, from, until)
	if err != nil {
		return 0, fmt.Errorf("delete sales: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return rows, nil
}

// CreateSaleWithItems inserts the sale and its items in one transaction.
func (s *SaleStore) CreateSaleWithItems(ctx context.Context, sale *domain.Sale, items []domain.SaleItem) (*domain.Sale, error) {
	created := *sale
	if created.ID == uuid.Nil {
		created.ID = uuid.New()
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now()
	}
	created.Items = make([]domain.SaleItem, len(items))

	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sales (
				id, sale_code, sale_date, total_value, seller_name,
				client_name, store_id, status, payment_method, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`,
			created.ID,
			created.SaleCode,
			created.SaleDate,
			created.TotalValue,
			created.SellerName,
			created.ClientName,
			created.StoreID,
			created.Status,
			created.PaymentMethod,
			created.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert sale %s: %w", created.SaleCode, err)
		}

		if len(items) == 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO sale_items (
				id, sale_id, product_code, description, quantity, unit_price, total_price
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
		`)
		if err != nil {
			return fmt.Errorf("prepare item insert: %w", err)
		}
		defer stmt.Close()

		for i, item := range items {
			if item.ID == uuid.Nil {
				item.ID = uuid.New()
			}
			item.SaleID = created.ID
			if _, err := stmt.ExecContext(ctx,
				item.ID,
				item.SaleID,
				item.ProductCode,
				item.Description,
				item.Quantity,
				item.UnitPrice,
				item.TotalPrice,
			); err != nil {
				return fmt.Errorf("insert item %d of sale %s: %w", i, created.SaleCode, err)
			}
			created.Items[i] = item
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &created, nil
}

// ListSales returns sales newest first, with their items.
func (s *SaleStore) ListSales(ctx context.Context, filter domain.SaleFilter) ([]*domain.Sale, error) {
	query := `
		SELECT id, sale_code, sale_date, total_value, seller_name,
			   client_name, store_id, status, payment_method, created_at
		FROM sales
		WHERE store_id = $1
	`
	args := []any{filter.Store}
	argIndex := 2

	if filter.Window != nil {
		from, until := filter.Window.Bounds()
		query += fmt.Sprintf(" AND sale_date >= $%d AND sale_date < $%d", argIndex, argIndex+1)
		args = append(args, from, until)
		argIndex += 2
	}

	query += " ORDER BY sale_date DESC, sale_code ASC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filter.Limit)
		argIndex++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sales: %w", err)
	}
	defer rows.Close()

	var sales []*domain.Sale
	byID := make(map[uuid.UUID]*domain.Sale)
	for rows.Next() {
		var sale domain.Sale
		if err := rows.Scan(
			&sale.ID,
			&sale.SaleCode,
			&sale.SaleDate,
			&sale.TotalValue,
			&sale.SellerName,
			&sale.ClientName,
			&sale.StoreID,
			&sale.Status,
			&sale.PaymentMethod,
			&sale.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, &sale)
		byID[sale.ID] = &sale
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales: %w", err)
	}

	if len(sales) == 0 {
		return sales, nil
	}
	if err := s.attachItems(ctx, byID); err != nil {
		return nil, err
	}
	return sales, nil
}

func (s *SaleStore) attachItems(ctx context.Context, byID map[uuid.UUID]*domain.Sale) error {
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id.String())
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sale_id, product_code, description, quantity, unit_price, total_price
		FROM sale_items
		WHERE sale_id = ANY($1::uuid[])
		ORDER BY sale_id, product_code
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("query sale items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.SaleItem
		if err := rows.Scan(
			&item.ID,
			&item.SaleID,
			&item.ProductCode,
			&item.Description,
			&item.Quantity,
			&item.UnitPrice,
			&item.TotalPrice,
		); err != nil {
			return fmt.Errorf("scan sale item: %w", err)
		}
		if sale, ok := byID[item.SaleID]; ok {
			sale.Items = append(sale.Items, item)
		}
	}
	return rows.Err()
}

// CountSales counts the store's sales dated inside the window.
func (s *SaleStore) CountSales(ctx context.Context, store domain.StoreID, window domain.DateWindow) (int, error) {
	from, until := window.Bounds()

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sales
		WHERE store_id = $1 AND sale_date >= $2 AND sale_date < $3
	`, store, from, until).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count sales: %w", err)
	}
	return count, nil
}
