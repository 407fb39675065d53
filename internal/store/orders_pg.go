package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"kitchen-service/internal/domain"
)

// OrdersPG implements Orders on Postgres. Items live in a JSONB column;
// every mutation is a single statement so Postgres row locking provides the
// atomicity the contract requires.
type OrdersPG struct {
	db *sql.DB
}

func NewOrdersPG(db *sql.DB) *OrdersPG { return &OrdersPG{db: db} }

var _ Orders = (*OrdersPG)(nil)

// Migrate creates the kitchen_orders table if it does not exist yet.
func (s *OrdersPG) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS kitchen_orders (
			id            TEXT PRIMARY KEY,
			customer_name TEXT NOT NULL,
			table_name    TEXT NOT NULL DEFAULT '',
			items         JSONB NOT NULL,
			created_at    TEXT NOT NULL,
			status        TEXT NOT NULL
		)`)
	return err
}

func (s *OrdersPG) Create(ctx context.Context, order domain.KitchenOrder) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO kitchen_orders (id, customer_name, table_name, items, created_at, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`, order.ID, order.CustomerName, order.Table, items, order.CreatedAt, order.Status.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateID, order.ID)
	}
	return nil
}

func (s *OrdersPG) GetAll(ctx context.Context) ([]domain.KitchenOrder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_name, table_name, items, created_at, status
		FROM kitchen_orders
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]domain.KitchenOrder, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (s *OrdersPG) GetByID(ctx context.Context, id string) (domain.KitchenOrder, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, customer_name, table_name, items, created_at, status
		FROM kitchen_orders
		WHERE id = $1
	`, id)
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.KitchenOrder{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return order, err
}

func (s *OrdersPG) UpdateStatus(ctx context.Context, id string, status domain.Status) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE kitchen_orders SET status = $2 WHERE id = $1`,
		id, status.String())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *OrdersPG) Replace(ctx context.Context, order domain.OrderMessage) (bool, error) {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return false, fmt.Errorf("encode items: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE kitchen_orders
		SET customer_name = $2, table_name = $3, items = $4
		WHERE id = $1
	`, order.ID, order.CustomerName, order.Table, items)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *OrdersPG) Remove(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM kitchen_orders WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (domain.KitchenOrder, error) {
	var (
		order  domain.KitchenOrder
		items  []byte
		status string
	)
	if err := row.Scan(&order.ID, &order.CustomerName, &order.Table, &items, &order.CreatedAt, &status); err != nil {
		return domain.KitchenOrder{}, err
	}
	if err := json.Unmarshal(items, &order.Items); err != nil {
		return domain.KitchenOrder{}, fmt.Errorf("decode items: %w", err)
	}
	parsed, err := domain.ParseStatus(status)
	if err != nil {
		return domain.KitchenOrder{}, err
	}
	order.Status = parsed
	return order, nil
}
