package checkout

import (
	"context"
	"database/sql"
	"time"
)

const queryTimeout = 5 * time.Second

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

var _ OrderStore = (*PostgresStore)(nil)

func (s *PostgresStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Create(ctx context.Context, o Order) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, total, masked_card, ship_name, ship_address, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, o.ID, o.UserID, o.Total, o.MaskedCard, o.ShipName, o.ShipAddress, o.Status, o.CreatedAt)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO order_items (order_id, product_id, description, qty, line_total)
		VALUES ($1, $2, $3, $4, $5)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, it := range o.Items {
		if _, err := stmt.ExecContext(ctx, o.ID, it.ProductID, it.Description, it.Qty, it.LineTotal); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Order, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var o Order
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, total, masked_card, ship_name, ship_address, status, created_at
		FROM orders
		WHERE id = $1
	`, id).Scan(&o.ID, &o.UserID, &o.Total, &o.MaskedCard, &o.ShipName, &o.ShipAddress, &o.Status, &o.CreatedAt)
	if err == sql.ErrNoRows {
		return Order{}, false, nil
	}
	if err != nil {
		return Order{}, false, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, description, qty, line_total
		FROM order_items
		WHERE order_id = $1
		ORDER BY product_id ASC
	`, id)
	if err != nil {
		return Order{}, false, err
	}
	defer rows.Close()

	for rows.Next() {
		var it LineItem
		if err := rows.Scan(&it.ProductID, &it.Description, &it.Qty, &it.LineTotal); err != nil {
			return Order{}, false, err
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return Order{}, false, err
	}

	return o, true, nil
}
