package catalog

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

var _ Store = (*PostgresStore)(nil)

const productCols = `id, code, description, price, price_inr, seller`

func scanProduct(row interface{ Scan(...any) error }) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Code, &p.Description, &p.Price, &p.PriceINR, &p.Seller)
	return p, err
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresStore) Get(ctx context.Context, id int) (Product, bool, error) {
	var p Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		var e error
		p, e = scanProduct(s.db.QueryRowContext(ctx, `
			SELECT `+productCols+`
			FROM products
			WHERE id = $1
		`, id))
		return e
	})

	if err == sql.ErrNoRows {
		return Product{}, false, nil
	}
	if err != nil {
		return Product{}, false, err
	}
	return p, true, nil
}

func (s *PostgresStore) GetSeller(ctx context.Context, seller string, id int) (Product, bool, error) {
	var p Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		var e error
		p, e = scanProduct(s.db.QueryRowContext(ctx, `
			SELECT `+productCols+`
			FROM products
			WHERE id = $1 AND seller = $2
		`, id, seller))
		return e
	})

	if err == sql.ErrNoRows {
		return Product{}, false, nil
	}
	if err != nil {
		return Product{}, false, err
	}
	return p, true, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Product, error) {
	return s.queryList(ctx, `
		SELECT `+productCols+`
		FROM products
		ORDER BY id ASC
	`)
}

func (s *PostgresStore) ListPage(ctx context.Context, page, size int) ([]Product, error) {
	offset := (page - 1) * size
	return s.queryList(ctx, `
		SELECT `+productCols+`
		FROM products
		ORDER BY id ASC
		LIMIT $1 OFFSET $2
	`, size, offset)
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n)
	})
	return n, err
}

func (s *PostgresStore) ListSeller(ctx context.Context, seller string) ([]Product, error) {
	return s.queryList(ctx, `
		SELECT `+productCols+`
		FROM products
		WHERE seller = $1
		ORDER BY id ASC
	`, seller)
}

func (s *PostgresStore) Create(ctx context.Context, p Product) (Product, error) {
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			INSERT INTO products (code, description, price, price_inr, seller)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, p.Code, p.Description, p.Price, p.PriceINR, p.Seller).Scan(&p.ID)
	})
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (s *PostgresStore) Update(ctx context.Context, id int, description string, price decimal.Decimal) (bool, error) {
	return s.exec(ctx, `
		UPDATE products
		SET description = $2, price = $3, price_inr = 0
		WHERE id = $1
	`, id, description, price)
}

func (s *PostgresStore) Delete(ctx context.Context, id int) (bool, error) {
	return s.exec(ctx, `DELETE FROM products WHERE id = $1`, id)
}

func (s *PostgresStore) UpdateSeller(ctx context.Context, seller string, id int, description string, price decimal.Decimal) (bool, error) {
	return s.exec(ctx, `
		UPDATE products
		SET description = $3, price = $4, price_inr = 0
		WHERE id = $1 AND seller = $2
	`, id, seller, description, price)
}

func (s *PostgresStore) DeleteSeller(ctx context.Context, seller string, id int) (bool, error) {
	return s.exec(ctx, `DELETE FROM products WHERE id = $1 AND seller = $2`, id, seller)
}

func (s *PostgresStore) queryList(ctx context.Context, q string, args ...any) ([]Product, error) {
	var out []Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Product, 0, 16)
		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) exec(ctx context.Context, q string, args ...any) (bool, error) {
	var n int64

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, q, args...)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})

	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
