package catalog

import (
	"context"

	"github.com/shopspring/decimal"
)

// Product is owned by the catalog; carts and buy-now slots only ever
// reference it by id or hold an immutable snapshot of it.
//
// Price fields are heterogeneous across sources: imported stock rows
// carry price_inr while seller-entered rows carry price. UnitPrice
// resolves the two, preferring the INR field when present.
type Product struct {
	ID          int             `json:"id"`
	Code        string          `json:"code,omitempty"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	PriceINR    decimal.Decimal `json:"price_inr"`
	Seller      string          `json:"seller,omitempty"`
}

func (p Product) UnitPrice() decimal.Decimal {
	if p.PriceINR.IsPositive() {
		return p.PriceINR
	}
	return p.Price
}

type Store interface {
	Ping(ctx context.Context) error

	// Get resolves any product, main catalog or seller-owned, by id.
	Get(ctx context.Context, id int) (Product, bool, error)
	GetSeller(ctx context.Context, seller string, id int) (Product, bool, error)

	// List returns every product sorted by ascending id.
	List(ctx context.Context) ([]Product, error)
	ListPage(ctx context.Context, page, size int) ([]Product, error)
	Count(ctx context.Context) (int, error)
	ListSeller(ctx context.Context, seller string) ([]Product, error)

	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, id int, description string, price decimal.Decimal) (bool, error)
	Delete(ctx context.Context, id int) (bool, error)
	UpdateSeller(ctx context.Context, seller string, id int, description string, price decimal.Decimal) (bool, error)
	DeleteSeller(ctx context.Context, seller string, id int) (bool, error)
}
