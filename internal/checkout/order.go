package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type LineItem struct {
	ProductID   int             `json:"product_id"`
	Description string          `json:"description"`
	Qty         int             `json:"qty"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// Order is the accepted result of a checkout. The card number never
// survives past validation; only the masked form is kept.
type Order struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Items       []LineItem      `json:"items"`
	Total       decimal.Decimal `json:"total"`
	MaskedCard  string          `json:"masked_card,omitempty"`
	ShipName    string          `json:"ship_name,omitempty"`
	ShipAddress string          `json:"ship_address,omitempty"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Summary renders the human-readable confirmation line.
func (o Order) Summary() string {
	items := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, fmt.Sprintf("%s x%d", it.Description, it.Qty))
	}

	s := "Checkout completed successfully!"
	if o.Status == StatusQuickPurchase {
		s = "Quick purchase completed successfully!"
	}
	if len(items) > 0 {
		s += " Items: " + strings.Join(items, ", ")
	}
	s += " Total: " + o.Total.StringFixed(2)
	return s
}

const (
	StatusPlaced        = "PLACED"
	StatusQuickPurchase = "QUICK"
)

type OrderStore interface {
	Create(ctx context.Context, o Order) error
	Get(ctx context.Context, id string) (Order, bool, error)
	Ping(ctx context.Context) error
}
