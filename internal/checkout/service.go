package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ShopSmart/internal/cart"
	"ShopSmart/internal/catalog"
	"ShopSmart/internal/session"
)

var (
	ErrEmptyCart = errors.New("your cart is empty")
	ErrNoBuyNow  = errors.New("no buy-now item found")
	ErrBadMode   = errors.New("unknown checkout type")
)

const (
	ModeQuick  = "quick"
	ModeNormal = "normal"
)

type Service struct {
	Sessions session.Store
	Catalog  catalog.Store
	Orders   OrderStore
	Log      *zap.Logger
}

// Checkout validates the form against the current cart and buy-now
// slot and, on success, produces and persists an order. Cart lines
// whose product no longer resolves are skipped, not fatal. The full
// checkout path consumes both the cart and the buy-now slot.
func (s *Service) Checkout(ctx context.Context, sid, userID string, f Form) (Order, error) {
	c, err := cart.CleanCart(ctx, s.Sessions, sid)
	if err != nil {
		s.warnReset(err)
	}
	slot, hasSlot, err := cart.CleanBuyNow(ctx, s.Sessions, sid)
	if err != nil {
		s.warnReset(err)
	}

	if len(c) == 0 && !hasSlot {
		return Order{}, ErrEmptyCart
	}

	f = f.Trimmed()
	if errs := ValidateForm(f); len(errs) > 0 {
		return Order{}, errs
	}

	o := Order{
		ID:          "o_" + uuid.NewString(),
		UserID:      userID,
		Total:       decimal.Zero,
		MaskedCard:  MaskCard(f.CardNumber),
		ShipName:    f.Name,
		ShipAddress: f.Address,
		Status:      StatusPlaced,
		CreatedAt:   time.Now().UTC(),
	}

	items, total, err := s.resolveLines(ctx, c)
	if err != nil {
		return Order{}, err
	}
	o.Items = items
	o.Total = total

	if hasSlot {
		line := snapshotLine(slot)
		o.Items = append(o.Items, line)
		o.Total = o.Total.Add(line.LineTotal)
	}

	if err := s.Orders.Create(ctx, o); err != nil {
		return Order{}, err
	}

	// Consume the session state only after the order is durable.
	if err := s.Sessions.Delete(ctx, sid, cart.CartKey); err != nil {
		s.warnReset(err)
	}
	if err := s.Sessions.Delete(ctx, sid, cart.BuyNowKey); err != nil {
		s.warnReset(err)
	}

	return o, nil
}

// BuyNowCheckout runs the single-item fast path. Quick mode trusts the
// captured snapshot and skips field validation entirely; normal mode
// validates like a full checkout. Either way only the buy-now slot is
// consumed — the multi-item cart survives untouched.
func (s *Service) BuyNowCheckout(ctx context.Context, sid, userID, mode string, f Form) (Order, error) {
	if mode == "" {
		mode = ModeQuick
	}
	if mode != ModeQuick && mode != ModeNormal {
		return Order{}, ErrBadMode
	}

	slot, hasSlot, err := cart.CleanBuyNow(ctx, s.Sessions, sid)
	if err != nil {
		s.warnReset(err)
	}
	if !hasSlot {
		return Order{}, ErrNoBuyNow
	}

	line := snapshotLine(slot)
	o := Order{
		ID:        "o_" + uuid.NewString(),
		UserID:    userID,
		Items:     []LineItem{line},
		Total:     line.LineTotal,
		Status:    StatusQuickPurchase,
		CreatedAt: time.Now().UTC(),
	}

	if mode == ModeNormal {
		f = f.Trimmed()
		if errs := ValidateForm(f); len(errs) > 0 {
			return Order{}, errs
		}
		o.MaskedCard = MaskCard(f.CardNumber)
		o.ShipName = f.Name
		o.ShipAddress = f.Address
		o.Status = StatusPlaced
	}

	if err := s.Orders.Create(ctx, o); err != nil {
		return Order{}, err
	}

	if err := s.Sessions.Delete(ctx, sid, cart.BuyNowKey); err != nil {
		s.warnReset(err)
	}

	return o, nil
}

func (s *Service) resolveLines(ctx context.Context, c cart.Cart) ([]LineItem, decimal.Decimal, error) {
	items := make([]LineItem, 0, len(c))
	total := decimal.Zero

	for _, line := range c.Items() {
		p, found, err := s.Catalog.Get(ctx, line.ProductID)
		if err != nil {
			return nil, decimal.Zero, err
		}
		if !found {
			if s.Log != nil {
				s.Log.Warn("cart line no longer resolves, skipping",
					zap.Int("product_id", line.ProductID))
			}
			continue
		}

		lineTotal := p.UnitPrice().Mul(decimal.NewFromInt(int64(line.Qty)))
		items = append(items, LineItem{
			ProductID:   p.ID,
			Description: p.Description,
			Qty:         line.Qty,
			LineTotal:   lineTotal,
		})
		total = total.Add(lineTotal)
	}

	return items, total, nil
}

func snapshotLine(slot cart.BuyNowSlot) LineItem {
	return LineItem{
		ProductID:   slot.ProductID,
		Description: slot.Product.Description,
		Qty:         slot.Quantity,
		LineTotal:   slot.Product.UnitPrice().Mul(decimal.NewFromInt(int64(slot.Quantity))),
	}
}

func (s *Service) warnReset(err error) {
	if s.Log != nil {
		s.Log.Warn("session store failure during checkout", zap.Error(err))
	}
}
