package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"ShopSmart/internal/catalog"
	"ShopSmart/internal/session"
)

// BuyNowSlot is the single-item fast-checkout entry. The product is a
// fully resolved snapshot captured when the buyer hit "buy now", not
// just an id.
type BuyNowSlot struct {
	ProductID int             `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Product   catalog.Product `json:"product"`
}

// SanitizeBuyNow validates a raw session buy-now value. It either
// accepts the slot as-is or rejects it; it never repairs or fabricates
// one. ok is false when the slot is absent or malformed.
func SanitizeBuyNow(raw json.RawMessage) (BuyNowSlot, bool) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return BuyNowSlot{}, false
	}

	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return BuyNowSlot{}, false
	}

	rawID, okID := m["product_id"]
	rawQty, okQty := m["quantity"]
	rawProduct, okProduct := m["product"]
	if !okID || !okQty || !okProduct {
		return BuyNowSlot{}, false
	}

	var slot BuyNowSlot
	if !unmarshalPositiveInt(rawID, &slot.ProductID) {
		return BuyNowSlot{}, false
	}
	if !unmarshalPositiveInt(rawQty, &slot.Quantity) {
		return BuyNowSlot{}, false
	}
	// The snapshot must be an object; "null" would decode cleanly into
	// a zero product otherwise.
	if !bytes.HasPrefix(bytes.TrimSpace(rawProduct), []byte("{")) {
		return BuyNowSlot{}, false
	}
	if err := json.Unmarshal(rawProduct, &slot.Product); err != nil {
		return BuyNowSlot{}, false
	}

	return slot, true
}

func unmarshalPositiveInt(raw json.RawMessage, dst *int) bool {
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return false
	}
	if n <= 0 {
		return false
	}
	*dst = n
	return true
}

// CleanBuyNow reads and validates the session buy-now slot, deleting it
// when malformed. A store failure resets the whole session, same as the
// cart path.
func CleanBuyNow(ctx context.Context, store session.Store, sid string) (BuyNowSlot, bool, error) {
	raw, found, err := store.Get(ctx, sid, BuyNowKey)
	if err != nil {
		_ = store.Clear(ctx, sid)
		return BuyNowSlot{}, false, fmt.Errorf("read buy-now slot: %w", err)
	}
	if !found {
		return BuyNowSlot{}, false, nil
	}

	slot, ok := SanitizeBuyNow(raw)
	if !ok {
		if err := store.Delete(ctx, sid, BuyNowKey); err != nil {
			_ = store.Clear(ctx, sid)
			return BuyNowSlot{}, false, fmt.Errorf("drop buy-now slot: %w", err)
		}
		return BuyNowSlot{}, false, nil
	}

	return slot, true, nil
}
