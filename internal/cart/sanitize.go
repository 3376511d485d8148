package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"ShopSmart/internal/session"
)

// SanitizeCart normalizes raw session cart data of unknown shape into a
// well-typed Cart. Individual malformed entries are dropped, never
// fatal: a key or value survives only if it coerces to a positive
// integer. Entries are walked in document order, so when two stored
// keys coerce to the same id ("2" and "02") the later one wins,
// deterministically. The returned changed flag reports whether the
// cleaned cart differs from the stored form, so callers write back only
// on change — sanitizing twice in a row yields the same cart and no
// second write.
func SanitizeCart(raw json.RawMessage) (Cart, bool) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Cart{}, true
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		// Not a mapping at all: discard wholesale.
		return Cart{}, true
	}

	clean := Cart{}
	changed := false
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Cart{}, true
		}
		k, _ := keyTok.(string)

		var v any
		if err := dec.Decode(&v); err != nil {
			return Cart{}, true
		}

		id, okKey := coerceInt(k)
		qty, okVal := coerceValue(v)
		if !okKey || id <= 0 || !okVal || qty <= 0 {
			changed = true
			continue
		}

		// The stored entry is only clean in its canonical form: the key
		// text is the id's decimal spelling ("02" is not) and the value
		// is a plain number.
		if k != strconv.Itoa(id) {
			changed = true
		}
		if _, isNum := v.(json.Number); !isNum {
			changed = true
		}
		if _, dup := clean[id]; dup {
			changed = true
		}
		clean[id] = qty
	}
	if _, err := dec.Token(); err != nil { // closing brace
		return Cart{}, true
	}
	if _, err := dec.Token(); err != io.EOF { // trailing data
		return Cart{}, true
	}

	return clean, changed
}

func coerceInt(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// coerceValue converts a decoded JSON value to an int. Strings and
// integral numbers coerce; null, floats, booleans and nested structures
// do not.
func coerceValue(v any) (int, bool) {
	switch t := v.(type) {
	case json.Number:
		return coerceInt(t.String())
	case string:
		return coerceInt(t)
	default:
		return 0, false
	}
}

// CleanCart reads, sanitizes and repairs the session cart. A store
// failure is catastrophic: the whole session is reset (cart and buy-now
// slot both), the user sees an emptied cart and the error is returned
// for logging.
func CleanCart(ctx context.Context, store session.Store, sid string) (Cart, error) {
	raw, ok, err := store.Get(ctx, sid, CartKey)
	if err != nil {
		_ = store.Clear(ctx, sid)
		return Cart{}, fmt.Errorf("read session cart: %w", err)
	}
	if !ok {
		raw = nil
	}

	c, changed := SanitizeCart(raw)
	if changed {
		if err := store.Set(ctx, sid, CartKey, c); err != nil {
			_ = store.Clear(ctx, sid)
			return Cart{}, fmt.Errorf("write session cart: %w", err)
		}
	}
	return c, nil
}

// SaveCart sanitizes an updated cart and persists the cleaned form.
func SaveCart(ctx context.Context, store session.Store, sid string, c Cart) (Cart, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return Cart{}, err
	}
	clean, _ := SanitizeCart(b)
	if err := store.Set(ctx, sid, CartKey, clean); err != nil {
		_ = store.Clear(ctx, sid)
		return Cart{}, fmt.Errorf("write session cart: %w", err)
	}
	return clean, nil
}
