package cart

import "sort"

// Session value names. Both sanitizers read and repair these keys; no
// other code touches raw session cart state.
const (
	CartKey   = "cart"
	BuyNowKey = "buy_now_item"
)

// Cart maps product id to quantity. The map itself carries no order;
// all iteration goes through Items so downstream behavior stays
// deterministic.
type Cart map[int]int

type Line struct {
	ProductID int `json:"product_id"`
	Qty       int `json:"qty"`
}

// Items returns the cart lines in ascending product-id order.
func (c Cart) Items() []Line {
	ids := make([]int, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]Line, 0, len(ids))
	for _, id := range ids {
		out = append(out, Line{ProductID: id, Qty: c[id]})
	}
	return out
}

// Count is the total quantity across all lines.
func (c Cart) Count() int {
	n := 0
	for _, qty := range c {
		n += qty
	}
	return n
}
