package cart

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ShopSmart/internal/catalog"
	"ShopSmart/internal/session"
	"ShopSmart/pkg/kit"
)

const maxBodyBytes = 1 << 20

type Server struct {
	Sessions session.Store
	Catalog  catalog.Store
	Locks    *session.Locker
	Log      *zap.Logger
}

// Register wires the cart routes; the caller mounts them behind both
// the auth and the session middleware.
func (s *Server) Register(r chi.Router) {
	r.Get("/cart", s.view)
	r.Post("/cart/items/{id}", s.add)
	r.Put("/cart/items/{id}", s.update)
	r.Delete("/cart/items/{id}", s.remove)

	r.Post("/buy-now/{id}", s.buyNow)
	r.Get("/buy-now", s.buyNowView)
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	s.Register(r)
	return r
}

type cartItemResp struct {
	Product   catalog.Product `json:"product"`
	Qty       int             `json:"qty"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type cartResp struct {
	Items     []cartItemResp  `json:"items"`
	Total     decimal.Decimal `json:"total"`
	CartCount int             `json:"cart_count"`
}

func (s *Server) view(w http.ResponseWriter, r *http.Request) {
	sid, ok := sidOrFail(w, r)
	if !ok {
		return
	}

	c, err := CleanCart(r.Context(), s.Sessions, sid)
	if err != nil {
		s.logSessionReset(err)
	}

	resp := cartResp{Items: []cartItemResp{}, Total: decimal.Zero, CartCount: c.Count()}
	for _, line := range c.Items() {
		p, found, err := s.Catalog.Get(r.Context(), line.ProductID)
		if err != nil {
			s.storeError(w, r, "resolve cart line failed", err)
			return
		}
		if !found {
			// Stale line; the product is gone. Soft skip.
			continue
		}

		lineTotal := p.UnitPrice().Mul(decimal.NewFromInt(int64(line.Qty)))
		resp.Items = append(resp.Items, cartItemResp{Product: p, Qty: line.Qty, LineTotal: lineTotal})
		resp.Total = resp.Total.Add(lineTotal)
	}

	kit.WriteJSON(w, http.StatusOK, resp)
}

type countResp struct {
	Message   string `json:"message,omitempty"`
	CartCount int    `json:"cart_count"`
}

func (s *Server) add(w http.ResponseWriter, r *http.Request) {
	sid, ok := sidOrFail(w, r)
	if !ok {
		return
	}
	id, ok := parseProductID(w, r)
	if !ok {
		return
	}

	p, found, err := s.Catalog.Get(r.Context(), id)
	if err != nil {
		s.storeError(w, r, "get product failed", err)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "product not found", map[string]any{"id": id})
		return
	}

	unlock := s.Locks.Lock(sid)
	defer unlock()

	c, err := CleanCart(r.Context(), s.Sessions, sid)
	if err != nil {
		s.logSessionReset(err)
	}
	c[id]++

	c, err = SaveCart(r.Context(), s.Sessions, sid, c)
	if err != nil {
		s.logSessionReset(err)
		s.storeError(w, r, "save cart failed", err)
		return
	}

	kit.WriteJSON(w, http.StatusOK, countResp{
		Message:   p.Description + " added to cart",
		CartCount: c.Count(),
	})
}

type updateReq struct {
	Qty int `json:"qty"`
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	sid, ok := sidOrFail(w, r)
	if !ok {
		return
	}
	id, ok := parseProductID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req updateReq
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	unlock := s.Locks.Lock(sid)
	defer unlock()

	c, err := CleanCart(r.Context(), s.Sessions, sid)
	if err != nil {
		s.logSessionReset(err)
	}

	if req.Qty <= 0 {
		delete(c, id)
	} else {
		c[id] = req.Qty
	}

	c, err = SaveCart(r.Context(), s.Sessions, sid, c)
	if err != nil {
		s.logSessionReset(err)
		s.storeError(w, r, "save cart failed", err)
		return
	}

	kit.WriteJSON(w, http.StatusOK, countResp{CartCount: c.Count()})
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	sid, ok := sidOrFail(w, r)
	if !ok {
		return
	}
	id, ok := parseProductID(w, r)
	if !ok {
		return
	}

	unlock := s.Locks.Lock(sid)
	defer unlock()

	c, err := CleanCart(r.Context(), s.Sessions, sid)
	if err != nil {
		s.logSessionReset(err)
	}
	delete(c, id)

	c, err = SaveCart(r.Context(), s.Sessions, sid, c)
	if err != nil {
		s.logSessionReset(err)
		s.storeError(w, r, "save cart failed", err)
		return
	}

	kit.WriteJSON(w, http.StatusOK, countResp{CartCount: c.Count()})
}

type buyNowResp struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
	Total    decimal.Decimal `json:"total"`
}

// buyNow captures a fully resolved product snapshot into the single
// session slot, replacing any previous one.
func (s *Server) buyNow(w http.ResponseWriter, r *http.Request) {
	sid, ok := sidOrFail(w, r)
	if !ok {
		return
	}
	id, ok := parseProductID(w, r)
	if !ok {
		return
	}

	p, found, err := s.Catalog.Get(r.Context(), id)
	if err != nil {
		s.storeError(w, r, "get product failed", err)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "product not found", map[string]any{"id": id})
		return
	}

	slot := BuyNowSlot{ProductID: id, Quantity: 1, Product: p}
	if err := s.Sessions.Set(r.Context(), sid, BuyNowKey, slot); err != nil {
		s.storeError(w, r, "save buy-now slot failed", err)
		return
	}

	kit.WriteJSON(w, http.StatusCreated, buyNowResp{
		Product:  p,
		Quantity: slot.Quantity,
		Total:    p.UnitPrice().Mul(decimal.NewFromInt(int64(slot.Quantity))),
	})
}

func (s *Server) buyNowView(w http.ResponseWriter, r *http.Request) {
	sid, ok := sidOrFail(w, r)
	if !ok {
		return
	}

	slot, found, err := CleanBuyNow(r.Context(), s.Sessions, sid)
	if err != nil {
		s.logSessionReset(err)
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "no buy-now item found", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, buyNowResp{
		Product:  slot.Product,
		Quantity: slot.Quantity,
		Total:    slot.Product.UnitPrice().Mul(decimal.NewFromInt(int64(slot.Quantity))),
	})
}

func sidOrFail(w http.ResponseWriter, r *http.Request) (string, bool) {
	sid, ok := session.SIDFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusInternalServerError, "no session", nil)
		return "", false
	}
	return sid, true
}

func parseProductID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		kit.WriteError(w, r, http.StatusBadRequest, "bad product id", nil)
		return 0, false
	}
	return id, true
}

func (s *Server) logSessionReset(err error) {
	if s.Log != nil {
		s.Log.Warn("session reset after store failure", zap.Error(err))
	}
}

func (s *Server) storeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if s.Log != nil {
		s.Log.Error(msg, zap.Error(err))
	}
	kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
}
