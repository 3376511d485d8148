package checkout

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ShopSmart/internal/auth"
	"ShopSmart/internal/session"
	"ShopSmart/pkg/kit"
)

const maxCheckoutBody = 1 << 20

type Server struct {
	Svc   *Service
	Locks *session.Locker
	Log   *zap.Logger
}

// Register wires the checkout routes; the caller mounts them behind
// both the auth and the session middleware.
func (s *Server) Register(r chi.Router) {
	r.Post("/checkout", s.checkout)
	r.Post("/buy-now/checkout", s.buyNowCheckout)
	r.Get("/orders/{id}", s.getOrder)
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	s.Register(r)
	return r
}

type orderResp struct {
	Order   Order  `json:"order"`
	Message string `json:"message"`
}

func (s *Server) checkout(w http.ResponseWriter, r *http.Request) {
	u, sid, ok := callerOrFail(w, r)
	if !ok {
		return
	}

	var f Form
	if !decodeBody(w, r, &f) {
		return
	}

	unlock := s.Locks.Lock(sid)
	defer unlock()

	o, err := s.Svc.Checkout(r.Context(), sid, u.ID, f)
	if err != nil {
		s.writeCheckoutError(w, r, err)
		return
	}

	kit.WriteJSON(w, http.StatusCreated, orderResp{Order: o, Message: o.Summary()})
}

type buyNowCheckoutReq struct {
	CheckoutType string `json:"checkout_type"`
	Form
}

func (s *Server) buyNowCheckout(w http.ResponseWriter, r *http.Request) {
	u, sid, ok := callerOrFail(w, r)
	if !ok {
		return
	}

	var req buyNowCheckoutReq
	if !decodeBody(w, r, &req) {
		return
	}

	unlock := s.Locks.Lock(sid)
	defer unlock()

	o, err := s.Svc.BuyNowCheckout(r.Context(), sid, u.ID, req.CheckoutType, req.Form)
	if err != nil {
		s.writeCheckoutError(w, r, err)
		return
	}

	kit.WriteJSON(w, http.StatusCreated, orderResp{Order: o, Message: o.Summary()})
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
		return
	}

	id := chi.URLParam(r, "id")
	o, found, err := s.Svc.Orders.Get(r.Context(), id)
	if err != nil {
		if s.Log != nil {
			s.Log.Error("get order failed", zap.Error(err), zap.String("order_id", id))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "order not found", map[string]any{"id": id})
		return
	}
	if o.UserID != u.ID {
		kit.WriteError(w, r, http.StatusForbidden, "forbidden", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, o)
}

func (s *Server) writeCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs ValidationErrors
	switch {
	case errors.As(err, &verrs):
		kit.WriteFieldErrors(w, r, verrs)
	case errors.Is(err, ErrEmptyCart):
		kit.WriteError(w, r, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, ErrNoBuyNow):
		kit.WriteError(w, r, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, ErrBadMode):
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
	default:
		if s.Log != nil {
			s.Log.Error("checkout failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func callerOrFail(w http.ResponseWriter, r *http.Request) (auth.Identity, string, bool) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
		return auth.Identity{}, "", false
	}

	sid, ok := session.SIDFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusInternalServerError, "no session", nil)
		return auth.Identity{}, "", false
	}

	return u, sid, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxCheckoutBody)
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		kit.WriteError(w, r, http.StatusBadRequest, "extra data after json object", nil)
		return false
	}
	return true
}
