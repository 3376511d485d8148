package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ShopSmart/internal/auth"
	"ShopSmart/pkg/kit"
)

const maxBodyBytes = 1 << 20

type Server struct {
	Store Store
	Log   *zap.Logger
}

// Routes exposes the public catalog: paginated, searchable listing and
// point lookup. Mount under /products.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.list)
	r.Get("/{id}", s.get)

	return r
}

// AdminRoutes manages the whole catalog; mount behind the admin role.
func (s *Server) AdminRoutes() http.Handler {
	r := chi.NewRouter()

	r.Post("/products", s.adminCreate)
	r.Put("/products/{id}", s.adminUpdate)
	r.Delete("/products/{id}", s.adminDelete)

	return r
}

// SellerRoutes manages only the authenticated seller's own products.
func (s *Server) SellerRoutes() http.Handler {
	r := chi.NewRouter()

	r.Get("/products", s.sellerList)
	r.Post("/products", s.sellerCreate)
	r.Put("/products/{id}", s.sellerUpdate)
	r.Delete("/products/{id}", s.sellerDelete)

	return r
}

func (s *Server) Ready(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()
	return s.Store.Ping(ctx)
}

type listResp struct {
	Products []Product `json:"products"`
	Meta     PageMeta  `json:"meta"`
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	page := ParsePage(r.URL.Query().Get("page"))
	query := r.URL.Query().Get("q")

	if query == "" {
		total, err := s.Store.Count(r.Context())
		if err != nil {
			s.storeError(w, r, "count products failed", err)
			return
		}

		meta := Paginate(total, page, DefaultPageSize)
		products, err := s.Store.ListPage(r.Context(), meta.Page, meta.PageSize)
		if err != nil {
			s.storeError(w, r, "list products failed", err)
			return
		}

		kit.WriteJSON(w, http.StatusOK, listResp{Products: products, Meta: meta})
		return
	}

	// Search filters before the pagination math so counts reflect the
	// filtered set.
	all, err := s.Store.List(r.Context())
	if err != nil {
		s.storeError(w, r, "list products failed", err)
		return
	}

	filtered := Filter(all, query)
	meta := Paginate(len(filtered), page, DefaultPageSize)
	start, end := meta.Bounds()

	kit.WriteJSON(w, http.StatusOK, listResp{Products: filtered[start:end], Meta: meta})
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	p, found, err := s.Store.Get(r.Context(), id)
	if err != nil {
		s.storeError(w, r, "get product failed", err)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "product not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

type productReq struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

func (s *Server) adminCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeProduct(w, r)
	if !ok {
		return
	}

	p, err := s.Store.Create(r.Context(), Product{
		Code:        req.Code,
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		s.storeError(w, r, "create product failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, p)
}

func (s *Server) adminUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	req, ok := decodeProduct(w, r)
	if !ok {
		return
	}

	found, err := s.Store.Update(r.Context(), id, req.Description, req.Price)
	if err != nil {
		s.storeError(w, r, "update product failed", err)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "product not found", map[string]any{"id": id})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) adminDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	found, err := s.Store.Delete(r.Context(), id)
	if err != nil {
		s.storeError(w, r, "delete product failed", err)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "product not found", map[string]any{"id": id})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) sellerList(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
		return
	}

	products, err := s.Store.ListSeller(r.Context(), u.Username)
	if err != nil {
		s.storeError(w, r, "list seller products failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) sellerCreate(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
		return
	}
	req, ok := decodeProduct(w, r)
	if !ok {
		return
	}

	p, err := s.Store.Create(r.Context(), Product{
		Code:        req.Code,
		Description: req.Description,
		Price:       req.Price,
		Seller:      u.Username,
	})
	if err != nil {
		s.storeError(w, r, "create seller product failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, p)
}

func (s *Server) sellerUpdate(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	req, ok := decodeProduct(w, r)
	if !ok {
		return
	}

	found, err := s.Store.UpdateSeller(r.Context(), u.Username, id, req.Description, req.Price)
	if err != nil {
		s.storeError(w, r, "update seller product failed", err)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "product not found or not yours", map[string]any{"id": id})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) sellerDelete(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	found, err := s.Store.DeleteSeller(r.Context(), u.Username, id)
	if err != nil {
		s.storeError(w, r, "delete seller product failed", err)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "product not found or not yours", map[string]any{"id": id})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		kit.WriteError(w, r, http.StatusBadRequest, "bad product id", nil)
		return 0, false
	}
	return id, true
}

func decodeProduct(w http.ResponseWriter, r *http.Request) (productReq, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req productReq
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return productReq{}, false
	}

	if req.Description == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "description required", nil)
		return productReq{}, false
	}
	if !req.Price.IsPositive() {
		kit.WriteError(w, r, http.StatusBadRequest, "price must be positive", nil)
		return productReq{}, false
	}

	return req, true
}

func (s *Server) storeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if s.Log != nil {
		s.Log.Error(msg, zap.Error(err))
	}
	kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
}
