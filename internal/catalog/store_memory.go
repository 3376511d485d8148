package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

type MemStore struct {
	mu     sync.RWMutex
	m      map[int]Product
	nextID int
}

// NewMemStore seeds the demo inventory: three main catalog products and
// a handful of seller-owned ones.
func NewMemStore() *MemStore {
	s := &MemStore{m: map[int]Product{}, nextID: 300}

	seed := []Product{
		{ID: 1, Code: "P0001", Description: "Product 1", PriceINR: decimal.NewFromFloat(10.99)},
		{ID: 2, Code: "P0002", Description: "Product 2", PriceINR: decimal.NewFromFloat(15.99)},
		{ID: 3, Code: "P0003", Description: "Product 3", PriceINR: decimal.NewFromFloat(20.99)},
		{ID: 101, Description: "Seller 1 Product A", Price: decimal.NewFromFloat(25.99), Seller: "seller1"},
		{ID: 102, Description: "Seller 1 Product B", Price: decimal.NewFromFloat(30.99), Seller: "seller1"},
		{ID: 201, Description: "Seller 2 Product A", Price: decimal.NewFromFloat(45.99), Seller: "seller2"},
	}
	for _, p := range seed {
		s.m[p.ID] = p
	}

	return s
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) Get(ctx context.Context, id int) (Product, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.m[id]
	return p, ok, nil
}

func (s *MemStore) GetSeller(ctx context.Context, seller string, id int) (Product, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.m[id]
	if !ok || p.Seller != seller {
		return Product{}, false, nil
	}
	return p, true, nil
}

func (s *MemStore) List(ctx context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, 0, len(s.m))
	for _, p := range s.m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) ListPage(ctx context.Context, page, size int) ([]Product, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	start := (page - 1) * size
	if start >= len(all) {
		return []Product{}, nil
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (s *MemStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.m), nil
}

func (s *MemStore) ListSeller(ctx context.Context, seller string) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, 0)
	for _, p := range s.m {
		if p.Seller == seller {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) Create(ctx context.Context, p Product) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.nextID
	s.nextID++
	s.m[p.ID] = p
	return p, nil
}

func (s *MemStore) Update(ctx context.Context, id int, description string, price decimal.Decimal) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.m[id]
	if !ok {
		return false, nil
	}
	p.Description = description
	p.Price = price
	p.PriceINR = decimal.Zero
	s.m[id] = p
	return true, nil
}

func (s *MemStore) Delete(ctx context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.m[id]; !ok {
		return false, nil
	}
	delete(s.m, id)
	return true, nil
}

func (s *MemStore) UpdateSeller(ctx context.Context, seller string, id int, description string, price decimal.Decimal) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.m[id]
	if !ok || p.Seller != seller {
		return false, nil
	}
	p.Description = description
	p.Price = price
	p.PriceINR = decimal.Zero
	s.m[id] = p
	return true, nil
}

func (s *MemStore) DeleteSeller(ctx context.Context, seller string, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.m[id]
	if !ok || p.Seller != seller {
		return false, nil
	}
	delete(s.m, id)
	return true, nil
}
