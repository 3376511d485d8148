package session

import (
	"context"
	"encoding/json"
	"sync"
)

type MemStore struct {
	mu sync.RWMutex
	m  map[string]map[string]json.RawMessage
}

func NewMemStore() *MemStore {
	return &MemStore{m: make(map[string]map[string]json.RawMessage)}
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) Get(ctx context.Context, sid, key string) (json.RawMessage, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vals, ok := s.m[sid]
	if !ok {
		return nil, false, nil
	}
	v, ok := vals[key]
	return v, ok, nil
}

func (s *MemStore) Set(ctx context.Context, sid, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	vals, ok := s.m[sid]
	if !ok {
		vals = make(map[string]json.RawMessage)
		s.m[sid] = vals
	}
	vals[key] = b
	return nil
}

func (s *MemStore) Delete(ctx context.Context, sid, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if vals, ok := s.m[sid]; ok {
		delete(vals, key)
	}
	return nil
}

func (s *MemStore) Clear(ctx context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.m, sid)
	return nil
}
