package partialdef

import (
	"context"
	"time"
)

// mockStore is an in-memory hash store with overridable failures.
type mockStore struct {
	hashes   map[string]map[string]string
	expires  map[string]time.Duration
	hsetErr  error
	expireFn func(key string, ttl time.Duration, nx bool) error
}

func newMockStore() *mockStore {
	return &mockStore{hashes: map[string]map[string]string{}, expires: map[string]time.Duration{}}
}

func (m *mockStore) HSet(_ context.Context, key string, fields map[string]string) error {
	if m.hsetErr != nil {
		return m.hsetErr
	}
	if m.hashes[key] == nil {
		m.hashes[key] = map[string]string{}
	}
	for k, v := range fields {
		m.hashes[key][k] = v
	}
	return nil
}

func (m *mockStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	out := map[string]string{}
	for k, v := range m.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (m *mockStore) HLen(_ context.Context, key string) (int64, error) {
	return int64(len(m.hashes[key])), nil
}

func (m *mockStore) Expire(_ context.Context, key string, ttl time.Duration, nx bool) error {
	if m.expireFn != nil {
		return m.expireFn(key, ttl, nx)
	}
	if _, set := m.expires[key]; !set || !nx {
		m.expires[key] = ttl
	}
	return nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	delete(m.hashes, key)
	return nil
}
