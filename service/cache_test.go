package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/store"
)

// brokenStore 模拟不可达的缓存后端。
type brokenStore struct{}

var errConnRefused = errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")

func (brokenStore) Name() string { return "broken" }
func (brokenStore) Get(context.Context, string) ([]byte, error) { return nil, errConnRefused }
func (brokenStore) Set(context.Context, string, []byte, ...int) error { return errConnRefused }
func (brokenStore) Delete(context.Context, string) error { return errConnRefused }
func (brokenStore) BatchSet(context.Context, map[string][]byte, ...int) error { return errConnRefused }
func (brokenStore) Close() error { return nil }
func (brokenStore) HGet(context.Context, string, string) ([]byte, error) { return nil, errConnRefused }
func (brokenStore) HSet(context.Context, string, map[string][]byte) error { return errConnRefused }
func (brokenStore) HGetAll(context.Context, string) (map[string][]byte, error) {
	return nil, errConnRefused
}

// recordingStore 在 MemoryStore 之上记录 Delete / BatchSet 调用。
type recordingStore struct {
	*store.MemoryStore
	mu       sync.Mutex
	deleted  []string
	batchSet []int
}

func (r *recordingStore) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	r.deleted = append(r.deleted, key)
	r.mu.Unlock()
	return r.MemoryStore.Delete(ctx, key)
}

func (r *recordingStore) BatchSet(ctx context.Context, kvs map[string][]byte, ttl ...int) error {
	r.mu.Lock()
	r.batchSet = append(r.batchSet, len(kvs))
	r.mu.Unlock()
	return r.MemoryStore.BatchSet(ctx, kvs, ttl...)
}

func newRecordingCache(t *testing.T) (*RecommendationCache, *recordingStore) {
	t.Helper()
	s := &recordingStore{MemoryStore: store.NewMemoryStore()}
	t.Cleanup(func() { _ = s.Close() })
	return NewRecommendationCache(s), s
}

func newMemoryCache(t *testing.T) (*RecommendationCache, *store.MemoryStore) {
	t.Helper()
	s := store.NewMemoryStore()
	t.Cleanup(func() { _ = s.Close() })
	return NewRecommendationCache(s), s
}

func TestRecommendationCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c, _ := newMemoryCache(t)

	want := []string{"P3", "P1", "P2"}
	if err := c.Put(ctx, "U1", want); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := c.Get(ctx, "U1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Get = %v, want %v", got, want)
	}

	// 整体覆盖，不与旧值合并
	if err := c.Put(ctx, "U1", []string{"P9"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, _ = c.Get(ctx, "U1")
	if !reflect.DeepEqual(got, []string{"P9"}) {
		t.Errorf("after overwrite Get = %v", got)
	}
}

func TestRecommendationCache_MissingKey(t *testing.T) {
	c, _ := newMemoryCache(t)
	got, err := c.Get(context.Background(), "U9")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Get = %#v, want empty non-nil slice", got)
	}
}

func TestRecommendationCache_EmptyListDeletesKey(t *testing.T) {
	ctx := context.Background()
	c, s := newMemoryCache(t)

	_ = c.Put(ctx, "U1", []string{"P1"})
	if err := c.Put(ctx, "U1", nil); err != nil {
		t.Fatalf("Put(nil): %v", err)
	}
	if _, err := s.Get(ctx, RecommendationKey("U1")); !core.IsStoreNotFound(err) {
		t.Errorf("key still present, err = %v", err)
	}
}

func TestRecommendationCache_PurchaseCounts(t *testing.T) {
	ctx := context.Background()
	c, _ := newMemoryCache(t)

	_ = c.PutPurchaseCounts(ctx, map[string]int{"P1": 2, "P2": 1})
	if err := c.PutPurchaseCounts(ctx, map[string]int{"P1": 3}); err != nil {
		t.Fatalf("PutPurchaseCounts: %v", err)
	}

	tests := []struct {
		product string
		want    int
	}{
		{"P1", 3},
		{"P2", 0}, // 旧字段被整体覆盖
		{"P404", 0},
	}
	for _, tt := range tests {
		t.Run(tt.product, func(t *testing.T) {
			got, err := c.PurchaseCount(ctx, tt.product)
			if err != nil {
				t.Fatalf("PurchaseCount: %v", err)
			}
			if got != tt.want {
				t.Errorf("PurchaseCount(%s) = %d, want %d", tt.product, got, tt.want)
			}
		})
	}
}

func TestRecommendationCache_PurchaseCountsNoDelete(t *testing.T) {
	ctx := context.Background()
	c, s := newRecordingCache(t)

	_ = c.PutPurchaseCounts(ctx, map[string]int{"P1": 2, "P2": 1})
	if err := c.PutPurchaseCounts(ctx, map[string]int{"P1": 3}); err != nil {
		t.Fatalf("PutPurchaseCounts: %v", err)
	}
	for _, key := range s.deleted {
		if key == PurchaseCountKey {
			t.Fatalf("purchase count hash deleted during overwrite")
		}
	}

	all, err := s.HGetAll(ctx, PurchaseCountKey)
	if err != nil {
		t.Fatalf("HGetAll: %v", err)
	}
	want := map[string]string{"P1": "3", "P2": "0"}
	if len(all) != len(want) {
		t.Fatalf("hash = %v, want %v", all, want)
	}
	for f, v := range want {
		if string(all[f]) != v {
			t.Errorf("field %s = %q, want %q", f, all[f], v)
		}
	}
}

func TestRecommendationCache_PutAll(t *testing.T) {
	ctx := context.Background()
	c, s := newRecordingCache(t)

	_ = c.Put(ctx, "U3", []string{"P1"})
	lists := map[string][]string{
		"U3": {},
	}
	for i := range batchChunk + 1 {
		lists[fmt.Sprintf("U%04d", i)] = []string{"P1", "P2"}
	}
	if err := c.PutAll(ctx, lists); err != nil {
		t.Fatalf("PutAll: %v", err)
	}

	if len(s.batchSet) != 2 || s.batchSet[0]+s.batchSet[1] != batchChunk+1 {
		t.Errorf("BatchSet calls = %v, want 2 chunks totalling %d", s.batchSet, batchChunk+1)
	}
	got, err := c.Get(ctx, "U0042")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"P1", "P2"}) {
		t.Errorf("Get(U0042) = %v", got)
	}
	if _, err := s.Get(ctx, RecommendationKey("U3")); !core.IsStoreNotFound(err) {
		t.Errorf("empty list kept stale key, err = %v", err)
	}
}

func TestRecommendationCache_Unavailable(t *testing.T) {
	ctx := context.Background()
	c := NewRecommendationCache(brokenStore{})

	tests := []struct {
		name string
		call func() error
	}{
		{"put", func() error { return c.Put(ctx, "U1", []string{"P1"}) }},
		{"put_empty", func() error { return c.Put(ctx, "U1", nil) }},
		{"put_all", func() error { return c.PutAll(ctx, map[string][]string{"U1": {"P1"}}) }},
		{"get", func() error { _, err := c.Get(ctx, "U1"); return err }},
		{"purchase_counts", func() error { return c.PutPurchaseCounts(ctx, map[string]int{"P1": 1}) }},
		{"purchase_count", func() error { _, err := c.PurchaseCount(ctx, "P1"); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if !core.IsCacheUnavailable(err) {
				t.Errorf("err = %v, want cache unavailable", err)
			}
			if core.IsStoreNotFound(err) {
				t.Errorf("unavailable conflated with not found: %v", err)
			}
		})
	}
}
