package store

import (
	"context"
	"os"
	"testing"

	"github.com/rushteam/shoprec/core"
)

func backends(t *testing.T) map[string]core.KeyValueStore {
	t.Helper()

	out := map[string]core.KeyValueStore{
		"memory": NewMemoryStore(),
	}

	b, err := NewBadgerStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewBadgerStore: %v", err)
	}
	out["badger"] = b

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		r, err := NewRedisStore(addr, 15)
		if err != nil {
			t.Fatalf("NewRedisStore: %v", err)
		}
		out["redis"] = r
	}

	t.Cleanup(func() {
		for _, s := range out {
			_ = s.Close()
		}
	})
	return out
}

func TestStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			key := "test:user:1:recommendations"
			_ = s.Delete(ctx, key)

			if _, err := s.Get(ctx, key); !core.IsStoreNotFound(err) {
				t.Fatalf("Get missing key: want ErrStoreNotFound, got %v", err)
			}
			if err := s.Set(ctx, key, []byte(`["P1","P2"]`)); err != nil {
				t.Fatalf("Set: %v", err)
			}
			got, err := s.Get(ctx, key)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if string(got) != `["P1","P2"]` {
				t.Errorf("Get = %s", got)
			}

			// 覆盖写入
			if err := s.Set(ctx, key, []byte(`["P3"]`)); err != nil {
				t.Fatalf("Set overwrite: %v", err)
			}
			got, _ = s.Get(ctx, key)
			if string(got) != `["P3"]` {
				t.Errorf("Get after overwrite = %s", got)
			}

			if err := s.Delete(ctx, key); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := s.Get(ctx, key); !core.IsStoreNotFound(err) {
				t.Errorf("Get after delete: want ErrStoreNotFound, got %v", err)
			}
			// 重复删除不是错误
			if err := s.Delete(ctx, key); err != nil {
				t.Errorf("Delete missing key: %v", err)
			}
		})
	}
}

func TestStore_BatchSet(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			kvs := map[string][]byte{
				"test:batch:a": []byte("1"),
				"test:batch:b": []byte("2"),
			}
			if err := s.BatchSet(ctx, kvs); err != nil {
				t.Fatalf("BatchSet: %v", err)
			}
			for k, want := range kvs {
				got, err := s.Get(ctx, k)
				if err != nil {
					t.Fatalf("Get(%s): %v", k, err)
				}
				if string(got) != string(want) {
					t.Errorf("Get(%s) = %s, want %s", k, got, want)
				}
				_ = s.Delete(ctx, k)
			}
		})
	}
}

func TestStore_Hash(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			key := "test:stats:purchase_count"
			_ = s.Delete(ctx, key)

			if _, err := s.HGet(ctx, key, "P1"); !core.IsStoreNotFound(err) {
				t.Fatalf("HGet missing: want ErrStoreNotFound, got %v", err)
			}
			all, err := s.HGetAll(ctx, key)
			if err != nil {
				t.Fatalf("HGetAll missing: %v", err)
			}
			if len(all) != 0 {
				t.Errorf("HGetAll missing = %v, want empty", all)
			}

			err = s.HSet(ctx, key, map[string][]byte{
				"P1": []byte("3"),
				"P2": []byte("1"),
			})
			if err != nil {
				t.Fatalf("HSet: %v", err)
			}
			v, err := s.HGet(ctx, key, "P1")
			if err != nil || string(v) != "3" {
				t.Errorf("HGet P1 = %s, %v", v, err)
			}
			all, err = s.HGetAll(ctx, key)
			if err != nil {
				t.Fatalf("HGetAll: %v", err)
			}
			if len(all) != 2 || string(all["P2"]) != "1" {
				t.Errorf("HGetAll = %v", all)
			}

			if err := s.Delete(ctx, key); err != nil {
				t.Fatalf("Delete hash: %v", err)
			}
			all, _ = s.HGetAll(ctx, key)
			if len(all) != 0 {
				t.Errorf("HGetAll after delete = %v, want empty", all)
			}
		})
	}
}

func TestMemoryStore_Keys(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	_ = s.Set(ctx, "user:U1:recommendations", []byte("[]"))
	_ = s.Set(ctx, "user:U2:recommendations", []byte("[]"))
	_ = s.Set(ctx, "other", []byte("x"))

	if got := len(s.Keys("user:")); got != 2 {
		t.Errorf("Keys(user:) = %d, want 2", got)
	}
}

func TestMemoryStore_ValueIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	buf := []byte("abc")
	_ = s.Set(ctx, "k", buf)
	buf[0] = 'x'

	got, _ := s.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("stored value mutated through caller slice: %s", got)
	}
}
