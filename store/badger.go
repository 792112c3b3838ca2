package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/rushteam/shoprec/core"
)

// hash 字段以独立 key 存储：hashPrefix + key + hashSep + field
const (
	hashPrefix = "\x00h:"
	hashSep    = "\x00"
)

// BadgerStore 是 BadgerDB 实现的 KeyValueStore，适合单机部署：
// 批处理与在线服务共享同一个数据目录（不能同时打开），或在测试中使用内存模式。
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore 打开（或创建）path 下的 BadgerDB。path 为空时使用内存模式。
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: open badger %q: %v", core.ErrCacheUnavailable, path, err)
	}
	return &BadgerStore{db: db}, nil
}

func (b *BadgerStore) Name() string { return "badger" }

func (b *BadgerStore) Get(ctx context.Context, key string) ([]byte, error) {
	return b.get([]byte(key))
}

func (b *BadgerStore) get(key []byte) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return core.ErrStoreNotFound
		}
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *BadgerStore) Set(ctx context.Context, key string, value []byte, ttl ...int) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(newEntry([]byte(key), value, ttl))
	})
}

// Delete 删除 key 以及同名 Hash 的全部字段。
func (b *BadgerStore) Delete(ctx context.Context, key string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete %s: %w", key, err)
		}

		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := hashFieldPrefix(key)
		var fields [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			fields = append(fields, it.Item().KeyCopy(nil))
		}
		for _, f := range fields {
			if err := txn.Delete(f); err != nil {
				return fmt.Errorf("delete hash field: %w", err)
			}
		}
		return nil
	})
}

func (b *BadgerStore) BatchSet(ctx context.Context, kvs map[string][]byte, ttl ...int) error {
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for k, v := range kvs {
		if err := wb.SetEntry(newEntry([]byte(k), v, ttl)); err != nil {
			return fmt.Errorf("batch set %s: %w", k, err)
		}
	}
	return wb.Flush()
}

func (b *BadgerStore) HGet(ctx context.Context, key, field string) ([]byte, error) {
	return b.get(hashFieldKey(key, field))
}

func (b *BadgerStore) HSet(ctx context.Context, key string, fields map[string][]byte) error {
	if len(fields) == 0 {
		return nil
	}
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for f, v := range fields {
		if err := wb.Set(hashFieldKey(key, f), v); err != nil {
			return fmt.Errorf("hset %s.%s: %w", key, f, err)
		}
	}
	return wb.Flush()
}

func (b *BadgerStore) HGetAll(ctx context.Context, key string) (map[string][]byte, error) {
	result := make(map[string][]byte)
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := hashFieldPrefix(key)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			field := string(item.Key()[len(prefix):])
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			result[field] = v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (b *BadgerStore) Close() error {
	return b.db.Close()
}

func newEntry(key, value []byte, ttl []int) *badger.Entry {
	e := badger.NewEntry(key, value)
	if len(ttl) > 0 && ttl[0] > 0 {
		e = e.WithTTL(time.Duration(ttl[0]) * time.Second)
	}
	return e
}

func hashFieldPrefix(key string) []byte {
	return []byte(hashPrefix + key + hashSep)
}

func hashFieldKey(key, field string) []byte {
	return []byte(hashPrefix + key + hashSep + field)
}

var _ core.KeyValueStore = (*BadgerStore)(nil)
