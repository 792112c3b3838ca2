package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/rushteam/shoprec/core"
)

// batchChunk 是 PutAll 单次 BatchSet 的最大 key 数。
const batchChunk = 500

// PurchaseCountKey 是商品去重购买人数 Hash 的 key（field = product_id）。
const PurchaseCountKey = "stats:purchase_count"

// RecommendationKey 返回用户推荐列表的缓存 key。
func RecommendationKey(userID string) string {
	return "user:" + userID + ":recommendations"
}

// RecommendationCache 是预计算推荐列表的读写封装。
//
// 写（仅批处理）：整体覆盖，值为 JSON 字符串数组；空列表删除 key。
// 读（仅在线服务）：key 不存在视为“没有推荐”，返回空列表而不是错误。
// 后端不可达时返回 core.ErrCacheUnavailable。
type RecommendationCache struct {
	Store core.KeyValueStore

	// TTL 秒，0 表示不过期
	TTL int
}

func NewRecommendationCache(store core.KeyValueStore) *RecommendationCache {
	return &RecommendationCache{Store: store}
}

// Put 覆盖写入用户的推荐列表。
func (c *RecommendationCache) Put(ctx context.Context, userID string, ids []string) error {
	key := RecommendationKey(userID)
	if len(ids) == 0 {
		if err := c.Store.Delete(ctx, key); err != nil {
			return unavailable("delete", key, err)
		}
		return nil
	}

	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal recommendations for %s: %w", userID, err)
	}
	var ttl []int
	if c.TTL > 0 {
		ttl = []int{c.TTL}
	}
	if err := c.Store.Set(ctx, key, data, ttl...); err != nil {
		return unavailable("set", key, err)
	}
	return nil
}

// PutAll 覆盖写入多个用户的推荐列表：非空列表按 batchChunk 分批 BatchSet，空列表删除 key。
func (c *RecommendationCache) PutAll(ctx context.Context, lists map[string][]string) error {
	var ttl []int
	if c.TTL > 0 {
		ttl = []int{c.TTL}
	}

	batch := make(map[string][]byte, min(len(lists), batchChunk))
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := c.Store.BatchSet(ctx, batch, ttl...); err != nil {
			return unavailable("batchset", fmt.Sprintf("%d keys", len(batch)), err)
		}
		clear(batch)
		return nil
	}

	for userID, ids := range lists {
		if len(ids) == 0 {
			if err := c.Put(ctx, userID, nil); err != nil {
				return err
			}
			continue
		}
		data, err := json.Marshal(ids)
		if err != nil {
			return fmt.Errorf("marshal recommendations for %s: %w", userID, err)
		}
		batch[RecommendationKey(userID)] = data
		if len(batch) >= batchChunk {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

// Get 读取用户的推荐列表，key 不存在返回空列表。
func (c *RecommendationCache) Get(ctx context.Context, userID string) ([]string, error) {
	key := RecommendationKey(userID)
	data, err := c.Store.Get(ctx, key)
	if core.IsStoreNotFound(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, unavailable("get", key, err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// PutPurchaseCounts 全量覆盖商品购买人数。
// 不先删除整个 Hash：本轮不再出现的商品字段写为 "0"，与新计数一次 HSet 写入，
// 在线服务在覆盖期间始终能读到旧值或新值。
func (c *RecommendationCache) PutPurchaseCounts(ctx context.Context, counts map[string]int) error {
	old, err := c.Store.HGetAll(ctx, PurchaseCountKey)
	if err != nil {
		return unavailable("hgetall", PurchaseCountKey, err)
	}

	fields := make(map[string][]byte, len(counts)+len(old))
	for pid, v := range old {
		if _, ok := counts[pid]; !ok && string(v) != "0" {
			fields[pid] = []byte("0")
		}
	}
	for pid, n := range counts {
		fields[pid] = []byte(strconv.Itoa(n))
	}
	if len(fields) == 0 {
		return nil
	}
	if err := c.Store.HSet(ctx, PurchaseCountKey, fields); err != nil {
		return unavailable("hset", PurchaseCountKey, err)
	}
	return nil
}

// PurchaseCount 读取商品的购买人数，没有记录返回 0。
func (c *RecommendationCache) PurchaseCount(ctx context.Context, productID string) (int, error) {
	data, err := c.Store.HGet(ctx, PurchaseCountKey, productID)
	if core.IsStoreNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, unavailable("hget", PurchaseCountKey, err)
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return 0, fmt.Errorf("decode purchase count for %s: %w", productID, err)
	}
	return n, nil
}

func unavailable(op, key string, err error) error {
	return fmt.Errorf("%w: %s %s: %v", core.ErrCacheUnavailable, op, key, err)
}
