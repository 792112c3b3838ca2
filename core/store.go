package core

import "context"

// Store 是存储的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 领域层不依赖基础设施层
//
// 使用场景：
//   - 推荐结果缓存：user:{id}:recommendations
//   - 统计数据：商品购买人数
//
// 实现：
//   - store.MemoryStore（测试、单进程）
//   - store.RedisStore（生产）
//   - store.BadgerStore（嵌入式、单机持久化）
type Store interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// Get 读取单个 key 的值，不存在时返回 ErrStoreNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 写入单个 key-value，ttl 单位为秒
	Set(ctx context.Context, key string, value []byte, ttl ...int) error

	// Delete 删除单个 key，key 不存在不是错误
	Delete(ctx context.Context, key string) error

	// BatchSet 批量写入
	BatchSet(ctx context.Context, kvs map[string][]byte, ttl ...int) error

	// Close 关闭连接/释放资源
	Close() error
}

// KeyValueStore 是 Store 的扩展接口，增加哈希表（Hash）操作，
// 用于商品级统计（如购买人数）。
type KeyValueStore interface {
	Store

	// HGet 读取 Hash 字段，不存在时返回 ErrStoreNotFound
	HGet(ctx context.Context, key, field string) ([]byte, error)

	// HSet 写入多个 Hash 字段
	HSet(ctx context.Context, key string, fields map[string][]byte) error

	// HGetAll 读取整个 Hash，不存在时返回空 map
	HGetAll(ctx context.Context, key string) (map[string][]byte, error)
}
