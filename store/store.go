package store

// 注意：此包只包含实现，接口定义在 core 包。
// 使用 core.Store 和 core.KeyValueStore 接口。
//
// 示例：
//   var store core.Store = NewMemoryStore()
//   var kvStore core.KeyValueStore = NewMemoryStore()
//   kvStore, err := NewBadgerStore("/var/lib/shoprec")
//   kvStore, err := NewRedisStoreFromURL("redis://localhost:6379/0")
