// Package feedback 采集在线服务的曝光反馈，异步写入 Kafka，供后续批处理/分析使用。
package feedback

import (
	"context"
	"sync"
)

// FeedbackType 反馈类型
type FeedbackType string

const (
	FeedbackTypeImpression FeedbackType = "impression" // 曝光
)

// FeedbackEvent 反馈事件（轻量级，只包含必要信息）
type FeedbackEvent struct {
	UserID    string       `json:"user_id"`
	ProductID string       `json:"product_id"`
	Type      FeedbackType `json:"type"`
	Timestamp int64        `json:"timestamp"` // Unix 时间戳（秒）
	Position  int          `json:"position"`  // 商品在列表中的位置，从 0 开始
	RunID     string       `json:"run_id,omitempty"`
}

// Collector 反馈收集器接口（异步非阻塞）
type Collector interface {
	// RecordImpression 异步记录一次推荐列表曝光（不阻塞）
	RecordImpression(ctx context.Context, userID string, productIDs []string) error

	// Close 优雅关闭（等待缓冲数据发送完成）
	Close() error
}

// NoopCollector 丢弃所有事件，未配置 Kafka 时使用。
type NoopCollector struct{}

func (NoopCollector) RecordImpression(context.Context, string, []string) error { return nil }
func (NoopCollector) Close() error { return nil }

// MemoryCollector 把事件保存在内存里，用于测试和本地调试。
type MemoryCollector struct {
	mu     sync.Mutex
	events []FeedbackEvent
}

func (c *MemoryCollector) RecordImpression(_ context.Context, userID string, productIDs []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, impressionEvents(userID, productIDs)...)
	return nil
}

func (c *MemoryCollector) Close() error { return nil }

// Events 返回已记录事件的副本。
func (c *MemoryCollector) Events() []FeedbackEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]FeedbackEvent, len(c.events))
	copy(out, c.events)
	return out
}
