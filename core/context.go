package core

import (
	"sync"

	"github.com/rushteam/shoprec/pkg/utils"
)

// 默认值
const (
	DefaultTopN    = 10 // 每个用户的推荐列表长度
	DefaultWorkers = 4  // 批处理并发度
)

// RecommendContext 承载单个用户的推荐请求，贯穿整个 Pipeline 透传。
// Fanout 中的候选源并发执行，Labels 与 Memo 的读写都经过锁。
type RecommendContext struct {
	UserID string

	// TopN 是本次推荐列表的目标长度，<=0 时使用 DefaultTopN
	TopN int

	// Labels 是用户级标签，例如 cold_start / fallback_reason
	Labels map[string]utils.Label

	mu   sync.RWMutex
	memo map[string]any
}

// Limit 返回有效的目标长度。
func (rctx *RecommendContext) Limit() int {
	if rctx == nil || rctx.TopN <= 0 {
		return DefaultTopN
	}
	return rctx.TopN
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	rctx.mu.Lock()
	defer rctx.mu.Unlock()
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx == nil {
		return utils.Label{}, false
	}
	rctx.mu.RLock()
	defer rctx.mu.RUnlock()
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}

// LabelValues 返回用户级 Label 的 value 快照，供表达式求值。
func (rctx *RecommendContext) LabelValues() map[string]any {
	out := make(map[string]any)
	if rctx == nil {
		return out
	}
	rctx.mu.RLock()
	defer rctx.mu.RUnlock()
	for k, v := range rctx.Labels {
		out[k] = v.Value
	}
	return out
}

// Memo 返回 key 对应的缓存值，不存在时调用 build 计算并保存。
// 用于一次请求内只需计算一次的用户级数据（如购买集合）。
func (rctx *RecommendContext) Memo(key string, build func() any) any {
	rctx.mu.Lock()
	defer rctx.mu.Unlock()
	if v, ok := rctx.memo[key]; ok {
		return v
	}
	if rctx.memo == nil {
		rctx.memo = make(map[string]any)
	}
	v := build()
	rctx.memo[key] = v
	return v
}
