package pipeline

import (
	"context"

	"github.com/rushteam/shoprec/core"
)

// Kind 标记 Node 所处的阶段，作为 shoprec_node_duration_seconds 的 kind 维度。
type Kind string

const (
	KindRecall Kind = "recall" // 兜底与隐因子模型的候选合并
	KindFilter Kind = "filter" // 目录、已购、资格表达式
	KindReRank Kind = "rerank" // 截断到 TopN
)

// Node 是单用户推荐链路中的一步：读入候选商品，输出新的候选商品。
// 同一个 Node 会被批处理的多个 worker 并发调用，用户级状态只能放在 rctx 上。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		items []*core.Item,
	) ([]*core.Item, error)
}
