package rerank

import (
	"context"
	"strconv"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/utils"
)

// TopNNode 是一个 Top-N 截断节点，放在过滤之后，截取最终推荐列表。
//
// 示例：
//
//	p := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &recall.Fanout{...},      // 兜底 + 模型合并
//	        &filter.FilterNode{...},  // 目录/已购/资格过滤
//	        &rerank.TopNNode{},       // 截取 rctx.TopN
//	    },
//	}
type TopNNode struct {
	// N 要保留的物品数量（Top N）
	// 如果 N <= 0，则使用 rctx.Limit()
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := n.N
	if limit <= 0 {
		limit = rctx.Limit()
	}
	if len(items) > limit {
		items = items[:limit]
	}

	// 记录最终位置，方便 explain / 观测
	for i, it := range items {
		it.PutLabel("rank_position", utils.Label{Value: strconv.Itoa(i + 1), Source: "rerank"})
	}
	return items, nil
}
