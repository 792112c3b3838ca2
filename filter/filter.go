package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
)

// Filter 判断候选商品是否不应进入用户的推荐列表。
// 返回 true 表示移除；返回 error 时 FilterNode 保留该商品并回调 OnError。
type Filter interface {
	// Name 作为 shoprec_candidates_filtered_total 的 filter 维度
	Name() string

	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}
