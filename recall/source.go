package recall

import (
	"context"

	"github.com/rushteam/shoprec/core"
)

// Source 表示一个可复用的候选源（内容兜底 / 隐因子模型 / ...）。
// 你可以把它理解为“可并发 fan-out 的策略单元”。
// 每个 Source 返回的列表已各自排好序，长度不超过 rctx.Limit()。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}
