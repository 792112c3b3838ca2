package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rushteam/shoprec/core"
)

// NodeObserver 在每个 Node 执行完成后被调用，用于打点（耗时、输入输出数量）。
type NodeObserver func(node Node, in, out int, elapsed time.Duration)

// Pipeline 把单个用户的推荐逻辑拆成可组合的 Node 链：
// 召回（Fanout）→ 过滤 → 截断。
//
// Pipeline 本身无状态，可被多个 worker 并发执行。
type Pipeline struct {
	Nodes []Node

	// Observer 可选
	Observer NodeObserver
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		start := time.Now()
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", node.Name(), err)
		}
		if p.Observer != nil {
			p.Observer(node, len(cur), len(next), time.Since(start))
		}
		cur = next
	}
	return cur, nil
}
