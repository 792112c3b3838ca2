package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该物品就会被过滤掉。
type FilterNode struct {
	Filters []Filter

	// OnError 在过滤器出错时调用（可选）。出错的过滤器视为“不过滤”，不中断流程。
	OnError func(filter string, item *core.Item, err error)

	// OnFiltered 在候选被剔除时调用（可选），用于打点。
	OnFiltered func(filter string, item *core.Item)
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}

		filtered := ""
		// 依次检查每个过滤器
		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				if n.OnError != nil {
					n.OnError(f.Name(), item, err)
				}
				continue
			}
			if ok {
				filtered = f.Name()
				break
			}
		}

		if filtered != "" {
			if n.OnFiltered != nil {
				n.OnFiltered(filtered, item)
			}
			continue
		}
		out = append(out, item)
	}

	return out, nil
}
