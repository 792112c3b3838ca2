package recall

import (
	"context"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/utils"
)

// Fanout 是一个 Recall Node：并发执行多个候选源，并按优先级合并结果。
//
// 合并规则（混合合并）：
//   - Sources 的顺序即优先级，索引越小优先级越高
//   - 以优先级最高的列表为基底，保持其顺序
//   - 之后依次追加低优先级列表中尚未出现的 ID，保持各自的顺序
//   - 同一 ID 出现在多个源时，位置由高优先级源决定，labels 累积
//
// 截断由下游 rerank.TopNNode 完成，这样过滤阶段剔除的候选可以由后续候选补位。
type Fanout struct {
	Sources []Source
	Timeout time.Duration // 每个候选源的超时时间，0 表示不限制

	// OnError 在某个候选源失败时调用（可选）。失败的源按空列表处理，不中断其他源。
	OnError func(source string, err error)
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}

	// 每个源写自己的槽位，无需加锁
	results := make([][]*core.Item, len(n.Sources))
	eg, egCtx := errgroup.WithContext(ctx)

	for i, src := range n.Sources {
		eg.Go(func() error {
			recallCtx := egCtx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(egCtx, n.Timeout)
				defer cancel()
			}

			items, err := src.Recall(recallCtx, rctx)
			if err != nil {
				if n.OnError != nil {
					n.OnError(src.Name(), err)
				}
				return nil
			}

			// 记录召回来源 label，方便 explain / 观测
			for _, it := range items {
				if it == nil {
					continue
				}
				it.PutLabel("recall_source", utils.Label{Value: src.Name(), Source: "recall"})
				it.PutLabel("recall_priority", utils.Label{Value: strconv.Itoa(i), Source: "recall"})
			}
			results[i] = items
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return mergeByPriority(results...), nil
}

// mergeByPriority 按列表顺序合并，相同 ID 保留第一次出现的位置并累积 labels。
func mergeByPriority(lists ...[]*core.Item) []*core.Item {
	seen := make(map[string]*core.Item)
	var out []*core.Item
	for _, list := range lists {
		for _, it := range list {
			if it == nil {
				continue
			}
			if old, ok := seen[it.ID]; ok {
				for k, v := range it.Labels {
					old.PutLabel(k, v)
				}
				continue
			}
			seen[it.ID] = it
			out = append(out, it)
		}
	}
	return out
}

// MergeIDs 是混合合并的纯函数形式：以第一个列表为基底，依次追加后续列表中
// 未出现过的 ID，直到长度达到 limit。limit <= 0 时结果为空。
//
// 输出保证：长度 <= limit；无重复；第一个列表中能放入 limit 的 ID 都排在其他列表的 ID 之前。
func MergeIDs(limit int, lists ...[]string) []string {
	if limit <= 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, limit)
	out := make([]string, 0, limit)
	for _, list := range lists {
		for _, id := range list {
			if len(out) >= limit {
				return out
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
