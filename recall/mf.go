package recall

import (
	"context"
	"sort"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/model"
)

// MFRecall 是基于隐因子模型的召回源。
//
// 对目录中用户未交互过（任意类型）的商品逐一打分，按预测分数降序取前 N 个；
// 分数相同时保持目录顺序。
//
// Model 为 nil（训练失败、交互为空）时返回空列表，由内容兜底承担全部候选。
// Label：recall.mf
type MFRecall struct {
	Model   model.Scorer
	Dataset *core.Dataset
}

func (r *MFRecall) Name() string {
	return "recall.mf"
}

func (r *MFRecall) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Model == nil || r.Dataset == nil || rctx == nil {
		return nil, nil
	}

	limit := rctx.Limit()
	interacted := r.Dataset.InteractedProductIDs(rctx.UserID)
	products := r.Dataset.Products()

	candidates := make([]*core.Item, 0, len(products))
	for _, p := range products {
		if _, ok := interacted[p.ID]; ok {
			continue
		}
		it := core.NewItem(p.ID)
		it.Score = r.Model.Predict(rctx.UserID, p.ID)
		candidates = append(candidates, it)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}
