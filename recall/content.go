package recall

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/utils"
)

// 兜底原因
const (
	ReasonGeneralPopularity = "general_popularity"
	ReasonRecentCategory    = "recent_category"
)

// ContentFallback 是基于规则的内容兜底召回源，无学习、结果确定。
//
// 规则：
//   - 用户没有购买记录：返回目录顺序的前 N 个商品（“热门”）
//   - 否则取最近一次购买的商品类目，返回同类目中用户未购买过的商品，按目录顺序取前 N 个
//   - 最近一次购买的商品已不在目录中：按无购买记录处理
//
// 既用于冷启动，也作为与模型结果合并时的高可靠基底。
// Label：recall.content；用户级 label：fallback_reason、cold_start
type ContentFallback struct {
	Dataset *core.Dataset
}

func (r *ContentFallback) Name() string {
	return "recall.content"
}

func (r *ContentFallback) Recall(
	_ context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Dataset == nil || rctx == nil {
		return nil, nil
	}
	ids, reason, category := Fallback(r.Dataset, rctx.UserID, rctx.Limit())

	// 用户级 label：命中的兜底规则；没有任何交互的用户标记为冷启动
	rctx.PutLabel("fallback_reason", utils.Label{Value: reason, Source: "recall"})
	if len(r.Dataset.UserInteractions(rctx.UserID)) == 0 {
		rctx.PutLabel("cold_start", utils.Label{Value: "true", Source: "recall"})
	}

	out := make([]*core.Item, 0, len(ids))
	for _, id := range ids {
		it := core.NewItem(id)
		it.PutLabel("fallback_reason", utils.Label{Value: reason, Source: "recall"})
		if category != "" {
			it.PutLabel("fallback_category", utils.Label{Value: category, Source: "recall"})
		}
		out = append(out, it)
	}
	return out, nil
}

// Fallback 计算兜底候选 ID 列表，同时返回命中的规则与目标类目（热门分支为空）。
func Fallback(ds *core.Dataset, userID string, topN int) (ids []string, reason, category string) {
	ids = []string{}
	if topN <= 0 {
		return ids, ReasonGeneralPopularity, ""
	}

	purchases := ds.UserPurchasesByRecency(userID)
	if len(purchases) > 0 {
		if latest, ok := ds.Product(purchases[0].ProductID); ok {
			purchased := ds.PurchasedProductIDs(userID)
			for _, p := range ds.Products() {
				if len(ids) >= topN {
					break
				}
				if p.Category != latest.Category {
					continue
				}
				if _, owned := purchased[p.ID]; owned {
					continue
				}
				ids = append(ids, p.ID)
			}
			return ids, ReasonRecentCategory, latest.Category
		}
	}

	for _, p := range ds.Products() {
		if len(ids) >= topN {
			break
		}
		ids = append(ids, p.ID)
	}
	return ids, ReasonGeneralPopularity, ""
}
