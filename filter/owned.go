package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
)

const purchasedMemoKey = "filter.purchased"

// PurchasedFilter 过滤掉用户已经购买过的商品，任何候选源都不应推荐已拥有的商品。
// 购买集合在每个用户的 RecommendContext 上只计算一次。
type PurchasedFilter struct {
	Dataset *core.Dataset
}

func (f *PurchasedFilter) Name() string {
	return "filter.purchased"
}

func (f *PurchasedFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if f.Dataset == nil || rctx == nil {
		return false, nil
	}
	owned := rctx.Memo(purchasedMemoKey, func() any {
		return f.Dataset.PurchasedProductIDs(rctx.UserID)
	}).(map[string]struct{})
	_, ok := owned[item.ID]
	return ok, nil
}
