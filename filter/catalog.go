package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
)

// CatalogFilter 过滤掉不在当前商品目录中的候选，
// 保证最终列表中的每个 ID 在合并时都对应一个存在的商品。
type CatalogFilter struct {
	Dataset *core.Dataset
}

func (f *CatalogFilter) Name() string {
	return "filter.catalog"
}

func (f *CatalogFilter) ShouldFilter(
	_ context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || f.Dataset == nil {
		return true, nil
	}
	return !f.Dataset.HasProduct(item.ID), nil
}
