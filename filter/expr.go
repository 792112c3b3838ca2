package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/dsl"
)

// ExprFilter 是基于 CEL 表达式的资格过滤器：表达式为 false 的候选被剔除。
// 例如 batch.eligibility = `product.price > 0.0` 可以排除价格缺失的商品。
type ExprFilter struct {
	Dataset *core.Dataset
	Program *dsl.Program
}

// NewExprFilter 编译表达式。空表达式返回 nil（不需要挂载过滤器）。
func NewExprFilter(ds *core.Dataset, expr string) (*ExprFilter, error) {
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	if prg == nil {
		return nil, nil
	}
	return &ExprFilter{Dataset: ds, Program: prg}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	product, ok := f.Dataset.Product(item.ID)
	if !ok {
		return true, nil
	}
	keep, err := f.Program.Match(product, item, rctx)
	if err != nil {
		return false, err
	}
	return !keep, nil
}
