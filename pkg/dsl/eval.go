package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/shoprec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("product", cel.DynType),
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("user_label", cel.DynType),
		cel.Variable("user_id", cel.StringType),
	)
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Program 是编译好的候选资格表达式（CEL, Common Expression Language）。
// 编译一次，可被多个 worker 并发求值。
//
// 可用变量：
//   - product.id / product.name / product.category / product.price / product.description
//   - item.id / item.score
//   - label.<key>：候选 label 的 value，例如 label.recall_source
//   - user_label.<key>：用户级 label 的 value，例如 user_label.cold_start
//   - user_id
//
// 示例：
//   - `product.price > 0.0`
//   - `product.category != "Gift Card"`
//   - `label.recall_source.contains("recall.content") || item.score >= 2.0`
//   - `has(user_label.cold_start) || product.price < 100.0`
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式。空表达式返回 nil Program，Match 恒为 true。
func Compile(expr string) (*Program, error) {
	if expr == "" {
		return nil, nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	if ast.OutputType() != cel.BoolType && ast.OutputType() != cel.DynType {
		return nil, fmt.Errorf("expression must return bool, got %s", ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// String 返回原始表达式。
func (p *Program) String() string {
	if p == nil {
		return ""
	}
	return p.expr
}

// Match 对候选求值，返回布尔结果。
func (p *Program) Match(product core.Product, item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if p == nil {
		return true, nil
	}

	out, _, err := p.prg.Eval(buildInput(product, item, rctx))
	if err != nil {
		// 访问不存在的 label 会报错，表达式应使用 has(label.key) 或 label.key != null 判断
		return false, fmt.Errorf("eval error: %w", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(product core.Product, item *core.Item, rctx *core.RecommendContext) map[string]any {
	userID := ""
	if rctx != nil {
		userID = rctx.UserID
	}
	labels := make(map[string]any)
	itemInput := map[string]any{"id": product.ID, "score": 0.0}
	if item != nil {
		for k, v := range item.Labels {
			labels[k] = v.Value
		}
		itemInput["id"] = item.ID
		itemInput["score"] = item.Score
	}

	return map[string]any{
		"product": map[string]any{
			"id":          product.ID,
			"name":        product.Name,
			"category":    product.Category,
			"price":       product.Price,
			"description": product.Description,
		},
		"item":       itemInput,
		"label":      labels,
		"user_label": rctx.LabelValues(),
		"user_id":    userID,
	}
}
