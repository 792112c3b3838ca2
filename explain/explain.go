// Package explain 为推荐结果生成自然语言解释和社交证明文案。
//
// 解释文本来自外部文本生成服务（Generator）；服务不可用、超时或熔断时
// 一律降级为静态占位文案，绝不阻塞或打断推荐响应。
package explain

import (
	"context"
	"fmt"
	"strings"

	"github.com/rushteam/shoprec/core"
)

// Generator 是外部文本生成服务的抽象：输入 prompt，输出一段文本。
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Prompt 是一次解释请求的输入：商品属性 + 用户历史类目交互摘要。
type Prompt struct {
	Product core.Product
	Summary []core.CategoryActivity
}

// Text 渲染发给生成服务的 prompt。
func (p Prompt) Text() string {
	var b strings.Builder
	b.WriteString("You are a helpful shopping assistant. In one or two sentences, explain to the shopper ")
	b.WriteString("why the following product was recommended to them.\n\n")
	fmt.Fprintf(&b, "Product: %s\n", p.Product.Name)
	fmt.Fprintf(&b, "Category: %s\n", p.Product.Category)
	fmt.Fprintf(&b, "Price: %.2f\n", p.Product.Price)
	if p.Product.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", p.Product.Description)
	}
	b.WriteString("\nShopper's recent activity by category:\n")
	if len(p.Summary) == 0 {
		b.WriteString("- no recorded activity\n")
	}
	for _, a := range p.Summary {
		fmt.Fprintf(&b, "- %s: %s\n", a.Category, SummaryLine(a))
	}
	return b.String()
}

// SummaryLine 渲染单个类目的交互次数，例如 "2 purchase, 1 view"。
func SummaryLine(a core.CategoryActivity) string {
	parts := make([]string, 0, len(a.Counts))
	// 按权重从高到低
	types := core.InteractionTypes()
	for i := len(types) - 1; i >= 0; i-- {
		if n := a.Counts[types[i]]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, types[i]))
		}
	}
	return strings.Join(parts, ", ")
}

// Placeholder 返回生成服务不可用时的静态解释。
func Placeholder(p core.Product) string {
	return fmt.Sprintf("This product is in the %s category, which aligns with your recent activity.", p.Category)
}

// SocialProof 渲染社交证明文案；n <= 0 时返回空字符串（不展示）。
func SocialProof(n int) string {
	switch {
	case n <= 0:
		return ""
	case n == 1:
		return "1 shopper purchased this"
	default:
		return fmt.Sprintf("%d shoppers purchased this", n)
	}
}
