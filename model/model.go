package model

// Scorer 是候选生成阶段的最小抽象：给定 (用户, 商品)，输出一个可比较的亲和度分数。
// 对训练时未见过的用户或商品也必须返回尽力而为的估计，而不是报错。
type Scorer interface {
	Name() string
	Predict(userID, productID string) float64
}
