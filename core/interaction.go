package core

import "strings"

// InteractionType 是交互类型的闭集：view / add_to_cart / purchase。
type InteractionType string

const (
	InteractionView      InteractionType = "view"
	InteractionAddToCart InteractionType = "add_to_cart"
	InteractionPurchase  InteractionType = "purchase"
)

// InteractionTypes 返回闭集中的全部类型（按权重升序）。
func InteractionTypes() []InteractionType {
	return []InteractionType{InteractionView, InteractionAddToCart, InteractionPurchase}
}

// ParseInteractionType 解析交互类型。只接受闭集中的值（允许首尾空白），
// 不做任何猜测：'purchased'、'addd_to_cart' 之类的历史写法一律返回 false。
func ParseInteractionType(s string) (InteractionType, bool) {
	t := InteractionType(strings.TrimSpace(s))
	if !t.Valid() {
		return "", false
	}
	return t, true
}

// Valid 判断类型是否属于闭集。
func (t InteractionType) Valid() bool {
	_, ok := t.Weight()
	return ok
}

// Weight 返回隐式反馈权重：view=1, add_to_cart=2, purchase=3。
// 闭集之外的类型返回 (0, false)，该记录不进入模型训练。
func (t InteractionType) Weight() (float64, bool) {
	switch t {
	case InteractionView:
		return 1, true
	case InteractionAddToCart:
		return 2, true
	case InteractionPurchase:
		return 3, true
	default:
		return 0, false
	}
}

// 权重范围，供模型裁剪预测值
const (
	MinWeight = 1.0
	MaxWeight = 3.0
)

// Rating 是 (用户, 商品) → 加权分数 的派生记录，只在一次批处理中存在。
type Rating struct {
	UserID    string
	ProductID string
	Value     float64
}

// WeightedRatings 把交互事件映射为加权评分。
// 同一 (用户, 商品) 的多条事件不做聚合，全部保留；无法映射的类型被丢弃。
func WeightedRatings(interactions []Interaction) []Rating {
	out := make([]Rating, 0, len(interactions))
	for _, in := range interactions {
		w, ok := in.Type.Weight()
		if !ok {
			continue
		}
		out = append(out, Rating{UserID: in.UserID, ProductID: in.ProductID, Value: w})
	}
	return out
}
