package core

import "time"

// Product 是商品目录中的一条记录。
// 由数据导入创建，之后只读；目录顺序（Dataset.Products 的顺序）即“热门”兜底顺序。
type Product struct {
	ID          string  `json:"product_id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
}

// User 是用户参考数据，只读。
type User struct {
	ID        string    `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Interaction 是只追加的交互事件，按时间戳排序有意义（兜底逻辑按最近优先）。
type Interaction struct {
	ID        int64           `json:"interaction_id"`
	UserID    string          `json:"user_id"`
	ProductID string          `json:"product_id"`
	Type      InteractionType `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
}

// CategoryActivity 汇总用户在某个类目下各类型交互的次数，用于生成推荐解释。
type CategoryActivity struct {
	Category string
	Counts   map[InteractionType]int
}

// Total 返回该类目下的交互总数。
func (a CategoryActivity) Total() int {
	n := 0
	for _, c := range a.Counts {
		n += c
	}
	return n
}
