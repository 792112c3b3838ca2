package core

import (
	"sort"
)

// Dataset 是一次批处理（或一次在线进程启动）加载的只读数据快照。
// 它替代隐式的全局数据状态：构造一次，显式传给所有需要目录/交互的组件。
//
// 所有查询都是命名查询，底层是普通的索引集合；构造后不再修改，可并发读。
type Dataset struct {
	products     []Product
	users        []User
	interactions []Interaction

	productIndex map[string]int
	userIndex    map[string]int
	byUser       map[string][]int // userID -> interactions 下标（输入顺序）
}

// NewDataset 构建数据快照。商品保持传入顺序（目录顺序），重复的商品/用户 ID 只保留第一次出现。
func NewDataset(products []Product, users []User, interactions []Interaction) *Dataset {
	d := &Dataset{
		products:     make([]Product, 0, len(products)),
		users:        make([]User, 0, len(users)),
		interactions: make([]Interaction, len(interactions)),
		productIndex: make(map[string]int, len(products)),
		userIndex:    make(map[string]int, len(users)),
		byUser:       make(map[string][]int),
	}
	for _, p := range products {
		if _, dup := d.productIndex[p.ID]; dup {
			continue
		}
		d.productIndex[p.ID] = len(d.products)
		d.products = append(d.products, p)
	}
	for _, u := range users {
		if _, dup := d.userIndex[u.ID]; dup {
			continue
		}
		d.userIndex[u.ID] = len(d.users)
		d.users = append(d.users, u)
	}
	copy(d.interactions, interactions)
	for i, in := range d.interactions {
		d.byUser[in.UserID] = append(d.byUser[in.UserID], i)
	}
	return d
}

// Empty 任一集合为空即视为数据不可用。
func (d *Dataset) Empty() bool {
	return d == nil || len(d.products) == 0 || len(d.users) == 0 || len(d.interactions) == 0
}

// Products 返回目录顺序的商品列表（只读，调用方不得修改）。
func (d *Dataset) Products() []Product { return d.products }

// Users 返回用户列表（只读）。
func (d *Dataset) Users() []User { return d.users }

// Interactions 返回全部交互事件（只读）。
func (d *Dataset) Interactions() []Interaction { return d.interactions }

// Product 按 ID 查询商品。
func (d *Dataset) Product(id string) (Product, bool) {
	i, ok := d.productIndex[id]
	if !ok {
		return Product{}, false
	}
	return d.products[i], true
}

// HasProduct 判断商品是否在目录中。
func (d *Dataset) HasProduct(id string) bool {
	_, ok := d.productIndex[id]
	return ok
}

// HasUser 判断用户是否存在。
func (d *Dataset) HasUser(id string) bool {
	_, ok := d.userIndex[id]
	return ok
}

// UserInteractions 返回用户的全部交互（输入顺序）。
func (d *Dataset) UserInteractions(userID string) []Interaction {
	idx := d.byUser[userID]
	out := make([]Interaction, 0, len(idx))
	for _, i := range idx {
		out = append(out, d.interactions[i])
	}
	return out
}

// UserPurchasesByRecency 返回用户的购买记录，按时间戳降序；时间相同时保持输入顺序。
func (d *Dataset) UserPurchasesByRecency(userID string) []Interaction {
	var out []Interaction
	for _, i := range d.byUser[userID] {
		if d.interactions[i].Type == InteractionPurchase {
			out = append(out, d.interactions[i])
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Timestamp.After(out[b].Timestamp)
	})
	return out
}

// PurchasedProductIDs 返回用户购买过的商品集合。
func (d *Dataset) PurchasedProductIDs(userID string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, i := range d.byUser[userID] {
		if d.interactions[i].Type == InteractionPurchase {
			out[d.interactions[i].ProductID] = struct{}{}
		}
	}
	return out
}

// InteractedProductIDs 返回用户交互过（任意类型）的商品集合。
func (d *Dataset) InteractedProductIDs(userID string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, i := range d.byUser[userID] {
		out[d.interactions[i].ProductID] = struct{}{}
	}
	return out
}

// PurchaserCounts 返回每个商品的去重购买人数，用于社交证明文案。
func (d *Dataset) PurchaserCounts() map[string]int {
	seen := make(map[string]map[string]struct{})
	for _, in := range d.interactions {
		if in.Type != InteractionPurchase {
			continue
		}
		if seen[in.ProductID] == nil {
			seen[in.ProductID] = make(map[string]struct{})
		}
		seen[in.ProductID][in.UserID] = struct{}{}
	}
	out := make(map[string]int, len(seen))
	for pid, users := range seen {
		out[pid] = len(users)
	}
	return out
}

// CategorySummary 汇总用户按类目的交互次数，按交互总数降序、类目名升序。
// 引用不存在商品的交互被忽略。
func (d *Dataset) CategorySummary(userID string) []CategoryActivity {
	byCategory := make(map[string]*CategoryActivity)
	for _, i := range d.byUser[userID] {
		in := d.interactions[i]
		p, ok := d.Product(in.ProductID)
		if !ok {
			continue
		}
		a, ok := byCategory[p.Category]
		if !ok {
			a = &CategoryActivity{Category: p.Category, Counts: make(map[InteractionType]int)}
			byCategory[p.Category] = a
		}
		a.Counts[in.Type]++
	}
	out := make([]CategoryActivity, 0, len(byCategory))
	for _, a := range byCategory {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].Total(), out[j].Total()
		if ti != tj {
			return ti > tj
		}
		return out[i].Category < out[j].Category
	})
	return out
}
