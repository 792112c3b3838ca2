package filter

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/rushteam/shoprec/core"
)

func testDataset() *core.Dataset {
	return core.NewDataset(
		[]core.Product{
			{ID: "P1", Category: "Book", Price: 10},
			{ID: "P2", Category: "Book", Price: 0},
			{ID: "P3", Category: "Electronics", Price: 99},
		},
		[]core.User{{ID: "U1"}},
		[]core.Interaction{
			{UserID: "U1", ProductID: "P1", Type: core.InteractionPurchase, Timestamp: time.Unix(1, 0)},
			{UserID: "U1", ProductID: "P3", Type: core.InteractionView, Timestamp: time.Unix(2, 0)},
		},
	)
}

func items(ids ...string) []*core.Item {
	out := make([]*core.Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, core.NewItem(id))
	}
	return out
}

type errFilter struct{}

func (errFilter) Name() string { return "filter.err" }
func (errFilter) ShouldFilter(context.Context, *core.RecommendContext, *core.Item) (bool, error) {
	return true, errors.New("boom")
}

func TestFilterNode(t *testing.T) {
	ds := testDataset()
	expr, err := NewExprFilter(ds, "product.price > 0.0")
	if err != nil {
		t.Fatalf("NewExprFilter: %v", err)
	}

	tests := []struct {
		name    string
		filters []Filter
		in      []string
		want    []string
	}{
		{"no filters", nil, []string{"P1", "P404"}, []string{"P1", "P404"}},
		{"catalog", []Filter{&CatalogFilter{Dataset: ds}}, []string{"P404", "P2", "P3"}, []string{"P2", "P3"}},
		{"purchased", []Filter{&PurchasedFilter{Dataset: ds}}, []string{"P1", "P2", "P3"}, []string{"P2", "P3"}},
		{"expr", []Filter{expr}, []string{"P1", "P2", "P3"}, []string{"P1", "P3"}},
		{"filter error keeps item", []Filter{errFilter{}}, []string{"P1"}, []string{"P1"}},
		{
			"combined",
			[]Filter{&CatalogFilter{Dataset: ds}, &PurchasedFilter{Dataset: ds}, expr},
			[]string{"P1", "P2", "P3", "P404"},
			[]string{"P3"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var removed []string
			n := &FilterNode{
				Filters:    tt.filters,
				OnFiltered: func(_ string, it *core.Item) { removed = append(removed, it.ID) },
			}
			out, err := n.Process(context.Background(), &core.RecommendContext{UserID: "U1"}, items(tt.in...))
			if err != nil {
				t.Fatalf("Process: %v", err)
			}
			if got := core.ItemIDs(out); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Process = %v, want %v", got, tt.want)
			}
			if len(removed)+len(tt.want) != len(tt.in) {
				t.Errorf("OnFiltered saw %v", removed)
			}
		})
	}
}

func TestNewExprFilter_Empty(t *testing.T) {
	f, err := NewExprFilter(testDataset(), "")
	if err != nil || f != nil {
		t.Errorf("NewExprFilter(\"\") = %v, %v; want nil, nil", f, err)
	}
	if _, err := NewExprFilter(testDataset(), "product.price >"); err == nil {
		t.Error("expected compile error")
	}
}

func TestPurchasedFilter_MemoizedPerUser(t *testing.T) {
	f := &PurchasedFilter{Dataset: testDataset()}
	rctx := &core.RecommendContext{UserID: "U1"}
	ctx := context.Background()

	for _, id := range []string{"P1", "P2", "P3"} {
		if _, err := f.ShouldFilter(ctx, rctx, core.NewItem(id)); err != nil {
			t.Fatalf("ShouldFilter(%s): %v", id, err)
		}
	}

	// 购买集合已在第一个候选时计算好，之后不再重建
	owned := rctx.Memo(purchasedMemoKey, func() any {
		t.Fatal("purchased set rebuilt")
		return nil
	}).(map[string]struct{})
	if _, ok := owned["P1"]; !ok || len(owned) != 1 {
		t.Errorf("memoized purchased set = %v, want {P1}", owned)
	}

	// 不同用户使用各自的 RecommendContext
	other := &core.RecommendContext{UserID: "U9"}
	if drop, _ := f.ShouldFilter(ctx, other, core.NewItem("P1")); drop {
		t.Error("P1 filtered for a user who never bought it")
	}
}
