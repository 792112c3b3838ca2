package core

import (
	"reflect"
	"testing"
	"time"
)

func testDataset() *Dataset {
	ts := func(sec int) time.Time { return time.Unix(int64(sec), 0) }
	return NewDataset(
		[]Product{
			{ID: "P1", Category: "Book"},
			{ID: "P2", Category: "Book"},
			{ID: "P3", Category: "Electronics"},
			{ID: "P1", Category: "Duplicate"},
		},
		[]User{{ID: "U1"}, {ID: "U2"}, {ID: "U1", Name: "dup"}},
		[]Interaction{
			{UserID: "U1", ProductID: "P1", Type: InteractionPurchase, Timestamp: ts(1)},
			{UserID: "U1", ProductID: "P3", Type: InteractionPurchase, Timestamp: ts(3)},
			{UserID: "U1", ProductID: "P2", Type: InteractionView, Timestamp: ts(2)},
			{UserID: "U1", ProductID: "P9", Type: InteractionView, Timestamp: ts(4)},
			{UserID: "U2", ProductID: "P1", Type: InteractionPurchase, Timestamp: ts(5)},
			{UserID: "U2", ProductID: "P1", Type: InteractionPurchase, Timestamp: ts(6)},
		},
	)
}

func TestNewDataset_Dedup(t *testing.T) {
	ds := testDataset()
	if len(ds.Products()) != 3 || len(ds.Users()) != 2 {
		t.Fatalf("products=%d users=%d", len(ds.Products()), len(ds.Users()))
	}
	if p, _ := ds.Product("P1"); p.Category != "Book" {
		t.Errorf("first P1 not kept: %+v", p)
	}
	if ds.Empty() {
		t.Error("Empty() = true")
	}
	var nilDS *Dataset
	if !nilDS.Empty() || !NewDataset(nil, nil, nil).Empty() {
		t.Error("empty dataset not reported")
	}
}

func TestDataset_Queries(t *testing.T) {
	ds := testDataset()

	purchases := ds.UserPurchasesByRecency("U1")
	if len(purchases) != 2 || purchases[0].ProductID != "P3" {
		t.Errorf("UserPurchasesByRecency = %+v", purchases)
	}
	if got := ds.PurchasedProductIDs("U1"); !reflect.DeepEqual(got, map[string]struct{}{"P1": {}, "P3": {}}) {
		t.Errorf("PurchasedProductIDs = %v", got)
	}
	if got := ds.InteractedProductIDs("U1"); len(got) != 4 {
		t.Errorf("InteractedProductIDs = %v", got)
	}
	if got := ds.PurchaserCounts(); got["P1"] != 2 || got["P3"] != 1 || got["P2"] != 0 {
		t.Errorf("PurchaserCounts = %v", got)
	}
	if len(ds.UserInteractions("U404")) != 0 || ds.HasUser("U404") || !ds.HasProduct("P2") {
		t.Error("unexpected lookup result")
	}
}

func TestDataset_CategorySummary(t *testing.T) {
	ds := testDataset()
	got := ds.CategorySummary("U1")
	// P9 不在目录中，被忽略
	if len(got) != 2 {
		t.Fatalf("CategorySummary = %+v", got)
	}
	if got[0].Category != "Book" || got[0].Total() != 2 {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Category != "Electronics" || got[1].Counts[InteractionPurchase] != 1 {
		t.Errorf("second = %+v", got[1])
	}
}
