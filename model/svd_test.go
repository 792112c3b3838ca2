package model

import (
	"context"
	"math"
	"testing"

	"github.com/rushteam/shoprec/core"
)

func trainingRatings() []core.Rating {
	return []core.Rating{
		{UserID: "U1", ProductID: "P1", Value: 3},
		{UserID: "U1", ProductID: "P2", Value: 3},
		{UserID: "U2", ProductID: "P1", Value: 3},
		{UserID: "U2", ProductID: "P3", Value: 1},
		{UserID: "U3", ProductID: "P2", Value: 2},
		{UserID: "U3", ProductID: "P3", Value: 1},
		{UserID: "U3", ProductID: "P3", Value: 1},
	}
}

func TestTrainSVD_Empty(t *testing.T) {
	_, err := TrainSVD(context.Background(), nil, DefaultSVDConfig())
	if !core.IsModelUnavailable(err) {
		t.Fatalf("TrainSVD(nil) err = %v, want ErrModelUnavailable", err)
	}
}

func TestTrainSVD_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SVDConfig)
	}{
		{"zero factors", func(c *SVDConfig) { c.Factors = 0 }},
		{"zero learning rate", func(c *SVDConfig) { c.LearningRate = 0 }},
		{"learning rate above one", func(c *SVDConfig) { c.LearningRate = 5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSVDConfig()
			tt.mutate(&cfg)
			if _, err := TrainSVD(context.Background(), trainingRatings(), cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestTrainSVD_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := TrainSVD(ctx, trainingRatings(), DefaultSVDConfig()); err == nil {
		t.Fatal("expected context error")
	}
}

func TestSVD_PredictRange(t *testing.T) {
	m, err := TrainSVD(context.Background(), trainingRatings(), DefaultSVDConfig())
	if err != nil {
		t.Fatalf("TrainSVD: %v", err)
	}

	tests := []struct {
		name    string
		user    string
		product string
	}{
		{"known pair", "U1", "P1"},
		{"unobserved pair", "U1", "P3"},
		{"unknown user", "U404", "P1"},
		{"unknown product", "U1", "P404"},
		{"both unknown", "U404", "P404"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Predict(tt.user, tt.product)
			if math.IsNaN(got) || got < core.MinWeight || got > core.MaxWeight {
				t.Errorf("Predict(%s, %s) = %v, want within [1, 3]", tt.user, tt.product, got)
			}
		})
	}

	if got := m.Predict("U404", "P404"); got != clip(m.GlobalMean(), 1, 3) {
		t.Errorf("both unknown = %v, want global mean %v", got, m.GlobalMean())
	}
}

func TestSVD_PredictNonFinite(t *testing.T) {
	m, err := TrainSVD(context.Background(), trainingRatings(), DefaultSVDConfig())
	if err != nil {
		t.Fatalf("TrainSVD: %v", err)
	}
	m.userFactor[m.userIndex["U1"]][0] = math.NaN()
	m.itemBias[m.itemIndex["P2"]] = math.Inf(1)

	tests := []struct {
		product string
		want    float64
	}{
		{"P1", clip(m.GlobalMean(), 1, 3)},
		{"P2", clip(m.GlobalMean(), 1, 3)},
	}
	for _, tt := range tests {
		t.Run(tt.product, func(t *testing.T) {
			if got := m.Predict("U1", tt.product); got != tt.want {
				t.Errorf("Predict(U1, %s) = %v, want %v", tt.product, got, tt.want)
			}
		})
	}

	m.globalMean = math.NaN()
	if got := m.Predict("U1", "P1"); got != core.MinWeight {
		t.Errorf("NaN mean Predict = %v, want %v", got, core.MinWeight)
	}
}

func TestSVD_LearnsPreference(t *testing.T) {
	cfg := DefaultSVDConfig()
	cfg.Epochs = 200
	cfg.LearningRate = 0.01
	m, err := TrainSVD(context.Background(), trainingRatings(), cfg)
	if err != nil {
		t.Fatalf("TrainSVD: %v", err)
	}
	// P1 全是高分，P3 全是低分
	if m.Predict("U3", "P1") <= m.Predict("U3", "P3") {
		t.Errorf("expected P1 > P3 for U3: %v vs %v", m.Predict("U3", "P1"), m.Predict("U3", "P3"))
	}
}

func TestSVD_Deterministic(t *testing.T) {
	a, _ := TrainSVD(context.Background(), trainingRatings(), DefaultSVDConfig())
	b, _ := TrainSVD(context.Background(), trainingRatings(), DefaultSVDConfig())
	for _, u := range []string{"U1", "U2", "U3"} {
		for _, p := range []string{"P1", "P2", "P3"} {
			if a.Predict(u, p) != b.Predict(u, p) {
				t.Fatalf("non-deterministic prediction for (%s, %s)", u, p)
			}
		}
	}
	users, items := a.Size()
	if users != 3 || items != 3 {
		t.Errorf("Size() = (%d, %d), want (3, 3)", users, items)
	}
	if !a.KnowsUser("U1") || a.KnowsItem("P404") {
		t.Error("KnowsUser/KnowsItem mismatch")
	}
}
