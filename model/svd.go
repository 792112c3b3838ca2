package model

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/rushteam/shoprec/core"
)

// SVDConfig 是带偏置的矩阵分解（Funk SVD）训练参数。
type SVDConfig struct {
	Factors        int     `koanf:"factors" validate:"gt=0"`
	Epochs         int     `koanf:"epochs" validate:"gt=0"`
	LearningRate   float64 `koanf:"learning_rate" validate:"gt=0,lte=1"`
	Regularization float64 `koanf:"regularization" validate:"gte=0"`
	InitMean       float64 `koanf:"init_mean"`
	InitStd        float64 `koanf:"init_std" validate:"gte=0"`
	Seed           int64   `koanf:"seed"`

	// 预测值裁剪区间，默认为交互权重范围 [1, 3]
	MinRating float64 `koanf:"min_rating"`
	MaxRating float64 `koanf:"max_rating"`
}

// DefaultSVDConfig 返回默认训练参数。
func DefaultSVDConfig() SVDConfig {
	return SVDConfig{
		Factors:        100,
		Epochs:         20,
		LearningRate:   0.005,
		Regularization: 0.02,
		InitMean:       0,
		InitStd:        0.1,
		Seed:           42,
		MinRating:      core.MinWeight,
		MaxRating:      core.MaxWeight,
	}
}

// SVD 是训练好的隐因子模型。
//
// 预测公式：
//
//	r̂(u, i) = μ + b_u + b_i + p_u · q_i
//
// 未见过的用户：b_u 与 p_u 视为 0；未见过的商品同理。
// 结果裁剪到 [MinRating, MaxRating]，非有限值退回 μ。
//
// 模型只存在于一次批处理的内存中，训练完成后只读，可被多个 worker 并发使用。
type SVD struct {
	cfg SVDConfig

	globalMean float64
	userIndex  map[string]int
	itemIndex  map[string]int
	userBias   []float64
	itemBias   []float64
	userFactor [][]float64
	itemFactor [][]float64
}

// TrainSVD 使用随机梯度下降在全部评分上训练（不留出验证集）。
// ratings 为空时返回 core.ErrModelUnavailable；ctx 在每个 epoch 之间检查。
//
// 同一 (用户, 商品) 的多条评分全部参与训练，按输入顺序遍历，
// 配合固定的 Seed，训练结果完全可复现。
func TrainSVD(ctx context.Context, ratings []core.Rating, cfg SVDConfig) (*SVD, error) {
	if len(ratings) == 0 {
		return nil, core.ErrModelUnavailable
	}
	if cfg.Factors <= 0 || cfg.Epochs <= 0 || cfg.LearningRate <= 0 || cfg.LearningRate > 1 {
		return nil, fmt.Errorf("svd: invalid config factors=%d epochs=%d lr=%g",
			cfg.Factors, cfg.Epochs, cfg.LearningRate)
	}
	if cfg.MinRating == 0 && cfg.MaxRating == 0 {
		cfg.MinRating, cfg.MaxRating = core.MinWeight, core.MaxWeight
	}

	m := &SVD{
		cfg:       cfg,
		userIndex: make(map[string]int),
		itemIndex: make(map[string]int),
	}

	type sample struct {
		u, i int
		r    float64
	}
	samples := make([]sample, 0, len(ratings))
	var sum float64
	for _, r := range ratings {
		u, ok := m.userIndex[r.UserID]
		if !ok {
			u = len(m.userIndex)
			m.userIndex[r.UserID] = u
		}
		i, ok := m.itemIndex[r.ProductID]
		if !ok {
			i = len(m.itemIndex)
			m.itemIndex[r.ProductID] = i
		}
		samples = append(samples, sample{u: u, i: i, r: r.Value})
		sum += r.Value
	}
	m.globalMean = sum / float64(len(samples))

	rng := rand.New(rand.NewSource(cfg.Seed))
	m.userBias = make([]float64, len(m.userIndex))
	m.itemBias = make([]float64, len(m.itemIndex))
	m.userFactor = initFactors(rng, len(m.userIndex), cfg)
	m.itemFactor = initFactors(rng, len(m.itemIndex), cfg)

	lr, reg := cfg.LearningRate, cfg.Regularization
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, s := range samples {
			pu, qi := m.userFactor[s.u], m.itemFactor[s.i]
			err := s.r - (m.globalMean + m.userBias[s.u] + m.itemBias[s.i] + dot(pu, qi))

			m.userBias[s.u] += lr * (err - reg*m.userBias[s.u])
			m.itemBias[s.i] += lr * (err - reg*m.itemBias[s.i])
			for f := range pu {
				puf, qif := pu[f], qi[f]
				pu[f] += lr * (err*qif - reg*puf)
				qi[f] += lr * (err*puf - reg*qif)
			}
		}
	}
	return m, nil
}

func initFactors(rng *rand.Rand, n int, cfg SVDConfig) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		v := make([]float64, cfg.Factors)
		for f := range v {
			v[f] = cfg.InitMean + rng.NormFloat64()*cfg.InitStd
		}
		out[i] = v
	}
	return out
}

func (m *SVD) Name() string { return "svd" }

// Predict 估计用户对商品的亲和度。
func (m *SVD) Predict(userID, productID string) float64 {
	est := m.globalMean
	u, knownUser := m.userIndex[userID]
	i, knownItem := m.itemIndex[productID]
	if knownUser {
		est += m.userBias[u]
	}
	if knownItem {
		est += m.itemBias[i]
	}
	if knownUser && knownItem {
		est += dot(m.userFactor[u], m.itemFactor[i])
	}
	// 训练发散时参数可能出现 NaN/Inf，退回全局均值
	if math.IsNaN(est) || math.IsInf(est, 0) {
		est = m.globalMean
	}
	return clip(est, m.cfg.MinRating, m.cfg.MaxRating)
}

// GlobalMean 返回训练集评分均值。
func (m *SVD) GlobalMean() float64 { return m.globalMean }

// KnowsUser 判断用户是否出现在训练集中。
func (m *SVD) KnowsUser(userID string) bool {
	_, ok := m.userIndex[userID]
	return ok
}

// KnowsItem 判断商品是否出现在训练集中。
func (m *SVD) KnowsItem(productID string) bool {
	_, ok := m.itemIndex[productID]
	return ok
}

// Size 返回训练集中的用户数与商品数。
func (m *SVD) Size() (users, items int) {
	return len(m.userIndex), len(m.itemIndex)
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// clip 把 v 限制在 [lo, hi]，NaN 视为 lo。
func clip(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

var _ Scorer = (*SVD)(nil)
