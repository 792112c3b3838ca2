package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/explain"
	"github.com/rushteam/shoprec/feedback"
	"github.com/rushteam/shoprec/pkg/metrics"
)

// DefaultCount 是在线请求未指定数量时返回的推荐条数。
const DefaultCount = 3

// RecommendedProduct 是在线返回的一条推荐：商品属性 + 解释 + 可选社交证明。
type RecommendedProduct struct {
	core.Product
	Explanation string `json:"explanation"`
	SocialProof string `json:"social_proof,omitempty"`
}

// RecommendService 是在线推荐适配器，只读缓存，从不同步计算候选。
//
// 未知用户返回 core.ErrUserNotFound；缓存不可达返回 core.ErrCacheUnavailable；
// 已知用户没有缓存结果时返回空列表。
type RecommendService struct {
	Dataset   *core.Dataset
	Cache     *RecommendationCache
	Explainer *explain.Explainer
	Feedback  feedback.Collector
	Logger    zerolog.Logger
}

// Recommend 返回用户的前 count 条推荐（count<=0 使用 DefaultCount）。
func (s *RecommendService) Recommend(ctx context.Context, userID string, count int) ([]RecommendedProduct, error) {
	if s.Dataset.Empty() {
		return nil, core.ErrDataUnavailable
	}
	if !s.Dataset.HasUser(userID) {
		return nil, fmt.Errorf("%w: %s", core.ErrUserNotFound, userID)
	}
	if count <= 0 {
		count = DefaultCount
	}

	ids, err := s.Cache.Get(ctx, userID)
	if err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		return nil, err
	}
	if len(ids) == 0 {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return []RecommendedProduct{}, nil
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()

	summary := s.Dataset.CategorySummary(userID)
	out := make([]RecommendedProduct, 0, min(count, len(ids)))
	for _, id := range ids {
		if len(out) >= count {
			break
		}
		// 缓存可能比目录旧，已下架的商品直接跳过
		p, ok := s.Dataset.Product(id)
		if !ok {
			s.Logger.Debug().Str("user_id", userID).Str("product_id", id).Msg("cached product not in catalog")
			continue
		}

		rec := RecommendedProduct{
			Product:     p,
			Explanation: s.Explainer.Explain(ctx, p, summary),
		}
		n, err := s.Cache.PurchaseCount(ctx, p.ID)
		if err != nil {
			s.Logger.Warn().Err(err).Str("product_id", p.ID).Msg("purchase count lookup failed")
		}
		rec.SocialProof = explain.SocialProof(n)
		out = append(out, rec)
	}

	if s.Feedback != nil && len(out) > 0 {
		shown := make([]string, len(out))
		for i, r := range out {
			shown[i] = r.ID
		}
		if err := s.Feedback.RecordImpression(ctx, userID, shown); err != nil {
			s.Logger.Warn().Err(err).Str("user_id", userID).Msg("record impression failed")
		}
	}
	return out, nil
}
