package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/filter"
	"github.com/rushteam/shoprec/model"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/metrics"
	"github.com/rushteam/shoprec/recall"
	"github.com/rushteam/shoprec/rerank"
	"github.com/rushteam/shoprec/source"
)

// BatchOptions 是批处理参数。
type BatchOptions struct {
	TopN        int
	Workers     int
	Eligibility string
	CacheTTL    time.Duration
	Model       model.SVDConfig
}

// RunReport 汇总一次批处理运行。
type RunReport struct {
	RunID        string
	Users        int
	Cached       int // 写入非空列表的用户数
	Empty        int // 没有任何候选的用户数（key 被删除）
	ColdStart    int // 没有任何交互、完全依赖热门兜底的用户数
	ModelTrained bool
	ModelUnknown int // 模型训练集中未出现的用户数，只能拿到兜底候选
	Duration     time.Duration
}

// BatchJob 是离线混合推荐批处理：
//
//	加载数据 → 训练一次隐因子模型 → 每个用户并发跑 Pipeline → 覆盖写入缓存
//
// 模型与数据快照在所有 worker 间只读共享；全部用户计算完成后再分批写入缓存，
// 计算失败时缓存保持上一轮的内容。
// 数据不可用或缓存不可达时整体失败；模型无法训练时降级为仅兜底。
type BatchJob struct {
	Source source.Source
	Cache  *RecommendationCache
	Opts   BatchOptions
	Logger zerolog.Logger
}

// Run 执行一次完整的批处理。
func (j *BatchJob) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{RunID: uuid.NewString()}
	logger := j.Logger.With().Str("run_id", report.RunID).Logger()
	start := time.Now()
	defer func() {
		report.Duration = time.Since(start)
		metrics.BatchDuration.Observe(report.Duration.Seconds())
	}()

	logger.Info().Int("top_n", j.topN()).Int("workers", j.workers()).Msg("batch run started")

	ds, err := source.Load(ctx, j.Source, logger)
	if err != nil {
		metrics.BatchRuns.WithLabelValues("data_unavailable").Inc()
		logger.Error().Err(err).Msg("batch run aborted: data unavailable")
		return report, err
	}

	m, err := j.train(ctx, ds, logger)
	if err != nil {
		metrics.BatchRuns.WithLabelValues("error").Inc()
		return report, err
	}
	var scorer model.Scorer
	if m != nil {
		scorer = m
		report.ModelTrained = true
		for _, u := range ds.Users() {
			if !m.KnowsUser(u.ID) {
				report.ModelUnknown++
			}
		}
	}

	p, err := BuildPipeline(ds, scorer, j.Opts.Eligibility, logger)
	if err != nil {
		metrics.BatchRuns.WithLabelValues("error").Inc()
		return report, err
	}

	if j.Opts.CacheTTL > 0 {
		j.Cache.TTL = int(j.Opts.CacheTTL / time.Second)
	}

	var (
		mu        sync.Mutex
		lists     = make(map[string][]string, len(ds.Users()))
		coldStart atomic.Int64
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(j.workers())
	for _, u := range ds.Users() {
		eg.Go(func() error {
			rctx := &core.RecommendContext{UserID: u.ID, TopN: j.topN()}
			ids, err := RecommendFor(egCtx, p, rctx)
			if err != nil {
				return fmt.Errorf("user %s: %w", u.ID, err)
			}
			if _, ok := rctx.GetLabel("cold_start"); ok {
				coldStart.Add(1)
			}
			mu.Lock()
			lists[u.ID] = ids
			mu.Unlock()
			logger.Debug().Str("user_id", u.ID).Strs("recommendations", ids).Msg("user computed")
			return nil
		})
	}
	report.Users = len(ds.Users())
	if err := eg.Wait(); err != nil {
		metrics.BatchRuns.WithLabelValues("error").Inc()
		logger.Error().Err(err).Msg("batch run aborted")
		return report, err
	}
	report.ColdStart = int(coldStart.Load())

	if err := j.Cache.PutAll(ctx, lists); err != nil {
		metrics.BatchRuns.WithLabelValues("cache_unavailable").Inc()
		logger.Error().Err(err).Msg("write recommendations failed")
		return report, err
	}
	for _, ids := range lists {
		if len(ids) == 0 {
			report.Empty++
			metrics.UsersProcessed.WithLabelValues("empty").Inc()
		} else {
			report.Cached++
			metrics.UsersProcessed.WithLabelValues("cached").Inc()
		}
	}

	if err := j.Cache.PutPurchaseCounts(ctx, ds.PurchaserCounts()); err != nil {
		metrics.BatchRuns.WithLabelValues("cache_unavailable").Inc()
		logger.Error().Err(err).Msg("write purchase counts failed")
		return report, err
	}

	metrics.BatchRuns.WithLabelValues("success").Inc()
	logger.Info().
		Int("users", report.Users).
		Int("cached", report.Cached).
		Int("empty", report.Empty).
		Int("cold_start", report.ColdStart).
		Bool("model_trained", report.ModelTrained).
		Int("model_unknown_users", report.ModelUnknown).
		Dur("elapsed", time.Since(start)).
		Msg("batch run finished")
	return report, nil
}

// train 训练一次模型。没有可用评分时返回 (nil, nil)，由兜底承担全部候选。
func (j *BatchJob) train(ctx context.Context, ds *core.Dataset, logger zerolog.Logger) (*model.SVD, error) {
	cfg := j.Opts.Model
	if cfg.Factors == 0 {
		cfg = model.DefaultSVDConfig()
	}

	start := time.Now()
	ratings := core.WeightedRatings(ds.Interactions())
	m, err := model.TrainSVD(ctx, ratings, cfg)
	metrics.ModelTrainDuration.Observe(time.Since(start).Seconds())
	if errors.Is(err, core.ErrModelUnavailable) {
		logger.Warn().Msg("no weighted interactions, continuing with fallback only")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("train model: %w", err)
	}

	users, items := m.Size()
	unknownItems := 0
	for _, p := range ds.Products() {
		if !m.KnowsItem(p.ID) {
			unknownItems++
		}
	}
	logger.Info().
		Int("ratings", len(ratings)).
		Int("users", users).
		Int("items", items).
		Int("unrated_products", unknownItems).
		Float64("global_mean", m.GlobalMean()).
		Dur("elapsed", time.Since(start)).
		Msg("model trained")
	return m, nil
}

func (j *BatchJob) topN() int {
	if j.Opts.TopN <= 0 {
		return core.DefaultTopN
	}
	return j.Opts.TopN
}

func (j *BatchJob) workers() int {
	if j.Opts.Workers <= 0 {
		return core.DefaultWorkers
	}
	return j.Opts.Workers
}

// BuildPipeline 构建单用户混合推荐链路：
//
//	Fanout[内容兜底, 隐因子模型] → Filter[目录, 已购, 资格表达式] → TopN
//
// scorer 为 nil 时只有兜底一个候选源。
func BuildPipeline(ds *core.Dataset, scorer model.Scorer, eligibility string, logger zerolog.Logger) (*pipeline.Pipeline, error) {
	sources := []recall.Source{&recall.ContentFallback{Dataset: ds}}
	if scorer != nil {
		sources = append(sources, &recall.MFRecall{Model: scorer, Dataset: ds})
	}

	filters := []filter.Filter{
		&filter.CatalogFilter{Dataset: ds},
		&filter.PurchasedFilter{Dataset: ds},
	}
	expr, err := filter.NewExprFilter(ds, eligibility)
	if err != nil {
		return nil, fmt.Errorf("eligibility expression: %w", err)
	}
	if expr != nil {
		filters = append(filters, expr)
	}

	return &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			&recall.Fanout{
				Sources: sources,
				OnError: func(src string, err error) {
					metrics.RecallErrors.WithLabelValues(src).Inc()
					logger.Warn().Str("source", src).Err(err).Msg("candidate source failed")
				},
			},
			&filter.FilterNode{
				Filters: filters,
				OnError: func(f string, item *core.Item, err error) {
					logger.Warn().Str("filter", f).Str("product_id", item.ID).Err(err).Msg("filter failed")
				},
				OnFiltered: func(f string, _ *core.Item) {
					metrics.CandidatesFiltered.WithLabelValues(f).Inc()
				},
			},
			&rerank.TopNNode{},
		},
		Observer: func(node pipeline.Node, _, _ int, elapsed time.Duration) {
			metrics.NodeDuration.WithLabelValues(node.Name(), string(node.Kind())).Observe(elapsed.Seconds())
		},
	}, nil
}

// RecommendFor 对单个用户执行 Pipeline，返回最终的商品 ID 列表（可能为空）。
// 召回阶段写入的用户级 label（如 cold_start）留在 rctx 上供调用方读取。
func RecommendFor(ctx context.Context, p *pipeline.Pipeline, rctx *core.RecommendContext) ([]string, error) {
	items, err := p.Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}
	return core.ItemIDs(items), nil
}
