package config

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/explain"
	"github.com/rushteam/shoprec/feedback"
	"github.com/rushteam/shoprec/service"
	"github.com/rushteam/shoprec/source"
	"github.com/rushteam/shoprec/store"
)

// OpenCache 按 cache.backend 打开缓存后端。
func (c *Config) OpenCache() (core.KeyValueStore, error) {
	switch c.Cache.Backend {
	case CacheRedis:
		return store.NewRedisStoreFromURL(c.Cache.RedisURL)
	case CacheBadger:
		return store.NewBadgerStore(c.Cache.BadgerPath)
	case CacheMemory:
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", c.Cache.Backend)
	}
}

// OpenSource 按 source.kind 打开数据源，返回的 close 函数释放连接。
func (c *Config) OpenSource(ctx context.Context) (source.Source, func() error, error) {
	noop := func() error { return nil }
	switch c.Source.Kind {
	case SourceFile:
		return &source.FileSource{Dir: c.Source.Path}, noop, nil
	case SourcePostgres:
		pg, err := source.NewPostgresSource(ctx, c.Source.DSN)
		if err != nil {
			return nil, noop, fmt.Errorf("%w: %v", core.ErrDataUnavailable, err)
		}
		return pg, pg.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown source kind: %s", c.Source.Kind)
	}
}

// BatchOptions 转换为批处理参数。
func (c *Config) BatchOptions() service.BatchOptions {
	return service.BatchOptions{
		TopN:        c.Batch.TopN,
		Workers:     c.Batch.Workers,
		Eligibility: c.Batch.Eligibility,
		CacheTTL:    c.Batch.CacheTTL,
		Model:       c.Model,
	}
}

// NewExplainer 创建解释生成器；未配置 endpoint 时只返回占位文案。
func (c *Config) NewExplainer(logger zerolog.Logger) *explain.Explainer {
	var gen explain.Generator
	if c.Explain.Endpoint != "" {
		gen = explain.NewHTTPGenerator(c.Explain.Endpoint, c.Explain.Timeout)
	}
	return explain.NewExplainer(gen, explain.BreakerOptions{
		Timeout:          c.Explain.Timeout,
		FailureThreshold: c.Explain.FailureThreshold,
		OpenTimeout:      c.Explain.OpenTimeout,
	}, logger)
}

// NewFeedback 创建曝光采集器；未配置 brokers 时不上报。
func (c *Config) NewFeedback(logger zerolog.Logger) (feedback.Collector, error) {
	if len(c.Feedback.Brokers) == 0 {
		return feedback.NoopCollector{}, nil
	}
	return feedback.NewKafkaCollector(feedback.KafkaCollectorConfig{
		Brokers: c.Feedback.Brokers,
		Topic:   c.Feedback.Topic,
	}, logger)
}
