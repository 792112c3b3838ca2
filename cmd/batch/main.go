// Command batch 训练隐因子模型，为全部用户预计算混合推荐并覆盖写入缓存。
//
// 一次运行一次（cron/手动触发），失败时以非零状态码退出。
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/rushteam/shoprec/config"
	"github.com/rushteam/shoprec/pkg/logging"
	"github.com/rushteam/shoprec/service"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: $CONFIG_PATH or ./config.yaml)")
	topN := flag.Int("top-n", 0, "override batch.top_n")
	flag.Parse()

	if err := run(*configPath, *topN); err != nil {
		os.Exit(1)
	}
}

func run(configPath string, topN int) error {
	// .env 不存在时忽略
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		l := logging.Logger()
		l.Error().Err(err).Msg("load config")
		return err
	}
	if topN > 0 {
		cfg.Batch.TopN = topN
	}
	logging.Init(cfg.Log)
	logger := logging.Component("batch")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, closeSource, err := cfg.OpenSource(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("open data source")
		return err
	}
	defer closeSource()

	kv, err := cfg.OpenCache()
	if err != nil {
		logger.Error().Err(err).Str("backend", cfg.Cache.Backend).Msg("open cache")
		return err
	}
	defer kv.Close()

	job := &service.BatchJob{
		Source: src,
		Cache:  service.NewRecommendationCache(kv),
		Opts:   cfg.BatchOptions(),
		Logger: logger,
	}
	_, err = job.Run(ctx)
	return err
}
