// Command server 对外提供在线推荐接口：只读缓存，补全商品详情、解释与社交证明。
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rushteam/shoprec/config"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/logging"
	"github.com/rushteam/shoprec/server"
	"github.com/rushteam/shoprec/service"
	"github.com/rushteam/shoprec/source"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: $CONFIG_PATH or ./config.yaml)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		os.Exit(1)
	}
}

func run(configPath string) error {
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		l := logging.Logger()
		l.Error().Err(err).Msg("load config")
		return err
	}
	logging.Init(cfg.Log)
	logger := logging.Component("serving")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 进程启动时加载一次数据快照；加载失败时仍启动，请求返回 500
	var ds *core.Dataset
	src, closeSource, err := cfg.OpenSource(ctx)
	if err == nil {
		ds, err = source.Load(ctx, src, logging.Component("source"))
		_ = closeSource()
	}
	if err != nil {
		logger.Error().Err(err).Msg("data loading failed, serving will report data unavailable")
	}

	kv, err := cfg.OpenCache()
	if err != nil {
		logger.Error().Err(err).Str("backend", cfg.Cache.Backend).Msg("open cache")
		return err
	}
	defer kv.Close()

	fb, err := cfg.NewFeedback(logging.Component("feedback"))
	if err != nil {
		logger.Error().Err(err).Msg("create feedback collector")
		return err
	}
	defer fb.Close()

	svc := &service.RecommendService{
		Dataset:   ds,
		Cache:     service.NewRecommendationCache(kv),
		Explainer: cfg.NewExplainer(logging.Component("explain")),
		Feedback:  fb,
		Logger:    logger,
	}
	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: server.New(svc, server.Options{
			DefaultCount: cfg.Server.DefaultCount,
			RateLimit:    cfg.Server.RateLimit,
		}, logger).Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server failed")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
