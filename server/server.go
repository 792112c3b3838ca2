// Package server 提供在线推荐的 HTTP 接口（chi 路由）。
//
//	GET /                              健康检查
//	GET /recommendations/{user_id}     ?count=N，默认 Options.DefaultCount
//	GET /metrics                       Prometheus 指标
package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/metrics"
	"github.com/rushteam/shoprec/service"
)

// Recommender 是 HTTP 层依赖的推荐接口，由 service.RecommendService 实现。
type Recommender interface {
	Recommend(ctx context.Context, userID string, count int) ([]service.RecommendedProduct, error)
}

type Options struct {
	DefaultCount int
	// RateLimit 每个 IP 每分钟请求数，0 表示不限流
	RateLimit int
}

type Server struct {
	rec    Recommender
	opts   Options
	logger zerolog.Logger
}

func New(rec Recommender, opts Options, logger zerolog.Logger) *Server {
	if opts.DefaultCount <= 0 {
		opts.DefaultCount = service.DefaultCount
	}
	return &Server{rec: rec, opts: opts, logger: logger}
}

// Handler 构建路由。
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         86400,
	}))
	r.Use(s.observe)

	r.Get("/", s.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if s.opts.RateLimit > 0 {
			r.Use(httprate.LimitByIP(s.opts.RateLimit, time.Minute))
		}
		r.Get("/recommendations/{user_id}", s.recommendations)
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Recommender API is running!"})
}

func (s *Server) recommendations(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	count := s.opts.DefaultCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("count must be a positive integer, got %q", raw))
			return
		}
		count = n
	}

	recs, err := s.rec.Recommend(r.Context(), userID, count)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, recs)
	case core.IsUserNotFound(err):
		writeError(w, http.StatusNotFound, fmt.Sprintf("User ID '%s' not found.", userID))
	case core.IsCacheUnavailable(err):
		s.logger.Error().Err(err).Str("user_id", userID).Msg("recommendation cache unavailable")
		writeError(w, http.StatusServiceUnavailable, "Recommendation cache is unavailable.")
	case core.IsDataUnavailable(err):
		writeError(w, http.StatusInternalServerError, "Data loading failed on server startup.")
	default:
		s.logger.Error().Err(err).Str("user_id", userID).Msg("recommend failed")
		writeError(w, http.StatusInternalServerError, "Internal server error.")
	}
}

// observe 按路由模板记录请求数与耗时
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
