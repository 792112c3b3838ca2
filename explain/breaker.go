package explain

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/metrics"
)

// Explainer 为单个推荐商品生成解释，永远返回可展示的文本。
//
// 调用链：超时控制 → 熔断器 → Generator；任一环节失败都返回 Placeholder。
// Generator 为 nil 时直接使用占位文案。
type Explainer struct {
	gen     Generator
	cb      *gobreaker.CircuitBreaker[string]
	timeout time.Duration
	logger  zerolog.Logger
}

// BreakerOptions 是熔断与超时参数。
type BreakerOptions struct {
	Timeout          time.Duration // 单次调用超时，0 表示 3s
	FailureThreshold uint32        // 连续失败次数，0 表示 5
	OpenTimeout      time.Duration // 打开状态持续时间，0 表示 30s
}

func NewExplainer(gen Generator, opts BreakerOptions, logger zerolog.Logger) *Explainer {
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 5
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 30 * time.Second
	}

	e := &Explainer{gen: gen, timeout: opts.Timeout, logger: logger}
	if gen == nil {
		return e
	}

	threshold := opts.FailureThreshold
	e.cb = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "explain",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("explanation circuit breaker state changed")
		},
	})
	return e
}

// Explain 返回商品的解释文本。
func (e *Explainer) Explain(ctx context.Context, product core.Product, summary []core.CategoryActivity) string {
	if e == nil || e.gen == nil {
		metrics.ExplanationRequests.WithLabelValues("fallback").Inc()
		return Placeholder(product)
	}

	prompt := Prompt{Product: product, Summary: summary}.Text()
	text, err := e.cb.Execute(func() (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()
		return e.gen.Generate(callCtx, prompt)
	})
	if err != nil {
		metrics.ExplanationRequests.WithLabelValues("fallback").Inc()
		e.logger.Debug().Str("product_id", product.ID).Err(err).Msg("explanation fallback")
		return Placeholder(product)
	}
	metrics.ExplanationRequests.WithLabelValues("ok").Inc()
	return text
}

// State 返回熔断器状态，未配置生成服务时为 "disabled"。
func (e *Explainer) State() string {
	if e == nil || e.cb == nil {
		return "disabled"
	}
	return e.cb.State().String()
}
