// Package config 加载批处理与在线服务的配置。
//
// 优先级（低 → 高）：
//  1. 内置默认值
//  2. YAML 配置文件（CONFIG_PATH 或 ./config.yaml，可选）
//  3. 环境变量
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/model"
	"github.com/rushteam/shoprec/pkg/logging"
)

// ConfigPathEnvVar 指定配置文件路径的环境变量
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths 未指定路径时依次查找
var DefaultConfigPaths = []string{"config.yaml", "config.yml"}

// 缓存后端
const (
	CacheRedis  = "redis"
	CacheBadger = "badger"
	CacheMemory = "memory"
)

// 数据源类型
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

type Config struct {
	Batch    BatchConfig     `koanf:"batch"`
	Model    model.SVDConfig `koanf:"model"`
	Cache    CacheConfig     `koanf:"cache"`
	Source   SourceConfig    `koanf:"source"`
	Server   ServerConfig    `koanf:"server"`
	Explain  ExplainConfig   `koanf:"explain"`
	Feedback FeedbackConfig  `koanf:"feedback"`
	Log      logging.Config  `koanf:"log"`
}

type BatchConfig struct {
	TopN    int `koanf:"top_n" validate:"gt=0"`
	Workers int `koanf:"workers" validate:"gt=0"`

	// Eligibility 是可选的 CEL 资格表达式，例如 `product.price > 0.0`
	Eligibility string `koanf:"eligibility"`

	// CacheTTL 推荐结果过期时间，0 表示不过期（下一次全量覆盖）
	CacheTTL time.Duration `koanf:"cache_ttl" validate:"gte=0"`
}

type CacheConfig struct {
	Backend    string `koanf:"backend" validate:"oneof=redis badger memory"`
	RedisURL   string `koanf:"redis_url" validate:"required_if=Backend redis"`
	BadgerPath string `koanf:"badger_path"`
}

type SourceConfig struct {
	Kind string `koanf:"kind" validate:"oneof=file postgres"`
	Path string `koanf:"path" validate:"required_if=Kind file"`
	DSN  string `koanf:"dsn" validate:"required_if=Kind postgres"`
}

type ServerConfig struct {
	Addr         string        `koanf:"addr" validate:"required"`
	DefaultCount int           `koanf:"default_count" validate:"gt=0"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// RateLimit 每个 IP 每分钟请求数，0 表示不限流
	RateLimit int `koanf:"rate_limit" validate:"gte=0"`
}

type ExplainConfig struct {
	// Endpoint 为空时使用静态占位文案
	Endpoint string        `koanf:"endpoint" validate:"omitempty,url"`
	Timeout  time.Duration `koanf:"timeout" validate:"gte=0"`

	// 熔断：连续失败 FailureThreshold 次后打开，OpenTimeout 后半开
	FailureThreshold uint32        `koanf:"failure_threshold"`
	OpenTimeout      time.Duration `koanf:"open_timeout"`
}

type FeedbackConfig struct {
	// Brokers 为空时不上报曝光
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
}

func defaultConfig() *Config {
	return &Config{
		Batch: BatchConfig{
			TopN:    core.DefaultTopN,
			Workers: core.DefaultWorkers,
		},
		Model: model.DefaultSVDConfig(),
		Cache: CacheConfig{
			Backend:    CacheRedis,
			RedisURL:   "redis://localhost:6379/0",
			BadgerPath: "data/cache",
		},
		Source: SourceConfig{
			Kind: SourceFile,
			Path: "data",
		},
		Server: ServerConfig{
			Addr:         ":8000",
			DefaultCount: 3,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Explain: ExplainConfig{
			Timeout:          3 * time.Second,
			FailureThreshold: 5,
			OpenTimeout:      30 * time.Second,
		},
		Feedback: FeedbackConfig{
			Topic: "shoprec-impressions",
		},
		Log: logging.Config{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load 加载配置。path 为空时按 CONFIG_PATH / DefaultConfigPaths 查找，找不到则只用默认值与环境变量。
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate 校验配置。
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return err
	}
	if c.Model.Factors <= 0 || c.Model.Epochs <= 0 || c.Model.LearningRate <= 0 {
		return fmt.Errorf("model: factors, epochs and learning_rate must be positive")
	}
	if c.Model.LearningRate > 1 {
		return fmt.Errorf("model: learning_rate %g above 1 diverges", c.Model.LearningRate)
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envMappings 环境变量 → 配置路径。未列出的变量可用 SHOPREC_<SECTION>__<KEY> 形式设置。
var envMappings = map[string]string{
	"top_n":                   "batch.top_n",
	"batch_workers":           "batch.workers",
	"batch_eligibility":       "batch.eligibility",
	"batch_cache_ttl":         "batch.cache_ttl",
	"model_factors":           "model.factors",
	"model_epochs":            "model.epochs",
	"model_learning_rate":     "model.learning_rate",
	"model_regularization":    "model.regularization",
	"model_seed":              "model.seed",
	"cache_backend":           "cache.backend",
	"redis_url":               "cache.redis_url",
	"badger_path":             "cache.badger_path",
	"source_kind":             "source.kind",
	"data_path":               "source.path",
	"database_url":            "source.dsn",
	"server_addr":             "server.addr",
	"default_count":           "server.default_count",
	"rate_limit":              "server.rate_limit",
	"explain_endpoint":        "explain.endpoint",
	"explain_timeout":         "explain.timeout",
	"kafka_brokers":           "feedback.brokers",
	"kafka_impressions_topic": "feedback.topic",
	"log_level":               "log.level",
	"log_format":              "log.format",
}

func envTransformFunc(key string) string {
	key = strings.ToLower(key)
	if p, ok := envMappings[key]; ok {
		return p
	}
	if rest, ok := strings.CutPrefix(key, "shoprec_"); ok {
		return strings.ReplaceAll(rest, "__", ".")
	}
	// 其他环境变量忽略
	return ""
}

var sliceConfigPaths = []string{
	"feedback.brokers",
}

// processSliceFields 把环境变量里逗号分隔的字符串转成切片。
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		var parts []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}
