// Package source 从外部数据源加载商品、用户、交互三张表，校验后构建 core.Dataset。
//
// 数据源为空、不可达或任一集合校验后为空，统一返回 core.ErrDataUnavailable；
// 单条脏记录（缺 ID、未知交互类型、时间戳无法解析）记录日志后丢弃，不会导致整体失败。
package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/metrics"
)

// Source 是数据源的抽象：一次性读出三张原始表。
type Source interface {
	Name() string
	Load(ctx context.Context) (*Records, error)
}

// Records 是未校验的原始记录。
type Records struct {
	Products     []ProductRecord
	Users        []UserRecord
	Interactions []InteractionRecord
}

type ProductRecord struct {
	ID          string  `yaml:"product_id" db:"product_id" validate:"required"`
	Name        string  `yaml:"name" db:"name" validate:"required"`
	Category    string  `yaml:"category" db:"category" validate:"required"`
	Price       float64 `yaml:"price" db:"price" validate:"gte=0"`
	Description string  `yaml:"description" db:"description"`
}

type UserRecord struct {
	ID        string `yaml:"user_id" db:"user_id" validate:"required"`
	Name      string `yaml:"name" db:"name"`
	CreatedAt string `yaml:"created_at" db:"created_at"`
}

type InteractionRecord struct {
	ID        int64  `yaml:"interaction_id" db:"interaction_id"`
	UserID    string `yaml:"user_id" db:"user_id" validate:"required"`
	ProductID string `yaml:"product_id" db:"product_id" validate:"required"`
	Type      string `yaml:"type" db:"type" validate:"required,interaction_type"`
	Timestamp string `yaml:"timestamp" db:"timestamp" validate:"required,timestamp"`
}

// 支持的时间戳格式
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999-07:00",
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime 按 timeLayouts 依次尝试解析，无时区的按 UTC 处理。
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("interaction_type", func(fl validator.FieldLevel) bool {
		_, ok := core.ParseInteractionType(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("timestamp", func(fl validator.FieldLevel) bool {
		_, err := ParseTime(fl.Field().String())
		return err == nil
	})
	return v
}

// Report 统计被拒绝的记录数。
type Report struct {
	Products     int
	Users        int
	Interactions int
}

// Build 校验原始记录并构建 Dataset。任一集合校验后为空时返回 core.ErrDataUnavailable。
func Build(recs *Records, logger zerolog.Logger) (*core.Dataset, Report, error) {
	var report Report
	if recs == nil {
		return nil, report, fmt.Errorf("%w: no records", core.ErrDataUnavailable)
	}
	v := newValidator()

	products := make([]core.Product, 0, len(recs.Products))
	for i, r := range recs.Products {
		if err := v.Struct(r); err != nil {
			report.Products++
			logger.Warn().Int("index", i).Str("product_id", r.ID).Err(err).Msg("drop invalid product")
			continue
		}
		products = append(products, core.Product{
			ID:          strings.TrimSpace(r.ID),
			Name:        r.Name,
			Category:    r.Category,
			Price:       r.Price,
			Description: r.Description,
		})
	}

	users := make([]core.User, 0, len(recs.Users))
	for i, r := range recs.Users {
		if err := v.Struct(r); err != nil {
			report.Users++
			logger.Warn().Int("index", i).Str("user_id", r.ID).Err(err).Msg("drop invalid user")
			continue
		}
		u := core.User{ID: strings.TrimSpace(r.ID), Name: r.Name}
		if r.CreatedAt != "" {
			// 注册时间只用于展示，解析失败不影响记录
			u.CreatedAt, _ = ParseTime(r.CreatedAt)
		}
		users = append(users, u)
	}

	interactions := make([]core.Interaction, 0, len(recs.Interactions))
	for i, r := range recs.Interactions {
		if err := v.Struct(r); err != nil {
			report.Interactions++
			logger.Warn().Int("index", i).Int64("interaction_id", r.ID).
				Str("interaction_type", r.Type).Err(err).Msg("drop invalid interaction")
			continue
		}
		typ, _ := core.ParseInteractionType(r.Type)
		ts, _ := ParseTime(r.Timestamp)
		interactions = append(interactions, core.Interaction{
			ID:        r.ID,
			UserID:    strings.TrimSpace(r.UserID),
			ProductID: strings.TrimSpace(r.ProductID),
			Type:      typ,
			Timestamp: ts,
		})
	}

	metrics.IngestRejected.WithLabelValues("products").Add(float64(report.Products))
	metrics.IngestRejected.WithLabelValues("users").Add(float64(report.Users))
	metrics.IngestRejected.WithLabelValues("interactions").Add(float64(report.Interactions))

	ds := core.NewDataset(products, users, interactions)
	if ds.Empty() {
		return nil, report, fmt.Errorf("%w: products=%d users=%d interactions=%d",
			core.ErrDataUnavailable, len(products), len(users), len(interactions))
	}
	return ds, report, nil
}

// Load 从数据源读取并构建 Dataset。读取失败同样视为数据不可用。
func Load(ctx context.Context, src Source, logger zerolog.Logger) (*core.Dataset, error) {
	logger = logger.With().Str("source", src.Name()).Logger()

	recs, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrDataUnavailable, src.Name(), err)
	}
	ds, report, err := Build(recs, logger)
	if err != nil {
		return nil, err
	}
	logger.Info().
		Int("products", len(ds.Products())).
		Int("users", len(ds.Users())).
		Int("interactions", len(ds.Interactions())).
		Int("rejected_products", report.Products).
		Int("rejected_users", report.Users).
		Int("rejected_interactions", report.Interactions).
		Msg("dataset loaded")
	return ds, nil
}

// StaticSource 直接返回内存中的记录，用于测试和嵌入式调用。
type StaticSource struct {
	Records *Records
}

func (s *StaticSource) Name() string { return "static" }

func (s *StaticSource) Load(context.Context) (*Records, error) {
	if s.Records == nil {
		return &Records{}, nil
	}
	return s.Records, nil
}
