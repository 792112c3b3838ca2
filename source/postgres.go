package source

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresSource 从 PostgreSQL 读取三张表。
// 商品按 product_id 排序，该顺序即目录顺序（热门兜底顺序），保证每次运行一致。
type PostgresSource struct {
	db *sqlx.DB
}

// NewPostgresSource 通过 DSN（postgres://... 或 key=value 形式）连接数据库。
func NewPostgresSource(ctx context.Context, dsn string) (*PostgresSource, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect postgres: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	return &PostgresSource{db: db}, nil
}

// NewPostgresSourceFromDB 复用已有连接。
func NewPostgresSourceFromDB(db *sqlx.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) Name() string { return "postgres" }

const (
	queryProducts = `
        SELECT product_id, name, category, price, COALESCE(description, '') AS description
        FROM products
        ORDER BY product_id`

	queryUsers = `
        SELECT user_id, COALESCE(name, '') AS name, COALESCE(created_at::text, '') AS created_at
        FROM users
        ORDER BY user_id`

	queryInteractions = `
        SELECT interaction_id, user_id, product_id, type, timestamp::text AS timestamp
        FROM interactions
        ORDER BY interaction_id`
)

func (s *PostgresSource) Load(ctx context.Context) (*Records, error) {
	recs := &Records{}
	if err := s.db.SelectContext(ctx, &recs.Products, queryProducts); err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	if err := s.db.SelectContext(ctx, &recs.Users, queryUsers); err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	if err := s.db.SelectContext(ctx, &recs.Interactions, queryInteractions); err != nil {
		return nil, fmt.Errorf("select interactions: %w", err)
	}
	return recs, nil
}

func (s *PostgresSource) Close() error {
	return s.db.Close()
}
