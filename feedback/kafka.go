package feedback

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/rushteam/shoprec/pkg/metrics"
)

// producer 是 kgo.Client 中被使用的子集
type producer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
	Flush(ctx context.Context) error
	Close()
}

// KafkaCollector Kafka 采集器：事件先进缓冲，按批量大小或时间间隔异步发送。
type KafkaCollector struct {
	client        producer
	topic         string
	batchSize     int
	flushInterval time.Duration
	logger        zerolog.Logger

	mu        sync.Mutex
	buffer    []*FeedbackEvent
	lastFlush time.Time
	closed    bool
	closeOnce sync.Once
	wg        sync.WaitGroup
	stopCh    chan struct{}
}

// KafkaCollectorConfig Kafka 采集器配置
type KafkaCollectorConfig struct {
	Brokers []string // Kafka Broker 地址列表
	Topic   string

	BatchSize     int           // 批量大小（建议 100-1000）
	FlushInterval time.Duration // 刷新间隔（建议 1-5 秒）

	ClientID     string // 客户端 ID
	RequiredAcks int16  // 需要的 ACK 数量（0=none, 1=leader, -1=all）
	MaxRetries   int
}

// NewKafkaCollector 创建 Kafka 采集器
func NewKafkaCollector(config KafkaCollectorConfig, logger zerolog.Logger) (*KafkaCollector, error) {
	if config.ClientID == "" {
		config.ClientID = "shoprec-feedback-collector"
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(config.Brokers...),
		kgo.ClientID(config.ClientID),
		kgo.RecordRetries(config.MaxRetries),
	}
	switch config.RequiredAcks {
	case 0:
		// 不等待 ACK 时必须关闭幂等写入
		opts = append(opts, kgo.RequiredAcks(kgo.NoAck()), kgo.DisableIdempotentWrite())
	case -1:
		opts = append(opts, kgo.RequiredAcks(kgo.AllISRAcks()))
	default:
		opts = append(opts, kgo.RequiredAcks(kgo.LeaderAck()), kgo.DisableIdempotentWrite())
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, err
	}
	return newKafkaCollector(client, config, logger), nil
}

func newKafkaCollector(client producer, config KafkaCollectorConfig, logger zerolog.Logger) *KafkaCollector {
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = time.Second
	}

	c := &KafkaCollector{
		client:        client,
		topic:         config.Topic,
		batchSize:     config.BatchSize,
		flushInterval: config.FlushInterval,
		logger:        logger,
		buffer:        make([]*FeedbackEvent, 0, config.BatchSize),
		lastFlush:     time.Now(),
		stopCh:        make(chan struct{}),
	}
	c.wg.Add(1)
	go c.flushLoop()
	return c
}

// RecordImpression 异步记录曝光（不阻塞）
func (c *KafkaCollector) RecordImpression(_ context.Context, userID string, productIDs []string) error {
	if len(productIDs) == 0 {
		return nil
	}
	events := impressionEvents(userID, productIDs)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	for i := range events {
		c.buffer = append(c.buffer, &events[i])
	}
	// 达到批量大小，触发发送；Close 会等待这次发送结束
	if len(c.buffer) >= c.batchSize {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.flush()
		}()
	}
	return nil
}

func impressionEvents(userID string, productIDs []string) []FeedbackEvent {
	now := time.Now().Unix()
	events := make([]FeedbackEvent, 0, len(productIDs))
	for i, pid := range productIDs {
		events = append(events, FeedbackEvent{
			UserID:    userID,
			ProductID: pid,
			Type:      FeedbackTypeImpression,
			Timestamp: now,
			Position:  i,
		})
	}
	return events
}

// flushLoop 定时刷新循环
func (c *KafkaCollector) flushLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			shouldFlush := len(c.buffer) > 0 && time.Since(c.lastFlush) >= c.flushInterval
			c.mu.Unlock()
			if shouldFlush {
				c.flush()
			}
		case <-c.stopCh:
			return
		}
	}
}

// flush 把缓冲交给 Kafka 客户端异步发送
func (c *KafkaCollector) flush() {
	c.mu.Lock()
	if len(c.buffer) == 0 {
		c.mu.Unlock()
		return
	}
	events := c.buffer
	c.buffer = make([]*FeedbackEvent, 0, c.batchSize)
	c.lastFlush = time.Now()
	c.mu.Unlock()

	for _, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			metrics.FeedbackEvents.WithLabelValues("error").Inc()
			continue
		}
		record := &kgo.Record{
			Topic: c.topic,
			Key:   []byte(event.UserID), // 同一用户的事件落在同一分区，保证有序
			Value: data,
		}
		c.client.Produce(context.Background(), record, func(r *kgo.Record, err error) {
			if err != nil {
				metrics.FeedbackEvents.WithLabelValues("error").Inc()
				c.logger.Warn().Err(err).Str("topic", r.Topic).Msg("produce feedback event failed")
				return
			}
			metrics.FeedbackEvents.WithLabelValues("sent").Inc()
		})
	}
}

// Close 优雅关闭（等待缓冲数据发送完成）
func (c *KafkaCollector) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		close(c.stopCh)
		c.wg.Wait()
		c.flush()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = c.client.Flush(ctx)
		c.client.Close()
	})
	return err
}
