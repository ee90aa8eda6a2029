// pkg/messaging/nats.go
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"SiteRadar/pkg/model"
)

// 流与主题约定
const (
	MovementsStream  = "MOVEMENTS_STREAM"
	AlertsStream     = "ALERTS_STREAM"
	SubjectMovements = "movements.ingest"
	SubjectAlerts    = "alerts." // 后缀为严重程度
)

// NATSClient NATS JetStream客户端 - 纯基础能力封装
type NATSClient struct {
	conn      *nats.Conn
	jetStream jetstream.JetStream
	natsURL   string
	ctx       context.Context
	cancel    context.CancelFunc
	consumers map[string]jetstream.Consumer // 消费者管理
	mu        sync.RWMutex                  // 保护consumers
	logger    *zap.Logger
}

// MessageHandler 通用消息处理函数类型
type MessageHandler func(data []byte) error

// NewNATSClient 创建新的NATS客户端
func NewNATSClient(natsURL string, logger *zap.Logger) (*NATSClient, error) {
	// 连接NATS
	nc, err := nats.Connect(natsURL,
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1), // 无限重连
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS连接断开", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS重新连接成功")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("连接NATS失败: %w", err)
	}

	// 创建JetStream上下文
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("创建JetStream失败: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	client := &NATSClient{
		conn:      nc,
		jetStream: js,
		natsURL:   natsURL,
		ctx:       ctx,
		cancel:    cancel,
		consumers: make(map[string]jetstream.Consumer),
		logger:    logger,
	}

	// 初始化基础Streams
	if err := client.setupStreams(); err != nil {
		logger.Warn("设置Streams失败", zap.Error(err))
	}

	return client, nil
}

// setupStreams 设置基础的Streams
func (c *NATSClient) setupStreams() error {
	streams := []jetstream.StreamConfig{
		{
			Name:        MovementsStream,
			Subjects:    []string{"movements.*"},
			Description: "物资移动事件流",
			Retention:   jetstream.LimitsPolicy,
			MaxMsgs:     100000,
			MaxBytes:    100 * 1024 * 1024, // 100MB
			MaxAge:      24 * time.Hour,    // 保留24小时
		},
		{
			Name:        AlertsStream,
			Subjects:    []string{"alerts.*"},
			Description: "告警事件流",
			Retention:   jetstream.LimitsPolicy,
			MaxMsgs:     50000,
			MaxBytes:    50 * 1024 * 1024,   // 50MB
			MaxAge:      7 * 24 * time.Hour, // 保留7天
		},
	}

	for _, streamConfig := range streams {
		_, err := c.jetStream.CreateOrUpdateStream(c.ctx, streamConfig)
		if err != nil {
			c.logger.Warn("创建/更新Stream失败",
				zap.String("stream", streamConfig.Name),
				zap.Error(err),
			)
		} else {
			c.logger.Info("Stream设置成功", zap.String("stream", streamConfig.Name))
		}
	}

	return nil
}

// Publish 发布消息到指定主题
func (c *NATSClient) Publish(subject string, data interface{}) error {
	var payload []byte
	var err error

	switch v := data.(type) {
	case []byte:
		payload = v
	case string:
		payload = []byte(v)
	default:
		payload, err = json.Marshal(data)
		if err != nil {
			return fmt.Errorf("序列化数据失败: %w", err)
		}
	}

	_, err = c.jetStream.Publish(c.ctx, subject, payload)
	if err != nil {
		return fmt.Errorf("发布消息到 %s 失败: %w", subject, err)
	}

	return nil
}

// PublishAlert 发布告警事件（按严重程度分主题）
func (c *NATSClient) PublishAlert(alert model.Alert) error {
	return c.Publish(SubjectAlerts+string(alert.Severity), alert)
}

// PublishMovement 发布移动事件
func (c *NATSClient) PublishMovement(event model.MovementEvent) error {
	return c.Publish(SubjectMovements, event)
}

// SubscribeMovements 订阅移动事件流
func (c *NATSClient) SubscribeMovements(consumerName string, handler func(model.MovementEvent) error) error {
	return c.Subscribe(MovementsStream, consumerName, "movements.*", func(data []byte) error {
		var event model.MovementEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return fmt.Errorf("解析移动事件失败: %w", err)
		}
		return handler(event)
	})
}

// Subscribe 订阅指定主题的消息
func (c *NATSClient) Subscribe(streamName, consumerName, filterSubject string, handler MessageHandler) error {
	// 创建消费者配置
	consumerConfig := jetstream.ConsumerConfig{
		Name:          consumerName,
		Description:   fmt.Sprintf("%s 消费者", consumerName),
		FilterSubject: filterSubject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
		ReplayPolicy:  jetstream.ReplayInstantPolicy,
	}

	// 创建或获取消费者
	consumer, err := c.jetStream.CreateOrUpdateConsumer(c.ctx, streamName, consumerConfig)
	if err != nil {
		return fmt.Errorf("创建消费者 %s 失败: %w", consumerName, err)
	}

	// 保存消费者引用
	c.mu.Lock()
	c.consumers[consumerName] = consumer
	c.mu.Unlock()

	// 开始消费消息
	go c.consumeMessages(consumer, consumerName, handler)

	c.logger.Info("订阅成功",
		zap.String("subject", filterSubject),
		zap.String("stream", streamName),
		zap.String("consumer", consumerName),
	)
	return nil
}

// consumeMessages 消费消息的通用逻辑
func (c *NATSClient) consumeMessages(consumer jetstream.Consumer, consumerName string, handler MessageHandler) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("消费者异常退出",
				zap.String("consumer", consumerName),
				zap.Any("panic", r),
			)
		}
	}()

	iter, err := consumer.Messages(jetstream.PullMaxMessages(10))
	if err != nil {
		c.logger.Error("获取消息迭代器失败",
			zap.String("consumer", consumerName),
			zap.Error(err),
		)
		return
	}

	for {
		select {
		case <-c.ctx.Done():
			c.logger.Info("消费者收到停止信号", zap.String("consumer", consumerName))
			return
		default:
			msg, err := iter.Next()
			if err != nil {
				if err == jetstream.ErrNoMessages {
					continue
				}
				c.logger.Warn("获取消息失败",
					zap.String("consumer", consumerName),
					zap.Error(err),
				)
				time.Sleep(1 * time.Second)
				continue
			}

			// 调用处理器
			if err := handler(msg.Data()); err != nil {
				c.logger.Warn("处理消息失败",
					zap.String("consumer", consumerName),
					zap.Error(err),
				)
				msg.Nak() // 拒绝消息
			} else {
				msg.Ack() // 确认消息
			}
		}
	}
}

// DeleteConsumer 删除消费者
func (c *NATSClient) DeleteConsumer(streamName, consumerName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.jetStream.DeleteConsumer(c.ctx, streamName, consumerName); err != nil {
		return fmt.Errorf("删除消费者 %s 失败: %w", consumerName, err)
	}

	delete(c.consumers, consumerName)
	return nil
}

// Close 关闭连接
func (c *NATSClient) Close() error {
	c.logger.Info("正在关闭NATS连接...")

	c.cancel() // 取消所有上下文

	// 等待所有消费者退出
	time.Sleep(1 * time.Second)

	c.mu.Lock()
	c.consumers = make(map[string]jetstream.Consumer)
	c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
	}

	c.logger.Info("NATS连接已关闭")
	return nil
}

// IsConnected 检查连接状态
func (c *NATSClient) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}
