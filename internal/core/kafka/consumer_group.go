package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/Xushengqwer/business_search/config"
)

const (
	consumeRetryDelay = 5 * time.Second
	closeWaitTimeout  = 15 * time.Second
)

// ConsumerGroup 封装 sarama.ConsumerGroup 的消费循环与优雅关闭。
type ConsumerGroup struct {
	cg      sarama.ConsumerGroup        // Sarama 消费者组客户端。
	handler sarama.ConsumerGroupHandler // 消息处理器，通常是 *Handler。
	topics  []string                    // 订阅的商家生命周期主题。
	wg      sync.WaitGroup              // 等待消费循环 goroutine 退出。
	logger  *zap.Logger
	groupID string // 仅用于日志。
}

// NewConsumerGroup 创建 Sarama 消费者组，并订阅配置中的全部生命周期主题。
// 参数:
//   - cfg: 应用程序的 KafkaConfig，包含 Broker 地址、Group ID 与主题列表。
//   - clientConfig: 由 ConfigureSarama 生成的 Sarama 配置。
//   - handler: 实现 sarama.ConsumerGroupHandler 的消息处理器。
//   - logger: zap.Logger 实例。
//
// 返回值:
//   - *ConsumerGroup: 尚未开始消费的消费者组，调用 Start 后才会拉取消息。
//   - error: 依赖缺失、未配置 Group ID 或主题、或连接 Broker 失败时返回错误。
func NewConsumerGroup(
	cfg config.KafkaConfig,
	clientConfig *sarama.Config,
	handler sarama.ConsumerGroupHandler,
	logger *zap.Logger,
) (*ConsumerGroup, error) {
	if logger == nil {
		return nil, errors.New("初始化消费者组失败：logger 实例不能为空")
	}
	if handler == nil {
		logger.Error("初始化消费者组失败：消息处理器不能为空")
		return nil, errors.New("初始化消费者组失败：消息处理器不能为空")
	}
	if cfg.GroupID == "" {
		logger.Error("初始化消费者组失败：GroupID 不能为空")
		return nil, errors.New("初始化消费者组失败：GroupID 不能为空")
	}
	if clientConfig == nil {
		logger.Error("初始化消费者组失败：Sarama 客户端配置不能为空")
		return nil, errors.New("初始化消费者组失败：Sarama 客户端配置不能为空")
	}
	topics := cfg.Topics.All()
	if len(topics) == 0 {
		logger.Error("初始化消费者组失败：未配置任何商家事件主题")
		return nil, errors.New("初始化消费者组失败：未配置任何商家事件主题")
	}

	cg, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, clientConfig)
	if err != nil {
		logger.Error("创建 Kafka 消费者组客户端失败",
			zap.String("group_id", cfg.GroupID),
			zap.Strings("brokers", cfg.Brokers),
			zap.Error(err),
		)
		return nil, fmt.Errorf("创建 Kafka 消费者组 '%s' 失败: %w", cfg.GroupID, err)
	}

	logger.Info("Kafka 消费者组客户端初始化成功", zap.String("group_id", cfg.GroupID), zap.Strings("topics", topics))
	return newConsumerGroup(cg, handler, topics, cfg.GroupID, logger), nil
}

func newConsumerGroup(cg sarama.ConsumerGroup, handler sarama.ConsumerGroupHandler, topics []string, groupID string, logger *zap.Logger) *ConsumerGroup {
	return &ConsumerGroup{
		cg:      cg,
		handler: handler,
		topics:  topics,
		logger:  logger.With(zap.String("group_id", groupID)),
		groupID: groupID,
	}
}

// Start 在后台 goroutine 中运行消费循环，并阻塞到 handler 就绪或 ctx 取消。
// 每次重平衡后 Consume 会返回，循环负责重新加入。
func (c *ConsumerGroup) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			if err := c.cg.Consume(ctx, c.topics, c.handler); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					c.logger.Info("消费者组的消费循环已停止", zap.Error(err))
					return
				}
				c.logger.Error("消费者组 Consume 操作出错，稍后重试", zap.Error(err), zap.Duration("delay", consumeRetryDelay))
				select {
				case <-time.After(consumeRetryDelay):
				case <-ctx.Done():
					return
				}
			}
			if ctx.Err() != nil {
				c.logger.Info("上下文已取消，退出消费循环", zap.Error(ctx.Err()))
				return
			}
		}
	}()

	if provider, ok := c.handler.(interface{ Ready() <-chan bool }); ok {
		select {
		case <-provider.Ready():
			c.logger.Info("消费者消息处理器已准备就绪")
		case <-ctx.Done():
			c.logger.Warn("等待消息处理器就绪时上下文被取消", zap.Error(ctx.Err()))
		}
	}
	c.logger.Info("消费者组已启动", zap.Strings("topics", c.topics))
}

// Close 关闭底层客户端并等待消费循环退出，最多等待 15 秒。
func (c *ConsumerGroup) Close() error {
	closeErr := c.cg.Close()
	if closeErr != nil {
		c.logger.Error("关闭 Sarama 消费者组客户端时发生错误", zap.Error(closeErr))
	}

	finished := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(closeWaitTimeout):
		c.logger.Warn("等待消费循环退出超时", zap.Duration("timeout", closeWaitTimeout))
		if closeErr == nil {
			return fmt.Errorf("关闭消费者组 '%s' 时等待消费循环退出超时 (%v)", c.groupID, closeWaitTimeout)
		}
	}

	if closeErr != nil {
		return fmt.Errorf("关闭消费者组 '%s' 失败: %w", c.groupID, closeErr)
	}
	c.logger.Info("消费者组已成功关闭")
	return nil
}
