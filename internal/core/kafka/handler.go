package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/Xushengqwer/business_search/config"
	"github.com/Xushengqwer/business_search/internal/metrics"
	"github.com/Xushengqwer/business_search/internal/models"
)

// Handler 实现 sarama.ConsumerGroupHandler：
// 按主题把消息路由给 EventService，对可重试错误做指数退避，最终失败的消息送入 DLQ。
type Handler struct {
	eventService    *EventService                 // 执行实际索引写入的事件服务。
	dlqProducer     sarama.SyncProducer           // 发送死信消息的同步生产者。
	dlqTopic        string                        // 死信队列主题。
	maxRetry        uint64                        // 单条消息的最大重试次数。
	initialInterval time.Duration                 // 指数退避的初始间隔。
	topicToHandler  map[string]MessageHandlerFunc // 主题到处理函数的映射。
	ready           chan bool                     // 由 Setup 关闭
	logger          *zap.Logger
}

// MessageHandlerFunc 处理单条 Kafka 消息。
type MessageHandlerFunc func(ctx context.Context, message *sarama.ConsumerMessage) error

// NewHandler 创建 Kafka 消息处理器，并按配置把三个生命周期主题映射到对应的处理函数。
// 参数:
//   - eventSvc: 业务事件服务实例。
//   - producer: 用于发送到 DLQ 的 sarama.SyncProducer。
//   - cfg: KafkaConfig，提供主题名称、DLQ 主题与最大重试次数。
//   - logger: zap.Logger 实例。
//
// 返回值:
//   - *Handler: 初始化完成的消息处理器。
func NewHandler(
	eventSvc *EventService,
	producer sarama.SyncProducer,
	cfg config.KafkaConfig,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		panic("致命错误 [Kafka Handler]: Logger 实例不能为 nil")
	}
	if eventSvc == nil {
		logger.Panic("致命错误 [Kafka Handler]: EventService 实例不能为 nil")
	}
	if producer == nil && cfg.DLQTopic != "" {
		logger.Warn("DLQ 主题已配置，但 DLQ 生产者未提供", zap.String("dlq_topic", cfg.DLQTopic))
	}

	h := &Handler{
		eventService:    eventSvc,
		dlqProducer:     producer,
		dlqTopic:        cfg.DLQTopic,
		maxRetry:        cfg.MaxRetryAttempts,
		initialInterval: backoff.DefaultInitialInterval,
		ready:           make(chan bool),
		logger:          logger,
	}
	h.topicToHandler = make(map[string]MessageHandlerFunc, 3)
	if t := cfg.Topics.BusinessPublished; t != "" {
		h.topicToHandler[t] = h.handleBusinessPublished
	}
	if t := cfg.Topics.BusinessUpdated; t != "" {
		h.topicToHandler[t] = h.handleBusinessUpdated
	}
	if t := cfg.Topics.BusinessRemoved; t != "" {
		h.topicToHandler[t] = h.handleBusinessRemoved
	}

	logger.Info("Kafka Handler 初始化完成",
		zap.Strings("topics", cfg.Topics.All()),
		zap.Uint64("max_processing_retries", cfg.MaxRetryAttempts),
		zap.Bool("dlq_producer_configured", producer != nil),
		zap.String("dlq_topic", cfg.DLQTopic),
	)
	return h
}

func (h *Handler) Ready() <-chan bool {
	return h.ready
}

// Setup 在每次重平衡后的新会话开始时调用。
func (h *Handler) Setup(session sarama.ConsumerGroupSession) error {
	select {
	case <-h.ready:
	default:
		close(h.ready)
	}
	h.logger.Info("Kafka Handler Setup 完成，已准备好消费消息", zap.String("member_id", session.MemberID()))
	return nil
}

func (h *Handler) Cleanup(session sarama.ConsumerGroupSession) error {
	h.logger.Info("Kafka Handler Cleanup 完成", zap.String("member_id", session.MemberID()))
	return nil
}

// ConsumeClaim 逐条处理分区消息。无论成功、跳过还是送入 DLQ，消息都会被标记，避免阻塞分区。
func (h *Handler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	h.logger.Info("开始消费分区消息",
		zap.String("topic", claim.Topic()),
		zap.Int32("partition", claim.Partition()),
		zap.Int64("initial_offset", claim.InitialOffset()),
	)

	for message := range claim.Messages() {
		h.handleMessage(session.Context(), message)
		session.MarkMessage(message, "")

		if err := session.Context().Err(); err != nil {
			h.logger.Info("会话上下文已取消，停止消费此分区",
				zap.String("topic", claim.Topic()),
				zap.Int32("partition", claim.Partition()),
				zap.Int64("last_processed_offset", message.Offset),
			)
			return err
		}
	}
	return nil
}

func (h *Handler) handleMessage(ctx context.Context, message *sarama.ConsumerMessage) {
	log := h.logger.With(
		zap.String("topic", message.Topic),
		zap.Int32("partition", message.Partition),
		zap.Int64("offset", message.Offset),
	)

	handlerFunc, ok := h.topicToHandler[message.Topic]
	if !ok {
		log.Warn("未找到该主题的消息处理函数，跳过此消息")
		metrics.KafkaMessagesTotal.WithLabelValues(message.Topic, metrics.MessageSkipped).Inc()
		return
	}

	processErr := h.processWithRetry(ctx, message, handlerFunc)
	if processErr == nil {
		log.Debug("消息处理成功")
		metrics.KafkaMessagesTotal.WithLabelValues(message.Topic, metrics.MessageProcessed).Inc()
		return
	}

	log.Error("消息最终处理失败，准备发送到死信队列 (DLQ)", zap.Error(processErr))
	metrics.KafkaMessagesTotal.WithLabelValues(message.Topic, metrics.MessageDLQ).Inc()

	dlqCtx, dlqCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer dlqCancel()
	if dlqErr := SendToDLQ(dlqCtx, h.dlqProducer, h.dlqTopic, message, processErr, h.logger); dlqErr != nil {
		log.Error("发送消息到死信队列 (DLQ) 失败，消息可能丢失，需要人工关注！",
			zap.NamedError("original_processing_error", processErr),
			zap.NamedError("dlq_send_error", dlqErr),
		)
	}
}

// processWithRetry 以指数退避重试可恢复的错误，永久性错误立即返回。
func (h *Handler) processWithRetry(ctx context.Context, message *sarama.ConsumerMessage, handlerFunc MessageHandlerFunc) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = h.initialInterval
	bo.MaxElapsedTime = 0 // 只由 maxRetry 控制重试次数

	operation := func() error {
		err := handlerFunc(ctx, message)
		if err != nil && isPermanentError(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		h.logger.Warn("消息处理失败，准备重试",
			zap.String("topic", message.Topic),
			zap.Int64("offset", message.Offset),
			zap.Duration("next_retry_in", next),
			zap.Error(err),
		)
	}

	return backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(bo, h.maxRetry), ctx), notify)
}

func (h *Handler) handleBusinessPublished(ctx context.Context, message *sarama.ConsumerMessage) error {
	var event models.BusinessPublishedEvent
	if err := h.decode(message, &event); err != nil {
		return err
	}
	return h.eventService.HandleBusinessPublished(ctx, event)
}

func (h *Handler) handleBusinessUpdated(ctx context.Context, message *sarama.ConsumerMessage) error {
	var event models.BusinessUpdatedEvent
	if err := h.decode(message, &event); err != nil {
		return err
	}
	return h.eventService.HandleBusinessUpdated(ctx, event)
}

func (h *Handler) handleBusinessRemoved(ctx context.Context, message *sarama.ConsumerMessage) error {
	var event models.BusinessRemovedEvent
	if err := h.decode(message, &event); err != nil {
		return err
	}
	return h.eventService.HandleBusinessRemoved(ctx, event)
}

// decode 反序列化消息体，失败时返回的错误包装 ErrInvalidEventFormat。
func (h *Handler) decode(message *sarama.ConsumerMessage, v interface{}) error {
	if err := json.Unmarshal(message.Value, v); err != nil {
		h.logger.Error("反序列化 Kafka 消息失败，数据格式可能与模型不匹配",
			zap.String("topic", message.Topic),
			zap.Int64("offset", message.Offset),
			zap.ByteString("raw_value_snippet", message.Value[:min(1024, len(message.Value))]),
			zap.Error(err),
		)
		return fmt.Errorf("反序列化消息失败 (主题: %s, 偏移量: %d): %w: %w", message.Topic, message.Offset, ErrInvalidEventFormat, err)
	}
	return nil
}

// isPermanentError 判断错误是否不值得重试。
func isPermanentError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, ErrInvalidBusinessID) ||
		errors.Is(err, ErrInvalidEventFormat) ||
		errors.Is(err, ErrMissingSnapshot) {
		return true
	}
	var syntaxError *json.SyntaxError
	var unmarshalTypeError *json.UnmarshalTypeError
	return errors.As(err, &syntaxError) || errors.As(err, &unmarshalTypeError)
}
