package kafka

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/Xushengqwer/business_search/config"
)

// DLQ 消息上附加的头部键。
const (
	HeaderOriginalTopic     = "dlq_original_topic"
	HeaderOriginalPartition = "dlq_original_partition"
	HeaderOriginalOffset    = "dlq_original_offset"
	HeaderOriginalKey       = "dlq_original_key"
	HeaderOriginalTimestamp = "dlq_original_message_timestamp_utc"
	HeaderProcessingError   = "dlq_processing_error"
	HeaderDLQTimestamp      = "dlq_timestamp_utc"
)

// NewSyncProducer 创建用于发送 DLQ 消息的同步生产者。
// 发送会阻塞到 Broker 按 Producer.RequiredAcks 确认为止。
// 参数:
//   - cfg: KafkaConfig，主要用于获取 Broker 地址列表。
//   - clientConfig: 由 ConfigureSarama 生成的 Sarama 配置。
//   - logger: zap.Logger 实例。
//
// 返回值:
//   - sarama.SyncProducer: 初始化成功的同步生产者。
//   - error: 创建失败时返回错误。
func NewSyncProducer(cfg config.KafkaConfig, clientConfig *sarama.Config, logger *zap.Logger) (sarama.SyncProducer, error) {
	if logger == nil {
		return nil, errors.New("创建 Kafka 同步生产者失败：logger 实例不能为空")
	}
	if clientConfig == nil {
		logger.Error("创建 Kafka 同步生产者失败：Sarama 客户端配置不能为空")
		return nil, errors.New("创建 Kafka 同步生产者失败：Sarama 客户端配置不能为空")
	}
	if len(cfg.Brokers) == 0 {
		logger.Error("创建 Kafka 同步生产者失败：Broker 地址列表不能为空")
		return nil, errors.New("创建 Kafka 同步生产者失败：Broker 地址列表不能为空")
	}

	producer, err := sarama.NewSyncProducer(cfg.Brokers, clientConfig)
	if err != nil {
		logger.Error("创建 Kafka 同步生产者失败", zap.Strings("brokers", cfg.Brokers), zap.Error(err))
		return nil, fmt.Errorf("创建 Kafka 同步生产者失败，目标 Broker: %v: %w", cfg.Brokers, err)
	}

	logger.Info("Kafka 同步生产者初始化成功", zap.Strings("brokers", cfg.Brokers))
	return producer, nil
}

// dlqHeaders 记录原始消息的位置与失败原因，便于人工排查后重放。
func dlqHeaders(msg *sarama.ConsumerMessage, processingError error, now time.Time) []sarama.RecordHeader {
	header := func(k, v string) sarama.RecordHeader {
		return sarama.RecordHeader{Key: []byte(k), Value: []byte(v)}
	}

	headers := []sarama.RecordHeader{
		header(HeaderOriginalTopic, msg.Topic),
		header(HeaderOriginalPartition, strconv.FormatInt(int64(msg.Partition), 10)),
		header(HeaderOriginalOffset, strconv.FormatInt(msg.Offset, 10)),
		header(HeaderDLQTimestamp, now.UTC().Format(time.RFC3339Nano)),
	}
	if processingError != nil {
		headers = append(headers, header(HeaderProcessingError, processingError.Error()))
	}
	if msg.Key != nil {
		headers = append(headers, sarama.RecordHeader{Key: []byte(HeaderOriginalKey), Value: msg.Key})
	}
	if msg.Timestamp.IsZero() {
		headers = append(headers, header(HeaderOriginalTimestamp, "original_timestamp_is_zero"))
	} else {
		headers = append(headers, header(HeaderOriginalTimestamp, msg.Timestamp.UTC().Format(time.RFC3339Nano)))
	}
	return headers
}

type sendResult struct {
	partition int32
	offset    int64
	err       error
}

// SendToDLQ 把处理失败的原始消息连同上下文头部发送到死信队列。
// SendMessage 本身不接受 context，因此放在 goroutine 中执行并监听 ctx。
// 参数:
//   - ctx: 控制发送超时或取消。
//   - producer: 已初始化的同步生产者。
//   - dlqTopic: 死信队列主题。
//   - originalMessage: 处理失败的原始消息，Key 与 Value 原样转发。
//   - processingError: 导致失败的错误，写入 dlq_processing_error 头部。
//   - logger: zap.Logger 实例。
//
// 返回值:
//   - error: 参数无效、发送失败或 ctx 结束时返回错误。
func SendToDLQ(
	ctx context.Context,
	producer sarama.SyncProducer,
	dlqTopic string,
	originalMessage *sarama.ConsumerMessage,
	processingError error,
	logger *zap.Logger,
) error {
	if logger == nil {
		return errors.New("发送到 DLQ 失败：logger 实例不能为空")
	}
	if originalMessage == nil {
		logger.Error("发送消息到 DLQ 失败：原始消息不能为空")
		return errors.New("发送到 DLQ 失败：原始消息不能为空")
	}
	log := logger.With(
		zap.String("dlq_topic", dlqTopic),
		zap.String("original_topic", originalMessage.Topic),
		zap.Int64("original_offset", originalMessage.Offset),
	)
	if producer == nil {
		log.Error("发送消息到 DLQ 失败：DLQ 生产者未配置")
		return errors.New("发送到 DLQ 失败：DLQ 生产者未配置")
	}
	if dlqTopic == "" {
		log.Error("发送消息到 DLQ 失败：DLQ 主题名称为空")
		return errors.New("发送到 DLQ 失败：DLQ 主题名称未配置")
	}

	dlqMessage := &sarama.ProducerMessage{
		Topic:   dlqTopic,
		Key:     sarama.ByteEncoder(originalMessage.Key),
		Value:   sarama.ByteEncoder(originalMessage.Value),
		Headers: dlqHeaders(originalMessage, processingError, time.Now()),
	}

	resultCh := make(chan sendResult, 1)
	go func() {
		partition, offset, err := producer.SendMessage(dlqMessage)
		resultCh <- sendResult{partition: partition, offset: offset, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			log.Error("发送消息到 DLQ 失败", zap.Error(res.err))
			return fmt.Errorf("发送消息到 DLQ 失败 (原始消息偏移量 %d，主题 '%s'): %w", originalMessage.Offset, originalMessage.Topic, res.err)
		}
		log.Info("消息成功发送到 DLQ", zap.Int32("dlq_partition", res.partition), zap.Int64("dlq_offset", res.offset))
		return nil
	case <-ctx.Done():
		log.Warn("发送消息到 DLQ 操作因上下文取消或超时而中止", zap.Error(ctx.Err()))
		return fmt.Errorf("发送消息到 DLQ 操作中止 (原始消息偏移量 %d，主题 '%s'): %w", originalMessage.Offset, originalMessage.Topic, ctx.Err())
	}
}
