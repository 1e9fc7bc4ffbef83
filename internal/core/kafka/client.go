package kafka

import (
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/Xushengqwer/business_search/config"
)

const (
	defaultSessionTimeout  = 30 * time.Second
	defaultProducerTimeout = 10 * time.Second
)

// ConfigureSarama 根据 KafkaConfig 生成消费者组和 DLQ 生产者共用的 Sarama 配置。
// 偏移量不自动提交，由 Handler 在每条消息处理完后标记。
// 参数:
//   - cfg: 应用程序的 KafkaConfig，提供版本、消费者组与生产者相关设置。
//   - logger: 用于记录配置过程中回退到默认值等情况的 zap.Logger。
//
// 返回值:
//   - *sarama.Config: 配置好的 Sarama 配置对象。
//   - error: Kafka 版本无法解析时返回错误。
func ConfigureSarama(cfg config.KafkaConfig, logger *zap.Logger) (*sarama.Config, error) {
	saramaCfg := sarama.NewConfig()

	if cfg.KafkaVersion != "" {
		version, err := sarama.ParseKafkaVersion(cfg.KafkaVersion)
		if err != nil {
			logger.Error("无效的 Kafka 版本配置", zap.String("configured_version", cfg.KafkaVersion), zap.Error(err))
			return nil, fmt.Errorf("无效的 Kafka 版本配置 '%s': %w", cfg.KafkaVersion, err)
		}
		saramaCfg.Version = version
	} else {
		logger.Warn("未指定 Kafka 版本，将使用 Sarama 的默认版本")
	}

	saramaCfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	if strings.EqualFold(cfg.ConsumerGroup.AutoOffsetReset, "earliest") {
		saramaCfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		saramaCfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	saramaCfg.Consumer.Group.Session.Timeout = defaultSessionTimeout
	if cfg.ConsumerGroup.SessionTimeoutMs > 0 {
		saramaCfg.Consumer.Group.Session.Timeout = time.Duration(cfg.ConsumerGroup.SessionTimeoutMs) * time.Millisecond
	}
	saramaCfg.Consumer.Offsets.AutoCommit.Enable = false

	// SyncProducer 要求两者均为 true
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.Return.Errors = true
	saramaCfg.Producer.Timeout = defaultProducerTimeout
	if cfg.Producer.RequestTimeout > 0 {
		saramaCfg.Producer.Timeout = cfg.Producer.RequestTimeout
	}

	acks, known := parseAcks(cfg.Producer.Acks)
	if !known {
		logger.Warn("无效的生产者 ACKS 配置，将使用 'all'", zap.String("configured_acks", cfg.Producer.Acks))
	}
	saramaCfg.Producer.RequiredAcks = acks

	logger.Info("Sarama 配置完成",
		zap.String("version", saramaCfg.Version.String()),
		zap.Int64("initial_offset", saramaCfg.Consumer.Offsets.Initial),
		zap.Duration("session_timeout", saramaCfg.Consumer.Group.Session.Timeout),
		zap.Duration("producer_timeout", saramaCfg.Producer.Timeout),
		zap.Int16("required_acks", int16(acks)),
	)
	return saramaCfg, nil
}

// parseAcks 解析确认级别，未知值回退到 WaitForAll。
func parseAcks(raw string) (sarama.RequiredAcks, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "all", "-1":
		return sarama.WaitForAll, true
	case "1", "leader":
		return sarama.WaitForLocal, true
	case "0", "none":
		return sarama.NoResponse, true
	default:
		return sarama.WaitForAll, false
	}
}
