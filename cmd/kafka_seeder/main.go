package main

import (
	"encoding/json"
	"flag"
	"log"
	"path/filepath"
	"time"

	"github.com/IBM/sarama"
	"github.com/Xushengqwer/go-common/core"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Xushengqwer/business_search/config"
	internalKafka "github.com/Xushengqwer/business_search/internal/core/kafka"
	"github.com/Xushengqwer/business_search/internal/models"
)

func main() {
	var configFile string
	flag.StringVar(&configFile, "config", filepath.Join("..", "..", "config", "config.development.yaml"), "指定配置文件的路径")
	flag.Parse()

	if !filepath.IsAbs(configFile) {
		absPath, err := filepath.Abs(configFile)
		if err != nil {
			log.Fatalf("无法将配置文件路径 '%s' 转换为绝对路径: %v", configFile, err)
		}
		configFile = absPath
	}

	var cfg config.BusinessSearchConfig
	if err := core.LoadConfig(configFile, &cfg); err != nil {
		log.Fatalf("致命错误: 加载配置文件 '%s' 失败: %v", configFile, err)
	}

	zapLogger, err := core.NewZapLogger(cfg.ZapConfig)
	if err != nil {
		log.Fatalf("致命错误: 初始化 ZapLogger 失败: %v", err)
	}
	logger := zapLogger.Logger()
	defer func() { _ = logger.Sync() }()

	topics := cfg.KafkaConfig.Topics
	if topics.BusinessPublished == "" || topics.BusinessUpdated == "" || topics.BusinessRemoved == "" {
		logger.Fatal("Kafka 配置错误：kafkaConfig.topics 需要同时配置 businessPublished / businessUpdated / businessRemoved")
	}

	saramaConfig, err := internalKafka.ConfigureSarama(cfg.KafkaConfig, logger)
	if err != nil {
		logger.Fatal("配置 Sarama 失败", zap.Error(err))
	}
	producer, err := internalKafka.NewSyncProducer(cfg.KafkaConfig, saramaConfig, logger)
	if err != nil {
		logger.Fatal("创建 Kafka 同步生产者失败", zap.Error(err))
	}
	defer func() {
		if err := producer.Close(); err != nil {
			logger.Error("关闭 Kafka 同步生产者时发生错误", zap.Error(err))
		}
	}()

	now := time.Now().UTC()
	goldenDragon := sampleBusiness("biz-golden-dragon", "golden-dragon-restaurant",
		"Golden Dragon Restaurant", "Cantonese dim sum and roast duck in downtown Phoenix.",
		"金龙酒楼", "凤凰城市中心的粤式点心与烧鸭。",
		"Phoenix", "AZ", "85004", restaurants(), now)
	desertBloom := sampleBusiness("biz-desert-bloom", "desert-bloom-florist",
		"Desert Bloom Florist", "Fresh flowers and wedding arrangements.",
		"沙漠花开花店", "鲜花与婚礼花艺布置。",
		"Tempe", "AZ", "85281", &models.Category{ID: "cat-2", Key: "florists", NameEn: "Florists", NameZh: "花店"}, now)
	englishOnly := sampleBusiness("biz-saguaro-auto", "saguaro-auto-repair",
		"Saguaro Auto Repair", "Brakes, tires and oil changes.",
		"", "",
		"Mesa", "AZ", "85201", &models.Category{ID: "cat-3", Key: "auto-repair", NameEn: "Auto Repair", NameZh: "汽车维修"}, now)

	updated := goldenDragon
	updated.Translations = append([]models.LocalizedEntry(nil), goldenDragon.Translations...)
	updated.Translations[0].Description = "Cantonese dim sum, roast duck and late-night congee in downtown Phoenix."
	updated.UpdatedAt = now.Add(time.Minute)

	events := []struct {
		topic string
		key   string
		value interface{}
	}{
		{topics.BusinessPublished, goldenDragon.ID, models.BusinessPublishedEvent{EventID: uuid.NewString(), BusinessID: goldenDragon.ID, Business: &goldenDragon, OccurredAt: now}},
		{topics.BusinessPublished, desertBloom.ID, models.BusinessPublishedEvent{EventID: uuid.NewString(), BusinessID: desertBloom.ID, Business: &desertBloom, OccurredAt: now}},
		{topics.BusinessPublished, englishOnly.ID, models.BusinessPublishedEvent{EventID: uuid.NewString(), BusinessID: englishOnly.ID, Business: &englishOnly, OccurredAt: now}},
		{topics.BusinessUpdated, updated.ID, models.BusinessUpdatedEvent{EventID: uuid.NewString(), BusinessID: updated.ID, Business: &updated, OccurredAt: updated.UpdatedAt}},
		// 从未被索引过的商家，删除应当同样成功
		{topics.BusinessRemoved, "biz-never-indexed", models.BusinessRemovedEvent{EventID: uuid.NewString(), BusinessID: "biz-never-indexed", Reason: "deleted", OccurredAt: now}},
		{topics.BusinessRemoved, desertBloom.ID, models.BusinessRemovedEvent{EventID: uuid.NewString(), BusinessID: desertBloom.ID, Reason: "unpublished", OccurredAt: now}},
	}

	sent := 0
	for _, ev := range events {
		payload, err := json.Marshal(ev.value)
		if err != nil {
			logger.Error("序列化事件失败", zap.String("business_id", ev.key), zap.Error(err))
			continue
		}
		partition, offset, err := producer.SendMessage(&sarama.ProducerMessage{
			Topic: ev.topic,
			Key:   sarama.StringEncoder(ev.key),
			Value: sarama.ByteEncoder(payload),
		})
		if err != nil {
			logger.Error("发送事件到 Kafka 失败", zap.String("topic", ev.topic), zap.String("business_id", ev.key), zap.Error(err))
			continue
		}
		sent++
		logger.Info("事件已发送",
			zap.String("topic", ev.topic),
			zap.String("business_id", ev.key),
			zap.Int32("partition", partition),
			zap.Int64("offset", offset),
		)
		time.Sleep(100 * time.Millisecond)
	}

	logger.Info("所有测试事件均已处理完毕", zap.Int("sent", sent), zap.Int("total", len(events)))
}

func restaurants() *models.Category {
	return &models.Category{ID: "cat-1", Key: "restaurants", NameEn: "Restaurants", NameZh: "餐厅"}
}

func sampleBusiness(id, slug, nameEn, descEn, nameZh, descZh, city, state, zip string, category *models.Category, at time.Time) models.BusinessRecord {
	translations := []models.LocalizedEntry{{Language: models.LocaleEN, Name: nameEn, Description: descEn}}
	if nameZh != "" {
		translations = append(translations, models.LocalizedEntry{Language: models.LocaleZH, Name: nameZh, Description: descZh})
	}
	return models.BusinessRecord{
		ID:           id,
		Slug:         slug,
		Status:       models.BusinessStatusPublished,
		Translations: translations,
		Categories:   []models.CategoryAssociation{{CategoryID: category.ID, Category: category}},
		Contact:      &models.Contact{Phone: "+1-602-555-0100", Website: "https://example.com/" + slug},
		Location:     &models.Location{City: city, State: state, PostalCode: zip, AddressLines: []string{"100 N Central Ave"}},
		CreatedAt:    at,
		UpdatedAt:    at,
	}
}
