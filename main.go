package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Xushengqwer/go-common/core"
	sharedTracing "github.com/Xushengqwer/go-common/core/tracing"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/Xushengqwer/business_search/config"
	"github.com/Xushengqwer/business_search/constants"
	"github.com/Xushengqwer/business_search/internal/api"
	"github.com/Xushengqwer/business_search/internal/core/directory"
	coreES "github.com/Xushengqwer/business_search/internal/core/es"
	coreKafka "github.com/Xushengqwer/business_search/internal/core/kafka"
	"github.com/Xushengqwer/business_search/internal/repositories"
	"github.com/Xushengqwer/business_search/internal/service"
	"github.com/Xushengqwer/business_search/router"
)

// @title 商家搜索服务 API
// @version 1.0.0
// @description 双语 (en/zh) 商家目录的搜索、自动补全与索引维护接口。
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8084
// @schemes http https
func main() {
	var configFile string
	flag.StringVar(&configFile, "config", "config/config.development.yaml", "指定配置文件的路径")
	flag.Parse()

	var cfg config.BusinessSearchConfig
	if err := core.LoadConfig(configFile, &cfg); err != nil {
		log.Fatalf("致命错误: 加载配置文件 '%s' 失败: %v", configFile, err)
	}

	zapLogger, err := core.NewZapLogger(cfg.ZapConfig)
	if err != nil {
		log.Fatalf("致命错误: 初始化 ZapLogger 失败: %v", err)
	}
	defer func() {
		if err := zapLogger.Logger().Sync(); err != nil {
			log.Printf("警告: ZapLogger Sync 操作失败: %v\n", err)
		}
	}()
	logger := zapLogger.Logger()

	// --- HTTP Transport 和 Tracer ---
	var outboundTransport http.RoundTripper = &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if cfg.TracerConfig.Enabled {
		tracerShutdown, err := sharedTracing.InitTracerProvider(constants.ServiceName, constants.ServiceVersion, cfg.TracerConfig)
		if err != nil {
			logger.Fatal("初始化分布式追踪 TracerProvider 失败", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerShutdown(ctx); err != nil {
				logger.Error("关闭分布式追踪 TracerProvider 时发生错误", zap.Error(err))
			}
		}()
		outboundTransport = otelhttp.NewTransport(outboundTransport)
		logger.Info("分布式追踪功能已初始化")
	} else {
		logger.Info("分布式追踪功能已禁用 (根据配置)")
	}

	// --- Elasticsearch：客户端、索引与仓库 ---
	esClient, err := coreES.NewESClient(cfg.ElasticsearchConfig, logger, outboundTransport)
	if err != nil {
		logger.Fatal("创建 Elasticsearch 客户端失败", zap.Error(err))
	}
	if esClient.BusinessIndexCfg.Name == "" || esClient.HotTermsIndexCfg.Name == "" {
		logger.Fatal("索引名称未配置 (elasticsearchConfig.businessIndex.name / hotTermsIndex.name)")
	}
	businessRepo := repositories.NewESBusinessRepository(esClient.Client, esClient.BusinessIndexCfg.Name, logger)
	hotTermsRepo := repositories.NewESHotSearchTermRepository(esClient.Client, logger, esClient.HotTermsIndexCfg.Name)

	// --- 目录服务（可选） ---
	var loader service.RecordLoader
	if cfg.DirectoryConfig.BaseURL != "" {
		dirClient, err := directory.NewClient(cfg.DirectoryConfig, outboundTransport, logger)
		if err != nil {
			logger.Fatal("创建目录服务客户端失败", zap.Error(err))
		}
		loader = dirClient
	}

	searchSvc := service.NewSearchService(businessRepo, hotTermsRepo, loader, logger)

	// --- Kafka：事件服务、DLQ 生产者与消费者组 ---
	eventSvc := coreKafka.NewEventService(searchSvc, logger)

	saramaCfg, err := coreKafka.ConfigureSarama(cfg.KafkaConfig, logger)
	if err != nil {
		logger.Fatal("配置 Sarama 失败", zap.Error(err))
	}

	dlqProducer, err := coreKafka.NewSyncProducer(cfg.KafkaConfig, saramaCfg, logger)
	if err != nil {
		logger.Fatal("创建 Kafka DLQ 同步生产者失败", zap.Error(err))
	}
	defer func() {
		if err := dlqProducer.Close(); err != nil {
			logger.Error("关闭 Kafka DLQ 生产者时发生错误", zap.Error(err))
		}
	}()

	kafkaHandler := coreKafka.NewHandler(eventSvc, dlqProducer, cfg.KafkaConfig, logger)
	consumerGroup, err := coreKafka.NewConsumerGroup(cfg.KafkaConfig, saramaCfg, kafkaHandler, logger)
	if err != nil {
		logger.Fatal("创建 Kafka 消费者组失败", zap.Error(err))
	}
	defer func() {
		if err := consumerGroup.Close(); err != nil {
			logger.Error("关闭 Kafka 消费者组时发生错误", zap.Error(err))
		}
	}()

	// --- HTTP ---
	searchHandler := api.NewSearchHandler(searchSvc, logger)
	ginRouter := router.SetupRouter(zapLogger, &cfg, searchHandler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumerGroup.Start(ctx)

	serverAddr := cfg.Server.ListenAddr
	if serverAddr == "" {
		serverAddr = ":" + cfg.Server.Port
	} else if !strings.Contains(serverAddr, ":") {
		serverAddr = serverAddr + ":" + cfg.Server.Port
	}
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: ginRouter,
	}

	go func() {
		logger.Info("HTTP API 服务器正在启动...", zap.String("listen_address", serverAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP API 服务器启动失败或意外停止", zap.Error(err))
			cancel()
		}
	}()

	quitSignal := make(chan os.Signal, 1)
	signal.Notify(quitSignal, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quitSignal:
		logger.Info("接收到关闭信号，开始优雅关闭", zap.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Warn("HTTP 服务器异常退出，开始关闭其余组件")
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("关闭 HTTP API 服务器时发生错误", zap.Error(err))
	}

	logger.Info("服务所有组件已完成关闭流程，程序即将退出")
}
