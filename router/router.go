package router

import (
	"time"

	"github.com/Xushengqwer/go-common/core"
	commonMiddleware "github.com/Xushengqwer/go-common/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/Xushengqwer/business_search/config"
	"github.com/Xushengqwer/business_search/constants"
	_ "github.com/Xushengqwer/business_search/docs"
	"github.com/Xushengqwer/business_search/internal/api"
)

const defaultRequestTimeout = 10 * time.Second

// SetupRouter 创建 Gin 引擎，注册全局中间件、/api/v1/search 下的业务路由、Swagger 与 /metrics。
func SetupRouter(
	logger *core.ZapLogger,
	cfg *config.BusinessSearchConfig,
	searchHandler *api.SearchHandler,
) *gin.Engine {
	if searchHandler == nil {
		logger.Error("SearchHandler 实例为 nil，其 API 路由无法注册！")
		panic("致命错误：SearchHandler 未初始化，无法注册 API 路由。")
	}

	router := gin.New()

	router.Use(otelgin.Middleware(constants.ServiceName))
	router.Use(commonMiddleware.ErrorHandlingMiddleware(logger))
	router.Use(commonMiddleware.RequestLoggerMiddleware(logger.Logger()))

	requestTimeout := cfg.Server.RequestTimeout
	if requestTimeout <= 0 {
		logger.Warn("server.requestTimeout 无效或未设置，使用默认超时",
			zap.Duration("configured", cfg.Server.RequestTimeout),
			zap.Duration("default", defaultRequestTimeout),
		)
		requestTimeout = defaultRequestTimeout
	}
	router.Use(commonMiddleware.RequestTimeoutMiddleware(logger, requestTimeout))

	searchHandler.RegisterRoutes(router.Group("/api/v1/search"))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	logger.Info("Gin 路由设置完成",
		zap.String("service_name", constants.ServiceName),
		zap.Duration("request_timeout", requestTimeout),
	)
	return router
}
