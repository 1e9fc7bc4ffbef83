package es

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"

	"github.com/Xushengqwer/business_search/config"
)

// 内置的索引模板文件名。
const (
	BusinessTemplate = "businesses.json"
	HotTermsTemplate = "hot_terms.json"
)

//go:embed mappings/*.json
var templatesFS embed.FS

// ESClient 包含初始化后的 Elasticsearch 客户端及相关索引配置
type ESClient struct {
	Client           *elasticsearch.Client
	BusinessIndexCfg config.IndexSpecificConfig
	HotTermsIndexCfg config.IndexSpecificConfig
}

// LoadIndexTemplate 读取索引的 settings+mappings 模板，并用配置中的分片/副本数覆盖模板值。
// indexCfg.MappingFile 非空时从磁盘读取，否则使用内置模板 embeddedName。
func LoadIndexTemplate(indexCfg config.IndexSpecificConfig, embeddedName string) ([]byte, error) {
	var raw []byte
	var err error
	if indexCfg.MappingFile != "" {
		raw, err = os.ReadFile(indexCfg.MappingFile)
	} else {
		raw, err = templatesFS.ReadFile("mappings/" + embeddedName)
	}
	if err != nil {
		return nil, fmt.Errorf("读取索引模板失败: %w", err)
	}

	var tmpl map[string]interface{}
	if err := json.Unmarshal(raw, &tmpl); err != nil {
		return nil, fmt.Errorf("解析索引模板 JSON 失败: %w", err)
	}

	settings, _ := tmpl["settings"].(map[string]interface{})
	if settings == nil {
		settings = map[string]interface{}{}
	}
	if indexCfg.NumberOfShards > 0 {
		settings["number_of_shards"] = indexCfg.NumberOfShards
	}
	if indexCfg.NumberOfReplicas >= 0 {
		settings["number_of_replicas"] = indexCfg.NumberOfReplicas
	}
	tmpl["settings"] = settings

	return json.Marshal(tmpl)
}

// EnsureIndex 检查索引是否存在，不存在则按模板创建。
// 参数:
//   - ctx: 上层 context，存在性检查与创建请求各自在其上附加超时。
//   - esClient: Elasticsearch 客户端。
//   - indexCfg: 索引名称、分片/副本数与可选的模板文件路径。
//   - embeddedName: indexCfg.MappingFile 为空时使用的内置模板名。
//   - logger: zap.Logger 实例。
//   - indexLogicalName: 用于日志的逻辑名称。
//
// 返回值:
//   - bool: 索引已存在或创建成功时为 true。任何失败只记录日志并返回 false，
//     读写路径会各自降级，服务照常启动。
func EnsureIndex(
	ctx context.Context,
	esClient *elasticsearch.Client,
	indexCfg config.IndexSpecificConfig,
	embeddedName string,
	logger *zap.Logger,
	indexLogicalName string, // 用于日志的逻辑名称，例如 "商家" 或 "热门搜索词"
) bool {
	log := logger.With(zap.String("index_logical_name", indexLogicalName), zap.String("index_name", indexCfg.Name))

	if indexCfg.Name == "" {
		log.Error("未配置索引名称，跳过索引检查")
		return false
	}

	checkCtx, checkCancel := context.WithTimeout(ctx, 5*time.Second)
	defer checkCancel()

	existsRes, err := esapi.IndicesExistsRequest{Index: []string{indexCfg.Name}}.Do(checkCtx, esClient)
	if err != nil {
		log.Error("检查索引是否存在时发生网络或请求错误，搜索功能将降级运行", zap.Error(err))
		return false
	}
	defer existsRes.Body.Close()

	switch {
	case existsRes.StatusCode == http.StatusNotFound:
		// 走到下面的创建逻辑
	case existsRes.IsError():
		log.Error("检查索引存在性时出错，搜索功能将降级运行", zap.String("status", existsRes.Status()))
		return false
	default:
		log.Info("索引已存在")
		return true
	}

	body, err := LoadIndexTemplate(indexCfg, embeddedName)
	if err != nil {
		log.Error("加载索引模板失败", zap.String("mapping_file", indexCfg.MappingFile), zap.Error(err))
		return false
	}

	log.Warn("索引不存在，将尝试创建...",
		zap.Int("shards", indexCfg.NumberOfShards),
		zap.Int("replicas", indexCfg.NumberOfReplicas),
	)

	createCtx, createCancel := context.WithTimeout(ctx, 10*time.Second)
	defer createCancel()

	createRes, err := esapi.IndicesCreateRequest{
		Index: indexCfg.Name,
		Body:  bytes.NewReader(body),
	}.Do(createCtx, esClient)
	if err != nil {
		log.Error("发送创建索引请求失败", zap.Error(err))
		return false
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		raw, _ := io.ReadAll(createRes.Body)
		// 并发启动的实例可能已先一步创建了索引。
		var parsed struct {
			Error struct {
				Type string `json:"type"`
			} `json:"error"`
		}
		if json.Unmarshal(raw, &parsed) == nil && parsed.Error.Type == "resource_already_exists_exception" {
			log.Info("索引已由其他实例创建")
			return true
		}
		log.Error("创建索引失败",
			zap.String("status", createRes.Status()),
			zap.String("raw_response", string(raw)),
		)
		return false
	}

	log.Info("成功创建索引及映射")
	return true
}

// NewESClient 初始化 Elasticsearch 客户端，Ping 集群并确保所需索引存在。
// 只有客户端配置本身无效时才返回错误；集群不可达只会被记录。
func NewESClient(cfg config.ESConfig, logger *zap.Logger, transport http.RoundTripper) (*ESClient, error) {
	esClient, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: transport,
	})
	if err != nil {
		logger.Error("创建 Elasticsearch 客户端失败", zap.Error(err))
		return nil, fmt.Errorf("创建 Elasticsearch 客户端失败: %w", err)
	}
	logger.Info("Elasticsearch 客户端配置完成", zap.Strings("addresses", cfg.Addresses))

	ping(esClient, logger)

	ctx := context.Background()
	EnsureIndex(ctx, esClient, cfg.BusinessIndex, BusinessTemplate, logger, "商家")
	EnsureIndex(ctx, esClient, cfg.HotTermsIndex, HotTermsTemplate, logger, "热门搜索词")

	return &ESClient{
		Client:           esClient,
		BusinessIndexCfg: cfg.BusinessIndex,
		HotTermsIndexCfg: cfg.HotTermsIndex,
	}, nil
}

// ping 检查集群连通性，结果只用于日志。
func ping(esClient *elasticsearch.Client, logger *zap.Logger) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := esapi.PingRequest{}.Do(ctx, esClient)
	if err != nil {
		logger.Warn("Ping Elasticsearch 失败，服务将以降级模式启动", zap.Error(err))
		return false
	}
	defer res.Body.Close()
	if res.IsError() {
		logger.Warn("Elasticsearch Ping 不成功，服务将以降级模式启动", zap.String("status", res.Status()))
		return false
	}
	logger.Info("Elasticsearch 客户端连接成功 (Ping 成功)", zap.String("status", res.Status()))
	return true
}
