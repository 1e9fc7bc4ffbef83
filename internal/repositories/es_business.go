// FileName: repositories/es_business.go
package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"

	"github.com/Xushengqwer/business_search/internal/models"
)

// ErrInvalidBusinessID 表示写操作缺少文档 ID。
var ErrInvalidBusinessID = errors.New("商家 ID 不能为空")

// BusinessRepository 定义了商家文档在 Elasticsearch 中的持久化与检索操作。
// 实现只返回错误，不做降级；降级由服务层负责。
type BusinessRepository interface {
	// IndexBusiness 以 doc.ID 为 _id 写入文档，已存在则整体覆盖。
	IndexBusiness(ctx context.Context, doc models.SearchDocument) error

	// UpdateBusiness 以给定 id 整体重建文档。
	UpdateBusiness(ctx context.Context, id string, doc models.SearchDocument) error

	// DeleteBusiness 删除文档；文档不存在视为成功。
	DeleteBusiness(ctx context.Context, id string) error

	// SearchBusinesses 执行编译后的搜索查询。
	SearchBusinesses(ctx context.Context, req models.SearchRequest) (*models.SearchResult, error)

	// SuggestBusinessNames 返回当前语言下名称的补全候选，按引擎返回顺序排列。
	SuggestBusinessNames(ctx context.Context, prefix, locale string) ([]string, error)
}

type esBusinessRepository struct {
	client    *elasticsearch.Client
	indexName string
	logger    *zap.Logger
}

// NewESBusinessRepository 创建 BusinessRepository 的 Elasticsearch 实现。
// 参数:
//   - client: 初始化完成的 *elasticsearch.Client。
//   - indexName: 商家索引名称，不能为空。
//   - logger: zap.Logger 实例。
//
// 返回值:
//   - BusinessRepository: esBusinessRepository 实例。
//
// 注意：关键依赖缺失时直接 panic，服务不应以不完整状态启动。
func NewESBusinessRepository(client *elasticsearch.Client, indexName string, logger *zap.Logger) BusinessRepository {
	if logger == nil {
		panic("创建 esBusinessRepository 失败：Logger 实例不能为 nil")
	}
	if client == nil {
		logger.Panic("创建 esBusinessRepository 失败：Elasticsearch 客户端实例不能为 nil")
	}
	if indexName == "" {
		logger.Panic("创建 esBusinessRepository 失败：索引名称不能为空")
	}

	logger.Info("Elasticsearch BusinessRepository 初始化成功", zap.String("index_name", indexName))
	return &esBusinessRepository{
		client:    client,
		indexName: indexName,
		logger:    logger,
	}
}

// logAndWrapESError 读取错误响应体、记录日志，并返回统一格式的错误。
func logAndWrapESError(logger *zap.Logger, res *esapi.Response, operationDesc string, contextIdentifier interface{}) error {
	var errBody strings.Builder
	var readErr error
	if res.Body != nil {
		_, readErr = io.Copy(&errBody, res.Body)
	}

	logFields := []zap.Field{
		zap.Any("context_identifier", contextIdentifier),
		zap.String("es_status", res.Status()),
	}
	responseBodyStr := errBody.String()
	if readErr != nil {
		logFields = append(logFields, zap.Error(fmt.Errorf("读取 Elasticsearch 错误响应体失败: %w", readErr)))
	} else if responseBodyStr != "" {
		logFields = append(logFields, zap.String("es_error_response_body", responseBodyStr))
	}
	logger.Error(fmt.Sprintf("Elasticsearch 操作 '%s' 失败", operationDesc), logFields...)

	if responseBodyStr != "" {
		return fmt.Errorf("Elasticsearch 操作 '%s' 失败，状态码: %s，响应: %s", operationDesc, res.Status(), responseBodyStr)
	}
	return fmt.Errorf("Elasticsearch 操作 '%s' 失败，状态码: %s", operationDesc, res.Status())
}

func (repo *esBusinessRepository) IndexBusiness(ctx context.Context, doc models.SearchDocument) error {
	return repo.put(ctx, "索引文档", doc.ID, doc)
}

func (repo *esBusinessRepository) UpdateBusiness(ctx context.Context, id string, doc models.SearchDocument) error {
	// 文档 _id 以调用方给出的 id 为准，避免记录快照中的 ID 与事件不一致时写错文档。
	doc.ID = id
	return repo.put(ctx, "更新文档", id, doc)
}

// put 以完整文档覆盖 _id 对应的文档。
// refresh=wait_for 保证调用返回后发起的读请求能看到本次写入。
func (repo *esBusinessRepository) put(ctx context.Context, operationDesc, id string, doc models.SearchDocument) error {
	if id == "" {
		return ErrInvalidBusinessID
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		repo.logger.Error("序列化 SearchDocument 为 JSON 失败", zap.String("business_id", id), zap.Error(err))
		return fmt.Errorf("序列化商家文档 (ID: %s) 失败: %w", id, err)
	}
	repo.logger.Debug("准备写入的文档JSON体", zap.String("business_id", id), zap.ByteString("payload", payload))

	req := esapi.IndexRequest{
		Index:      repo.indexName,
		DocumentID: id,
		Body:       bytes.NewReader(payload),
		Refresh:    "wait_for",
	}
	res, err := req.Do(ctx, repo.client)
	if err != nil {
		repo.logger.Error("执行 Elasticsearch 写入请求时发生连接或客户端错误",
			zap.String("operation", operationDesc),
			zap.String("business_id", id),
			zap.Error(err),
		)
		return fmt.Errorf("Elasticsearch %s请求 (ID: %s) 失败: %w", operationDesc, id, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return logAndWrapESError(repo.logger, res, operationDesc, id)
	}

	var resultDetails struct {
		Result string `json:"result"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resultDetails); err == nil {
		repo.logger.Debug("Elasticsearch 写入操作的详细结果",
			zap.String("business_id", id),
			zap.String("es_operation_result", resultDetails.Result), // created / updated / noop
		)
	}
	repo.logger.Info("成功写入商家文档",
		zap.String("operation", operationDesc),
		zap.String("business_id", id),
		zap.String("es_status", res.Status()),
	)
	return nil
}

func (repo *esBusinessRepository) DeleteBusiness(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidBusinessID
	}

	req := esapi.DeleteRequest{
		Index:      repo.indexName,
		DocumentID: id,
		Refresh:    "wait_for",
	}
	res, err := req.Do(ctx, repo.client)
	if err != nil {
		repo.logger.Error("执行 Elasticsearch 删除请求时发生连接或客户端错误", zap.String("business_id", id), zap.Error(err))
		return fmt.Errorf("Elasticsearch 删除请求 (ID: %s) 失败: %w", id, err)
	}
	defer res.Body.Close()

	// 目标状态"文档不存在"已经达成，删除是幂等的。
	if res.StatusCode == http.StatusNotFound {
		repo.logger.Warn("尝试删除的文档在 Elasticsearch 中未找到，视为操作成功",
			zap.String("business_id", id),
			zap.String("es_status", res.Status()),
		)
		return nil
	}
	if res.IsError() {
		return logAndWrapESError(repo.logger, res, "删除文档", id)
	}

	repo.logger.Info("成功删除商家文档", zap.String("business_id", id), zap.String("es_status", res.Status()))
	return nil
}

// esSearchResponse 是 _search 响应中我们关心的部分。
// total 保留原始 JSON，兼容对象 {"value":n} 与旧版本的纯数字两种形状。
type esSearchResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Total json.RawMessage `json:"total"`
		Hits  []struct {
			ID        string                `json:"_id"`
			Score     *float64              `json:"_score"`
			Source    models.SearchDocument `json:"_source"`
			Highlight map[string][]string   `json:"highlight,omitempty"`
		} `json:"hits"`
	} `json:"hits"`
}

func (repo *esBusinessRepository) SearchBusinesses(ctx context.Context, req models.SearchRequest) (*models.SearchResult, error) {
	req = req.Normalize()
	repo.logger.Debug("开始执行 Elasticsearch 商家搜索",
		zap.String("query_keywords", req.Query),
		zap.String("locale", req.Locale),
		zap.String("filter_category", req.Category),
		zap.String("filter_city", req.City),
		zap.String("filter_state", req.State),
		zap.Int("limit", req.Limit),
		zap.Int("offset", req.Offset),
	)

	queryJSON, err := marshalQuery(BuildSearchQuery(req))
	if err != nil {
		repo.logger.Error("构建 Elasticsearch 搜索查询 DSL 失败", zap.Any("search_request_params", req), zap.Error(err))
		return nil, fmt.Errorf("构建搜索查询失败: %w", err)
	}
	repo.logger.Debug("构建的 Elasticsearch 查询 DSL", zap.String("dsl_query", string(queryJSON)))

	searchReq := esapi.SearchRequest{
		Index: []string{repo.indexName},
		Body:  bytes.NewReader(queryJSON),
	}
	res, err := searchReq.Do(ctx, repo.client)
	if err != nil {
		repo.logger.Error("执行 Elasticsearch 搜索请求时发生连接或客户端错误", zap.String("query_keywords", req.Query), zap.Error(err))
		return nil, fmt.Errorf("Elasticsearch 搜索请求失败: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, logAndWrapESError(repo.logger, res, "搜索文档", req.Query)
	}

	var esResponse esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		repo.logger.Error("解码 Elasticsearch 搜索响应体失败", zap.String("query_keywords", req.Query), zap.Error(err))
		return nil, fmt.Errorf("解码 Elasticsearch 搜索响应失败: %w", err)
	}

	result := &models.SearchResult{
		Businesses: make([]models.SearchHit, 0, len(esResponse.Hits.Hits)),
		Total:      decodeTotal(esResponse.Hits.Total),
		Took:       esResponse.Took,
	}
	for _, hit := range esResponse.Hits.Hits {
		doc := hit.Source
		if doc.ID == "" {
			doc.ID = hit.ID
		}
		h := models.SearchHit{SearchDocument: doc}
		if hit.Score != nil {
			h.Score = *hit.Score
		}
		if len(hit.Highlight) > 0 {
			h.Highlights = hit.Highlight
		}
		result.Businesses = append(result.Businesses, h)
	}

	repo.logger.Info("Elasticsearch 商家搜索完成",
		zap.Int64("query_took_ms", result.Took),
		zap.Int64("total_hits_found", result.Total),
		zap.Int("returned_hits_count", len(result.Businesses)),
		zap.String("query_keywords", req.Query),
	)
	return result, nil
}

// decodeTotal 解析 hits.total；形状不符合预期时按 0 处理。
func decodeTotal(raw json.RawMessage) int64 {
	if len(raw) == 0 {
		return 0
	}
	var obj struct {
		Value int64 `json:"value"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Value
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	return 0
}

func (repo *esBusinessRepository) SuggestBusinessNames(ctx context.Context, prefix, locale string) ([]string, error) {
	body, ok := BuildSuggestQuery(prefix, locale)
	if !ok {
		return []string{}, nil
	}
	queryJSON, err := marshalQuery(body)
	if err != nil {
		return nil, fmt.Errorf("构建补全查询失败: %w", err)
	}

	searchReq := esapi.SearchRequest{
		Index: []string{repo.indexName},
		Body:  bytes.NewReader(queryJSON),
	}
	res, err := searchReq.Do(ctx, repo.client)
	if err != nil {
		repo.logger.Error("执行 Elasticsearch 补全请求时发生连接或客户端错误", zap.String("prefix", prefix), zap.Error(err))
		return nil, fmt.Errorf("Elasticsearch 补全请求失败: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, logAndWrapESError(repo.logger, res, "名称补全", prefix)
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("读取 Elasticsearch 补全响应失败: %w", err)
	}
	suggestions := parseSuggestions(raw, SuggestName)
	repo.logger.Debug("Elasticsearch 名称补全完成",
		zap.String("prefix", prefix),
		zap.String("locale", locale),
		zap.Int("suggestion_count", len(suggestions)),
	)
	return suggestions, nil
}

// parseSuggestions 把 suggest.<name>[].options[].text 展平为有序列表。
// 任何一层不是预期的数组/对象时都退化为空列表，而不是报错。
func parseSuggestions(raw []byte, name string) []string {
	suggestions := []string{}

	var envelope struct {
		Suggest map[string]json.RawMessage `json:"suggest"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return suggestions
	}
	entriesRaw, ok := envelope.Suggest[name]
	if !ok {
		return suggestions
	}

	var entries []struct {
		Options json.RawMessage `json:"options"`
	}
	if err := json.Unmarshal(entriesRaw, &entries); err != nil {
		return suggestions
	}
	for _, entry := range entries {
		var options []struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(entry.Options, &options); err != nil {
			continue
		}
		for _, opt := range options {
			if len(suggestions) >= SuggestMaxOptions {
				return suggestions
			}
			suggestions = append(suggestions, opt.Text)
		}
	}
	return suggestions
}
