// FileName: repositories/es_hot_terms.go
package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"

	"github.com/Xushengqwer/business_search/internal/models"
)

// 热门搜索词查询的默认与最大数量。
const (
	DefaultHotTermsLimit = 10
	MaxHotTermsLimit     = 50
)

// HotSearchTermRepository 定义了热门搜索词统计在 Elasticsearch 中的读写操作。
// 同一个词在不同语言下分别计数。
type HotSearchTermRepository interface {
	IncrementSearchTermCount(ctx context.Context, locale, term string) error
	GetHotSearchTerms(ctx context.Context, locale string, limit int) ([]models.HotSearchTerm, error)
}

type esHotSearchTermRepository struct {
	client    *elasticsearch.Client
	logger    *zap.Logger
	indexName string
	now       func() time.Time
}

// NewESHotSearchTermRepository 创建 HotSearchTermRepository 的 Elasticsearch 实现。
func NewESHotSearchTermRepository(client *elasticsearch.Client, logger *zap.Logger, indexName string) HotSearchTermRepository {
	if logger == nil {
		panic("创建 esHotSearchTermRepository 失败：Logger 实例不能为 nil")
	}
	if client == nil {
		logger.Panic("创建 esHotSearchTermRepository 失败：Elasticsearch 客户端实例不能为 nil")
	}
	if indexName == "" {
		logger.Panic("创建 esHotSearchTermRepository 失败：热门搜索词索引名称不能为空")
	}
	logger.Info("Elasticsearch HotSearchTermRepository 初始化成功", zap.String("index_name", indexName))
	return &esHotSearchTermRepository{
		client:    client,
		logger:    logger,
		indexName: indexName,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// normalizeTerm 统一大小写与空白，避免 "Tacos" 和 " tacos" 被分开计数。
func normalizeTerm(term string) string {
	return strings.ToLower(strings.Join(strings.Fields(term), " "))
}

// IncrementSearchTermCount 通过 painless 脚本递增计数，文档不存在时 upsert 初始值。
func (repo *esHotSearchTermRepository) IncrementSearchTermCount(ctx context.Context, locale, term string) error {
	term = normalizeTerm(term)
	if term == "" {
		return nil
	}
	locale = models.NormalizeLocale(locale)
	docID := models.HotSearchTermDocID(locale, term)
	now := repo.now()

	updateBody := map[string]interface{}{
		"script": map[string]interface{}{
			"source": "ctx._source.count += params.count_val; ctx._source.last_searched_at = params.now;",
			"lang":   "painless",
			"params": map[string]interface{}{
				"count_val": 1,
				"now":       now,
			},
		},
		"upsert": models.HotSearchTermES{
			Term:           term,
			Locale:         locale,
			Count:          1,
			LastSearchedAt: now,
		},
	}
	payload, err := json.Marshal(updateBody)
	if err != nil {
		repo.logger.Error("序列化热门搜索词更新请求体失败", zap.String("term", term), zap.Error(err))
		return fmt.Errorf("序列化热门搜索词更新请求体 (term: %s) 失败: %w", term, err)
	}

	req := esapi.UpdateRequest{
		Index:           repo.indexName,
		DocumentID:      docID,
		Body:            bytes.NewReader(payload),
		RetryOnConflict: intPtr(3),
	}
	res, err := req.Do(ctx, repo.client)
	if err != nil {
		repo.logger.Error("执行 Elasticsearch 热门搜索词更新请求时发生连接或客户端错误", zap.String("term", term), zap.Error(err))
		return fmt.Errorf("Elasticsearch 热门搜索词更新请求 (term: %s) 失败: %w", term, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return logAndWrapESError(repo.logger, res, "更新热门搜索词计数", docID)
	}

	repo.logger.Debug("热门搜索词计数已更新", zap.String("doc_id", docID), zap.String("es_status", res.Status()))
	return nil
}

// GetHotSearchTerms 返回某个语言下计数最高的 N 个搜索词。
func (repo *esHotSearchTermRepository) GetHotSearchTerms(ctx context.Context, locale string, limit int) ([]models.HotSearchTerm, error) {
	if limit <= 0 {
		limit = DefaultHotTermsLimit
	}
	if limit > MaxHotTermsLimit {
		limit = MaxHotTermsLimit
	}
	locale = models.NormalizeLocale(locale)

	query := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"term": map[string]interface{}{"locale": locale},
		},
		"sort": []interface{}{
			map[string]interface{}{"count": map[string]string{"order": "desc"}},
			map[string]interface{}{"last_searched_at": map[string]string{"order": "desc"}},
		},
	}
	queryJSON, err := marshalQuery(query)
	if err != nil {
		return nil, err
	}

	searchReq := esapi.SearchRequest{
		Index: []string{repo.indexName},
		Body:  bytes.NewReader(queryJSON),
	}
	res, err := searchReq.Do(ctx, repo.client)
	if err != nil {
		repo.logger.Error("执行 Elasticsearch 热门搜索词查询时发生连接或客户端错误", zap.Error(err))
		return nil, fmt.Errorf("Elasticsearch 热门搜索词查询失败: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, logAndWrapESError(repo.logger, res, "检索热门搜索词", fmt.Sprintf("locale=%s limit=%d", locale, limit))
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source models.HotSearchTermES `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		repo.logger.Error("解码 Elasticsearch 热门搜索词响应体失败", zap.Error(err))
		return nil, fmt.Errorf("解码 Elasticsearch 热门搜索词响应失败: %w", err)
	}

	terms := make([]models.HotSearchTerm, 0, len(esResponse.Hits.Hits))
	for _, hit := range esResponse.Hits.Hits {
		terms = append(terms, models.HotSearchTerm{
			Term:   hit.Source.Term,
			Locale: hit.Source.Locale,
			Count:  hit.Source.Count,
		})
	}
	repo.logger.Debug("成功检索热门搜索词", zap.String("locale", locale), zap.Int("retrieved_count", len(terms)))
	return terms, nil
}

func intPtr(v int) *int { return &v }
