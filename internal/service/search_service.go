package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Xushengqwer/business_search/internal/metrics"
	"github.com/Xushengqwer/business_search/internal/models"
	"github.com/Xushengqwer/business_search/internal/projector"
	"github.com/Xushengqwer/business_search/internal/repositories"
)

// ErrNoRecordLoader 表示未配置目录服务，无法按 ID 重新加载商家记录。
var ErrNoRecordLoader = errors.New("未配置商家记录加载器")

// RecordLoader 按商家 ID 加载完整的商家记录（嵌套关联均已解析）。
// 记录不存在时返回的错误应包装 models.ErrBusinessNotFound。
type RecordLoader interface {
	LoadBusiness(ctx context.Context, id string) (*models.BusinessRecord, error)
}

// SearchService 组合文档投影、查询编译与 Elasticsearch 仓库，对外提供读写操作。
// 所有读写方法都不会因为引擎故障而返回错误：失败时返回带降级值的 Outcome，
// 调用方照常使用 Value，需要区分时检查 Err。
type SearchService struct {
	businessRepo      repositories.BusinessRepository
	hotSearchTermRepo repositories.HotSearchTermRepository
	loader            RecordLoader
	logger            *zap.Logger
}

// NewSearchService 创建 SearchService。loader 可以为 nil，此时 ReindexFromDirectory 总是降级。
func NewSearchService(
	businessRepo repositories.BusinessRepository,
	hotSearchTermRepo repositories.HotSearchTermRepository,
	loader RecordLoader,
	logger *zap.Logger,
) *SearchService {
	if logger == nil {
		panic("创建 SearchService 失败：Logger 实例不能为 nil。")
	}
	if businessRepo == nil {
		logger.Panic("创建 SearchService 失败：BusinessRepository 实例不能为 nil。")
	}
	if hotSearchTermRepo == nil {
		logger.Panic("创建 SearchService 失败：HotSearchTermRepository 实例不能为 nil。")
	}
	if loader == nil {
		logger.Warn("未配置商家记录加载器，缺少快照的事件将无法处理")
	}

	logger.Info("SearchService 初始化成功")
	return &SearchService{
		businessRepo:      businessRepo,
		hotSearchTermRepo: hotSearchTermRepo,
		loader:            loader,
		logger:            logger,
	}
}

// Search 执行商家搜索。引擎出错时返回 {businesses: [], total: 0, took: 0}。
func (s *SearchService) Search(ctx context.Context, req models.SearchRequest) models.Outcome[*models.SearchResult] {
	req = req.Normalize()
	start := time.Now()

	result, err := s.businessRepo.SearchBusinesses(ctx, req)
	metrics.ObserveEngineOperation("search", start, err)
	if err != nil {
		s.logger.Error("商家搜索失败，返回空结果",
			zap.String("query", req.Query),
			zap.String("locale", req.Locale),
			zap.Error(err),
		)
		return models.Degraded(models.EmptySearchResult(), err)
	}
	if result.Businesses == nil {
		result.Businesses = []models.SearchHit{}
	}
	return models.Succeeded(result)
}

// Suggest 返回名称补全候选。少于 2 个字符的前缀直接返回空列表，不会访问引擎。
func (s *SearchService) Suggest(ctx context.Context, partial, locale string) models.Outcome[[]string] {
	partial = strings.TrimSpace(partial)
	locale = models.NormalizeLocale(locale)

	if !repositories.SuggestPrefixLongEnough(partial) {
		metrics.EngineOperationsTotal.WithLabelValues("suggest", metrics.OutcomeSkipped).Inc()
		return models.Succeeded([]string{})
	}

	start := time.Now()
	suggestions, err := s.businessRepo.SuggestBusinessNames(ctx, partial, locale)
	metrics.ObserveEngineOperation("suggest", start, err)
	if err != nil {
		s.logger.Error("名称补全失败，返回空列表",
			zap.String("prefix", partial),
			zap.String("locale", locale),
			zap.Error(err),
		)
		return models.Degraded([]string{}, err)
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	return models.Succeeded(suggestions)
}

// IndexDocument 投影并写入一条商家记录。
func (s *SearchService) IndexDocument(ctx context.Context, record models.BusinessRecord) models.Outcome[bool] {
	start := time.Now()
	err := s.businessRepo.IndexBusiness(ctx, projector.Project(record))
	metrics.ObserveEngineOperation("index", start, err)
	if err != nil {
		s.logger.Error("索引商家文档失败", zap.String("business_id", record.ID), zap.Error(err))
		return models.Degraded(false, err)
	}
	return models.Succeeded(true)
}

// UpdateDocument 以给定 id 重新投影并整体覆盖文档。
func (s *SearchService) UpdateDocument(ctx context.Context, id string, record models.BusinessRecord) models.Outcome[bool] {
	start := time.Now()
	err := s.businessRepo.UpdateBusiness(ctx, id, projector.Project(record))
	metrics.ObserveEngineOperation("update", start, err)
	if err != nil {
		s.logger.Error("更新商家文档失败", zap.String("business_id", id), zap.Error(err))
		return models.Degraded(false, err)
	}
	return models.Succeeded(true)
}

// DeleteDocument 删除文档；文档本不存在同样视为成功。
func (s *SearchService) DeleteDocument(ctx context.Context, id string) models.Outcome[bool] {
	start := time.Now()
	err := s.businessRepo.DeleteBusiness(ctx, id)
	metrics.ObserveEngineOperation("delete", start, err)
	if err != nil {
		s.logger.Error("删除商家文档失败", zap.String("business_id", id), zap.Error(err))
		return models.Degraded(false, err)
	}
	return models.Succeeded(true)
}

// ReindexFromDirectory 从目录服务加载最新记录并同步到索引：
// 已公开的记录被写入，其余状态或目录中已不存在的记录被删除。
func (s *SearchService) ReindexFromDirectory(ctx context.Context, id string) models.Outcome[bool] {
	if s.loader == nil {
		return models.Degraded(false, ErrNoRecordLoader)
	}

	record, err := s.loader.LoadBusiness(ctx, id)
	switch {
	case errors.Is(err, models.ErrBusinessNotFound), err == nil && record == nil:
		s.logger.Info("目录中已不存在该商家，从索引中删除", zap.String("business_id", id))
		return s.DeleteDocument(ctx, id)
	case err != nil:
		s.logger.Error("加载商家记录失败", zap.String("business_id", id), zap.Error(err))
		return models.Degraded(false, fmt.Errorf("加载商家记录 %s 失败: %w", id, err))
	}

	if !record.IsPublished() {
		s.logger.Info("商家当前不是公开状态，从索引中删除",
			zap.String("business_id", id),
			zap.String("status", string(record.Status)),
		)
		return s.DeleteDocument(ctx, id)
	}
	return s.UpdateDocument(ctx, id, *record)
}

// LogSearchQuery 记录一次搜索词，用于热门搜索词统计。记录失败不影响搜索本身。
func (s *SearchService) LogSearchQuery(ctx context.Context, locale, query string) error {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	locale = models.NormalizeLocale(locale)
	if err := s.hotSearchTermRepo.IncrementSearchTermCount(ctx, locale, query); err != nil {
		s.logger.Warn("记录搜索词失败", zap.String("query", query), zap.String("locale", locale), zap.Error(err))
		return fmt.Errorf("记录搜索词 '%s' 失败: %w", query, err)
	}
	return nil
}

// GetHotSearchTerms 返回某个语言下的热门搜索词，引擎出错时返回空列表。
func (s *SearchService) GetHotSearchTerms(ctx context.Context, locale string, limit int) models.Outcome[[]models.HotSearchTerm] {
	locale = models.NormalizeLocale(locale)
	start := time.Now()
	terms, err := s.hotSearchTermRepo.GetHotSearchTerms(ctx, locale, limit)
	metrics.ObserveEngineOperation("hot_terms", start, err)
	if err != nil {
		s.logger.Error("获取热门搜索词失败", zap.String("locale", locale), zap.Int("limit", limit), zap.Error(err))
		return models.Degraded([]models.HotSearchTerm{}, err)
	}
	if terms == nil {
		terms = []models.HotSearchTerm{}
	}
	return models.Succeeded(terms)
}
