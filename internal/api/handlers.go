package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Xushengqwer/gateway/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Xushengqwer/business_search/internal/models"
	"github.com/Xushengqwer/business_search/internal/repositories"
)

const logQueryTimeout = 5 * time.Second

// SearchService 是 HTTP 层依赖的服务接口，由 service.SearchService 实现。
type SearchService interface {
	Search(ctx context.Context, req models.SearchRequest) models.Outcome[*models.SearchResult]
	Suggest(ctx context.Context, partial, locale string) models.Outcome[[]string]
	GetHotSearchTerms(ctx context.Context, locale string, limit int) models.Outcome[[]models.HotSearchTerm]
	LogSearchQuery(ctx context.Context, locale, query string) error
	IndexDocument(ctx context.Context, record models.BusinessRecord) models.Outcome[bool]
	UpdateDocument(ctx context.Context, id string, record models.BusinessRecord) models.Outcome[bool]
	DeleteDocument(ctx context.Context, id string) models.Outcome[bool]
	ReindexFromDirectory(ctx context.Context, id string) models.Outcome[bool]
}

// SearchHandler 封装搜索相关的 API 请求处理逻辑.
type SearchHandler struct {
	searchService SearchService
	logger        *zap.Logger
}

func NewSearchHandler(searchSvc SearchService, logger *zap.Logger) *SearchHandler {
	if logger == nil {
		panic("NewSearchHandler: logger cannot be nil")
	}
	if searchSvc == nil {
		logger.Fatal("NewSearchHandler: SearchService 不能为 nil")
	}
	return &SearchHandler{
		searchService: searchSvc,
		logger:        logger,
	}
}

// SearchBusinesses 处理商家搜索请求
// @Summary      搜索商家
// @Description  按关键词、分类、城市、州和语言搜索已公开的商家。搜索引擎不可用时返回空结果而不是错误。
// @Tags         Search
// @Produce      json
// @Param        q         query     string  false  "搜索关键词"
// @Param        category  query     string  false  "分类 key"
// @Param        city      query     string  false  "城市"
// @Param        state     query     string  false  "州/省"
// @Param        locale    query     string  false  "语言 (en 或 zh)" default(en)
// @Param        limit     query     int     false  "每页数量，最大 100" default(20)
// @Param        offset    query     int     false  "偏移量" default(0)
// @Success      200       {object}  models.SwaggerSearchResultResponse "搜索完成"
// @Failure      400       {object}  models.SwaggerErrorResponse "请求参数无效"
// @Router       /api/v1/search/businesses [get]
func (h *SearchHandler) SearchBusinesses(c *gin.Context) {
	var req models.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Warn("请求参数绑定或验证失败", zap.Error(err))
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "请求参数无效")
		return
	}
	req = req.Normalize()

	out := h.searchService.Search(c.Request.Context(), req)
	switch {
	case out.IsDegraded():
		h.logger.Warn("搜索降级，返回空结果", zap.String("query", req.Query), zap.Error(out.Err))
	case req.Query != "":
		go h.logSearchQuery(req.Locale, req.Query)
	}
	h.logger.Debug("搜索完成", zap.Int("hits", len(out.Value.Businesses)), zap.Int64("total", out.Value.Total))
	response.RespondSuccess(c, out.Value, "搜索成功")
}

// logSearchQuery 在请求之外异步记录搜索词，请求结束不会取消它。
func (h *SearchHandler) logSearchQuery(locale, query string) {
	ctx, cancel := context.WithTimeout(context.Background(), logQueryTimeout)
	defer cancel()
	if err := h.searchService.LogSearchQuery(ctx, locale, query); err != nil {
		h.logger.Error("异步记录搜索关键词失败", zap.String("query", query), zap.Error(err))
	}
}

// Suggest 处理名称自动补全请求
// @Summary      商家名称自动补全
// @Description  根据输入前缀返回最多 10 个商家名称候选。少于 2 个字符时直接返回空列表。
// @Tags         Search
// @Produce      json
// @Param        q       query     string  true   "输入前缀"
// @Param        locale  query     string  false  "语言 (en 或 zh)" default(en)
// @Success      200     {object}  models.SwaggerSuggestResponse "候选列表"
// @Failure      400     {object}  models.SwaggerErrorResponse "请求参数无效"
// @Router       /api/v1/search/suggest [get]
func (h *SearchHandler) Suggest(c *gin.Context) {
	var req models.SuggestRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Warn("补全请求参数绑定失败", zap.Error(err))
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "请求参数无效")
		return
	}

	out := h.searchService.Suggest(c.Request.Context(), req.Query, req.Locale)
	response.RespondSuccess(c, out.Value, "获取补全候选成功")
}

// GetHotSearchTerms 处理获取热门搜索词的请求
// @Summary      获取热门搜索词
// @Description  返回某个语言下搜索次数最多的关键词。
// @Tags         Search
// @Produce      json
// @Param        limit   query     int     false  "返回数量" default(10) minimum(1) maximum(50)
// @Param        locale  query     string  false  "语言 (en 或 zh)" default(en)
// @Success      200     {object}  models.SwaggerHotSearchTermsResponse "热门搜索词列表"
// @Router       /api/v1/search/hot-terms [get]
func (h *SearchHandler) GetHotSearchTerms(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(repositories.DefaultHotTermsLimit)))
	if err != nil || limit <= 0 {
		limit = repositories.DefaultHotTermsLimit
	} else if limit > repositories.MaxHotTermsLimit {
		limit = repositories.MaxHotTermsLimit
	}
	locale := models.NormalizeLocale(c.Query("locale"))

	out := h.searchService.GetHotSearchTerms(c.Request.Context(), locale, limit)
	response.RespondSuccess(c, out.Value, "热门搜索词获取成功")
}

// IndexBusiness 写入一条商家记录
// @Summary      索引商家
// @Description  将完整的商家记录投影为搜索文档并写入索引。写入失败时 success 为 false。
// @Tags         Index
// @Accept       json
// @Produce      json
// @Param        business  body      models.BusinessRecord  true  "商家记录"
// @Success      200       {object}  models.SwaggerWriteResultResponse "写入结果"
// @Failure      400       {object}  models.SwaggerErrorResponse "请求体无效或缺少 id"
// @Router       /api/v1/search/index [post]
func (h *SearchHandler) IndexBusiness(c *gin.Context) {
	var record models.BusinessRecord
	if err := c.ShouldBindJSON(&record); err != nil || strings.TrimSpace(record.ID) == "" {
		h.logger.Warn("索引请求体无效", zap.Error(err))
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "请求体无效或缺少商家 id")
		return
	}

	out := h.searchService.IndexDocument(c.Request.Context(), record)
	response.RespondSuccess(c, models.WriteResult{ID: record.ID, Success: out.Value}, "索引请求已处理")
}

// UpdateBusiness 以路径中的 id 覆盖商家文档
// @Summary      更新商家文档
// @Tags         Index
// @Accept       json
// @Produce      json
// @Param        id        path      string                 true  "商家 ID"
// @Param        business  body      models.BusinessRecord  true  "商家记录"
// @Success      200       {object}  models.SwaggerWriteResultResponse "写入结果"
// @Failure      400       {object}  models.SwaggerErrorResponse "请求体无效"
// @Router       /api/v1/search/index/{id} [put]
func (h *SearchHandler) UpdateBusiness(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	var record models.BusinessRecord
	if err := c.ShouldBindJSON(&record); err != nil || id == "" {
		h.logger.Warn("更新请求体无效", zap.String("business_id", id), zap.Error(err))
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "请求体无效")
		return
	}

	out := h.searchService.UpdateDocument(c.Request.Context(), id, record)
	response.RespondSuccess(c, models.WriteResult{ID: id, Success: out.Value}, "更新请求已处理")
}

// DeleteBusiness 从索引中删除商家文档
// @Summary      删除商家文档
// @Description  文档本不存在同样视为成功。
// @Tags         Index
// @Produce      json
// @Param        id   path      string  true  "商家 ID"
// @Success      200  {object}  models.SwaggerWriteResultResponse "删除结果"
// @Router       /api/v1/search/index/{id} [delete]
func (h *SearchHandler) DeleteBusiness(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	out := h.searchService.DeleteDocument(c.Request.Context(), id)
	response.RespondSuccess(c, models.WriteResult{ID: id, Success: out.Value}, "删除请求已处理")
}

// ReindexBusiness 从目录服务重新加载商家并同步到索引
// @Summary      重新同步商家
// @Description  已公开的商家被写入，其余状态或目录中不存在的商家被删除。
// @Tags         Index
// @Produce      json
// @Param        id   path      string  true  "商家 ID"
// @Success      200  {object}  models.SwaggerWriteResultResponse "同步结果"
// @Router       /api/v1/search/reindex/{id} [post]
func (h *SearchHandler) ReindexBusiness(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	out := h.searchService.ReindexFromDirectory(c.Request.Context(), id)
	if out.IsDegraded() {
		h.logger.Warn("重新同步商家失败", zap.String("business_id", id), zap.Error(out.Err))
	}
	response.RespondSuccess(c, models.WriteResult{ID: id, Success: out.Value}, "同步请求已处理")
}

// HealthCheck 健康检查处理函数
// @Summary      存活检查
// @Tags         Health
// @Produce      json
// @Success      200  {object}  models.SwaggerHealthCheckResponse "服务存活"
// @Router       /api/v1/search/_health [get]
func (h *SearchHandler) HealthCheck(c *gin.Context) {
	response.RespondSuccess(c, gin.H{"status": "ok"}, "服务存活")
}

// RegisterRoutes 将搜索相关的路由注册到提供的 Gin 路由组上。
func (h *SearchHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/businesses", h.SearchBusinesses)
	rg.GET("/suggest", h.Suggest)
	rg.GET("/hot-terms", h.GetHotSearchTerms)

	rg.POST("/index", h.IndexBusiness)
	rg.PUT("/index/:id", h.UpdateBusiness)
	rg.DELETE("/index/:id", h.DeleteBusiness)
	rg.POST("/reindex/:id", h.ReindexBusiness)

	rg.GET("/_health", h.HealthCheck)
	h.logger.Info("SearchHandler 的所有路由已注册完成")
}
